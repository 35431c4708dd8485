package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/ol-results/internal/batch"
	"github.com/yourusername/ol-results/internal/iof"
	"github.com/yourusername/ol-results/internal/logger"
	"github.com/yourusername/ol-results/internal/metrics"
	"github.com/yourusername/ol-results/internal/models"
	"github.com/yourusername/ol-results/internal/repository"
)

const (
	errReadInput           = "failed to read input: %w"
	errOpenFile            = "failed to open %s: %w"
	errFetch               = "failed to fetch %s: %w"
	errResolveEvent        = "failed to resolve event %q: %w"
	errReplaceClasses      = "failed to replace class results of event %d: %w"
	errAppendClasses       = "failed to append class results to event %d: %w"
	errReloadEvent         = "failed to reload event %d: %w"
	streamSource           = "stream"
	defaultImportBatchSize = batch.DefaultSize
)

// ErrNoFetcher is returned by ImportURL when the service has no fetcher
var ErrNoFetcher = errors.New("no fetcher configured")

// Fetcher opens remote result lists
type Fetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// ImportService runs the Read, Parse, Resolve, Merge and Persist stages for
// one result list per call. Calls may run concurrently; imports of the same
// event name hold a lock from Resolve until the stored event is reloaded, so
// their Replace and Append writes never interleave.
type ImportService struct {
	repo       repository.EventRepository
	validator  *DataValidator
	normalizer *DataNormalizer
	fetcher    Fetcher
	logger     *logger.ImportLogger
	audit      *logger.AuditLogger
	metrics    *ImportMetrics
	locks      *eventLocks
	batchSize  int
}

// NewImportService creates a new import service
func NewImportService(
	repo repository.EventRepository,
	validator *DataValidator,
	normalizer *DataNormalizer,
	log *logrus.Logger,
	batchSize int,
) *ImportService {
	if batchSize <= 0 {
		batchSize = defaultImportBatchSize
	}

	return &ImportService{
		repo:       repo,
		validator:  validator,
		normalizer: normalizer,
		logger:     logger.NewImportLogger(log),
		audit:      logger.NewAuditLogger(log),
		metrics:    NewImportMetrics(),
		locks:      newEventLocks(),
		batchSize:  batchSize,
	}
}

// WithFetcher enables ImportURL
func (s *ImportService) WithFetcher(f Fetcher) *ImportService {
	s.fetcher = f
	return s
}

// Metrics returns the counters of this service
func (s *ImportService) Metrics() *ImportMetrics {
	return s.metrics
}

// importRun carries the state of one import through the stages
type importRun struct {
	id      uuid.UUID
	source  string
	stage   Stage
	started time.Time
	log     *logger.ImportLogger
}

func (s *ImportService) newRun(source string) *importRun {
	id := uuid.New()
	return &importRun{
		id:      id,
		source:  source,
		started: time.Now(),
		log:     s.logger.ForRun(id.String(), source),
	}
}

func (r *importRun) enter(stage Stage) {
	r.stage = stage
	r.log.LogStage(string(stage))
}

// ImportFile imports a result list read from r and returns the persisted event
func (s *ImportService) ImportFile(ctx context.Context, r io.Reader) (*models.Event, error) {
	return s.execute(ctx, s.newRun(streamSource), r)
}

// ImportPath imports the result list stored at path
func (s *ImportService) ImportPath(ctx context.Context, path string) (*models.Event, error) {
	run := s.newRun(filepath.Base(path))

	f, err := os.Open(path)
	if err != nil {
		return nil, s.fail(run, newImportError(StageRead, KindIO, fmt.Errorf(errOpenFile, path, err)))
	}
	defer f.Close()

	return s.execute(ctx, run, f)
}

// ImportURL fetches and imports a remote result list
func (s *ImportService) ImportURL(ctx context.Context, url string) (*models.Event, error) {
	run := s.newRun(url)

	if s.fetcher == nil {
		return nil, s.fail(run, newImportError(StageRead, KindIO, ErrNoFetcher))
	}

	body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, s.fail(run, newImportError(StageRead, KindIO, fmt.Errorf(errFetch, url, err)))
	}
	defer body.Close()

	return s.execute(ctx, run, body)
}

func (s *ImportService) execute(ctx context.Context, run *importRun, r io.Reader) (*models.Event, error) {
	event, created, err := s.pipeline(ctx, run, r)
	if err != nil {
		var ie *ImportError
		if !errors.As(err, &ie) {
			ie = newImportError(run.stage, KindPersistence, err)
		}
		return nil, s.fail(run, ie)
	}

	duration := time.Since(run.started)
	classes, results := len(event.ClassResults), event.ResultCount()

	run.enter(StageDone)
	run.log.LogImportCompleted(int64(event.ID), event.Name.String(), classes, results, duration)
	s.metrics.RecordSuccess(created, classes, results, duration)
	metrics.RecordImport(metrics.ImportStatusSuccess, duration.Seconds())

	return event, nil
}

func (s *ImportService) fail(run *importRun, ie *ImportError) error {
	ie.RunID = run.id.String()
	ie.Source = run.source

	duration := time.Since(run.started)
	run.log.LogImportFailed(string(ie.Stage), string(ie.Kind), ie.BatchIndex, ie.Err)
	s.metrics.RecordFailure(ie.Kind, duration)
	metrics.RecordImport(ie.Kind.status(), duration.Seconds())

	return ie
}

func (s *ImportService) pipeline(ctx context.Context, run *importRun, r io.Reader) (*models.Event, bool, error) {
	// Read
	run.enter(StageRead)
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, false, newImportError(StageRead, KindIO, fmt.Errorf(errReadInput, err))
	}

	// Parse
	run.enter(StageParse)
	parsed, err := iof.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, false, newImportError(StageParse, KindParse, err)
	}
	s.normalizer.NormalizeEvent(parsed)
	if err := s.validator.Validate(parsed); err != nil {
		return nil, false, newImportError(StageParse, KindParse, err)
	}

	// Resolve
	run.enter(StageResolve)
	unlock := s.locks.lock(parsed.Name.String())
	defer unlock()

	resolved, created, err := s.repo.FindOrCreate(ctx, parsed.WithClassResults(nil))
	if err != nil {
		return nil, false, newImportError(StageResolve, KindPersistence, fmt.Errorf(errResolveEvent, parsed.Name, err))
	}
	run.log.LogEventResolved(int64(resolved.ID), resolved.Name.String(), created)

	// Merge
	run.enter(StageMerge)
	merged := s.merge(resolved, parsed)

	// Persist
	run.enter(StagePersist)
	if err := s.persist(ctx, run, merged); err != nil {
		return nil, false, err
	}

	if created {
		s.audit.LogEventCreated(int64(merged.ID), merged.Name.String())
		metrics.RecordEventCreated()
	} else {
		s.audit.LogClassResultsOverwritten(int64(merged.ID), merged.Name.String(), len(resolved.ClassResults), len(merged.ClassResults))
	}

	stored, found, err := s.repo.FindByID(ctx, merged.ID)
	if err != nil {
		return nil, false, newImportError(StagePersist, KindPersistence, fmt.Errorf(errReloadEvent, merged.ID, err))
	}
	if !found {
		return nil, false, newImportError(StagePersist, KindPersistence, fmt.Errorf(errReloadEvent, merged.ID, models.ErrNotFound))
	}
	return stored, created, nil
}

// merge gives the parsed event the resolved identity. The parsed class
// results and header replace whatever the stored event held.
func (s *ImportService) merge(resolved, parsed *models.Event) *models.Event {
	merged := parsed.WithID(resolved.ID)
	merged.CreatedAt = resolved.CreatedAt
	return merged
}

// persist writes the header, then the class results batch by batch. A failed
// batch leaves earlier batches committed.
func (s *ImportService) persist(ctx context.Context, run *importRun, merged *models.Event) error {
	if err := s.repo.ReplaceClassResults(ctx, merged); err != nil {
		return newImportError(StagePersist, KindPersistence, fmt.Errorf(errReplaceClasses, merged.ID, err))
	}

	err := batch.ProcessIndexed(merged.ClassResults, s.batchSize, func(index int, chunk []models.ClassResult) error {
		if err := s.repo.AppendClassResults(ctx, merged.ID, chunk); err != nil {
			return fmt.Errorf(errAppendClasses, merged.ID, err)
		}

		results := 0
		for _, cr := range chunk {
			results += len(cr.Results)
		}
		run.log.LogBatchCommitted(int64(merged.ID), index, len(chunk), results)
		s.metrics.RecordBatch()
		metrics.RecordImportBatch(results)
		return nil
	})
	if err != nil {
		ie := newImportError(StagePersist, KindPersistence, err)
		var be *batch.Error
		if errors.As(err, &be) {
			ie.BatchIndex = be.Index
		}
		return ie
	}
	return nil
}
