package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/ol-results/internal/models"
	"github.com/yourusername/ol-results/internal/repository"
	"github.com/yourusername/ol-results/internal/service"
)

const resultListTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<ResultList xmlns="http://www.orienteering.org/datastandard/3.0">
  <Event><Name>%s</Name></Event>
  <ClassResult>
    <Class><Name>Open</Name></Class>
    <PersonResult>
      <Person><Name><Family>Berg</Family><Given>Kim</Given></Name></Person>
      <Result><Position>1</Position><Status>OK</Status></Result>
    </PersonResult>
  </ClassResult>
</ResultList>`

type stubImporter struct {
	mu    sync.Mutex
	paths []string
	urls  []string
	errs  map[string]error

	block   chan struct{}
	running atomic.Int32
	peak    atomic.Int32
}

func (s *stubImporter) ImportPath(ctx context.Context, path string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = append(s.paths, filepath.Base(path))
	if err := s.errs[filepath.Base(path)]; err != nil {
		return nil, err
	}
	return &models.Event{ID: models.EventID(len(s.paths))}, nil
}

func (s *stubImporter) ImportURL(ctx context.Context, url string) (*models.Event, error) {
	if s.block != nil {
		n := s.running.Add(1)
		defer s.running.Add(-1)
		for {
			peak := s.peak.Load()
			if n <= peak || s.peak.CompareAndSwap(peak, n) {
				break
			}
		}
		<-s.block
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls = append(s.urls, url)
	return &models.Event{ID: 1}, nil
}

func (s *stubImporter) imported() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func writeFile(t *testing.T, dir, name, content string, modTime time.Time) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
}

func TestScanDirectoryImportsXMLFilesOnce(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeFile(t, dir, "b.xml", "<ResultList/>", base)
	writeFile(t, dir, "a.XML", "<ResultList/>", base)
	writeFile(t, dir, "notes.txt", "ignored", base)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.xml"), 0o755))

	importer := &stubImporter{}
	s := NewScheduler(importer, quietLogger())

	report, err := s.ScanDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, ScanReport{Imported: 2}, report)
	assert.Equal(t, []string{"a.XML", "b.xml"}, importer.imported())

	report, err = s.ScanDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, ScanReport{Skipped: 2}, report)
	assert.Len(t, importer.imported(), 2)
}

func TestScanDirectoryReimportsChangedFiles(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeFile(t, dir, "results.xml", "<ResultList/>", base)

	importer := &stubImporter{}
	s := NewScheduler(importer, quietLogger())

	_, err := s.ScanDirectory(context.Background(), dir)
	require.NoError(t, err)

	writeFile(t, dir, "results.xml", "<ResultList/>", base.Add(time.Minute))

	report, err := s.ScanDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, []string{"results.xml", "results.xml"}, importer.imported())
}

func TestScanDirectoryRetriesOnlyRetryableFailures(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeFile(t, dir, "broken.xml", "<ResultList", base)
	writeFile(t, dir, "busy.xml", "<ResultList/>", base)

	importer := &stubImporter{errs: map[string]error{
		"broken.xml": &service.ImportError{Stage: service.StageParse, Kind: service.KindParse, BatchIndex: -1, Err: errors.New("bad xml")},
		"busy.xml":   &service.ImportError{Stage: service.StagePersist, Kind: service.KindPersistence, BatchIndex: 0, Err: errors.New("db down")},
	}}
	s := NewScheduler(importer, quietLogger())

	report, err := s.ScanDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, ScanReport{Failed: 2}, report)

	report, err = s.ScanDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, ScanReport{Failed: 1, Skipped: 1}, report)
	assert.Equal(t, []string{"broken.xml", "busy.xml", "busy.xml"}, importer.imported())
}

func TestScanDirectoryMissingDir(t *testing.T) {
	s := NewScheduler(&stubImporter{}, quietLogger())

	_, err := s.ScanDirectory(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestScanDirectoryWithImportService(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeFile(t, dir, "day1.xml", fmtResultList("Domain"), base)
	writeFile(t, dir, "day1-final.xml", fmtResultList("Domain"), base)

	repo := repository.NewMemoryEventRepository()
	svc := service.NewImportService(repo, service.NewDataValidator(quietLogger()), service.NewDataNormalizer(quietLogger()), quietLogger(), 0)
	s := NewScheduler(svc, quietLogger())

	report, err := s.ScanDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)

	events, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Domain", events[0].Name.String())
	require.Len(t, events[0].ClassResults, 1)
	assert.Equal(t, "Open", events[0].ClassResults[0].ClassName)
}

func TestScheduleValidation(t *testing.T) {
	s := NewScheduler(&stubImporter{}, quietLogger())

	assert.Error(t, s.Start(), "no jobs scheduled")
	assert.Error(t, s.ScheduleDirectoryScan("not a cron", t.TempDir()))

	require.NoError(t, s.ScheduleDirectoryScan("*/5 * * * *", t.TempDir()))
	require.NoError(t, s.ScheduleURLImport("@every 1h", "https://example.org/results.xml"))
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.True(t, s.IsRunning())
	assert.Len(t, s.Entries(), 2)
	assert.False(t, s.GetNextRun().IsZero())
	assert.Error(t, s.Start())
	assert.Error(t, s.ScheduleURLImport("@every 1h", "https://example.org/other.xml"))
}

func TestScheduledJobDoesNotOverlapItself(t *testing.T) {
	importer := &stubImporter{block: make(chan struct{})}
	s := NewScheduler(importer, quietLogger())
	require.NoError(t, s.ScheduleURLImport("@every 1s", "https://example.org/results.xml"))
	require.NoError(t, s.Start())

	time.Sleep(3500 * time.Millisecond)
	close(importer.block)
	require.NoError(t, s.Stop())

	assert.Equal(t, int32(1), importer.peak.Load())
	importer.mu.Lock()
	defer importer.mu.Unlock()
	assert.NotEmpty(t, importer.urls)
}

func TestStopIsIdempotent(t *testing.T) {
	s := NewScheduler(&stubImporter{}, quietLogger())
	require.NoError(t, s.ScheduleDirectoryScan("@every 1h", t.TempDir()))
	require.NoError(t, s.Start())

	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.True(t, s.GetNextRun().IsZero())
}

func fmtResultList(name string) string {
	return fmt.Sprintf(resultListTemplate, name)
}
