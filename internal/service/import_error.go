package service

import (
	"fmt"

	"github.com/yourusername/ol-results/internal/metrics"
)

// Stage is a step of the import pipeline
type Stage string

// Import stages in execution order
const (
	StageRead    Stage = "read"
	StageParse   Stage = "parse"
	StageResolve Stage = "resolve"
	StageMerge   Stage = "merge"
	StagePersist Stage = "persist"
	StageDone    Stage = "done"
)

// ErrorKind classifies import failures for callers deciding whether to retry
type ErrorKind string

const (
	// KindIO means the input could not be read. Nothing was written.
	KindIO ErrorKind = "io"
	// KindParse means the input is not a valid result list. Nothing was written.
	KindParse ErrorKind = "parse"
	// KindPersistence means a repository call failed. Batches before
	// BatchIndex stay committed; re-running the whole import is safe.
	KindPersistence ErrorKind = "persistence"
)

// ImportError is returned by every failed import
type ImportError struct {
	RunID      string
	Source     string
	Stage      Stage
	Kind       ErrorKind
	BatchIndex int // -1 unless a class result batch failed
	Err        error
}

func newImportError(stage Stage, kind ErrorKind, err error) *ImportError {
	return &ImportError{Stage: stage, Kind: kind, BatchIndex: -1, Err: err}
}

func (e *ImportError) Error() string {
	if e.BatchIndex >= 0 {
		return fmt.Sprintf("import of %s failed at %s stage, batch %d: %v", e.Source, e.Stage, e.BatchIndex, e.Err)
	}
	return fmt.Sprintf("import of %s failed at %s stage: %v", e.Source, e.Stage, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// Retryable reports whether re-running the same import may succeed
func (e *ImportError) Retryable() bool {
	return e.Kind == KindPersistence
}

func (k ErrorKind) status() string {
	switch k {
	case KindIO:
		return metrics.ImportStatusIOError
	case KindParse:
		return metrics.ImportStatusParseError
	default:
		return metrics.ImportStatusPersistenceError
	}
}
