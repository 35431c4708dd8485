// Package logger provides import-specific logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// ImportLogger provides dedicated logging for the import pipeline.
type ImportLogger struct {
	*logrus.Entry
}

// NewImportLogger creates a new import logger.
func NewImportLogger(baseLogger *logrus.Logger) *ImportLogger {
	return &ImportLogger{
		Entry: baseLogger.WithField("component", "import"),
	}
}

// ForRun returns a logger bound to a single import run.
func (il *ImportLogger) ForRun(runID, source string) *ImportLogger {
	return &ImportLogger{
		Entry: il.WithFields(logrus.Fields{
			"run_id": runID,
			"source": source,
		}),
	}
}

// LogStage logs a pipeline stage transition.
func (il *ImportLogger) LogStage(stage string) {
	il.WithField("stage", stage).Debug("Import stage entered")
}

// LogEventResolved logs the outcome of the find-or-create step.
func (il *ImportLogger) LogEventResolved(eventID int64, eventName string, created bool) {
	il.WithFields(logrus.Fields{
		"event_id":   eventID,
		"event_name": eventName,
		"created":    created,
	}).Info("Event resolved")
}

// LogBatchCommitted logs a persisted batch of class results.
func (il *ImportLogger) LogBatchCommitted(eventID int64, batchIndex, classes, results int) {
	il.WithFields(logrus.Fields{
		"event_id":    eventID,
		"batch_index": batchIndex,
		"classes":     classes,
		"results":     results,
	}).Debug("Batch committed")
}

// LogImportCompleted logs a successful import.
func (il *ImportLogger) LogImportCompleted(eventID int64, eventName string, classes, results int, duration time.Duration) {
	il.WithFields(logrus.Fields{
		"event_id":    eventID,
		"event_name":  eventName,
		"classes":     classes,
		"results":     results,
		"duration_ms": duration.Milliseconds(),
	}).Info("Import completed")
}

// LogImportFailed logs a failed import. batchIndex is -1 outside the persist stage.
func (il *ImportLogger) LogImportFailed(stage, kind string, batchIndex int, err error) {
	fields := logrus.Fields{
		"stage": stage,
		"kind":  kind,
	}
	if batchIndex >= 0 {
		fields["batch_index"] = batchIndex
	}
	il.WithFields(fields).WithError(err).Error("Import failed")
}
