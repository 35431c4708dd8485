// Package logger provides audit logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging for stored data.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogEventCreated logs the creation of an event.
func (al *AuditLogger) LogEventCreated(eventID int64, eventName string) {
	al.WithFields(logrus.Fields{
		"event_id":   eventID,
		"event_name": eventName,
	}).Info("Event created")
}

// LogClassResultsOverwritten logs an import replacing an event's class results.
func (al *AuditLogger) LogClassResultsOverwritten(eventID int64, eventName string, classesBefore, classesAfter int) {
	al.WithFields(logrus.Fields{
		"event_id":       eventID,
		"event_name":     eventName,
		"classes_before": classesBefore,
		"classes_after":  classesAfter,
	}).Info("Class results overwritten")
}

// LogCircuitBreakerEvent logs circuit breaker events.
func (al *AuditLogger) LogCircuitBreakerEvent(eventType, reason string, consecutiveFailures int) {
	al.WithFields(logrus.Fields{
		"event_type":           eventType,
		"reason":               reason,
		"consecutive_failures": consecutiveFailures,
	}).Warn("Circuit breaker event")
}
