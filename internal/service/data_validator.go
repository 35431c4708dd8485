package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/ol-results/internal/models"
)

// ErrInvalidResultList is wrapped by ValidateEvent failures
var ErrInvalidResultList = errors.New("invalid result list")

const maxNameLength = 255

// eventIDRequest carries an id received at the system boundary
type eventIDRequest struct {
	ID int64 `validate:"gt=0"`
}

// DataValidator validates ids at the boundary and parsed events before they
// are persisted
type DataValidator struct {
	validate *validator.Validate
	logger   *logrus.Entry
}

// NewDataValidator creates a new data validator
func NewDataValidator(log *logrus.Logger) *DataValidator {
	return &DataValidator{
		validate: validator.New(),
		logger:   log.WithField("component", "validator"),
	}
}

// ValidateEventID checks an id before it reaches a repository
func (v *DataValidator) ValidateEventID(id int64) (models.EventID, error) {
	if err := v.validate.Struct(eventIDRequest{ID: id}); err != nil {
		return 0, invalidEventID(strconv.FormatInt(id, 10))
	}
	return models.EventID(id), nil
}

// ParseEventID converts and checks an id given as text, e.g. a CLI argument
func (v *DataValidator) ParseEventID(raw string) (models.EventID, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, invalidEventID(raw)
	}
	return v.ValidateEventID(id)
}

func invalidEventID(raw string) *models.ValidationError {
	return &models.ValidationError{
		Code:    models.ErrInvalidEventID.Code,
		Field:   "id",
		Message: fmt.Sprintf("event id must be a positive integer, got %q", raw),
	}
}

// ValidateEvent checks a parsed event for structural problems and returns
// one message per problem found
func (v *DataValidator) ValidateEvent(event *models.Event) []string {
	var issues []string

	if event == nil {
		return []string{"event is nil"}
	}

	if event.Name.IsZero() {
		issues = append(issues, "event name is required")
	} else if err := v.validate.Var(event.Name.String(), fmt.Sprintf("max=%d", maxNameLength)); err != nil {
		issues = append(issues, fmt.Sprintf("event name longer than %d characters", maxNameLength))
	}

	// parsed input never carries a stored identity
	if event.ID != 0 {
		issues = append(issues, fmt.Sprintf("parsed event carries identity %d", event.ID))
	}

	seen := make(map[classKey]bool, len(event.ClassResults))

	for i, cr := range event.ClassResults {
		key := classKey{cr.ClassName, cr.RaceNumber}
		if seen[key] {
			issues = append(issues, fmt.Sprintf("class %q (race %d) appears more than once", cr.ClassName, cr.RaceNumber))
		}
		seen[key] = true

		if err := v.validate.Var(cr.ClassName, fmt.Sprintf("required,max=%d", maxNameLength)); err != nil {
			issues = append(issues, fmt.Sprintf("class %d: name is required and at most %d characters", i+1, maxNameLength))
		}

		for j, r := range cr.Results {
			issues = append(issues, v.validateResult(cr.ClassName, j, r)...)
		}
	}

	return issues
}

func (v *DataValidator) validateResult(className string, index int, r models.Result) []string {
	var issues []string
	prefix := fmt.Sprintf("class %q result %d", className, index+1)

	if r.Position.IsSet() && *r.Position.Value <= 0 {
		issues = append(issues, fmt.Sprintf("%s: position must be positive, got %d", prefix, *r.Position.Value))
	}
	if r.Time != nil && r.Time.IsNegative() {
		issues = append(issues, fmt.Sprintf("%s: time cannot be negative", prefix))
	}
	if r.TimeBehind != nil && r.TimeBehind.IsNegative() {
		issues = append(issues, fmt.Sprintf("%s: time behind cannot be negative", prefix))
	}
	if !r.Status.Known() {
		issues = append(issues, fmt.Sprintf("%s: unknown status %q", prefix, r.Status))
	}
	if r.StartTime != nil && r.FinishTime != nil && r.FinishTime.Before(*r.StartTime) {
		issues = append(issues, fmt.Sprintf("%s: finish time before start time", prefix))
	}
	for k, st := range r.SplitTimes {
		if st.ControlCode == "" {
			issues = append(issues, fmt.Sprintf("%s: split %d has no control code", prefix, k+1))
		}
	}

	return issues
}

// Validate is ValidateEvent folded into a single error
func (v *DataValidator) Validate(event *models.Event) error {
	issues := v.ValidateEvent(event)
	if len(issues) == 0 {
		return nil
	}
	v.logger.WithField("issues", len(issues)).Debug("Parsed event rejected")
	return fmt.Errorf("%w: %s", ErrInvalidResultList, strings.Join(issues, "; "))
}
