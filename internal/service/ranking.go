package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/yourusername/ol-results/internal/models"
	"github.com/yourusername/ol-results/internal/ordering"
	"github.com/yourusername/ol-results/internal/repository"
)

// ErrClassNotFound is returned when an event has no class of the given name
var ErrClassNotFound = errors.New("class not found")

// ClassRanking is the ranked result table of one class
type ClassRanking struct {
	ClassName  string
	RaceNumber int
	Results    []ordering.RankedResult
}

// RankingService answers ranking queries over stored events
type RankingService struct {
	repo      repository.EventRepository
	validator *DataValidator
}

// NewRankingService creates a new ranking service
func NewRankingService(repo repository.EventRepository, validator *DataValidator) *RankingService {
	return &RankingService{repo: repo, validator: validator}
}

// ClassRanking ranks the results of one class of a stored event
func (s *RankingService) ClassRanking(ctx context.Context, eventID int64, className string, mode ordering.RankingMode) (*ClassRanking, error) {
	event, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}

	cr, ok := event.ClassResult(className)
	if !ok {
		return nil, fmt.Errorf("event %d class %q: %w", event.ID, className, ErrClassNotFound)
	}
	return rankClass(cr, mode), nil
}

// EventRanking ranks every class of a stored event, in stored class order
func (s *RankingService) EventRanking(ctx context.Context, eventID int64, mode ordering.RankingMode) ([]*ClassRanking, error) {
	event, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}

	rankings := make([]*ClassRanking, 0, len(event.ClassResults))
	for _, cr := range event.ClassResults {
		rankings = append(rankings, rankClass(cr, mode))
	}
	return rankings, nil
}

func (s *RankingService) load(ctx context.Context, eventID int64) (*models.Event, error) {
	id, err := s.validator.ValidateEventID(eventID)
	if err != nil {
		return nil, err
	}

	event, found, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load event %d: %w", id, err)
	}
	if !found {
		return nil, fmt.Errorf("event %d: %w", id, models.ErrNotFound)
	}
	return event, nil
}

func rankClass(cr models.ClassResult, mode ordering.RankingMode) *ClassRanking {
	return &ClassRanking{
		ClassName:  cr.ClassName,
		RaceNumber: cr.RaceNumber,
		Results:    ordering.Rank(cr.Results, mode),
	}
}
