package services

import (
	"database/sql"
	"errors"

	"github.com/ad/go-roadmap-progress/internal/db"
	"github.com/ad/go-roadmap-progress/internal/models"
)

// StepSequencer walks a roadmap's steps in ascending order. It is a
// pure read over the catalog; a nil step with a nil error means the
// roadmap has no step at (or after) the requested position.
type StepSequencer struct {
	stepRepo *db.StepRepository
}

func NewStepSequencer(stepRepo *db.StepRepository) *StepSequencer {
	return &StepSequencer{stepRepo: stepRepo}
}

func (s *StepSequencer) FirstStep(roadmapID string) (*models.Step, error) {
	step, err := s.stepRepo.GetFirst(roadmapID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return step, nil
}

func (s *StepSequencer) NextStep(roadmapID string, afterOrder int) (*models.Step, error) {
	step, err := s.stepRepo.GetNextAfter(roadmapID, afterOrder)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return step, nil
}
