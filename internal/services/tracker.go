package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ad/go-roadmap-progress/internal/db"
	"github.com/ad/go-roadmap-progress/internal/models"
	"github.com/google/uuid"
)

// ProgressTracker owns the traversal record for a (user, roadmap) pair:
// it creates the record, advances it step by step and serves enriched
// reads. All writes for one transition happen in a single transaction
// behind the DB queue.
type ProgressTracker struct {
	userRepo     *db.UserRepository
	roadmapRepo  *db.RoadmapRepository
	stepRepo     *db.StepRepository
	resourceRepo *db.ResourceRepository
	progressRepo *db.ProgressRepository
	sequencer    *StepSequencer
	aggregator   *CompletionAggregator
	notifier     *CompletionNotifier
}

func NewProgressTracker(
	userRepo *db.UserRepository,
	roadmapRepo *db.RoadmapRepository,
	stepRepo *db.StepRepository,
	resourceRepo *db.ResourceRepository,
	progressRepo *db.ProgressRepository,
	sequencer *StepSequencer,
	aggregator *CompletionAggregator,
	notifier *CompletionNotifier,
) *ProgressTracker {
	return &ProgressTracker{
		userRepo:     userRepo,
		roadmapRepo:  roadmapRepo,
		stepRepo:     stepRepo,
		resourceRepo: resourceRepo,
		progressRepo: progressRepo,
		sequencer:    sequencer,
		aggregator:   aggregator,
		notifier:     notifier,
	}
}

// Start begins tracking a roadmap for a user. The current step is the
// roadmap's first step, or none for an empty roadmap. A second start
// for the same pair fails with ErrAlreadyTracking; a concurrent racer
// is rejected by the unique index rather than application locking.
func (t *ProgressTracker) Start(userID, roadmapID string) (*models.EnrichedProgress, error) {
	exists, err := t.userRepo.Exists(userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}
	exists, err = t.roadmapRepo.Exists(roadmapID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrRoadmapNotFound
	}

	if _, err := t.progressRepo.GetByUserAndRoadmap(userID, roadmapID); err == nil {
		return nil, ErrAlreadyTracking
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	first, err := t.sequencer.FirstStep(roadmapID)
	if err != nil {
		return nil, err
	}

	progress := &models.Progress{
		ID:              uuid.NewString(),
		UserID:          userID,
		RoadmapID:       roadmapID,
		StartedAt:       time.Now().UTC(),
		CompletedSteps:  []models.CompletedStep{},
		CompletedTopics: []models.CompletedTopic{},
	}
	if first != nil {
		progress.CurrentStepID = &first.ID
	}

	if err := t.progressRepo.Create(progress); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrAlreadyTracking
		}
		return nil, err
	}

	return t.aggregator.Enrich(progress)
}

func (t *ProgressTracker) Get(userID, roadmapID string) (*models.EnrichedProgress, error) {
	exists, err := t.userRepo.Exists(userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	progress, err := t.progressRepo.GetByUserAndRoadmap(userID, roadmapID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProgressNotFound
	}
	if err != nil {
		return nil, err
	}
	return t.aggregator.Enrich(progress)
}

func (t *ProgressTracker) GetAll(userID string) ([]*models.EnrichedProgress, error) {
	exists, err := t.userRepo.Exists(userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	records, err := t.progressRepo.GetByUser(userID)
	if err != nil {
		return nil, err
	}
	return t.aggregator.EnrichAll(records)
}

// CompleteStep marks a step done and advances the current step to the
// next order. Completing an already-completed step is a no-op success.
// A step from a different roadmap is rejected outright.
func (t *ProgressTracker) CompleteStep(ctx context.Context, userID, roadmapID, stepID string) (*models.EnrichedProgress, error) {
	progress, err := t.progressRepo.GetByUserAndRoadmap(userID, roadmapID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProgressNotFound
	}
	if err != nil {
		return nil, err
	}

	step, err := t.stepRepo.GetByID(stepID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStepNotFound
	}
	if err != nil {
		return nil, err
	}
	if step.RoadmapID != roadmapID {
		return nil, ErrStepNotInRoadmap
	}

	if progress.HasCompletedStep(stepID) {
		return t.aggregator.Enrich(progress)
	}

	total, err := t.stepRepo.CountByRoadmap(roadmapID)
	if err != nil {
		return nil, err
	}
	next, err := t.sequencer.NextStep(roadmapID, step.Order)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry := models.CompletedStep{
		StepID:               stepID,
		CompletedAt:          now,
		CompletionPercentage: Percentage(len(progress.CompletedSteps)+1, total),
	}
	var nextID *string
	if next != nil {
		nextID = &next.ID
	}

	err = t.progressRepo.ApplyCompletion(progress.ID, entry, step.TopicID, !progress.HasCompletedTopic(step.TopicID), nextID, now)
	if err != nil && !db.IsUniqueViolation(err) {
		return nil, err
	}
	// A unique violation means a concurrent call completed this step
	// first; both callers see the same resulting record.

	updated, err := t.progressRepo.GetByUserAndRoadmap(userID, roadmapID)
	if err != nil {
		return nil, err
	}

	if updated.CurrentStepID == nil && next == nil {
		t.notifier.RoadmapCompleted(ctx, userID, roadmapID)
	}

	return t.aggregator.Enrich(updated)
}

// CompleteResource marks one resource done inside an already completed
// topic. Re-adding a resource is a no-op.
func (t *ProgressTracker) CompleteResource(userID, roadmapID, resourceID string) (*models.EnrichedProgress, error) {
	progress, err := t.progressRepo.GetByUserAndRoadmap(userID, roadmapID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProgressNotFound
	}
	if err != nil {
		return nil, err
	}

	resource, err := t.resourceRepo.GetByID(resourceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResourceNotFound
	}
	if err != nil {
		return nil, err
	}
	if !progress.HasCompletedTopic(resource.TopicID) {
		return nil, ErrTopicNotCompleted
	}

	if err := t.progressRepo.AddCompletedResource(progress.ID, resource.TopicID, resourceID); err != nil {
		return nil, err
	}

	updated, err := t.progressRepo.GetByUserAndRoadmap(userID, roadmapID)
	if err != nil {
		return nil, err
	}
	return t.aggregator.Enrich(updated)
}
