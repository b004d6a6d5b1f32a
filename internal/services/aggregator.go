package services

import (
	"math"

	"github.com/ad/go-roadmap-progress/internal/db"
	"github.com/ad/go-roadmap-progress/internal/models"
)

// CompletionAggregator derives completion metrics from a progress
// record and a fresh step count. The total is read from the catalog on
// every call, never cached on the record, so a roadmap that grows after
// a user started is reflected on the next read. The percentage can go
// down when that happens.
type CompletionAggregator struct {
	stepRepo *db.StepRepository
}

func NewCompletionAggregator(stepRepo *db.StepRepository) *CompletionAggregator {
	return &CompletionAggregator{stepRepo: stepRepo}
}

func (a *CompletionAggregator) Enrich(progress *models.Progress) (*models.EnrichedProgress, error) {
	total, err := a.stepRepo.CountByRoadmap(progress.RoadmapID)
	if err != nil {
		return nil, err
	}
	completed := len(progress.CompletedSteps)
	return &models.EnrichedProgress{
		Progress:            progress,
		CompletedStepsCount: completed,
		TotalSteps:          total,
		ProgressPercentage:  Percentage(completed, total),
	}, nil
}

func (a *CompletionAggregator) EnrichAll(records []*models.Progress) ([]*models.EnrichedProgress, error) {
	enriched := make([]*models.EnrichedProgress, 0, len(records))
	for _, p := range records {
		e, err := a.Enrich(p)
		if err != nil {
			return nil, err
		}
		enriched = append(enriched, e)
	}
	return enriched, nil
}

// Percentage rounds completed/total to a whole percent. A roadmap with
// no steps is 0, not a division fault.
func Percentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
