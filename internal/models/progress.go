package models

import "time"

// Progress is the traversal record for one (user, roadmap) pair. At most
// one record exists per pair; the unique index on (user_id, roadmap_id)
// is the source of truth for that invariant.
type Progress struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user"`
	RoadmapID       string           `json:"roadmap"`
	CurrentStepID   *string          `json:"currentStep"`
	CompletedSteps  []CompletedStep  `json:"completedSteps"`
	CompletedTopics []CompletedTopic `json:"completedTopics"`
	StartedAt       time.Time        `json:"startedAt"`
	LastActive      *time.Time       `json:"lastActive"`
}

type CompletedStep struct {
	StepID               string    `json:"step"`
	CompletedAt          time.Time `json:"completedAt"`
	CompletionPercentage int       `json:"completionPercentage"`
}

type CompletedTopic struct {
	TopicID            string    `json:"topic"`
	CompletedAt        time.Time `json:"completedAt"`
	ResourcesCompleted []string  `json:"resourcesCompleted"`
}

func (p *Progress) HasCompletedStep(stepID string) bool {
	for _, cs := range p.CompletedSteps {
		if cs.StepID == stepID {
			return true
		}
	}
	return false
}

func (p *Progress) HasCompletedTopic(topicID string) bool {
	for _, ct := range p.CompletedTopics {
		if ct.TopicID == topicID {
			return true
		}
	}
	return false
}

// EnrichedProgress carries the derived completion metrics. They are
// recomputed from the catalog on every read and never stored, so steps
// added to a roadmap after a user started are reflected immediately.
type EnrichedProgress struct {
	*Progress
	CompletedStepsCount int `json:"completedStepsCount"`
	TotalSteps          int `json:"totalSteps"`
	ProgressPercentage  int `json:"progressPercentage"`
}
