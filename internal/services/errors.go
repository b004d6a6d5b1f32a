package services

import "errors"

// Every failure the engine can produce maps to one of these sentinels;
// callers branch with errors.Is. Anything else that bubbles up from the
// store is transient and safe to retry.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrRoadmapNotFound  = errors.New("roadmap not found")
	ErrTopicNotFound    = errors.New("topic not found")
	ErrResourceNotFound = errors.New("resource not found")
	ErrStepNotFound     = errors.New("step not found")
	ErrProgressNotFound = errors.New("progress not found")
	ErrChatNotFound     = errors.New("chat not found")

	ErrAlreadyTracking = errors.New("already tracking this roadmap")
	ErrTitleTaken      = errors.New("title already exists")

	ErrStepNotInRoadmap  = errors.New("step does not belong to this roadmap")
	ErrTopicNotCompleted = errors.New("topic has not been completed yet")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrRoadmapNotFound) ||
		errors.Is(err, ErrTopicNotFound) ||
		errors.Is(err, ErrResourceNotFound) ||
		errors.Is(err, ErrStepNotFound) ||
		errors.Is(err, ErrProgressNotFound) ||
		errors.Is(err, ErrChatNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyTracking) || errors.Is(err, ErrTitleTaken)
}

func IsInvalidReference(err error) bool {
	return errors.Is(err, ErrStepNotInRoadmap) || errors.Is(err, ErrTopicNotCompleted)
}
