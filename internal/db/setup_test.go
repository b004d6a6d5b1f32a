package db

import (
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ad/go-roadmap-progress/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var testDBCounter int64

func setupTestDB(t *testing.T) (*sql.DB, *DBQueue) {
	t.Helper()

	counter := atomic.AddInt64(&testDBCounter, 1)
	db, err := sql.Open("sqlite", fmt.Sprintf("file:repodb%d?mode=memory&cache=shared", counter))
	if err != nil {
		t.Fatal(err)
	}

	if err := InitSchema(db); err != nil {
		t.Fatal(err)
	}

	return db, NewDBQueueForTest(db)
}

func createTestUser(t *testing.T, queue *DBQueue, username string) *models.User {
	t.Helper()

	user := &models.User{
		ID:       uuid.NewString(),
		Username: username,
		Email:    username + "@example.com",
		Name:     "Test " + username,
	}
	if err := NewUserRepository(queue).Create(user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

func createTestRoadmap(t *testing.T, queue *DBQueue, title string) *models.Roadmap {
	t.Helper()

	roadmap := &models.Roadmap{
		ID:       uuid.NewString(),
		Title:    title,
		Category: "general",
	}
	if err := NewRoadmapRepository(queue).Create(roadmap); err != nil {
		t.Fatalf("Failed to create roadmap: %v", err)
	}
	return roadmap
}

func createTestTopic(t *testing.T, queue *DBQueue, title string) *models.Topic {
	t.Helper()

	topic := &models.Topic{
		ID:          uuid.NewString(),
		Title:       title,
		Description: "about " + title,
		Tags:        []string{"test"},
	}
	if err := NewTopicRepository(queue).Create(topic); err != nil {
		t.Fatalf("Failed to create topic: %v", err)
	}
	return topic
}

func createTestStep(t *testing.T, queue *DBQueue, roadmapID, topicID string, order int) *models.Step {
	t.Helper()

	step := &models.Step{
		ID:        uuid.NewString(),
		Title:     "Step " + uuid.NewString()[:8],
		RoadmapID: roadmapID,
		Order:     order,
		TopicID:   topicID,
	}
	if err := NewStepRepository(queue).Create(step); err != nil {
		t.Fatalf("Failed to create step: %v", err)
	}
	return step
}

func createTestProgress(t *testing.T, queue *DBQueue, userID, roadmapID string, currentStepID *string) *models.Progress {
	t.Helper()

	progress := &models.Progress{
		ID:            uuid.NewString(),
		UserID:        userID,
		RoadmapID:     roadmapID,
		CurrentStepID: currentStepID,
		StartedAt:     time.Now().UTC(),
	}
	if err := NewProgressRepository(queue).Create(progress); err != nil {
		t.Fatalf("Failed to create progress: %v", err)
	}
	return progress
}
