package services

import (
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/ad/go-roadmap-progress/internal/db"
	"github.com/ad/go-roadmap-progress/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var testDBCounter int64

type fixture struct {
	db           *sql.DB
	queue        *db.DBQueue
	userRepo     *db.UserRepository
	roadmapRepo  *db.RoadmapRepository
	stepRepo     *db.StepRepository
	topicRepo    *db.TopicRepository
	resourceRepo *db.ResourceRepository
	progressRepo *db.ProgressRepository
	sequencer    *StepSequencer
	aggregator   *CompletionAggregator
	tracker      *ProgressTracker
}

func setupTracker(t testing.TB) *fixture {
	t.Helper()

	counter := atomic.AddInt64(&testDBCounter, 1)
	sqlDB, err := sql.Open("sqlite", fmt.Sprintf("file:trackerdb%d?mode=memory&cache=shared", counter))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.InitSchema(sqlDB); err != nil {
		t.Fatal(err)
	}

	queue := db.NewDBQueueForTest(sqlDB)

	f := &fixture{
		db:           sqlDB,
		queue:        queue,
		userRepo:     db.NewUserRepository(queue),
		roadmapRepo:  db.NewRoadmapRepository(queue),
		stepRepo:     db.NewStepRepository(queue),
		topicRepo:    db.NewTopicRepository(queue),
		resourceRepo: db.NewResourceRepository(queue),
		progressRepo: db.NewProgressRepository(queue),
	}
	f.sequencer = NewStepSequencer(f.stepRepo)
	f.aggregator = NewCompletionAggregator(f.stepRepo)
	f.tracker = NewProgressTracker(f.userRepo, f.roadmapRepo, f.stepRepo, f.resourceRepo, f.progressRepo, f.sequencer, f.aggregator, nil)
	return f
}

func (f *fixture) user(t testing.TB, username string) *models.User {
	t.Helper()

	user := &models.User{
		ID:       uuid.NewString(),
		Username: username,
		Email:    username + "@example.com",
	}
	if err := f.userRepo.Create(user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

func (f *fixture) roadmap(t testing.TB, title string) *models.Roadmap {
	t.Helper()

	roadmap := &models.Roadmap{ID: uuid.NewString(), Title: title, Category: "general"}
	if err := f.roadmapRepo.Create(roadmap); err != nil {
		t.Fatalf("Failed to create roadmap: %v", err)
	}
	return roadmap
}

func (f *fixture) topic(t testing.TB, title string) *models.Topic {
	t.Helper()

	topic := &models.Topic{
		ID:          uuid.NewString(),
		Title:       title,
		Description: "about " + title,
	}
	if err := f.topicRepo.Create(topic); err != nil {
		t.Fatalf("Failed to create topic: %v", err)
	}
	return topic
}

func createResource(f *fixture, topicID string) (string, error) {
	resource := &models.Resource{
		ID:         uuid.NewString(),
		Title:      "Tour of Go",
		Link:       "https://go.dev/tour",
		TopicID:    topicID,
		Type:       models.ResourceTutorial,
		Language:   models.LanguageEnglish,
		Difficulty: models.DifficultyBeginner,
	}
	if err := f.resourceRepo.Create(resource); err != nil {
		return "", err
	}
	return resource.ID, nil
}

func (f *fixture) step(t testing.TB, roadmapID, topicID string, order int) *models.Step {
	t.Helper()

	step := &models.Step{
		ID:        uuid.NewString(),
		Title:     "Step " + uuid.NewString()[:8],
		RoadmapID: roadmapID,
		Order:     order,
		TopicID:   topicID,
	}
	if err := f.stepRepo.Create(step); err != nil {
		t.Fatalf("Failed to create step: %v", err)
	}
	return step
}
