package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ad/go-roadmap-progress/internal/db"
	"github.com/ad/go-roadmap-progress/internal/models"
	"github.com/ad/go-roadmap-progress/internal/services"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	_ "modernc.org/sqlite"
)

var testDBCounter int64

func setupServer(t *testing.T) *mux.Router {
	t.Helper()

	counter := atomic.AddInt64(&testDBCounter, 1)
	sqlDB, err := sql.Open("sqlite", fmt.Sprintf("file:apidb%d?mode=memory&cache=shared", counter))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.InitSchema(sqlDB); err != nil {
		t.Fatal(err)
	}

	queue := db.NewDBQueueForTest(sqlDB)
	userRepo := db.NewUserRepository(queue)
	roadmapRepo := db.NewRoadmapRepository(queue)
	stepRepo := db.NewStepRepository(queue)
	topicRepo := db.NewTopicRepository(queue)
	resourceRepo := db.NewResourceRepository(queue)
	progressRepo := db.NewProgressRepository(queue)
	chatRepo := db.NewChatRepository(queue)

	sequencer := services.NewStepSequencer(stepRepo)
	aggregator := services.NewCompletionAggregator(stepRepo)
	tracker := services.NewProgressTracker(userRepo, roadmapRepo, stepRepo, resourceRepo, progressRepo, sequencer, aggregator, nil)

	return NewHandler(userRepo, roadmapRepo, stepRepo, topicRepo, resourceRepo, chatRepo, tracker).Router()
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doRequest(t *testing.T, router *mux.Router, method, path, body string) (int, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
	return rec.Code, env
}

func decodeData(t *testing.T, env envelope, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("Failed to decode data %q: %v", string(env.Data), err)
	}
}

func createUserAPI(t *testing.T, router *mux.Router, username string) *models.User {
	t.Helper()

	status, env := doRequest(t, router, http.MethodPost, "/api/user",
		fmt.Sprintf(`{"userName":%q,"email":%q}`, username, username+"@example.com"))
	if status != http.StatusCreated {
		t.Fatalf("Create user returned %d: %s", status, env.Message)
	}
	var user models.User
	decodeData(t, env, &user)
	return &user
}

func createTopicAPI(t *testing.T, router *mux.Router, title string) *models.Topic {
	t.Helper()

	status, env := doRequest(t, router, http.MethodPost, "/api/topic",
		fmt.Sprintf(`{"title":%q,"description":"about %s"}`, title, title))
	if status != http.StatusCreated {
		t.Fatalf("Create topic returned %d: %s", status, env.Message)
	}
	var topic models.Topic
	decodeData(t, env, &topic)
	return &topic
}

func createRoadmapAPI(t *testing.T, router *mux.Router, title string) *models.Roadmap {
	t.Helper()

	status, env := doRequest(t, router, http.MethodPost, "/api/roadmap",
		fmt.Sprintf(`{"title":%q,"category":"backend"}`, title))
	if status != http.StatusCreated {
		t.Fatalf("Create roadmap returned %d: %s", status, env.Message)
	}
	var roadmap models.Roadmap
	decodeData(t, env, &roadmap)
	return &roadmap
}

func addStepAPI(t *testing.T, router *mux.Router, roadmapID, topicID string, order int) *models.Step {
	t.Helper()

	status, env := doRequest(t, router, http.MethodPost, "/api/roadmap/"+roadmapID+"/steps",
		fmt.Sprintf(`{"title":"Step %d","order":%d,"topicId":%q}`, order, order, topicID))
	if status != http.StatusCreated {
		t.Fatalf("Add step returned %d: %s", status, env.Message)
	}
	var step models.Step
	decodeData(t, env, &step)
	return &step
}

func TestStartAndCompleteFlow(t *testing.T) {
	router := setupServer(t)

	user := createUserAPI(t, router, "alice")
	topic := createTopicAPI(t, router, "HTTP Basics")
	roadmap := createRoadmapAPI(t, router, "Backend101")
	step1 := addStepAPI(t, router, roadmap.ID, topic.ID, 1)
	step2 := addStepAPI(t, router, roadmap.ID, topic.ID, 2)

	base := "/api/progress/" + user.ID + "/" + roadmap.ID

	status, env := doRequest(t, router, http.MethodPost, base+"/start", "")
	if status != http.StatusCreated {
		t.Fatalf("Start returned %d: %s", status, env.Message)
	}
	var progress models.EnrichedProgress
	decodeData(t, env, &progress)
	if progress.CurrentStepID == nil || *progress.CurrentStepID != step1.ID {
		t.Errorf("Expected current step %s, got %v", step1.ID, progress.CurrentStepID)
	}
	if progress.TotalSteps != 2 || progress.ProgressPercentage != 0 {
		t.Errorf("Expected 0%% of 2 steps, got %d%% of %d", progress.ProgressPercentage, progress.TotalSteps)
	}

	status, env = doRequest(t, router, http.MethodPatch, base+"/completeStep",
		fmt.Sprintf(`{"stepId":%q}`, step1.ID))
	if status != http.StatusOK {
		t.Fatalf("CompleteStep returned %d: %s", status, env.Message)
	}
	decodeData(t, env, &progress)
	if progress.ProgressPercentage != 50 {
		t.Errorf("Expected 50%%, got %d%%", progress.ProgressPercentage)
	}
	if progress.CurrentStepID == nil || *progress.CurrentStepID != step2.ID {
		t.Errorf("Expected current step to advance to %s, got %v", step2.ID, progress.CurrentStepID)
	}

	status, env = doRequest(t, router, http.MethodPatch, base+"/completeStep",
		fmt.Sprintf(`{"stepId":%q}`, step2.ID))
	if status != http.StatusOK {
		t.Fatalf("CompleteStep returned %d: %s", status, env.Message)
	}
	decodeData(t, env, &progress)
	if progress.ProgressPercentage != 100 {
		t.Errorf("Expected 100%%, got %d%%", progress.ProgressPercentage)
	}
	if progress.CurrentStepID != nil {
		t.Errorf("Expected no current step after the last one, got %v", *progress.CurrentStepID)
	}

	status, env = doRequest(t, router, http.MethodGet, base, "")
	if status != http.StatusOK {
		t.Fatalf("Get returned %d: %s", status, env.Message)
	}
	decodeData(t, env, &progress)
	if len(progress.CompletedSteps) != 2 {
		t.Errorf("Expected 2 completed steps, got %d", len(progress.CompletedSteps))
	}
	if !progress.HasCompletedTopic(topic.ID) {
		t.Errorf("Expected topic %s to be completed", topic.ID)
	}
}

func TestStartTwiceIsConflict(t *testing.T) {
	router := setupServer(t)

	user := createUserAPI(t, router, "bob")
	roadmap := createRoadmapAPI(t, router, "Backend101")
	base := "/api/progress/" + user.ID + "/" + roadmap.ID

	if status, env := doRequest(t, router, http.MethodPost, base+"/start", ""); status != http.StatusCreated {
		t.Fatalf("First start returned %d: %s", status, env.Message)
	}
	status, env := doRequest(t, router, http.MethodPost, base+"/start", "")
	if status != http.StatusConflict {
		t.Errorf("Second start returned %d (%s), want 409", status, env.Message)
	}
	if env.Success {
		t.Error("Expected success=false on conflict")
	}
}

func TestStartUnknownEntitiesIsNotFound(t *testing.T) {
	router := setupServer(t)

	user := createUserAPI(t, router, "carol")
	roadmap := createRoadmapAPI(t, router, "Backend101")

	status, _ := doRequest(t, router, http.MethodPost,
		"/api/progress/"+uuid.NewString()+"/"+roadmap.ID+"/start", "")
	if status != http.StatusNotFound {
		t.Errorf("Start with unknown user returned %d, want 404", status)
	}

	status, _ = doRequest(t, router, http.MethodPost,
		"/api/progress/"+user.ID+"/"+uuid.NewString()+"/start", "")
	if status != http.StatusNotFound {
		t.Errorf("Start with unknown roadmap returned %d, want 404", status)
	}
}

func TestCompleteStepFromAnotherRoadmapIsUnprocessable(t *testing.T) {
	router := setupServer(t)

	user := createUserAPI(t, router, "dave")
	topic := createTopicAPI(t, router, "T1")
	tracked := createRoadmapAPI(t, router, "Backend101")
	other := createRoadmapAPI(t, router, "Frontend101")
	addStepAPI(t, router, tracked.ID, topic.ID, 1)
	foreign := addStepAPI(t, router, other.ID, topic.ID, 1)

	base := "/api/progress/" + user.ID + "/" + tracked.ID
	if status, env := doRequest(t, router, http.MethodPost, base+"/start", ""); status != http.StatusCreated {
		t.Fatalf("Start returned %d: %s", status, env.Message)
	}

	status, env := doRequest(t, router, http.MethodPatch, base+"/completeStep",
		fmt.Sprintf(`{"stepId":%q}`, foreign.ID))
	if status != http.StatusUnprocessableEntity {
		t.Errorf("Completing a foreign step returned %d (%s), want 422", status, env.Message)
	}
}

func TestCompleteStepWithoutBodyIsBadRequest(t *testing.T) {
	router := setupServer(t)

	user := createUserAPI(t, router, "erin")
	roadmap := createRoadmapAPI(t, router, "Backend101")

	status, env := doRequest(t, router, http.MethodPatch,
		"/api/progress/"+user.ID+"/"+roadmap.ID+"/completeStep", `{}`)
	if status != http.StatusBadRequest {
		t.Errorf("Missing stepId returned %d (%s), want 400", status, env.Message)
	}
}

func TestDuplicateStepOrderIsConflict(t *testing.T) {
	router := setupServer(t)

	topic := createTopicAPI(t, router, "T1")
	roadmap := createRoadmapAPI(t, router, "Backend101")
	addStepAPI(t, router, roadmap.ID, topic.ID, 1)

	status, env := doRequest(t, router, http.MethodPost, "/api/roadmap/"+roadmap.ID+"/steps",
		fmt.Sprintf(`{"title":"Dup","order":1,"topicId":%q}`, topic.ID))
	if status != http.StatusConflict {
		t.Errorf("Duplicate order returned %d (%s), want 409", status, env.Message)
	}
}

func TestUserProfileListsStartedRoadmaps(t *testing.T) {
	router := setupServer(t)

	user := createUserAPI(t, router, "frank")
	topic := createTopicAPI(t, router, "T1")
	first := createRoadmapAPI(t, router, "Backend101")
	second := createRoadmapAPI(t, router, "Frontend101")
	addStepAPI(t, router, first.ID, topic.ID, 1)
	addStepAPI(t, router, second.ID, topic.ID, 1)

	for _, roadmapID := range []string{first.ID, second.ID} {
		path := "/api/progress/" + user.ID + "/" + roadmapID + "/start"
		if status, env := doRequest(t, router, http.MethodPost, path, ""); status != http.StatusCreated {
			t.Fatalf("Start returned %d: %s", status, env.Message)
		}
	}

	status, env := doRequest(t, router, http.MethodGet, "/api/user/profile/"+user.ID, "")
	if status != http.StatusOK {
		t.Fatalf("Profile returned %d: %s", status, env.Message)
	}
	var profile struct {
		models.User
		Roadmaps []*models.EnrichedProgress `json:"roadmaps"`
	}
	decodeData(t, env, &profile)
	if profile.Username != "frank" {
		t.Errorf("Expected username frank, got %q", profile.Username)
	}
	if len(profile.Roadmaps) != 2 {
		t.Errorf("Expected 2 progress records, got %d", len(profile.Roadmaps))
	}
}

// Concurrent starts over HTTP: one 201, every other racer a 409.
func TestConcurrentStartOneWinner(t *testing.T) {
	router := setupServer(t)

	user := createUserAPI(t, router, "grace")
	topic := createTopicAPI(t, router, "T1")
	roadmap := createRoadmapAPI(t, router, "Backend101")
	addStepAPI(t, router, roadmap.ID, topic.ID, 1)

	path := "/api/progress/" + user.ID + "/" + roadmap.ID + "/start"

	const racers = 6
	statuses := make(chan int, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(""))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			statuses <- rec.Code
		}()
	}
	wg.Wait()
	close(statuses)

	var created, conflicts int
	for status := range statuses {
		switch status {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicts++
		default:
			t.Errorf("Unexpected status from racing start: %d", status)
		}
	}
	if created != 1 {
		t.Errorf("Expected exactly one 201, got %d", created)
	}
	if conflicts != racers-1 {
		t.Errorf("Expected %d conflicts, got %d", racers-1, conflicts)
	}
}

func TestChatFlow(t *testing.T) {
	router := setupServer(t)

	status, env := doRequest(t, router, http.MethodPost, "/api/chat",
		`{"messages":[{"role":"user","content":"Where do I start?"}]}`)
	if status != http.StatusCreated {
		t.Fatalf("Create chat returned %d: %s", status, env.Message)
	}
	var chat models.Chat
	decodeData(t, env, &chat)
	if chat.Title != "New Chat" {
		t.Errorf("Expected default title, got %q", chat.Title)
	}
	if len(chat.Messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(chat.Messages))
	}

	status, env = doRequest(t, router, http.MethodPatch, "/api/chat/"+chat.ID,
		`{"title":"Getting started","messages":[{"role":"assistant","content":"With the first step."}]}`)
	if status != http.StatusOK {
		t.Fatalf("Update chat returned %d: %s", status, env.Message)
	}
	decodeData(t, env, &chat)
	if chat.Title != "Getting started" {
		t.Errorf("Expected renamed title, got %q", chat.Title)
	}
	if len(chat.Messages) != 2 || chat.Messages[1].Role != models.ChatRoleAssistant {
		t.Errorf("Expected the appended reply, got %+v", chat.Messages)
	}

	status, env = doRequest(t, router, http.MethodGet, "/api/chat", "")
	if status != http.StatusOK {
		t.Fatalf("List chats returned %d: %s", status, env.Message)
	}
	var chats []*models.Chat
	decodeData(t, env, &chats)
	if len(chats) != 1 {
		t.Errorf("Expected 1 chat, got %d", len(chats))
	}

	if status, env := doRequest(t, router, http.MethodDelete, "/api/chat/"+chat.ID, ""); status != http.StatusOK {
		t.Fatalf("Delete chat returned %d: %s", status, env.Message)
	}
	if status, _ := doRequest(t, router, http.MethodGet, "/api/chat/"+chat.ID, ""); status != http.StatusNotFound {
		t.Errorf("Deleted chat returned %d, want 404", status)
	}
}

func TestChatRejectsUnknownRole(t *testing.T) {
	router := setupServer(t)

	status, env := doRequest(t, router, http.MethodPost, "/api/chat",
		`{"messages":[{"role":"system","content":"nope"}]}`)
	if status != http.StatusBadRequest {
		t.Errorf("Unknown role returned %d (%s), want 400", status, env.Message)
	}
}

func TestGetUnknownRoadmapIsNotFound(t *testing.T) {
	router := setupServer(t)

	status, env := doRequest(t, router, http.MethodGet, "/api/roadmap/"+uuid.NewString(), "")
	if status != http.StatusNotFound {
		t.Errorf("Unknown roadmap returned %d (%s), want 404", status, env.Message)
	}
}
