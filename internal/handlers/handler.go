package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/ad/go-roadmap-progress/internal/db"
	"github.com/ad/go-roadmap-progress/internal/services"
	"github.com/gorilla/mux"
)

type Handler struct {
	userRepo     *db.UserRepository
	roadmapRepo  *db.RoadmapRepository
	stepRepo     *db.StepRepository
	topicRepo    *db.TopicRepository
	resourceRepo *db.ResourceRepository
	chatRepo     *db.ChatRepository
	tracker      *services.ProgressTracker
}

func NewHandler(
	userRepo *db.UserRepository,
	roadmapRepo *db.RoadmapRepository,
	stepRepo *db.StepRepository,
	topicRepo *db.TopicRepository,
	resourceRepo *db.ResourceRepository,
	chatRepo *db.ChatRepository,
	tracker *services.ProgressTracker,
) *Handler {
	return &Handler{
		userRepo:     userRepo,
		roadmapRepo:  roadmapRepo,
		stepRepo:     stepRepo,
		topicRepo:    topicRepo,
		resourceRepo: resourceRepo,
		chatRepo:     chatRepo,
		tracker:      tracker,
	}
}

func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(logMiddleware)
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/progress/{userId}", h.GetAllProgress).Methods(http.MethodGet)
	api.HandleFunc("/progress/{userId}/{roadmapId}", h.GetProgress).Methods(http.MethodGet)
	api.HandleFunc("/progress/{userId}/{roadmapId}/start", h.StartProgress).Methods(http.MethodPost)
	api.HandleFunc("/progress/{userId}/{roadmapId}/completeStep", h.CompleteStep).Methods(http.MethodPatch)
	api.HandleFunc("/progress/{userId}/{roadmapId}/completeResource", h.CompleteResource).Methods(http.MethodPatch)

	api.HandleFunc("/roadmap", h.ListRoadmaps).Methods(http.MethodGet)
	api.HandleFunc("/roadmap", h.CreateRoadmap).Methods(http.MethodPost)
	api.HandleFunc("/roadmap/{id}", h.GetRoadmap).Methods(http.MethodGet)
	api.HandleFunc("/roadmap/{id}", h.UpdateRoadmap).Methods(http.MethodPatch)
	api.HandleFunc("/roadmap/{id}", h.DeleteRoadmap).Methods(http.MethodDelete)
	api.HandleFunc("/roadmap/{id}/steps", h.ListSteps).Methods(http.MethodGet)
	api.HandleFunc("/roadmap/{id}/steps", h.AddStep).Methods(http.MethodPost)

	api.HandleFunc("/topic", h.ListTopics).Methods(http.MethodGet)
	api.HandleFunc("/topic", h.CreateTopic).Methods(http.MethodPost)
	api.HandleFunc("/topic/{id}", h.UpdateTopic).Methods(http.MethodPatch)
	api.HandleFunc("/topic/{id}", h.DeleteTopic).Methods(http.MethodDelete)
	api.HandleFunc("/topic/{id}/resources", h.ListTopicResources).Methods(http.MethodGet)

	api.HandleFunc("/resource", h.ListResources).Methods(http.MethodGet)
	api.HandleFunc("/resource/search", h.SearchResources).Methods(http.MethodGet)
	api.HandleFunc("/resource", h.CreateResource).Methods(http.MethodPost)
	api.HandleFunc("/resource/{id}", h.UpdateResource).Methods(http.MethodPatch)
	api.HandleFunc("/resource/{id}", h.DeleteResource).Methods(http.MethodDelete)

	api.HandleFunc("/chat", h.ListChats).Methods(http.MethodGet)
	api.HandleFunc("/chat", h.CreateChat).Methods(http.MethodPost)
	api.HandleFunc("/chat/{id}", h.GetChat).Methods(http.MethodGet)
	api.HandleFunc("/chat/{id}", h.UpdateChat).Methods(http.MethodPatch)
	api.HandleFunc("/chat/{id}", h.DeleteChat).Methods(http.MethodDelete)

	api.HandleFunc("/user", h.ListUsers).Methods(http.MethodGet)
	api.HandleFunc("/user", h.CreateUser).Methods(http.MethodPost)
	api.HandleFunc("/user/profile/{id}", h.GetUserProfile).Methods(http.MethodGet)
	api.HandleFunc("/user/profile/{id}", h.UpdateUserProfile).Methods(http.MethodPatch)
	api.HandleFunc("/user/{id}", h.DeleteUser).Methods(http.MethodDelete)

	return r
}

type response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response{Success: true, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response{Success: false, Message: message})
}

// writeServiceError maps the engine's error taxonomy to HTTP statuses.
// NotFound and Conflict are terminal; anything unclassified is treated
// as transient storage trouble the caller may retry.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case services.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case services.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error())
	case services.IsInvalidReference(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[%s] %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
