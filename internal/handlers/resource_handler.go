package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ad/go-roadmap-progress/internal/models"
	"github.com/ad/go-roadmap-progress/internal/services"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

func (h *Handler) ListResources(w http.ResponseWriter, r *http.Request) {
	resources, err := h.resourceRepo.GetAll(r.URL.Query().Get("title"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", resources)
}

func (h *Handler) SearchResources(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	resources, err := h.resourceRepo.Search(query)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", resources)
}

func (h *Handler) CreateResource(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title      string                    `json:"title"`
		Link       string                    `json:"link"`
		TopicID    string                    `json:"topicId"`
		Type       models.ResourceType       `json:"type"`
		Language   models.ResourceLanguage   `json:"language"`
		Difficulty models.ResourceDifficulty `json:"difficulty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" || req.Link == "" || req.TopicID == "" {
		writeError(w, http.StatusBadRequest, "title, link and topicId are required")
		return
	}
	if req.Type == "" {
		req.Type = models.ResourceArticle
	}
	if req.Language == "" {
		req.Language = models.LanguageEnglish
	}
	if req.Difficulty == "" {
		req.Difficulty = models.DifficultyBeginner
	}
	if !req.Type.Valid() || !req.Language.Valid() || !req.Difficulty.Valid() {
		writeError(w, http.StatusBadRequest, "invalid type, language or difficulty")
		return
	}

	if _, err := h.topicRepo.GetByID(req.TopicID); errors.Is(err, sql.ErrNoRows) {
		writeServiceError(w, services.ErrTopicNotFound)
		return
	} else if err != nil {
		writeServiceError(w, err)
		return
	}

	resource := &models.Resource{
		ID:         uuid.NewString(),
		Title:      req.Title,
		Link:       req.Link,
		TopicID:    req.TopicID,
		Type:       req.Type,
		Language:   req.Language,
		Difficulty: req.Difficulty,
	}
	if err := h.resourceRepo.Create(resource); err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Resource created", resource)
}

func (h *Handler) UpdateResource(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req struct {
		Title      *string                    `json:"title"`
		Link       *string                    `json:"link"`
		Type       *models.ResourceType       `json:"type"`
		Language   *models.ResourceLanguage   `json:"language"`
		Difficulty *models.ResourceDifficulty `json:"difficulty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resource, err := h.resourceRepo.GetByID(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeServiceError(w, services.ErrResourceNotFound)
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if req.Title != nil {
		resource.Title = *req.Title
	}
	if req.Link != nil {
		resource.Link = *req.Link
	}
	if req.Type != nil {
		resource.Type = *req.Type
	}
	if req.Language != nil {
		resource.Language = *req.Language
	}
	if req.Difficulty != nil {
		resource.Difficulty = *req.Difficulty
	}
	if !resource.Type.Valid() || !resource.Language.Valid() || !resource.Difficulty.Valid() {
		writeError(w, http.StatusBadRequest, "invalid type, language or difficulty")
		return
	}

	if err := h.resourceRepo.Update(resource); err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Resource updated", resource)
}

func (h *Handler) DeleteResource(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := h.resourceRepo.Delete(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeServiceError(w, services.ErrResourceNotFound)
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Resource deleted", nil)
}
