package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ad/go-roadmap-progress/internal/db"
	"github.com/ad/go-roadmap-progress/internal/models"
	"github.com/ad/go-roadmap-progress/internal/services"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

func (h *Handler) ListTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.topicRepo.GetAll(r.URL.Query().Get("title"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", topics)
}

func (h *Handler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Tags        []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" || req.Description == "" {
		writeError(w, http.StatusBadRequest, "title and description are required")
		return
	}

	topic := &models.Topic{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
	}
	if err := h.topicRepo.Create(topic); err != nil {
		if db.IsUniqueViolation(err) {
			writeServiceError(w, services.ErrTitleTaken)
			return
		}
		writeServiceError(w, err)
		return
	}

	created, err := h.topicRepo.GetByID(topic.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Topic created", created)
}

func (h *Handler) UpdateTopic(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req struct {
		Title       *string  `json:"title"`
		Description *string  `json:"description"`
		Tags        []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	topic, err := h.topicRepo.GetByID(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeServiceError(w, services.ErrTopicNotFound)
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if req.Title != nil {
		topic.Title = *req.Title
	}
	if req.Description != nil {
		topic.Description = *req.Description
	}
	if req.Tags != nil {
		topic.Tags = req.Tags
	}

	if err := h.topicRepo.Update(topic); err != nil {
		if db.IsUniqueViolation(err) {
			writeServiceError(w, services.ErrTitleTaken)
			return
		}
		writeServiceError(w, err)
		return
	}

	updated, err := h.topicRepo.GetByID(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Topic updated", updated)
}

func (h *Handler) ListTopicResources(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, err := h.topicRepo.GetByID(id); errors.Is(err, sql.ErrNoRows) {
		writeServiceError(w, services.ErrTopicNotFound)
		return
	} else if err != nil {
		writeServiceError(w, err)
		return
	}

	resources, err := h.resourceRepo.GetByTopic(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", resources)
}

func (h *Handler) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := h.topicRepo.Delete(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeServiceError(w, services.ErrTopicNotFound)
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Topic deleted", nil)
}
