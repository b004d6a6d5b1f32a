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

func (h *Handler) ListRoadmaps(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	category := r.URL.Query().Get("category")

	roadmaps, err := h.roadmapRepo.GetAll(title, category)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", roadmaps)
}

func (h *Handler) GetRoadmap(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	roadmap, err := h.roadmapRepo.GetByID(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeServiceError(w, services.ErrRoadmapNotFound)
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	steps, err := h.stepRepo.GetByRoadmap(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	roadmap.Steps = steps

	writeSuccess(w, http.StatusOK, "", roadmap)
}

func (h *Handler) CreateRoadmap(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Category    string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Category == "" {
		req.Category = "general"
	}

	roadmap := &models.Roadmap{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	}
	if err := h.roadmapRepo.Create(roadmap); err != nil {
		if db.IsUniqueViolation(err) {
			writeServiceError(w, services.ErrTitleTaken)
			return
		}
		writeServiceError(w, err)
		return
	}

	created, err := h.roadmapRepo.GetByID(roadmap.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Roadmap created", created)
}

func (h *Handler) UpdateRoadmap(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Category    *string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == nil && req.Description == nil && req.Category == nil {
		writeError(w, http.StatusBadRequest, "title, description or category is required")
		return
	}

	roadmap, err := h.roadmapRepo.GetByID(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeServiceError(w, services.ErrRoadmapNotFound)
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if req.Title != nil {
		roadmap.Title = *req.Title
	}
	if req.Description != nil {
		roadmap.Description = *req.Description
	}
	if req.Category != nil {
		roadmap.Category = *req.Category
	}

	if err := h.roadmapRepo.Update(roadmap); err != nil {
		if db.IsUniqueViolation(err) {
			writeServiceError(w, services.ErrTitleTaken)
			return
		}
		writeServiceError(w, err)
		return
	}

	updated, err := h.roadmapRepo.GetByID(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Roadmap updated", updated)
}

func (h *Handler) DeleteRoadmap(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := h.roadmapRepo.Delete(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeServiceError(w, services.ErrRoadmapNotFound)
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Roadmap deleted", nil)
}

func (h *Handler) ListSteps(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	exists, err := h.roadmapRepo.Exists(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !exists {
		writeServiceError(w, services.ErrRoadmapNotFound)
		return
	}

	steps, err := h.stepRepo.GetByRoadmap(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", steps)
}

func (h *Handler) AddStep(w http.ResponseWriter, r *http.Request) {
	roadmapID := mux.Vars(r)["id"]

	var req struct {
		Title   string `json:"title"`
		Order   int    `json:"order"`
		TopicID string `json:"topicId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" || req.TopicID == "" {
		writeError(w, http.StatusBadRequest, "title and topicId are required")
		return
	}
	if req.Order < 1 {
		writeError(w, http.StatusBadRequest, "order must be at least 1")
		return
	}

	exists, err := h.roadmapRepo.Exists(roadmapID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !exists {
		writeServiceError(w, services.ErrRoadmapNotFound)
		return
	}

	if _, err := h.topicRepo.GetByID(req.TopicID); errors.Is(err, sql.ErrNoRows) {
		writeServiceError(w, services.ErrTopicNotFound)
		return
	} else if err != nil {
		writeServiceError(w, err)
		return
	}

	step := &models.Step{
		ID:        uuid.NewString(),
		Title:     req.Title,
		RoadmapID: roadmapID,
		Order:     req.Order,
		TopicID:   req.TopicID,
	}
	if err := h.stepRepo.Create(step); err != nil {
		if db.IsUniqueViolation(err) {
			writeError(w, http.StatusConflict, "a step with this order already exists in the roadmap")
			return
		}
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Step added", step)
}
