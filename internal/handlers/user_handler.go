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

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userRepo.GetAll()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", users)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"userName"`
		Email    string `json:"email"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "userName and email are required")
		return
	}

	user := &models.User{
		ID:       uuid.NewString(),
		Username: req.Username,
		Email:    req.Email,
		Name:     req.Name,
	}
	if err := h.userRepo.Create(user); err != nil {
		if db.IsUniqueViolation(err) {
			writeError(w, http.StatusConflict, "userName or email already taken")
			return
		}
		writeServiceError(w, err)
		return
	}

	created, err := h.userRepo.GetByID(user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "User created", created)
}

// GetUserProfile returns the user together with their enriched progress
// records, one per roadmap they started.
func (h *Handler) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	user, err := h.userRepo.GetByID(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeServiceError(w, services.ErrUserNotFound)
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	records, err := h.tracker.GetAll(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	profile := struct {
		*models.User
		Roadmaps []*models.EnrichedProgress `json:"roadmaps"`
	}{User: user, Roadmaps: records}

	writeSuccess(w, http.StatusOK, "User profile retrieved successfully", profile)
}

func (h *Handler) UpdateUserProfile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req struct {
		Name           *string `json:"name"`
		ProfilePicture *string `json:"profilePicture"`
		TelegramChatID *int64  `json:"telegramChatId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.userRepo.GetByID(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeServiceError(w, services.ErrUserNotFound)
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.ProfilePicture != nil {
		user.ProfilePicture = *req.ProfilePicture
	}
	if req.TelegramChatID != nil {
		user.TelegramChatID = *req.TelegramChatID
	}

	if err := h.userRepo.UpdateProfile(user.ID, user.Name, user.ProfilePicture, user.TelegramChatID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "User profile updated", user)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := h.userRepo.Delete(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeServiceError(w, services.ErrUserNotFound)
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "User account deleted", nil)
}
