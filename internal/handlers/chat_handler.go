package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ad/go-roadmap-progress/internal/models"
	"github.com/ad/go-roadmap-progress/internal/services"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

func (h *Handler) ListChats(w http.ResponseWriter, r *http.Request) {
	chats, err := h.chatRepo.GetAll()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", chats)
}

func (h *Handler) GetChat(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	chat, err := h.chatRepo.GetByID(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeServiceError(w, services.ErrChatNotFound)
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", chat)
}

func (h *Handler) CreateChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title    string               `json:"title"`
		Messages []models.ChatMessage `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		req.Title = "New Chat"
	}
	messages, ok := stampMessages(req.Messages)
	if !ok {
		writeError(w, http.StatusBadRequest, "message role must be user or assistant and content must not be empty")
		return
	}

	chat := &models.Chat{
		ID:       uuid.NewString(),
		Title:    req.Title,
		Messages: messages,
	}
	if err := h.chatRepo.Create(chat); err != nil {
		writeServiceError(w, err)
		return
	}

	created, err := h.chatRepo.GetByID(chat.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Chat created", created)
}

// UpdateChat renames the chat and/or appends messages; existing
// messages are never rewritten.
func (h *Handler) UpdateChat(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req struct {
		Title    *string              `json:"title"`
		Messages []models.ChatMessage `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == nil && len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "title or messages is required")
		return
	}
	messages, ok := stampMessages(req.Messages)
	if !ok {
		writeError(w, http.StatusBadRequest, "message role must be user or assistant and content must not be empty")
		return
	}

	err := h.chatRepo.Update(id, req.Title, messages)
	if errors.Is(err, sql.ErrNoRows) {
		writeServiceError(w, services.ErrChatNotFound)
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	updated, err := h.chatRepo.GetByID(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Chat updated", updated)
}

func (h *Handler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := h.chatRepo.Delete(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeServiceError(w, services.ErrChatNotFound)
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Chat deleted", nil)
}

func stampMessages(messages []models.ChatMessage) ([]models.ChatMessage, bool) {
	now := time.Now().UTC()
	for i := range messages {
		if !messages[i].Role.Valid() || messages[i].Content == "" {
			return nil, false
		}
		if messages[i].Timestamp.IsZero() {
			messages[i].Timestamp = now
		}
	}
	return messages, true
}
