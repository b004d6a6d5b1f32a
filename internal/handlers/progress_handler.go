package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

func (h *Handler) GetAllProgress(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	records, err := h.tracker.GetAll(userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", records)
}

func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	progress, err := h.tracker.Get(vars["userId"], vars["roadmapId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", progress)
}

func (h *Handler) StartProgress(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	progress, err := h.tracker.Start(vars["userId"], vars["roadmapId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Progress tracking started", progress)
}

func (h *Handler) CompleteStep(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req struct {
		StepID string `json:"stepId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StepID == "" {
		writeError(w, http.StatusBadRequest, "stepId is required")
		return
	}

	progress, err := h.tracker.CompleteStep(r.Context(), vars["userId"], vars["roadmapId"], req.StepID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Step and topic marked as completed", progress)
}

func (h *Handler) CompleteResource(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req struct {
		ResourceID string `json:"resourceId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ResourceID == "" {
		writeError(w, http.StatusBadRequest, "resourceId is required")
		return
	}

	progress, err := h.tracker.CompleteResource(vars["userId"], vars["roadmapId"], req.ResourceID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Resource marked as completed", progress)
}
