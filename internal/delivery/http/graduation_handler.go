package http

import (
	"encoding/json"
	"net/http"

	"nija-backend/internal/usecase"
)

// GraduationHandler exposes the paper-to-live progression endpoints.
type GraduationHandler struct {
	svc *usecase.GraduationService
}

func NewGraduationHandler(svc *usecase.GraduationService) *GraduationHandler {
	return &GraduationHandler{svc: svc}
}

type userRequest struct {
	UserID string `json:"userId"`
}

func decodeUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return "", false
	}
	if req.UserID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return "", false
	}
	return req.UserID, true
}

// Status handles GET /api/graduation/status?userId=xxx
func (h *GraduationHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "Missing userId", http.StatusBadRequest)
		return
	}

	progress, err := h.svc.GetProgress(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"progress": progress,
		"limits":   h.svc.LimitsFor(progress.Stage),
	})
}

// Refresh handles POST /api/graduation/refresh — pulls the latest paper stats
// into the user's record.
func (h *GraduationHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	userID, ok := decodeUserID(w, r)
	if !ok {
		return
	}

	progress, err := h.svc.UpdateFromPaperStats(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(progress)
}

// Graduate handles POST /api/graduation/graduate
func (h *GraduationHandler) Graduate(w http.ResponseWriter, r *http.Request) {
	userID, ok := decodeUserID(w, r)
	if !ok {
		return
	}

	result, err := h.svc.RequestGraduation(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// EnableFull handles POST /api/graduation/enable-full
func (h *GraduationHandler) EnableFull(w http.ResponseWriter, r *http.Request) {
	userID, ok := decodeUserID(w, r)
	if !ok {
		return
	}

	result, err := h.svc.EnableFullLive(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// Revert handles POST /api/graduation/revert
func (h *GraduationHandler) Revert(w http.ResponseWriter, r *http.Request) {
	userID, ok := decodeUserID(w, r)
	if !ok {
		return
	}

	progress, err := h.svc.RevertToPaper(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(progress)
}
