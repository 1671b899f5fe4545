package shapes

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nisshchayarathi/drawing-app/internal/auth"
)

const maxBodySize = 1 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type messageRequest struct {
	Message string `json:"message"`
}

type listResponse struct {
	Messages []Record `json:"messages"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	roomID, err := ParseID(mux.Vars(r)["roomId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	records, err := h.service.List(r.Context(), roomID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Messages: records})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	roomID, err := ParseID(mux.Vars(r)["roomId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	req, ok := decodeMessage(w, r)
	if !ok {
		return
	}

	id, err := h.service.Create(r.Context(), roomID, userID, req.Message)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(mux.Vars(r)["id"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	req, ok := decodeMessage(w, r)
	if !ok {
		return
	}

	if err := h.service.Update(r.Context(), id, req.Message); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(mux.Vars(r)["id"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func decodeMessage(w http.ResponseWriter, r *http.Request) (messageRequest, bool) {
	var req messageRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return req, false
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
		return req, false
	}
	return req, true
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrInvalidID):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
	case errors.Is(err, ErrInvalidShape):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
