package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/user/wikiracer/internal/delivery/http/request"
	"github.com/user/wikiracer/internal/delivery/http/response"
	"github.com/user/wikiracer/internal/entity"
	"github.com/user/wikiracer/internal/racer"
	"github.com/user/wikiracer/internal/usecase"
	"go.uber.org/zap"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	raceManager usecase.RaceManager
	checks      map[string]HealthCheck
	logger      *zap.Logger
}

func NewHandler(raceManager usecase.RaceManager, checks map[string]HealthCheck, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		raceManager: raceManager,
		checks:      checks,
		logger:      logger,
	}
}

func (h *Handler) HandleSubmitRace(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitRaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	raceID, err := h.raceManager.Submit(r.Context(), req.Start, req.End, req.MaxDepth)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrRaceInProgress):
			h.writeJSON(w, http.StatusConflict, response.SubmitRaceResponse{
				Status:  "error",
				Message: err.Error(),
				RaceID:  raceID,
			})
		case errors.Is(err, racer.ErrInvalidURL), errors.Is(err, racer.ErrInvalidMaxDepth):
			h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("failed to submit race",
				zap.String("start", req.Start),
				zap.String("end", req.End),
				zap.Error(err),
			)
			h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, http.StatusAccepted, response.SubmitRaceResponse{
		Status:  "success",
		Message: "Race submitted",
		RaceID:  raceID,
	})
}

func (h *Handler) HandleGetRaceStatus(w http.ResponseWriter, r *http.Request) {
	raceID := chi.URLParam(r, "id")
	if raceID == "" {
		h.writeJSONError(w, "Race ID is required", http.StatusBadRequest)
		return
	}

	status, err := h.raceManager.GetStatus(r.Context(), raceID)
	if err != nil {
		h.logger.Error("failed to get race status", zap.String("race_id", raceID), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if status.CurrentStatus == entity.StatusNotFound {
		h.writeJSONError(w, "Race not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, response.FromStatus(status))
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	body := map[string]string{"status": "ok"}
	code := http.StatusOK
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
			body[name] = "unavailable"
			body["status"] = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		body[name] = "ok"
	}
	h.writeJSON(w, code, body)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
