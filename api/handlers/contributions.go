package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	contributionservice "github.com/wordbloom/contrib-engine/app/modules/contribution/application"
	"github.com/wordbloom/contrib-engine/app/shared"
)

// ContributionHandler exposes the contribution module over HTTP.
type ContributionHandler struct {
	service contributionservice.Service
	logger  *slog.Logger
}

// NewContributionHandler creates the handler.
func NewContributionHandler(service contributionservice.Service, logger *slog.Logger) *ContributionHandler {
	return &ContributionHandler{service: service, logger: logger}
}

type recordContributionRequest struct {
	UserID   string            `json:"user_id"`
	Type     string            `json:"type"`
	Points   *int64            `json:"points,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Record handles POST /api/contributions.
func (h *ContributionHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req recordContributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, h.logger, shared.NewValidationError("body", "must be valid JSON"))
		return
	}

	recorded, err := h.service.RecordContribution(r.Context(), contributionservice.RecordContributionInput{
		UserID:   req.UserID,
		TypeName: req.Type,
		Points:   req.Points,
		Metadata: req.Metadata,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	status := http.StatusCreated
	if recorded.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, recorded)
}

// ListForUser handles GET /api/users/{userID}/contributions.
func (h *ContributionHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	timeRange, err := shared.ParseTimeRange(r.URL.Query().Get("time_range"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	page, pageSize, err := queryPagination(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	pageResult, err := h.service.GetUserContributions(r.Context(), userID, timeRange, page, pageSize)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pageResult)
}

// Statistics handles GET /api/statistics.
func (h *ContributionHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	timeRange, err := shared.ParseTimeRange(r.URL.Query().Get("time_range"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	stats, err := h.service.GetStatistics(r.Context(), timeRange)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// queryPagination parses page/page_size query params; absent params become
// zero and pick up the shared defaults downstream.
func queryPagination(r *http.Request) (page, pageSize int, err error) {
	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, shared.NewValidationError("page", "must be an integer")
		}
	}
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		pageSize, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, shared.NewValidationError("page_size", "must be an integer")
		}
	}
	return page, pageSize, nil
}
