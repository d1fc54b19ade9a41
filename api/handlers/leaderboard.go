package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	leaderboardservice "github.com/wordbloom/contrib-engine/app/modules/leaderboard/application"
	"github.com/wordbloom/contrib-engine/app/shared"
)

// LeaderboardHandler exposes the leaderboard module over HTTP.
type LeaderboardHandler struct {
	service leaderboardservice.Service
	logger  *slog.Logger
}

// NewLeaderboardHandler creates the handler.
func NewLeaderboardHandler(service leaderboardservice.Service, logger *slog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{service: service, logger: logger}
}

// Get handles GET /api/leaderboard.
func (h *LeaderboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	query, err := h.parseQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	page, err := h.service.GetLeaderboard(r.Context(), query)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Chart handles GET /api/leaderboard/chart.png.
func (h *LeaderboardHandler) Chart(w http.ResponseWriter, r *http.Request) {
	timeRange, err := shared.ParseTimeRange(r.URL.Query().Get("time_range"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	n := 10
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err = strconv.Atoi(raw)
		if err != nil || n < 1 || n > 25 {
			writeError(w, r, h.logger, shared.NewValidationError("top", "must be an integer between 1 and 25"))
			return
		}
	}

	png, err := h.service.RenderTopChart(r.Context(), timeRange, n)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *LeaderboardHandler) parseQuery(r *http.Request) (leaderboardservice.Query, error) {
	timeRange, err := shared.ParseTimeRange(r.URL.Query().Get("time_range"))
	if err != nil {
		return leaderboardservice.Query{}, err
	}
	page, pageSize, err := queryPagination(r)
	if err != nil {
		return leaderboardservice.Query{}, err
	}
	return leaderboardservice.Query{
		TimeRange:  timeRange,
		TypeFilter: r.URL.Query().Get("type"),
		Page:       page,
		PageSize:   pageSize,
	}, nil
}
