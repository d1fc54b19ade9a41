package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	achievementservice "github.com/wordbloom/contrib-engine/app/modules/achievement/application"
)

// AchievementHandler exposes the achievement module over HTTP.
type AchievementHandler struct {
	service achievementservice.Service
	logger  *slog.Logger
}

// NewAchievementHandler creates the handler.
func NewAchievementHandler(service achievementservice.Service, logger *slog.Logger) *AchievementHandler {
	return &AchievementHandler{service: service, logger: logger}
}

// ListForUser handles GET /api/users/{userID}/achievements.
func (h *AchievementHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	earned, err := h.service.ListUserAchievements(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, earned)
}
