package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/YoonKyungHan/baseball/internal/entity"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

type historyService interface {
	RecentMatches(ctx context.Context, limit int) ([]entity.MatchRecord, error)
	RecentUsers(ctx context.Context, limit int) ([]entity.UserRecord, error)
}

type handlers struct {
	logger  *slog.Logger
	history historyService
}

func newHandlers(logger *slog.Logger, history historyService) *handlers {
	return &handlers{
		logger:  logger.With("component", "rest"),
		history: history,
	}
}

func (that *handlers) ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (that *handlers) matchHistory(w http.ResponseWriter, r *http.Request) {
	records, err := that.history.RecentMatches(r.Context(), parseLimit(r))
	if err != nil {
		that.logger.Error("failed to read match history", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	that.writeJSON(w, records)
}

func (that *handlers) userHistory(w http.ResponseWriter, r *http.Request) {
	records, err := that.history.RecentUsers(r.Context(), parseLimit(r))
	if err != nil {
		that.logger.Error("failed to read user history", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	that.writeJSON(w, records)
}

func (that *handlers) writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}

// parseLimit reads the limit query parameter, clamped to [1, 500] with a
// default of 50.
func parseLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit
	}

	limit, err := strconv.Atoi(raw)
	if err != nil {
		return defaultLimit
	}

	if limit < 1 {
		return 1
	}
	if limit > maxLimit {
		return maxLimit
	}

	return limit
}
