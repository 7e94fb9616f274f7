package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/YoonKyungHan/baseball/internal/entity"
)

const recordTimeout = 5 * time.Second

type historyRepo interface {
	AppendMatch(ctx context.Context, record *entity.MatchRecord) error
	RecentMatches(ctx context.Context, limit int) ([]entity.MatchRecord, error)
	AppendUser(ctx context.Context, record *entity.UserRecord) error
	RecentUsers(ctx context.Context, limit int) ([]entity.UserRecord, error)
}

type gameEventPublisher interface {
	PublishGameEnded(ctx context.Context, record *entity.MatchRecord) error
	PublishUserEvent(ctx context.Context, record *entity.UserRecord) error
}

// HistoryService persists finished matches and user events. Writes happen in
// the background and failures are logged, never surfaced to gameplay.
type HistoryService struct {
	logger    *slog.Logger
	repo      historyRepo
	publisher gameEventPublisher
}

// NewHistoryService wires storage and an optional event publisher; pass a
// nil publisher when no broker is configured.
func NewHistoryService(logger *slog.Logger, repo historyRepo, publisher gameEventPublisher) *HistoryService {
	return &HistoryService{
		logger:    logger.With("component", "history"),
		repo:      repo,
		publisher: publisher,
	}
}

func (that *HistoryService) RecordMatch(record *entity.MatchRecord) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		if err := that.repo.AppendMatch(ctx, record); err != nil {
			that.logger.Error("failed to record match", "roomID", record.RoomID, "error", err)
		}

		if that.publisher == nil {
			return
		}

		if err := that.publisher.PublishGameEnded(ctx, record); err != nil {
			that.logger.Error("failed to publish match event", "roomID", record.RoomID, "error", err)
		}
	}()
}

func (that *HistoryService) RecordUser(record *entity.UserRecord) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		if err := that.repo.AppendUser(ctx, record); err != nil {
			that.logger.Error("failed to record user event", "playerID", record.PlayerID, "error", err)
		}

		if that.publisher == nil {
			return
		}

		if err := that.publisher.PublishUserEvent(ctx, record); err != nil {
			that.logger.Error("failed to publish user event", "playerID", record.PlayerID, "error", err)
		}
	}()
}

func (that *HistoryService) RecentMatches(ctx context.Context, limit int) ([]entity.MatchRecord, error) {
	return that.repo.RecentMatches(ctx, limit)
}

func (that *HistoryService) RecentUsers(ctx context.Context, limit int) ([]entity.UserRecord, error) {
	return that.repo.RecentUsers(ctx, limit)
}
