package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/YoonKyungHan/baseball/internal/entity"
)

const (
	matchHistoryKey = "history:games"
	userHistoryKey  = "history:users"

	// maxHistoryEntries caps each list; readers never page past this.
	maxHistoryEntries = 500
)

type HistoryRepository interface {
	AppendMatch(ctx context.Context, record *entity.MatchRecord) error
	RecentMatches(ctx context.Context, limit int) ([]entity.MatchRecord, error)

	AppendUser(ctx context.Context, record *entity.UserRecord) error
	RecentUsers(ctx context.Context, limit int) ([]entity.UserRecord, error)
}

type dbHistory struct {
	client *redis.Client
}

func NewHistoryRepository(client *redis.Client) HistoryRepository {
	return &dbHistory{
		client: client,
	}
}

func (that *dbHistory) AppendMatch(ctx context.Context, record *entity.MatchRecord) error {
	return that.append(ctx, matchHistoryKey, record)
}

func (that *dbHistory) AppendUser(ctx context.Context, record *entity.UserRecord) error {
	return that.append(ctx, userHistoryKey, record)
}

func (that *dbHistory) append(ctx context.Context, key string, record any) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal history record: %w", err)
	}

	if err = that.client.LPush(ctx, key, recordJSON).Err(); err != nil {
		return fmt.Errorf("failed to push history record: %w", err)
	}

	if err = that.client.LTrim(ctx, key, 0, maxHistoryEntries-1).Err(); err != nil {
		return fmt.Errorf("failed to trim history: %w", err)
	}

	return nil
}

// RecentMatches returns up to limit records, newest first.
func (that *dbHistory) RecentMatches(ctx context.Context, limit int) ([]entity.MatchRecord, error) {
	lines, err := that.recent(ctx, matchHistoryKey, limit)
	if err != nil {
		return nil, err
	}

	records := make([]entity.MatchRecord, 0, len(lines))
	for _, line := range lines {
		var record entity.MatchRecord
		if err = json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal match record: %w", err)
		}
		records = append(records, record)
	}

	return records, nil
}

func (that *dbHistory) RecentUsers(ctx context.Context, limit int) ([]entity.UserRecord, error) {
	lines, err := that.recent(ctx, userHistoryKey, limit)
	if err != nil {
		return nil, err
	}

	records := make([]entity.UserRecord, 0, len(lines))
	for _, line := range lines {
		var record entity.UserRecord
		if err = json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal user record: %w", err)
		}
		records = append(records, record)
	}

	return records, nil
}

func (that *dbHistory) recent(ctx context.Context, key string, limit int) ([]string, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > maxHistoryEntries {
		limit = maxHistoryEntries
	}

	lines, err := that.client.LRange(ctx, key, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	return lines, nil
}
