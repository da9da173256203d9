package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/questboard/domain"
	"github.com/fastygo/questboard/usecase"
)

// generationTTL outlives any cached window.
const generationTTL = 24 * time.Hour

// progressCache stores one hash per user, keyed by the last day of each cached window,
// so a single DEL drops every window of that user. A per-user generation counter
// guards writes against invalidations that happened while the window was computed.
type progressCache struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewProgressCache creates a Redis-backed cache for progress windows.
func NewProgressCache(client *redislib.Client, ttl time.Duration) usecase.ProgressCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &progressCache{
		client: client,
		prefix: "progress:",
		ttl:    ttl,
	}
}

func (c *progressCache) GetWindow(ctx context.Context, userID, endDay string) ([]domain.DailyProgress, bool, error) {
	raw, err := c.client.HGet(ctx, c.key(userID), endDay).Bytes()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var window []domain.DailyProgress
	if err := json.Unmarshal(raw, &window); err != nil {
		return nil, false, err
	}
	return window, true, nil
}

func (c *progressCache) Generation(ctx context.Context, userID string) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey(userID)).Int64()
	if errors.Is(err, redislib.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *progressCache) SetWindow(ctx context.Context, userID, endDay string, generation int64, window []domain.DailyProgress) (bool, error) {
	payload, err := json.Marshal(window)
	if err != nil {
		return false, err
	}

	key := c.key(userID)
	genKey := c.generationKey(userID)
	stored := false
	err = c.client.Watch(ctx, func(tx *redislib.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redislib.Nil) {
			return err
		}
		if current != generation {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
			pipe.HSet(ctx, key, endDay, payload)
			pipe.Expire(ctx, key, c.ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, genKey)
	if errors.Is(err, redislib.TxFailedErr) {
		return false, nil
	}
	return stored, err
}

func (c *progressCache) Invalidate(ctx context.Context, userID string) error {
	genKey := c.generationKey(userID)
	_, err := c.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, generationTTL)
		pipe.Del(ctx, c.key(userID))
		return nil
	})
	return err
}

func (c *progressCache) key(userID string) string {
	return c.prefix + userID
}

func (c *progressCache) generationKey(userID string) string {
	return c.prefix + "gen:" + userID
}
