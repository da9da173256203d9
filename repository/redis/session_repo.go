package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/questboard/domain"
	"github.com/fastygo/questboard/repository"
)

const sessionPrefix = "session:"

// ErrSessionContended is returned when a session changed while it was being extended.
var ErrSessionContended = domain.NewError(domain.ErrCodeConflict, "session modified concurrently")

type sessionRepository struct {
	client redislib.UniversalClient
	ttl    time.Duration
}

// NewSessionRepository stores sessions as JSON under session:<id>, expiring with the session.
func NewSessionRepository(client redislib.UniversalClient, ttl time.Duration) repository.SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &sessionRepository{client: client, ttl: ttl}
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	return decodeSession(r.client.Get(ctx, sessionKey(id)).Bytes())
}

func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidPayload
	}
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	if !session.ExpiresAt.After(session.CreatedAt) {
		session.ExpiresAt = session.CreatedAt.Add(r.ttl)
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	ttl := session.TTL(now)
	if ttl <= 0 {
		ttl = r.ttl
	}
	return r.client.Set(ctx, sessionKey(session.ID), payload, ttl).Err()
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, sessionKey(id)).Err()
}

// Extend pushes the expiry of a live session under WATCH, so a concurrent
// logout cannot be undone by a refresh that read the session first.
func (r *sessionRepository) Extend(ctx context.Context, id string, ttl time.Duration) (*domain.Session, error) {
	if ttl <= 0 {
		ttl = r.ttl
	}
	key := sessionKey(id)

	var extended *domain.Session
	err := r.client.Watch(ctx, func(tx *redislib.Tx) error {
		session, err := decodeSession(tx.Get(ctx, key).Bytes())
		if err != nil {
			return err
		}
		session.ExpiresAt = time.Now().Add(ttl)
		payload, err := json.Marshal(session)
		if err != nil {
			return err
		}
		if _, err := tx.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
			pipe.Set(ctx, key, payload, ttl)
			return nil
		}); err != nil {
			return err
		}
		extended = session
		return nil
	}, key)
	if errors.Is(err, redislib.TxFailedErr) {
		return nil, ErrSessionContended
	}
	if err != nil {
		return nil, err
	}
	return extended, nil
}

func decodeSession(raw []byte, err error) (*domain.Session, error) {
	if errors.Is(err, redislib.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func sessionKey(id string) string {
	return sessionPrefix + id
}
