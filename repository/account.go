package repository

import (
	"context"
	"time"

	"github.com/fastygo/questboard/domain"
)

// UserRepository stores player profiles in the relational store.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// Upsert creates the profile on first use and overwrites email, display name
	// and metadata afterwards. An empty status means active on insert and keeps
	// the stored status on update. CreatedAt is never changed by an update.
	Upsert(ctx context.Context, user *domain.User) error
}

// SessionRepository keeps signed-in sessions until they expire.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	// Delete is a no-op for unknown sessions.
	Delete(ctx context.Context, id string) error
	// Extend moves the expiry of a live session to now+ttl and returns it.
	Extend(ctx context.Context, id string, ttl time.Duration) (*domain.Session, error)
}
