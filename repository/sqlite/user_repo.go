package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/fastygo/questboard/domain"
	"github.com/fastygo/questboard/repository"
)

type userRepository struct {
	q dbtx
}

// NewUserRepository returns a SQLite-backed UserRepository.
func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{q: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
	SELECT id, email, display_name, status, COALESCE(metadata, ''), created_at, updated_at
	FROM users
	WHERE id = ?
	`
	var (
		user      domain.User
		metadata  string
		createdAt string
		updatedAt string
	)
	if err := r.q.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.Status,
		&metadata,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	if metadata != "" {
		_ = json.Unmarshal([]byte(metadata), &user.Metadata)
	}
	user.CreatedAt = parseTime(createdAt)
	user.UpdatedAt = parseTime(updatedAt)
	return &user, nil
}

func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	if user == nil || user.ID == "" {
		return domain.ErrInvalidPayload
	}

	var metadata any
	if len(user.Metadata) > 0 {
		b, err := json.Marshal(user.Metadata)
		if err != nil {
			return err
		}
		metadata = string(b)
	}

	now := formatTime(time.Now())
	createdAt := now
	if !user.CreatedAt.IsZero() {
		createdAt = formatTime(user.CreatedAt)
	}

	const query = `
	INSERT INTO users (id, email, display_name, status, metadata, created_at, updated_at)
	VALUES (?1, ?2, ?3, COALESCE(NULLIF(?4, ''), ?8), ?5, ?6, ?7)
	ON CONFLICT (id) DO UPDATE
	SET email = excluded.email,
		display_name = excluded.display_name,
		status = COALESCE(NULLIF(?4, ''), users.status),
		metadata = excluded.metadata,
		updated_at = excluded.updated_at
	RETURNING status, created_at, updated_at
	`
	var created, updated string
	if err := r.q.QueryRowContext(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.Status,
		metadata,
		createdAt,
		now,
		domain.UserStatusActive,
	).Scan(&user.Status, &created, &updated); err != nil {
		return err
	}
	user.CreatedAt = parseTime(created)
	user.UpdatedAt = parseTime(updated)
	return nil
}
