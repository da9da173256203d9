package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/questboard/domain"
	"github.com/fastygo/questboard/repository"
)

type userRepository struct {
	q querier
}

// NewUserRepository instantiates a Postgres-backed user repository.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{q: pool}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
		SELECT id, email, display_name, status, metadata, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var user domain.User
	var metadata []byte

	if err := r.q.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.Status,
		&metadata,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	if len(metadata) > 0 {
		_ = json.Unmarshal(metadata, &user.Metadata)
	}
	return &user, nil
}

func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	if user == nil || user.ID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO users (id, email, display_name, status, metadata, created_at, updated_at)
	VALUES ($1, $2, $3, COALESCE(NULLIF($4::text, ''), $7::text), $5, COALESCE($6, NOW()), NOW())
	ON CONFLICT (id) DO UPDATE
	SET email = EXCLUDED.email,
		display_name = EXCLUDED.display_name,
		status = COALESCE(NULLIF($4::text, ''), users.status),
		metadata = EXCLUDED.metadata,
		updated_at = NOW()
	RETURNING status, created_at, updated_at
	`

	return r.q.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.Status,
		marshalMap(user.Metadata),
		nullTime(user.CreatedAt),
		domain.UserStatusActive,
	).Scan(&user.Status, &user.CreatedAt, &user.UpdatedAt)
}
