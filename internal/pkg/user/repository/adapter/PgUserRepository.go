package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	repository "github.com/sehabur/bookmate-backend/internal/pkg/user/repository/port"
)

type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

var _ repository.UserRepository = (*PgUserRepository)(nil)

func (r *PgUserRepository) GetProfile(ctx context.Context, userID string) (*repository.Profile, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgUserRepository: nil pool")
	}
	var p repository.Profile
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, first_name, COALESCE(last_name, ''), COALESCE(image, ''), COALESCE(district, ''), COALESCE(area, '')
		FROM users
		WHERE id = $1::uuid
	`, userID).Scan(&p.ID, &p.FirstName, &p.LastName, &p.Image, &p.District, &p.Area)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
