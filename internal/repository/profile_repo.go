package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"chill-backend/internal/models"
)

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

func (r *ProfileRepo) Upsert(ctx context.Context, userID uuid.UUID, name string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profiles (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
		userID, name,
	)
	return err
}

func (r *ProfileRepo) GetByID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	p := &models.Profile{}
	query := `SELECT id, name, created_at FROM profiles WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, userID).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}
