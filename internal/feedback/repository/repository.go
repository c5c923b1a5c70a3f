package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Feedback struct {
	ID        uuid.UUID
	CompanyID *uuid.UUID
	Email     string
	Message   string
	CreatedAt time.Time
}

type Repository interface {
	Create(ctx context.Context, f Feedback) (Feedback, error)
}

type Repo struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

func (r *Repo) Create(ctx context.Context, f Feedback) (Feedback, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO feedback (id, company_id, email, message)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		f.ID, f.CompanyID, f.Email, f.Message,
	).Scan(&f.CreatedAt)
	if err != nil {
		return Feedback{}, fmt.Errorf("insert feedback: %w", err)
	}
	return f, nil
}
