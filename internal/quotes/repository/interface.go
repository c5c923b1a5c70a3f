package repository

import (
	"context"
	"time"

	"devis_backend/internal/quotes/domain"

	"github.com/google/uuid"
)

type ListParams struct {
	CompanyID uuid.UUID
	Status    string
	Offset    int
	Limit     int
}

// Repository persists quotes together with their ordered lines.
type Repository interface {
	// Create assigns the next DV-<year>-<NNN> number and inserts the quote.
	Create(ctx context.Context, q *domain.Quote) error
	GetByID(ctx context.Context, companyID, id uuid.UUID) (*domain.Quote, error)
	// Save writes the header; with replaceLines the stored lines are
	// swapped for q.Lines in the same transaction.
	Save(ctx context.Context, q *domain.Quote, replaceLines bool) error
	// List orders by issue date, newest first, and loads lines.
	List(ctx context.Context, params ListParams) ([]*domain.Quote, int, error)
	Delete(ctx context.Context, companyID, id uuid.UUID) error
	MarkSent(ctx context.Context, companyID, id uuid.UUID, pdfKey string, sentAt time.Time) error
}
