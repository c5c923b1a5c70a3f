package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TypeIndividual   = "particulier"
	TypeProfessional = "pro"
)

type Client struct {
	ID          uuid.UUID
	CompanyID   uuid.UUID
	Name        string
	Type        string
	Address     string
	Email       string
	Phone       string
	SiteAddress string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CreateParams struct {
	ID          uuid.UUID
	CompanyID   uuid.UUID
	Name        string
	Type        string
	Address     string
	Email       string
	Phone       string
	SiteAddress string
}

type UpdateParams struct {
	ID          uuid.UUID
	CompanyID   uuid.UUID
	Name        *string
	Type        *string
	Address     *string
	Email       *string
	Phone       *string
	SiteAddress *string
}

type Repository interface {
	Create(ctx context.Context, params CreateParams) (Client, error)
	GetByID(ctx context.Context, companyID, id uuid.UUID) (Client, error)
	Update(ctx context.Context, params UpdateParams) (Client, error)
	// Search matches query as a case-insensitive substring of the name.
	Search(ctx context.Context, companyID uuid.UUID, query string, limit int) ([]Client, error)
}
