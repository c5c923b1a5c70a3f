package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Company is the tenant account.
type Company struct {
	ID           uuid.UUID
	Name         string
	LegalForm    string
	SIRET        string
	VATNumber    string
	Address      string
	Email        string
	Phone        string
	LogoKey      string
	IBAN         string
	BIC          string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type CreateParams struct {
	ID           uuid.UUID
	Name         string
	LegalForm    string
	SIRET        string
	VATNumber    string
	Address      string
	Email        string
	Phone        string
	IBAN         string
	BIC          string
	PasswordHash string
}

// UpdateParams carries a partial profile update; nil fields are kept.
type UpdateParams struct {
	ID        uuid.UUID
	LegalForm *string
	SIRET     *string
	VATNumber *string
	Address   *string
	Email     *string
	Phone     *string
	IBAN      *string
	BIC       *string
}

type Repository interface {
	Create(ctx context.Context, params CreateParams) (Company, error)
	GetByID(ctx context.Context, id uuid.UUID) (Company, error)
	// GetByName matches case-insensitively.
	GetByName(ctx context.Context, name string) (Company, error)
	Update(ctx context.Context, params UpdateParams) (Company, error)
	SetLogoKey(ctx context.Context, id uuid.UUID, key string) (Company, error)
}
