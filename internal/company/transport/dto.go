package transport

import (
	"time"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Name      string `json:"name" validate:"required,min=1,max=200"`
	Password  string `json:"password" validate:"required,min=6,max=128"`
	LegalForm string `json:"legalForm" validate:"max=100"`
	SIRET     string `json:"siret" validate:"max=20"`
	VATNumber string `json:"vatNumber" validate:"max=30"`
	Address   string `json:"address" validate:"max=500"`
	Email     string `json:"email" validate:"omitempty,email,max=254"`
	Phone     string `json:"phone" validate:"max=30"`
	IBAN      string `json:"iban" validate:"max=40"`
	BIC       string `json:"bic" validate:"max=15"`
}

type LoginRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Password string `json:"password" validate:"required,max=128"`
}

type UpdateCompanyRequest struct {
	LegalForm *string `json:"legalForm,omitempty" validate:"omitempty,max=100"`
	SIRET     *string `json:"siret,omitempty" validate:"omitempty,max=20"`
	VATNumber *string `json:"vatNumber,omitempty" validate:"omitempty,max=30"`
	Address   *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	IBAN      *string `json:"iban,omitempty" validate:"omitempty,max=40"`
	BIC       *string `json:"bic,omitempty" validate:"omitempty,max=15"`
}

type CompanyResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	LegalForm string    `json:"legalForm"`
	SIRET     string    `json:"siret"`
	VATNumber string    `json:"vatNumber"`
	Address   string    `json:"address"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	LogoKey   string    `json:"logoKey,omitempty"`
	LogoURL   string    `json:"logoUrl,omitempty"`
	IBAN      string    `json:"iban"`
	BIC       string    `json:"bic"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type AuthResponse struct {
	Company     CompanyResponse `json:"company"`
	AccessToken string          `json:"accessToken"`
	TokenType   string          `json:"tokenType"`
	ExpiresAt   time.Time       `json:"expiresAt"`
}
