package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateClientRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Type        string `json:"type" validate:"omitempty,oneof=particulier pro"`
	Address     string `json:"address" validate:"max=500"`
	Email       string `json:"email" validate:"omitempty,email,max=254"`
	Phone       string `json:"phone" validate:"max=30"`
	SiteAddress string `json:"siteAddress" validate:"max=500"`
}

type UpdateClientRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Type        *string `json:"type,omitempty" validate:"omitempty,oneof=particulier pro"`
	Address     *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	SiteAddress *string `json:"siteAddress,omitempty" validate:"omitempty,max=500"`
}

type SearchClientsRequest struct {
	Query string `form:"q" validate:"max=100"`
	Limit int    `form:"limit" validate:"omitempty,min=1"`
}

type ClientResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Address     string    `json:"address"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	SiteAddress string    `json:"siteAddress"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
