package transport

import (
	"time"

	"github.com/google/uuid"
)

type SubmitFeedbackRequest struct {
	Message string `json:"message" validate:"required,min=3,max=5000"`
	Email   string `json:"email" validate:"omitempty,email,max=254"`
}

type FeedbackResponse struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}
