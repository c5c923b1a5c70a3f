package service

import (
	"context"
	"strings"

	"devis_backend/internal/events"
	"devis_backend/internal/feedback/repository"
	"devis_backend/internal/feedback/transport"
	"devis_backend/platform/apperr"
	"devis_backend/platform/logger"
	"devis_backend/platform/sanitize"

	"github.com/google/uuid"
)

type Service struct {
	repo     repository.Repository
	eventBus events.Bus
	log      *logger.Logger
}

func New(repo repository.Repository, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, eventBus: eventBus, log: log}
}

// Submit stores the message and publishes FeedbackSubmitted. companyID is
// set when the sender was signed in.
func (s *Service) Submit(ctx context.Context, companyID *uuid.UUID, req transport.SubmitFeedbackRequest) (transport.FeedbackResponse, error) {
	message := sanitize.Multiline(req.Message)
	if len([]rune(message)) < 3 {
		return transport.FeedbackResponse{}, apperr.Validation("message trop court")
	}

	saved, err := s.repo.Create(ctx, repository.Feedback{
		ID:        uuid.New(),
		CompanyID: companyID,
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Message:   message,
	})
	if err != nil {
		return transport.FeedbackResponse{}, err
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.FeedbackSubmitted{
			BaseEvent:  events.NewBaseEvent(),
			FeedbackID: saved.ID,
			Message:    saved.Message,
			Email:      saved.Email,
		})
	}
	s.log.WithContext(ctx).Info("feedback received", "feedbackId", saved.ID)
	return transport.FeedbackResponse{ID: saved.ID, CreatedAt: saved.CreatedAt}, nil
}
