package scheduler

import (
	"context"
	"fmt"

	"devis_backend/internal/adapters/storage"
	"devis_backend/internal/email"
	"devis_backend/platform/config"
	"devis_backend/platform/logger"

	"github.com/hibiken/asynq"
)

const maxAttachmentBytes = 20 << 20

// EmailHandlers executes the email tasks. It holds no Redis state so the
// handlers can run in tests without a server.
type EmailHandlers struct {
	sender      email.Sender
	storage     storage.StorageService
	notifyEmail string
	log         *logger.Logger
}

func NewEmailHandlers(sender email.Sender, store storage.StorageService, notifyEmail string, log *logger.Logger) *EmailHandlers {
	return &EmailHandlers{sender: sender, storage: store, notifyEmail: notifyEmail, log: log}
}

func (h *EmailHandlers) HandleQuoteEmail(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseQuoteEmailPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	pdf := payload.PDF
	if len(pdf) == 0 && payload.PDFKey != "" {
		if h.storage == nil {
			return fmt.Errorf("%w: storage not configured for %s", asynq.SkipRetry, payload.PDFKey)
		}
		if pdf, err = storage.ReadObject(ctx, h.storage, payload.PDFBucket, payload.PDFKey, maxAttachmentBytes); err != nil {
			return err
		}
	}

	var attachments []email.Attachment
	if len(pdf) > 0 {
		attachments = append(attachments, email.Attachment{Content: pdf, FileName: payload.FileName, MIMEType: "application/pdf"})
	}

	if err := h.sender.SendQuoteEmail(ctx, payload.ToEmail, payload.Subject, payload.Message, payload.CompanyName, payload.QuoteNumber, attachments...); err != nil {
		return err
	}
	h.log.Info("quote email delivered", "quoteId", payload.QuoteID, "number", payload.QuoteNumber)
	return nil
}

func (h *EmailHandlers) HandleFeedbackEmail(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseFeedbackEmailPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if h.notifyEmail == "" {
		h.log.Warn("feedback notification skipped, no recipient configured", "feedbackId", payload.FeedbackID)
		return nil
	}
	return h.sender.SendFeedbackNotification(ctx, h.notifyEmail, payload.Message, payload.FromEmail, payload.SubmittedAt)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, handlers *EmailHandlers, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			log.Error("scheduler task failed", "type", task.Type(), "retry", retried, "maxRetry", maxRetry, "error", err)
		}),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskQuoteEmail, handlers.HandleQuoteEmail)
	mux.HandleFunc(TaskFeedbackEmail, handlers.HandleFeedbackEmail)

	return &Worker{server: server, mux: mux, log: log}, nil
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
