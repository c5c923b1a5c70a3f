package scheduler

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"devis_backend/internal/adapters/storage"
	"devis_backend/internal/email"
	"devis_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type schedulerConfig struct {
	redisURL string
	queue    string
}

func (c schedulerConfig) GetRedisURL() string       { return c.redisURL }
func (c schedulerConfig) GetRedisTLSInsecure() bool { return false }
func (c schedulerConfig) GetAsynqQueueName() string { return c.queue }
func (c schedulerConfig) GetAsynqConcurrency() int  { return 1 }

type recordingSender struct {
	quoteTo     string
	subject     string
	number      string
	attachments []email.Attachment
	feedbackTo  string
	feedbackMsg string
	err         error
}

func (s *recordingSender) SendQuoteEmail(_ context.Context, toEmail, subject, _, _, quoteNumber string, attachments ...email.Attachment) error {
	s.quoteTo, s.subject, s.number, s.attachments = toEmail, subject, quoteNumber, attachments
	return s.err
}

func (s *recordingSender) SendWelcomeEmail(context.Context, string, string) error { return s.err }

func (s *recordingSender) SendFeedbackNotification(_ context.Context, toEmail, message, _ string, _ time.Time) error {
	s.feedbackTo, s.feedbackMsg = toEmail, message
	return s.err
}

func TestClientEnqueuesOnConfiguredQueue(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(schedulerConfig{redisURL: "redis://" + mr.Addr(), queue: "emails"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	err = client.EnqueueQuoteEmail(context.Background(), QuoteEmailPayload{QuoteID: "q1", ToEmail: "client@example.com", QuoteNumber: "DV-2026-001"})
	require.NoError(t, err)
	err = client.EnqueueFeedbackNotification(context.Background(), FeedbackEmailPayload{FeedbackID: "f1", Message: "super"})
	require.NoError(t, err)

	pending, err := mr.List("asynq:{emails}:pending")
	require.NoError(t, err)
	require.Len(t, pending, 2)
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	_, err := NewClient(schedulerConfig{})
	require.Error(t, err)
}

func TestHandleQuoteEmailLoadsStoredPDF(t *testing.T) {
	store := storage.NewMemoryService(1 << 20)
	require.NoError(t, store.PutObject(context.Background(), "quote-pdfs", "c1/DV-2026-001.pdf", "application/pdf", []byte("%PDF-1.3 test")))

	sender := &recordingSender{}
	h := NewEmailHandlers(sender, store, "", logger.Discard())
	task, err := NewQuoteEmailTask(QuoteEmailPayload{
		ToEmail:     "client@example.com",
		Subject:     "Devis DV-2026-001 - Martin BTP",
		QuoteNumber: "DV-2026-001",
		FileName:    "DV-2026-001.pdf",
		PDFBucket:   "quote-pdfs",
		PDFKey:      "c1/DV-2026-001.pdf",
	})
	require.NoError(t, err)

	require.NoError(t, h.HandleQuoteEmail(context.Background(), task))
	require.Equal(t, "client@example.com", sender.quoteTo)
	require.Len(t, sender.attachments, 1)
	require.True(t, bytes.HasPrefix(sender.attachments[0].Content, []byte("%PDF")))
	require.Equal(t, "DV-2026-001.pdf", sender.attachments[0].FileName)
}

func TestHandleQuoteEmailUsesInlinePDF(t *testing.T) {
	sender := &recordingSender{}
	h := NewEmailHandlers(sender, nil, "", logger.Discard())
	task, err := NewQuoteEmailTask(QuoteEmailPayload{ToEmail: "a@b.fr", FileName: "x.pdf", PDF: []byte("%PDF")})
	require.NoError(t, err)

	require.NoError(t, h.HandleQuoteEmail(context.Background(), task))
	require.Equal(t, []byte("%PDF"), sender.attachments[0].Content)
}

func TestHandleQuoteEmailSkipsRetryOnBadPayload(t *testing.T) {
	h := NewEmailHandlers(&recordingSender{}, nil, "", logger.Discard())
	err := h.HandleQuoteEmail(context.Background(), asynq.NewTask(TaskQuoteEmail, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleQuoteEmailReturnsSenderError(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	h := NewEmailHandlers(sender, nil, "", logger.Discard())
	task, err := NewQuoteEmailTask(QuoteEmailPayload{ToEmail: "a@b.fr"})
	require.NoError(t, err)
	require.EqualError(t, h.HandleQuoteEmail(context.Background(), task), "smtp down")
}

func TestHandleFeedbackEmail(t *testing.T) {
	sender := &recordingSender{}
	task, err := NewFeedbackEmailTask(FeedbackEmailPayload{FeedbackID: "f1", Message: "Bravo", SubmittedAt: time.Now()})
	require.NoError(t, err)

	require.NoError(t, NewEmailHandlers(sender, nil, "", logger.Discard()).HandleFeedbackEmail(context.Background(), task))
	require.Empty(t, sender.feedbackTo)

	require.NoError(t, NewEmailHandlers(sender, nil, "team@devis.ai", logger.Discard()).HandleFeedbackEmail(context.Background(), task))
	require.Equal(t, "team@devis.ai", sender.feedbackTo)
	require.Equal(t, "Bravo", sender.feedbackMsg)
}
