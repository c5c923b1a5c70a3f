package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TaskQuoteEmail    = "email.quote"
	TaskFeedbackEmail = "email.feedback"
)

// QuoteEmailPayload describes one quote delivery. The PDF is read from
// PDFBucket/PDFKey when set, otherwise PDF carries the bytes.
type QuoteEmailPayload struct {
	CompanyID   string `json:"companyId"`
	QuoteID     string `json:"quoteId"`
	QuoteNumber string `json:"quoteNumber"`
	CompanyName string `json:"companyName"`
	ToEmail     string `json:"toEmail"`
	Subject     string `json:"subject,omitempty"`
	Message     string `json:"message,omitempty"`
	FileName    string `json:"fileName"`
	PDFBucket   string `json:"pdfBucket,omitempty"`
	PDFKey      string `json:"pdfKey,omitempty"`
	PDF         []byte `json:"pdf,omitempty"`
}

type FeedbackEmailPayload struct {
	FeedbackID  string    `json:"feedbackId"`
	Message     string    `json:"message"`
	FromEmail   string    `json:"fromEmail,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
}

func NewQuoteEmailTask(payload QuoteEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskQuoteEmail, data), nil
}

func ParseQuoteEmailPayload(task *asynq.Task) (QuoteEmailPayload, error) {
	var payload QuoteEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return QuoteEmailPayload{}, err
	}
	return payload, nil
}

func NewFeedbackEmailTask(payload FeedbackEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFeedbackEmail, data), nil
}

func ParseFeedbackEmailPayload(task *asynq.Task) (FeedbackEmailPayload, error) {
	var payload FeedbackEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return FeedbackEmailPayload{}, err
	}
	return payload, nil
}
