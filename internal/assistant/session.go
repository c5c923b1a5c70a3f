package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

// toolRun drives one ADK runner whose agent must answer through a single
// submit tool. Runs are serialized because the captured result lives on
// the shared deps.
type toolRun struct {
	runner         *runner.Runner
	sessionService session.Service
	appName        string
	retryPrompt    string
	runMu          sync.Mutex
}

func newToolRun(appName string, a agent.Agent, retryPrompt string) (*toolRun, error) {
	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        appName,
		Agent:          a,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s runner: %w", appName, err)
	}
	return &toolRun{runner: r, sessionService: sessionService, appName: appName, retryPrompt: retryPrompt}, nil
}

// run sends content, then the retry prompt once if submitted still reports
// false. It returns the concatenated model text for logging.
func (t *toolRun) run(ctx context.Context, content *genai.Content, submitted func() bool) (string, error) {
	userID := t.appName + "-user"
	sessionID := uuid.New().String()

	if _, err := t.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   t.appName,
		UserID:    userID,
		SessionID: sessionID,
	}); err != nil {
		return "", fmt.Errorf("%s: create session: %w", t.appName, err)
	}
	defer func() {
		_ = t.sessionService.Delete(context.WithoutCancel(ctx), &session.DeleteRequest{
			AppName:   t.appName,
			UserID:    userID,
			SessionID: sessionID,
		})
	}()

	output, err := t.send(ctx, userID, sessionID, content)
	if err != nil || submitted() {
		return output, err
	}

	retry := &genai.Content{Role: "user", Parts: []*genai.Part{genai.NewPartFromText(t.retryPrompt)}}
	more, err := t.send(ctx, userID, sessionID, retry)
	return output + more, err
}

func (t *toolRun) send(ctx context.Context, userID, sessionID string, content *genai.Content) (string, error) {
	var out strings.Builder
	runConfig := agent.RunConfig{StreamingMode: agent.StreamingModeNone}
	for event, err := range t.runner.Run(ctx, userID, sessionID, content, runConfig) {
		if err != nil {
			return out.String(), fmt.Errorf("%s: run failed: %w", t.appName, err)
		}
		if event == nil || event.Content == nil {
			continue
		}
		for _, part := range event.Content.Parts {
			if part != nil {
				out.WriteString(part.Text)
			}
		}
	}
	return out.String(), nil
}
