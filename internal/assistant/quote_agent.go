package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"devis_backend/platform/ai/openaicompat"
	"devis_backend/platform/logger"

	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
	"google.golang.org/genai"
)

const (
	quoteAgentName      = "QuoteAssistant"
	quoteAppName        = "quote-assistant"
	submitProposalTool  = "SubmitQuoteProposal"
	quoteRetryPrompt    = "Tu DOIS maintenant appeler l'outil SubmitQuoteProposal avec ta proposition complète."
	errNoProposalSubmit = "agent did not submit a proposal"
)

type SubmitOutput struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type proposalDeps struct {
	mu     sync.Mutex
	result *Proposal
}

func (d *proposalDeps) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.result = nil
}

func (d *proposalDeps) get() *Proposal {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.result
}

func (d *proposalDeps) submitted() bool { return d.get() != nil }

func (d *proposalDeps) handleSubmitQuoteProposal(_ tool.Context, input Proposal) (SubmitOutput, error) {
	p := normalizeProposal(input)
	d.mu.Lock()
	d.result = &p
	d.mu.Unlock()
	return SubmitOutput{Status: "ok", Message: "proposition enregistrée"}, nil
}

// QuoteAgent is the chat assistant behind /chat/turn.
type QuoteAgent struct {
	run  *toolRun
	deps *proposalDeps
	log  *logger.Logger
}

// NewQuoteAgent builds the agent on any model.LLM. Production passes an
// openaicompat model, tests a fake endpoint.
func NewQuoteAgent(llm model.LLM, log *logger.Logger) (*QuoteAgent, error) {
	deps := &proposalDeps{}

	submitTool, err := functiontool.New(functiontool.Config{
		Name:        submitProposalTool,
		Description: "Enregistre la proposition de devis : action, lignes complètes, message pour l'artisan, questions éventuelles.",
	}, deps.handleSubmitQuoteProposal)
	if err != nil {
		return nil, fmt.Errorf("create %s tool: %w", submitProposalTool, err)
	}

	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        quoteAgentName,
		Model:       llm,
		Description: "Transforme les demandes des artisans en lignes de devis.",
		Instruction: quoteSystemPrompt,
		Tools:       []tool.Tool{submitTool},
	})
	if err != nil {
		return nil, fmt.Errorf("create quote agent: %w", err)
	}

	run, err := newToolRun(quoteAppName, adkAgent, quoteRetryPrompt)
	if err != nil {
		return nil, err
	}
	return &QuoteAgent{run: run, deps: deps, log: log}, nil
}

// NewQuoteAgentFromConfig wires the OpenAI-compatible endpoint.
func NewQuoteAgentFromConfig(cfg openaicompat.Config, log *logger.Logger) (*QuoteAgent, error) {
	temperature := 0.2
	if cfg.Temperature == nil {
		cfg.Temperature = &temperature
	}
	return NewQuoteAgent(openaicompat.NewModel(cfg), log)
}

func (a *QuoteAgent) Propose(ctx context.Context, req Request) Proposal {
	a.run.runMu.Lock()
	defer a.run.runMu.Unlock()

	a.deps.reset()
	content, err := buildQuoteContent(req)
	if err != nil {
		a.log.LLMFallback(quoteAgentName, err)
		return Fallback()
	}

	output, err := a.run.run(ctx, content, a.deps.submitted)
	if err != nil {
		a.log.LLMFallback(quoteAgentName, err)
		return Fallback()
	}

	result := a.deps.get()
	if result == nil {
		a.log.LLMFallback(quoteAgentName, errors.New(errNoProposalSubmit))
		a.log.Debug("quote assistant raw output", "output", output)
		return Fallback()
	}
	a.log.Debug("quote assistant reasoning", "action", result.Action, "reasoning", result.Reasoning)
	return *result
}

func buildQuoteContent(req Request) (*genai.Content, error) {
	prompt, err := buildQuotePrompt(req)
	if err != nil {
		return nil, err
	}

	parts := make([]*genai.Part, 0, 2)
	if req.Image != nil && len(req.Image.Data) > 0 {
		mimeType := req.Image.MIMEType
		if mimeType == "" {
			mimeType = defaultImageMIMEType
		}
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: req.Image.Data}})
		prompt += "\n\n" + imageInstruction
	}
	parts = append(parts, genai.NewPartFromText(prompt))
	return &genai.Content{Role: "user", Parts: parts}, nil
}
