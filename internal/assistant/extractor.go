package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
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
	extractorAgentName   = "PriceListExtractor"
	extractorAppName     = "price-list-extractor"
	submitPriceItemsTool = "SubmitPriceItems"
	extractorRetryPrompt = "Appelle maintenant l'outil SubmitPriceItems avec tous les articles trouvés."
)

type SubmitPriceItemsInput struct {
	Items []ExtractedItem `json:"items"`
}

type extractorDeps struct {
	mu    sync.Mutex
	items []ExtractedItem
	done  bool
}

func (d *extractorDeps) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.items, d.done = nil, false
}

func (d *extractorDeps) submitted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done
}

func (d *extractorDeps) handleSubmitPriceItems(_ tool.Context, input SubmitPriceItemsInput) (SubmitOutput, error) {
	items := normalizeExtracted(input.Items)
	d.mu.Lock()
	d.items = append(d.items, items...)
	d.done = true
	d.mu.Unlock()
	return SubmitOutput{Status: "ok", Message: fmt.Sprintf("%d articles enregistrés", len(items))}, nil
}

// Extractor reads imported price lists.
type Extractor struct {
	run  *toolRun
	deps *extractorDeps
	log  *logger.Logger
}

func NewExtractor(llm model.LLM, log *logger.Logger) (*Extractor, error) {
	deps := &extractorDeps{}

	submitTool, err := functiontool.New(functiontool.Config{
		Name:        submitPriceItemsTool,
		Description: "Enregistre les articles extraits du catalogue (label, price_ht, unit, category).",
	}, deps.handleSubmitPriceItems)
	if err != nil {
		return nil, fmt.Errorf("create %s tool: %w", submitPriceItemsTool, err)
	}

	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        extractorAgentName,
		Model:       llm,
		Description: "Extrait les articles d'un catalogue de prix.",
		Instruction: priceListSystemPrompt,
		Tools:       []tool.Tool{submitTool},
	})
	if err != nil {
		return nil, fmt.Errorf("create extractor agent: %w", err)
	}

	run, err := newToolRun(extractorAppName, adkAgent, extractorRetryPrompt)
	if err != nil {
		return nil, err
	}
	return &Extractor{run: run, deps: deps, log: log}, nil
}

func NewExtractorFromConfig(cfg openaicompat.Config, log *logger.Logger) (*Extractor, error) {
	temperature := 0.1
	if cfg.Temperature == nil {
		cfg.Temperature = &temperature
	}
	return NewExtractor(openaicompat.NewModel(cfg), log)
}

// ExtractPriceItems returns an error when the model never submits; an empty
// catalogue is a valid answer.
func (e *Extractor) ExtractPriceItems(ctx context.Context, text string) ([]ExtractedItem, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []ExtractedItem{}, nil
	}

	e.run.runMu.Lock()
	defer e.run.runMu.Unlock()
	e.deps.reset()

	content := &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{genai.NewPartFromText("Texte à analyser :\n" + text)},
	}
	if _, err := e.run.run(ctx, content, e.deps.submitted); err != nil {
		e.log.LLMFallback(extractorAgentName, err)
		return nil, err
	}
	if !e.deps.submitted() {
		err := errors.New("agent did not submit price items")
		e.log.LLMFallback(extractorAgentName, err)
		return nil, err
	}

	e.deps.mu.Lock()
	defer e.deps.mu.Unlock()
	return append([]ExtractedItem{}, e.deps.items...), nil
}
