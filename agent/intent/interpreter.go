// Package intent classifies user queries into typed intents with extracted
// entities, resolving pronouns against conversation context.
package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/sirawit-b/stocktalk/agent/contract"
)

// Config tunes interpreter behavior, not transport.
type Config struct {
	ConfidenceThreshold float64 `envconfig:"CONFIDENCE_THRESHOLD" split_words:"true" default:"0.8"`
	CatalogHints        int     `envconfig:"CATALOG_HINTS" split_words:"true" default:"5"`
}

// interpreterLLMOutput mirrors the JSON contract in the interpreter prompt.
// Entities stay loosely typed here; models emit numbers as strings often
// enough that coercion happens in code, not in the parser.
type interpreterLLMOutput struct {
	Intent                string         `json:"intent"`
	Confidence            float64        `json:"confidence"`
	Entities              map[string]any `json:"entities,omitempty"`
	NeedsClarification    bool           `json:"needs_clarification"`
	ClarificationQuestion string         `json:"clarification_question,omitempty"`
}

type analysisPayload struct {
	Query        string          `json:"query"`
	Context      *contextPayload `json:"context,omitempty"`
	CatalogHints []string        `json:"catalog_hints,omitempty"`
}

type contextPayload struct {
	RecentTurns    []turnPayload `json:"recent_turns,omitempty"`
	RecentProducts []string      `json:"recent_products,omitempty"`
	HasReference   bool          `json:"has_reference"`
	Candidate      string        `json:"candidate,omitempty"`
}

type turnPayload struct {
	Query    string `json:"query"`
	Intent   string `json:"intent,omitempty"`
	Response string `json:"response,omitempty"`
}

const (
	failClosedQuestion = "I'm having trouble understanding your request. Could you please rephrase or provide more details about what you're looking for?"
	emptyQueryQuestion = "What would you like to know about your inventory?"
	defaultQuestion    = "Could you give me a bit more detail about what you need?"
)

// Interpreter classifies queries through a structured LLM graph. It never
// returns an error: anything that goes wrong collapses into a general intent
// asking for clarification.
type Interpreter struct {
	runner    compose.Runnable[map[string]any, interpreterLLMOutput]
	catalog   contractx.EntitySource
	threshold float64
	hintLimit int
}

var _ contractx.Interpreter = (*Interpreter)(nil)

// Option customizes the Interpreter.
type Option func(*Interpreter)

// WithEntitySource wires a catalog hint provider into analysis payloads.
func WithEntitySource(src contractx.EntitySource) Option {
	return func(a *Interpreter) {
		a.catalog = src
	}
}

func New(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	cfg Config,
	opts ...Option,
) (*Interpreter, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: interpreter prompt is empty", contractx.ErrPromptMissing)
	}

	runner, err := compileInterpreterGraph(ctx, chatModel, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}

	threshold := cfg.ConfidenceThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = 0.8
	}
	hintLimit := cfg.CatalogHints
	if hintLimit <= 0 {
		hintLimit = 5
	}

	a := &Interpreter{
		runner:    runner,
		threshold: threshold,
		hintLimit: hintLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

func (a *Interpreter) Analyze(ctx context.Context, query string, snap contractx.Snapshot) contractx.IntentResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return contractx.IntentResult{
			Intent:                contractx.IntentGeneral,
			NeedsClarification:    true,
			ClarificationQuestion: emptyQueryQuestion,
		}
	}

	input, err := json.Marshal(a.buildPayload(ctx, query, snap))
	if err != nil {
		log.Error().Err(err).Msg("marshal analysis payload")
		return failClosedResult()
	}

	out, err := a.runner.Invoke(ctx, map[string]any{"input": string(input)})
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("intent analysis failed, asking for clarification")
		return failClosedResult()
	}

	res := validateIntentOutput(out)
	res = backfillFromContext(res, snap, a.threshold)

	log.Debug().
		Str("intent", string(res.Intent)).
		Float64("confidence", res.Confidence).
		Bool("needs_clarification", res.NeedsClarification).
		Bool("context_applied", res.ContextApplied).
		Msg("intent analyzed")
	return res
}

func (a *Interpreter) buildPayload(ctx context.Context, query string, snap contractx.Snapshot) analysisPayload {
	payload := analysisPayload{Query: query}

	if snap.HasHistory || snap.HasReference {
		cp := &contextPayload{
			RecentProducts: snap.RecentEntities,
			HasReference:   snap.HasReference,
			Candidate:      snap.Candidate,
		}
		for _, t := range snap.RecentTurns {
			cp.RecentTurns = append(cp.RecentTurns, turnPayload{
				Query:    t.Query,
				Intent:   string(t.Intent),
				Response: t.Response,
			})
		}
		payload.Context = cp
	}

	payload.CatalogHints = snap.CatalogHints
	if len(payload.CatalogHints) == 0 && a.catalog != nil && a.hintLimit > 0 {
		hints, err := a.catalog.Candidates(ctx, query, a.hintLimit)
		if err != nil {
			log.Debug().Err(err).Msg("catalog hints unavailable")
		} else {
			payload.CatalogHints = hints
		}
	}
	return payload
}

func failClosedResult() contractx.IntentResult {
	return contractx.IntentResult{
		Intent:                contractx.IntentGeneral,
		NeedsClarification:    true,
		ClarificationQuestion: failClosedQuestion,
	}
}

// validateIntentOutput turns raw model output into a trusted IntentResult:
// unknown intents fail closed, confidence is clamped, general always asks,
// and a clarification request always carries a question.
func validateIntentOutput(out interpreterLLMOutput) contractx.IntentResult {
	intent := contractx.IntentType(strings.ToLower(strings.TrimSpace(out.Intent)))
	if !contractx.ValidIntents[intent] {
		return failClosedResult()
	}

	confidence := out.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	res := contractx.IntentResult{
		Intent:                intent,
		Confidence:            confidence,
		Entities:              coerceEntities(out.Entities),
		NeedsClarification:    out.NeedsClarification,
		ClarificationQuestion: strings.TrimSpace(out.ClarificationQuestion),
	}

	if intent == contractx.IntentGeneral {
		res.NeedsClarification = true
	}
	if res.NeedsClarification && res.ClarificationQuestion == "" {
		res.ClarificationQuestion = defaultQuestion
	}
	if !res.NeedsClarification {
		res.ClarificationQuestion = ""
	}
	return res
}

// backfillFromContext substitutes the remembered candidate product when the
// query leaned on a pronoun and the model did not name a product itself. Low
// confidence downgrades the substitution to a confirmation question.
func backfillFromContext(res contractx.IntentResult, snap contractx.Snapshot, threshold float64) contractx.IntentResult {
	if !snap.HasReference || snap.Candidate == "" || !intentWantsProduct(res.Intent) {
		return res
	}

	switch {
	case res.Entities.ProductRef == "":
		res.Entities.ProductRef = snap.Candidate
		res.ContextApplied = true
	case strings.EqualFold(res.Entities.ProductRef, snap.Candidate):
		res.ContextApplied = true
	default:
		return res
	}

	if res.Confidence < threshold && !res.NeedsClarification {
		res.NeedsClarification = true
		res.ClarificationQuestion = fmt.Sprintf("Did you mean %q?", snap.Candidate)
	}
	return res
}

func intentWantsProduct(intent contractx.IntentType) bool {
	switch intent {
	case contractx.IntentInventoryQuery,
		contractx.IntentProductSearch,
		contractx.IntentInventoryManagement,
		contractx.IntentInventoryHistory,
		contractx.IntentSupplierQuery,
		contractx.IntentPriceQuery:
		return true
	default:
		return false
	}
}

func coerceEntities(raw map[string]any) contractx.Entities {
	if len(raw) == 0 {
		return contractx.Entities{}
	}

	e := contractx.Entities{
		ProductRef: entityString(raw, "product_name", "product"),
		SKU:        strings.ToUpper(entityString(raw, "sku")),
		Action:     strings.ToLower(entityString(raw, "action")),
		Category:   entityString(raw, "category"),
		Supplier:   entityString(raw, "supplier"),
	}

	if qty, ok := entityInt(raw, "quantity", "units"); ok {
		e.Quantity = qty
		e.HasQuantity = true
	}
	if days, ok := entityInt(raw, "days", "period_days"); ok && days > 0 {
		e.Days = int(days)
	}
	if mt := strings.ToUpper(entityString(raw, "movement_type")); mt != "" {
		e.MovementType = mt
	}
	return e
}

func entityString(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		if s, ok := v.(string); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

func entityInt(raw map[string]any, keys ...string) (int64, bool) {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int64(n), true
		case int64:
			return n, true
		case json.Number:
			if parsed, err := n.Int64(); err == nil {
				return parsed, true
			}
		case string:
			if parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
				return parsed, true
			}
		}
	}
	return 0, false
}
