// Package render turns structured action results into user-facing text. The
// primary path asks an LLM to phrase the result; a deterministic template
// path covers every action type, so a reply always comes back even with no
// model configured or reachable.
package render

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/rs/zerolog/log"

	contractx "github.com/sirawit-b/stocktalk/agent/contract"
	openrouterx "github.com/sirawit-b/stocktalk/pkg/openrouter"
)

const apologyText = "I apologize, but I encountered an error processing your request. Please try again."

// Renderer phrases results for the user. A nil client means fallback-only.
type Renderer struct {
	client       *openaisdk.Client
	model        string
	temperature  float64
	maxTokens    int64
	systemPrompt string
}

var _ contractx.Renderer = (*Renderer)(nil)

func New(client *openaisdk.Client, cfg openrouterx.Config, systemPrompt string) (*Renderer, error) {
	systemPrompt = strings.TrimSpace(systemPrompt)
	if systemPrompt == "" {
		return nil, fmt.Errorf("%w: renderer prompt is empty", contractx.ErrPromptMissing)
	}

	maxTokens := int64(1000)
	if cfg.MaxCompletionToken != nil && *cfg.MaxCompletionToken > 0 {
		maxTokens = int64(*cfg.MaxCompletionToken)
	}

	return &Renderer{
		client:       client,
		model:        strings.TrimSpace(cfg.Model),
		temperature:  float64(cfg.Temperature),
		maxTokens:    maxTokens,
		systemPrompt: systemPrompt,
	}, nil
}

type renderPayload struct {
	Query  string `json:"query"`
	Result struct {
		Success bool   `json:"success"`
		Action  string `json:"action"`
		Message string `json:"message,omitempty"`
		Data    any    `json:"data,omitempty"`
	} `json:"result"`
	Context struct {
		FollowUp       bool     `json:"follow_up"`
		RecentProducts []string `json:"recent_products,omitempty"`
	} `json:"context"`
}

func (r *Renderer) Render(ctx context.Context, query string, res contractx.ActionResult, snap contractx.Snapshot) string {
	fallback := FallbackText(res)
	if r.client == nil || r.model == "" {
		return fallback
	}

	payload := renderPayload{Query: query}
	payload.Result.Success = res.Success
	payload.Result.Action = string(res.Action)
	payload.Result.Message = res.Message
	payload.Result.Data = res.Payload
	payload.Context.FollowUp = snap.HasReference
	payload.Context.RecentProducts = snap.RecentEntities

	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("marshal render payload")
		return fallback
	}

	completion, err := r.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(r.systemPrompt),
			openaisdk.UserMessage(string(body)),
		},
		Model:               openaisdk.ChatModel(r.model),
		Temperature:         openaisdk.Float(r.temperature),
		MaxCompletionTokens: openaisdk.Int(r.maxTokens),
	})
	if err != nil {
		log.Warn().Err(err).Msg("render completion failed, using template")
		return fallback
	}
	if len(completion.Choices) == 0 {
		return fallback
	}
	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return fallback
	}
	return text
}

// Clarification phrases a question back to the user without an LLM round
// trip; the interpreter already wrote the question.
func (r *Renderer) Clarification(question string) string {
	question = strings.TrimSpace(question)
	if question == "" {
		return "Could you give me a bit more detail about what you need?"
	}
	return question
}

func (r *Renderer) Apology() string {
	return apologyText
}
