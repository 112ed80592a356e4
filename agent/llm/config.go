package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/sirawit-b/stocktalk/agent/contract"
	openrouterx "github.com/sirawit-b/stocktalk/pkg/openrouter"
)

// Config is the shared LLM configuration. Per-role model and temperature
// overrides fall back to the base values; -1 means inherit.
type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"1000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.7"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	InterpreterModel       string  `envconfig:"INTERPRETER_MODEL" split_words:"true"`
	RendererModel          string  `envconfig:"RENDERER_MODEL" split_words:"true"`
	InterpreterTemperature float32 `envconfig:"INTERPRETER_TEMPERATURE" split_words:"true" default:"0.1"`
	RendererTemperature    float32 `envconfig:"RENDERER_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

func (c Config) OpenRouterFor(role contractx.AgentRole) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch role {
	case contractx.AgentRoleInterpreter:
		if v := strings.TrimSpace(c.InterpreterModel); v != "" {
			modelName = v
		}
		if c.InterpreterTemperature >= 0 {
			temp = c.InterpreterTemperature
		}
	case contractx.AgentRoleRenderer:
		if v := strings.TrimSpace(c.RendererModel); v != "" {
			modelName = v
		}
		if c.RendererTemperature >= 0 {
			temp = c.RendererTemperature
		}
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),

		// Interpreter output is parsed as JSON; hidden reasoning tokens
		// would eat its completion budget.
		DisableReasoning: role == contractx.AgentRoleInterpreter,
	}
}
