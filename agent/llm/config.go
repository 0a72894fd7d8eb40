package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
	openrouterx "github.com/tanpawarit/talent-assistant/pkg/openrouter"
)

type Driver string

const (
	DriverOpenRouter Driver = "openrouter"
	DriverOpenAI     Driver = "openai"
	DriverAnthropic  Driver = "anthropic"
)

type Config struct {
	Driver             string        `envconfig:"DRIVER" split_words:"true" default:"openrouter"`
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.3"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	// ContextModels overrides Model per agent context, e.g. "jobs:openai/gpt-4o-mini,payments:anthropic/claude-3.5-haiku".
	ContextModels map[string]string `envconfig:"CONTEXT_MODELS" split_words:"true"`

	BreakerMaxFailures uint32        `envconfig:"BREAKER_MAX_FAILURES" split_words:"true" default:"5"`
	BreakerTimeout     time.Duration `envconfig:"BREAKER_TIMEOUT" split_words:"true" default:"30s"`
	BreakerInterval    time.Duration `envconfig:"BREAKER_INTERVAL" split_words:"true" default:"60s"`
}

func (c Config) Validate() error {
	switch c.driver() {
	case DriverOpenRouter, DriverOpenAI, DriverAnthropic:
	default:
		return fmt.Errorf("%w: unknown llm driver %q", contractx.ErrValidation, c.Driver)
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: llm api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	for key, name := range c.ContextModels {
		if _, err := contractx.ParseAgentContext(key); err != nil {
			return fmt.Errorf("%w: context model override: %v", contractx.ErrValidation, err)
		}
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: context model override for %s is empty", contractx.ErrValidation, key)
		}
	}
	return nil
}

func (c Config) driver() Driver {
	d := Driver(strings.ToLower(strings.TrimSpace(c.Driver)))
	if d == "" {
		return DriverOpenRouter
	}
	return d
}

// ModelFor returns the model name used by one agent context.
func (c Config) ModelFor(agentCtx contractx.AgentContext) string {
	if v := strings.TrimSpace(c.ContextModels[string(agentCtx)]); v != "" {
		return v
	}
	return strings.TrimSpace(c.Model)
}

func (c Config) OpenRouterFor(agentCtx contractx.AgentContext) openrouterx.Config {
	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              c.ModelFor(agentCtx),
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        c.Temperature,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
