// Package llm asks a language model for a structured read of momentum clusters.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"PumpScan/internal/domain/models"
	"PumpScan/internal/service/metrics"
	applogger "PumpScan/pkg/logger"
)

const (
	clusterMaxTokens  = 500
	platformMaxTokens = 300
	temperature       = 0.3

	callCluster  = "cluster"
	callPlatform = "platform"
)

// Completer sends one user prompt and returns the text answer.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int64) (string, error)
}

type Config struct {
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// Claude is a Completer backed by the Anthropic messages API.
type Claude struct {
	client anthropic.Client
	model  string
}

func NewClaude(cfg Config) (*Claude, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-5"
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.MaxRetries >= 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	return &Claude{client: anthropic.NewClient(opts...), model: cfg.Model}, nil
}

func (c *Claude) Complete(ctx context.Context, prompt string, maxTokens int64) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(temperature),
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
	})
	if err != nil {
		return "", fmt.Errorf("messages api: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("empty model response")
	}
	return sb.String(), nil
}

// Analyst turns clusters and platform totals into prompts and decodes the JSON answers.
type Analyst struct {
	completer Completer
	timeout   time.Duration
	log       *applogger.Logger
}

func NewAnalyst(completer Completer, timeout time.Duration, log *applogger.Logger) *Analyst {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if log == nil {
		log = applogger.Nop()
	}
	metrics.Register()
	return &Analyst{completer: completer, timeout: timeout, log: log.With(applogger.Component("analyst"))}
}

func (a *Analyst) AnalyzeCluster(ctx context.Context, c models.MomentumCluster) (*models.ClusterAnalysis, error) {
	var out clusterAnswer
	if err := a.ask(ctx, callCluster, ClusterPrompt(c), clusterMaxTokens, &out); err != nil {
		return nil, fmt.Errorf("analyze %s: %w", c.Theme, err)
	}
	return out.model(), nil
}

func (a *Analyst) AnalyzePlatforms(ctx context.Context, momentum map[string]float64) (*models.PlatformAnalysis, error) {
	var out platformAnswer
	if err := a.ask(ctx, callPlatform, PlatformPrompt(momentum), platformMaxTokens, &out); err != nil {
		return nil, fmt.Errorf("analyze platforms: %w", err)
	}
	return out.model(), nil
}

func (a *Analyst) ask(ctx context.Context, call, prompt string, maxTokens int64, dest interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	text, err := a.completer.Complete(ctx, prompt, maxTokens)
	metrics.AnalystLatency.WithLabelValues(call).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AnalystErrors.WithLabelValues(call, "request").Inc()
		a.log.Warn("model call failed", applogger.String("call", call), applogger.Error(err))
		return err
	}

	if err := json.Unmarshal([]byte(StripFences(text)), dest); err != nil {
		metrics.AnalystErrors.WithLabelValues(call, "decode").Inc()
		a.log.Warn("model answer is not valid json", applogger.String("call", call), applogger.Error(err))
		return fmt.Errorf("decode answer: %w", err)
	}
	return nil
}

// StripFences returns the body of a ```json (or bare ```) fenced block, or s trimmed when there is none.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	start := strings.Index(s, "```")
	if start < 0 {
		return s
	}
	body := s[start+3:]
	body = strings.TrimPrefix(body, "json")
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}
