package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"docvault/internal/config"
)

const (
	summaryPrompt = `Write a concise summary of the document below. Cover its purpose, main points and key facts in clear prose.

Document content:
`
	markdownPrompt = `Rewrite the document below as clean, well-structured markdown. Use headings, lists and emphasis where they help readability, and keep all of the original information.

Document content:
`
)

// Claude implements Enricher on the Anthropic Messages API.
type Claude struct {
	client      anthropic.Client
	model       anthropic.Model
	summaryMax  int64
	markdownMax int64
}

var _ Enricher = (*Claude)(nil)

// NewClaude builds a Messages API client from cfg.
// Outbound requests are traced through an otelhttp transport.
func NewClaude(cfg config.AIConfig) (*Claude, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("ai model is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   5 * time.Minute,
		}),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Claude{
		client:      anthropic.NewClient(opts...),
		model:       anthropic.Model(cfg.Model),
		summaryMax:  int64(cfg.SummaryMaxTokens),
		markdownMax: int64(cfg.MarkdownMaxTokens),
	}, nil
}

// Summarize asks the model for a short prose summary.
func (c *Claude) Summarize(ctx context.Context, text string) (string, error) {
	out, err := c.complete(ctx, summaryPrompt+text, c.summaryMax)
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}
	return out, nil
}

// Markdown asks the model for a markdown rendition of the document.
func (c *Claude) Markdown(ctx context.Context, text string) (string, error) {
	out, err := c.complete(ctx, markdownPrompt+text, c.markdownMax)
	if err != nil {
		return "", fmt.Errorf("generate markdown: %w", err)
	}
	return out, nil
}

func (c *Claude) complete(ctx context.Context, prompt string, maxTokens int64) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}
