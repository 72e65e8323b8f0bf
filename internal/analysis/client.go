package analysis

import (
	"context"
	"strings"
	"time"

	"docanalyze/internal/config"
	"docanalyze/internal/logger"

	"github.com/sirupsen/logrus"
)

// Provider is one way of turning a prompt into model output. Providers are
// tried in order; the first success wins.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client drives the document analysis calls against an ordered provider
// chain: the Gemini SDK first, then a raw HTTP call to the same service.
type Client struct {
	providers []Provider
	timeout   time.Duration
}

// NewClient builds the default SDK-then-HTTP chain from config.
func NewClient(ctx context.Context, cfg config.GeminiConfig) (*Client, error) {
	sdk, err := newSDKProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Client{
		providers: []Provider{sdk, newHTTPProvider(cfg)},
		timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
	}, nil
}

// NewClientWithProviders wires an explicit chain. Used by tests and by any
// future deployment that wants to reorder or extend the fallbacks.
func NewClientWithProviders(timeout time.Duration, providers ...Provider) *Client {
	return &Client{providers: providers, timeout: timeout}
}

// Analyze builds the analysis prompt for the given document texts and runs
// it through the provider chain, returning the raw model reply.
func (c *Client) Analyze(ctx context.Context, texts []string, instruction string) (string, error) {
	if len(texts) == 0 {
		return "", ErrNoDocuments
	}
	return c.generate(ctx, BuildAnalysisPrompt(texts, instruction))
}

// ExtractMetadata runs the metadata prompt through the primary provider
// only; this path has no fallback requirement.
func (c *Client) ExtractMetadata(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyInput
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	out, err := c.providers[0].Generate(ctx, BuildMetadataPrompt(text))
	if err != nil {
		return "", &APIError{Message: err.Error()}
	}
	return out, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var lastErr error
	for _, p := range c.providers {
		out, err := p.Generate(ctx, prompt)
		if err == nil {
			return out, nil
		}
		logger.WithFields(logrus.Fields{
			"provider": p.Name(),
			"error":    err.Error(),
		}).Warn("analysis provider failed")
		lastErr = err
	}
	return "", &APIError{Message: lastErr.Error()}
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}
