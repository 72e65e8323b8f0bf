package analysis

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"docanalyze/internal/config"
)

type stubProvider struct {
	name    string
	reply   string
	err     error
	prompts []string
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Generate(_ context.Context, prompt string) (string, error) {
	p.prompts = append(p.prompts, prompt)
	if p.err != nil {
		return "", p.err
	}
	return p.reply, nil
}

func TestAnalyzeUsesPrimaryProvider(t *testing.T) {
	primary := &stubProvider{name: "primary", reply: "## Summary\nok"}
	fallback := &stubProvider{name: "fallback", reply: "unused"}
	client := NewClientWithProviders(time.Second, primary, fallback)

	out, err := client.Analyze(context.Background(), []string{"doc text"}, "")
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if out != "## Summary\nok" {
		t.Fatalf("unexpected output: %q", out)
	}
	if len(fallback.prompts) != 0 {
		t.Fatalf("fallback must not be called when primary succeeds")
	}
	if len(primary.prompts) != 1 || !strings.Contains(primary.prompts[0], "doc text") {
		t.Fatalf("prompt not forwarded to provider: %#v", primary.prompts)
	}
}

func TestAnalyzeFallsBackOnPrimaryFailure(t *testing.T) {
	primary := &stubProvider{name: "primary", err: errors.New("boom")}
	fallback := &stubProvider{name: "fallback", reply: "recovered"}
	client := NewClientWithProviders(time.Second, primary, fallback)

	out, err := client.Analyze(context.Background(), []string{"doc"}, "")
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if out != "recovered" {
		t.Fatalf("expected fallback output, got %q", out)
	}
	if primary.prompts[0] != fallback.prompts[0] {
		t.Fatalf("fallback must receive the identical prompt")
	}
}

func TestAnalyzeReturnsAPIErrorWhenAllProvidersFail(t *testing.T) {
	primary := &stubProvider{name: "primary", err: errors.New("first failure")}
	fallback := &stubProvider{name: "fallback", err: errors.New("Gemini API error: 503 overloaded")}
	client := NewClientWithProviders(time.Second, primary, fallback)

	_, err := client.Analyze(context.Background(), []string{"doc"}, "")
	if err == nil {
		t.Fatalf("expected error when every provider fails")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Message != "Gemini API error: 503 overloaded" {
		t.Fatalf("last provider's error must win: %q", apiErr.Message)
	}
}

func TestAnalyzeRejectsEmptyInput(t *testing.T) {
	client := NewClientWithProviders(time.Second, &stubProvider{name: "p", reply: "x"})
	if _, err := client.Analyze(context.Background(), nil, ""); !errors.Is(err, ErrNoDocuments) {
		t.Fatalf("expected ErrNoDocuments, got %v", err)
	}
}

func TestExtractMetadataEmptyText(t *testing.T) {
	client := NewClientWithProviders(time.Second, &stubProvider{name: "p", reply: "x"})
	if _, err := client.ExtractMetadata(context.Background(), "   "); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestExtractMetadataNoFallback(t *testing.T) {
	primary := &stubProvider{name: "primary", err: errors.New("down")}
	fallback := &stubProvider{name: "fallback", reply: "unused"}
	client := NewClientWithProviders(time.Second, primary, fallback)

	_, err := client.ExtractMetadata(context.Background(), "some text")
	if err == nil {
		t.Fatalf("expected error from primary provider")
	}
	if len(fallback.prompts) != 0 {
		t.Fatalf("metadata extraction must not fall back")
	}
}

func TestHTTPProviderGenerate(t *testing.T) {
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"model reply"}]}}]}`))
	}))
	defer srv.Close()

	p := newHTTPProvider(config.GeminiConfig{
		APIKey:  "test-key",
		Model:   "gemini-1.5-pro",
		BaseURL: srv.URL,
	})
	out, err := p.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if out != "model reply" {
		t.Fatalf("unexpected output: %q", out)
	}
	if gotPath != "/v1/models/gemini-1.5-pro:generateContent" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotKey != "test-key" {
		t.Fatalf("api key not forwarded: %q", gotKey)
	}
}

func TestHTTPProviderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := newHTTPProvider(config.GeminiConfig{APIKey: "k", Model: "m", BaseURL: srv.URL})
	_, err := p.Generate(context.Background(), "prompt")
	if err == nil {
		t.Fatalf("expected error on non-2xx status")
	}
	want := "Gemini API error: 429 quota exceeded"
	if err.Error() != want {
		t.Fatalf("error mismatch: %q want %q", err.Error(), want)
	}
}

func TestHTTPProviderMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	p := newHTTPProvider(config.GeminiConfig{APIKey: "k", Model: "m", BaseURL: srv.URL})
	_, err := p.Generate(context.Background(), "prompt")
	if err == nil || err.Error() != "unexpected API response structure" {
		t.Fatalf("expected structure error, got %v", err)
	}
}
