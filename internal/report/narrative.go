package report

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/dr-richard-barker/Anthocyanin-Image-analysis/internal/analysis"
)

// FallbackNarrative replaces the summary when the narrator fails.
const FallbackNarrative = "Narrative summary unavailable. See the group statistics table for results."

// GroupSummary is one group as presented to the narrator.
type GroupSummary struct {
	Name  string              `json:"name"`
	Stats analysis.GroupStats `json:"stats"`
}

// Request is the narrator input.
type Request struct {
	Groups     []GroupSummary      `json:"groups"`
	Regression analysis.Regression `json:"regression"`
}

// Narrator turns group statistics into prose.
type Narrator interface {
	Narrate(ctx context.Context, req Request) (string, error)
}

// Prompt renders req as the instruction sent to a language model.
func Prompt(req Request) string {
	var b strings.Builder
	b.WriteString("You are a plant physiologist. Write a short paragraph (at most 120 words) ")
	b.WriteString("comparing the plant groups below. Mention which group shows the highest ")
	b.WriteString("estimated anthocyanin content and how vegetation indices differ. ")
	b.WriteString("Do not invent measurements.\n\n")
	fmt.Fprintf(&b, "Regression on %s: anthocyanin = %.3f * %s + %.3f\n\n",
		req.Regression.Target, req.Regression.Slope, req.Regression.Target, req.Regression.Intercept)
	b.WriteString("Groups:\n")
	for _, g := range req.Groups {
		s := g.Stats
		fmt.Fprintf(&b, "- %s: pixels=%d, RGB=(%.1f, %.1f, %.1f), NGRDI=%.3f, mACI=%.3f, GI=%.3f, anthocyanin=%.2f",
			g.Name, s.Count, s.MeanR, s.MeanG, s.MeanB, s.MeanNGRDI, s.MeanMACI, s.MeanGI, s.Anthocyanin)
		if s.Area > 0 {
			fmt.Fprintf(&b, ", area=%.2f", s.Area)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// OllamaNarrator wraps the Ollama chat API.
type OllamaNarrator struct {
	client  *api.Client
	Model   string
	Timeout time.Duration
}

// NewOllamaNarrator creates a narrator for the server at ollamaURL. Any path
// on the URL (such as /api/chat) is ignored.
func NewOllamaNarrator(ollamaURL, model string, timeout time.Duration) (*OllamaNarrator, error) {
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("invalid URL scheme: %q", parsedURL.Scheme)
	}
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}
	return &OllamaNarrator{
		client:  api.NewClient(baseURL, http.DefaultClient),
		Model:   model,
		Timeout: timeout,
	}, nil
}

// Narrate implements Narrator.
func (n *OllamaNarrator) Narrate(ctx context.Context, req Request) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		timeout := n.Timeout
		if timeout <= 0 {
			timeout = 300 * time.Second
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	streamFalse := false
	chat := &api.ChatRequest{
		Model: n.Model,
		Messages: []api.Message{
			{Role: "user", Content: Prompt(req)},
		},
		Stream: &streamFalse,
	}

	var content strings.Builder
	err := n.client.Chat(ctx, chat, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat error: %w", err)
	}

	text := strings.TrimSpace(content.String())
	if text == "" {
		return "", fmt.Errorf("empty response from ollama")
	}
	return text, nil
}

// NarrateOrFallback runs n and returns FallbackNarrative on any failure,
// including a nil narrator. The second result reports whether the text came
// from the narrator.
func NarrateOrFallback(ctx context.Context, n Narrator, req Request, logger *slog.Logger) (string, bool) {
	if n == nil {
		return FallbackNarrative, false
	}
	text, err := n.Narrate(ctx, req)
	if err != nil {
		if logger != nil {
			logger.Warn("narrative generation failed", "error", err)
		}
		return FallbackNarrative, false
	}
	return text, true
}
