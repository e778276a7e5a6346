package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"BlogMigrator/internal/config"
	"BlogMigrator/internal/domain"
	"BlogMigrator/internal/ports"
)

// Rewriter implements ports.Rewriter backed by OpenAI-compatible chat APIs.
type Rewriter struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	httpClient   *http.Client
}

var _ ports.Rewriter = (*Rewriter)(nil)

// NewRewriter builds a client from configuration.
func NewRewriter(cfg config.RewriterConfig) *Rewriter {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Rewriter{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Rewrite sends the rewrite prompt and parses the sectioned answer.
func (c *Rewriter) Rewrite(ctx context.Context, req domain.RewriteRequest) (domain.RewriteResult, error) {
	if c == nil {
		return domain.RewriteResult{}, fmt.Errorf("rewriter is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return domain.RewriteResult{}, fmt.Errorf("%w: rewriter misconfigured", domain.ErrValidation)
	}

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []chatMessage{
			{Role: "system", Content: safePrompt(c.systemPrompt)},
			{Role: "user", Content: BuildPrompt(req)},
		},
	})
	if err != nil {
		return domain.RewriteResult{}, fmt.Errorf("marshal rewrite payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.RewriteResult{}, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.RewriteResult{}, fmt.Errorf("%w: rewrite request: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.RewriteResult{}, fmt.Errorf("%w: rewriter error %s: %s",
			domain.ErrTransport, resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded chatResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&decoded); err != nil {
		return domain.RewriteResult{}, fmt.Errorf("%w: decode rewrite response: %v", domain.ErrParse, err)
	}
	if len(decoded.Choices) == 0 {
		return domain.RewriteResult{}, fmt.Errorf("%w: rewrite response has no choices", domain.ErrParse)
	}

	return ParseResponse(decoded.Choices[0].Message.Content, req.Title), nil
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You are an expert content writer and SEO specialist."
	}
	return prompt
}
