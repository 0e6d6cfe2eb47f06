package breakdown

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Provider generates text from a prompt. The AI backend is an opaque
// upstream; this core only needs the text back.
type Provider interface {
	Generate(ctx context.Context, prompt, system string, maxTokens int) (string, error)
}

// HTTPProvider calls a JSON completion endpoint.
type HTTPProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewHTTPProvider(baseURL, model string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type generateRequest struct {
	Model     string `json:"model"`
	Prompt    string `json:"prompt"`
	System    string `json:"system,omitempty"`
	MaxTokens int    `json:"max_tokens,omitempty"`
	Stream    bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate requests a completion and returns the raw text.
func (p *HTTPProvider) Generate(ctx context.Context, prompt, system string, maxTokens int) (string, error) {
	reqBody := generateRequest{
		Model:     p.model,
		Prompt:    prompt,
		System:    system,
		MaxTokens: maxTokens,
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read generate response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generate: status %d: %s", resp.StatusCode, string(body))
	}

	var result generateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	return result.Response, nil
}
