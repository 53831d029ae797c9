package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	remark "github.com/Paranoid-AF/remark"
)

const requestTimeout = 60 * time.Second

// Generator performs text generation via an OpenAI-compatible API.
type Generator struct {
	baseURL     string
	apiKey      string
	model       string
	apiType     string // "chat_completions" or "responses"
	maxTokens   int
	temperature *float64
	stop        []string
	telemetry   bool // send OpenRouter attribution headers
	client      *http.Client
}

// NewGenerator creates a generator from config, applying environment overrides.
func NewGenerator(cfg *remark.Config) *Generator {
	maxTokens := cfg.Generation.MaxTokens
	if maxTokens < 0 {
		maxTokens = 0
	}
	return &Generator{
		baseURL:     strings.TrimRight(remark.ResolveGenerationBaseURL(cfg), "/"),
		apiKey:      remark.ResolveGenerationAPIKey(cfg),
		model:       remark.ResolveGenerationModel(cfg),
		apiType:     cfg.Generation.APIType,
		maxTokens:   maxTokens,
		temperature: cfg.Generation.Temperature,
		stop:        cfg.Generation.Stop,
		telemetry:   remark.OpenRouterTelemetryEnabled(cfg),
		client:      &http.Client{Timeout: requestTimeout},
	}
}

// Model returns the model name sent with each request.
func (g *Generator) Model() string { return g.model }

// Generate sends a completion request to the API and returns the response text.
func (g *Generator) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	if g.apiType == "responses" {
		return g.generateResponses(ctx, systemPrompt, userMessage)
	}
	return g.generateChatCompletions(ctx, systemPrompt, userMessage)
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// --- Chat Completions API ---

type chatCompletionsRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	Stop        []string  `json:"stop,omitempty"`
}

type chatCompletionsResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

func (g *Generator) generateChatCompletions(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	reqBody := chatCompletionsRequest{
		Model: g.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
		Stop:        g.stop,
	}

	var result chatCompletionsResponse
	if err := g.post(ctx, "/chat/completions", reqBody, &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", fmt.Errorf("API error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return result.Choices[0].Message.Content, nil
}

// --- Responses API ---

type responsesRequest struct {
	Model       string    `json:"model"`
	Input       []message `json:"input"`
	MaxTokens   int       `json:"max_output_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	Stop        []string  `json:"stop,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Error *apiError `json:"error,omitempty"`
}

func (g *Generator) generateResponses(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	reqBody := responsesRequest{
		Model: g.model,
		Input: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
		Stop:        g.stop,
	}

	var result responsesResponse
	if err := g.post(ctx, "/responses", reqBody, &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", fmt.Errorf("API error: %s", result.Error.Message)
	}

	for _, out := range result.Output {
		if out.Type != "message" {
			continue
		}
		for _, c := range out.Content {
			if c.Type == "output_text" {
				return c.Text, nil
			}
		}
	}
	return "", fmt.Errorf("no text content in response")
}

// post sends body as JSON to baseURL+path and decodes a 200 reply into out.
func (g *Generator) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	g.setHeaders(httpReq)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w (body: %s)", err, string(raw))
	}
	return nil
}

// setHeaders sets common headers for API requests.
func (g *Generator) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}
	if g.telemetry {
		req.Header.Set("X-Title", "remark - comment your code")
		req.Header.Set("HTTP-Referer", "https://github.com/Paranoid-AF/remark")
	}
}
