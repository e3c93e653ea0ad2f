// Package classifier asks a language model whether two adjacent activity
// events belong to the same work session.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	claudeAPIURL     = "https://api.anthropic.com/v1/messages"
	claudeAPIVersion = "2023-06-01"
	defaultModel     = "claude-3-5-haiku-latest"
	maxTokens        = 256
	defaultTimeout   = 15 * time.Second

	// DefaultConfidence replaces a missing or malformed confidence value.
	DefaultConfidence = 0.6
)

// ErrClassification wraps every failure of a classification request:
// transport errors, timeouts, non-200 responses and unparseable payloads.
var ErrClassification = errors.New("classification failed")

// Classification is the model's verdict on one adjacency.
type Classification struct {
	SameSession       bool    `json:"same_session"`
	Confidence        float64 `json:"confidence"`
	Reason            string  `json:"reason"`
	SuggestedCategory string  `json:"suggested_category,omitempty"`
}

// Options configures a Client.
type Options struct {
	APIKey            string
	Model             string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	BaseURL           string
	HTTPClient        *http.Client
}

// Client classifies event pairs through the Claude Messages API. Requests are
// rate bounded; a request waiting for the limiter honors ctx cancellation.
type Client struct {
	apiKey  string
	model   string
	url     string
	http    *http.Client
	limiter *rate.Limiter
}

// New creates a Client. It returns an error when no API key is provided.
func New(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("API key is required for AI classification")
	}
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.BaseURL == "" {
		opts.BaseURL = claudeAPIURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		apiKey:  opts.APIKey,
		model:   opts.Model,
		url:     opts.BaseURL,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, burst),
	}, nil
}

// systemPrompt is the fixed instruction sent with every classification request.
const systemPrompt = `You segment a person's computer activity into work sessions.

You are given two consecutive activity samples, PREV and CURR. Decide whether CURR continues the same session as PREV (same task or closely related work) or starts a different one.

Categories: development, design, communication, research, distraction, other.

Respond with JSON only, no prose:
{"same_session": true|false, "confidence": 0.0-1.0, "reason": "short reason", "category": "one category for the unknown app or domain, or null"}`

// Classify submits the two event descriptions and returns the parsed verdict.
func (c *Client) Classify(ctx context.Context, prevDescription, currDescription string) (*Classification, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: waiting for rate limiter: %v", ErrClassification, err)
	}

	userPrompt := "PREV: " + prevDescription + "\nCURR: " + currDescription

	text, err := c.callClaudeAPI(ctx, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassification, err)
	}

	result, err := ParseResponse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassification, err)
	}
	return result, nil
}

// claudeAPIRequest is the request body for the Claude Messages API.
type claudeAPIRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []claudeAPIMessage `json:"messages"`
}

type claudeAPIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeAPIResponse struct {
	ID      string                  `json:"id"`
	Type    string                  `json:"type"`
	Content []claudeAPIContentBlock `json:"content"`
	Error   *claudeAPIError         `json:"error,omitempty"`
}

type claudeAPIContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type claudeAPIError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// callClaudeAPI sends one message and returns the concatenated text blocks.
func (c *Client) callClaudeAPI(ctx context.Context, userPrompt string) (string, error) {
	reqBody := claudeAPIRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    systemPrompt,
		Messages: []claudeAPIMessage{
			{Role: "user", Content: userPrompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", claudeAPIVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d: %.200s", resp.StatusCode, string(respBytes))
	}

	var apiResp claudeAPIResponse
	if err := json.Unmarshal(respBytes, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("API error: %s: %s", apiResp.Error.Type, apiResp.Error.Message)
	}

	var textParts []string
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			textParts = append(textParts, block.Text)
		}
	}
	if len(textParts) == 0 {
		return "", fmt.Errorf("no text content in API response")
	}
	return strings.Join(textParts, ""), nil
}
