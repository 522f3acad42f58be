package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"clarita-backend/internal/apperrors"
	logger "clarita-backend/pkg/logging"
)

const defaultModel = "gemini-2.0-flash"

// GeminiClient generates structured quiz JSON through the Gemini API.
type GeminiClient struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
}

// NewGeminiClient builds a client from GEMINI_API_KEY and the configured
// model name. The model is pinned to JSON output.
func NewGeminiClient(ctx context.Context, modelName string, timeoutSeconds int) (*GeminiClient, error) {
	apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if modelName == "" {
		modelName = defaultModel
	}
	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.3)

	if timeoutSeconds <= 0 {
		timeoutSeconds = 120
	}

	return &GeminiClient{
		client:  client,
		model:   model,
		timeout: time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// Close releases the underlying API connection.
func (c *GeminiClient) Close() {
	_ = c.client.Close()
}

// Generate sends the prompt and returns the raw JSON payload. Quota and
// rate-limit failures are flagged so callers can surface a specific
// message.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, apperrors.Upstream("generator call failed", isQuotaMessage(err.Error()), err)
	}
	logger.Debug("gemini call took %s", time.Since(started).Round(time.Millisecond))

	text := collectText(resp)
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.Upstream("generator returned an empty payload", false, nil)
	}
	return json.RawMessage(stripCodeFence(text)), nil
}

func collectText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	return b.String()
}

// stripCodeFence removes a ```json ... ``` wrapper some models add even
// when asked for raw JSON.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// isQuotaMessage matches the failure shapes the Gemini API uses for
// quota and rate-limit exhaustion.
func isQuotaMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range []string{"quota", "rate limit", "resource exhausted", "resource_exhausted", "429"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
