package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
)

const (
	generationAPI = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash-lite:generateContent"

	maxRetries     = 3
	initialBackoff = time.Second
	maxPromptChars = 30000
)

// ErrGenerationFailed is returned when the generation API yields no content
var ErrGenerationFailed = errors.New("failed to generate content")

// GeminiOracle invokes the Gemini generation API for compliance judgments.
// The genai client verifies credentials at startup; calls go through the
// HTTP API directly for control over the response envelope.
type GeminiOracle struct {
	apiKey       string
	geminiClient *genai.Client
	client       *http.Client
}

// NewGeminiOracle creates an oracle using the given API key and client
func NewGeminiOracle(apiKey string, geminiClient *genai.Client) *GeminiOracle {
	return &GeminiOracle{
		apiKey:       apiKey,
		geminiClient: geminiClient,
		client:       &http.Client{Timeout: 120 * time.Second},
	}
}

// Judge sends the prompt to the generation API with retry and returns the
// raw response text
func (g *GeminiOracle) Judge(ctx context.Context, prompt string) (string, error) {
	if g.geminiClient == nil {
		return "", errors.New("gemini client not set")
	}

	// Truncate prompt if too long to avoid context limits
	if len(prompt) > maxPromptChars {
		log.Warn().Int("chars", len(prompt)).Msg("judgment prompt too long, truncating")
		prompt = prompt[:maxPromptChars] + "\n\n[Content truncated due to length...]"
	}

	var content string
	var err error
	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		content, err = g.callGenerationAPI(ctx, prompt)
		if err != nil {
			if attempt == maxRetries-1 {
				return "", fmt.Errorf("failed to generate judgment after %d attempts: %w", maxRetries, err)
			}
			continue
		}
		if content != "" {
			return content, nil
		}
	}

	if content == "" {
		return "", ErrGenerationFailed
	}
	return content, nil
}

// callGenerationAPI calls the Gemini generation API directly via HTTP
func (g *GeminiOracle) callGenerationAPI(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY not set")
	}

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature":     0.0,
			"maxOutputTokens": 4096,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", generationAPI, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Error().Int("status", resp.StatusCode).Bytes("body", bodyBytes).Msg("generation API error")
		return "", fmt.Errorf("API error: %d - %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason,omitempty"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason string `json:"blockReason,omitempty"`
		} `json:"promptFeedback,omitempty"`
		Error struct {
			Code    int    `json:"code,omitempty"`
			Message string `json:"message,omitempty"`
		} `json:"error,omitempty"`
	}

	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if apiResp.Error.Message != "" {
		return "", fmt.Errorf("API error: %s (code: %d)", apiResp.Error.Message, apiResp.Error.Code)
	}
	if apiResp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("API blocked prompt: %s", apiResp.PromptFeedback.BlockReason)
	}
	if len(apiResp.Candidates) == 0 {
		return "", fmt.Errorf("API returned no candidates")
	}

	var responseText bytes.Buffer
	for i, candidate := range apiResp.Candidates {
		if candidate.FinishReason != "" && candidate.FinishReason != "STOP" {
			log.Warn().Int("candidate", i).Str("reason", candidate.FinishReason).Msg("candidate finished abnormally")
		}
		for _, part := range candidate.Content.Parts {
			responseText.WriteString(part.Text)
		}
	}

	result := responseText.String()
	if result == "" {
		return "", fmt.Errorf("API returned empty content")
	}
	return result, nil
}
