package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	embeddingAPI   = "https://generativelanguage.googleapis.com/v1beta/models/gemini-embedding-001:embedContent"
	embeddingModel = "models/gemini-embedding-001"
	embeddingDim   = 768

	maxRetries     = 3
	initialBackoff = time.Second
)

// EmbeddingRequest represents an embedding API request
type EmbeddingRequest struct {
	Model                string       `json:"model"`
	Content              ContentInput `json:"content"`
	TaskType             string       `json:"task_type,omitempty"`
	OutputDimensionality int          `json:"output_dimensionality,omitempty"`
}

// ContentInput represents content for embedding
type ContentInput struct {
	Parts []PartInput `json:"parts"`
}

// PartInput represents a part of content
type PartInput struct {
	Text string `json:"text"`
}

// EmbeddingResponse represents an embedding API response
type EmbeddingResponse struct {
	Embedding EmbeddingData `json:"embedding"`
}

// EmbeddingData contains the embedding values
type EmbeddingData struct {
	Values []float64 `json:"values"`
}

// GeminiEmbedder produces 768-dimension embeddings through the Gemini
// embedding API, with task-type hints for query vs. document text
type GeminiEmbedder struct {
	apiKey string
	client *http.Client
}

// NewGeminiEmbedder creates an embedder using the given API key
func NewGeminiEmbedder(apiKey string) *GeminiEmbedder {
	return &GeminiEmbedder{
		apiKey: apiKey,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// EmbedQuery embeds retrieval query text
func (g *GeminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	return g.embed(ctx, text, "RETRIEVAL_QUERY")
}

// EmbedDocument embeds indexable document text
func (g *GeminiEmbedder) EmbedDocument(ctx context.Context, text string) ([]float64, error) {
	return g.embed(ctx, text, "RETRIEVAL_DOCUMENT")
}

func (g *GeminiEmbedder) embed(ctx context.Context, text, taskType string) ([]float64, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	reqBody := EmbeddingRequest{
		Model: embeddingModel,
		Content: ContentInput{
			Parts: []PartInput{{Text: text}},
		},
		TaskType:             taskType,
		OutputDimensionality: embeddingDim,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, "POST", embeddingAPI, bytes.NewBuffer(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", g.apiKey)

		resp, err := g.client.Do(req)
		if err != nil {
			if attempt == maxRetries-1 {
				return nil, fmt.Errorf("failed to send request after %d attempts: %w", maxRetries, err)
			}
			continue
		}

		if resp.StatusCode == http.StatusOK {
			var apiResp EmbeddingResponse
			err := json.NewDecoder(resp.Body).Decode(&apiResp)
			resp.Body.Close()
			if err != nil {
				if attempt == maxRetries-1 {
					return nil, fmt.Errorf("failed to decode response: %w", err)
				}
				continue
			}
			return normalize(apiResp.Embedding.Values), nil
		}

		resp.Body.Close()

		// Don't retry on 400 or 401 errors
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("embedding API error: %d", resp.StatusCode)
		}

		log.Warn().Int("status", resp.StatusCode).Int("attempt", attempt+1).Msg("embedding API call failed, retrying")
		if attempt == maxRetries-1 {
			return nil, fmt.Errorf("embedding API error after %d attempts: %d", maxRetries, resp.StatusCode)
		}
	}

	return nil, fmt.Errorf("embedding generation failed")
}

// normalize scales an embedding to unit length
func normalize(embedding []float64) []float64 {
	norm := 0.0
	for _, v := range embedding {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range embedding {
			embedding[i] /= norm
		}
	}
	return embedding
}
