package llm

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
)

// EmbeddingClient turns texts into fixed-dimension vectors, one per input,
// order-preserving.
type EmbeddingClient interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// maxEmbeddingBatch caps how many inputs go into a single provider call.
const maxEmbeddingBatch = 100

type EmbeddingProvider struct {
	client *http.Client
	apiKey string
	apiURL string
	model  string
}

func NewEmbeddingClient(cfg Config) (EmbeddingClient, error) {
	if cfg.Model == "" {
		return nil, errors.New("embedding model is required")
	}
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = "https://api.openai.com/v1"
	}

	return &EmbeddingProvider{
		client: &http.Client{Timeout: 120 * time.Second},
		apiKey: cfg.APIKey,
		apiURL: apiURL,
		model:  cfg.Model,
	}, nil
}

func (p *EmbeddingProvider) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}

	vectors := make([][]float32, 0, len(inputs))
	for start := 0; start < len(inputs); start += maxEmbeddingBatch {
		end := start + maxEmbeddingBatch
		if end > len(inputs) {
			end = len(inputs)
		}
		batch, err := p.embedBatch(ctx, inputs[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (p *EmbeddingProvider) embedBatch(ctx context.Context, inputs []string) ([][]float32, error) {
	payload, err := json.Marshal(embeddingRequest{Model: p.model, Input: inputs})
	if err != nil {
		return nil, fmt.Errorf("embed: marshal request: %w", err)
	}
	endpoint := p.apiURL + "/embeddings"

	resp, attempts, err := doWithRetry(ctx, p.client, func() (*http.Request, error) {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if reqErr != nil {
			return nil, fmt.Errorf("create request: %w", reqErr)
		}
		req.Header.Set("Content-Type", "application/json")
		if p.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+p.apiKey)
		}
		return req, nil
	})
	if err != nil {
		return nil, &EmbeddingError{Attempts: attempts, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return nil, &EmbeddingError{
			Attempts: attempts,
			Err:      fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body))),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("embed: read response: %w", err)
	}

	var response embeddingResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("embed: decode response: %w", err)
	}
	if len(response.Data) != len(inputs) {
		return nil, fmt.Errorf("embed: unexpected embeddings count: %d", len(response.Data))
	}
	vectors := make([][]float32, 0, len(response.Data))
	for _, entry := range response.Data {
		vectors = append(vectors, entry.Embedding)
	}
	return vectors, nil
}

// ProbeEmbeddingDimensions makes a single embedding call and returns the
// vector length. Use this at startup to discover the model's output dimensions
// without hardcoding a model-to-dimension mapping.
func ProbeEmbeddingDimensions(ctx context.Context, client EmbeddingClient) (int, error) {
	vecs, err := client.Embed(ctx, []string{"dimension probe"})
	if err != nil {
		return 0, fmt.Errorf("probe embedding dimensions: %w", err)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return 0, errors.New("probe returned empty embedding")
	}
	return len(vecs[0]), nil
}
