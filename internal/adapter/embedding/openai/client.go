// Package openai calls an OpenAI-compatible /embeddings endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/heartmarshall/notes-assistant-backend/internal/config"
	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
)

// Client turns text into embedding vectors.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	maxRetries uint64
	http       *http.Client
	log        *slog.Logger
}

// New creates a client from config. dimensions is requested from the API
// so the vectors match the index.
func New(cfg config.EmbeddingConfig, dimensions int, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: dimensions,
		maxRetries: cfg.MaxRetries,
		http:       &http.Client{Timeout: cfg.Timeout},
		log:        logger.With("adapter", "embedding.openai"),
	}
}

type embedRequest struct {
	Input      string `json:"input"`
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions,omitempty"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding of text. 429 and 5xx responses are retried
// with exponential backoff.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Input: text, Model: c.model, Dimensions: c.dimensions})
	if err != nil {
		return nil, fmt.Errorf("encode embedding request: %w", err)
	}

	var vec []float32
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(200*time.Millisecond))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		v, err := c.do(ctx, body)
		if err != nil {
			return err
		}
		vec = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vec, nil
}

func (c *Client) do(ctx context.Context, body []byte) ([]float32, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, retry.RetryableError(fmt.Errorf("embedding request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		c.log.WarnContext(ctx, "embedding request failed, retrying", slog.Int("status", resp.StatusCode))
		return nil, retry.RetryableError(fmt.Errorf("embedding request: %s", resp.Status))
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embedding request: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, domain.ErrEmbedding
	}
	return out.Data[0].Embedding, nil
}
