// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/tomtom215/wayfinder/internal/cache"
	"github.com/tomtom215/wayfinder/internal/config"
	"github.com/tomtom215/wayfinder/internal/metrics"
)

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint. Ollama's
// /v1 API works as well. Vectors are memoized per text, so identical text
// always yields the identical vector for the life of the process.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
	cache  *cache.LRU[string, []float32]
	logger zerolog.Logger
}

// NewOpenAIEmbedder creates an embedder from cfg.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewOpenAIEmbedder(cfg *config.EmbeddingConfig, logger zerolog.Logger) *OpenAIEmbedder {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
		cache:  cache.NewLRU[string, []float32](cfg.CacheSize, 0),
		logger: logger.With().Str("component", "embedder").Str("model", cfg.Model).Logger(),
	}
}

// Embed implements Embedder. Surrounding whitespace is ignored.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}

	if v, ok := e.cache.Get(text); ok {
		metrics.CollaboratorCacheHits.WithLabelValues(NameEmbedder).Inc()
		return copyVector(v), nil
	}

	start := time.Now()
	v, err := e.embed(ctx, text)
	metrics.RecordCollaboratorCall(NameEmbedder, time.Since(start), err)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Embedding request failed")
		return nil, err
	}

	e.cache.Add(text, v)
	e.logger.Debug().Int("dimension", len(v)).Dur("duration", time.Since(start)).Msg("Embedded text")
	return copyVector(v), nil
}

func (e *OpenAIEmbedder) embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings failed: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embedding: %w", ErrEmptyResponse)
	}
	return resp.Data[0].Embedding, nil
}

func copyVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
