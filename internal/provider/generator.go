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

	"github.com/tomtom215/wayfinder/internal/config"
	"github.com/tomtom215/wayfinder/internal/metrics"
)

// SystemPrompt is sent ahead of every completion.
const SystemPrompt = "You are a local recommendations assistant. " +
	"Describe only the businesses listed in the user's message. " +
	"Do not invent businesses, addresses, ratings or distances. " +
	"If a value is marked unknown, say it is unknown."

// OpenAIGenerator completes prompts with an OpenAI-compatible chat endpoint.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      zerolog.Logger
}

// NewOpenAIGenerator creates a generator from cfg.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewOpenAIGenerator(cfg *config.GenerationConfig, logger zerolog.Logger) *OpenAIGenerator {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &OpenAIGenerator{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger.With().Str("component", "generator").Str("model", cfg.Model).Logger(),
	}
}

// Complete implements TextGenerator.
func (g *OpenAIGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyInput
	}

	req := openai.ChatCompletionRequest{
		Model:       g.model,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err == nil && len(resp.Choices) == 0 {
		err = fmt.Errorf("chat completion: %w", ErrEmptyResponse)
	}
	metrics.RecordCollaboratorCall(NameGenerator, time.Since(start), err)
	if err != nil {
		g.logger.Warn().Err(err).Dur("latency", time.Since(start)).Msg("Chat completion failed")
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	g.logger.Debug().
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Dur("latency", time.Since(start)).
		Msg("Chat completion")

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
