// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/foduucom/themeconv/ai"
	"github.com/foduucom/themeconv/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/sync/errgroup"
)

// Transformer implements ai.Transformer using OpenAI-compatible chat APIs.
type Transformer struct {
	client      llms.Model
	callOptions []llms.CallOption
	concurrency int
	logger      *slog.Logger
}

var _ ai.Transformer = (*Transformer)(nil)

// newTransformer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newTransformer(config *ai.Config) (*Transformer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.Token),
		openai.WithModel(config.Model),
	)
	if err != nil {
		return nil, err
	}
	return newTransformerWithModel(client, config), nil
}

// newTransformerWithModel wraps an existing model client.
func newTransformerWithModel(client llms.Model, config *ai.Config) *Transformer {
	opts := []llms.CallOption{
		llms.WithTemperature(config.Temperature),
		llms.WithTopP(config.TopP),
		llms.WithJSONMode(),
	}
	if config.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(config.MaxTokens))
	}
	concurrency := config.BatchConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Transformer{
		client:      client,
		callOptions: opts,
		concurrency: concurrency,
		logger:      slog.Default().With("component", "openai-transformer"),
	}
}

// NewTransformer creates a new transformer using the provided configuration.
//
// Returns ai.Transformer interface to enforce abstraction.
func NewTransformer(config *ai.Config) (ai.Transformer, error) {
	return newTransformer(config)
}

// Transform converts a single fragment.
func (t *Transformer) Transform(ctx context.Context, prompt string, fragment core.Fragment) (core.Shortcode, core.Usage, error) {
	item, usage, err := t.transformOne(ctx, prompt, fragment)
	if err != nil {
		return core.Shortcode{}, usage, err
	}
	if item.Err != nil {
		return core.Shortcode{}, usage, item.Err
	}
	return item.Result, usage, nil
}

// TransformBatch converts fragments with concurrent requests.
// The first transport error cancels the remaining requests and fails the call.
func (t *Transformer) TransformBatch(ctx context.Context, prompt string, fragments []core.Fragment) ([]ai.ItemResult, core.Usage, error) {
	results := make([]ai.ItemResult, len(fragments))
	usages := make([]core.Usage, len(fragments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)
	for i, fragment := range fragments {
		g.Go(func() error {
			item, usage, err := t.transformOne(gctx, prompt, fragment)
			usages[i] = usage
			if err != nil {
				return fmt.Errorf("fragment %s: %w", fragment.Name, err)
			}
			results[i] = item
			return nil
		})
	}
	err := g.Wait()

	var total core.Usage
	for _, u := range usages {
		total = total.Add(u)
	}
	if err != nil {
		return nil, total, err
	}

	t.logger.Debug("batch transformed", "items", len(fragments), "total_tokens", total.TotalTokens)
	return results, total, nil
}

// transformOne issues one chat request. Transport failures are returned as
// err; unusable answers are reported through the item.
func (t *Transformer) transformOne(ctx context.Context, prompt string, fragment core.Fragment) (ai.ItemResult, core.Usage, error) {
	userMessage, err := buildUserMessage(fragment)
	if err != nil {
		return ai.ItemResult{}, core.Usage{}, err
	}
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(userMessage)},
		},
	}

	response, err := t.client.GenerateContent(ctx, content, t.callOptions...)
	if err != nil {
		t.logger.Error("failed to generate content", "fragment", fragment.Name, "err", err)
		return ai.ItemResult{}, core.Usage{}, err
	}
	usage := usageFromResponse(response)

	if len(response.Choices) < 1 || response.Choices[0] == nil {
		return ai.ItemResult{Err: &ai.OutputError{Err: ai.ErrEmptyResponse}}, usage, nil
	}

	raw := response.Choices[0].Content
	result, err := parseShortcode(raw)
	if err != nil {
		t.logger.Warn("error parsing transformer response",
			"fragment", fragment.Name,
			"response", raw,
			"err", err)
		return ai.ItemResult{Raw: raw, Err: &ai.OutputError{Raw: raw, Err: err}}, usage, nil
	}
	return ai.ItemResult{Result: result, Raw: raw}, usage, nil
}

// parseShortcode decodes and validates a model answer.
func parseShortcode(raw string) (core.Shortcode, error) {
	text := stripCodeFences(raw)
	if text == "" {
		return core.Shortcode{}, ai.ErrEmptyResponse
	}

	// Try to repair common JSON issues
	text = repairJSON(text)

	var result core.Shortcode
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return core.Shortcode{}, err
	}
	if result.Param == nil {
		result.Param = []any{}
	}
	if err := core.ValidateShortcode(&result); err != nil {
		return core.Shortcode{}, err
	}
	return result, nil
}
