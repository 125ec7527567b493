// Package enricher generates translations and reflections with a chat model.
package enricher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/helixml/tafsir/domain/derived"
	"github.com/helixml/tafsir/domain/language"
	"github.com/helixml/tafsir/infrastructure/provider"
)

// Defaults for generation parameters.
const (
	DefaultMaxTokens              = 4000
	DefaultTranslationTemperature = 0.2
	DefaultReflectionTemperature  = 0.6
)

// ErrEmptyOutput indicates the model returned no usable text.
var ErrEmptyOutput = errors.New("model returned empty output")

// ProviderEnricher uses a TextGenerator to translate text and write
// reflections.
type ProviderEnricher struct {
	generator              provider.TextGenerator
	maxTokens              int
	translationTemperature float64
	reflectionTemperature  float64
	log                    *slog.Logger
}

// NewProviderEnricher creates a new ProviderEnricher.
func NewProviderEnricher(generator provider.TextGenerator, log *slog.Logger) *ProviderEnricher {
	if log == nil {
		log = slog.Default()
	}
	return &ProviderEnricher{
		generator:              generator,
		maxTokens:              DefaultMaxTokens,
		translationTemperature: DefaultTranslationTemperature,
		reflectionTemperature:  DefaultReflectionTemperature,
		log:                    log,
	}
}

// WithMaxTokens sets the maximum tokens for generation.
func (e *ProviderEnricher) WithMaxTokens(n int) *ProviderEnricher {
	if n > 0 {
		e.maxTokens = n
	}
	return e
}

// WithReflectionTemperature sets the sampling temperature for reflections.
func (e *ProviderEnricher) WithReflectionTemperature(t float64) *ProviderEnricher {
	if t > 0 {
		e.reflectionTemperature = t
	}
	return e
}

// WithTranslationTemperature sets the sampling temperature for translations.
func (e *ProviderEnricher) WithTranslationTemperature(t float64) *ProviderEnricher {
	if t > 0 {
		e.translationTemperature = t
	}
	return e
}

// Translate renders text in the target language.
func (e *ProviderEnricher) Translate(ctx context.Context, text string, target language.Code) (string, error) {
	if target.Name() == "" {
		return "", fmt.Errorf("%w: %q", language.ErrUnsupported, target)
	}
	messages := []provider.Message{
		provider.SystemMessage(translationSystemPrompt(target)),
		provider.UserMessage(text),
	}
	return e.complete(ctx, "translate", messages, e.translationTemperature)
}

// Reflect writes a spiritual reflection on Arabic tafsir text in the target
// language.
func (e *ProviderEnricher) Reflect(ctx context.Context, text string, target language.Code) (string, error) {
	if target.Name() == "" {
		return "", fmt.Errorf("%w: %q", language.ErrUnsupported, target)
	}
	messages := []provider.Message{
		provider.SystemMessage(reflectionSystemPrompt),
		provider.UserMessage(reflectionPrompt(text, target)),
	}
	return e.complete(ctx, "reflect", messages, e.reflectionTemperature)
}

func (e *ProviderEnricher) complete(ctx context.Context, operation string, messages []provider.Message, temperature float64) (string, error) {
	req := provider.NewChatCompletionRequest(messages).
		WithMaxTokens(e.maxTokens).
		WithTemperature(temperature)

	resp, err := e.generator.ChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", operation, err)
	}

	content := strings.TrimSpace(cleanThinkingTags(resp.Content()))
	if content == "" {
		return "", fmt.Errorf("%s: %w", operation, ErrEmptyOutput)
	}
	if resp.FinishReason() == "length" {
		e.log.WarnContext(ctx, "model output truncated",
			slog.String("operation", operation),
			slog.Int("max_tokens", e.maxTokens),
		)
	}
	e.log.DebugContext(ctx, "generated text",
		slog.String("operation", operation),
		slog.Int("total_tokens", resp.Usage().TotalTokens()),
	)
	return content, nil
}

// cleanThinkingTags removes <think>...</think> blocks from model output.
// Some reasoning models emit them ahead of the answer.
func cleanThinkingTags(text string) string {
	const open, closing = "<think>", "</think>"
	result := text
	for {
		start := strings.Index(result, open)
		if start == -1 {
			return result
		}
		end := strings.Index(result[start:], closing)
		if end == -1 {
			// Unclosed tag, drop the opening tag only.
			result = result[:start] + result[start+len(open):]
			continue
		}
		result = result[:start] + result[start+end+len(closing):]
	}
}

var (
	_ derived.Translator = (*ProviderEnricher)(nil)
	_ derived.Reflector  = (*ProviderEnricher)(nil)
)
