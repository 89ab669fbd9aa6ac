// Package summary condenses extracted document text with an inference model.
package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"document-ingest/internal/inference"
	"document-ingest/internal/shared/telemetry"
)

const (
	maxTokens   = 1000
	temperature = 0.3
	topP        = 0.9

	// MinChars is the trimmed length below which no model call is made.
	MinChars = 50
	// MaxInputChars caps how much of the text is embedded in the prompt.
	MaxInputChars = 8000

	tooShort      = "Text too short to summarize effectively."
	emptyResponse = "Unable to generate summary - empty response from model."
)

const promptTemplate = `Please provide a comprehensive summary of the following document.
Include the main topics, key points, and any important details.
Keep the summary clear and well-structured.

Document text:
%s

Summary:`

// Summarizer produces a summary string for any input. It never fails.
type Summarizer struct {
	Client  inference.Client
	ModelID string
}

// Summarize returns the model's summary, or a placeholder when the text is
// too short or the call fails.
func (s *Summarizer) Summarize(ctx context.Context, text string) string {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < MinChars {
		return tooShort
	}

	summary, err := s.generate(ctx, text)
	switch {
	case err == nil:
		return summary
	case errors.Is(err, inference.ErrEmptyResponse):
		telemetry.Warn("summary.empty", map[string]any{"model": s.ModelID})
		return emptyResponse
	default:
		telemetry.Error("summary.failed", map[string]any{
			"model": s.ModelID,
			"error": err.Error(),
		})
		return fmt.Sprintf("Error generating summary: %s", err.Error())
	}
}

func (s *Summarizer) generate(ctx context.Context, text string) (string, error) {
	resp, err := s.Client.Invoke(ctx, inference.Request{
		ModelID:     s.ModelID,
		Prompt:      Prompt(text),
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

// Prompt builds the summarization prompt around the first MaxInputChars code
// points of text.
func Prompt(text string) string {
	return fmt.Sprintf(promptTemplate, headRunes(text, MaxInputChars))
}

func headRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
