package llm

import (
	"context"
	_ "embed"
	"errors"
	"strings"
)

// Completer sends one prompt to a generative-language backend and returns the
// raw text of its answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const freeTextSlot = "{{FREE_TEXT}}"

//go:embed prompts/cv_extraction_fr.txt
var cvExtractionPrompt string

// ExtractionPromptTemplate returns the raw template with its free-text slot.
func ExtractionPromptTemplate() string {
	return cvExtractionPrompt
}

// RenderExtractionPrompt substitutes freeText into the extraction template.
// The text is inserted verbatim; no escaping or validation is applied.
func RenderExtractionPrompt(freeText string) string {
	return strings.Replace(cvExtractionPrompt, freeTextSlot, freeText, 1)
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("LLM provider not configured")

// PlaceholderClient stands in when no provider credentials are set.
type PlaceholderClient struct{}

// Complete returns ErrNotConfigured.
func (PlaceholderClient) Complete(ctx context.Context, prompt string) (string, error) {
	_ = ctx
	_ = prompt
	return "", ErrNotConfigured
}
