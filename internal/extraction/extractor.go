// Package extraction turns free text into a structured CV with one call to a
// generative-language backend.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"cvgen-backend/cv/model"
	"cvgen-backend/internal/llm"
	"cvgen-backend/internal/shared/metrics"
	"cvgen-backend/internal/shared/telemetry"
)

// Extractor renders the extraction prompt, calls the backend once and
// validates the answer.
type Extractor struct {
	completer llm.Completer
	timeout   time.Duration
}

// New returns an Extractor. A zero timeout leaves the caller's deadline in
// place.
func New(completer llm.Completer, timeout time.Duration) *Extractor {
	return &Extractor{completer: completer, timeout: timeout}
}

// Extract returns the CV described by freeText. Errors match ErrBackend or
// ErrParse.
func (e *Extractor) Extract(ctx context.Context, freeText string) (model.CV, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := e.completer.Complete(ctx, llm.RenderExtractionPrompt(freeText))
	metrics.ObserveStage("extract", time.Since(start))
	if err != nil {
		return model.CV{}, &BackendError{Err: err}
	}

	cv, err := Parse(raw)
	if err != nil {
		telemetry.Error("extraction.invalid_output", map[string]any{
			"error":     err.Error(),
			"rawLength": len(raw),
		})
		return model.CV{}, err
	}
	return cv, nil
}

// Parse validates raw backend output and decodes it into a normalized CV.
// Surrounding prose and code fences are tolerated; anything that is not a
// single JSON object of the expected shape is a *ParseError.
func Parse(raw string) (model.CV, error) {
	payload, err := extractJSONObject(raw)
	if err != nil {
		return model.CV{}, newParseError(raw, err)
	}

	ok, err := model.HasSection([]byte(payload))
	if err != nil {
		return model.CV{}, newParseError(raw, err)
	}
	if !ok {
		return model.CV{}, newParseError(raw, errors.New("no cv section in object"))
	}

	var cv model.CV
	decoder := json.NewDecoder(bytes.NewReader([]byte(payload)))
	if err := decoder.Decode(&cv); err != nil {
		return model.CV{}, newParseError(raw, err)
	}
	cv.Normalize()
	return cv, nil
}

func extractJSONObject(raw string) (string, error) {
	payload := stripCodeFence(strings.TrimSpace(raw))
	if payload == "" {
		return "", errors.New("empty llm response")
	}
	if json.Valid([]byte(payload)) {
		if !strings.HasPrefix(payload, "{") {
			return "", errors.New("top-level value is not an object")
		}
		return payload, nil
	}

	start := strings.Index(payload, "{")
	end := strings.LastIndex(payload, "}")
	if start == -1 || end == -1 || end <= start {
		return "", errors.New("no json object found")
	}

	candidate := payload[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return "", errors.New("invalid json object")
	}
	return candidate, nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
