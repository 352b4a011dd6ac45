// Package transcription turns an audio file into raw text with a speech
// engine that is built once per process and shared by all requests.
package transcription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cvgen-backend/internal/shared/metrics"
)

// Engine recognizes speech in the audio file at audioPath.
type Engine interface {
	Transcribe(ctx context.Context, audioPath, language string) (string, error)
}

// EngineFactory builds the engine on first use.
type EngineFactory func() (Engine, error)

// ErrEngineUnavailable wraps failures to build the engine.
var ErrEngineUnavailable = errors.New("speech engine unavailable")

// Service transcribes audio with a fixed language.
type Service struct {
	engine   func() (Engine, error)
	language string
	timeout  time.Duration
}

// NewService returns a Service whose engine is created lazily by factory.
// A failed build is cached too; the process must be restarted to retry.
func NewService(factory EngineFactory, language string, timeout time.Duration) *Service {
	language = strings.TrimSpace(language)
	if language == "" {
		language = "fr"
	}
	return &Service{
		engine:   sync.OnceValues(factory),
		language: language,
		timeout:  timeout,
	}
}

// Language returns the fixed recognition language.
func (s *Service) Language() string {
	return s.language
}

// Transcribe returns the transcript of the audio file, unmodified.
func (s *Service) Transcribe(ctx context.Context, audioPath string) (string, error) {
	engine, err := s.engine()
	if err != nil {
		metrics.ObserveTranscription("engine_error")
		return "", fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := engine.Transcribe(ctx, audioPath, s.language)
	metrics.ObserveStage("transcribe", time.Since(start))
	if err != nil {
		metrics.ObserveTranscription("error")
		return "", fmt.Errorf("transcribe: %w", err)
	}
	metrics.ObserveTranscription("ok")
	return text, nil
}
