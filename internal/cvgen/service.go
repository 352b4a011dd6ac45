// Package cvgen coordinates the voice-to-CV pipeline: transcription,
// extraction, rendering and the audit trail of every generated document.
package cvgen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"cvgen-backend/cv/model"
	"cvgen-backend/internal/auditlog"
	"cvgen-backend/internal/extract"
	"cvgen-backend/internal/extraction"
	"cvgen-backend/internal/generations"
	"cvgen-backend/internal/queue"
	"cvgen-backend/internal/shared/metrics"
	"cvgen-backend/internal/shared/storage/object"
	"cvgen-backend/internal/shared/telemetry"
	"cvgen-backend/internal/shared/util"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Transcriber turns an audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Extractor turns free text into a structured CV.
type Extractor interface {
	Extract(ctx context.Context, freeText string) (model.CV, error)
}

// Renderer writes a CV document under outputDir and returns its path.
type Renderer interface {
	Render(cv model.CV, outputDir string) (string, error)
}

// AuditLog records successful generations.
type AuditLog interface {
	Append(ctx context.Context, record auditlog.Record) error
}

// Service runs the pipeline. Repo, Archive and Events are optional mirrors;
// their failures are logged and never fail a request.
type Service struct {
	Transcriber Transcriber
	Extractor   Extractor
	Renderer    Renderer
	Audit       AuditLog
	OutputDir   string

	Repo    generations.Repo
	Archive object.ObjectStore
	Events  queue.Client

	now   func() time.Time
	newID func() string
}

// GenerateInput is one generation request.
type GenerateInput struct {
	Name      string
	Email     string
	Message   string
	Source    string
	RequestID string
}

// Result is a successful generation.
type Result struct {
	ID         string
	CV         model.CV
	Path       string
	Transcript string
}

// TranscribeAudio returns the raw transcript of the audio file.
func (s *Service) TranscribeAudio(ctx context.Context, audioPath string) (string, error) {
	text, err := s.Transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTranscription, err)
	}
	return text, nil
}

// GenerateFromText extracts a CV from in.Message, renders it and appends one
// audit row. No row is written when extraction or rendering fails. A
// document rendered before an audit failure stays on disk.
func (s *Service) GenerateFromText(ctx context.Context, in GenerateInput) (Result, error) {
	if in.Source == "" {
		in.Source = auditlog.SourceFromText
	}
	id := s.id()

	cv, err := s.Extractor.Extract(ctx, in.Message)
	if err != nil {
		s.observeFailure(in, id, "extract", err)
		return Result{}, err
	}

	renderStart := time.Now()
	path, err := s.Renderer.Render(cv, s.OutputDir)
	metrics.ObserveStage("render", time.Since(renderStart))
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrRender, err)
		s.observeFailure(in, id, "render", err)
		return Result{}, err
	}

	loggedAt := s.clock()
	record := auditlog.Record{
		Timestamp: loggedAt,
		Name:      in.Name,
		Email:     in.Email,
		Source:    in.Source,
		Path:      path,
	}
	if err := s.Audit.Append(ctx, record); err != nil {
		err = fmt.Errorf("append audit log: %w", err)
		s.observeFailure(in, id, "audit", err)
		return Result{}, err
	}

	s.mirror(ctx, in, id, path, loggedAt)

	metrics.ObserveGeneration(in.Source, "ok")
	telemetry.Info("cv.generated", map[string]any{
		"generation_id": id,
		"request_id":    in.RequestID,
		"source":        in.Source,
		"path":          path,
		"email_hash":    util.HashKey(in.Email),
	})
	return Result{ID: id, CV: cv, Path: path}, nil
}

// GenerateFromAudio transcribes the audio file and feeds the transcript to
// GenerateFromText.
func (s *Service) GenerateFromAudio(ctx context.Context, audioPath string, in GenerateInput) (Result, error) {
	transcript, err := s.TranscribeAudio(ctx, audioPath)
	if err != nil {
		in.Source = auditlog.SourceFromAudio
		s.observeFailure(in, "", "transcribe", err)
		return Result{}, err
	}
	in.Message = transcript
	in.Source = auditlog.SourceFromAudio
	res, err := s.GenerateFromText(ctx, in)
	if err != nil {
		return Result{}, err
	}
	res.Transcript = transcript
	return res, nil
}

// GenerateFromDocument extracts the text of a PDF, DOCX or TXT document and
// feeds it to GenerateFromText.
func (s *Service) GenerateFromDocument(ctx context.Context, data []byte, mimeType, fileName string, in GenerateInput) (Result, error) {
	text, err := extract.ExtractTextFromBytes(ctx, data, mimeType, fileName)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		return Result{}, fmt.Errorf("%w: %w", ErrUnsupportedDocument, err)
	}
	in.Message = text
	in.Source = auditlog.SourceFromDocument
	return s.GenerateFromText(ctx, in)
}

// List returns recorded generations, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]generations.Generation, error) {
	if s.Repo == nil {
		return []generations.Generation{}, nil
	}
	return s.Repo.List(ctx, limit, offset)
}

// Open returns a generation and a reader over its document. The local file
// is preferred; the archive copy is used when the file is gone.
func (s *Service) Open(ctx context.Context, id string) (generations.Generation, io.ReadCloser, int64, error) {
	if s.Repo == nil {
		return generations.Generation{}, nil, 0, ErrNotFound
	}
	gen, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, generations.ErrNotFound) {
			return generations.Generation{}, nil, 0, ErrNotFound
		}
		return generations.Generation{}, nil, 0, err
	}

	if f, err := os.Open(gen.Path); err == nil {
		size := int64(-1)
		if info, statErr := f.Stat(); statErr == nil {
			size = info.Size()
		}
		return gen, f, size, nil
	}

	if s.Archive != nil && gen.ArchiveKey != "" {
		rc, err := s.Archive.Open(ctx, gen.ArchiveKey)
		if err == nil {
			size := int64(-1)
			if gen.SizeBytes > 0 {
				size = gen.SizeBytes
			}
			return gen, rc, size, nil
		}
		telemetry.Error("cv.archive_open_failed", map[string]any{
			"generation_id": id,
			"archive_key":   gen.ArchiveKey,
			"error":         err.Error(),
		})
	}
	return generations.Generation{}, nil, 0, ErrNotFound
}

// mirror archives the document, records the generation and publishes the
// event. Every step is best effort.
func (s *Service) mirror(ctx context.Context, in GenerateInput, id, path string, createdAt time.Time) {
	gen := generations.Generation{
		ID:        id,
		Name:      in.Name,
		Email:     in.Email,
		Source:    in.Source,
		Path:      path,
		CreatedAt: createdAt.UTC(),
	}
	if info, err := os.Stat(path); err == nil {
		gen.SizeBytes = info.Size()
	}

	if s.Archive != nil {
		key, size, err := s.archive(ctx, path, createdAt)
		if err != nil {
			telemetry.Error("cv.archive_failed", map[string]any{
				"generation_id": id,
				"path":          path,
				"error":         err.Error(),
			})
		} else {
			gen.ArchiveKey = key
			gen.SizeBytes = size
		}
	}

	if s.Repo != nil {
		if err := s.Repo.Create(ctx, gen); err != nil {
			telemetry.Error("cv.record_failed", map[string]any{
				"generation_id": id,
				"error":         err.Error(),
			})
		}
	}

	if s.Events != nil {
		msg := queue.Message{
			Type:         queue.EventCVGenerated,
			GenerationID: id,
			RequestID:    in.RequestID,
			Source:       in.Source,
			Path:         path,
			ArchiveKey:   gen.ArchiveKey,
			EnqueuedAt:   s.clock().UTC().Format(time.RFC3339),
		}
		if err := s.Events.Send(ctx, msg); err != nil {
			telemetry.Error("cv.event_failed", map[string]any{
				"generation_id": id,
				"error":         err.Error(),
			})
		}
	}
}

func (s *Service) archive(ctx context.Context, path string, createdAt time.Time) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	key := strings.Join([]string{"cv", createdAt.UTC().Format("2006/01/02"), filepath.Base(path)}, "/")
	size, err := s.Archive.Put(ctx, key, docxContentType, f)
	if err != nil {
		return "", 0, err
	}
	return key, size, nil
}

func (s *Service) observeFailure(in GenerateInput, id, stage string, err error) {
	metrics.ObserveGeneration(in.Source, ErrorCode(err))
	telemetry.Error("cv.generation_failed", map[string]any{
		"generation_id": id,
		"request_id":    in.RequestID,
		"source":        in.Source,
		"stage":         stage,
		"error":         err.Error(),
	})
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *Service) id() string {
	if s.newID != nil {
		return s.newID()
	}
	return uuid.NewString()
}

// ErrorCode classifies a pipeline error for responses and metrics.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnsupportedMediaType):
		return "unsupported_media_type"
	case errors.Is(err, ErrUnsupportedDocument):
		return "unsupported_document"
	case errors.Is(err, ErrTranscription):
		return "transcription_failed"
	case errors.Is(err, extraction.ErrParse):
		return "invalid_llm_output"
	case errors.Is(err, extraction.ErrBackend):
		return "llm_backend_error"
	case errors.Is(err, ErrRender):
		return "render_failed"
	case errors.Is(err, auditlog.ErrWrite), errors.Is(err, auditlog.ErrClosed):
		return "audit_log_failed"
	default:
		return "internal_error"
	}
}
