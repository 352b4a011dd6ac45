package render

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"cvgen-backend/cv/model"
	"cvgen-backend/internal/shared/util"
)

const maxSlugLen = 40

// ErrWrite matches any failure to persist a rendered document.
var ErrWrite = errors.New("cv document write failed")

// WriteError reports a filesystem failure while persisting a document.
type WriteError struct {
	Op   string
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

func (e *WriteError) Is(target error) bool { return target == ErrWrite }

// Renderer writes rendered CVs to disk.
type Renderer struct {
	now   func() time.Time
	newID func() string
}

// NewRenderer builds a Renderer using the wall clock and random UUIDs.
func NewRenderer() *Renderer {
	return &Renderer{now: time.Now, newID: uuid.NewString}
}

// Render writes cv as a new .docx file under outputDir and returns its path.
// The directory is created when missing. File names embed a timestamp and a
// random suffix, so concurrent calls never collide.
func (r *Renderer) Render(cv model.CV, outputDir string) (string, error) {
	content, err := RenderCV(cv)
	if err != nil {
		return "", fmt.Errorf("render cv: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", &WriteError{Op: "mkdir", Path: outputDir, Err: err}
	}

	path := filepath.Join(outputDir, r.fileName(cv))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", &WriteError{Op: "create", Path: path, Err: err}
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", &WriteError{Op: "write", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", &WriteError{Op: "close", Path: path, Err: err}
	}
	return path, nil
}

func (r *Renderer) fileName(cv model.CV) string {
	now := time.Now
	if r.now != nil {
		now = r.now
	}
	newID := uuid.NewString
	if r.newID != nil {
		newID = r.newID
	}

	id := strings.ReplaceAll(newID(), "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	name := "cv_" + now().Format("20060102-150405") + "_" + id
	if slug := util.Slug(cv.FullName(), maxSlugLen); slug != "" {
		name += "_" + slug
	}
	return name + ".docx"
}
