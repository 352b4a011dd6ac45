// Package auditlog appends one CSV row per successful CV generation. A single
// goroutine owns the file so rows from concurrent requests never interleave.
package auditlog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	SourceFromText     = "from_text"
	SourceFromAudio    = "from_audio"
	SourceFromDocument = "from_document"
)

var (
	// ErrWrite matches failures to append a row.
	ErrWrite = errors.New("audit log write failed")
	// ErrClosed is returned by Append after Close.
	ErrClosed = errors.New("audit log closed")
)

// Record is one audit row: timestamp, name, email, source, path.
type Record struct {
	Timestamp time.Time
	Name      string
	Email     string
	Source    string
	Path      string
}

func (r Record) row() []string {
	return []string{
		r.Timestamp.Format(time.RFC3339Nano),
		r.Name,
		r.Email,
		r.Source,
		r.Path,
	}
}

type appendRequest struct {
	record Record
	done   chan error
}

// Log is the append-only audit file.
type Log struct {
	path     string
	requests chan appendRequest
	stop     chan struct{}
	stopped  chan struct{}
	once     sync.Once
}

// Open starts the writer goroutine for path. The parent directory is created
// when missing, here and again on every append; the file itself is created on
// the first append.
func Open(path string) (*Log, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrWrite, err)
		}
	}
	l := &Log{
		path:     path,
		requests: make(chan appendRequest),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go l.run()
	return l, nil
}

// Path returns the file the log writes to.
func (l *Log) Path() string {
	return l.path
}

// Append writes one row and waits until it is flushed to the file.
func (l *Log) Append(ctx context.Context, record Record) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	req := appendRequest{record: record, done: make(chan error, 1)}
	select {
	case l.requests <- req:
	case <-l.stop:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	// Once accepted the row is written even if ctx is cancelled.
	return <-req.done
}

// Close stops the writer after any in-flight append completes.
func (l *Log) Close() error {
	l.once.Do(func() { close(l.stop) })
	<-l.stopped
	return nil
}

func (l *Log) run() {
	defer close(l.stopped)
	for {
		select {
		case req := <-l.requests:
			req.done <- l.write(req.record)
		case <-l.stop:
			return
		}
	}
}

func (l *Log) write(record Record) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(record.row()); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}
