package auditlog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return rows
}

func TestAppendWritesRowsInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "test_logs.csv")
	log, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer log.Close()

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	records := []Record{
		{Timestamp: ts, Name: "Alice", Email: "alice@example.com", Source: SourceFromText, Path: "data/output/a.docx"},
		{Timestamp: ts, Name: "Bob, Jr", Email: "", Source: SourceFromText, Path: "data/output/b.docx"},
	}
	for _, r := range records {
		if err := log.Append(context.Background(), r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	rows := readRows(t, path)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	want := []string{"2026-01-02T03:04:05Z", "Alice", "alice@example.com", "from_text", "data/output/a.docx"}
	for i, v := range want {
		if rows[0][i] != v {
			t.Fatalf("column %d: got %q want %q", i, rows[0][i], v)
		}
	}
	if rows[1][1] != "Bob, Jr" {
		t.Fatalf("expected quoted name to round-trip, got %q", rows[1][1])
	}
}

func TestAppendConcurrentRowsAreWhole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	log, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer log.Close()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := log.Append(context.Background(), Record{
				Name:   fmt.Sprintf("user-%d", i),
				Email:  fmt.Sprintf("user-%d@example.com", i),
				Source: SourceFromText,
				Path:   fmt.Sprintf("out/%d.docx", i),
			})
			if err != nil {
				t.Errorf("append %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	rows := readRows(t, path)
	if len(rows) != n {
		t.Fatalf("expected %d rows, got %d", n, len(rows))
	}
	for _, row := range rows {
		if len(row) != 5 {
			t.Fatalf("expected 5 columns, got %v", row)
		}
	}
}

func TestAppendFailsWhenPathIsDirectory(t *testing.T) {
	dir := t.TempDir()
	log, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer log.Close()

	if err := log.Append(context.Background(), Record{Name: "x"}); !errors.Is(err, ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}
}

func TestAppendAfterClose(t *testing.T) {
	log, err := Open(filepath.Join(t.TempDir(), "log.csv"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := log.Append(context.Background(), Record{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestAppendRecreatesRemovedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	path := filepath.Join(dir, "test_logs.csv")
	log, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer log.Close()

	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("remove dir: %v", err)
	}
	if err := log.Append(context.Background(), Record{Name: "Alice", Source: SourceFromText}); err != nil {
		t.Fatalf("append after removal: %v", err)
	}
	rows := readRows(t, path)
	if len(rows) != 1 || rows[0][1] != "Alice" {
		t.Fatalf("unexpected rows %v", rows)
	}
}
