package cvgen

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cvgen-backend/cv/model"
	"cvgen-backend/cv/render"
	"cvgen-backend/internal/auditlog"
	"cvgen-backend/internal/generations"
	"cvgen-backend/internal/queue"
)

type mockTranscriber struct{ mock.Mock }

func (m *mockTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	args := m.Called(ctx, audioPath)
	return args.String(0), args.Error(1)
}

type mockExtractor struct{ mock.Mock }

func (m *mockExtractor) Extract(ctx context.Context, freeText string) (model.CV, error) {
	args := m.Called(ctx, freeText)
	return args.Get(0).(model.CV), args.Error(1)
}

type mockRenderer struct{ mock.Mock }

func (m *mockRenderer) Render(cv model.CV, outputDir string) (string, error) {
	args := m.Called(cv, outputDir)
	return args.String(0), args.Error(1)
}

type mockAudit struct{ mock.Mock }

func (m *mockAudit) Append(ctx context.Context, record auditlog.Record) error {
	return m.Called(ctx, record).Error(0)
}

type mockRepo struct{ mock.Mock }

func (m *mockRepo) Create(ctx context.Context, gen generations.Generation) error {
	return m.Called(ctx, gen).Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (generations.Generation, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(generations.Generation), args.Error(1)
}

func (m *mockRepo) List(ctx context.Context, limit, offset int) ([]generations.Generation, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]generations.Generation), args.Error(1)
}

type recordingEvents struct {
	mu   sync.Mutex
	sent []queue.Message
	err  error
}

func (r *recordingEvents) Send(ctx context.Context, msg queue.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return r.err
}

type stubCompleter struct {
	out string
	err error
}

func (s stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return s.out, s.err
}

const aliceJSON = `{
  "identite": {"nom": null, "prenom": "Alice", "age": null, "ville": null, "email": "a@example.com", "telephone": null},
  "profil": "Capitaine d'équipe depuis 5 ans, je souhaite mettre mon leadership au service d'une entreprise.",
  "experiences": [{"poste": "Capitaine d'équipe", "organisation": null, "date_debut": null, "date_fin": null, "description": "Animation et motivation du groupe"}],
  "formations": [],
  "competences": {"techniques": [], "soft_skills": ["Leadership", "Esprit d'équipe"]},
  "langues": [],
  "centres_interet": []
}`

func aliceCV(t *testing.T) model.CV {
	t.Helper()
	var cv model.CV
	require.NoError(t, cv.UnmarshalJSON([]byte(aliceJSON)))
	cv.Normalize()
	return cv
}

type fixture struct {
	svc       *Service
	repo      *generations.MemoryRepo
	events    *recordingEvents
	audit     *auditlog.Log
	auditPath string
	outputDir string
}

// newFixture wires a Service with the real renderer, audit log and memory
// repository around the given transcriber and extractor.
func newFixture(t *testing.T, transcriber Transcriber, extractor Extractor) *fixture {
	t.Helper()
	dir := t.TempDir()
	auditPath := filepath.Join(dir, "data", "test_logs.csv")
	audit, err := auditlog.Open(auditPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = audit.Close() })

	repo := generations.NewMemoryRepo()
	events := &recordingEvents{}
	outputDir := filepath.Join(dir, "data", "output")
	return &fixture{
		svc: &Service{
			Transcriber: transcriber,
			Extractor:   extractor,
			Renderer:    render.NewRenderer(),
			Audit:       audit,
			OutputDir:   outputDir,
			Repo:        repo,
			Events:      events,
		},
		repo:      repo,
		events:    events,
		audit:     audit,
		auditPath: auditPath,
		outputDir: outputDir,
	}
}

func readAuditRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}
