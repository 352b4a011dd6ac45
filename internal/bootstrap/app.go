package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"cvgen-backend/cv/render"
	"cvgen-backend/internal/auditlog"
	"cvgen-backend/internal/cvgen"
	"cvgen-backend/internal/extraction"
	"cvgen-backend/internal/generations"
	"cvgen-backend/internal/llm"
	"cvgen-backend/internal/llm/gemini"
	openai "cvgen-backend/internal/llm/openai"
	"cvgen-backend/internal/queue"
	"cvgen-backend/internal/services/health"
	"cvgen-backend/internal/shared/config"
	"cvgen-backend/internal/shared/server"
	"cvgen-backend/internal/shared/storage/db"
	"cvgen-backend/internal/shared/storage/object"
	localstore "cvgen-backend/internal/shared/storage/object/local"
	s3store "cvgen-backend/internal/shared/storage/object/s3"
	"cvgen-backend/internal/transcription"
)

const defaultOpenAIModel = "gpt-4o-mini"

// connectDB is replaced in tests.
var connectDB = buildDB

// App holds shared dependencies.
type App struct {
	Config    config.Config
	Router    *gin.Engine
	DB        *sql.DB
	Archive   object.ObjectStore
	Events    queue.Client
	Audit     *auditlog.Log
	Repo      generations.Repo
	Service   *cvgen.Service
	CVHandler *cvgen.Handler
	Health    *health.Service
}

// Build wires the pipeline and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := connectDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	closeDB := func() {
		if sqlDB != nil && !db.IsLambdaRuntime() {
			_ = sqlDB.Close()
		}
	}

	archive, err := buildArchive(ctx, cfg)
	if err != nil {
		closeDB()
		return nil, err
	}

	events, err := buildQueue(ctx, cfg)
	if err != nil {
		closeDB()
		return nil, err
	}

	audit, err := auditlog.Open(cfg.AuditLogPath)
	if err != nil {
		closeDB()
		return nil, err
	}

	completer, err := buildCompleter(ctx, cfg)
	if err != nil {
		_ = audit.Close()
		closeDB()
		return nil, err
	}

	var repo generations.Repo
	if sqlDB != nil {
		repo = &generations.PGRepo{DB: sqlDB}
	} else {
		repo = generations.NewMemoryRepo()
	}

	svc := &cvgen.Service{
		Transcriber: transcription.NewService(transcriptionFactory(cfg), cfg.TranscribeLanguage, cfg.TranscribeTimeout),
		Extractor:   extraction.New(completer, cfg.LLMTimeout),
		Renderer:    render.NewRenderer(),
		Audit:       audit,
		OutputDir:   cfg.OutputDir,
		Repo:        repo,
		Archive:     archive,
		Events:      events,
	}

	healthSvc := health.NewService()
	if sqlDB != nil {
		healthSvc.Register("database", sqlDB.PingContext)
	}
	healthSvc.Register("output_dir", func(ctx context.Context) error {
		return os.MkdirAll(cfg.OutputDir, 0o755)
	})
	healthSvc.Register("audit_log", func(ctx context.Context) error {
		return os.MkdirAll(filepath.Dir(audit.Path()), 0o755)
	})

	app := &App{
		Config:    cfg,
		DB:        sqlDB,
		Archive:   archive,
		Events:    events,
		Audit:     audit,
		Repo:      repo,
		Service:   svc,
		CVHandler: cvgen.NewHandler(svc, cfg.MaxUploadBytes, cfg.ExposeErrorDetails),
		Health:    healthSvc,
	}
	app.CVHandler.ServeGenerations = cfg.GenerationsAPI
	app.Router = server.NewRouter(server.RouterDeps{
		Config:    cfg,
		CVHandler: app.CVHandler,
		Health:    healthSvc,
	})

	return app, nil
}

// Close flushes the audit log and releases the database pool.
func (a *App) Close() error {
	var firstErr error
	if a.Audit != nil {
		firstErr = a.Audit.Close()
	}
	if a.DB != nil && !db.IsLambdaRuntime() {
		if err := a.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		log.Printf("bootstrap: DATABASE_URL empty; using in-memory generations repository")
		return nil, nil
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory generations repository: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if isDevLike(cfg.Env) {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	return sqlDB, nil
}

func buildArchive(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ArchiveStore {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("ARCHIVE_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "local":
		return localstore.New(cfg.LocalStoreDir), nil
	default:
		return nil, nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.EventQueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.EventQueueURL)
}

// transcriptionFactory builds the engine selected by TRANSCRIBE_PROVIDER.
func transcriptionFactory(cfg config.Config) transcription.EngineFactory {
	return func() (transcription.Engine, error) {
		switch cfg.TranscribeProvider {
		case "openai":
			return openai.NewTranscriber(cfg.OpenAIAPIKey, cfg.TranscribeModel, cfg.TranscribeTimeout)
		case "gemini":
			return gemini.New(context.Background(), gemini.Config{
				APIKey: cfg.GeminiAPIKey,
				Model:  cfg.TranscribeModel,
			})
		case "", "whispercpp":
			return openai.NewWhisperServerTranscriber(cfg.WhisperServerURL, cfg.TranscribeTimeout)
		default:
			return nil, fmt.Errorf("unsupported TRANSCRIBE_PROVIDER %q", cfg.TranscribeProvider)
		}
	}
}

func buildCompleter(ctx context.Context, cfg config.Config) (llm.Completer, error) {
	switch cfg.LLMProvider {
	case "gemini":
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			log.Printf("bootstrap: GEMINI_API_KEY empty; extraction requests will fail")
			return llm.PlaceholderClient{}, nil
		}
		return gemini.New(ctx, gemini.Config{APIKey: cfg.GeminiAPIKey, Model: cfg.LLMModel})
	case "openai":
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			log.Printf("bootstrap: OPENAI_API_KEY empty; extraction requests will fail")
			return llm.PlaceholderClient{}, nil
		}
		model := cfg.LLMModel
		if strings.TrimSpace(model) == "" {
			model = defaultOpenAIModel
		}
		return openai.NewPromptClient(cfg.OpenAIAPIKey, model, cfg.LLMTimeout)
	case "", "none":
		return llm.PlaceholderClient{}, nil
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
