package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"document-ingest/internal/documents"
	"document-ingest/internal/extract"
	"document-ingest/internal/inference"
	"document-ingest/internal/inference/bedrock"
	"document-ingest/internal/inference/local"
	"document-ingest/internal/inference/openai"
	"document-ingest/internal/ingest"
	"document-ingest/internal/shared/config"
	"document-ingest/internal/shared/server"
	"document-ingest/internal/shared/storage/db"
	"document-ingest/internal/shared/storage/object"
	localstore "document-ingest/internal/shared/storage/object/local"
	miniostore "document-ingest/internal/shared/storage/object/minio"
	s3store "document-ingest/internal/shared/storage/object/s3"
	"document-ingest/internal/shared/telemetry"
	"document-ingest/internal/summary"
)

// App holds every dependency, built once per process.
type App struct {
	Config           config.Config
	DB               *sql.DB
	Store            object.ObjectStore
	Inference        inference.Client
	Records          documents.Repo
	Pipeline         *ingest.Pipeline
	Dispatcher       *ingest.Dispatcher
	DocumentsHandler *documents.Handler
	Router           *gin.Engine
}

// Build validates cfg and constructs the pipeline and diagnostics router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client, err := buildInference(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, records, err := buildRecords(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:    cfg,
		DB:        sqlDB,
		Store:     store,
		Inference: client,
		Records:   records,
	}
	app.Pipeline = newPipeline(app)
	app.Dispatcher = ingest.NewDispatcher(app.Pipeline)
	app.DocumentsHandler = documents.NewHandler(records)
	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		DocumentHandler: app.DocumentsHandler,
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"object_store": cfg.ObjectStoreType,
		"inference":    cfg.InferenceProvider,
		"record_store": cfg.RecordStoreType,
		"model":        cfg.ModelID,
	})
	return app, nil
}

// Close releases the database pool, if any.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func newPipeline(app *App) *ingest.Pipeline {
	direct := &extract.DirectDecoder{Store: app.Store}
	return &ingest.Pipeline{
		Metadata: &ingest.MetadataFetcher{Store: app.Store},
		Extractor: &extract.Extractor{
			Direct: direct,
			Vision: &extract.VisionExtractor{
				Store:    app.Store,
				Client:   app.Inference,
				ModelID:  app.Config.ModelID,
				Fallback: direct,
			},
		},
		Summarizer: &summary.Summarizer{Client: app.Inference, ModelID: app.Config.ModelID},
		Writer:     &ingest.RecordWriter{Repo: app.Records},
	}
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "minio":
		return miniostore.New(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL, cfg.S3Bucket)
	case "local":
		return localstore.New(cfg.LocalStoreDir), nil
	default:
		return s3store.New(ctx, cfg.AWSRegion)
	}
}

func buildInference(ctx context.Context, cfg config.Config) (inference.Client, error) {
	var base inference.Client
	switch cfg.InferenceProvider {
	case "openai":
		client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.ModelID, cfg.OpenAITimeout)
		if err != nil {
			return nil, err
		}
		base = client
	case "local":
		base = local.New()
	default:
		client, err := bedrock.New(ctx, cfg.AWSRegion, cfg.ModelID)
		if err != nil {
			return nil, err
		}
		base = client
	}
	return inference.Instrumented(base), nil
}

func buildRecords(ctx context.Context, cfg config.Config) (*sql.DB, documents.Repo, error) {
	switch cfg.RecordStoreType {
	case "memory":
		return nil, documents.NewMemoryRepo(), nil
	case "postgres":
		sqlDB, err := connectDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return sqlDB, &documents.PGRepo{DB: sqlDB}, nil
	default:
		repo, err := documents.NewDynamoRepo(ctx, cfg.AWSRegion, cfg.DynamoTable)
		if err != nil {
			return nil, nil, err
		}
		return nil, repo, nil
	}
}

func connectDB(ctx context.Context, databaseURL string) (*sql.DB, error) {
	profile := db.RuntimeProfile()
	connect := db.Connect
	if profile == db.ProfileLambda {
		connect = db.Shared
	}
	sqlDB, err := connect(ctx, databaseURL, db.OptionsFor(profile))
	if err != nil {
		return nil, fmt.Errorf("connect record database: %w", err)
	}
	return sqlDB, nil
}

// MustBuild loads config from the environment and exits the process when
// the dependencies cannot be built.
func MustBuild(ctx context.Context) *App {
	cfg := config.Load()
	telemetry.Configure(cfg.Env)
	app, err := Build(ctx, cfg)
	if err != nil {
		telemetry.Error("bootstrap.failed", map[string]any{"error": err.Error()})
		telemetry.Sync()
		os.Exit(1)
	}
	return app
}
