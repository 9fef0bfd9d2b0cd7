package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"openlabel-backend/internal/analysis"
	"openlabel-backend/internal/callclient"
	"openlabel-backend/internal/images"
	"openlabel-backend/internal/llm"
	"openlabel-backend/internal/llm/openrouter"
	"openlabel-backend/internal/ocr"
	"openlabel-backend/internal/products"
	"openlabel-backend/internal/reports"
	"openlabel-backend/internal/shared/auth"
	"openlabel-backend/internal/shared/config"
	"openlabel-backend/internal/shared/server"
	"openlabel-backend/internal/shared/storage/db"
	"openlabel-backend/internal/shared/storage/object"
	localstore "openlabel-backend/internal/shared/storage/object/local"
	s3store "openlabel-backend/internal/shared/storage/object/s3"
	"openlabel-backend/internal/usage"
)

const externalCallTimeout = 120 * time.Second

// App holds shared dependencies and the wired router.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	UsageService    *usage.Service
	Calls           *callclient.Client
	Images          *images.Store
	Recognizer      ocr.Recognizer
	LLM             llm.Client
	AnalysisService *analysis.Service
	ReportsService  *reports.Service
	ProductsService *products.Service

	closers []func() error
}

// Build prepares dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, DB: sqlDB, Store: store}
	if err := buildServices(ctx, app); err != nil {
		return nil, err
	}

	verifier, err := auth.NewVerifier(cfg.JWTSecret, cfg.Env)
	if err != nil {
		return nil, err
	}

	var files object.ObjectStore
	if cfg.ObjectStoreType == "local" {
		files = store
	}
	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		Verifier:        verifier,
		AnalysisHandler: analysis.NewHandler(app.AnalysisService, app.Recognizer.Name(), hasOCRKeys(cfg.OCR)),
		ReportsHandler:  reports.NewHandler(app.ReportsService),
		ProductsHandler: products.NewHandler(app.ProductsService, app.Recognizer.Name()),
		UsageHandler:    usage.NewHandler(app.UsageService),
		Files:           files,
	})
	return app, nil
}

// Close releases connections opened by Build.
func (a *App) Close() error {
	var firstErr error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using object and in-memory stores")
			return nil, nil
		}
		if cfg.ReportStore == "postgres" || cfg.UsageStore == "postgres" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
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
			log.Printf("bootstrap: database connect failed; using object and in-memory stores: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.AWSRegion) == "" || strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires AWS_REGION and S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID, cfg.ImageURLTTL)
	default:
		return localstore.New(cfg.LocalStoreDir, cfg.PublicBaseURL), nil
	}
}

func buildUsage(app *App) (*usage.Service, error) {
	cfg := app.Config
	loc, err := time.LoadLocation(cfg.UsageTimezone)
	if err != nil {
		log.Printf("bootstrap: USAGE_TIMEZONE %q invalid, using UTC: %v", cfg.UsageTimezone, err)
		loc = time.UTC
	}
	limits := map[string]int{
		usage.CategoryOCR: cfg.OCR.DailyLimit,
		usage.CategoryLLM: cfg.LLM.DailyLimit,
	}

	var store usage.Store
	switch {
	case cfg.UsageStore == "redis":
		redisStore, err := usage.NewRedisStore(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("usage redis store: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisStore.Ping(pingCtx); err != nil {
			_ = redisStore.Close()
			return nil, fmt.Errorf("usage redis ping: %w", err)
		}
		app.closers = append(app.closers, redisStore.Close)
		store = redisStore
	case cfg.UsageStore == "postgres" && app.DB != nil:
		store = usage.NewPGStore(app.DB)
	default:
		store = usage.NewMemoryStore()
	}
	return usage.NewService(store, limits, loc), nil
}

func buildReportsRepo(app *App) reports.Repo {
	switch {
	case app.Config.ReportStore == "postgres" && app.DB != nil:
		return reports.NewPGRepo(app.DB)
	case app.Config.ReportStore == "memory":
		return reports.NewMemoryRepo()
	default:
		return reports.NewObjectRepo(app.Store)
	}
}

func buildRecognizer(app *App) (ocr.Recognizer, error) {
	cfg := app.Config.OCR
	deps := ocr.Deps{Calls: app.Calls, Images: app.Images}
	rec, err := ocr.New(cfg, deps)
	if err == nil {
		return rec, nil
	}
	if !isDevLike(app.Config.Env) || cfg.Backend == ocr.BackendTesseract {
		return nil, err
	}
	log.Printf("bootstrap: %s recognizer unavailable, falling back to tesseract: %v", cfg.Backend, err)
	cfg.Backend = ocr.BackendTesseract
	return ocr.New(cfg, deps)
}

func buildLLM(app *App) (llm.Client, error) {
	cfg := app.Config.LLM
	if strings.TrimSpace(cfg.APIKey) == "" {
		log.Printf("bootstrap: LLM_API_KEY empty; product checks disabled")
		return llm.PlaceholderClient{}, nil
	}
	return openrouter.NewClient(openrouter.Config{
		APIURL: cfg.APIURL,
		APIKey: cfg.APIKey,
		Model:  cfg.Model,
		Policy: callclient.Policy{
			MaxAttempts: cfg.MaxAttempts,
			Delay:       cfg.RetryDelay,
			Backoff:     callclient.BackoffFixed,
		},
	}, app.Calls)
}

func buildServices(ctx context.Context, app *App) error {
	if app.DB != nil {
		if err := db.RunMigrations(ctx, app.DB); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	usageSvc, err := buildUsage(app)
	if err != nil {
		return err
	}
	app.UsageService = usageSvc
	app.Calls = callclient.New(&http.Client{Timeout: externalCallTimeout}, usageSvc)
	app.Images = images.New(app.Store)

	rec, err := buildRecognizer(app)
	if err != nil {
		return err
	}
	app.Recognizer = rec

	llmClient, err := buildLLM(app)
	if err != nil {
		return err
	}
	app.LLM = llmClient

	app.AnalysisService = analysis.NewService(rec, app.Images)
	app.ReportsService = reports.NewService(buildReportsRepo(app))
	app.ProductsService = products.NewService(rec, llmClient, app.Images)
	return nil
}

func hasOCRKeys(cfg config.OCRConfig) bool {
	return strings.TrimSpace(cfg.Key) != "" && strings.TrimSpace(cfg.Endpoint) != ""
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
