package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devis_backend/internal/adapters"
	"devis_backend/internal/adapters/storage"
	"devis_backend/internal/assistant"
	"devis_backend/internal/catalog"
	"devis_backend/internal/clients"
	"devis_backend/internal/company"
	"devis_backend/internal/email"
	"devis_backend/internal/events"
	"devis_backend/internal/feedback"
	apphttp "devis_backend/internal/http"
	"devis_backend/internal/http/router"
	"devis_backend/internal/notification"
	"devis_backend/internal/pdf"
	"devis_backend/internal/quotes"
	"devis_backend/internal/scheduler"
	"devis_backend/internal/uploads"
	"devis_backend/migrations"
	"devis_backend/platform/ai/openaicompat"
	"devis_backend/platform/config"
	"devis_backend/platform/db"
	"devis_backend/platform/logger"
	"devis_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

const storageBucketEnsureErrPrefix = "failed to ensure storage bucket exists: "
const storageBucketEnsureErrMsg = "failed to ensure storage bucket exists"

// ensureBucket wraps the retry logic for verifying a MinIO bucket exists.
func ensureBucket(ctx context.Context, log *logger.Logger, storageSvc storage.StorageService, name, bucket string) {
	if err := withRetry(ctx, log, "ensure "+name+" bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error(storageBucketEnsureErrMsg, "error", err, "bucket", bucket)
		panic(storageBucketEnsureErrPrefix + err.Error())
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	emailQueue, closeQueue := initEmailQueue(cfg, log)
	if closeQueue != nil {
		defer closeQueue()
	}

	sender, err := email.NewSender(cfg, log)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	storageSvc := initStorage(ctx, cfg, log)

	themes, err := pdf.LoadThemes(cfg.GetPDFThemesFile())
	if err != nil {
		log.Error("failed to load pdf themes", "error", err)
		panic("failed to load pdf themes: " + err.Error())
	}
	renderer := pdf.NewRenderer(themes)

	// Shared validator instance; quote themes are validated against the loaded set
	val := validator.New(themes.Names()...)

	quoteAssistant, priceExtractor := initAssistant(cfg, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(sender, cfg, log)
	if emailQueue != nil {
		notificationModule.SetEmailQueue(emailQueue)
	}
	notificationModule.RegisterHandlers(eventBus)

	companyModule := company.NewModule(pool, storageSvc, cfg.GetMinioBucketLogos(), cfg, eventBus, val, log)
	clientsModule := clients.NewModule(pool, val, log)
	catalogModule := catalog.NewModule(pool, priceExtractor, val, log)
	quotesModule := quotes.NewModule(pool, quoteAssistant, renderer, val, log)
	uploadsModule := uploads.NewModule(storageSvc, cfg.GetMinioBucketUploads(), log)
	feedbackModule := feedback.NewModule(pool, eventBus, cfg, val, log)

	quotesSvc := quotesModule.Service()
	quotesSvc.SetClientDirectory(adapters.NewQuotesClientDirectory(clientsModule.Service()))
	quotesSvc.SetIssuerReader(adapters.NewQuotesIssuerReader(companyModule.Service(), log))
	quotesSvc.SetPriceListReader(adapters.NewQuotesPriceListReader(catalogModule.Service()))
	quotesSvc.SetEventBus(eventBus)
	quotesSvc.SetMailer(sender)
	if storageSvc != nil {
		quotesSvc.SetPDFStorage(storageSvc, cfg.GetMinioBucketQuotePDFs())
	}
	if emailQueue != nil {
		quotesSvc.SetEmailQueue(emailQueue)
	}

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			companyModule,
			clientsModule,
			catalogModule,
			quotesModule,
			uploadsModule,
			feedbackModule,
		},
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initStorage returns nil when MinIO is not configured; uploads then answer
// 503 and quote PDFs travel inline.
func initStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) storage.StorageService {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; uploads and stored PDFs disabled")
		return nil
	}
	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	ensureBucket(ctx, log, storageSvc, "uploads", cfg.GetMinioBucketUploads())
	ensureBucket(ctx, log, storageSvc, "logos", cfg.GetMinioBucketLogos())
	ensureBucket(ctx, log, storageSvc, "quote-pdfs", cfg.GetMinioBucketQuotePDFs())
	log.Info(
		"storage service initialized",
		"uploadsBucket", cfg.GetMinioBucketUploads(),
		"logosBucket", cfg.GetMinioBucketLogos(),
		"quotePDFsBucket", cfg.GetMinioBucketQuotePDFs(),
	)
	return storageSvc
}

func initAssistant(cfg *config.Config, log *logger.Logger) (assistant.QuoteAssistant, assistant.PriceListExtractor) {
	if !cfg.IsLLMEnabled() {
		log.Warn("LLM_API_KEY not configured; chat answers with the fallback message")
		return assistant.Unconfigured{}, assistant.Unconfigured{}
	}

	llmCfg := openaicompat.Config{
		APIKey:  cfg.GetLLMAPIKey(),
		BaseURL: cfg.GetLLMBaseURL(),
		Model:   cfg.GetLLMModel(),
		Timeout: cfg.GetLLMTimeout(),
	}
	agent, err := assistant.NewQuoteAgentFromConfig(llmCfg, log)
	if err != nil {
		log.Error("failed to initialize quote agent", "error", err)
		panic("failed to initialize quote agent: " + err.Error())
	}
	extractor, err := assistant.NewExtractorFromConfig(llmCfg, log)
	if err != nil {
		log.Error("failed to initialize price list extractor", "error", err)
		panic("failed to initialize price list extractor: " + err.Error())
	}
	log.Info("assistant initialized", "model", cfg.GetLLMModel(), "baseUrl", cfg.GetLLMBaseURL())
	return agent, extractor
}

func initEmailQueue(cfg config.SchedulerConfig, log *logger.Logger) (scheduler.EmailQueue, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; emails are sent inline")
		return nil, nil
	}

	queueClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize email queue client", "error", err)
		return nil, nil
	}

	return queueClient, func() {
		_ = queueClient.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
