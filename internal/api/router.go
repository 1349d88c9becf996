package api

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/Harshitk-cp/groundwork/internal/api/handlers"
	mw "github.com/Harshitk-cp/groundwork/internal/api/middleware"
	"github.com/Harshitk-cp/groundwork/internal/buildconfig"
	"github.com/Harshitk-cp/groundwork/internal/config"
	"github.com/Harshitk-cp/groundwork/internal/domain"
	"github.com/Harshitk-cp/groundwork/internal/embedding"
	"github.com/Harshitk-cp/groundwork/internal/llm"
	"github.com/Harshitk-cp/groundwork/internal/rerank"
	"github.com/Harshitk-cp/groundwork/internal/service"
	"github.com/Harshitk-cp/groundwork/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Pinger reports database liveness for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the external collaborators of the app. Nil clients disable the
// features that need them.
type Deps struct {
	DB        Pinger
	Arguments domain.ArgumentStore
	Seeds     domain.SeedSource
	Chunks    domain.ChunkStore
	Vectors   domain.VectorSearcher
	Embedder  domain.EmbeddingClient
	LLM       domain.LLMClient
	Reranker  domain.Reranker
}

type Options struct {
	APIKeys           []string
	RateLimitRPS      float64
	RateLimitBurst    int
	SeedCacheCapacity int
	VerifyQuotes      bool
	ChunkCacheTTL     time.Duration
	RetrievalTopK     int
	SeedRefreshEvery  time.Duration
}

// OptionsFromConfig reads Options from the environment.
func OptionsFromConfig() Options {
	return Options{
		APIKeys:           config.APIKeys(),
		RateLimitRPS:      config.RateLimitRPS(),
		RateLimitBurst:    config.RateLimitBurst(),
		SeedCacheCapacity: config.SeedCacheCapacity(),
		VerifyQuotes:      config.VerifyQuotes(),
		ChunkCacheTTL:     config.ChunkCacheTTL(),
		RetrievalTopK:     config.RetrievalTopK(),
		SeedRefreshEvery:  config.SeedRefreshInterval(),
	}
}

// App holds the router and the long-lived services for lifecycle management.
type App struct {
	Router    *chi.Mux
	Seeds     *service.SeedService
	Retrieval *service.RetrievalService
	Refresher *service.SeedRefresher

	chunks       *service.CachedChunkStore
	metrics      *mw.MetricsCollector
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

// NewApp wires Postgres-backed stores and configured providers.
func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	deps := Deps{
		DB:        db,
		Arguments: store.NewArgumentStore(db),
		Seeds:     store.NewSeedStore(db),
		Chunks:    store.NewChunkStore(db),
		Vectors:   store.NewVectorStore(db, logger),
	}

	var err error
	llmProvider := config.LLMProvider()
	deps.LLM, err = llm.NewClient(llmProvider, config.LLMAPIKey())
	if err != nil {
		logger.Warn("LLM client initialization failed", zap.String("provider", llmProvider), zap.Error(err))
	} else {
		logger.Info("LLM client initialized", zap.String("provider", llmProvider))
	}

	embeddingProvider := config.EmbeddingProvider()
	deps.Embedder, err = embedding.NewClient(embeddingProvider, config.EmbeddingAPIKey())
	if err != nil {
		logger.Warn("Embedding client initialization failed", zap.String("provider", embeddingProvider), zap.Error(err))
	} else {
		logger.Info("Embedding client initialized", zap.String("provider", embeddingProvider))
	}

	rerankProvider := config.RerankProvider()
	deps.Reranker, err = rerank.NewClient(rerankProvider, config.RerankURL(), config.RerankAPIKey(), config.RerankModel())
	if err != nil {
		logger.Warn("Reranker initialization failed", zap.String("provider", rerankProvider), zap.Error(err))
	} else {
		logger.Info("Reranker initialized", zap.String("provider", rerankProvider))
	}

	return Build(deps, OptionsFromConfig(), logger)
}

// Build assembles services, handlers and routes from deps.
func Build(deps Deps, opts Options, logger *zap.Logger) *App {
	if opts.RateLimitRPS <= 0 {
		opts.RateLimitRPS = 100
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = 20
	}

	// Services
	chunks := service.NewCachedChunkStore(deps.Chunks, opts.ChunkCacheTTL)

	argumentSvc := service.NewArgumentService(deps.Arguments, logger)
	argumentSvc.SetQuoteVerifier(chunks, opts.VerifyQuotes)

	seedSvc := service.NewSeedService(
		service.NewSeedCache(opts.SeedCacheCapacity),
		service.NewSeedLoader(deps.Seeds),
		logger,
	)

	gate := service.NewRerankGate()
	retrievalSvc := service.NewRetrievalService(deps.Embedder, deps.Vectors, gate, logger)
	retrievalSvc.SetSeedService(seedSvc)
	retrievalSvc.SetTopK(opts.RetrievalTopK)
	if deps.Reranker != nil {
		retrievalSvc.SetReranker(deps.Reranker)
	}

	var answerSvc *service.AnswerService
	if deps.LLM != nil {
		answerSvc = service.NewAnswerService(retrievalSvc, argumentSvc, deps.LLM, logger)
	}

	// Handlers
	argumentHandler := handlers.NewArgumentHandler(argumentSvc, logger)
	rerankHandler := handlers.NewRerankHandler(gate)
	seedHandler := handlers.NewSeedHandler(seedSvc, logger)
	retrievalHandler := handlers.NewRetrievalHandler(retrievalSvc, answerSvc, logger)

	r := chi.NewRouter()
	app := &App{
		Router:    r,
		Seeds:     seedSvc,
		Retrieval: retrievalSvc,
		Refresher: service.NewSeedRefresher(seedSvc, chunks, opts.SeedRefreshEvery, logger),
		chunks:    chunks,
		startTime: time.Now(),
	}
	app.metrics = mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(app.metrics.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(opts.RateLimitRPS, opts.RateLimitBurst))

	// No auth
	r.Get("/health", app.healthHandler(deps.DB))
	r.Get("/metrics", app.metricsHandler())
	r.Get("/version", versionHandler)

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(opts.APIKeys))

		// Argument graph
		r.Route("/claims", func(r chi.Router) {
			r.Post("/", argumentHandler.CreateClaim)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", argumentHandler.GetClaim)
				r.Get("/edges", argumentHandler.ListEdges)
				r.Post("/support", argumentHandler.LinkSupport)
				r.Post("/arguments", argumentHandler.LinkArgument)
			})
		})
		r.Route("/spans", func(r chi.Router) {
			r.Post("/", argumentHandler.CreateSpan)
			r.Get("/{id}", argumentHandler.GetSpan)
		})
		r.Route("/edges/{id}", func(r chi.Router) {
			r.Get("/", argumentHandler.GetEdge)
			r.Post("/approve", argumentHandler.ApproveEdge)
		})

		// Retrieval
		r.Post("/rerank/decide", rerankHandler.Decide)
		r.Get("/seed", seedHandler.Get)
		r.Post("/seed/refresh", seedHandler.Refresh)
		r.Post("/retrieve", retrievalHandler.Retrieve)
		r.Post("/answer", retrievalHandler.Answer)
	})

	return app
}

// WarmSeeds loads the global seed bundle. Failure leaves the cache not ready;
// requests retry the load on demand.
func (app *App) WarmSeeds(ctx context.Context) error {
	_, err := app.Seeds.GetOrLoadSeedBundle(ctx, "")
	return err
}

func (app *App) healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seedReady := app.Seeds.Cache().IsReady()
		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]any{
					"status":     "error",
					"error":      err.Error(),
					"seed_ready": seedReady,
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "seed_ready": seedReady})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)
		clientErrors, serverErrors := app.metrics.ErrorBreakdown()

		writeJSON(w, http.StatusOK, map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"client_errors":  clientErrors,
			"server_errors":  serverErrors,
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"seed_cache":     app.Seeds.Cache().Stats(),
			"chunk_cache":    map[string]int{"entries": app.chunks.Len()},
			"rerank_reasons": app.Retrieval.ReasonCounts(),
			"go_version":     runtime.Version(),
		})
	}
}

func versionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildconfig.Get())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.ArgumentStore   = (*store.ArgumentStore)(nil)
	_ domain.ArgumentStore   = (*store.MemoryArgumentStore)(nil)
	_ domain.SeedSource      = (*store.SeedStore)(nil)
	_ domain.ChunkStore      = (*store.ChunkStore)(nil)
	_ domain.ChunkStore      = (*service.CachedChunkStore)(nil)
	_ domain.VectorSearcher  = (*store.VectorStore)(nil)
	_ domain.EmbeddingClient = (*embedding.OpenAIClient)(nil)
	_ domain.EmbeddingClient = (*embedding.MockClient)(nil)
	_ domain.LLMClient       = (*llm.OpenAIClient)(nil)
	_ domain.LLMClient       = (*llm.AnthropicClient)(nil)
	_ domain.LLMClient       = (*llm.MockClient)(nil)
	_ domain.Reranker        = (*rerank.HTTPClient)(nil)
	_ domain.Reranker        = (*rerank.MockReranker)(nil)
	_ Pinger                 = (*pgxpool.Pool)(nil)
)
