// Command server runs the secure RAG question-answering HTTP service.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/cortexguard/secure-rag/pkg/config"
	"github.com/cortexguard/secure-rag/pkg/logging"
	"github.com/cortexguard/secure-rag/services/cache"
	"github.com/cortexguard/secure-rag/services/classifier"
	"github.com/cortexguard/secure-rag/services/detector"
	"github.com/cortexguard/secure-rag/services/embedding"
	"github.com/cortexguard/secure-rag/services/ingest"
	"github.com/cortexguard/secure-rag/services/lexical"
	"github.com/cortexguard/secure-rag/services/llm"
	"github.com/cortexguard/secure-rag/services/metrics"
	"github.com/cortexguard/secure-rag/services/orchestrator"
	"github.com/cortexguard/secure-rag/services/orchestrator/routes"
	"github.com/cortexguard/secure-rag/services/retrieval"
	"github.com/cortexguard/secure-rag/services/security"
	"github.com/cortexguard/secure-rag/services/tracing"
	"github.com/cortexguard/secure-rag/services/vectorindex"
)

func main() {
	started := time.Now()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config: "+err.Error())
		os.Exit(1)
	}

	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.LogLevel),
		Service: "secure-rag",
		JSON:    true,
	})
	defer logger.Close()
	slogLogger := logger.Slog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, "secure-rag", cfg.TracingEnabled)
	if err != nil {
		slogLogger.Error("tracing init failed", "error", err)
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	det, err := detector.New()
	if err != nil {
		slogLogger.Error("detector init failed", "error", err)
		os.Exit(1)
	}
	clf := classifier.New(det)
	sec := security.New(clf)
	qc := cache.New(cfg.CacheTTL, cfg.CacheMaxSize)

	var embedder embedding.Provider
	if cfg.EmbeddingServiceURL != "" {
		embedder = embedding.NewHTTPProvider(cfg.EmbeddingServiceURL)
	} else {
		embedder = embedding.NewLocalProvider()
	}

	vidx := vectorindex.New()
	lidx := lexical.New()
	if err := vidx.Load(filepath.Join(cfg.IndexDir, "vectors.json")); err != nil {
		slogLogger.Info("no existing index snapshot, starting empty", "error", err)
	}

	retriever := retrieval.New(vidx, lidx, embedder)
	contextBuilder := retrieval.NewContextBuilder(os.Getenv("DOCS_BASE_URL"))

	var llmClient llm.Client
	if err := cfg.OpenAPIKey(func(key string) error {
		llmClient = llm.NewDeepSeekClient(key, cfg.DeepSeekModel, cfg.DeepSeekURL)
		return nil
	}); err != nil {
		slogLogger.Error("failed to open DeepSeek API key", "error", err)
		os.Exit(1)
	}

	pipeline := ingest.New(cfg.DocsRoot, cfg.IndexDir, cfg.ChunkSize, cfg.ChunkOverlap, embedder, vidx, lidx)

	o := orchestrator.New(sec, qc, retriever, contextBuilder, llmClient, cfg.TopK, cfg.RelevanceThreshold)
	ready := orchestrator.NewReadiness()

	reg := metrics.New(prometheus.DefaultRegisterer)
	o.SetMetrics(reg)

	watcher, err := ingest.NewDocWatcher(cfg.DocsRoot, func() {
		if _, err := pipeline.Run(context.Background()); err != nil {
			slogLogger.Error("re-ingestion after doc change failed", "error", err)
		}
	})
	if err != nil {
		slogLogger.Warn("doc watcher unavailable", "error", err)
	} else {
		watcher.Start(ctx)
		defer watcher.Stop()
	}

	go ready.Init(func() error {
		result, err := pipeline.Run(ctx)
		if err != nil {
			return fmt.Errorf("initial ingestion: %w", err)
		}
		slogLogger.Info("initial ingestion complete", "documents", result.Documents, "skipped", len(result.Skipped))
		return nil
	})

	router := gin.New()
	router.Use(gin.Recovery(), otelgin.Middleware("secure-rag"))
	routes.SetupRoutes(router, o, ready, sec, qc, vidx, pipeline, reg, cfg.AllowedOrigins, started)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		slogLogger.Info("listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slogLogger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slogLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slogLogger.Error("graceful shutdown failed", "error", err)
	}
}
