package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/cache"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/claims"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/config"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/db"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/gate"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/idf"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/llm"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/logger"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/matching"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/metrics"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/ontology"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/pipeline"
	"github.com/matsha05/recruiter-in-your-pocket-sub007/internal/verify"
)

// app holds what every command shares: configuration, logging, metrics,
// and the resources to release on exit.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	closers  []func()
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &app{
		cfg:      cfg,
		log:      log,
		registry: registry,
		metrics:  metrics.New(registry),
	}, nil
}

// Close releases resources in reverse acquisition order
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.log.Sync()
}

func (a *app) client(ctx context.Context) (*llm.GeminiClient, error) {
	if err := a.cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	client, err := llm.NewClient(ctx, a.cfg.LLM.ModelConfig(), a.cfg.LLM.APIKey, a.log)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	return client, nil
}

// persistentTiers connects the configured cache tiers, fastest first.
// An unreachable tier is logged and skipped: the cache only saves calls.
func (a *app) persistentTiers(ctx context.Context) []cache.Store {
	var tiers []cache.Store

	if a.cfg.Cache.RedisAddr != "" {
		store, err := cache.NewRedisStore(ctx, a.cfg.Cache.RedisConfig())
		if err != nil {
			a.log.Warn("redis cache tier unavailable", zap.String("addr", a.cfg.Cache.RedisAddr), zap.Error(err))
		} else {
			a.closers = append(a.closers, func() { _ = store.Close() })
			tiers = append(tiers, store)
		}
	}

	if a.cfg.Cache.DatabaseURL != "" {
		database, err := db.Connect(ctx, a.cfg.Cache.DatabaseURL)
		if err != nil {
			a.log.Warn("postgres cache tier unavailable", zap.Error(err))
			return tiers
		}
		if err := database.EnsureSchema(ctx); err != nil {
			a.log.Warn("postgres cache tier unavailable", zap.Error(err))
			database.Close()
			return tiers
		}
		a.closers = append(a.closers, database.Close)
		tiers = append(tiers, database.Extractions())
	}

	return tiers
}

func (a *app) extractor(ctx context.Context, client llm.Client) *claims.Extractor {
	return claims.NewExtractor(client, claims.Options{
		MaxInputChars: a.cfg.Extraction.MaxInputChars,
		Cache:         claims.NewCache(a.log, a.metrics, a.persistentTiers(ctx)...),
		Logger:        a.log,
		Metrics:       a.metrics,
	})
}

// engine wires the full scoring pipeline. Ontology and IDF artifacts are
// optional, but a configured artifact that fails to load is fatal.
func (a *app) engine(ctx context.Context, client *llm.GeminiClient, onProgress pipeline.ProgressCallback) (*pipeline.Engine, error) {
	var store *ontology.Store
	if a.cfg.Ontology.Path != "" {
		s, err := ontology.Load(a.cfg.Ontology.Path)
		if err != nil {
			return nil, err
		}
		store = s
		a.log.Info("loaded ontology", zap.Int("entries", s.Len()), zap.Int("dimension", s.Dimension()))
	}

	var index *idf.Index
	if a.cfg.IDF.Path != "" {
		idx, err := idf.Load(a.cfg.IDF.Path)
		if err != nil {
			return nil, err
		}
		index = idx
		a.log.Info("loaded idf index", zap.Int("documents", idx.Documents()))
	}

	var verifier *verify.Verifier
	if a.cfg.Verifier.Enabled {
		verifier = verify.NewVerifier(client, a.cfg.Verifier.MaxConcurrent, a.log, a.metrics)
	}

	weights := a.cfg.Scoring
	return pipeline.New(pipeline.Options{
		Extractor:  a.extractor(ctx, client),
		Embedder:   client,
		Matcher:    matching.NewMatcher(store, index, a.cfg.Matching.Thresholds(), a.log),
		Verifier:   verifier,
		Gate:       gate.New(a.cfg.Gate),
		Weights:    &weights,
		Logger:     a.log,
		Metrics:    a.metrics,
		OnProgress: onProgress,
	})
}

// serveMetrics exposes the registry on addr until the app closes
func (a *app) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.log.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("metrics server failed", zap.Error(err))
		}
	}()

	a.closers = append(a.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
}
