package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/collabmatch/internal/config"
	"github.com/kailas-cloud/collabmatch/internal/db"
	dbRedis "github.com/kailas-cloud/collabmatch/internal/db/redis"
	"github.com/kailas-cloud/collabmatch/internal/domain"
	domprofile "github.com/kailas-cloud/collabmatch/internal/domain/profile"
	"github.com/kailas-cloud/collabmatch/internal/extract"
	"github.com/kailas-cloud/collabmatch/internal/metrics"
	"github.com/kailas-cloud/collabmatch/internal/repository/embcache"
	profilerepo "github.com/kailas-cloud/collabmatch/internal/repository/profile"
	"github.com/kailas-cloud/collabmatch/internal/retry"
	"github.com/kailas-cloud/collabmatch/internal/synth"
	geminiGen "github.com/kailas-cloud/collabmatch/internal/transport/gemini"
	openaiTransport "github.com/kailas-cloud/collabmatch/internal/transport/openai"
	"github.com/kailas-cloud/collabmatch/internal/usecase/classify"
	embeddinguc "github.com/kailas-cloud/collabmatch/internal/usecase/embedding"
	"github.com/kailas-cloud/collabmatch/internal/usecase/explain"
	generationuc "github.com/kailas-cloud/collabmatch/internal/usecase/generation"
	healthuc "github.com/kailas-cloud/collabmatch/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/collabmatch/internal/usecase/recommend"
)

// application is the composition root shared by every command.
type application struct {
	cfg       config.Config
	logger    *zap.Logger
	cache     db.Store // nil when no cache is configured
	profiles  *profilerepo.Store
	recommend *recommenduc.Service
	health    *healthuc.Service
	extractor *extract.Extractor
}

func newApplication(ctx context.Context, cfg config.Config, logger *zap.Logger) (*application, error) {
	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterGenerationMetrics()

	a := &application{cfg: cfg, logger: logger}

	if cfg.Cache.Enabled() {
		cache, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:        cfg.Cache.Addrs,
			Username:     cfg.Cache.Username,
			Password:     cfg.Cache.Password,
			DB:           cfg.Cache.DB,
			WriteTimeout: time.Duration(cfg.Cache.WriteTimeoutMs) * time.Millisecond,
		})
		if err != nil {
			return nil, fmt.Errorf("create cache store: %w", err)
		}
		if err := cache.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			cache.Close()
			return nil, fmt.Errorf("cache not ready: %w", err)
		}
		logger.Info("Connected to embedding cache", zap.Strings("addrs", cfg.Cache.Addrs))
		a.cache = cache
	}

	base, embedder, err := buildEmbedder(cfg, a.cache, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	generator, err := buildGenerator(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	profiles, err := loadProfiles(cfg.Profiles)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.profiles, err = profilerepo.New(profiles, embedder, metrics.EmbeddingCacheTotal, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	logger.Info("Profiles loaded",
		zap.Int("profiles", a.profiles.Len()),
		zap.String("source", profileSource(cfg.Profiles)),
	)

	a.recommend = recommenduc.New(
		a.profiles,
		embedder,
		classify.New(),
		explain.New(generator, a.profiles.Catalog(), logger),
		recommenduc.Options{
			TopK:           cfg.Recommend.TopK,
			MaxConcurrency: cfg.Recommend.MaxConcurrency,
			NameThreshold:  cfg.Recommend.NameThreshold,
		},
		logger,
	)

	// Pass nil interface (not typed nil pointer!) if the cache is not configured.
	var pinger healthuc.CachePinger
	if a.cache != nil {
		pinger = a.cache
	}
	a.health = healthuc.New(a.profiles, pinger, base)
	a.extractor = extract.New(int64(cfg.HTTP.MaxUploadMB)<<20, logger)

	return a, nil
}

// Close releases the cache connection.
func (a *application) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
}

// buildEmbedder assembles the decorator chain: OpenAI -> Retrying -> Cached -> Instrumented.
// The bare provider is returned too for health checks.
func buildEmbedder(
	cfg config.Config, cache db.Store, logger *zap.Logger,
) (*openaiTransport.Embedder, domain.Embedder, error) {
	key, err := cfg.EmbeddingKey()
	if err != nil {
		return nil, nil, fmt.Errorf("embedding provider: %w", err)
	}

	// Base provider (with transport metrics built-in)
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     key,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})

	var embedder domain.Embedder = embeddinguc.NewRetryingEmbedder(
		base, retryPolicy("embedding", cfg.Embedding.Retry), logger,
	)

	// Cached (hits skip the provider and its retries)
	if cache != nil {
		embedder = embcache.New(embedder, cache, embcache.Options{
			KeyPrefix:  cfg.Cache.KeyPrefix,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			TTL:        time.Duration(cfg.Cache.TTLSec) * time.Second,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, base.Provider(), base.Model(), logger)
	return base, embedder, nil
}

// buildGenerator assembles Provider -> Paced -> Retrying -> Instrumented.
// A nil generator means explanations always use templates.
func buildGenerator(ctx context.Context, cfg config.Config, logger *zap.Logger) (domain.Generator, error) {
	gc := cfg.Generation

	var (
		inner    domain.Generator
		provider string
	)
	switch gc.Provider {
	case config.ProviderNone:
		logger.Info("Generation disabled, explanations use templates")
		return nil, nil
	case config.ProviderGemini:
		key, err := cfg.GenerationKey()
		if err != nil {
			return nil, fmt.Errorf("generation provider: %w", err)
		}
		g, err := geminiGen.NewGenerator(ctx, key, gc.Model, gc.Temperature, logger)
		if err != nil {
			return nil, fmt.Errorf("generation provider: %w", err)
		}
		inner, provider = g, g.Provider()
	default:
		key, err := cfg.GenerationKey()
		if err != nil {
			// OpenAI generation shares the embedding account unless told otherwise.
			if key, err = cfg.EmbeddingKey(); err != nil {
				return nil, fmt.Errorf("generation provider: %w", err)
			}
		}
		g := openaiTransport.NewChatGenerator(&openaiTransport.GeneratorConfig{
			APIKey:      key,
			BaseURL:     gc.BaseURL,
			Model:       gc.Model,
			Temperature: gc.Temperature,
			Logger:      logger,
		})
		inner, provider = g, g.Provider()
	}

	gen := decorateGenerator(inner, provider, cfg, logger)

	logger.Info("Generator created",
		zap.String("provider", provider),
		zap.String("model", gc.Model),
		zap.Float64("requests_per_second", gc.RequestsPerSecond),
	)
	return gen, nil
}

// decorateGenerator wraps a provider so that every attempt, retries included,
// waits for a rate-limit token.
func decorateGenerator(inner domain.Generator, provider string, cfg config.Config, logger *zap.Logger) domain.Generator {
	gc := cfg.Generation
	gen := generationuc.NewPacedGenerator(inner, gc.RequestsPerSecond, gc.Burst)
	gen = generationuc.NewRetryingGenerator(gen, retryPolicy("generation", gc.Retry), logger)
	return generationuc.NewInstrumentedGenerator(gen, provider, gc.Model, cfg.Logging.MaxPreviewLen, logger)
}

func retryPolicy(operation string, rc config.RetryConfig) retry.Policy {
	return retry.Policy{
		Operation:   operation,
		MaxAttempts: rc.MaxAttempts,
		Timeout:     time.Duration(rc.TimeoutSec) * time.Second,
		Backoff:     time.Duration(rc.BackoffMs) * time.Millisecond,
	}
}

func loadProfiles(pc config.ProfilesConfig) ([]domprofile.Profile, error) {
	if pc.File != "" {
		return profilerepo.LoadFile(pc.File)
	}
	return synth.Generate(pc.Count, pc.Seed), nil
}

func profileSource(pc config.ProfilesConfig) string {
	if pc.File != "" {
		return pc.File
	}
	return "synthetic"
}
