package profile

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/collabmatch/internal/domain"
	domprofile "github.com/kailas-cloud/collabmatch/internal/domain/profile"
	logpkg "github.com/kailas-cloud/collabmatch/internal/logger"
)

const cacheLayer = "memory"

// Store keeps the profile set in memory and memoizes profile embeddings.
// Profiles are read-only after construction; only the vector map is mutated.
type Store struct {
	profiles []domprofile.Profile
	byID     map[string]int
	catalog  []string

	embedder   domain.Embedder
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger

	mu      sync.RWMutex
	vectors map[string][]float32
	group   singleflight.Group
}

// New validates profiles and builds a store. Duplicate IDs are rejected.
// cacheTotal is a counter vec with labels "layer" and "result", passed explicitly (may be nil).
func New(
	profiles []domprofile.Profile,
	embedder domain.Embedder,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) (*Store, error) {
	byID := make(map[string]int, len(profiles))
	for i := range profiles {
		if err := profiles[i].Validate(); err != nil {
			return nil, fmt.Errorf("load profiles: %w", err)
		}
		if _, dup := byID[profiles[i].ID]; dup {
			return nil, fmt.Errorf("load profiles: duplicate id %q", profiles[i].ID)
		}
		byID[profiles[i].ID] = i
	}

	return &Store{
		profiles:   profiles,
		byID:       byID,
		catalog:    buildCatalog(profiles),
		embedder:   embedder,
		cacheTotal: cacheTotal,
		logger:     logger,
		vectors:    make(map[string][]float32, len(profiles)),
	}, nil
}

// All returns every profile in load order.
func (s *Store) All() []domprofile.Profile {
	out := make([]domprofile.Profile, len(s.profiles))
	copy(out, s.profiles)
	return out
}

// Len returns the number of profiles.
func (s *Store) Len() int { return len(s.profiles) }

// Get returns the profile with the given ID or domain.ErrNotFound.
func (s *Store) Get(id string) (domprofile.Profile, error) {
	i, ok := s.byID[id]
	if !ok {
		return domprofile.Profile{}, fmt.Errorf("employee %q: %w", id, domain.ErrNotFound)
	}
	return s.profiles[i], nil
}

// Catalog returns the distinct skills and tools present in the store, in first-seen order.
func (s *Store) Catalog() []string {
	out := make([]string, len(s.catalog))
	copy(out, s.catalog)
	return out
}

// EmbeddingOf returns the profile embedding, computing it on first access.
// Concurrent first accesses for the same profile share one provider call.
// Failures are not memoized, so a later call retries.
func (s *Store) EmbeddingOf(ctx context.Context, p domprofile.Profile) ([]float32, error) {
	key := p.ID + "@" + p.Fingerprint()

	if vec, ok := s.cached(key); ok {
		s.incCache("hit")
		return vec, nil
	}

	// The shared call must outlive any single waiter; per-attempt timeouts bound it.
	ch := s.group.DoChan(key, func() (any, error) {
		if vec, ok := s.cached(key); ok {
			return vec, nil
		}
		s.incCache("miss")

		log := logpkg.FromContext(ctx, s.logger).With(zap.String("employee_id", p.ID))
		res, err := s.embedder.Embed(logpkg.NewContext(context.WithoutCancel(ctx), log), p.EmbeddingText())
		if err != nil {
			return nil, fmt.Errorf("embed profile %s: %w", p.ID, err)
		}

		s.mu.Lock()
		s.vectors[key] = res.Embedding
		s.mu.Unlock()
		return res.Embedding, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("embed profile %s: %w", p.ID, ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.([]float32), nil
	}
}

// Warm precomputes embeddings for all profiles with bounded concurrency.
// Per-profile failures are logged and counted, never fatal.
func (s *Store) Warm(ctx context.Context, concurrency int) (failed int) {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))

	for _, p := range s.profiles {
		g.Go(func() error {
			if _, err := s.EmbeddingOf(gctx, p); err != nil {
				s.logger.Warn("Failed to warm profile embedding",
					zap.String("employee_id", p.ID),
					zap.Error(err),
				)
				mu.Lock()
				failed++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("Profile embeddings warmed",
		zap.Int("profiles", len(s.profiles)),
		zap.Int("failed", failed),
	)
	return failed
}

func (s *Store) cached(key string) ([]float32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vec, ok := s.vectors[key]
	return vec, ok
}

func (s *Store) incCache(result string) {
	if s.cacheTotal != nil {
		s.cacheTotal.WithLabelValues(cacheLayer, result).Inc()
	}
}

func buildCatalog(profiles []domprofile.Profile) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(term string) {
		if term == "" {
			return
		}
		if _, ok := seen[term]; ok {
			return
		}
		seen[term] = struct{}{}
		out = append(out, term)
	}
	for _, p := range profiles {
		for _, sk := range p.Skills {
			add(sk)
		}
		for _, t := range p.Tools {
			add(t)
		}
	}
	return out
}
