// Package embcache memoizes profile and query embeddings in Redis across restarts.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/collabmatch/internal/db"
	"github.com/kailas-cloud/collabmatch/internal/domain"
)

const (
	cacheLayer = "redis"
	// codecVersion prefixes every entry; bump it when the layout changes.
	codecVersion byte = 1
)

// store is the consumer interface for the embedding cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Options configures key layout, validation and expiry.
type Options struct {
	KeyPrefix string
	// Model and Dimensions are folded into the key so a provider change never serves stale vectors.
	Model      string
	Dimensions int
	TTL        time.Duration
}

// CachedEmbedder caches embeddings in a key-value store. Cache failures are
// logged and degrade to a provider call.
type CachedEmbedder struct {
	inner      domain.Embedder
	store      store
	opts       Options
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with labels "layer" and "result" ("hit"/"miss"), passed explicitly (may be nil).
func New(
	inner domain.Embedder,
	s store,
	opts Options,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	return &CachedEmbedder{
		inner:      inner,
		store:      s,
		opts:       opts,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Embed returns a cached embedding or calls the inner embedder.
// A hit reports zero tokens but still marks embedding usage on the request.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.key(text)

	if vec, ok := c.lookup(ctx, key); ok {
		c.count("hit")
		domain.UsageFromContext(ctx).AddEmbeddingTokens(0)
		return domain.EmbeddingResult{Embedding: vec}, nil
	}
	c.count("miss")

	res, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}

	if len(res.Embedding) > 0 {
		if err := c.store.SetWithTTL(ctx, key, encodeVector(res.Embedding), c.opts.TTL); err != nil {
			c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
		}
	}
	return res, nil
}

func (c *CachedEmbedder) count(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(cacheLayer, result).Inc()
	}
}

// key is <prefix>emb:<model>:<dims>:<sha256(text)>.
func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.opts.KeyPrefix + "emb:" + c.opts.Model + ":" + strconv.Itoa(c.opts.Dimensions) + ":" +
		hex.EncodeToString(sum[:])
}

func (c *CachedEmbedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return nil, false
	case err != nil:
		c.logger.Warn("Failed to read cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	vec, err := decodeVector(data, c.opts.Dimensions)
	if err != nil {
		c.logger.Warn("Discarding cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return vec, true
}

// encodeVector writes the codec version followed by little-endian float32 values.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 1+len(v)*4)
	buf[0] = codecVersion
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[1+i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeVector parses an entry written by encodeVector. dims > 0 also checks the length.
func decodeVector(data []byte, dims int) ([]float32, error) {
	if len(data) < 5 || data[0] != codecVersion || (len(data)-1)%4 != 0 {
		return nil, fmt.Errorf("malformed entry (%d bytes)", len(data))
	}
	body := data[1:]
	n := len(body) / 4
	if dims > 0 && n != dims {
		return nil, fmt.Errorf("entry has %d dimensions, want %d", n, dims)
	}

	vec := make([]float32, n)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[i*4:]))
	}
	return vec, nil
}
