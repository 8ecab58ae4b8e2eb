// Package cache memoizes embeddings in Redis, keyed by model and a hash of
// the input text.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/heartmarshall/notes-assistant-backend/internal/config"
	"github.com/heartmarshall/notes-assistant-backend/internal/metrics"
)

type embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Embedder wraps another embedder with a Redis read-through cache. Cache
// errors are logged and never fail the call.
type Embedder struct {
	next   embedder
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	log    *slog.Logger
}

// NewRedisClient connects and pings Redis.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// New wraps next. Model and dimensions are part of the key, so changing
// either never serves vectors of the old shape.
func New(next embedder, rdb *redis.Client, model string, dims int, ttl time.Duration, logger *slog.Logger) *Embedder {
	return &Embedder{
		next:   next,
		rdb:    rdb,
		prefix: fmt.Sprintf("emb:%s:%d:", model, dims),
		ttl:    ttl,
		log:    logger.With("adapter", "embedding.cache"),
	}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := e.key(text)

	raw, err := e.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if vec, ok := decode(raw); ok {
			metrics.EmbeddingCacheLookups.WithLabelValues("hit").Inc()
			return vec, nil
		}
		e.log.WarnContext(ctx, "discarding malformed cached embedding", slog.String("key", key))
	case !errors.Is(err, redis.Nil):
		e.log.WarnContext(ctx, "embedding cache read failed", slog.String("error", err.Error()))
	}

	metrics.EmbeddingCacheLookups.WithLabelValues("miss").Inc()

	vec, err := e.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := e.rdb.Set(ctx, key, encode(vec), e.ttl).Err(); err != nil {
		e.log.WarnContext(ctx, "embedding cache write failed", slog.String("error", err.Error()))
	}
	return vec, nil
}

func (e *Embedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return e.prefix + hex.EncodeToString(sum[:])
}

func encode(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decode(b []byte) ([]float32, bool) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, false
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, true
}
