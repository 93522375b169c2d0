package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kirillkom/document-catalog/internal/core/domain"
	"github.com/kirillkom/document-catalog/internal/core/ports"
)

const (
	StatsKeyExtensions      = "stats:extensions"
	StatsKeyTypes           = "stats:types"
	statsKeyHierarchyPrefix = "stats:hierarchy:"

	defaultStatsTTL            = 60 * time.Second
	defaultStatsComputeTimeout = 30 * time.Second
)

// Cache outcomes reported to the observer.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

func StatsKeyHierarchy(nodeType domain.NodeType) string {
	return statsKeyHierarchyPrefix + string(nodeType)
}

type StatsOption func(*StatsUseCase)

func WithStatsTTL(ttl time.Duration) StatsOption {
	return func(uc *StatsUseCase) {
		if ttl > 0 {
			uc.ttl = ttl
		}
	}
}

func WithStatsComputeTimeout(timeout time.Duration) StatsOption {
	return func(uc *StatsUseCase) {
		if timeout > 0 {
			uc.computeTimeout = timeout
		}
	}
}

func WithStatsLogger(logger *slog.Logger) StatsOption {
	return func(uc *StatsUseCase) {
		if logger != nil {
			uc.logger = logger
		}
	}
}

// WithCacheObserver receives one outcome per cache lookup.
func WithCacheObserver(observe func(key, outcome string)) StatsOption {
	return func(uc *StatsUseCase) {
		if observe != nil {
			uc.observe = observe
		}
	}
}

// StatsUseCase serves aggregates from a TTL cache and recomputes them with a
// full group-by in the store on miss. At most one recompute per key runs at a
// time; different keys never wait on each other. A nil cache disables caching.
type StatsUseCase struct {
	source ports.StatsSource
	cache  ports.Cache
	types  domain.DocumentTypes

	ttl            time.Duration
	computeTimeout time.Duration
	logger         *slog.Logger
	observe        func(key, outcome string)
	now            func() time.Time

	flight      singleflight.Group
	generations sync.Map
}

func NewStatsUseCase(source ports.StatsSource, cache ports.Cache, types domain.DocumentTypes, opts ...StatsOption) *StatsUseCase {
	uc := &StatsUseCase{
		source:         source,
		cache:          cache,
		types:          types,
		ttl:            defaultStatsTTL,
		computeTimeout: defaultStatsComputeTimeout,
		logger:         slog.Default(),
		observe:        func(string, string) {},
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *StatsUseCase) ExtensionCounts(ctx context.Context) ([]domain.ExtensionCount, error) {
	return loadCached(ctx, uc, StatsKeyExtensions, uc.source.CountByExtension)
}

func (uc *StatsUseCase) TypeCounts(ctx context.Context) (map[string]int64, error) {
	return loadCached(ctx, uc, StatsKeyTypes, func(ctx context.Context) (map[string]int64, error) {
		counts, err := uc.source.CountByExtension(ctx)
		if err != nil {
			return nil, err
		}
		out := make(map[string]int64, len(counts))
		for _, c := range counts {
			out[uc.types.TypeOf(c.Extension)] += c.Total
		}
		return out, nil
	})
}

func (uc *StatsUseCase) HierarchyNodeCounts(ctx context.Context, nodeType domain.NodeType) ([]domain.NodeCount, error) {
	if !nodeType.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "hierarchy node counts", fmt.Errorf("unknown node type %q", nodeType))
	}
	return loadCached(ctx, uc, StatsKeyHierarchy(nodeType), func(ctx context.Context) ([]domain.NodeCount, error) {
		return uc.source.CountByNode(ctx, nodeType)
	})
}

// Report collects every aggregate for export.
func (uc *StatsUseCase) Report(ctx context.Context) (*domain.StatsReport, error) {
	extensions, err := uc.ExtensionCounts(ctx)
	if err != nil {
		return nil, err
	}
	types, err := uc.TypeCounts(ctx)
	if err != nil {
		return nil, err
	}
	processTypes, err := uc.HierarchyNodeCounts(ctx, domain.NodeProcessType)
	if err != nil {
		return nil, err
	}
	return &domain.StatsReport{
		Extensions:   extensions,
		Types:        types,
		ProcessTypes: processTypes,
		GeneratedAt:  uc.now().UTC(),
	}, nil
}

// Invalidate drops the keys an event affects. A document mutation touches
// every aggregate; a hierarchy mutation only the counts of its level.
func (uc *StatsUseCase) Invalidate(ctx context.Context, event domain.CatalogEvent) {
	keys := InvalidationKeys(event)
	for _, key := range keys {
		uc.generation(key).Add(1)
		uc.flight.Forget(key)
	}
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Delete(ctx, keys...); err != nil {
		uc.logger.Warn("stats_cache_invalidate_failed", "keys", keys, "event_id", event.ID, "error", err)
	}
}

// InvalidationKeys lists the cache keys affected by event.
func InvalidationKeys(event domain.CatalogEvent) []string {
	if event.Kind == domain.EventHierarchy && event.NodeType.Valid() {
		return []string{StatsKeyHierarchy(event.NodeType)}
	}
	keys := make([]string, 0, 2+len(domain.NodeTypes))
	if event.Kind != domain.EventHierarchy {
		keys = append(keys, StatsKeyExtensions, StatsKeyTypes)
	}
	for _, nodeType := range domain.NodeTypes {
		keys = append(keys, StatsKeyHierarchy(nodeType))
	}
	return keys
}

func (uc *StatsUseCase) generation(key string) *atomic.Uint64 {
	if v, ok := uc.generations.Load(key); ok {
		return v.(*atomic.Uint64)
	}
	v, _ := uc.generations.LoadOrStore(key, new(atomic.Uint64))
	return v.(*atomic.Uint64)
}

// loadCached returns the cached value of key or recomputes it. The recompute
// is shared by concurrent callers and runs detached from any single caller's
// context, bounded by the compute timeout; each caller still returns as soon
// as its own context is done.
func loadCached[T any](ctx context.Context, uc *StatsUseCase, key string, compute func(context.Context) (T, error)) (T, error) {
	var zero T
	if v, ok := cacheLookup[T](ctx, uc, key); ok {
		return v, nil
	}
	if err := ctx.Err(); err != nil {
		return zero, wrapReadError("load "+key, err)
	}

	ch := uc.flight.DoChan(key, func() (any, error) {
		gen := uc.generation(key).Load()
		computeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.computeTimeout)
		defer cancel()

		v, err := compute(computeCtx)
		if err != nil {
			return nil, err
		}
		uc.store(computeCtx, key, gen, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, wrapReadError("load "+key, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return zero, wrapReadError("compute "+key, res.Err)
		}
		return res.Val.(T), nil
	}
}

func cacheLookup[T any](ctx context.Context, uc *StatsUseCase, key string) (T, bool) {
	var v T
	if uc.cache == nil {
		return v, false
	}
	raw, ok, err := uc.cache.Get(ctx, key)
	if err != nil {
		uc.observe(key, CacheError)
		uc.logger.Warn("stats_cache_error", "op", "get", "key", key, "error", err)
		return v, false
	}
	if !ok {
		uc.observe(key, CacheMiss)
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		uc.observe(key, CacheError)
		uc.logger.Warn("stats_cache_decode_failed", "key", key, "error", err)
		return v, false
	}
	uc.observe(key, CacheHit)
	return v, true
}

// store writes a freshly computed value unless the key was invalidated while
// it was being computed. An invalidation racing with the write is caught by
// the second generation check.
func (uc *StatsUseCase) store(ctx context.Context, key string, gen uint64, value any) {
	if uc.cache == nil {
		return
	}
	counter := uc.generation(key)
	if counter.Load() != gen {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		uc.logger.Warn("stats_cache_encode_failed", "key", key, "error", err)
		return
	}
	if err := uc.cache.Set(ctx, key, raw, uc.ttl); err != nil {
		uc.logger.Warn("stats_cache_error", "op", "set", "key", key, "error", err)
		return
	}
	if counter.Load() != gen {
		if err := uc.cache.Delete(ctx, key); err != nil {
			uc.logger.Warn("stats_cache_error", "op", "delete", "key", key, "error", err)
		}
	}
}
