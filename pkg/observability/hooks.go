// Package observability provides hooks for instrumenting figure builds.
//
// Hooks default to no-ops. A program registers its own implementations at
// startup and the pipeline runner reports every stage and cache lookup to
// them:
//
//	func main() {
//	    observability.SetPipelineHooks(&statsHooks{})
//	    observability.SetCacheHooks(&statsHooks{})
//	    // ... run figcomp
//	}
package observability

import (
	"context"
	"sync"
	"time"
)

// PipelineHooks receives events from the figure pipeline. Every event carries
// the stage error, nil on success.
type PipelineHooks interface {
	// OnLoadComplete fires after the figure file and its images are loaded.
	OnLoadComplete(ctx context.Context, config string, images int, duration time.Duration, err error)

	// OnLayoutComplete fires after geometry and labels are solved.
	OnLayoutComplete(ctx context.Context, width, height int, duration time.Duration, err error)

	// OnRenderComplete fires after the figure is composited and encoded.
	OnRenderComplete(ctx context.Context, format string, bytes int, duration time.Duration, err error)
}

// CacheHooks receives events from render cache lookups.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, key string)
	OnCacheMiss(ctx context.Context, key string)
	OnCacheSet(ctx context.Context, key string, size int)
}

// NoopPipelineHooks ignores all pipeline events.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLoadComplete(context.Context, string, int, time.Duration, error)   {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, int, int, time.Duration, error)    {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, string, int, time.Duration, error) {}

// NoopCacheHooks ignores all cache events.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers pipeline hooks. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores the no-op hooks.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
}
