package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/model"
)

// DefaultWarmTimeout bounds a single refresh run
const DefaultWarmTimeout = 30 * time.Second

// FeatureRefresher rebuilds the cached fleet feature list
type FeatureRefresher interface {
	Refresh(ctx context.Context) ([]model.FeatureObject, error)
}

// FeatureCacheWarmer re-aggregates the fleet feature list on a fixed
// interval so that GET /features is served from cache.
// The interval should be shorter than the cache TTL.
type FeatureCacheWarmer struct {
	refresher    FeatureRefresher
	interval     time.Duration
	initialDelay time.Duration
	timeout      time.Duration
	stopCh       chan struct{}
	wg           sync.WaitGroup
	running      bool
	mu           sync.Mutex
}

// FeatureCacheWarmerConfig holds configuration for the warmer
type FeatureCacheWarmerConfig struct {
	Refresher FeatureRefresher
	Interval  time.Duration
	// InitialDelay lets peers finish registering before the first run
	InitialDelay time.Duration
	Timeout      time.Duration
}

// NewFeatureCacheWarmer creates a new feature cache warmer job
func NewFeatureCacheWarmer(cfg FeatureCacheWarmerConfig) *FeatureCacheWarmer {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultWarmTimeout
	}
	return &FeatureCacheWarmer{
		refresher:    cfg.Refresher,
		interval:     interval,
		initialDelay: cfg.InitialDelay,
		timeout:      timeout,
	}
}

// Start begins the warmer loop
func (w *FeatureCacheWarmer) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run(stopCh)
	slog.Info("feature cache warmer started", slog.Duration("interval", w.interval))
}

// Stop gracefully stops the warmer and waits for an in-flight run
func (w *FeatureCacheWarmer) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	stopCh := w.stopCh
	w.mu.Unlock()

	close(stopCh)
	w.wg.Wait()
	slog.Info("feature cache warmer stopped")
}

func (w *FeatureCacheWarmer) run(stopCh <-chan struct{}) {
	defer w.wg.Done()

	if w.initialDelay > 0 {
		select {
		case <-time.After(w.initialDelay):
		case <-stopCh:
			return
		}
	}
	w.warm()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.warm()
		case <-stopCh:
			return
		}
	}
}

func (w *FeatureCacheWarmer) warm() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	if err := w.RunOnce(ctx); err != nil {
		slog.Warn("feature cache warm failed", slog.String("error", err.Error()))
	}
}

// RunOnce refreshes the cache once
func (w *FeatureCacheWarmer) RunOnce(ctx context.Context) error {
	features, err := w.refresher.Refresh(ctx)
	if err != nil {
		return err
	}
	slog.Debug("feature cache warmed", slog.Int("features", len(features)))
	return nil
}

// IsRunning returns whether the warmer is running
func (w *FeatureCacheWarmer) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
