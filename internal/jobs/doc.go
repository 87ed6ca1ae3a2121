// Package jobs implements background work that runs independently of HTTP
// request handling.
//
// FeatureCacheWarmer periodically rebuilds the merged fleet feature list so
// that reads hit the cache instead of fanning out to every peer:
//
//	warmer := jobs.NewFeatureCacheWarmer(jobs.FeatureCacheWarmerConfig{
//		Refresher: collector,
//		Interval:  5 * time.Minute,
//	})
//	warmer.Start()
//	defer warmer.Stop()
//
// Failed runs are logged and retried on the next tick.
package jobs
