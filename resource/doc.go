// Package resource implements the Controller for global limits.
//
// The Controller manages three resource types:
//
//   - Memory: track and cap vector payload bytes (non-blocking, fail-fast)
//   - Concurrency: limit concurrent index builds and checkpoints
//   - IO: rate-limit snapshot uploads so they do not starve queries
//
// # Memory Management
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30, // 1GB limit
//	})
//
//	if err := rc.AcquireMemory(4 * int64(dim)); err != nil {
//	    // ErrMemoryLimitExceeded - caller decides retry/backoff
//	}
//
// # Background Worker Limits
//
//	if err := rc.AcquireBackground(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseBackground()
//
// # IO Rate Limiting
//
//	writer := resource.NewRateLimitedWriter(ctx, w, rc)
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully - they become no-ops.
package resource
