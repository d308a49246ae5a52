package providers

import (
	"time"

	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-addon/internal/config"
	"github.com/listenupapp/listenup-addon/internal/metrics"
	"github.com/listenupapp/listenup-addon/internal/ratelimit"
)

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second
)

// SourceLimiter is the per-host limiter shared by every upstream client.
type SourceLimiter struct {
	*ratelimit.KeyedRateLimiter
}

// ProvideMetrics provides the prometheus collectors.
func ProvideMetrics(i do.Injector) (*metrics.Metrics, error) {
	return metrics.New(), nil
}

// ProvideSourceLimiter provides the outbound rate limiter.
func ProvideSourceLimiter(i do.Injector) (*SourceLimiter, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return &SourceLimiter{
		KeyedRateLimiter: ratelimit.New(cfg.Sources.RequestsPerSecond, cfg.Sources.Burst),
	}, nil
}
