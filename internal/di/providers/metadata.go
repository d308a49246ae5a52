package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-addon/internal/config"
	"github.com/listenupapp/listenup-addon/internal/logger"
	"github.com/listenupapp/listenup-addon/internal/metadata/audioaz"
	"github.com/listenupapp/listenup-addon/internal/metadata/librivox"
	"github.com/listenupapp/listenup-addon/internal/metadata/openlibrary"
	"github.com/listenupapp/listenup-addon/internal/metadata/rss"
	"github.com/listenupapp/listenup-addon/internal/metrics"
)

// ProvideLibriVoxClient provides the catalog source client.
func ProvideLibriVoxClient(i do.Injector) (*librivox.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	limiter := do.MustInvoke[*SourceLimiter](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	client := librivox.New(librivox.Config{
		BaseURL:      cfg.Sources.LibriVoxBaseURL,
		UserAgent:    cfg.Sources.UserAgent,
		ListTimeout:  cfg.Sources.ListTimeout,
		FetchTimeout: cfg.Sources.FetchTimeout,
		Limiter:      limiter.KeyedRateLimiter,
		Metrics:      m,
	}, log.Component("librivox"))
	log.Info("LibriVox client initialized", "base_url", cfg.Sources.LibriVoxBaseURL)

	return client, nil
}

// ProvideOpenLibraryClient provides the enrichment source client.
func ProvideOpenLibraryClient(i do.Injector) (*openlibrary.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	limiter := do.MustInvoke[*SourceLimiter](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	client := openlibrary.New(openlibrary.Config{
		BaseURL:   cfg.Sources.OpenLibraryBaseURL,
		CoversURL: cfg.Sources.OpenLibraryCoversURL,
		UserAgent: cfg.Sources.UserAgent,
		Timeout:   cfg.Sources.FetchTimeout,
		Limiter:   limiter.KeyedRateLimiter,
		Metrics:   m,
	}, log.Component("openlibrary"))
	log.Info("Open Library client initialized", "base_url", cfg.Sources.OpenLibraryBaseURL)

	return client, nil
}

// ProvideFeedClient provides the syndication feed expander.
func ProvideFeedClient(i do.Injector) (*rss.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	limiter := do.MustInvoke[*SourceLimiter](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	return rss.New(rss.Config{
		UserAgent: cfg.Sources.UserAgent,
		Timeout:   cfg.Sources.FetchTimeout,
		Limiter:   limiter.KeyedRateLimiter,
		Metrics:   m,
	}, log.Component("rss")), nil
}

// ProvideScraperClient provides the scraped-site page client.
func ProvideScraperClient(i do.Injector) (*audioaz.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	limiter := do.MustInvoke[*SourceLimiter](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	return audioaz.New(audioaz.Config{
		UserAgent: cfg.Sources.UserAgent,
		Timeout:   cfg.Sources.FetchTimeout,
		Limiter:   limiter.KeyedRateLimiter,
		Metrics:   m,
	}, log.Component("audioaz")), nil
}
