package providers

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-addon/internal/api"
	"github.com/listenupapp/listenup-addon/internal/config"
	"github.com/listenupapp/listenup-addon/internal/logger"
	"github.com/listenupapp/listenup-addon/internal/mdns"
	"github.com/listenupapp/listenup-addon/internal/metrics"
	"github.com/listenupapp/listenup-addon/internal/relay"
	"github.com/listenupapp/listenup-addon/internal/service"
)

// ProvideRelay provides the streaming relay.
func ProvideRelay(i do.Injector) (*relay.Relay, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	allow := relay.NewAllowlist(cfg.Relay.AllowScraped, cfg.Relay.ExtraHosts)
	log.Info("Relay initialized",
		"allow_scraped", cfg.Relay.AllowScraped,
		"extra_hosts", len(cfg.Relay.ExtraHosts),
		"client_rps", cfg.Relay.ClientRPS,
	)

	return relay.New(relay.Config{
		Timeout:   cfg.Relay.Timeout,
		UserAgent: cfg.Sources.UserAgent,
		Metrics:   m,
	}, allow, log.Component("relay")), nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searchHandle := do.MustInvoke[*SearchIndexHandle](i)
	rl := do.MustInvoke[*relay.Relay](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	services := &api.Services{
		Catalog:     do.MustInvoke[*service.CatalogService](i),
		Streams:     do.MustInvoke[*service.StreamService](i),
		Search:      do.MustInvoke[*service.SearchService](i),
		Index:       storeHandle.BadgerIndex,
		SearchIndex: searchHandle.Index,
	}

	handler := api.NewServer(cfg, services, rl, m, log.Logger)

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Add-on running", "addr", srv.Addr, "manifest", "/manifest.json")

	return &HTTPServerHandle{Server: srv}, nil
}

// MDNSServiceHandle wraps mdns.Service with Shutdownable.
type MDNSServiceHandle struct {
	*mdns.Service
	started bool
}

// Shutdown implements do.Shutdownable.
func (h *MDNSServiceHandle) Shutdown() error {
	if h.started && h.Service != nil {
		h.Stop()
	}
	return nil
}

// ProvideMDNSService provides the mDNS advertisement service.
func ProvideMDNSService(i do.Injector) (*MDNSServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Server.AdvertiseMDNS {
		log.Info("mDNS advertisement disabled by configuration")
		return &MDNSServiceHandle{}, nil
	}

	port, err := strconv.Atoi(cfg.Server.Port)
	if err != nil {
		log.Warn("Failed to parse server port for mDNS, skipping", "port", cfg.Server.Port)
		return &MDNSServiceHandle{}, nil
	}

	svc := mdns.NewService(log.Component("mdns"))
	ad := mdns.Advertisement{
		ID:           api.ManifestID,
		Name:         api.ManifestName,
		Version:      api.ManifestVersion,
		ManifestPath: "/manifest.json",
		BaseURL:      cfg.Server.PublicBaseURL,
	}
	if err := svc.Start(ad, port); err != nil {
		// Non-fatal: the add-on works without discovery (Docker, cloud).
		log.Warn("mDNS advertisement unavailable", "error", err)
		return &MDNSServiceHandle{Service: svc}, nil
	}

	return &MDNSServiceHandle{Service: svc, started: true}, nil
}
