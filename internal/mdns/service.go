// Package mdns advertises the add-on on the local network so players can find
// its manifest without typing an address.
package mdns

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service type for audiobook add-ons.
const ServiceType = "_audiobook-addon._tcp"

// Advertisement is what the add-on announces in its TXT records.
type Advertisement struct {
	ID           string // Manifest id
	Name         string // Manifest display name
	Version      string // Manifest version
	ManifestPath string // Path players fetch, usually /manifest.json
	BaseURL      string // Optional public base URL
}

func (a Advertisement) txtRecords() []string {
	records := []string{
		"id=" + a.ID,
		"name=" + a.Name,
		"version=" + a.Version,
		"manifest=" + a.ManifestPath,
	}
	if a.BaseURL != "" {
		records = append(records, "url="+a.BaseURL)
	}
	return records
}

// Service manages the mDNS responder.
type Service struct {
	server *mdns.Server
	logger *slog.Logger
	mu     sync.Mutex
}

// NewService creates a new mDNS service.
func NewService(logger *slog.Logger) *Service {
	return &Service{
		logger: logger,
	}
}

// Start begins advertising on port, replacing any running responder.
// Failures are usually environmental (no multicast in containers) and callers
// treat them as non-fatal.
func (s *Service) Start(ad Advertisement, port int) error {
	if ad.ID == "" {
		return errors.New("advertisement id is required")
	}
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port %d", port)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		_ = s.server.Shutdown()
		s.server = nil
	}

	host, err := os.Hostname()
	if err != nil {
		host = "audiobook-addon"
	}

	zone, err := mdns.NewMDNSService(host, ServiceType, "", "", port, nil, ad.txtRecords())
	if err != nil {
		return fmt.Errorf("create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: zone})
	if err != nil {
		return fmt.Errorf("start mDNS server: %w", err)
	}
	s.server = server

	s.logger.Info("mDNS advertisement started",
		"service", ServiceType,
		"port", port,
		"id", ad.ID,
		"version", ad.Version,
	)
	return nil
}

// Stop stops advertising. Safe to call multiple times or if not started.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		_ = s.server.Shutdown()
		s.server = nil
		s.logger.Info("mDNS advertisement stopped")
	}
}
