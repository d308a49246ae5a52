package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/listenup-addon/internal/domain"
)

func (s *Server) registerManifestRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getManifest",
		Method:      http.MethodGet,
		Path:        "/manifest.json",
		Summary:     "Add-on manifest",
		Description: "Describes the add-on: content types, id prefixes, catalogs and resources",
		Tags:        []string{"Add-on"},
	}, s.handleGetManifest)
}

// ManifestCatalog describes one browsable catalog.
type ManifestCatalog struct {
	Type string `json:"type" doc:"Content type"`
	ID   string `json:"id" doc:"Catalog id"`
	Name string `json:"name" doc:"Display name"`
}

// Manifest is the add-on descriptor clients install.
type Manifest struct {
	ID          string            `json:"id" doc:"Add-on id"`
	Version     string            `json:"version" doc:"Add-on version"`
	Name        string            `json:"name" doc:"Display name"`
	Description string            `json:"description" doc:"Short description"`
	Types       []string          `json:"types" doc:"Content types served"`
	IDPrefixes  []string          `json:"idPrefixes" doc:"Id prefixes this add-on resolves"`
	Catalogs    []ManifestCatalog `json:"catalogs" doc:"Browsable catalogs"`
	Resources   []string          `json:"resources" doc:"Supported resources"`
}

// ManifestOutput wraps the manifest for Huma.
type ManifestOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         Manifest
}

// NewManifest returns the add-on manifest.
func NewManifest() Manifest {
	return Manifest{
		ID:          ManifestID,
		Version:     ManifestVersion,
		Name:        ManifestName,
		Description: ManifestDescription,
		Types:       []string{domain.ContentType},
		IDPrefixes:  []string{domain.IDPrefix},
		Catalogs: []ManifestCatalog{
			{Type: domain.ContentType, ID: domain.PopularCatalogID, Name: popularCatalogName},
		},
		Resources: []string{"catalog", "meta", "stream", "search"},
	}
}

func (s *Server) handleGetManifest(_ context.Context, _ *struct{}) (*ManifestOutput, error) {
	return &ManifestOutput{CacheControl: CacheOneDay, Body: NewManifest()}, nil
}
