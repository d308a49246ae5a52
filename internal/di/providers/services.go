package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-addon/internal/config"
	"github.com/listenupapp/listenup-addon/internal/logger"
	"github.com/listenupapp/listenup-addon/internal/media/covers"
	"github.com/listenupapp/listenup-addon/internal/metadata/audioaz"
	"github.com/listenupapp/listenup-addon/internal/metadata/librivox"
	"github.com/listenupapp/listenup-addon/internal/metadata/openlibrary"
	"github.com/listenupapp/listenup-addon/internal/metadata/rss"
	"github.com/listenupapp/listenup-addon/internal/metrics"
	"github.com/listenupapp/listenup-addon/internal/service"
)

// ProvideCoverResolver provides the cover policy.
func ProvideCoverResolver(i do.Injector) (*covers.Resolver, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return covers.NewResolver(cfg.Covers.Policy)
}

// ProvideIDMinter provides the canonical id minter.
func ProvideIDMinter(i do.Injector) (*service.IDMinter, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewIDMinter(storeHandle.BadgerIndex, log.Component("ids")), nil
}

// ProvideResolver provides the audiobook resolver.
func ProvideResolver(i do.Injector) (*service.AudiobookResolver, error) {
	catalog := do.MustInvoke[*librivox.Client](i)
	enrichment := do.MustInvoke[*openlibrary.Client](i)
	feeds := do.MustInvoke[*rss.Client](i)
	coverResolver := do.MustInvoke[*covers.Resolver](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAudiobookResolver(catalog, enrichment, feeds, coverResolver, m, log.Component("resolver")), nil
}

// ProvideCatalogService provides the catalog service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	catalog := do.MustInvoke[*librivox.Client](i)
	coverResolver := do.MustInvoke[*covers.Resolver](i)
	minter := do.MustInvoke[*service.IDMinter](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCatalogService(catalog, coverResolver, minter, log.Component("catalog")), nil
}

// ProvideStreamService provides the meta and stream service.
func ProvideStreamService(i do.Injector) (*service.StreamService, error) {
	resolver := do.MustInvoke[*service.AudiobookResolver](i)
	minter := do.MustInvoke[*service.IDMinter](i)
	scraper := do.MustInvoke[*audioaz.Client](i)
	feeds := do.MustInvoke[*rss.Client](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewStreamService(resolver, minter, scraper, feeds, log.Component("streams")), nil
}

// ProvideSearchService provides the search service.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	enrichment := do.MustInvoke[*openlibrary.Client](i)
	searchHandle := do.MustInvoke[*SearchIndexHandle](i)
	minter := do.MustInvoke[*service.IDMinter](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSearchService(enrichment, searchHandle.Index, minter, log.Component("search")), nil
}
