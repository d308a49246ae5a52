package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-addon/internal/config"
	"github.com/listenupapp/listenup-addon/internal/domain"
	"github.com/listenupapp/listenup-addon/internal/logger"
	"github.com/listenupapp/listenup-addon/internal/search"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index and mirrors every later
// catalog index write into it.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	index, err := search.NewIndex(search.Options{
		DataPath: cfg.Search.Path,
		Logger:   log.Component("search"),
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	storeHandle.SetSearchIndexer(index)

	return &SearchIndexHandle{Index: index}, nil
}

// RebuildSearchIndexIfNeeded fills an empty search index from the live
// catalog index entries. Expired entries are already gone from the store.
func RebuildSearchIndexIfNeeded(i do.Injector) {
	searchHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	if docCount, _ := searchHandle.DocumentCount(); docCount > 0 {
		return
	}

	ctx := context.Background()
	var docs []*search.Document
	err := storeHandle.Each(ctx, func(id domain.CanonicalID, entry domain.IndexEntry) bool {
		docs = append(docs, search.DocumentFromEntry(id, entry))
		return true
	})
	if err != nil {
		log.Error("Search rebuild scan failed", "error", err)
		return
	}
	if len(docs) == 0 {
		return
	}

	if err := searchHandle.IndexDocuments(docs); err != nil {
		log.Error("Search rebuild failed", "error", err)
		return
	}
	log.Info("Search index rebuilt from catalog index", "documents", len(docs))
}
