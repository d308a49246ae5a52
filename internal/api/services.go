package api

import (
	"github.com/listenupapp/listenup-addon/internal/search"
	"github.com/listenupapp/listenup-addon/internal/service"
	"github.com/listenupapp/listenup-addon/internal/store"
)

// Services groups the business logic used by the API server.
type Services struct {
	Catalog *service.CatalogService
	Streams *service.StreamService
	Search  *service.SearchService

	// Index and SearchIndex are only probed by the health check. Either may be nil.
	Index       store.CatalogIndex
	SearchIndex *search.Index
}
