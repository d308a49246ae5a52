package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-addon/internal/config"
	"github.com/listenupapp/listenup-addon/internal/logger"
	"github.com/listenupapp/listenup-addon/internal/store"
)

// StoreHandle wraps the catalog index with shutdown capability.
type StoreHandle struct {
	*store.BadgerIndex
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the badger-backed catalog index.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := store.New(store.Options{
		Path: cfg.Index.Path,
		TTL:  cfg.Index.TTL,
	}, log.Component("store"))
	if err != nil {
		return nil, err
	}

	return &StoreHandle{BadgerIndex: index}, nil
}
