package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/bookrec/internal/config"
	"github.com/listenupapp/bookrec/internal/logger"
	"github.com/listenupapp/bookrec/internal/store"
	"github.com/listenupapp/bookrec/internal/store/sqlite"
)

// CatalogHandle wraps the SQLite catalog with shutdown capability.
type CatalogHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *CatalogHandle) Shutdown() error {
	return h.Close()
}

// ProvideCatalog provides the book catalog.
func ProvideCatalog(i do.Injector) (*CatalogHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := sqlite.Open(cfg.Data.CatalogPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Debug("Catalog opened", "path", cfg.Data.CatalogPath)
	return &CatalogHandle{Store: db}, nil
}

// VectorStoreHandle wraps the Badger vector store with shutdown capability.
type VectorStoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *VectorStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideVectorStore provides the embedding store.
func ProvideVectorStore(i do.Injector) (*VectorStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	vs, err := store.New(cfg.Data.VectorsPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Debug("Vector store opened", "path", cfg.Data.VectorsPath)
	return &VectorStoreHandle{Store: vs}, nil
}
