// Package directory implements the fake user directory: authentication of
// the administrative identity and of users from the record file, root-only
// search and add, and the projection of records into entries.
package directory

import (
	"context"
	"sync"

	"github.com/KilimcininKorOglu/fakeldap/internal/logging"
)

// Service owns the directory state shared by all connections of a server.
type Service struct {
	store    RecordStore
	registry *Registry
	cache    *Cache
	logger   logging.Logger

	// addMu spans the existence check and the append of one add.
	addMu sync.Mutex
}

// NewService creates a directory over store.
func NewService(store RecordStore, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	registry := NewRegistry()
	return &Service{
		store:    store,
		registry: registry,
		cache:    NewCache(store, registry, logger),
		logger:   logger,
	}
}

// Registry returns the set of identities discovered so far.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Refresh reloads the record store. Search and Add refresh on their own;
// this is for callers that only need a listing.
func (s *Service) Refresh(ctx context.Context) (*Snapshot, error) {
	return s.cache.Refresh(ctx)
}
