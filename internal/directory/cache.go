package directory

import (
	"context"

	"github.com/KilimcininKorOglu/fakeldap/internal/logging"
	"github.com/KilimcininKorOglu/fakeldap/internal/passwd"
)

// RecordStore is the persistence the directory is projected from.
type RecordStore interface {
	Load(ctx context.Context) (*passwd.Records, error)
	Append(ctx context.Context, r *passwd.Record) error
}

// Snapshot is the set of entries produced by one refresh, in record file
// order.
type Snapshot struct {
	entries []*Entry
	byCN    map[string]*Entry
}

// Entries returns the entries in record file order.
func (s *Snapshot) Entries() []*Entry {
	return s.entries
}

// Get returns the entry for cn.
func (s *Snapshot) Get(cn string) (*Entry, bool) {
	e, ok := s.byCN[cn]
	return e, ok
}

// Len returns the number of entries.
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// Cache rebuilds the directory from the record store on every request.
type Cache struct {
	store    RecordStore
	registry *Registry
	logger   logging.Logger
}

// NewCache creates a cache over store. Identities discovered by refreshes
// are recorded in registry.
func NewCache(store RecordStore, registry *Registry, logger logging.Logger) *Cache {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Cache{store: store, registry: registry, logger: logger}
}

// Refresh reloads every record and returns a new snapshot. A load failure is
// returned as OperationsError.
func (c *Cache) Refresh(ctx context.Context) (*Snapshot, error) {
	records, err := c.store.Load(ctx)
	if err != nil {
		return nil, OperationsError.Wrap(err, "failed to load records")
	}

	snap := &Snapshot{
		entries: make([]*Entry, 0, records.Len()),
		byCN:    make(map[string]*Entry, records.Len()),
	}
	for _, r := range records.All() {
		e := NewEntry(r)
		snap.entries = append(snap.entries, e)
		snap.byCN[e.CN] = e

		if c.registry.Register(e.DN) {
			c.logger.Debug("identity registered", "dn", e.DN)
		}
	}

	return snap, nil
}
