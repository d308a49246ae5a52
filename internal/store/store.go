package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/listenup-addon/internal/domain"
)

const catalogPrefix = "catalog:"

// DefaultTTL bounds how long a minted id stays resolvable.
const DefaultTTL = 72 * time.Hour

// Options configures the badger-backed index.
type Options struct {
	// Path is the badger directory. Empty keeps everything in memory.
	Path string
	// TTL is applied to every entry. Zero selects DefaultTTL.
	TTL time.Duration
}

// BadgerIndex is the CatalogIndex backed by badger. Entries expire through
// badger's native TTL.
type BadgerIndex struct {
	db     *badger.DB
	ttl    time.Duration
	logger *slog.Logger

	// Set via SetSearchIndexer once the search index exists.
	searchIndexer SearchIndexer
}

var _ CatalogIndex = (*BadgerIndex)(nil)

// New opens the index described by opts.
func New(opts Options, logger *slog.Logger) (*BadgerIndex, error) {
	bopts := badger.DefaultOptions(opts.Path)
	if opts.Path == "" {
		bopts = bopts.WithInMemory(true)
	} else {
		bopts.SyncWrites = true
		bopts.CompactL0OnClose = true
	}
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	if logger != nil {
		logger.Info("catalog index opened", "path", opts.Path, "in_memory", opts.Path == "", "ttl", ttl)
	}

	return &BadgerIndex{
		db:            db,
		ttl:           ttl,
		logger:        logger,
		searchIndexer: NoopSearchIndexer{},
	}, nil
}

// Close closes the database.
func (s *BadgerIndex) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing catalog index")
	}
	return s.db.Close()
}

// SetSearchIndexer mirrors every later Put into indexer.
func (s *BadgerIndex) SetSearchIndexer(indexer SearchIndexer) {
	if indexer == nil {
		indexer = NoopSearchIndexer{}
	}
	s.searchIndexer = indexer
}

// TTL returns the lifetime applied to new entries.
func (s *BadgerIndex) TTL() time.Duration {
	return s.ttl
}

// Put stores entry under id in a single transaction and mirrors it into the
// search index. Search failures are logged, not returned.
func (s *BadgerIndex) Put(ctx context.Context, id domain.CanonicalID, entry domain.IndexEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !id.Valid() {
		return ErrInvalidID.WithMessage(fmt.Sprintf("invalid canonical id %q", id))
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal index entry: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(key(id), data).WithTTL(s.ttl))
	})
	if err != nil {
		return fmt.Errorf("put index entry: %w", err)
	}

	if err := s.searchIndexer.IndexEntry(ctx, id, entry); err != nil && s.logger != nil {
		s.logger.Warn("failed to mirror index entry into search", "id", id, "error", err)
	}
	return nil
}

// Get returns the entry for id, or nil, nil when unknown or expired.
func (s *BadgerIndex) Get(ctx context.Context, id domain.CanonicalID) (*domain.IndexEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entry domain.IndexEntry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get index entry: %w", err)
	}
	return &entry, nil
}

// Each calls fn for every live entry, in key order, until fn returns false.
func (s *BadgerIndex) Each(ctx context.Context, fn func(id domain.CanonicalID, entry domain.IndexEntry) bool) error {
	prefix := []byte(catalogPrefix)
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			var entry domain.IndexEntry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				return fmt.Errorf("decode index entry %s: %w", item.Key(), err)
			}
			id := domain.CanonicalID(item.Key()[len(prefix):])
			if !fn(id, entry) {
				return nil
			}
		}
		return nil
	})
}

func key(id domain.CanonicalID) []byte {
	return []byte(catalogPrefix + string(id))
}
