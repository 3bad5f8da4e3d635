// Package accountdb persists accounts, holdings, and the instrument catalog
// in one BadgerHold database. The account store is the single owner of
// credential/token state and of the per-account write lock that serializes
// balance mutations.
package accountdb

import (
	"fmt"
	"os"
	"sync"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/advisor/internal/common"
)

// DB wraps the shared BadgerHold store. The typed sub-stores returned by
// Accounts, Holdings, and Instruments all operate on the same database.
type DB struct {
	db     *badgerhold.Store
	logger *common.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Open opens (or creates) the database at path and seeds the instrument
// catalog if it is empty.
func Open(logger *common.Logger, path string) (*DB, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create accountdb path %s: %w", path, err)
	}
	opts := badgerhold.DefaultOptions
	opts.Dir = path
	opts.ValueDir = path
	opts.Logger = nil
	store, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open accountdb at %s: %w", path, err)
	}

	db := &DB{
		db:     store,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
	if err := db.Instruments().seed(); err != nil {
		_ = store.Close()
		return nil, err
	}
	logger.Info().Str("path", path).Msg("AccountDB opened")
	return db, nil
}

// Accounts returns the credential store view.
func (d *DB) Accounts() *AccountStore {
	return &AccountStore{d}
}

// Holdings returns the holdings store view.
func (d *DB) Holdings() *HoldingStore {
	return &HoldingStore{d}
}

// Instruments returns the instrument catalog view.
func (d *DB) Instruments() *InstrumentStore {
	return &InstrumentStore{d}
}

// Close shuts down the BadgerHold database.
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// lockFor returns the mutex guarding one account's read-modify-write
// cycles. Entries are retained for the process lifetime.
func (d *DB) lockFor(id string) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	lock, ok := d.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		d.locks[id] = lock
	}
	return lock
}
