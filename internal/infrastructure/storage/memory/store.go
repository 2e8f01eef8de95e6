// Package memory provides an in-memory storage backend implementing the
// repository and transaction contracts. It backs tests and single-process
// demo runs; the Postgres backend is the production path.
//
// Transactions buffer their writes in per-transaction overlays and publish
// them atomically at commit under the store mutex, so readers never observe
// a torn multi-write (e.g. a balance without its ledger entry).
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/catalogs/item"
	"stockledger/internal/domain/catalogs/storagearea"
	"stockledger/internal/domain/checks"
	"stockledger/internal/domain/receipts"
)

// DefaultLockTimeout bounds the wait for a contended balance key.
const DefaultLockTimeout = 3 * time.Second

// Store is the in-memory backend. One Store instance serves all
// repositories; access them through the *Repo accessors.
type Store struct {
	mu sync.RWMutex

	balances map[entity.BalanceKey]entity.LocationBalance
	entries  []entity.LedgerEntry

	receipts     map[id.ID]receipts.Receipt
	receiptLines map[id.ID][]receipts.Line

	checks       map[id.ID]checks.InventoryCheck
	checkDetails map[id.ID][]checks.Detail

	areas map[id.ID]storagearea.StorageArea
	items map[id.ID]item.Item

	// seq is the ledger entry cursor. Assigned while the balance key lock is
	// held, so per-key entries are strictly seq-ordered. Like a database
	// sequence it may leave gaps on rollback.
	seq atomic.Int64

	seqMu     sync.Mutex
	sequences map[string]int64

	lockMu sync.Mutex
	locks  map[string]chan struct{}

	lockTimeout time.Duration
}

// Option configures the store.
type Option func(*Store)

// WithLockTimeout overrides the balance key lock wait bound.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockTimeout = d }
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		balances:     make(map[entity.BalanceKey]entity.LocationBalance),
		receipts:     make(map[id.ID]receipts.Receipt),
		receiptLines: make(map[id.ID][]receipts.Line),
		checks:       make(map[id.ID]checks.InventoryCheck),
		checkDetails: make(map[id.ID][]checks.Detail),
		areas:        make(map[id.ID]storagearea.StorageArea),
		items:        make(map[id.ID]item.Item),
		sequences:    make(map[string]int64),
		locks:        make(map[string]chan struct{}),
		lockTimeout:  DefaultLockTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// --- Transactions ---

type txKey struct{}

// memTx buffers one transaction's writes until commit.
type memTx struct {
	store *Store

	balances map[entity.BalanceKey]entity.LocationBalance
	entries  []*entity.LedgerEntry

	receipts     map[id.ID]receipts.Receipt
	receiptLines map[id.ID][]receipts.Line

	checks       map[id.ID]checks.InventoryCheck
	checkDetails map[id.ID][]checks.Detail

	areas map[id.ID]storagearea.StorageArea
	items map[id.ID]item.Item

	heldKeys map[string]bool
}

func newTx(s *Store) *memTx {
	return &memTx{
		store:        s,
		balances:     make(map[entity.BalanceKey]entity.LocationBalance),
		receipts:     make(map[id.ID]receipts.Receipt),
		receiptLines: make(map[id.ID][]receipts.Line),
		checks:       make(map[id.ID]checks.InventoryCheck),
		checkDetails: make(map[id.ID][]checks.Detail),
		areas:        make(map[id.ID]storagearea.StorageArea),
		items:        make(map[id.ID]item.Item),
		heldKeys:     make(map[string]bool),
	}
}

func txFrom(ctx context.Context) *memTx {
	t, _ := ctx.Value(txKey{}).(*memTx)
	return t
}

// RunInTransaction implements tx.Manager. Nested calls reuse the outer
// transaction; only the outermost call commits and releases key locks.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	t := newTx(s)
	// Key locks must come back even when fn panics and a recovery layer
	// further up swallows the panic.
	defer t.releaseLocks()

	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		return err
	}
	t.commit()
	return nil
}

// ReadOnly implements tx.ReadOnlyManager. It runs fn without a write buffer:
// each read sees the latest committed state, so two reads inside one call may
// observe different states if a commit lands between them. The Postgres
// backend gives a transaction-level snapshot here; callers needing that
// consistency across reads should not rely on the memory backend for it.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// commit publishes all buffered writes atomically.
func (t *memTx) commit() {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, b := range t.balances {
		s.balances[k] = b
	}
	for _, e := range t.entries {
		s.entries = append(s.entries, *e)
	}
	for docID, r := range t.receipts {
		s.receipts[docID] = r
	}
	for docID, lines := range t.receiptLines {
		s.receiptLines[docID] = lines
	}
	for docID, c := range t.checks {
		s.checks[docID] = c
	}
	for docID, details := range t.checkDetails {
		s.checkDetails[docID] = details
	}
	for areaID, a := range t.areas {
		s.areas[areaID] = a
	}
	for itemID, it := range t.items {
		s.items[itemID] = it
	}
}

func (t *memTx) releaseLocks() {
	for key := range t.heldKeys {
		<-t.store.lockCh(key)
	}
	t.heldKeys = make(map[string]bool)
}

// --- Key locks ---

func (s *Store) lockCh(key string) chan struct{} {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	ch, ok := s.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[key] = ch
	}
	return ch
}

// acquireKey takes the per-key semaphore with a bounded wait. Reentrant
// within one transaction.
func (s *Store) acquireKey(ctx context.Context, t *memTx, key string) error {
	if t.heldKeys[key] {
		return nil
	}

	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()

	select {
	case s.lockCh(key) <- struct{}{}:
		t.heldKeys[key] = true
		return nil
	case <-timer.C:
		return apperror.NewLockTimeout(key)
	case <-ctx.Done():
		return apperror.NewLockTimeout(key).WithCause(ctx.Err())
	}
}

func requireTx(ctx context.Context, op string) (*memTx, error) {
	t := txFrom(ctx)
	if t == nil {
		return nil, apperror.NewInternal(
			errors.New(op + " requires a transaction"))
	}
	return t, nil
}

// nextSequence hands out document numbers. Increments are immediate and
// survive rollback, matching database sequence semantics.
func (s *Store) nextSequence(prefix string, year int) int64 {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	key := fmt.Sprintf("%s-%d", prefix, year)
	s.sequences[key]++
	return s.sequences[key]
}
