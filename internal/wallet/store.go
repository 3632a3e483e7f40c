package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrConcurrencyConflict is returned by a checked Save when the stored
// concurrency token no longer matches the caller's copy. Nothing is written.
var ErrConcurrencyConflict = errors.New("wallet was modified concurrently")

// ErrCorruptRecord marks a stored record that cannot be decoded or that does
// not describe the wallet it is stored under.
var ErrCorruptRecord = errors.New("corrupt wallet record")

// decodeRecord parses the document stored under id. A record must carry a
// non-nil id equal to the key it is stored under.
func decodeRecord(id uuid.UUID, data []byte) (Wallet, error) {
	var w Wallet
	if err := json.Unmarshal(data, &w); err != nil {
		return Wallet{}, fmt.Errorf("%w: wallet %s: %w", ErrCorruptRecord, id, err)
	}
	switch w.ID {
	case uuid.Nil:
		return Wallet{}, fmt.Errorf("%w: wallet %s: record has no id", ErrCorruptRecord, id)
	case id:
		return w, nil
	default:
		return Wallet{}, fmt.Errorf("%w: wallet %s: record holds wallet %s", ErrCorruptRecord, id, w.ID)
	}
}

// Store persists wallets, one independent record per wallet id.
type Store interface {
	// ListIDs enumerates stored wallet ids in no particular order.
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
	// List loads every stored wallet. A record that cannot be read, or that
	// fails decodeRecord with ErrCorruptRecord, fails the whole call.
	List(ctx context.Context) ([]Wallet, error)
	// Find loads one wallet. The boolean is false when no record exists.
	Find(ctx context.Context, id uuid.UUID) (Wallet, bool, error)
	// Save writes w. With checkConcurrency the write only happens when the
	// stored token equals w.ConcurrencyToken (or no record exists yet), and
	// w.ConcurrencyToken is replaced by a fresh token on success. Without it
	// the record is overwritten and the token is left alone.
	Save(ctx context.Context, w *Wallet, checkConcurrency bool) error
}

// keyedMutex serialises work per wallet id. Entries are created on demand and
// dropped once nobody holds or waits for them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*keyLock
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[uuid.UUID]*keyLock)}
}

// Lock blocks until id is free or ctx is done. The returned func releases it.
func (k *keyedMutex) Lock(ctx context.Context, id uuid.UUID) (func(), error) {
	k.mu.Lock()
	l, ok := k.locks[id]
	if !ok {
		l = &keyLock{sem: make(chan struct{}, 1)}
		k.locks[id] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.sem <- struct{}{}:
		return func() {
			<-l.sem
			k.release(id, l)
		}, nil
	case <-ctx.Done():
		k.release(id, l)
		return nil, ctx.Err()
	}
}

func (k *keyedMutex) release(id uuid.UUID, l *keyLock) {
	k.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, id)
	}
	k.mu.Unlock()
}
