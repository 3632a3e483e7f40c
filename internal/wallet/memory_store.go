package wallet

import (
    "context"
    "fmt"
    "sync"

    "github.com/google/uuid"
)

type memoryStore struct {
    mu      sync.RWMutex
    storage map[uuid.UUID]Wallet
}

// NewMemoryStore constructs an in-memory store for tests and local runs.
func NewMemoryStore() Store {
    return &memoryStore{storage: make(map[uuid.UUID]Wallet)}
}

func (s *memoryStore) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
    if err := ctx.Err(); err != nil {
        return nil, err
    }
    s.mu.RLock()
    defer s.mu.RUnlock()
    ids := make([]uuid.UUID, 0, len(s.storage))
    for id := range s.storage {
        ids = append(ids, id)
    }
    return ids, nil
}

func (s *memoryStore) List(ctx context.Context) ([]Wallet, error) {
    if err := ctx.Err(); err != nil {
        return nil, err
    }
    s.mu.RLock()
    defer s.mu.RUnlock()
    wallets := make([]Wallet, 0, len(s.storage))
    for _, w := range s.storage {
        wallets = append(wallets, w.Clone())
    }
    return wallets, nil
}

func (s *memoryStore) Find(ctx context.Context, id uuid.UUID) (Wallet, bool, error) {
    if err := ctx.Err(); err != nil {
        return Wallet{}, false, err
    }
    s.mu.RLock()
    defer s.mu.RUnlock()
    w, ok := s.storage[id]
    if !ok {
        return Wallet{}, false, nil
    }
    return w.Clone(), true, nil
}

func (s *memoryStore) Save(ctx context.Context, w *Wallet, checkConcurrency bool) error {
    if w == nil || w.ID == uuid.Nil {
        return fmt.Errorf("wallet id is required")
    }
    if err := ctx.Err(); err != nil {
        return err
    }
    s.mu.Lock()
    defer s.mu.Unlock()

    record := w.Clone()
    if checkConcurrency {
        if current, exists := s.storage[w.ID]; exists && current.ConcurrencyToken != w.ConcurrencyToken {
            return ErrConcurrencyConflict
        }
        record.ConcurrencyToken = uuid.New()
    }
    s.storage[w.ID] = record
    w.ConcurrencyToken = record.ConcurrencyToken
    return nil
}
