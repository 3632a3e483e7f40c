package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const recordExt = ".json"

// FileStore keeps each wallet in its own JSON file named <id>.json under a
// storage directory. Records are replaced atomically via rename, so readers
// observe either the old or the new content.
type FileStore struct {
	dir   string
	locks *keyedMutex
}

// NewFileStore prepares dir (creating it when missing) and returns a store
// rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &FileStore{dir: dir, locks: newKeyedMutex()}, nil
}

// Dir returns the storage root.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(id uuid.UUID) string {
	return filepath.Join(s.dir, id.String()+recordExt)
}

// ListIDs scans the storage directory for <uuid>.json files.
func (s *FileStore) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read storage directory: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != recordExt {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(e.Name(), recordExt))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// List loads every record. Any unreadable or corrupt record fails the call.
func (s *FileStore) List(ctx context.Context) ([]Wallet, error) {
	ids, err := s.ListIDs(ctx)
	if err != nil {
		return nil, err
	}
	wallets := make([]Wallet, 0, len(ids))
	for _, id := range ids {
		w, ok, err := s.Find(ctx, id)
		if err != nil {
			return nil, err
		}
		// removed between the scan and the read
		if !ok {
			continue
		}
		wallets = append(wallets, w)
	}
	return wallets, nil
}

// Find reads one record; ok is false when the file does not exist.
func (s *FileStore) Find(ctx context.Context, id uuid.UUID) (Wallet, bool, error) {
	if err := ctx.Err(); err != nil {
		return Wallet{}, false, err
	}
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Wallet{}, false, nil
		}
		return Wallet{}, false, fmt.Errorf("read wallet %s: %w", id, err)
	}
	w, err := decodeRecord(id, data)
	if err != nil {
		return Wallet{}, false, err
	}
	return w, true, nil
}

// Save writes w, optionally guarded by its concurrency token.
func (s *FileStore) Save(ctx context.Context, w *Wallet, checkConcurrency bool) error {
	if w == nil || w.ID == uuid.Nil {
		return fmt.Errorf("wallet id is required")
	}
	unlock, err := s.locks.Lock(ctx, w.ID)
	if err != nil {
		return err
	}
	defer unlock()

	record := *w
	if checkConcurrency {
		current, exists, err := s.Find(ctx, w.ID)
		if err != nil {
			return err
		}
		if exists && current.ConcurrencyToken != w.ConcurrencyToken {
			return ErrConcurrencyConflict
		}
		record.ConcurrencyToken = uuid.New()
	}

	if err := s.writeAtomic(ctx, record); err != nil {
		return err
	}
	w.ConcurrencyToken = record.ConcurrencyToken
	return nil
}

func (s *FileStore) writeAtomic(ctx context.Context, w Wallet) error {
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encode wallet %s: %w", w.ID, err)
	}

	tmp, err := os.CreateTemp(s.dir, w.ID.String()+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write wallet %s: %w", w.ID, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync wallet %s: %w", w.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close wallet %s: %w", w.ID, err)
	}

	// Last point where cancellation leaves the previous record in place.
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, s.path(w.ID)); err != nil {
		return fmt.Errorf("replace wallet %s: %w", w.ID, err)
	}
	committed = true
	return nil
}
