package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// runStoreContract exercises the behaviour every Store backend must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("round trip rotates token", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		w := sampleWallet()

		if err := store.Save(ctx, &w, true); err != nil {
			t.Fatalf("first save: %v", err)
		}
		if w.ConcurrencyToken == uuid.Nil {
			t.Fatalf("expected token assigned on first checked save")
		}
		firstToken := w.ConcurrencyToken

		w.Transactions = append(w.Transactions, newTx(Expense, "12.40", 3))
		if err := store.Save(ctx, &w, true); err != nil {
			t.Fatalf("second save: %v", err)
		}
		if w.ConcurrencyToken == firstToken {
			t.Fatalf("expected token to rotate after checked save")
		}

		got, ok, err := store.Find(ctx, w.ID)
		if err != nil || !ok {
			t.Fatalf("find: ok=%v err=%v", ok, err)
		}
		assertSameWallet(t, w, got)
		if got.ConcurrencyToken != w.ConcurrencyToken {
			t.Fatalf("stored token %s differs from caller token %s", got.ConcurrencyToken, w.ConcurrencyToken)
		}
	})

	t.Run("stale token is rejected", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		w := sampleWallet()
		if err := store.Save(ctx, &w, true); err != nil {
			t.Fatalf("seed: %v", err)
		}

		stale := w.Clone()
		w.Transactions = append(w.Transactions, newTx(Income, "5", 4))
		if err := store.Save(ctx, &w, true); err != nil {
			t.Fatalf("fresh save: %v", err)
		}

		staleToken := stale.ConcurrencyToken
		stale.Name = "overwritten"
		if err := store.Save(ctx, &stale, true); !errors.Is(err, ErrConcurrencyConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
		if stale.ConcurrencyToken != staleToken {
			t.Fatalf("rejected save must not touch the caller token")
		}

		got, _, err := store.Find(ctx, w.ID)
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		assertSameWallet(t, w, got)
	})

	t.Run("unchecked save keeps token", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		w := sampleWallet()
		w.ConcurrencyToken = uuid.New()
		token := w.ConcurrencyToken

		if err := store.Save(ctx, &w, false); err != nil {
			t.Fatalf("save: %v", err)
		}
		if w.ConcurrencyToken != token {
			t.Fatalf("unchecked save rotated the token")
		}
		got, _, _ := store.Find(ctx, w.ID)
		if got.ConcurrencyToken != token {
			t.Fatalf("stored token %s, want %s", got.ConcurrencyToken, token)
		}
	})

	t.Run("find missing is absent", func(t *testing.T) {
		store := newStore(t)
		_, ok, err := store.Find(context.Background(), uuid.New())
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if ok {
			t.Fatalf("expected absent wallet")
		}
	})

	t.Run("list returns every wallet", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		want := map[uuid.UUID]bool{}
		for i := 0; i < 3; i++ {
			w := sampleWallet()
			if err := store.Save(ctx, &w, true); err != nil {
				t.Fatalf("save %d: %v", i, err)
			}
			want[w.ID] = true
		}

		ids, err := store.ListIDs(ctx)
		if err != nil {
			t.Fatalf("list ids: %v", err)
		}
		if len(ids) != len(want) {
			t.Fatalf("expected %d ids, got %d", len(want), len(ids))
		}
		for _, id := range ids {
			if !want[id] {
				t.Fatalf("unexpected id %s", id)
			}
		}

		wallets, err := store.List(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(wallets) != len(want) {
			t.Fatalf("expected %d wallets, got %d", len(want), len(wallets))
		}
	})

	t.Run("concurrent checked saves never lose updates", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		w := sampleWallet()
		w.Transactions = nil
		if err := store.Save(ctx, &w, true); err != nil {
			t.Fatalf("seed: %v", err)
		}

		const workers = 12
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				cur, _, err := store.Find(ctx, w.ID)
				if err != nil {
					t.Errorf("find %d: %v", i, err)
					return
				}
				cur.Transactions = append(cur.Transactions, newTx(Income, "1", i))
				err = store.Save(ctx, &cur, true)
				switch {
				case err == nil:
					mu.Lock()
					successes++
					mu.Unlock()
				case errors.Is(err, ErrConcurrencyConflict):
				default:
					t.Errorf("save %d: %v", i, err)
				}
			}(i)
		}
		wg.Wait()

		got, _, err := store.Find(ctx, w.ID)
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if successes == 0 {
			t.Fatalf("expected at least one successful save")
		}
		if len(got.Transactions) != successes {
			t.Fatalf("expected %d transactions, got %d", successes, len(got.Transactions))
		}
	})

	t.Run("concurrent first writes admit one winner", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		seed := sampleWallet()

		const workers = 10
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
			conflicts int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				w := seed.Clone()
				w.Name = fmt.Sprintf("writer %d", i)
				err := store.Save(ctx, &w, true)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					successes++
				case errors.Is(err, ErrConcurrencyConflict):
					conflicts++
				default:
					t.Errorf("save %d: %v", i, err)
				}
			}(i)
		}
		wg.Wait()

		if successes != 1 || conflicts != workers-1 {
			t.Fatalf("expected 1 success and %d conflicts, got %d and %d", workers-1, successes, conflicts)
		}
	})

	t.Run("cancelled save leaves record unchanged", func(t *testing.T) {
		store := newStore(t)
		w := sampleWallet()
		if err := store.Save(context.Background(), &w, true); err != nil {
			t.Fatalf("seed: %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		changed := w.Clone()
		changed.Name = "should not persist"
		if err := store.Save(ctx, &changed, false); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}

		got, _, err := store.Find(context.Background(), w.ID)
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if got.Name != w.Name {
			t.Fatalf("cancelled save changed name to %q", got.Name)
		}
	})
}

func sampleWallet() Wallet {
	return Wallet{
		ID:             uuid.New(),
		Name:           "Daily",
		Currency:       CurrencyUSD,
		InitialBalance: decimal.RequireFromString("250.75"),
		Transactions: []Transaction{
			newTx(Income, "100", 1),
			newTx(Expense, "30.25", 2),
		},
	}
}

func newTx(kind TransactionType, amount string, day int) Transaction {
	return Transaction{
		ID:          uuid.New(),
		Timestamp:   time.Date(2025, time.March, day, 10, 0, 0, 0, time.UTC),
		Amount:      decimal.RequireFromString(amount),
		Type:        kind,
		Description: string(kind) + " on day",
	}
}

func assertSameWallet(t *testing.T, want, got Wallet) {
	t.Helper()
	if got.ID != want.ID || got.Name != want.Name || got.Currency != want.Currency {
		t.Fatalf("wallet header mismatch: want %+v got %+v", want, got)
	}
	if !got.InitialBalance.Equal(want.InitialBalance) {
		t.Fatalf("initial balance: want %s got %s", want.InitialBalance, got.InitialBalance)
	}
	if len(got.Transactions) != len(want.Transactions) {
		t.Fatalf("transactions: want %d got %d", len(want.Transactions), len(got.Transactions))
	}
	for i := range want.Transactions {
		w, g := want.Transactions[i], got.Transactions[i]
		if g.ID != w.ID || g.Type != w.Type || g.Description != w.Description ||
			!g.Amount.Equal(w.Amount) || !g.Timestamp.Equal(w.Timestamp) {
			t.Fatalf("transaction %d: want %+v got %+v", i, w, g)
		}
	}
}
