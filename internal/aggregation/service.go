package aggregation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/congo-pay/walletbook/internal/metrics"
	"github.com/congo-pay/walletbook/internal/wallet"
)

// ErrInvalidQuery wraps every query validation failure.
var ErrInvalidQuery = errors.New("invalid transactions query")

// maxParallelLoads bounds concurrent Find calls for explicit wallet ids.
const maxParallelLoads = 8

// Service answers grouped-transaction queries against a wallet store.
type Service struct {
	store  wallet.Store
	logger *slog.Logger
}

// NewService builds an aggregation service.
func NewService(store wallet.Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Validate rejects queries the pipeline must never see.
func (q Query) Validate() error {
	var failures []string
	from, hasFrom := q.DateFrom.Get()
	to, hasTo := q.DateTo.Get()
	if hasFrom && hasTo && from.After(to) {
		failures = append(failures, "date_from must be less than or equal to date_to")
	}
	if n, ok := q.TopN.Get(); ok && n <= 0 {
		failures = append(failures, "top_n must be greater than 0")
	}
	for _, id := range q.WalletIDs {
		if id == uuid.Nil {
			failures = append(failures, "wallet id cannot be empty")
			break
		}
	}
	if t, ok := q.Type.Get(); ok && t != wallet.Income && t != wallet.Expense {
		failures = append(failures, fmt.Sprintf("unknown transaction type %q", t))
	}
	if len(failures) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidQuery, strings.Join(failures, "; "))
	}
	return nil
}

// Grouped validates q, loads the wallets it names and aggregates them.
func (s *Service) Grouped(ctx context.Context, q Query) ([]Group, error) {
	if err := q.Validate(); err != nil {
		s.logger.Warn("grouped transactions validation failed", slog.Any("error", err))
		return nil, err
	}

	start := time.Now()
	s.logger.Info("grouping transactions", slog.Int("wallets_requested", len(q.WalletIDs)))

	wallets, err := s.load(ctx, q.WalletIDs)
	if err != nil {
		s.logger.Error("load wallets failed", slog.Any("error", err))
		return nil, err
	}

	groups := Aggregate(wallets, q)
	metrics.ObserveAggregation(time.Since(start), len(groups))
	s.logger.Info("grouped transactions", slog.Int("wallets", len(wallets)), slog.Int("groups", len(groups)))
	return groups, nil
}

// load returns every wallet when ids is empty, otherwise the wallets found
// for ids in the given order; unknown and repeated ids are dropped.
func (s *Service) load(ctx context.Context, ids []uuid.UUID) ([]wallet.Wallet, error) {
	if len(ids) == 0 {
		return s.store.List(ctx)
	}

	seen := make(map[uuid.UUID]struct{}, len(ids))
	unique := ids[:0:0]
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	ids = unique

	found := make([]*wallet.Wallet, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			w, ok, err := s.store.Find(gctx, id)
			if err != nil {
				return err
			}
			if ok {
				found[i] = &w
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	wallets := make([]wallet.Wallet, 0, len(ids))
	for _, w := range found {
		if w != nil {
			wallets = append(wallets, *w)
		}
	}
	return wallets, nil
}
