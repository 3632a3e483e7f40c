// Package metrics exposes Prometheus instrumentation for the wallet store and
// the aggregation pipeline.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/congo-pay/walletbook/internal/wallet"
)

const (
	outcomeOK       = "ok"
	outcomeConflict = "conflict"
	outcomeError    = "error"
)

var (
	storeOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walletbook_store_operations_total",
			Help: "Wallet store operations by backend, operation and outcome",
		},
		[]string{"backend", "operation", "outcome"},
	)

	storeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "walletbook_store_operation_duration_seconds",
			Help:    "Duration of wallet store operations",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"backend", "operation"},
	)

	aggregationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "walletbook_aggregation_duration_seconds",
			Help:    "Duration of grouped transaction queries including wallet loading",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2},
		},
	)

	aggregationGroups = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "walletbook_aggregation_groups_total",
			Help: "Transaction groups returned by grouped queries",
		},
	)
)

// ObserveAggregation records one grouped query.
func ObserveAggregation(d time.Duration, groups int) {
	aggregationDuration.Observe(d.Seconds())
	aggregationGroups.Add(float64(groups))
}

type instrumentedStore struct {
	next    wallet.Store
	backend string
}

// InstrumentStore wraps next so every call is counted and timed under the
// given backend label.
func InstrumentStore(next wallet.Store, backend string) wallet.Store {
	return &instrumentedStore{next: next, backend: backend}
}

func (s *instrumentedStore) observe(op string, start time.Time, err error) {
	outcome := outcomeOK
	switch {
	case errors.Is(err, wallet.ErrConcurrencyConflict):
		outcome = outcomeConflict
	case err != nil:
		outcome = outcomeError
	}
	storeOperations.WithLabelValues(s.backend, op, outcome).Inc()
	storeDuration.WithLabelValues(s.backend, op).Observe(time.Since(start).Seconds())
}

func (s *instrumentedStore) ListIDs(ctx context.Context) (ids []uuid.UUID, err error) {
	defer func(start time.Time) { s.observe("list_ids", start, err) }(time.Now())
	return s.next.ListIDs(ctx)
}

func (s *instrumentedStore) List(ctx context.Context) (wallets []wallet.Wallet, err error) {
	defer func(start time.Time) { s.observe("list", start, err) }(time.Now())
	return s.next.List(ctx)
}

func (s *instrumentedStore) Find(ctx context.Context, id uuid.UUID) (w wallet.Wallet, ok bool, err error) {
	defer func(start time.Time) { s.observe("find", start, err) }(time.Now())
	return s.next.Find(ctx, id)
}

func (s *instrumentedStore) Save(ctx context.Context, w *wallet.Wallet, checkConcurrency bool) (err error) {
	defer func(start time.Time) { s.observe("save", start, err) }(time.Now())
	return s.next.Save(ctx, w, checkConcurrency)
}
