// Command report prints a console summary of stored wallets: the month's
// transactions grouped by type and the largest expenses of every wallet.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"

	"github.com/congo-pay/walletbook/internal/aggregation"
	"github.com/congo-pay/walletbook/internal/config"
	"github.com/congo-pay/walletbook/internal/logging"
	"github.com/congo-pay/walletbook/internal/optional"
	"github.com/congo-pay/walletbook/internal/sorting"
	"github.com/congo-pay/walletbook/internal/wallet"
)

const monthLayout = "2006-01"

var (
	storageDir = flag.String("dir", "", "Wallet storage directory (defaults to STORAGE_DIR)")
	walletFlag = flag.String("wallet", "", "Wallet id for the monthly breakdown; empty lists known wallets")
	monthFlag  = flag.String("month", "", "Month to report as YYYY-MM (defaults to the current month)")
	topFlag    = flag.Int("top", 3, "Number of largest expenses to show per wallet")
)

type options struct {
	walletID optional.Value[uuid.UUID]
	month    time.Time
	top      int
}

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	dir := *storageDir
	if dir == "" {
		dir = cfg.StorageDir
	}
	store, err := wallet.NewFileStore(dir)
	if err != nil {
		logger.Error("open wallet store", "error", err)
		os.Exit(1)
	}

	opts, err := parseOptions(*walletFlag, *monthFlag, *topFlag, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, aggregation.NewService(store, logger), wallet.NewService(store, logger), opts); err != nil {
		logger.Error("report failed", "error", err)
		os.Exit(1)
	}
}

func parseOptions(walletID, month string, top int, now time.Time) (options, error) {
	opts := options{top: top}
	if walletID != "" {
		id, err := uuid.Parse(walletID)
		if err != nil {
			return options{}, fmt.Errorf("invalid -wallet: %w", err)
		}
		opts.walletID = optional.Some(id)
	}
	if month == "" {
		opts.month = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	} else {
		m, err := time.Parse(monthLayout, month)
		if err != nil {
			return options{}, fmt.Errorf("invalid -month, want YYYY-MM: %w", err)
		}
		opts.month = m
	}
	if top <= 0 {
		return options{}, fmt.Errorf("-top must be positive")
	}
	return opts, nil
}

func run(ctx context.Context, out io.Writer, grouped *aggregation.Service, wallets *wallet.Service, opts options) error {
	from := opts.month
	to := from.AddDate(0, 1, 0).Add(-time.Nanosecond)

	if id, ok := opts.walletID.Get(); ok {
		if err := printMonth(ctx, out, grouped, wallets, id, from, to); err != nil {
			return err
		}
	} else {
		ids, err := wallets.IDs(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Wallets (%d)\n", len(ids))
		for _, id := range ids {
			fmt.Fprintf(out, "  %s\n", id)
		}
	}

	return printTopExpenses(ctx, out, grouped, wallets, from, to, opts.top)
}

// printMonth renders one wallet's month grouped by type, largest total first,
// each group in date order.
func printMonth(ctx context.Context, out io.Writer, grouped *aggregation.Service, wallets *wallet.Service, id uuid.UUID, from, to time.Time) error {
	w, err := wallets.Get(ctx, id)
	if err != nil {
		return err
	}
	groups, err := grouped.Grouped(ctx, aggregation.Query{
		WalletIDs:       []uuid.UUID{id},
		DateFrom:        optional.Some(from),
		DateTo:          optional.Some(to),
		GroupSort:       []sorting.Descriptor[aggregation.Group]{aggregation.ByAbsTotal(sorting.Descending)},
		TransactionSort: []sorting.Descriptor[wallet.Transaction]{aggregation.ByTimestamp(sorting.Ascending)},
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%s (%s) %s, balance %s %s\n", w.Name, w.ID, from.Format(monthLayout), w.CurrentBalance().StringFixed(2), w.Currency)
	if len(groups) == 0 {
		fmt.Fprintln(out, "  no transactions this month")
		return nil
	}
	for _, g := range groups {
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"Date", "Amount", "Description"})
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, tx := range g.Transactions {
			table.Append([]string{tx.Timestamp.Format("2006-01-02"), tx.Amount.StringFixed(2), tx.Description})
		}
		table.SetFooter([]string{string(g.Type), g.Total.StringFixed(2), fmt.Sprintf("%d items", len(g.Transactions))})
		table.Render()
	}
	return nil
}

func printTopExpenses(ctx context.Context, out io.Writer, grouped *aggregation.Service, wallets *wallet.Service, from, to time.Time, top int) error {
	ids, err := wallets.IDs(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nTop %d expenses, %s\n", top, from.Format(monthLayout))
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Wallet", "Date", "Amount", "Description"})
	for _, id := range ids {
		groups, err := grouped.Grouped(ctx, aggregation.Query{
			WalletIDs:       []uuid.UUID{id},
			DateFrom:        optional.Some(from),
			DateTo:          optional.Some(to),
			Type:            optional.Some(wallet.Expense),
			TransactionSort: []sorting.Descriptor[wallet.Transaction]{aggregation.ByAmount(sorting.Descending)},
			TopN:            optional.Some(top),
		})
		if err != nil {
			return err
		}
		for _, g := range groups {
			for _, tx := range g.Transactions {
				table.Append([]string{id.String(), tx.Timestamp.Format("2006-01-02"), tx.Amount.StringFixed(2), tx.Description})
			}
		}
	}
	table.Render()
	return nil
}
