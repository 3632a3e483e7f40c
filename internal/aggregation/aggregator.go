// Package aggregation builds grouped, sorted and truncated views over wallet
// transaction histories.
package aggregation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/congo-pay/walletbook/internal/optional"
	"github.com/congo-pay/walletbook/internal/sorting"
	"github.com/congo-pay/walletbook/internal/wallet"
)

// Query selects and shapes the transactions to aggregate. The zero Query
// takes every transaction of every wallet.
type Query struct {
	// WalletIDs restricts the working set; empty means all wallets.
	WalletIDs       []uuid.UUID
	DateFrom        optional.Value[time.Time]
	DateTo          optional.Value[time.Time]
	Type            optional.Value[wallet.TransactionType]
	GroupSort       []sorting.Descriptor[Group]
	TransactionSort []sorting.Descriptor[wallet.Transaction]
	// TopN keeps the first N transactions per group after sorting.
	TopN optional.Value[int]
}

// Group is every filtered transaction of one type.
type Group struct {
	Type         wallet.TransactionType
	Total        decimal.Decimal
	Transactions []wallet.Transaction
}

var (
	defaultTransactionSort = []sorting.Descriptor[wallet.Transaction]{ByTimestamp(sorting.Ascending)}
	defaultGroupSort       = []sorting.Descriptor[Group]{ByAbsTotal(sorting.Descending)}
)

// Aggregate filters, groups, sorts and truncates the transactions of wallets.
// It is pure: wallets are not modified and the result shares no slices with
// them. A TopN of zero or less disables truncation.
func Aggregate(wallets []wallet.Wallet, q Query) []Group {
	from, hasFrom := q.DateFrom.Get()
	to, hasTo := q.DateTo.Get()
	kind, hasKind := q.Type.Get()

	var wanted map[uuid.UUID]struct{}
	if len(q.WalletIDs) > 0 {
		wanted = make(map[uuid.UUID]struct{}, len(q.WalletIDs))
		for _, id := range q.WalletIDs {
			wanted[id] = struct{}{}
		}
	}

	// Groups keep first-appearance order so ties in the group sort are stable.
	var groups []Group
	index := make(map[wallet.TransactionType]int)
	for _, w := range wallets {
		if wanted != nil {
			if _, ok := wanted[w.ID]; !ok {
				continue
			}
		}
		for _, tx := range w.Transactions {
			if hasFrom && tx.Timestamp.Before(from) {
				continue
			}
			if hasTo && tx.Timestamp.After(to) {
				continue
			}
			if hasKind && tx.Type != kind {
				continue
			}
			i, ok := index[tx.Type]
			if !ok {
				i = len(groups)
				index[tx.Type] = i
				groups = append(groups, Group{Type: tx.Type, Total: decimal.Zero})
			}
			groups[i].Total = groups[i].Total.Add(tx.Amount)
			groups[i].Transactions = append(groups[i].Transactions, tx)
		}
	}
	if len(groups) == 0 {
		return []Group{}
	}

	txSort := q.TransactionSort
	if len(txSort) == 0 {
		txSort = defaultTransactionSort
	}
	for i := range groups {
		sorting.Stable(groups[i].Transactions, txSort...)
	}

	groupSort := q.GroupSort
	if len(groupSort) == 0 {
		groupSort = defaultGroupSort
	}
	sorting.Stable(groups, groupSort...)

	if n, ok := q.TopN.Get(); ok && n > 0 {
		for i := range groups {
			if len(groups[i].Transactions) > n {
				groups[i].Transactions = groups[i].Transactions[:n:n]
			}
		}
	}
	return groups
}
