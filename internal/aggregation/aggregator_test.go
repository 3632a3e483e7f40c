package aggregation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/walletbook/internal/optional"
	"github.com/congo-pay/walletbook/internal/sorting"
	"github.com/congo-pay/walletbook/internal/wallet"
)

func day(d int) time.Time {
	return time.Date(2025, time.March, d, 12, 0, 0, 0, time.UTC)
}

func tx(kind wallet.TransactionType, amount string, d int, desc string) wallet.Transaction {
	return wallet.Transaction{
		ID:          uuid.New(),
		Timestamp:   day(d),
		Amount:      decimal.RequireFromString(amount),
		Type:        kind,
		Description: desc,
	}
}

func walletWith(txs ...wallet.Transaction) wallet.Wallet {
	return wallet.Wallet{ID: uuid.New(), Name: "test", Currency: wallet.CurrencyUSD, Transactions: txs}
}

func descriptions(txs []wallet.Transaction) []string {
	out := make([]string, 0, len(txs))
	for _, t := range txs {
		out = append(out, t.Description)
	}
	return out
}

func TestAggregateGroupsByType(t *testing.T) {
	w := walletWith(
		tx(wallet.Income, "100", 1, "salary"),
		tx(wallet.Expense, "30", 2, "food"),
		tx(wallet.Expense, "20", 3, "taxi"),
	)

	groups := Aggregate([]wallet.Wallet{w}, Query{})
	require.Len(t, groups, 2)

	assert.Equal(t, wallet.Income, groups[0].Type)
	assert.Equal(t, "100", groups[0].Total.String())
	assert.Len(t, groups[0].Transactions, 1)

	assert.Equal(t, wallet.Expense, groups[1].Type)
	assert.Equal(t, "50", groups[1].Total.String())
	assert.Len(t, groups[1].Transactions, 2)
}

func TestAggregateDefaultOrdering(t *testing.T) {
	w := walletWith(
		tx(wallet.Income, "10", 5, "late income"),
		tx(wallet.Expense, "70", 9, "late expense"),
		tx(wallet.Income, "15", 1, "early income"),
		tx(wallet.Expense, "5", 2, "early expense"),
	)

	groups := Aggregate([]wallet.Wallet{w}, Query{})
	require.Len(t, groups, 2)

	// Expense total 75 outweighs income total 25.
	assert.Equal(t, wallet.Expense, groups[0].Type)
	assert.Equal(t, []string{"early expense", "late expense"}, descriptions(groups[0].Transactions))
	assert.Equal(t, []string{"early income", "late income"}, descriptions(groups[1].Transactions))
}

func TestAggregateTopNAfterSort(t *testing.T) {
	w := walletWith(
		tx(wallet.Expense, "10", 1, "a"),
		tx(wallet.Expense, "50", 2, "b"),
		tx(wallet.Expense, "30", 3, "c"),
		tx(wallet.Expense, "40", 4, "d"),
		tx(wallet.Expense, "20", 5, "e"),
	)

	groups := Aggregate([]wallet.Wallet{w}, Query{
		TransactionSort: []sorting.Descriptor[wallet.Transaction]{ByAmount(sorting.Descending)},
		TopN:            optional.Some(3),
	})
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"b", "d", "c"}, descriptions(groups[0].Transactions))
	// The total covers the whole filtered group, not only the kept entries.
	assert.Equal(t, "150", groups[0].Total.String())
}

func TestAggregateNonPositiveTopNKeepsEverything(t *testing.T) {
	w := walletWith(tx(wallet.Expense, "1", 1, "a"), tx(wallet.Expense, "2", 2, "b"))
	for _, n := range []int{0, -4} {
		groups := Aggregate([]wallet.Wallet{w}, Query{TopN: optional.Some(n)})
		require.Len(t, groups, 1)
		assert.Len(t, groups[0].Transactions, 2, "top_n=%d", n)
	}
}

func TestAggregateFilters(t *testing.T) {
	w := walletWith(
		tx(wallet.Expense, "1", 1, "before"),
		tx(wallet.Expense, "2", 10, "from edge"),
		tx(wallet.Income, "3", 15, "inside income"),
		tx(wallet.Expense, "4", 20, "to edge"),
		tx(wallet.Expense, "5", 25, "after"),
	)
	q := Query{DateFrom: optional.Some(day(10)), DateTo: optional.Some(day(20))}

	groups := Aggregate([]wallet.Wallet{w}, q)
	var seen []string
	for _, g := range groups {
		seen = append(seen, descriptions(g.Transactions)...)
	}
	assert.ElementsMatch(t, []string{"from edge", "inside income", "to edge"}, seen)

	q.Type = optional.Some(wallet.Income)
	groups = Aggregate([]wallet.Wallet{w}, q)
	require.Len(t, groups, 1)
	assert.Equal(t, wallet.Income, groups[0].Type)
	assert.Equal(t, []string{"inside income"}, descriptions(groups[0].Transactions))
}

func TestAggregateWalletSelection(t *testing.T) {
	a := walletWith(tx(wallet.Income, "1", 1, "a"))
	b := walletWith(tx(wallet.Income, "2", 2, "b"))

	groups := Aggregate([]wallet.Wallet{a, b}, Query{WalletIDs: []uuid.UUID{b.ID, uuid.New()}})
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"b"}, descriptions(groups[0].Transactions))

	groups = Aggregate([]wallet.Wallet{a, b}, Query{})
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"a", "b"}, descriptions(groups[0].Transactions))
}

func TestAggregateEmptyInput(t *testing.T) {
	assert.Empty(t, Aggregate(nil, Query{}))

	w := walletWith(tx(wallet.Income, "1", 1, "a"))
	groups := Aggregate([]wallet.Wallet{w}, Query{Type: optional.Some(wallet.Expense)})
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestAggregateCustomMultiKeySort(t *testing.T) {
	w := walletWith(
		tx(wallet.Expense, "10", 3, "x"),
		tx(wallet.Expense, "10", 1, "y"),
		tx(wallet.Expense, "25", 2, "z"),
		tx(wallet.Income, "500", 4, "big income"),
	)

	groups := Aggregate([]wallet.Wallet{w}, Query{
		GroupSort: []sorting.Descriptor[Group]{ByTotal(sorting.Ascending)},
		TransactionSort: []sorting.Descriptor[wallet.Transaction]{
			ByAmount(sorting.Ascending),
			ByTimestamp(sorting.Descending),
		},
	})
	require.Len(t, groups, 2)
	assert.Equal(t, wallet.Expense, groups[0].Type)
	assert.Equal(t, []string{"x", "y", "z"}, descriptions(groups[0].Transactions))
}

func TestAggregateDoesNotMutateSource(t *testing.T) {
	w := walletWith(
		tx(wallet.Expense, "3", 3, "c"),
		tx(wallet.Expense, "1", 1, "a"),
		tx(wallet.Expense, "2", 2, "b"),
	)
	before := descriptions(w.Transactions)

	groups := Aggregate([]wallet.Wallet{w}, Query{TopN: optional.Some(1)})
	require.Len(t, groups, 1)
	groups[0].Transactions[0].Description = "changed"

	assert.Equal(t, before, descriptions(w.Transactions))
}

func TestParseSortSpecs(t *testing.T) {
	txSort, err := ParseTransactionSort("amount:desc, date")
	require.NoError(t, err)
	require.Len(t, txSort, 2)
	assert.Equal(t, sorting.Descending, txSort[0].Direction)
	assert.Equal(t, sorting.Ascending, txSort[1].Direction)

	groupSort, err := ParseGroupSort("")
	require.NoError(t, err)
	assert.Empty(t, groupSort)

	_, err = ParseGroupSort("weight:desc")
	assert.Error(t, err)
	_, err = ParseTransactionSort("amount:up")
	assert.Error(t, err)
}
