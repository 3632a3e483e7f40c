package aggregation

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/congo-pay/walletbook/internal/sorting"
	"github.com/congo-pay/walletbook/internal/wallet"
)

// ByTimestamp orders transactions by when they happened.
func ByTimestamp(dir sorting.Direction) sorting.Descriptor[wallet.Transaction] {
	return sorting.ByFunc(func(t wallet.Transaction) time.Time { return t.Timestamp }, time.Time.Compare, dir)
}

// ByAmount orders transactions by amount.
func ByAmount(dir sorting.Direction) sorting.Descriptor[wallet.Transaction] {
	return sorting.ByFunc(func(t wallet.Transaction) decimal.Decimal { return t.Amount }, decimal.Decimal.Cmp, dir)
}

// ByTotal orders groups by their summed amount.
func ByTotal(dir sorting.Direction) sorting.Descriptor[Group] {
	return sorting.ByFunc(func(g Group) decimal.Decimal { return g.Total }, decimal.Decimal.Cmp, dir)
}

// ByAbsTotal orders groups by the magnitude of their summed amount.
func ByAbsTotal(dir sorting.Direction) sorting.Descriptor[Group] {
	return sorting.ByFunc(func(g Group) decimal.Decimal { return g.Total.Abs() }, decimal.Decimal.Cmp, dir)
}

var transactionKeys = map[string]func(sorting.Direction) sorting.Descriptor[wallet.Transaction]{
	"timestamp": ByTimestamp,
	"date":      ByTimestamp,
	"amount":    ByAmount,
	"type": func(dir sorting.Direction) sorting.Descriptor[wallet.Transaction] {
		return sorting.By(func(t wallet.Transaction) string { return string(t.Type) }, dir)
	},
	"description": func(dir sorting.Direction) sorting.Descriptor[wallet.Transaction] {
		return sorting.By(func(t wallet.Transaction) string { return t.Description }, dir)
	},
}

var groupKeys = map[string]func(sorting.Direction) sorting.Descriptor[Group]{
	"total":     ByTotal,
	"abs_total": ByAbsTotal,
	"type": func(dir sorting.Direction) sorting.Descriptor[Group] {
		return sorting.By(func(g Group) string { return string(g.Type) }, dir)
	},
	"count": func(dir sorting.Direction) sorting.Descriptor[Group] {
		return sorting.By(func(g Group) int { return len(g.Transactions) }, dir)
	},
}

// ParseTransactionSort turns "amount:desc,timestamp" into descriptors.
// Keys: timestamp (alias date), amount, type, description.
func ParseTransactionSort(raw string) ([]sorting.Descriptor[wallet.Transaction], error) {
	return parseSort(raw, transactionKeys)
}

// ParseGroupSort turns "abs_total:desc,type" into descriptors.
// Keys: total, abs_total, type, count.
func ParseGroupSort(raw string) ([]sorting.Descriptor[Group], error) {
	return parseSort(raw, groupKeys)
}

func parseSort[T any](raw string, keys map[string]func(sorting.Direction) sorting.Descriptor[T]) ([]sorting.Descriptor[T], error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var out []sorting.Descriptor[T]
	for _, part := range strings.Split(raw, ",") {
		name, dirText, _ := strings.Cut(strings.TrimSpace(part), ":")
		build, ok := keys[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown sort key %q", name)
		}
		dir, err := sorting.ParseDirection(dirText)
		if err != nil {
			return nil, err
		}
		out = append(out, build(dir))
	}
	return out, nil
}
