package wallet

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code supported by wallets.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyRUB Currency = "RUB"
	CurrencyXAF Currency = "XAF"
)

// Valid reports whether c is a supported currency.
func (c Currency) Valid() bool {
	switch c {
	case CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyRUB, CurrencyXAF:
		return true
	}
	return false
}

// TransactionType tells whether a transaction adds to or withdraws from a wallet.
type TransactionType string

const (
	Income  TransactionType = "Income"
	Expense TransactionType = "Expense"
)

// ParseTransactionType accepts the canonical names case-insensitively.
func ParseTransactionType(s string) (TransactionType, error) {
	switch {
	case strings.EqualFold(s, string(Income)):
		return Income, nil
	case strings.EqualFold(s, string(Expense)):
		return Expense, nil
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

// Transaction is a single wallet movement. Amount is never negative; the sign
// comes from Type.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	Description string          `json:"description,omitempty"`
}

// Wallet is the unit of persistence. ConcurrencyToken changes on every
// checked save and is used to detect lost updates.
type Wallet struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	Currency         Currency        `json:"currency"`
	Transactions     []Transaction   `json:"transactions"`
	InitialBalance   decimal.Decimal `json:"initial_balance"`
	ConcurrencyToken uuid.UUID       `json:"concurrency_token"`
}

// Totals sums incomes and expenses separately. When txs is nil the wallet's
// own transactions are used.
func (w Wallet) Totals(txs []Transaction) (incomes, expenses decimal.Decimal) {
	if txs == nil {
		txs = w.Transactions
	}
	incomes, expenses = decimal.Zero, decimal.Zero
	for _, tx := range txs {
		if tx.Type == Income {
			incomes = incomes.Add(tx.Amount)
			continue
		}
		expenses = expenses.Add(tx.Amount)
	}
	return incomes, expenses
}

// CurrentBalance is the initial balance plus incomes minus expenses.
func (w Wallet) CurrentBalance() decimal.Decimal {
	incomes, expenses := w.Totals(nil)
	return w.InitialBalance.Add(incomes).Sub(expenses)
}

// Clone returns a copy that shares no slice storage with w.
func (w Wallet) Clone() Wallet {
	c := w
	if w.Transactions != nil {
		c.Transactions = make([]Transaction, len(w.Transactions))
		copy(c.Transactions, w.Transactions)
	}
	return c
}
