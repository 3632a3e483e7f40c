package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/congo-pay/walletbook/internal/notification"
)

var (
	// ErrWalletNotFound indicates no record exists for the requested wallet id.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrCurrencyMismatch occurs when a transaction's currency differs from
	// the wallet's currency.
	ErrCurrencyMismatch = errors.New("currency does not match wallet")

	// ErrInsufficientFunds occurs when an expense exceeds the current balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// ValidationError lists every rule an input broke.
type ValidationError struct {
	Failures []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Failures, "; ")
}

// Service implements wallet use cases on top of a Store.
type Service struct {
	store    Store
	logger   *slog.Logger
	validate *validator.Validate
	notifier notification.Notifier
	now      func() time.Time
}

// NewService builds a wallet service instance.
func NewService(store Store, logger *slog.Logger) *Service {
	v := validator.New()
	// Decimals validate as their exact sign (-1, 0, 1), so only comparisons
	// against zero are meaningful in tags on decimal fields.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.Sign()
		}
		return nil
	}, decimal.Decimal{})

	return &Service{
		store:    store,
		logger:   logger,
		validate: v,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithNotifier sets where wallet events are sent. Delivery failures are
// logged and never fail the operation that caused them.
func (s *Service) WithNotifier(n notification.Notifier) *Service {
	s.notifier = n
	return s
}

func (s *Service) notify(ctx context.Context, kind string, walletID uuid.UUID, body string) {
	if s.notifier == nil {
		return
	}
	msg := notification.Message{Kind: kind, WalletID: walletID.String(), Body: body, At: s.now()}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Warn("notification failed", slog.String("kind", kind), slog.Any("error", err))
	}
}

// CreateWalletInput captures data required to open a wallet.
type CreateWalletInput struct {
	Name           string          `validate:"required,max=128"`
	Currency       Currency        `validate:"required,oneof=USD EUR GBP RUB XAF"`
	InitialBalance decimal.Decimal `validate:"gte=0"`
}

// CreateWallet stores a new, empty wallet.
func (s *Service) CreateWallet(ctx context.Context, input CreateWalletInput) (Wallet, error) {
	if err := s.check(input); err != nil {
		return Wallet{}, err
	}

	w := Wallet{
		ID:             uuid.New(),
		Name:           input.Name,
		Currency:       input.Currency,
		Transactions:   []Transaction{},
		InitialBalance: input.InitialBalance,
	}
	if err := s.store.Save(ctx, &w, true); err != nil {
		s.logger.Error("create wallet failed", slog.String("wallet_id", w.ID.String()), slog.Any("error", err))
		return Wallet{}, err
	}
	s.logger.Info("wallet created", slog.String("wallet_id", w.ID.String()), slog.String("currency", string(w.Currency)))
	s.notify(ctx, notification.KindWalletCreated, w.ID, w.Name)
	return w, nil
}

// Get retrieves one wallet or ErrWalletNotFound.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Wallet, error) {
	w, ok, err := s.store.Find(ctx, id)
	if err != nil {
		return Wallet{}, err
	}
	if !ok {
		return Wallet{}, ErrWalletNotFound
	}
	return w, nil
}

// IDs lists every known wallet id.
func (s *Service) IDs(ctx context.Context) ([]uuid.UUID, error) {
	return s.store.ListIDs(ctx)
}

// AddTransactionInput captures data needed to post a transaction.
type AddTransactionInput struct {
	WalletID    uuid.UUID       `validate:"required"`
	Currency    Currency        `validate:"required,oneof=USD EUR GBP RUB XAF"`
	Amount      decimal.Decimal `validate:"gt=0"`
	Type        TransactionType `validate:"required,oneof=Income Expense"`
	Description string          `validate:"max=256"`
}

// AddTransaction appends a transaction to a wallet and persists it with a
// concurrency check. A concurrent modification surfaces as
// ErrConcurrencyConflict; the caller decides whether to reload and retry.
func (s *Service) AddTransaction(ctx context.Context, input AddTransactionInput) (Transaction, error) {
	if err := s.check(input); err != nil {
		s.logger.Error("add transaction validation failed", slog.String("wallet_id", input.WalletID.String()), slog.Any("error", err))
		return Transaction{}, err
	}

	s.logger.Info("adding transaction", slog.String("wallet_id", input.WalletID.String()), slog.String("type", string(input.Type)))

	w, err := s.Get(ctx, input.WalletID)
	if err != nil {
		s.logger.Error("load wallet failed", slog.String("wallet_id", input.WalletID.String()), slog.Any("error", err))
		return Transaction{}, err
	}

	if w.Currency != input.Currency {
		return Transaction{}, fmt.Errorf("%w: wallet %s expects %s, got %s", ErrCurrencyMismatch, w.ID, w.Currency, input.Currency)
	}
	if input.Type == Expense && w.CurrentBalance().LessThan(input.Amount) {
		return Transaction{}, ErrInsufficientFunds
	}

	tx := Transaction{
		ID:          uuid.New(),
		Timestamp:   s.now(),
		Amount:      input.Amount,
		Type:        input.Type,
		Description: input.Description,
	}
	w.Transactions = append(w.Transactions, tx)

	if err := s.store.Save(ctx, &w, true); err != nil {
		s.logger.Warn("save wallet failed", slog.String("wallet_id", w.ID.String()), slog.Any("error", err))
		return Transaction{}, err
	}

	s.logger.Info("transaction added", slog.String("wallet_id", w.ID.String()), slog.String("transaction_id", tx.ID.String()))
	s.notify(ctx, notification.KindTransactionRecorded, w.ID, fmt.Sprintf("%s %s %s", tx.Type, tx.Amount, w.Currency))
	return tx, nil
}

func (s *Service) check(input any) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		verr.Failures = append(verr.Failures, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return verr
}
