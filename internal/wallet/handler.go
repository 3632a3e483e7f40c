package wallet

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Name           string          `json:"name"`
	Currency       string          `json:"currency"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

type transactionRequest struct {
	Currency    string          `json:"currency"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
}

type walletResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Currency       string          `json:"currency"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	Balance        decimal.Decimal `json:"balance"`
	Incomes        decimal.Decimal `json:"incomes"`
	Expenses       decimal.Decimal `json:"expenses"`
	Transactions   int             `json:"transactions"`
	AsOf           time.Time       `json:"as_of"`
}

// List returns every known wallet id.
func (h *Handler) List(c *fiber.Ctx) error {
	ids, err := h.service.IDs(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"wallet_ids": out})
}

// Create opens a wallet.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	w, err := h.service.CreateWallet(c.UserContext(), CreateWalletInput{
		Name:           req.Name,
		Currency:       Currency(req.Currency),
		InitialBalance: req.InitialBalance,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(toResponse(w))
}

// Get returns wallet details with its current balance.
func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("walletId"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid wallet id")
	}
	w, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(toResponse(w))
}

// AddTransaction posts an income or expense to a wallet.
func (h *Handler) AddTransaction(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("walletId"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid wallet id")
	}
	var req transactionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	txType, err := ParseTransactionType(req.Type)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	tx, err := h.service.AddTransaction(c.UserContext(), AddTransactionInput{
		WalletID:    id,
		Currency:    Currency(req.Currency),
		Amount:      req.Amount,
		Type:        txType,
		Description: req.Description,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"wallet_id":      id.String(),
		"transaction_id": tx.ID.String(),
		"type":           tx.Type,
		"amount":         tx.Amount,
		"timestamp":      tx.Timestamp,
	})
}

func toResponse(w Wallet) walletResponse {
	incomes, expenses := w.Totals(nil)
	return walletResponse{
		ID:             w.ID.String(),
		Name:           w.Name,
		Currency:       string(w.Currency),
		InitialBalance: w.InitialBalance,
		Balance:        w.CurrentBalance(),
		Incomes:        incomes,
		Expenses:       expenses,
		Transactions:   len(w.Transactions),
		AsOf:           time.Now().UTC(),
	}
}

func mapError(err error) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return fiber.NewError(http.StatusBadRequest, verr.Error())
	case errors.Is(err, ErrWalletNotFound):
		return fiber.NewError(http.StatusNotFound, "wallet not found")
	case errors.Is(err, ErrCurrencyMismatch):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrInsufficientFunds):
		return fiber.NewError(http.StatusUnprocessableEntity, "insufficient funds")
	case errors.Is(err, ErrConcurrencyConflict):
		return fiber.NewError(http.StatusConflict, "wallet was modified concurrently, retry")
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
