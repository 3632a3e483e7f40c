package aggregation

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/congo-pay/walletbook/internal/optional"
	"github.com/congo-pay/walletbook/internal/wallet"
)

const dateLayout = "2006-01-02"

// Handler exposes the grouped transactions endpoint.
type Handler struct {
	service *Service
}

// NewHandler constructs an aggregation handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type transactionResponse struct {
	ID          string          `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
}

type groupResponse struct {
	Type         string                `json:"type"`
	TotalAmount  decimal.Decimal       `json:"total_amount"`
	Transactions []transactionResponse `json:"transactions"`
}

// Grouped serves GET /transactions/grouped.
//
// Query parameters: wallet_id (repeatable or comma separated), date_from,
// date_to (RFC 3339 or YYYY-MM-DD; a bare date_to covers the whole day),
// type, top_n, group_sort and sort ("key:dir" lists).
func (h *Handler) Grouped(c *fiber.Ctx) error {
	q, err := parseQuery(c)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	groups, err := h.service.Grouped(c.UserContext(), q)
	if err != nil {
		if errors.Is(err, ErrInvalidQuery) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	out := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		txs := make([]transactionResponse, 0, len(g.Transactions))
		for _, tx := range g.Transactions {
			txs = append(txs, transactionResponse{
				ID:          tx.ID.String(),
				Timestamp:   tx.Timestamp,
				Amount:      tx.Amount,
				Type:        string(tx.Type),
				Description: tx.Description,
			})
		}
		out = append(out, groupResponse{Type: string(g.Type), TotalAmount: g.Total, Transactions: txs})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"groups": out})
}

func parseQuery(c *fiber.Ctx) (Query, error) {
	var q Query

	for _, raw := range c.Context().QueryArgs().PeekMulti("wallet_id") {
		for _, part := range strings.Split(string(raw), ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				return Query{}, fmt.Errorf("invalid wallet_id %q", part)
			}
			q.WalletIDs = append(q.WalletIDs, id)
		}
	}

	if v := c.Query("date_from"); v != "" {
		t, err := parseTime(v, false)
		if err != nil {
			return Query{}, fmt.Errorf("invalid date_from: %w", err)
		}
		q.DateFrom = optional.Some(t)
	}
	if v := c.Query("date_to"); v != "" {
		t, err := parseTime(v, true)
		if err != nil {
			return Query{}, fmt.Errorf("invalid date_to: %w", err)
		}
		q.DateTo = optional.Some(t)
	}
	if v := c.Query("type"); v != "" {
		kind, err := wallet.ParseTransactionType(v)
		if err != nil {
			return Query{}, err
		}
		q.Type = optional.Some(kind)
	}
	if v := c.Query("top_n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Query{}, fmt.Errorf("invalid top_n: %w", err)
		}
		q.TopN = optional.Some(n)
	}

	groupSort, err := ParseGroupSort(c.Query("group_sort"))
	if err != nil {
		return Query{}, err
	}
	q.GroupSort = groupSort

	txSort, err := ParseTransactionSort(c.Query("sort"))
	if err != nil {
		return Query{}, err
	}
	q.TransactionSort = txSort

	return q, nil
}

// parseTime accepts RFC 3339 or a bare date. A bare date used as an upper
// bound is moved to the last instant of that day.
func parseTime(v string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	d, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		return d.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
	}
	return d, nil
}
