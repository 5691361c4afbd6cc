package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Client represents a row in clients.csv.
type Client struct {
	ID            string
	Name          string
	AccountNumber string // 8-digit numeric, unique
	AgencyNumber  string
	CreatedAt     time.Time
	Balance       decimal.Decimal
	Debt          decimal.Decimal // derived by reconciliation, never negative
}

// Matches reports whether query is the client's account number or client ID.
func (c *Client) Matches(query string) bool {
	return c.AccountNumber == query || c.ID == query
}
