package bank

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tellerbook/tellerbook/internal/loan"
	"github.com/tellerbook/tellerbook/internal/model"
)

// ClientParams holds parameters for registering a client.
type ClientParams struct {
	ID           string
	Name         string
	AgencyNumber string
	Date         time.Time
}

// LoanView is a loan with its payoff as of the last reconciliation.
type LoanView struct {
	model.Transaction
	Payoff decimal.Decimal
}

// RegisterClient opens an account with a fresh 8-digit account number and
// zero balance and debt.
func (s *Service) RegisterClient(p ClientParams) (model.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return model.Client{}, errEmpty("client id")
	}
	if strings.TrimSpace(p.Name) == "" {
		return model.Client{}, errEmpty("client name")
	}
	if _, ok := s.store.ClientByID(p.ID); ok {
		return model.Client{}, fmt.Errorf("client id %s: %w", p.ID, model.ErrDuplicateClient)
	}

	acc, err := s.ids.AccountNumber(s.store.AccountNumberTaken)
	if err != nil {
		return model.Client{}, err
	}
	c, err := s.store.AddClient(model.Client{
		ID:            p.ID,
		Name:          p.Name,
		AccountNumber: acc,
		AgencyNumber:  p.AgencyNumber,
		CreatedAt:     p.Date,
		Balance:       decimal.Zero,
		Debt:          decimal.Zero,
	})
	if err != nil {
		return model.Client{}, err
	}

	s.log.Info("client registered", zap.String("client_id", c.ID), zap.String("account", c.AccountNumber))
	return *c, nil
}

// RemoveClient deletes a client whose debt is exactly zero. The client's
// transactions stay in the log.
func (s *Service) RemoveClient(accountNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.store.Client(accountNumber)
	if !ok {
		return fmt.Errorf("account %s: %w", accountNumber, model.ErrClientNotFound)
	}
	if !c.Debt.IsZero() {
		return fmt.Errorf("account %s owes %s: %w", accountNumber, c.Debt.StringFixed(2), model.ErrOutstandingDebt)
	}
	if err := s.store.RemoveClient(accountNumber); err != nil {
		return err
	}

	s.log.Info("client removed", zap.String("account", accountNumber))
	return nil
}

// FindClient looks a client up by account number or client ID.
func (s *Service) FindClient(query string) (model.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.store.FindClient(query)
	if !ok {
		return model.Client{}, fmt.Errorf("%q: %w", query, model.ErrClientNotFound)
	}
	return *c, nil
}

// Clients returns a snapshot of all clients.
func (s *Service) Clients() []model.Client {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients := s.store.Clients()
	out := make([]model.Client, len(clients))
	for i, c := range clients {
		out[i] = *c
	}
	return out
}

// History returns a snapshot of an account's transactions in log order.
func (s *Service) History(accountNumber string) []model.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	txns := s.store.TransactionsFor(accountNumber)
	out := make([]model.Transaction, len(txns))
	for i, t := range txns {
		out[i] = *t
	}
	return out
}

// Loans returns an account's loans, open and paid, with their payoffs.
// Paid loans have a zero payoff.
func (s *Service) Loans(accountNumber string) []LoanView {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []LoanView
	for _, t := range s.store.TransactionsFor(accountNumber) {
		switch {
		case t.IsOpenLoan():
			out = append(out, LoanView{Transaction: *t, Payoff: loan.Payoff(t)})
		case t.Type.Is(model.TypePaidLoan):
			out = append(out, LoanView{Transaction: *t, Payoff: decimal.Zero})
		}
	}
	return out
}
