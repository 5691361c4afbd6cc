// Package bank implements the account operations a teller runs: deposits,
// withdrawals, loans and repayments, plus client and operator upkeep. Debt
// and interest math is delegated to package loan.
package bank

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tellerbook/tellerbook/internal/id"
	"github.com/tellerbook/tellerbook/internal/loan"
	"github.com/tellerbook/tellerbook/internal/model"
	"github.com/tellerbook/tellerbook/internal/store"
)

// Service runs operations against a Store. Every method holds mu for its
// whole read-check-write span.
type Service struct {
	mu    sync.Mutex
	store *store.Store
	ids   *id.Generator
	log   *zap.Logger
}

// NewService creates a bank Service over st.
func NewService(st *store.Store, ids *id.Generator, log *zap.Logger) *Service {
	return &Service{store: st, ids: ids, log: log}
}

// MoveParams holds parameters for a deposit or withdrawal.
type MoveParams struct {
	AccountNumber string
	Amount        decimal.Decimal
	Label         string
	OperatorID    string
	Date          time.Time
}

// LoanParams holds parameters for issuing a loan.
type LoanParams struct {
	AccountNumber string
	Principal     decimal.Decimal
	Rate          decimal.Decimal // annual, decimal fraction
	Label         string
	OperatorID    string
	Date          time.Time
}

// RepayParams holds parameters for a loan repayment.
type RepayParams struct {
	LoanID     string
	Amount     decimal.Decimal
	OperatorID string
	Date       time.Time
}

// Deposit credits an account and logs a Deposit.
func (s *Service) Deposit(p MoveParams) (model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkAmount(p.Amount); err != nil {
		return model.Transaction{}, err
	}
	client, ok := s.store.Client(p.AccountNumber)
	if !ok {
		return model.Transaction{}, fmt.Errorf("account %s: %w", p.AccountNumber, model.ErrClientNotFound)
	}

	txn, err := s.append(model.Transaction{
		Type:           model.TypeDeposit,
		Label:          p.Label,
		Date:           p.Date,
		Amount:         p.Amount,
		OriginalAmount: p.Amount,
		OperatorID:     p.OperatorID,
		AccountNumber:  client.AccountNumber,
	})
	if err != nil {
		return model.Transaction{}, err
	}
	client.Balance = client.Balance.Add(p.Amount)

	s.log.Info("deposit",
		zap.String("account", client.AccountNumber),
		zap.String("amount", p.Amount.StringFixed(2)),
		zap.String("transaction_id", txn.ID))
	return txn, nil
}

// Withdraw debits an account and logs a Withdraw. The balance may not go
// below zero.
func (s *Service) Withdraw(p MoveParams) (model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkAmount(p.Amount); err != nil {
		return model.Transaction{}, err
	}
	client, ok := s.store.Client(p.AccountNumber)
	if !ok {
		return model.Transaction{}, fmt.Errorf("account %s: %w", p.AccountNumber, model.ErrClientNotFound)
	}
	if p.Amount.GreaterThan(client.Balance) {
		return model.Transaction{}, fmt.Errorf("withdraw %s, balance %s: %w",
			p.Amount.StringFixed(2), client.Balance.StringFixed(2), model.ErrInsufficientFunds)
	}

	txn, err := s.append(model.Transaction{
		Type:           model.TypeWithdraw,
		Label:          p.Label,
		Date:           p.Date,
		Amount:         p.Amount,
		OriginalAmount: p.Amount,
		OperatorID:     p.OperatorID,
		AccountNumber:  client.AccountNumber,
	})
	if err != nil {
		return model.Transaction{}, err
	}
	client.Balance = client.Balance.Sub(p.Amount)

	s.log.Info("withdraw",
		zap.String("account", client.AccountNumber),
		zap.String("amount", p.Amount.StringFixed(2)),
		zap.String("transaction_id", txn.ID))
	return txn, nil
}

// IssueLoan credits the principal to the account, raises its debt by the
// same amount and logs an open Loan. Interest starts accruing at the next
// reconciliation.
func (s *Service) IssueLoan(p LoanParams) (model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkAmount(p.Principal); err != nil {
		return model.Transaction{}, err
	}
	if p.Rate.IsNegative() {
		return model.Transaction{}, fmt.Errorf("interest rate %s must not be negative", p.Rate)
	}
	client, ok := s.store.Client(p.AccountNumber)
	if !ok {
		return model.Transaction{}, fmt.Errorf("account %s: %w", p.AccountNumber, model.ErrClientNotFound)
	}

	txn, err := s.append(model.Transaction{
		Type:           model.TypeLoan,
		Label:          p.Label,
		Date:           p.Date,
		InterestRate:   p.Rate,
		Interest:       decimal.Zero,
		Amount:         p.Principal,
		OriginalAmount: p.Principal,
		OperatorID:     p.OperatorID,
		AccountNumber:  client.AccountNumber,
	})
	if err != nil {
		return model.Transaction{}, err
	}
	client.Balance = client.Balance.Add(p.Principal)
	client.Debt = client.Debt.Add(p.Principal)

	s.log.Info("loan issued",
		zap.String("account", client.AccountNumber),
		zap.String("principal", p.Principal.StringFixed(2)),
		zap.String("rate", p.Rate.String()),
		zap.String("transaction_id", txn.ID))
	return txn, nil
}

// RepayLoan applies a repayment to the loan with ID p.LoanID and logs the
// Loan Payment. On error nothing is changed.
func (s *Service) RepayLoan(p RepayParams) (model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkAmount(p.Amount); err != nil {
		return model.Transaction{}, err
	}
	target, ok := s.store.Transaction(p.LoanID)
	if !ok {
		return model.Transaction{}, fmt.Errorf("loan %s: %w", p.LoanID, model.ErrTransactionNotFound)
	}
	client, ok := s.store.Client(target.AccountNumber)
	if !ok {
		return model.Transaction{}, fmt.Errorf("account %s of loan %s: %w", target.AccountNumber, p.LoanID, model.ErrClientNotFound)
	}
	txnID, err := s.ids.TransactionID(s.store.TransactionIDTaken)
	if err != nil {
		return model.Transaction{}, err
	}

	payment, err := loan.ApplyRepayment(loan.Repayment{
		Loan:          target,
		Client:        client,
		Amount:        p.Amount,
		Date:          p.Date,
		OperatorID:    p.OperatorID,
		TransactionID: txnID,
	})
	if err != nil {
		return model.Transaction{}, err
	}
	// txnID was checked free above, so the append cannot collide.
	if _, err := s.store.AppendTransaction(payment); err != nil {
		return model.Transaction{}, err
	}

	s.log.Info("loan repayment",
		zap.String("account", client.AccountNumber),
		zap.String("loan_id", target.ID),
		zap.String("amount", payment.Amount.StringFixed(2)),
		zap.String("loan_status", string(target.Type)),
		zap.String("transaction_id", payment.ID))
	return payment, nil
}

// Reconcile refreshes every open loan's interest and every client's debt as
// of asOf.
func (s *Service) Reconcile(asOf time.Time) loan.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := loan.Reconcile(s.store.Clients(), s.store.Transactions(), asOf)
	s.log.Info("reconciled",
		zap.String("as_of", asOf.Format("2006-01-02")),
		zap.Int("clients", sum.Clients),
		zap.Int("open_loans", sum.OpenLoans),
		zap.String("total_debt", sum.TotalDebt.StringFixed(2)))
	return sum
}

// append assigns a fresh transaction ID and adds t to the log.
func (s *Service) append(t model.Transaction) (model.Transaction, error) {
	txnID, err := s.ids.TransactionID(s.store.TransactionIDTaken)
	if err != nil {
		return model.Transaction{}, err
	}
	t.ID = txnID
	p, err := s.store.AppendTransaction(t)
	if err != nil {
		return model.Transaction{}, err
	}
	return *p, nil
}

// checkAmount requires a positive amount in whole cents.
func checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount %s: %w", amount, model.ErrInvalidAmount)
	}
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("amount %s has more than 2 decimal places: %w", amount, model.ErrInvalidAmount)
	}
	return nil
}

// errEmpty reports a required text field left blank.
func errEmpty(field string) error {
	return errors.New(field + " must not be empty")
}
