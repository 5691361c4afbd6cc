package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType tags a ledger entry. The set is closed.
type TransactionType string

const (
	TypeDeposit     TransactionType = "Deposit"
	TypeWithdraw    TransactionType = "Withdraw"
	TypeLoan        TransactionType = "Loan"
	TypeLoanPayment TransactionType = "Loan Payment"
	TypePaidLoan    TransactionType = "Paid Loan"
)

// TransactionTypes lists every valid tag.
var TransactionTypes = []TransactionType{
	TypeDeposit,
	TypeWithdraw,
	TypeLoan,
	TypeLoanPayment,
	TypePaidLoan,
}

// ParseTransactionType maps any case variant of a tag to its canonical form.
func ParseTransactionType(s string) (TransactionType, error) {
	s = strings.TrimSpace(s)
	for _, t := range TransactionTypes {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

// Is compares tags case-insensitively.
func (t TransactionType) Is(other TransactionType) bool {
	return strings.EqualFold(strings.TrimSpace(string(t)), string(other))
}

// Transaction represents a row in transactions.csv.
//
// Amount and Interest are the only fields rewritten after creation, and only
// on open loans: Amount is the outstanding principal, Interest the accrual as
// of the last reconciliation.
type Transaction struct {
	ID             string // 12-digit numeric, unique
	Type           TransactionType
	Label          string
	Date           time.Time
	InterestRate   decimal.Decimal // annual, decimal fraction
	Interest       decimal.Decimal
	Amount         decimal.Decimal
	OriginalAmount decimal.Decimal
	OperatorID     string
	AccountNumber  string
	LoanID         string // set on Loan Payment rows only
}

// IsOpenLoan reports whether t is a loan that still accrues and can be repaid.
func (t *Transaction) IsOpenLoan() bool {
	return t.Type.Is(TypeLoan)
}
