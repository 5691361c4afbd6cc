package model

import "errors"

// Domain errors. Operations that return one of these leave the ledger unchanged.
var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrOverpaymentRejected = errors.New("repayment exceeds loan payoff")
	ErrPrincipalExhausted  = errors.New("partial repayment must leave principal outstanding")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrNotALoan            = errors.New("transaction is not an open loan")
	ErrAccountMismatch     = errors.New("loan belongs to another account")
	ErrClientNotFound      = errors.New("client not found")
	ErrOperatorNotFound    = errors.New("operator not found")
	ErrDuplicateClient     = errors.New("client already exists")
	ErrDuplicateOperator   = errors.New("operator already exists")
	ErrOutstandingDebt     = errors.New("client has outstanding debt")
	ErrInvalidAccessLevel  = errors.New("access level must be between 0 and 5")
)
