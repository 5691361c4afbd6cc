package store

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tellerbook/tellerbook/internal/id"
	"github.com/tellerbook/tellerbook/internal/model"
)

// Rule names a ledger consistency rule checked by Validate.
type Rule string

const (
	RuleBalance     Rule = "balance"      // balance equals the sum of the account's transactions
	RuleCents       Rule = "cents"        // money has at most 2 decimal places
	RuleIdentifier  Rule = "identifier"   // account numbers and transaction IDs are well formed
	RulePaymentLink Rule = "payment_link" // payments reference a loan on the same account
	RuleLoanState   Rule = "loan_state"   // principal within [0, original] and positive while open, interest and debt non-negative
)

// ValidationError describes a single rule violation.
type ValidationError struct {
	Rule        Rule
	Ref         string // account number or transaction ID
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.Rule, e.Ref, e.Description)
}

// Validate checks the loaded ledger for records that no sequence of bank
// operations could have produced.
func Validate(s *Store) []ValidationError {
	var errs []ValidationError
	add := func(rule Rule, ref, format string, args ...any) {
		errs = append(errs, ValidationError{Rule: rule, Ref: ref, Description: fmt.Sprintf(format, args...)})
	}

	sums := make(map[string]decimal.Decimal)
	for _, t := range s.transactions {
		if !id.ValidTransactionID(t.ID) {
			add(RuleIdentifier, t.ID, "transaction ID must be %d digits", id.TransactionIDDigits)
		}
		for name, v := range map[string]decimal.Decimal{"amount": t.Amount, "original amount": t.OriginalAmount} {
			if !wholeCents(v) {
				add(RuleCents, t.ID, "%s %s has more than 2 decimal places", name, v)
			}
		}

		switch {
		case t.Type.Is(model.TypeDeposit):
			sums[t.AccountNumber] = sums[t.AccountNumber].Add(t.OriginalAmount)
		case t.Type.Is(model.TypeWithdraw):
			sums[t.AccountNumber] = sums[t.AccountNumber].Sub(t.OriginalAmount)
		case t.Type.Is(model.TypeLoan), t.Type.Is(model.TypePaidLoan):
			sums[t.AccountNumber] = sums[t.AccountNumber].Add(t.OriginalAmount)
			if t.Amount.IsNegative() || t.Amount.GreaterThan(t.OriginalAmount) {
				add(RuleLoanState, t.ID, "principal %s outside [0, %s]", t.Amount.StringFixed(2), t.OriginalAmount.StringFixed(2))
			}
			if t.IsOpenLoan() && !t.Amount.IsPositive() {
				add(RuleLoanState, t.ID, "open loan has no principal left")
			}
			if t.Interest.IsNegative() {
				add(RuleLoanState, t.ID, "negative interest %s", t.Interest.StringFixed(2))
			}
		case t.Type.Is(model.TypeLoanPayment):
			sums[t.AccountNumber] = sums[t.AccountNumber].Sub(t.OriginalAmount)
			target, ok := s.txnsByID[t.LoanID]
			switch {
			case t.LoanID == "":
				add(RulePaymentLink, t.ID, "payment has no loan ID")
			case !ok:
				add(RulePaymentLink, t.ID, "payment references unknown loan %s", t.LoanID)
			case !target.Type.Is(model.TypeLoan) && !target.Type.Is(model.TypePaidLoan):
				add(RulePaymentLink, t.ID, "payment references %s %s", target.Type, t.LoanID)
			case target.AccountNumber != t.AccountNumber:
				add(RulePaymentLink, t.ID, "loan %s belongs to account %s", t.LoanID, target.AccountNumber)
			}
		}
	}

	for _, c := range s.clients {
		if !id.ValidAccountNumber(c.AccountNumber) {
			add(RuleIdentifier, c.AccountNumber, "account number must be %d digits", id.AccountNumberDigits)
		}
		if !wholeCents(c.Balance) {
			add(RuleCents, c.AccountNumber, "balance %s has more than 2 decimal places", c.Balance)
		}
		if c.Debt.IsNegative() {
			add(RuleLoanState, c.AccountNumber, "negative debt %s", c.Debt.StringFixed(2))
		}
		if want := sums[c.AccountNumber]; !want.Equal(c.Balance) {
			add(RuleBalance, c.AccountNumber, "balance %s, transactions sum to %s", c.Balance.StringFixed(2), want.StringFixed(2))
		}
	}
	return errs
}

func wholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}
