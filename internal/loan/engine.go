// Package loan holds the loan accounting rules: monthly compound accrual,
// repayment of open loans, and reconciliation of client debt from the
// transaction log.
//
// Money is rounded to cents half away from zero (decimal.Round).
package loan

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tellerbook/tellerbook/internal/model"
)

var monthsPerYear = decimal.NewFromInt(12)

// Accrual is the state of one loan as of a reference date.
type Accrual struct {
	Months   int
	Payoff   decimal.Decimal
	Interest decimal.Decimal
}

// ElapsedMonths returns the whole calendar months between from and to,
// ignoring the day of month. The result is never negative.
func ElapsedMonths(from, to time.Time) int {
	a := from.Year()*12 + int(from.Month())
	b := to.Year()*12 + int(to.Month())
	if b < a {
		return a - b
	}
	return b - a
}

// Accrue computes the payoff of an open loan as of asOf:
//
//	payoff = principal * (1 + rate/12)^months
//
// rounded to cents. Any other transaction type yields the zero Accrual.
// Accrue does not modify t.
func Accrue(t model.Transaction, asOf time.Time) Accrual {
	if !t.IsOpenLoan() {
		return Accrual{Payoff: decimal.Zero, Interest: decimal.Zero}
	}

	months := ElapsedMonths(t.Date, asOf)
	if months <= 0 {
		return Accrual{Payoff: t.Amount, Interest: decimal.Zero}
	}

	factor := decimal.NewFromInt(1).Add(t.InterestRate.Div(monthsPerYear))
	payoff := t.Amount.Mul(factor.Pow(decimal.NewFromInt(int64(months)))).Round(2)
	return Accrual{
		Months:   months,
		Payoff:   payoff,
		Interest: payoff.Sub(t.Amount),
	}
}

// Payoff is what it takes to settle an open loan right now: outstanding
// principal plus interest as of the last reconciliation.
func Payoff(loan *model.Transaction) decimal.Decimal {
	return loan.Amount.Add(loan.Interest).Round(2)
}

// Summary reports the outcome of a reconciliation pass.
type Summary struct {
	Clients   int
	OpenLoans int
	TotalDebt decimal.Decimal
}

// Reconcile rewrites the Interest of every open loan and the Debt of every
// client from the transaction log as of asOf. Running it twice with the same
// asOf changes nothing the second time.
func Reconcile(clients []*model.Client, txns []*model.Transaction, asOf time.Time) Summary {
	debts := make(map[string]decimal.Decimal, len(clients))
	sum := Summary{Clients: len(clients), TotalDebt: decimal.Zero}

	for _, t := range txns {
		if !t.IsOpenLoan() {
			continue
		}
		a := Accrue(*t, asOf)
		t.Interest = a.Interest
		debts[t.AccountNumber] = debts[t.AccountNumber].Add(a.Payoff)
		sum.OpenLoans++
	}

	for _, c := range clients {
		c.Debt = debts[c.AccountNumber].Round(2)
		sum.TotalDebt = sum.TotalDebt.Add(c.Debt)
	}
	return sum
}

// Repayment describes one payment against an open loan. Loan and Client are
// store handles; ApplyRepayment mutates them only when it succeeds.
type Repayment struct {
	Loan          *model.Transaction
	Client        *model.Client
	Amount        decimal.Decimal
	Date          time.Time
	OperatorID    string
	TransactionID string
}

// ApplyRepayment pays Amount off r.Loan from r.Client's balance and returns
// the Loan Payment record to append to the log. A payment equal to the
// payoff closes the loan as Paid Loan; any smaller payment must be below the
// outstanding principal.
func ApplyRepayment(r Repayment) (model.Transaction, error) {
	if r.Loan == nil {
		return model.Transaction{}, model.ErrTransactionNotFound
	}
	if r.Client == nil {
		return model.Transaction{}, model.ErrClientNotFound
	}

	amount := r.Amount.Round(2)
	if !amount.IsPositive() {
		return model.Transaction{}, fmt.Errorf("repayment %s: %w", r.Amount, model.ErrInvalidAmount)
	}
	if !r.Loan.IsOpenLoan() {
		return model.Transaction{}, fmt.Errorf("transaction %s is %q: %w", r.Loan.ID, r.Loan.Type, model.ErrNotALoan)
	}
	if r.Loan.AccountNumber != r.Client.AccountNumber {
		return model.Transaction{}, fmt.Errorf("loan %s, account %s: %w", r.Loan.ID, r.Client.AccountNumber, model.ErrAccountMismatch)
	}
	if amount.GreaterThan(r.Client.Balance) {
		return model.Transaction{}, fmt.Errorf("repayment %s, balance %s: %w",
			amount.StringFixed(2), r.Client.Balance.StringFixed(2), model.ErrInsufficientFunds)
	}
	payoff := Payoff(r.Loan)
	if amount.GreaterThan(payoff) {
		return model.Transaction{}, fmt.Errorf("repayment %s, payoff %s: %w",
			amount.StringFixed(2), payoff.StringFixed(2), model.ErrOverpaymentRejected)
	}

	full := amount.Equal(payoff)
	// Accrual runs on principal alone, so an open loan with no principal
	// left would lose its unpaid interest at the next reconciliation.
	if !full && amount.GreaterThanOrEqual(r.Loan.Amount) {
		return model.Transaction{}, fmt.Errorf("repayment %s, principal %s, payoff %s: %w",
			amount.StringFixed(2), r.Loan.Amount.StringFixed(2), payoff.StringFixed(2), model.ErrPrincipalExhausted)
	}

	r.Client.Balance = r.Client.Balance.Sub(amount)
	r.Client.Debt = decimal.Max(r.Client.Debt.Sub(amount), decimal.Zero)

	if full {
		r.Loan.Type = model.TypePaidLoan
	} else {
		r.Loan.Amount = r.Loan.Amount.Sub(amount)
	}

	return model.Transaction{
		ID:             r.TransactionID,
		Type:           model.TypeLoanPayment,
		Label:          "Repayment of loan " + r.Loan.ID,
		Date:           r.Date,
		InterestRate:   decimal.Zero,
		Interest:       decimal.Zero,
		Amount:         amount,
		OriginalAmount: amount,
		OperatorID:     r.OperatorID,
		AccountNumber:  r.Client.AccountNumber,
		LoanID:         r.Loan.ID,
	}, nil
}
