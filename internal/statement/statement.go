// Package statement renders a client's account history as a statement with
// a running balance, exported as CSV or XLSX.
package statement

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tellerbook/tellerbook/internal/loan"
	"github.com/tellerbook/tellerbook/internal/model"
)

// Format selects an export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" or "xlsx" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unknown statement format %q (want csv or xlsx)", s)
	}
}

// Header is the CSV header of a statement export.
const Header = "date,transaction_id,type,label,amount,balance,loan_id"

// Line is one transaction's effect on the account balance.
type Line struct {
	Date          time.Time
	TransactionID string
	Type          model.TransactionType
	Label         string
	Amount        decimal.Decimal // signed: credits positive, debits negative
	Balance       decimal.Decimal // running balance after this line
	LoanID        string
}

// Statement is a client's history as of a date.
type Statement struct {
	Client model.Client
	AsOf   time.Time
	Lines  []Line

	Deposits    decimal.Decimal
	Withdrawals decimal.Decimal
	Borrowed    decimal.Decimal
	Repaid      decimal.Decimal
	OpenLoans   int
	Payoff      decimal.Decimal // sum of open loan payoffs
}

// Build assembles the statement for client from its transactions in log
// order. Loans are credited at their original amount, whether open or paid.
func Build(client model.Client, txns []model.Transaction, asOf time.Time) Statement {
	st := Statement{
		Client:      client,
		AsOf:        asOf,
		Deposits:    decimal.Zero,
		Withdrawals: decimal.Zero,
		Borrowed:    decimal.Zero,
		Repaid:      decimal.Zero,
		Payoff:      decimal.Zero,
	}

	running := decimal.Zero
	for i := range txns {
		t := &txns[i]
		if t.AccountNumber != client.AccountNumber {
			continue
		}

		var amount decimal.Decimal
		switch {
		case t.Type.Is(model.TypeDeposit):
			amount = t.OriginalAmount
			st.Deposits = st.Deposits.Add(amount)
		case t.Type.Is(model.TypeWithdraw):
			amount = t.OriginalAmount.Neg()
			st.Withdrawals = st.Withdrawals.Add(t.OriginalAmount)
		case t.Type.Is(model.TypeLoan), t.Type.Is(model.TypePaidLoan):
			amount = t.OriginalAmount
			st.Borrowed = st.Borrowed.Add(amount)
			if t.IsOpenLoan() {
				st.OpenLoans++
				st.Payoff = st.Payoff.Add(loan.Payoff(t))
			}
		case t.Type.Is(model.TypeLoanPayment):
			amount = t.OriginalAmount.Neg()
			st.Repaid = st.Repaid.Add(t.OriginalAmount)
		default:
			continue
		}

		running = running.Add(amount)
		st.Lines = append(st.Lines, Line{
			Date:          t.Date,
			TransactionID: t.ID,
			Type:          t.Type,
			Label:         t.Label,
			Amount:        amount,
			Balance:       running,
			LoanID:        t.LoanID,
		})
	}
	return st
}

// Closing returns the running balance after the last line.
func (s Statement) Closing() decimal.Decimal {
	if len(s.Lines) == 0 {
		return decimal.Zero
	}
	return s.Lines[len(s.Lines)-1].Balance
}

// Write encodes s in the given format.
func Write(w io.Writer, s Statement, f Format) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, s)
	case FormatXLSX:
		return WriteXLSX(w, s)
	default:
		return fmt.Errorf("unknown statement format %q", f)
	}
}

// WriteCSV writes the statement lines as CSV with a header row.
func WriteCSV(w io.Writer, s Statement) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, l := range s.Lines {
		if err := cw.Write(lineRecord(l)); err != nil {
			return fmt.Errorf("writing line %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func lineRecord(l Line) []string {
	return []string{
		l.Date.Format("2006-01-02"),
		l.TransactionID,
		string(l.Type),
		l.Label,
		l.Amount.StringFixed(2),
		l.Balance.StringFixed(2),
		l.LoanID,
	}
}
