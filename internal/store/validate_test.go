package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tellerbook/tellerbook/internal/model"
)

func validLedger(t *testing.T) *Store {
	t.Helper()
	s, err := NewFromRecords(
		[]model.Client{{ID: "ana", Name: "Ana", AccountNumber: "12345678", AgencyNumber: "0001", Balance: dec("173.17"), Debt: dec("0")}},
		nil,
		[]model.Transaction{
			{ID: "000000000001", Type: model.TypeDeposit, AccountNumber: "12345678", Amount: dec("300"), OriginalAmount: dec("300")},
			{ID: "000000000002", Type: model.TypePaidLoan, AccountNumber: "12345678", Amount: dec("1000"), OriginalAmount: dec("1000"), Interest: dec("126.83"), InterestRate: dec("0.12")},
			{ID: "000000000003", Type: model.TypeLoanPayment, AccountNumber: "12345678", Amount: dec("1126.83"), OriginalAmount: dec("1126.83"), LoanID: "000000000002"},
		},
	)
	require.NoError(t, err)
	return s
}

func rules(errs []ValidationError) []Rule {
	var out []Rule
	for _, e := range errs {
		out = append(out, e.Rule)
	}
	return out
}

func TestValidate_Consistent(t *testing.T) {
	assert.Empty(t, Validate(validLedger(t)))
}

func TestValidate_Violations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Store)
		want   Rule
	}{
		{"balance drift", func(s *Store) {
			c, _ := s.Client("12345678")
			c.Balance = dec("170.00")
		}, RuleBalance},
		{"sub-cent balance", func(s *Store) {
			c, _ := s.Client("12345678")
			c.Balance = dec("173.171")
		}, RuleCents},
		{"dangling payment", func(s *Store) {
			p, _ := s.Transaction("000000000003")
			p.LoanID = "999999999999"
		}, RulePaymentLink},
		{"payment to a deposit", func(s *Store) {
			p, _ := s.Transaction("000000000003")
			p.LoanID = "000000000001"
		}, RulePaymentLink},
		{"principal above original", func(s *Store) {
			l, _ := s.Transaction("000000000002")
			l.Amount = dec("1000.01")
		}, RuleLoanState},
		{"open loan without principal", func(s *Store) {
			l, _ := s.Transaction("000000000002")
			l.Type = model.TypeLoan
			l.Amount = dec("0")
		}, RuleLoanState},
		{"negative debt", func(s *Store) {
			c, _ := s.Client("12345678")
			c.Debt = dec("-1")
		}, RuleLoanState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validLedger(t)
			tt.mutate(s)
			errs := Validate(s)
			require.NotEmpty(t, errs)
			assert.Contains(t, rules(errs), tt.want)
		})
	}
}

func TestValidate_BadIdentifiers(t *testing.T) {
	s, err := NewFromRecords(
		[]model.Client{{ID: "x", AccountNumber: "123", Balance: dec("5")}},
		nil,
		[]model.Transaction{{ID: "42", Type: model.TypeDeposit, AccountNumber: "123", Amount: dec("5"), OriginalAmount: dec("5")}},
	)
	require.NoError(t, err)

	errs := Validate(s)
	require.Len(t, errs, 2)
	assert.Equal(t, RuleIdentifier, errs[0].Rule)
	assert.Equal(t, "42", errs[0].Ref)
	assert.Equal(t, RuleIdentifier, errs[1].Rule)
	assert.Contains(t, errs[1].Error(), "identifier [123]")
}
