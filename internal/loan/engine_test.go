package loan

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tellerbook/tellerbook/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func newLoan(id, acc, principal, rate string, on time.Time) *model.Transaction {
	return &model.Transaction{
		ID:             id,
		Type:           model.TypeLoan,
		Date:           on,
		InterestRate:   dec(rate),
		Interest:       decimal.Zero,
		Amount:         dec(principal),
		OriginalAmount: dec(principal),
		AccountNumber:  acc,
	}
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}

func TestElapsedMonths(t *testing.T) {
	tests := []struct {
		from, to time.Time
		want     int
	}{
		{date(2025, 1, 15), date(2025, 1, 31), 0},
		{date(2025, 1, 31), date(2025, 2, 1), 1},
		{date(2025, 1, 1), date(2025, 12, 31), 11},
		{date(2025, 1, 10), date(2026, 1, 10), 12},
		{date(2026, 3, 1), date(2025, 3, 1), 12},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ElapsedMonths(tt.from, tt.to), "%s -> %s", tt.from.Format("2006-01-02"), tt.to.Format("2006-01-02"))
	}
}

func TestAccrue(t *testing.T) {
	start := date(2025, 1, 10)
	tests := []struct {
		principal, rate string
		asOf            time.Time
		wantMonths      int
		wantPayoff      string
	}{
		{"1000", "0.12", start, 0, "1000"},
		{"1000", "0.12", date(2025, 2, 1), 1, "1010.00"},
		{"1000", "0.12", date(2025, 4, 28), 3, "1030.30"},
		{"1000", "0.12", date(2026, 1, 10), 12, "1126.83"},
		{"1000", "0.06", date(2027, 1, 1), 24, "1127.16"},
		{"500", "0.05", date(2025, 7, 10), 6, "512.63"},
		{"2500", "0.18", date(2025, 8, 10), 7, "2774.61"},
		{"1000", "0", date(2030, 1, 10), 60, "1000.00"},
	}
	for _, tt := range tests {
		loan := newLoan("1", "00000001", tt.principal, tt.rate, start)
		got := Accrue(*loan, tt.asOf)
		assert.Equal(t, tt.wantMonths, got.Months)
		assertDec(t, tt.wantPayoff, got.Payoff, "principal %s rate %s", tt.principal, tt.rate)
		assertDec(t, dec(tt.wantPayoff).Sub(dec(tt.principal)).String(), got.Interest)
	}
}

func TestAccrue_ZeroElapsedIsPrincipal(t *testing.T) {
	for _, principal := range []string{"0.01", "1000", "123456.78"} {
		loan := newLoan("1", "00000001", principal, "0.25", date(2025, 6, 1))
		got := Accrue(*loan, loan.Date)
		assertDec(t, principal, got.Payoff)
		assert.True(t, got.Interest.IsZero())
	}
}

func TestAccrue_MonotonicForward(t *testing.T) {
	loan := newLoan("1", "00000001", "750", "0.09", date(2025, 1, 1))
	prev := decimal.Zero
	for m := 0; m <= 60; m++ {
		payoff := Accrue(*loan, date(2025, 1, 1).AddDate(0, m, 0)).Payoff
		assert.True(t, payoff.GreaterThanOrEqual(prev), "month %d: %s < %s", m, payoff, prev)
		prev = payoff
	}
}

func TestAccrue_DoesNotMutate(t *testing.T) {
	loan := newLoan("1", "00000001", "1000", "0.12", date(2025, 1, 10))
	before := *loan
	_ = Accrue(*loan, date(2026, 1, 10))
	assert.Equal(t, before, *loan)
}

func TestAccrue_NonLoanIsZero(t *testing.T) {
	for _, typ := range []model.TransactionType{model.TypeDeposit, model.TypeWithdraw, model.TypeLoanPayment, model.TypePaidLoan} {
		txn := model.Transaction{Type: typ, Amount: dec("100"), InterestRate: dec("0.5"), Date: date(2020, 1, 1)}
		got := Accrue(txn, date(2025, 1, 1))
		assert.True(t, got.Payoff.IsZero(), "type %s", typ)
		assert.True(t, got.Interest.IsZero(), "type %s", typ)
	}
}

func TestAccrue_CaseInsensitiveTag(t *testing.T) {
	loan := newLoan("1", "00000001", "1000", "0.12", date(2025, 1, 10))
	loan.Type = "LOAN"
	assertDec(t, "1126.83", Accrue(*loan, date(2026, 1, 10)).Payoff)
}

func TestReconcile(t *testing.T) {
	ana := &model.Client{ID: "ana", AccountNumber: "00000001", Debt: dec("999")}
	bruno := &model.Client{ID: "bruno", AccountNumber: "00000002", Debt: dec("5")}
	carla := &model.Client{ID: "carla", AccountNumber: "00000003"}

	loan1 := newLoan("1", "00000001", "1000", "0.12", date(2025, 1, 10))
	loan2 := newLoan("2", "00000001", "500", "0.05", date(2025, 7, 1))
	loan2.Type = "loan"
	paid := newLoan("3", "00000002", "300", "0.12", date(2024, 1, 1))
	paid.Type = model.TypePaidLoan
	paid.Interest = dec("7")
	deposit := &model.Transaction{ID: "4", Type: model.TypeDeposit, Amount: dec("50"), AccountNumber: "00000003"}

	txns := []*model.Transaction{loan1, loan2, paid, deposit}
	sum := Reconcile([]*model.Client{ana, bruno, carla}, txns, date(2026, 1, 10))

	// loan1: 12 months -> 1126.83; loan2: 6 months -> 512.63.
	assertDec(t, "1639.46", ana.Debt)
	assertDec(t, "0", bruno.Debt, "paid loans are excluded")
	assertDec(t, "0", carla.Debt)
	assertDec(t, "126.83", loan1.Interest)
	assertDec(t, "12.63", loan2.Interest)
	assertDec(t, "7", paid.Interest, "paid loans are not rewritten")
	assertDec(t, "1000", loan1.Amount, "accrual leaves principal alone")

	assert.Equal(t, 3, sum.Clients)
	assert.Equal(t, 2, sum.OpenLoans)
	assertDec(t, "1639.46", sum.TotalDebt)
}

func TestReconcile_Idempotent(t *testing.T) {
	clients := []*model.Client{{AccountNumber: "00000001"}, {AccountNumber: "00000002"}}
	txns := []*model.Transaction{
		newLoan("1", "00000001", "1000", "0.12", date(2025, 1, 10)),
		newLoan("2", "00000002", "2500", "0.18", date(2025, 1, 10)),
		newLoan("3", "00000002", "10", "0.30", date(2024, 5, 10)),
	}
	asOf := date(2025, 8, 10)

	Reconcile(clients, txns, asOf)
	firstClients := []model.Client{*clients[0], *clients[1]}
	firstTxns := []model.Transaction{*txns[0], *txns[1], *txns[2]}

	Reconcile(clients, txns, asOf)
	assert.Equal(t, firstClients, []model.Client{*clients[0], *clients[1]})
	assert.Equal(t, firstTxns, []model.Transaction{*txns[0], *txns[1], *txns[2]})
}

func TestReconcile_Empty(t *testing.T) {
	c := &model.Client{AccountNumber: "00000001", Debt: dec("42")}
	sum := Reconcile([]*model.Client{c}, nil, date(2025, 1, 1))
	assert.True(t, c.Debt.IsZero())
	assert.True(t, sum.TotalDebt.IsZero())
	assert.Equal(t, 0, sum.OpenLoans)

	sum = Reconcile(nil, nil, date(2025, 1, 1))
	assert.Equal(t, 0, sum.Clients)
}

func repayment(loan *model.Transaction, client *model.Client, amount string) Repayment {
	return Repayment{
		Loan:          loan,
		Client:        client,
		Amount:        dec(amount),
		Date:          date(2026, 1, 10),
		OperatorID:    "1001",
		TransactionID: "000000000099",
	}
}

func TestApplyRepayment_PartialNoInterest(t *testing.T) {
	client := &model.Client{AccountNumber: "00000001", Balance: dec("1000"), Debt: dec("1000")}
	loan := newLoan("000000000001", "00000001", "1000", "0", date(2025, 1, 10))
	Reconcile([]*model.Client{client}, []*model.Transaction{loan}, date(2026, 1, 10))
	payoffBefore := Payoff(loan)

	payment, err := ApplyRepayment(repayment(loan, client, "400"))
	require.NoError(t, err)

	assertDec(t, "600", client.Balance)
	assertDec(t, "600", client.Debt)
	assertDec(t, "600", loan.Amount)
	assertDec(t, payoffBefore.Sub(dec("400")).String(), Payoff(loan))
	assert.Equal(t, model.TypeLoan, loan.Type)
	assertDec(t, "1000", loan.OriginalAmount, "original amount is immutable")

	assert.Equal(t, model.TypeLoanPayment, payment.Type)
	assert.Equal(t, "000000000099", payment.ID)
	assert.Equal(t, "000000000001", payment.LoanID)
	assert.Equal(t, "00000001", payment.AccountNumber)
	assert.Equal(t, "1001", payment.OperatorID)
	assertDec(t, "400", payment.Amount)
	assertDec(t, "400", payment.OriginalAmount)
}

func TestApplyRepayment_PartialWithInterest(t *testing.T) {
	client := &model.Client{AccountNumber: "00000001", Balance: dec("2000")}
	loan := newLoan("1", "00000001", "1000", "0.12", date(2025, 1, 10))
	asOf := date(2026, 1, 10)
	Reconcile([]*model.Client{client}, []*model.Transaction{loan}, asOf)
	assertDec(t, "1126.83", client.Debt)

	_, err := ApplyRepayment(repayment(loan, client, "100"))
	require.NoError(t, err)

	assertDec(t, "900", loan.Amount)
	assertDec(t, "1026.83", Payoff(loan), "payoff drops by the payment until the next reconcile")
	assertDec(t, "1026.83", client.Debt)

	// Paying down principal shrinks the compounding base: 900 * 1.01^12.
	Reconcile([]*model.Client{client}, []*model.Transaction{loan}, asOf)
	assertDec(t, "1014.14", client.Debt)
	assertDec(t, "114.14", loan.Interest)
}

func TestApplyRepayment_PartialMustLeavePrincipal(t *testing.T) {
	client := &model.Client{AccountNumber: "00000001", Balance: dec("2000")}
	loan := newLoan("1", "00000001", "1000", "0.12", date(2025, 1, 10))
	asOf := date(2026, 1, 10)
	Reconcile([]*model.Client{client}, []*model.Transaction{loan}, asOf)

	for _, amount := range []string{"1100", "1000"} {
		_, err := ApplyRepayment(repayment(loan, client, amount))
		assert.ErrorIs(t, err, model.ErrPrincipalExhausted, "amount %s", amount)
	}
	assertDec(t, "2000", client.Balance)
	assertDec(t, "1126.83", client.Debt)
	assertDec(t, "1000", loan.Amount)
	assertDec(t, "126.83", loan.Interest)

	_, err := ApplyRepayment(repayment(loan, client, "999.99"))
	require.NoError(t, err)
	assertDec(t, "0.01", loan.Amount)

	// Reconciling again at the same date keeps the loan payable and closable.
	Reconcile([]*model.Client{client}, []*model.Transaction{loan}, asOf)
	assertDec(t, "0.01", client.Debt)
	assertDec(t, "0.01", Payoff(loan))

	_, err = ApplyRepayment(repayment(loan, client, "0.01"))
	require.NoError(t, err)
	assert.Equal(t, model.TypePaidLoan, loan.Type)
	assert.True(t, client.Debt.IsZero())

	Reconcile([]*model.Client{client}, []*model.Transaction{loan}, asOf)
	assert.True(t, client.Debt.IsZero())
}

func TestApplyRepayment_FullPayoff(t *testing.T) {
	client := &model.Client{AccountNumber: "00000001", Balance: dec("0")}
	loan := newLoan("1", "00000001", "1000", "0.12", date(2025, 1, 10))
	client.Balance = client.Balance.Add(dec("1000")) // loan proceeds
	client.Balance = client.Balance.Add(dec("500"))  // later deposit

	Reconcile([]*model.Client{client}, []*model.Transaction{loan}, date(2025, 1, 10))
	assertDec(t, "1000", client.Debt)

	asOf := date(2026, 1, 10)
	Reconcile([]*model.Client{client}, []*model.Transaction{loan}, asOf)
	assertDec(t, "1126.83", client.Debt)

	payment, err := ApplyRepayment(repayment(loan, client, "1126.83"))
	require.NoError(t, err)

	assertDec(t, "373.17", client.Balance)
	assert.True(t, client.Debt.IsZero())
	assert.Equal(t, model.TypePaidLoan, loan.Type)
	assert.Equal(t, model.TypeLoanPayment, payment.Type)

	// Paid loans drop out of every later reconciliation.
	Reconcile([]*model.Client{client}, []*model.Transaction{loan}, date(2030, 1, 10))
	assert.True(t, client.Debt.IsZero())
	assertDec(t, "126.83", loan.Interest)

	_, err = ApplyRepayment(repayment(loan, client, "1"))
	assert.ErrorIs(t, err, model.ErrNotALoan, "paid loans cannot be repaid again")
}

func TestApplyRepayment_Overpayment(t *testing.T) {
	client := &model.Client{AccountNumber: "00000001", Balance: dec("5000")}
	loan := newLoan("1", "00000001", "1000", "0.12", date(2025, 1, 10))
	Reconcile([]*model.Client{client}, []*model.Transaction{loan}, date(2026, 1, 10))

	clientBefore := *client
	loanBefore := *loan

	_, err := ApplyRepayment(repayment(loan, client, "1126.84"))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrOverpaymentRejected)
	assert.Equal(t, clientBefore, *client)
	assert.Equal(t, loanBefore, *loan)
}

func TestApplyRepayment_InsufficientFunds(t *testing.T) {
	client := &model.Client{AccountNumber: "00000001", Balance: dec("50"), Debt: dec("1000")}
	loan := newLoan("1", "00000001", "1000", "0", date(2025, 1, 10))

	clientBefore := *client
	loanBefore := *loan

	_, err := ApplyRepayment(repayment(loan, client, "50.01"))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInsufficientFunds)
	assert.Equal(t, clientBefore, *client)
	assert.Equal(t, loanBefore, *loan)
}

func TestApplyRepayment_Rejections(t *testing.T) {
	client := &model.Client{AccountNumber: "00000001", Balance: dec("5000")}
	other := &model.Client{AccountNumber: "00000002", Balance: dec("5000")}
	deposit := &model.Transaction{ID: "9", Type: model.TypeDeposit, Amount: dec("10"), AccountNumber: "00000001"}

	tests := []struct {
		name string
		r    Repayment
		want error
	}{
		{"nil loan", repayment(nil, client, "10"), model.ErrTransactionNotFound},
		{"zero amount", repayment(newLoan("1", "00000001", "100", "0", date(2025, 1, 1)), client, "0"), model.ErrInvalidAmount},
		{"negative amount", repayment(newLoan("1", "00000001", "100", "0", date(2025, 1, 1)), client, "-5"), model.ErrInvalidAmount},
		{"not a loan", repayment(deposit, client, "5"), model.ErrNotALoan},
		{"other client's loan", repayment(newLoan("1", "00000001", "100", "0", date(2025, 1, 1)), other, "5"), model.ErrAccountMismatch},
		{"nil client", repayment(newLoan("1", "00000001", "100", "0", date(2025, 1, 1)), nil, "5"), model.ErrClientNotFound},
	}
	for _, tt := range tests {
		_, err := ApplyRepayment(tt.r)
		assert.ErrorIs(t, err, tt.want, tt.name)
	}
}

func TestEndToEndYearOfInterest(t *testing.T) {
	client := &model.Client{AccountNumber: "00000001", Balance: decimal.Zero, Debt: decimal.Zero}
	t0 := date(2025, 3, 5)

	// Issuing a loan credits the balance and the debt by the principal.
	loan := newLoan("1", "00000001", "1000", "0.12", t0)
	client.Balance = client.Balance.Add(loan.Amount)
	client.Debt = client.Debt.Add(loan.Amount)
	txns := []*model.Transaction{loan}

	Reconcile([]*model.Client{client}, txns, t0)
	assertDec(t, "1000.00", client.Debt)

	t12 := t0.AddDate(1, 0, 0)
	Reconcile([]*model.Client{client}, txns, t12)
	assertDec(t, "1126.83", client.Debt)

	client.Balance = client.Balance.Add(dec("126.83"))
	balanceBefore := client.Balance

	_, err := ApplyRepayment(Repayment{Loan: loan, Client: client, Amount: dec("1126.83"), Date: t12, TransactionID: "2"})
	require.NoError(t, err)
	assertDec(t, balanceBefore.Sub(dec("1126.83")).String(), client.Balance)
	assert.True(t, client.Debt.IsZero())
	assert.Equal(t, model.TypePaidLoan, loan.Type)
}
