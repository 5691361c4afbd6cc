package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tellerbook/tellerbook/internal/model"
)

// CSV headers for the three data files.
const (
	ClientHeader      = "client_id,client_name,acc_number,agency_number,creation_date,balance,debt"
	OperatorHeader    = "operator_id,secret_hash,operator_name,access_level"
	TransactionHeader = "transaction_id,transaction_type,label,transaction_date,interest_rate,interest,amount,original_amount,operator_id,acc_number,loan_id"
)

const dateFormat = "2006-01-02"

const (
	clientNumFields = 7
	colClientID     = 0
	colClientName   = 1
	colClientAcc    = 2
	colClientAgency = 3
	colClientDate   = 4
	colClientBal    = 5
	colClientDebt   = 6
)

const (
	operatorNumFields = 4
	colOperatorID     = 0
	colOperatorSecret = 1
	colOperatorName   = 2
	colOperatorLevel  = 3
)

const (
	txnNumFields   = 11
	colTxnID       = 0
	colTxnType     = 1
	colTxnLabel    = 2
	colTxnDate     = 3
	colTxnRate     = 4
	colTxnInterest = 5
	colTxnAmount   = 6
	colTxnOriginal = 7
	colTxnOperator = 8
	colTxnAcc      = 9
	colTxnLoanID   = 10
)

// ReadClients reads clients.csv.
func ReadClients(r io.Reader) ([]model.Client, error) {
	return readRecords(r, clientNumFields, "clients", UnmarshalClient)
}

// WriteClients writes clients.csv (including header).
func WriteClients(w io.Writer, clients []*model.Client) error {
	return writeRecords(w, ClientHeader, clients, MarshalClient)
}

// ReadOperators reads operators.csv.
func ReadOperators(r io.Reader) ([]model.Operator, error) {
	return readRecords(r, operatorNumFields, "operators", UnmarshalOperator)
}

// WriteOperators writes operators.csv (including header).
func WriteOperators(w io.Writer, operators []*model.Operator) error {
	return writeRecords(w, OperatorHeader, operators, MarshalOperator)
}

// ReadTransactions reads transactions.csv.
func ReadTransactions(r io.Reader) ([]model.Transaction, error) {
	return readRecords(r, txnNumFields, "transactions", UnmarshalTransaction)
}

// WriteTransactions writes transactions.csv (including header).
func WriteTransactions(w io.Writer, txns []*model.Transaction) error {
	return writeRecords(w, TransactionHeader, txns, MarshalTransaction)
}

func readRecords[T any](r io.Reader, numFields int, name string, unmarshal func([]string) (T, error)) ([]T, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s CSV: %w", name, err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	// Skip header row.
	out := make([]T, 0, len(records)-1)
	for i, rec := range records[1:] {
		v, err := unmarshal(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func writeRecords[T any](w io.Writer, header string, items []*T, marshal func(T) []string) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, item := range items {
		if err := cw.Write(marshal(*item)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalClient converts a Client to a CSV row.
func MarshalClient(c model.Client) []string {
	row := make([]string, clientNumFields)
	row[colClientID] = c.ID
	row[colClientName] = c.Name
	row[colClientAcc] = c.AccountNumber
	row[colClientAgency] = c.AgencyNumber
	row[colClientDate] = c.CreatedAt.Format(dateFormat)
	row[colClientBal] = c.Balance.StringFixed(2)
	row[colClientDebt] = c.Debt.StringFixed(2)
	return row
}

// UnmarshalClient converts a CSV row to a Client.
func UnmarshalClient(record []string) (model.Client, error) {
	if len(record) != clientNumFields {
		return model.Client{}, fmt.Errorf("expected %d fields, got %d", clientNumFields, len(record))
	}

	created, err := time.Parse(dateFormat, record[colClientDate])
	if err != nil {
		return model.Client{}, fmt.Errorf("parsing creation_date %q: %w", record[colClientDate], err)
	}

	balance, err := parseMoney("balance", record[colClientBal])
	if err != nil {
		return model.Client{}, err
	}

	debt, err := parseMoney("debt", record[colClientDebt])
	if err != nil {
		return model.Client{}, err
	}

	return model.Client{
		ID:            record[colClientID],
		Name:          record[colClientName],
		AccountNumber: record[colClientAcc],
		AgencyNumber:  record[colClientAgency],
		CreatedAt:     created,
		Balance:       balance,
		Debt:          debt,
	}, nil
}

// MarshalOperator converts an Operator to a CSV row.
func MarshalOperator(op model.Operator) []string {
	row := make([]string, operatorNumFields)
	row[colOperatorID] = op.ID
	row[colOperatorSecret] = op.SecretHash
	row[colOperatorName] = op.Name
	row[colOperatorLevel] = strconv.Itoa(op.AccessLevel)
	return row
}

// UnmarshalOperator converts a CSV row to an Operator.
func UnmarshalOperator(record []string) (model.Operator, error) {
	if len(record) != operatorNumFields {
		return model.Operator{}, fmt.Errorf("expected %d fields, got %d", operatorNumFields, len(record))
	}

	level, err := strconv.Atoi(record[colOperatorLevel])
	if err != nil {
		return model.Operator{}, fmt.Errorf("parsing access_level %q: %w", record[colOperatorLevel], err)
	}
	if !model.ValidAccessLevel(level) {
		return model.Operator{}, fmt.Errorf("access_level %d: %w", level, model.ErrInvalidAccessLevel)
	}

	return model.Operator{
		ID:          record[colOperatorID],
		SecretHash:  record[colOperatorSecret],
		Name:        record[colOperatorName],
		AccessLevel: level,
	}, nil
}

// MarshalTransaction converts a Transaction to a CSV row.
func MarshalTransaction(t model.Transaction) []string {
	row := make([]string, txnNumFields)
	row[colTxnID] = t.ID
	row[colTxnType] = string(t.Type)
	row[colTxnLabel] = t.Label
	row[colTxnDate] = t.Date.Format(dateFormat)
	row[colTxnRate] = t.InterestRate.String()
	row[colTxnInterest] = t.Interest.StringFixed(2)
	row[colTxnAmount] = t.Amount.StringFixed(2)
	row[colTxnOriginal] = t.OriginalAmount.StringFixed(2)
	row[colTxnOperator] = t.OperatorID
	row[colTxnAcc] = t.AccountNumber
	row[colTxnLoanID] = t.LoanID
	return row
}

// UnmarshalTransaction converts a CSV row to a Transaction. The type tag is
// normalized to its canonical spelling.
func UnmarshalTransaction(record []string) (model.Transaction, error) {
	if len(record) != txnNumFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", txnNumFields, len(record))
	}

	typ, err := model.ParseTransactionType(record[colTxnType])
	if err != nil {
		return model.Transaction{}, err
	}

	date, err := time.Parse(dateFormat, record[colTxnDate])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing transaction_date %q: %w", record[colTxnDate], err)
	}

	rate, err := parseMoney("interest_rate", record[colTxnRate])
	if err != nil {
		return model.Transaction{}, err
	}
	interest, err := parseMoney("interest", record[colTxnInterest])
	if err != nil {
		return model.Transaction{}, err
	}
	amount, err := parseMoney("amount", record[colTxnAmount])
	if err != nil {
		return model.Transaction{}, err
	}
	original, err := parseMoney("original_amount", record[colTxnOriginal])
	if err != nil {
		return model.Transaction{}, err
	}

	return model.Transaction{
		ID:             record[colTxnID],
		Type:           typ,
		Label:          record[colTxnLabel],
		Date:           date,
		InterestRate:   rate,
		Interest:       interest,
		Amount:         amount,
		OriginalAmount: original,
		OperatorID:     record[colTxnOperator],
		AccountNumber:  record[colTxnAcc],
		LoanID:         record[colTxnLoanID],
	}, nil
}

// parseMoney parses a decimal column; empty means zero.
func parseMoney(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s %q: %w", field, s, err)
	}
	return d, nil
}
