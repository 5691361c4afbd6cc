package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/tellerbook/tellerbook/internal/model"
)

// DataDir is the workspace subdirectory holding the three CSV files.
const DataDir = "data"

const (
	clientsFile      = "clients.csv"
	operatorsFile    = "operators.csv"
	transactionsFile = "transactions.csv"
)

// Store owns the in-memory client, operator and transaction collections.
// Pointers it hands out stay valid until the record is removed; callers use
// them for the span of a single operation.
type Store struct {
	clients      []*model.Client
	operators    []*model.Operator
	transactions []*model.Transaction

	clientsByAcc  map[string]*model.Client
	clientsByID   map[string]*model.Client
	operatorsByID map[string]*model.Operator
	txnsByID      map[string]*model.Transaction
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		clientsByAcc:  make(map[string]*model.Client),
		clientsByID:   make(map[string]*model.Client),
		operatorsByID: make(map[string]*model.Operator),
		txnsByID:      make(map[string]*model.Transaction),
	}
}

// NewFromRecords builds a Store from loaded snapshots, rejecting duplicate
// identifiers.
func NewFromRecords(clients []model.Client, operators []model.Operator, txns []model.Transaction) (*Store, error) {
	s := New()
	for _, c := range clients {
		if _, err := s.AddClient(c); err != nil {
			return nil, err
		}
	}
	for _, op := range operators {
		if _, err := s.AddOperator(op); err != nil {
			return nil, err
		}
	}
	for _, t := range txns {
		if _, err := s.AppendTransaction(t); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Load reads <root>/data/*.csv. Missing files load as empty collections.
func Load(root string) (*Store, error) {
	dir := filepath.Join(root, DataDir)

	clients, err := loadFile(filepath.Join(dir, clientsFile), ReadClients)
	if err != nil {
		return nil, err
	}
	operators, err := loadFile(filepath.Join(dir, operatorsFile), ReadOperators)
	if err != nil {
		return nil, err
	}
	txns, err := loadFile(filepath.Join(dir, transactionsFile), ReadTransactions)
	if err != nil {
		return nil, err
	}

	s, err := NewFromRecords(clients, operators, txns)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", dir, err)
	}
	return s, nil
}

func loadFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	out, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return out, nil
}

// Save writes full snapshots of all three collections to <root>/data/.
func (s *Store) Save(root string) error {
	dir := filepath.Join(root, DataDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	if err := saveFile(filepath.Join(dir, clientsFile), func(w io.Writer) error {
		return WriteClients(w, s.clients)
	}); err != nil {
		return err
	}
	if err := saveFile(filepath.Join(dir, operatorsFile), func(w io.Writer) error {
		return WriteOperators(w, s.operators)
	}); err != nil {
		return err
	}
	return saveFile(filepath.Join(dir, transactionsFile), func(w io.Writer) error {
		return WriteTransactions(w, s.transactions)
	})
}

// saveFile writes to a sibling temp file and renames it over path.
func saveFile(path string, write func(io.Writer) error) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}

	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// Clients returns all clients in insertion order.
func (s *Store) Clients() []*model.Client {
	return slices.Clone(s.clients)
}

// Client returns the client with the given account number.
func (s *Store) Client(accountNumber string) (*model.Client, bool) {
	c, ok := s.clientsByAcc[accountNumber]
	return c, ok
}

// FindClient looks a client up by account number, then by client ID.
func (s *Store) FindClient(query string) (*model.Client, bool) {
	if c, ok := s.clientsByAcc[query]; ok {
		return c, true
	}
	c, ok := s.clientsByID[query]
	return c, ok
}

// ClientByID returns a client by client ID only.
func (s *Store) ClientByID(clientID string) (*model.Client, bool) {
	c, ok := s.clientsByID[clientID]
	return c, ok
}

// AccountNumberTaken reports whether an account number is in use.
func (s *Store) AccountNumberTaken(accountNumber string) bool {
	_, ok := s.clientsByAcc[accountNumber]
	return ok
}

// AddClient inserts a client. Client IDs and account numbers must be unique.
func (s *Store) AddClient(c model.Client) (*model.Client, error) {
	if _, ok := s.clientsByID[c.ID]; ok {
		return nil, fmt.Errorf("client id %s: %w", c.ID, model.ErrDuplicateClient)
	}
	if _, ok := s.clientsByAcc[c.AccountNumber]; ok {
		return nil, fmt.Errorf("account number %s: %w", c.AccountNumber, model.ErrDuplicateClient)
	}
	p := &c
	s.clients = append(s.clients, p)
	s.clientsByAcc[p.AccountNumber] = p
	s.clientsByID[p.ID] = p
	return p, nil
}

// RemoveClient deletes a client record. Its transactions are kept.
func (s *Store) RemoveClient(accountNumber string) error {
	c, ok := s.clientsByAcc[accountNumber]
	if !ok {
		return fmt.Errorf("account %s: %w", accountNumber, model.ErrClientNotFound)
	}
	s.clients = slices.DeleteFunc(s.clients, func(x *model.Client) bool { return x == c })
	delete(s.clientsByAcc, c.AccountNumber)
	delete(s.clientsByID, c.ID)
	return nil
}

// Operators returns all operators in insertion order.
func (s *Store) Operators() []*model.Operator {
	return slices.Clone(s.operators)
}

// Operator returns an operator by ID.
func (s *Store) Operator(id string) (*model.Operator, bool) {
	op, ok := s.operatorsByID[id]
	return op, ok
}

// AddOperator inserts an operator. Operator IDs must be unique.
func (s *Store) AddOperator(op model.Operator) (*model.Operator, error) {
	if _, ok := s.operatorsByID[op.ID]; ok {
		return nil, fmt.Errorf("operator %s: %w", op.ID, model.ErrDuplicateOperator)
	}
	p := &op
	s.operators = append(s.operators, p)
	s.operatorsByID[p.ID] = p
	return p, nil
}

// Transactions returns the whole log in append order.
func (s *Store) Transactions() []*model.Transaction {
	return slices.Clone(s.transactions)
}

// Transaction returns a transaction by ID.
func (s *Store) Transaction(id string) (*model.Transaction, bool) {
	t, ok := s.txnsByID[id]
	return t, ok
}

// TransactionIDTaken reports whether a transaction ID is in use.
func (s *Store) TransactionIDTaken(id string) bool {
	_, ok := s.txnsByID[id]
	return ok
}

// TransactionsFor returns the transactions of one account, in append order.
func (s *Store) TransactionsFor(accountNumber string) []*model.Transaction {
	var result []*model.Transaction
	for _, t := range s.transactions {
		if t.AccountNumber == accountNumber {
			result = append(result, t)
		}
	}
	return result
}

// AppendTransaction adds a transaction to the log. IDs must be unique.
func (s *Store) AppendTransaction(t model.Transaction) (*model.Transaction, error) {
	if _, ok := s.txnsByID[t.ID]; ok {
		return nil, fmt.Errorf("transaction %s already exists", t.ID)
	}
	p := &t
	s.transactions = append(s.transactions, p)
	s.txnsByID[p.ID] = p
	return p, nil
}
