package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tellerbook/tellerbook/internal/model"
)

// ErrInvalidCredentials is returned for an unknown operator or a wrong secret.
var ErrInvalidCredentials = errors.New("invalid operator credentials")

// Cost is the bcrypt cost used by HashSecret.
var Cost = bcrypt.DefaultCost

// HashSecret returns the bcrypt hash stored in operators.csv.
func HashSecret(secret string) (string, error) {
	if secret == "" {
		return "", errors.New("secret must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), Cost)
	if err != nil {
		return "", fmt.Errorf("hashing secret: %w", err)
	}
	return string(hash), nil
}

// OperatorLookup finds operators by ID.
type OperatorLookup interface {
	Operator(id string) (*model.Operator, bool)
}

// Session is one authenticated operator working against the ledger.
type Session struct {
	ID        string
	Operator  *model.Operator
	StartedAt time.Time
}

// NewSession starts a session for an already authenticated operator.
func NewSession(op *model.Operator, now time.Time) *Session {
	return &Session{ID: uuid.NewString(), Operator: op, StartedAt: now}
}

// Login checks secret against the operator's stored hash.
func Login(ops OperatorLookup, operatorID, secret string, now time.Time) (*Session, error) {
	op, ok := ops.Operator(operatorID)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.SecretHash), []byte(secret)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return NewSession(op, now), nil
}

// OperatorID returns the ID of the logged-in operator.
func (s *Session) OperatorID() string {
	return s.Operator.ID
}

// Level returns the logged-in operator's access level.
func (s *Session) Level() int {
	return s.Operator.AccessLevel
}
