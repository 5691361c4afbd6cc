package bank

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tellerbook/tellerbook/internal/model"
)

// RegisterOperator adds an operator. op.SecretHash must already be hashed.
func (s *Service) RegisterOperator(op model.Operator) (model.Operator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(op.ID) == "" {
		return model.Operator{}, errEmpty("operator id")
	}
	if op.SecretHash == "" {
		return model.Operator{}, errEmpty("operator secret")
	}
	if !model.ValidAccessLevel(op.AccessLevel) {
		return model.Operator{}, fmt.Errorf("level %d: %w", op.AccessLevel, model.ErrInvalidAccessLevel)
	}
	p, err := s.store.AddOperator(op)
	if err != nil {
		return model.Operator{}, err
	}

	s.log.Info("operator registered", zap.String("operator_id", p.ID), zap.Int("access_level", p.AccessLevel))
	return *p, nil
}

// SetAccessLevel changes an operator's access level.
func (s *Service) SetAccessLevel(operatorID string, level int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !model.ValidAccessLevel(level) {
		return fmt.Errorf("level %d: %w", level, model.ErrInvalidAccessLevel)
	}
	op, ok := s.store.Operator(operatorID)
	if !ok {
		return fmt.Errorf("operator %s: %w", operatorID, model.ErrOperatorNotFound)
	}
	prev := op.AccessLevel
	op.AccessLevel = level

	s.log.Info("access level changed", zap.String("operator_id", op.ID), zap.Int("from", prev), zap.Int("to", level))
	return nil
}

// Operators returns a snapshot of all operators.
func (s *Service) Operators() []model.Operator {
	s.mu.Lock()
	defer s.mu.Unlock()

	ops := s.store.Operators()
	out := make([]model.Operator, len(ops))
	for i, op := range ops {
		out[i] = *op
	}
	return out
}
