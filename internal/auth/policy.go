package auth

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/tellerbook/tellerbook/internal/model"
)

// Action names an operation gated by access level.
type Action string

const (
	ActionViewClients     Action = "view_clients"
	ActionRegisterClient  Action = "register_client"
	ActionRemoveClient    Action = "remove_client"
	ActionDeposit         Action = "deposit"
	ActionWithdraw        Action = "withdraw"
	ActionIssueLoan       Action = "issue_loan"
	ActionRepayLoan       Action = "repay_loan"
	ActionReconcile       Action = "reconcile"
	ActionExportStatement Action = "export_statement"
	ActionViewOperators   Action = "view_operators"
	ActionManageOperators Action = "manage_operators"
)

// ErrAccessDenied matches every *AccessDeniedError.
var ErrAccessDenied = errors.New("access denied")

// AccessDeniedError reports an operator below the level an action needs.
type AccessDeniedError struct {
	OperatorID string
	Action     Action
	Required   int
	Have       int
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied: operator %s has level %d, %s requires %d", e.OperatorID, e.Have, e.Action, e.Required)
}

// Is makes errors.Is(err, ErrAccessDenied) true.
func (e *AccessDeniedError) Is(target error) bool {
	return target == ErrAccessDenied
}

// Policy maps each action to the minimum access level allowed to run it.
type Policy map[Action]int

// DefaultPolicy: client data from level 1, operator data from level 2,
// credit decisions and removals from level 3.
func DefaultPolicy() Policy {
	return Policy{
		ActionViewClients:     1,
		ActionRegisterClient:  1,
		ActionDeposit:         1,
		ActionWithdraw:        1,
		ActionRepayLoan:       1,
		ActionExportStatement: 1,
		ActionReconcile:       1,
		ActionViewOperators:   2,
		ActionManageOperators: 2,
		ActionIssueLoan:       3,
		ActionRemoveClient:    3,
	}
}

// Actions returns every known action, sorted.
func Actions() []Action {
	return slices.Sorted(maps.Keys(DefaultPolicy()))
}

// WithOverrides returns a copy of p with levels replaced from overrides,
// typically the access section of the config file.
func (p Policy) WithOverrides(overrides map[string]int) (Policy, error) {
	out := maps.Clone(p)
	for name, level := range overrides {
		action := Action(name)
		if _, ok := p[action]; !ok {
			return nil, fmt.Errorf("unknown action %q in access policy", name)
		}
		if !model.ValidAccessLevel(level) {
			return nil, fmt.Errorf("action %s level %d: %w", name, level, model.ErrInvalidAccessLevel)
		}
		out[action] = level
	}
	return out, nil
}

// Required returns the level an action needs. Unknown actions need the
// maximum level.
func (p Policy) Required(action Action) int {
	level, ok := p[action]
	if !ok {
		return model.MaxAccessLevel
	}
	return level
}

// Authorize fails with *AccessDeniedError when the session's operator is
// below the level the action requires.
func (p Policy) Authorize(s *Session, action Action) error {
	required := p.Required(action)
	if s.Level() < required {
		return &AccessDeniedError{OperatorID: s.OperatorID(), Action: action, Required: required, Have: s.Level()}
	}
	return nil
}

// AuthorizeGrant checks that the session may give another operator level.
// Nobody can grant above their own level.
func (p Policy) AuthorizeGrant(s *Session, level int) error {
	if err := p.Authorize(s, ActionManageOperators); err != nil {
		return err
	}
	if level > s.Level() {
		return &AccessDeniedError{OperatorID: s.OperatorID(), Action: ActionManageOperators, Required: level, Have: s.Level()}
	}
	return nil
}
