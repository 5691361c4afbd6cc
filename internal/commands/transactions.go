package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tellerbook/tellerbook/internal/auth"
	"github.com/tellerbook/tellerbook/internal/bank"
	"github.com/tellerbook/tellerbook/internal/model"
	"github.com/tellerbook/tellerbook/internal/workspace"
)

func newDepositCommand(g *globals) *cobra.Command {
	return newMoveCommand(g, "deposit", "Credit an account", auth.ActionDeposit,
		func(w *workspace.Workspace, p bank.MoveParams) (model.Transaction, error) {
			return w.Bank.Deposit(p)
		})
}

func newWithdrawCommand(g *globals) *cobra.Command {
	return newMoveCommand(g, "withdraw", "Debit an account", auth.ActionWithdraw,
		func(w *workspace.Workspace, p bank.MoveParams) (model.Transaction, error) {
			return w.Bank.Withdraw(p)
		})
}

type moveFunc func(w *workspace.Workspace, p bank.MoveParams) (model.Transaction, error)

func newMoveCommand(g *globals, use, short string, action auth.Action, move moveFunc) *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   use + " <account-number> <amount>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}

			w, s, err := g.open(cmd, action)
			if err != nil {
				return err
			}
			defer w.Sync()

			txn, err := move(w, bank.MoveParams{
				AccountNumber: args[0],
				Amount:        amount,
				Label:         label,
				OperatorID:    s.OperatorID(),
				Date:          w.AsOf,
			})
			if err != nil {
				return err
			}

			details := fmt.Sprintf("%s %s on %s", txn.Type, txn.Amount.StringFixed(2), txn.AccountNumber)
			hash, err := w.Persist(s, action, details, txn.ID)
			if err != nil {
				return err
			}

			c, err := w.Bank.FindClient(txn.AccountNumber)
			if err != nil {
				return err
			}
			report(cmd, hash, "%s %s: transaction %s, balance %s", txn.Type, txn.Amount.StringFixed(2), txn.ID, c.Balance.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "free-text label")
	return cmd
}
