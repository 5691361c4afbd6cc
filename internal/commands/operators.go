package commands

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tellerbook/tellerbook/internal/auth"
	"github.com/tellerbook/tellerbook/internal/model"
)

func newOperatorCommand(g *globals) *cobra.Command {
	operatorCmd := &cobra.Command{
		Use:   "operator",
		Short: "Manage operators and access levels",
	}
	operatorCmd.AddCommand(
		newOperatorAddCommand(g),
		newOperatorSetLevelCommand(g),
		newOperatorListCommand(g),
	)
	return operatorCmd
}

func newOperatorAddCommand(g *globals) *cobra.Command {
	var opID, name, secret string
	var level int

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new operator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, s, err := g.open(cmd, auth.ActionManageOperators)
			if err != nil {
				return err
			}
			defer w.Sync()

			if err := w.Policy.AuthorizeGrant(s, level); err != nil {
				return err
			}
			hash, err := auth.HashSecret(secret)
			if err != nil {
				return err
			}
			op, err := w.Bank.RegisterOperator(model.Operator{ID: opID, SecretHash: hash, Name: name, AccessLevel: level})
			if err != nil {
				return err
			}

			commit, err := w.Persist(s, auth.ActionManageOperators, fmt.Sprintf("Register operator %s at level %d", op.ID, op.AccessLevel), op.ID)
			if err != nil {
				return err
			}
			report(cmd, commit, "Registered operator %s (level %d)", op.ID, op.AccessLevel)
			return nil
		},
	}

	cmd.Flags().StringVar(&opID, "id", "", "operator ID (required)")
	_ = cmd.MarkFlagRequired("id")
	cmd.Flags().StringVar(&name, "name", "", "operator name")
	cmd.Flags().StringVar(&secret, "secret-new", "", "secret for the new operator (required)")
	_ = cmd.MarkFlagRequired("secret-new")
	cmd.Flags().IntVar(&level, "level", 1, "access level 0-5")

	return cmd
}

func newOperatorSetLevelCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "set-level <operator-id> <level>",
		Short: "Change an operator's access level",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid level %q: %w", args[1], err)
			}

			w, s, err := g.open(cmd, auth.ActionManageOperators)
			if err != nil {
				return err
			}
			defer w.Sync()

			if err := w.Policy.AuthorizeGrant(s, level); err != nil {
				return err
			}
			if target, ok := w.Store.Operator(args[0]); ok && target.AccessLevel > s.Level() {
				return &auth.AccessDeniedError{OperatorID: s.OperatorID(), Action: auth.ActionManageOperators, Required: target.AccessLevel, Have: s.Level()}
			}
			if err := w.Bank.SetAccessLevel(args[0], level); err != nil {
				return err
			}

			commit, err := w.Persist(s, auth.ActionManageOperators, fmt.Sprintf("Set operator %s to level %d", args[0], level), args[0])
			if err != nil {
				return err
			}
			report(cmd, commit, "Operator %s is now level %d", args[0], level)
			return nil
		},
	}
}

func newOperatorListCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List operators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, _, err := g.open(cmd, auth.ActionViewOperators)
			if err != nil {
				return err
			}
			defer w.Sync()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tLEVEL")
			for _, op := range w.Bank.Operators() {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", op.ID, op.Name, op.AccessLevel)
			}
			return tw.Flush()
		},
	}
}
