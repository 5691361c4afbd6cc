package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tellerbook/tellerbook/internal/auth"
	"github.com/tellerbook/tellerbook/internal/bank"
	"github.com/tellerbook/tellerbook/internal/model"
)

func newClientCommand(g *globals) *cobra.Command {
	clientCmd := &cobra.Command{
		Use:   "client",
		Short: "Manage client accounts",
	}
	clientCmd.AddCommand(
		newClientAddCommand(g),
		newClientRemoveCommand(g),
		newClientShowCommand(g),
		newClientListCommand(g),
	)
	return clientCmd
}

func newClientAddCommand(g *globals) *cobra.Command {
	var clientID, name, agency string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Open an account for a new client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, s, err := g.open(cmd, auth.ActionRegisterClient)
			if err != nil {
				return err
			}
			defer w.Sync()

			if agency == "" {
				agency = w.Config.Bank.AgencyNumber
			}
			c, err := w.Bank.RegisterClient(bank.ClientParams{
				ID:           clientID,
				Name:         name,
				AgencyNumber: agency,
				Date:         w.AsOf,
			})
			if err != nil {
				return err
			}

			hash, err := w.Persist(s, auth.ActionRegisterClient, fmt.Sprintf("Register client %s", c.ID), c.AccountNumber)
			if err != nil {
				return err
			}
			report(cmd, hash, "Opened account %s for %s", c.AccountNumber, c.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "id", "", "client ID (required)")
	_ = cmd.MarkFlagRequired("id")
	cmd.Flags().StringVar(&name, "name", "", "client name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&agency, "agency", "", "agency number (default from config)")

	return cmd
}

func newClientRemoveCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <account-number>",
		Short: "Remove a client with no outstanding debt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, s, err := g.open(cmd, auth.ActionRemoveClient)
			if err != nil {
				return err
			}
			defer w.Sync()

			if err := w.Bank.RemoveClient(args[0]); err != nil {
				return err
			}
			hash, err := w.Persist(s, auth.ActionRemoveClient, "Remove client "+args[0], args[0])
			if err != nil {
				return err
			}
			report(cmd, hash, "Removed account %s", args[0])
			return nil
		},
	}
}

func newClientShowCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "show <account-number-or-id>",
		Short: "Show a client's balance, debt and loans",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, _, err := g.open(cmd, auth.ActionViewClients)
			if err != nil {
				return err
			}
			defer w.Sync()

			c, err := w.Bank.FindClient(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Client:   %s (%s)\n", c.Name, c.ID)
			fmt.Fprintf(out, "Account:  %s / agency %s\n", c.AccountNumber, c.AgencyNumber)
			fmt.Fprintf(out, "Opened:   %s\n", c.CreatedAt.Format(dateLayout))
			fmt.Fprintf(out, "Balance:  %s\n", c.Balance.StringFixed(2))
			fmt.Fprintf(out, "Debt:     %s (as of %s)\n", c.Debt.StringFixed(2), w.AsOf.Format(dateLayout))

			loans := w.Bank.Loans(c.AccountNumber)
			if len(loans) == 0 {
				return nil
			}
			fmt.Fprintln(out)
			return printLoans(cmd, loans)
		},
	}
}

func newClientListCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, _, err := g.open(cmd, auth.ActionViewClients)
			if err != nil {
				return err
			}
			defer w.Sync()

			return printClients(cmd, w.Bank.Clients())
		},
	}
}

func printClients(cmd *cobra.Command, clients []model.Client) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACCOUNT\tID\tNAME\tBALANCE\tDEBT")
	for _, c := range clients {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.AccountNumber, c.ID, c.Name, c.Balance.StringFixed(2), c.Debt.StringFixed(2))
	}
	return tw.Flush()
}
