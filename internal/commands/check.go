package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tellerbook/tellerbook/internal/auth"
	"github.com/tellerbook/tellerbook/internal/store"
)

func newCheckCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify balances, loan links and identifiers in the ledger files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, _, err := g.open(cmd, auth.ActionReconcile)
			if err != nil {
				return err
			}
			defer w.Sync()

			errs := store.Validate(w.Store)
			out := cmd.OutOrStdout()
			for _, e := range errs {
				fmt.Fprintln(out, e.Error())
			}
			if len(errs) > 0 {
				return fmt.Errorf("%d ledger violations", len(errs))
			}
			fmt.Fprintf(out, "Ledger consistent: %d clients, %d transactions\n", len(w.Store.Clients()), len(w.Store.Transactions()))
			return nil
		},
	}
}
