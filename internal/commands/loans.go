package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tellerbook/tellerbook/internal/auth"
	"github.com/tellerbook/tellerbook/internal/bank"
)

func newLoanCommand(g *globals) *cobra.Command {
	loanCmd := &cobra.Command{
		Use:   "loan",
		Short: "Issue, repay and list loans",
	}
	loanCmd.AddCommand(
		newLoanIssueCommand(g),
		newLoanRepayCommand(g),
		newLoanListCommand(g),
	)
	return loanCmd
}

func newLoanIssueCommand(g *globals) *cobra.Command {
	var rate, label string

	cmd := &cobra.Command{
		Use:   "issue <account-number> <principal>",
		Short: "Credit a loan to an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			principal, err := parseAmount(args[1])
			if err != nil {
				return err
			}

			w, s, err := g.open(cmd, auth.ActionIssueLoan)
			if err != nil {
				return err
			}
			defer w.Sync()

			r := w.Config.DefaultRate()
			if rate != "" {
				if r, err = parseAmount(rate); err != nil {
					return err
				}
			}

			txn, err := w.Bank.IssueLoan(bank.LoanParams{
				AccountNumber: args[0],
				Principal:     principal,
				Rate:          r,
				Label:         label,
				OperatorID:    s.OperatorID(),
				Date:          w.AsOf,
			})
			if err != nil {
				return err
			}

			details := fmt.Sprintf("Loan %s at %s on %s", txn.Amount.StringFixed(2), txn.InterestRate, txn.AccountNumber)
			hash, err := w.Persist(s, auth.ActionIssueLoan, details, txn.ID)
			if err != nil {
				return err
			}
			report(cmd, hash, "Loan %s issued: %s at %s annual", txn.ID, txn.Amount.StringFixed(2), txn.InterestRate)
			return nil
		},
	}

	cmd.Flags().StringVar(&rate, "rate", "", "annual interest rate as a fraction, e.g. 0.12 (default from config)")
	cmd.Flags().StringVar(&label, "label", "", "free-text label")
	return cmd
}

func newLoanRepayCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "repay <loan-id> <amount>",
		Short: "Pay down a loan from its account balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}

			w, s, err := g.open(cmd, auth.ActionRepayLoan)
			if err != nil {
				return err
			}
			defer w.Sync()

			payment, err := w.Bank.RepayLoan(bank.RepayParams{
				LoanID:     args[0],
				Amount:     amount,
				OperatorID: s.OperatorID(),
				Date:       w.AsOf,
			})
			if err != nil {
				return err
			}

			details := fmt.Sprintf("Repay %s of loan %s", payment.Amount.StringFixed(2), payment.LoanID)
			hash, err := w.Persist(s, auth.ActionRepayLoan, details, payment.ID)
			if err != nil {
				return err
			}

			status := "open"
			if loanTxn, ok := w.Store.Transaction(payment.LoanID); ok && !loanTxn.IsOpenLoan() {
				status = "paid"
			}
			report(cmd, hash, "Payment %s of %s on loan %s, loan %s", payment.ID, payment.Amount.StringFixed(2), payment.LoanID, status)
			return nil
		},
	}
}

func newLoanListCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "list <account-number>",
		Short: "List an account's loans with their payoffs",
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

			return printLoans(cmd, w.Bank.Loans(c.AccountNumber))
		},
	}
}

func printLoans(cmd *cobra.Command, loans []bank.LoanView) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LOAN\tDATE\tSTATUS\tRATE\tORIGINAL\tPRINCIPAL\tINTEREST\tPAYOFF")
	for _, l := range loans {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			l.ID, l.Date.Format(dateLayout), l.Type, l.InterestRate,
			l.OriginalAmount.StringFixed(2), l.Amount.StringFixed(2),
			l.Interest.StringFixed(2), l.Payoff.StringFixed(2))
	}
	return tw.Flush()
}

func newReconcileCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Accrue interest on every open loan and refresh client debts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, s, err := g.open(cmd, auth.ActionReconcile)
			if err != nil {
				return err
			}
			defer w.Sync()

			// Open already reconciled as of the session date.
			sum := w.Summary
			details := fmt.Sprintf("Reconcile as of %s: %d open loans, debt %s",
				w.AsOf.Format(dateLayout), sum.OpenLoans, sum.TotalDebt.StringFixed(2))
			hash, err := w.Persist(s, auth.ActionReconcile, details, "")
			if err != nil {
				return err
			}
			report(cmd, hash, "Reconciled %d clients as of %s: %d open loans, total debt %s",
				sum.Clients, w.AsOf.Format(dateLayout), sum.OpenLoans, sum.TotalDebt.StringFixed(2))
			return nil
		},
	}
}
