package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tellerbook/tellerbook/internal/audit"
	"github.com/tellerbook/tellerbook/internal/auth"
	"github.com/tellerbook/tellerbook/internal/statement"
)

func newStatementCommand(g *globals) *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "statement <account-number-or-id>",
		Short: "Export a client statement as CSV or XLSX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := statement.ParseFormat(format)
			if err != nil {
				return err
			}

			w, s, err := g.open(cmd, auth.ActionExportStatement)
			if err != nil {
				return err
			}
			defer w.Sync()

			c, err := w.Bank.FindClient(args[0])
			if err != nil {
				return err
			}
			st := statement.Build(c, w.Bank.History(c.AccountNumber), w.AsOf)

			path := out
			if path == "" {
				path = w.ExportPath(fmt.Sprintf("statement-%s-%s.%s", c.AccountNumber, w.AsOf.Format("20060102"), f))
			}
			if err := writeStatement(path, st, f); err != nil {
				return err
			}

			// Exports are not ledger changes, only the audit trail records them.
			if err := audit.Append(w.Root, []audit.Entry{{
				Timestamp:  time.Now().UTC(),
				SessionID:  s.ID,
				OperatorID: s.OperatorID(),
				Action:     string(auth.ActionExportStatement),
				Details:    fmt.Sprintf("Statement %s (%d lines)", f, len(st.Lines)),
				Reference:  c.AccountNumber,
			}}); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d lines to %s\n", len(st.Lines), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "csv or xlsx")
	cmd.Flags().StringVar(&out, "out", "", "output path (default exports/statement-<account>-<date>.<format>)")
	return cmd
}

func writeStatement(path string, st statement.Statement, f statement.Format) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := statement.Write(file, st, f); err != nil {
		file.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return file.Close()
}

func newAuditCommand(g *globals) *cobra.Command {
	var operatorID string
	var limit int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the operator audit trail",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, _, err := g.open(cmd, auth.ActionViewOperators)
			if err != nil {
				return err
			}
			defer w.Sync()

			entries, err := audit.Read(w.Root)
			if err != nil {
				return err
			}
			entries = audit.Filter(entries, operatorID)
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tOPERATOR\tACTION\tREFERENCE\tDETAILS")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.OperatorID, e.Action, e.Reference, e.Details)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&operatorID, "by", "", "only entries by this operator")
	cmd.Flags().IntVar(&limit, "limit", 0, "show only the last N entries")
	return cmd
}
