package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/tellerbook/tellerbook/internal/auth"
	"github.com/tellerbook/tellerbook/internal/buildinfo"
	"github.com/tellerbook/tellerbook/internal/workspace"
)

// SecretEnv is read when --secret is not given.
const SecretEnv = "TELLERBOOK_SECRET"

const dateLayout = "2006-01-02"

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:     "tellerbook",
		Short:   "Teller ledger for client accounts and loans",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&g.repo, "repo", ".", "workspace directory")
	pf.StringVar(&g.operator, "operator", "", "operator ID to log in as")
	pf.StringVar(&g.secret, "secret", "", "operator secret (default $"+SecretEnv+")")
	pf.StringVar(&g.asOf, "as-of", "", "session date YYYY-MM-DD (default today)")

	rootCmd.AddCommand(
		newInitCommand(),
		newReconcileCommand(g),
		newClientCommand(g),
		newOperatorCommand(g),
		newDepositCommand(g),
		newWithdrawCommand(g),
		newLoanCommand(g),
		newStatementCommand(g),
		newAuditCommand(g),
		newCheckCommand(g),
	)

	return rootCmd
}

// globals holds the persistent flags shared by every ledger command.
type globals struct {
	repo     string
	operator string
	secret   string
	asOf     string
}

// open loads the workspace, logs the operator in and checks action.
// Callers must Sync the returned workspace.
func (g *globals) open(cmd *cobra.Command, action auth.Action) (*workspace.Workspace, *auth.Session, error) {
	root, err := filepath.Abs(g.repo)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving path: %w", err)
	}
	asOf, err := parseDate(g.asOf)
	if err != nil {
		return nil, nil, err
	}
	if g.operator == "" {
		return nil, nil, fmt.Errorf("--operator is required")
	}
	secret := g.secret
	if secret == "" {
		secret = os.Getenv(SecretEnv)
	}

	w, err := workspace.Open(root, workspace.Options{AsOf: asOf, LogOutput: cmd.ErrOrStderr()})
	if err != nil {
		return nil, nil, err
	}
	s, err := w.Login(g.operator, secret)
	if err != nil {
		w.Sync()
		return nil, nil, err
	}
	if err := w.Authorize(s, action); err != nil {
		w.Sync()
		return nil, nil, err
	}
	return w, s, nil
}

// parseDate parses a YYYY-MM-DD flag value; empty means zero (today).
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// parseAmount parses a money or rate argument.
func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// report prints the outcome of a persisted command, with the commit hash
// when one was made.
func report(cmd *cobra.Command, hash, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if hash != "" {
		msg += fmt.Sprintf(" (%s)", hash)
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
}
