package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tellerbook/tellerbook/internal/config"
	"github.com/tellerbook/tellerbook/internal/workspace"
)

func newInitCommand() *cobra.Command {
	var (
		bankName    string
		agency      string
		adminID     string
		adminName   string
		adminSecret string
		noGit       bool
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ledger workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			if adminSecret == "" {
				adminSecret = os.Getenv(SecretEnv)
			}
			if adminSecret == "" {
				return fmt.Errorf("--admin-secret or $%s is required", SecretEnv)
			}

			cfg := config.Default(bankName, agency)
			cfg.Git.AutoCommit = !noGit

			hash, err := workspace.Create(workspace.CreateParams{
				Root:        absDir,
				Config:      cfg,
				AdminID:     adminID,
				AdminName:   adminName,
				AdminSecret: adminSecret,
			})
			if err != nil {
				return err
			}

			report(cmd, hash, "Initialized %s at %s", bankName, absDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&bankName, "bank-name", "", "bank name (required)")
	_ = cmd.MarkFlagRequired("bank-name")
	cmd.Flags().StringVar(&agency, "agency", "0001", "agency number new accounts open at")
	cmd.Flags().StringVar(&adminID, "admin-id", "", "ID of the first operator (required)")
	_ = cmd.MarkFlagRequired("admin-id")
	cmd.Flags().StringVar(&adminName, "admin-name", "Administrator", "name of the first operator")
	cmd.Flags().StringVar(&adminSecret, "admin-secret", "", "secret of the first operator (default $"+SecretEnv+")")
	cmd.Flags().BoolVar(&noGit, "no-git", false, "do not version the workspace with git")

	return cmd
}
