// Package workspace is the explicit context every command runs in: the
// loaded config, the ledger store, the bank service over it, the access
// policy and the session date. Nothing in tellerbook keeps global state.
package workspace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/tellerbook/tellerbook/internal/audit"
	"github.com/tellerbook/tellerbook/internal/auth"
	"github.com/tellerbook/tellerbook/internal/bank"
	"github.com/tellerbook/tellerbook/internal/config"
	"github.com/tellerbook/tellerbook/internal/gitops"
	"github.com/tellerbook/tellerbook/internal/id"
	"github.com/tellerbook/tellerbook/internal/loan"
	"github.com/tellerbook/tellerbook/internal/logging"
	"github.com/tellerbook/tellerbook/internal/model"
	"github.com/tellerbook/tellerbook/internal/store"
)

// ExportDir holds generated statements. It is not versioned.
const ExportDir = "exports"

// ErrNotWorkspace is returned when root has no tellerbook.yaml.
var ErrNotWorkspace = errors.New("not a tellerbook workspace (run tellerbook init)")

// Options tune how a workspace is opened. The zero value is usable.
type Options struct {
	AsOf      time.Time     // session date; zero means today
	LogOutput io.Writer     // defaults to os.Stderr
	Logger    *zap.Logger   // overrides the logger built from config
	IDs       *id.Generator // defaults to a randomly seeded generator
}

// Workspace is an opened ledger directory.
type Workspace struct {
	Root    string
	Config  *config.Config
	Store   *store.Store
	Bank    *bank.Service
	Policy  auth.Policy
	AsOf    time.Time
	Summary loan.Summary // result of the reconciliation done at open
	Log     *zap.Logger

	repo *gitops.Repo
}

// Open loads the workspace at root and reconciles every loan as of
// opts.AsOf. The reconciliation is in memory until the next Persist.
func Open(root string, opts Options) (*Workspace, error) {
	cfgPath := filepath.Join(root, config.FileName)
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", root, ErrNotWorkspace)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	log, err := newLogger(cfg, opts)
	if err != nil {
		return nil, err
	}

	policy, err := auth.DefaultPolicy().WithOverrides(cfg.Access)
	if err != nil {
		return nil, fmt.Errorf("access policy: %w", err)
	}

	st, err := store.Load(root)
	if err != nil {
		return nil, err
	}

	ids := opts.IDs
	if ids == nil {
		ids = id.NewGenerator()
	}
	asOf := opts.AsOf
	if asOf.IsZero() {
		asOf = today()
	}

	w := &Workspace{
		Root:   root,
		Config: cfg,
		Store:  st,
		Bank:   bank.NewService(st, ids, log),
		Policy: policy,
		AsOf:   asOf,
		Log:    log,
		repo:   gitops.Open(root, cfg.Git.AuthorName, cfg.Git.AuthorEmail),
	}
	w.Summary = w.Bank.Reconcile(asOf)
	return w, nil
}

// Login authenticates an operator and opens a session dated AsOf.
func (w *Workspace) Login(operatorID, secret string) (*auth.Session, error) {
	s, err := auth.Login(w.Store, operatorID, secret, w.AsOf)
	if err != nil {
		w.Log.Warn("login failed", zap.String("operator_id", operatorID))
		return nil, err
	}
	w.Log.Debug("login", zap.String("operator_id", operatorID), zap.String("session_id", s.ID))
	return s, nil
}

// Authorize checks the session against the workspace policy.
func (w *Workspace) Authorize(s *auth.Session, action auth.Action) error {
	if err := w.Policy.Authorize(s, action); err != nil {
		w.Log.Warn("access denied",
			zap.String("operator_id", s.OperatorID()),
			zap.String("action", string(action)),
			zap.Int("level", s.Level()),
			zap.Int("required", w.Policy.Required(action)))
		return err
	}
	return nil
}

// Persist saves the store, appends one audit row for the action and, when
// auto-commit is on and the workspace is a git repository, commits the
// change. Returns the commit hash, or "" when nothing was committed.
func (w *Workspace) Persist(s *auth.Session, action auth.Action, details, reference string) (string, error) {
	if err := w.Store.Save(w.Root); err != nil {
		return "", err
	}

	entry := audit.Entry{
		Timestamp:  time.Now().UTC(),
		SessionID:  s.ID,
		OperatorID: s.OperatorID(),
		Action:     string(action),
		Details:    details,
		Reference:  reference,
	}
	if err := audit.Append(w.Root, []audit.Entry{entry}); err != nil {
		return "", err
	}

	if !w.Config.Git.AutoCommit || !w.repo.IsRepo() {
		return "", nil
	}
	msg := fmt.Sprintf("%s: %s", action, details)
	hash, err := w.repo.Commit(msg, store.DataDir, filepath.Dir(audit.FilePath))
	if err != nil {
		return "", fmt.Errorf("committing %s: %w", action, err)
	}
	if hash != "" {
		w.Log.Debug("committed", zap.String("action", string(action)), zap.String("commit", hash))
	}
	return hash, nil
}

// ExportPath returns the default location for an exported file.
func (w *Workspace) ExportPath(name string) string {
	return filepath.Join(w.Root, ExportDir, name)
}

// Sync flushes the logger.
func (w *Workspace) Sync() {
	_ = w.Log.Sync()
}

// CreateParams describes a new workspace.
type CreateParams struct {
	Root        string
	Config      *config.Config
	AdminID     string
	AdminName   string
	AdminSecret string
}

// Create lays out a new workspace at p.Root with one administrator at the
// top access level, initializes git when auto-commit is on and git is
// installed, and returns the initial commit hash ("" without git).
func Create(p CreateParams) (string, error) {
	if _, err := os.Stat(filepath.Join(p.Root, config.FileName)); err == nil {
		return "", fmt.Errorf("%s already holds a workspace", p.Root)
	}
	for _, d := range []string{store.DataDir, filepath.Dir(audit.FilePath), ExportDir} {
		if err := os.MkdirAll(filepath.Join(p.Root, d), 0o755); err != nil {
			return "", fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(filepath.Join(p.Root, config.FileName), p.Config); err != nil {
		return "", err
	}

	hash, err := auth.HashSecret(p.AdminSecret)
	if err != nil {
		return "", fmt.Errorf("admin secret: %w", err)
	}
	st := store.New()
	if _, err := st.AddOperator(model.Operator{
		ID:          p.AdminID,
		SecretHash:  hash,
		Name:        p.AdminName,
		AccessLevel: model.MaxAccessLevel,
	}); err != nil {
		return "", err
	}
	if err := st.Save(p.Root); err != nil {
		return "", err
	}

	if err := audit.Append(p.Root, []audit.Entry{{
		Timestamp:  time.Now().UTC(),
		OperatorID: p.AdminID,
		Action:     "init",
		Details:    "Initialize " + p.Config.Bank.Name,
	}}); err != nil {
		return "", err
	}

	gitignore := ExportDir + "/\n"
	if err := os.WriteFile(filepath.Join(p.Root, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return "", fmt.Errorf("writing .gitignore: %w", err)
	}

	if !p.Config.Git.AutoCommit || !gitops.Available() {
		return "", nil
	}
	repo := gitops.Open(p.Root, p.Config.Git.AuthorName, p.Config.Git.AuthorEmail)
	if !repo.IsRepo() {
		if err := repo.Init(); err != nil {
			return "", err
		}
	}
	commit, err := repo.Commit("init: Initialize " + p.Config.Bank.Name)
	if err != nil {
		return "", fmt.Errorf("initial commit: %w", err)
	}
	return commit, nil
}

func newLogger(cfg *config.Config, opts Options) (*zap.Logger, error) {
	if opts.Logger != nil {
		return opts.Logger, nil
	}
	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	return logging.New(cfg.Log, out)
}

func today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
