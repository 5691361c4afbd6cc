// Package gitops records ledger changes as git commits so every persisted
// operation has a history entry outside the CSV files themselves.
package gitops

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Repo is a workspace directory tracked by git. Commits carry a fixed
// author; the committer identity is pinned to the same values so commits
// work on machines without a global git identity.
type Repo struct {
	Dir         string
	AuthorName  string
	AuthorEmail string
}

// Open returns a Repo for dir with the given commit identity.
func Open(dir, authorName, authorEmail string) *Repo {
	return &Repo{Dir: dir, AuthorName: authorName, AuthorEmail: authorEmail}
}

// Available reports whether a git binary is on PATH.
func Available() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// Init initializes a new git repository at r.Dir.
func (r *Repo) Init() error {
	if _, err := r.run("init", "--quiet"); err != nil {
		return fmt.Errorf("git init: %w", err)
	}
	return nil
}

// IsRepo reports whether r.Dir is the root of a git repository.
func (r *Repo) IsRepo() bool {
	_, err := os.Stat(filepath.Join(r.Dir, ".git"))
	return err == nil
}

// Commit stages paths (everything when none are given) and commits them.
// Returns the short commit hash, or "" when there was nothing to commit.
func (r *Repo) Commit(message string, paths ...string) (string, error) {
	if len(paths) == 0 {
		paths = []string{"-A"}
	} else {
		paths = append([]string{"--"}, paths...)
	}
	if out, err := r.run(append([]string{"add"}, paths...)...); err != nil {
		return "", fmt.Errorf("git add: %s: %w", out, err)
	}

	staged, err := r.run("diff", "--cached", "--name-only")
	if err != nil {
		return "", fmt.Errorf("git diff: %s: %w", staged, err)
	}
	if strings.TrimSpace(staged) == "" {
		return "", nil
	}

	author := fmt.Sprintf("%s <%s>", r.AuthorName, r.AuthorEmail)
	if out, err := r.run("commit", "--quiet", "-m", message, "--author", author); err != nil {
		return "", fmt.Errorf("git commit: %s: %w", out, err)
	}

	hash, err := r.run("rev-parse", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(hash), nil
}

// LastMessage returns the subject of the HEAD commit.
func (r *Repo) LastMessage() (string, error) {
	out, err := r.run("log", "-1", "--format=%s")
	if err != nil {
		return "", fmt.Errorf("git log: %s: %w", out, err)
	}
	return strings.TrimSpace(out), nil
}

func (r *Repo) run(args ...string) (string, error) {
	full := append([]string{
		"-c", "user.name=" + r.AuthorName,
		"-c", "user.email=" + r.AuthorEmail,
		"-c", "commit.gpgsign=false",
	}, args...)
	cmd := exec.Command("git", full...)
	cmd.Dir = r.Dir
	out, err := cmd.CombinedOutput()
	return string(out), err
}
