package gitops

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) *Repo {
	t.Helper()
	if !Available() {
		t.Skip("git not installed")
	}
	r := Open(t.TempDir(), "Test Author", "test@example.com")
	require.NoError(t, r.Init())
	return r
}

func TestInit(t *testing.T) {
	r := newRepo(t)
	_, err := os.Stat(filepath.Join(r.Dir, ".git"))
	require.NoError(t, err, ".git directory should exist")
}

func TestIsRepo(t *testing.T) {
	if !Available() {
		t.Skip("git not installed")
	}
	r := Open(t.TempDir(), "Test Author", "test@example.com")
	assert.False(t, r.IsRepo(), "empty dir should not be a repo")

	require.NoError(t, r.Init())
	assert.True(t, r.IsRepo(), "initialized dir should be a repo")
}

func TestCommit(t *testing.T) {
	r := newRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(r.Dir, "clients.csv"), []byte("id\n"), 0o644))

	hash, err := r.Commit("deposit: 12345678")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	msg, err := r.LastMessage()
	require.NoError(t, err)
	assert.Equal(t, "deposit: 12345678", msg)

	authorLog := exec.Command("git", "log", "--format=%an <%ae>", "-1")
	authorLog.Dir = r.Dir
	out, err := authorLog.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "Test Author <test@example.com>")
}

func TestCommit_NothingToCommit(t *testing.T) {
	r := newRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(r.Dir, "a.csv"), []byte("x\n"), 0o644))
	_, err := r.Commit("first")
	require.NoError(t, err)

	hash, err := r.Commit("second")
	require.NoError(t, err)
	assert.Empty(t, hash)
}

func TestCommit_Paths(t *testing.T) {
	r := newRepo(t)
	require.NoError(t, os.MkdirAll(filepath.Join(r.Dir, "data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(r.Dir, "data", "clients.csv"), []byte("x\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(r.Dir, "scratch.txt"), []byte("y\n"), 0o644))

	_, err := r.Commit("data only", "data")
	require.NoError(t, err)

	status := exec.Command("git", "status", "--porcelain")
	status.Dir = r.Dir
	out, err := status.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "scratch.txt")
	assert.NotContains(t, string(out), "clients.csv")
}
