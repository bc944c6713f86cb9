package gitconfig_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchtrack/git-ptk/internal/command"
	"github.com/patchtrack/git-ptk/internal/gitconfig"
)

func runGit(ctx context.Context, t *testing.T, args ...string) {
	t.Helper()

	result, err := command.NewShellExecutor().Execute(ctx, command.New("git", args...))
	require.NoError(t, err, "failed to run git %v", args)
	require.Equal(t, 0, result.ExitCode, "git %v: %s", args, result.Stderr)
}

// isolateGlobal points the global git config at a throwaway home so the
// machine's real one cannot leak into assertions.
func isolateGlobal(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "xdg"))
	return home
}

func initRepo(ctx context.Context, t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	runGit(ctx, t, "init", "--quiet", dir)
	return dir
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("RepoKeysResolved", func(t *testing.T) {
		isolateGlobal(t)
		dir := initRepo(ctx, t)
		runGit(ctx, t, "-C", dir, "config", "ptk.server", "https://ptk.example.com/api")
		runGit(ctx, t, "-C", dir, "config", "ptk.project", "ptk-core")
		runGit(ctx, t, "-C", dir, "config", "ptk.token", "sekrit")

		values, err := gitconfig.Load(ctx, dir)
		require.NoError(t, err)

		assert.Equal(t, "https://ptk.example.com/api", values.Server)
		assert.Equal(t, "ptk-core", values.Project)
		assert.Equal(t, "sekrit", values.Token)
		assert.Empty(t, values.Username)
		assert.Empty(t, values.Password)
	})

	t.Run("RepoOverridesGlobal", func(t *testing.T) {
		home := isolateGlobal(t)
		global := "[ptk]\n\tserver = https://global.example.com\n\tproject = global-proj\n"
		require.NoError(t, os.WriteFile(filepath.Join(home, ".gitconfig"), []byte(global), 0600))

		dir := initRepo(ctx, t)
		runGit(ctx, t, "-C", dir, "config", "ptk.server", "https://repo.example.com")

		values, err := gitconfig.Load(ctx, dir)
		require.NoError(t, err)

		assert.Equal(t, "https://repo.example.com", values.Server, "repo scope wins")
		assert.Equal(t, "global-proj", values.Project, "global fills unset keys")
	})

	t.Run("OutsideRepositoryGlobalOnly", func(t *testing.T) {
		home := isolateGlobal(t)
		global := "[ptk]\n\tusername = dana\n"
		require.NoError(t, os.WriteFile(filepath.Join(home, ".gitconfig"), []byte(global), 0600))

		values, err := gitconfig.Load(ctx, t.TempDir())
		require.NoError(t, err, "no enclosing repository is fine for config")

		assert.Equal(t, "dana", values.Username)
		assert.Empty(t, values.Server)
	})

	t.Run("ResolvesFromSubdirectory", func(t *testing.T) {
		isolateGlobal(t)
		dir := initRepo(ctx, t)
		runGit(ctx, t, "-C", dir, "config", "ptk.project", "ptk-core")

		sub := filepath.Join(dir, "drivers", "net")
		require.NoError(t, os.MkdirAll(sub, 0700))

		values, err := gitconfig.Load(ctx, sub)
		require.NoError(t, err)
		assert.Equal(t, "ptk-core", values.Project)
	})
}

func TestWorktree(t *testing.T) {
	ctx := context.Background()

	t.Run("FindsRootFromSubdirectory", func(t *testing.T) {
		dir := initRepo(ctx, t)
		sub := filepath.Join(dir, "drivers", "net")
		require.NoError(t, os.MkdirAll(sub, 0700))

		root, err := gitconfig.Worktree(ctx, sub)
		require.NoError(t, err)

		expected, err := filepath.EvalSymlinks(dir)
		require.NoError(t, err)
		resolved, err := filepath.EvalSymlinks(root)
		require.NoError(t, err)
		assert.Equal(t, expected, resolved)
	})

	t.Run("NotARepository", func(t *testing.T) {
		_, err := gitconfig.Worktree(ctx, t.TempDir())
		require.ErrorIs(t, err, gitconfig.ErrNotARepository)
	})
}
