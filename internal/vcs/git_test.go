package vcs_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchtrack/git-ptk/internal/command"
	"github.com/patchtrack/git-ptk/internal/vcs"
)

const greetingPatch = `From 0123456789abcdef0123456789abcdef01234567 Mon Sep 17 00:00:00 2001
From: Dana Developer <dana@example.com>
Date: Thu, 05 Mar 2026 10:00:00 +0000
Subject: [PATCH] greeting: wave at the whole world

---
 greeting.txt | 2 +-
 1 file changed, 1 insertion(+), 1 deletion(-)

diff --git a/greeting.txt b/greeting.txt
index ce01362..3b18e51 100644
--- a/greeting.txt
+++ b/greeting.txt
@@ -1 +1 @@
-hello
+hello world
`

func runGit(ctx context.Context, t *testing.T, dir string, args ...string) string {
	t.Helper()

	shell := command.NewShellExecutor()
	cmd := command.New("git", args...)
	cmd.Dir = dir

	result, err := shell.Execute(ctx, cmd)
	require.NoError(t, err, "failed to run git")
	require.Equal(t, 0, result.ExitCode, "git %v failed: %s", args, result.Stderr)

	return strings.TrimSpace(string(result.Stdout))
}

func initRepo(ctx context.Context, t *testing.T, greeting string) string {
	t.Helper()

	dir := t.TempDir()
	runGit(ctx, t, dir, "init", "--quiet")
	runGit(ctx, t, dir, "config", "user.name", "Test Runner")
	runGit(ctx, t, dir, "config", "user.email", "runner@example.com")

	err := os.WriteFile(filepath.Join(dir, "greeting.txt"), []byte(greeting), 0o644)
	require.NoError(t, err, "failed to seed worktree")

	runGit(ctx, t, dir, "add", "greeting.txt")
	runGit(ctx, t, dir, "commit", "--quiet", "-m", "initial import")

	return dir
}

func TestAmApplier(t *testing.T) {
	t.Run("CleanApplyCreatesCommit", func(t *testing.T) {
		ctx := context.Background()
		dir := initRepo(ctx, t, "hello\n")
		before := runGit(ctx, t, dir, "rev-parse", "HEAD")

		applier := vcs.NewAmApplier(command.NewShellExecutor(), dir)
		outcome, err := applier.Apply(ctx, strings.NewReader(greetingPatch), nil)
		require.NoError(t, err, "failed to apply")

		assert.False(t, outcome.Conflict)
		assert.Equal(t, []string{"greeting.txt"}, outcome.Files)

		after := runGit(ctx, t, dir, "rev-parse", "HEAD")
		assert.NotEqual(t, before, after, "a commit should have been created")
		assert.Equal(t, after, outcome.CommitSHA, "outcome should carry the new head")

		content, err := os.ReadFile(filepath.Join(dir, "greeting.txt"))
		require.NoError(t, err)
		assert.Equal(t, "hello world\n", string(content))

		author := runGit(ctx, t, dir, "log", "-1", "--format=%an <%ae>")
		assert.Equal(t, "Dana Developer <dana@example.com>", author,
			"authorship should come from the payload")
	})

	t.Run("ConflictReportedNotRaised", func(t *testing.T) {
		ctx := context.Background()
		dir := initRepo(ctx, t, "goodbye\n")
		before := runGit(ctx, t, dir, "rev-parse", "HEAD")

		applier := vcs.NewAmApplier(command.NewShellExecutor(), dir)
		outcome, err := applier.Apply(ctx, strings.NewReader(greetingPatch), nil)
		require.NoError(t, err, "conflicts are outcomes, not errors")

		assert.True(t, outcome.Conflict)
		assert.NotEmpty(t, outcome.Diagnostic, "diagnostic should carry the tool transcript")
		assert.Empty(t, outcome.CommitSHA)

		after := runGit(ctx, t, dir, "rev-parse", "HEAD")
		assert.Equal(t, before, after, "head must not move on conflict")
	})

	t.Run("MalformedPayloadRejected", func(t *testing.T) {
		ctx := context.Background()
		dir := initRepo(ctx, t, "hello\n")

		applier := vcs.NewAmApplier(command.NewShellExecutor(), dir)
		_, err := applier.Apply(ctx, strings.NewReader("this is not a patch"), nil)
		require.Error(t, err, "expected payload rejection")
	})
}

func TestDiffApplier(t *testing.T) {
	t.Run("StagesWithoutCommit", func(t *testing.T) {
		ctx := context.Background()
		dir := initRepo(ctx, t, "hello\n")
		before := runGit(ctx, t, dir, "rev-parse", "HEAD")

		applier := vcs.NewDiffApplier(command.NewShellExecutor(), dir)
		outcome, err := applier.Apply(ctx, strings.NewReader(greetingPatch), nil)
		require.NoError(t, err, "failed to apply")

		assert.False(t, outcome.Conflict)
		assert.Empty(t, outcome.CommitSHA, "git apply must not commit")

		after := runGit(ctx, t, dir, "rev-parse", "HEAD")
		assert.Equal(t, before, after, "head must not move")

		content, err := os.ReadFile(filepath.Join(dir, "greeting.txt"))
		require.NoError(t, err)
		assert.Equal(t, "hello world\n", string(content))

		staged := runGit(ctx, t, dir, "diff", "--cached", "--name-only")
		assert.Equal(t, "greeting.txt", staged, "the change should be staged")
	})

	t.Run("ConflictReportedNotRaised", func(t *testing.T) {
		ctx := context.Background()
		dir := initRepo(ctx, t, "goodbye\n")

		applier := vcs.NewDiffApplier(command.NewShellExecutor(), dir)
		outcome, err := applier.Apply(ctx, strings.NewReader(greetingPatch), nil)
		require.NoError(t, err, "conflicts are outcomes, not errors")

		assert.True(t, outcome.Conflict)
		assert.NotEmpty(t, outcome.Diagnostic)
	})
}
