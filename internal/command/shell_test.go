package command_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchtrack/git-ptk/internal/command"
)

func TestExecute(t *testing.T) {
	t.Run("ZeroExitCode", func(t *testing.T) {
		ctx := context.Background()
		shell := command.NewShellExecutor()

		expected := &command.Result{
			Cmd:      []string{"echo", "-n", "a"},
			Stdout:   []byte("a"),
			Stderr:   []byte{},
			ExitCode: 0,
		}

		cmd := command.New("echo", "-n", "a")
		result, err := shell.Execute(ctx, cmd)
		require.NoError(t, err, "failed to run command")
		assert.Equal(t, expected, result, "command result did not match")
	})

	t.Run("NonzeroExitCode", func(t *testing.T) {
		ctx := context.Background()
		shell := command.NewShellExecutor()

		expected := &command.Result{
			Cmd:    []string{"grep", "-y"},
			Stdout: []byte{},
			Stderr: []byte(`Usage: grep [OPTION]... PATTERNS [FILE]...
Try 'grep --help' for more information.
`),
			ExitCode: 2,
		}

		cmd := command.New("grep", "-y")
		result, err := shell.Execute(ctx, cmd)
		require.NoError(t, err, "failed to run command")
		assert.Equal(t, expected, result, "command result did not match")
	})

	t.Run("StdinIsForwarded", func(t *testing.T) {
		ctx := context.Background()
		shell := command.NewShellExecutor()

		cmd := command.New("cat")
		cmd.Stdin = strings.NewReader("From nobody Mon Sep 17 00:00:00 2001\n")

		result, err := shell.Execute(ctx, cmd)
		require.NoError(t, err, "failed to run command")
		assert.Equal(t, 0, result.ExitCode)
		assert.Equal(
			t,
			"From nobody Mon Sep 17 00:00:00 2001\n",
			string(result.Stdout),
			"stdin should reach the child process",
		)
	})

	t.Run("DirSetsWorkingDirectory", func(t *testing.T) {
		ctx := context.Background()
		shell := command.NewShellExecutor()
		dir := t.TempDir()

		cmd := command.New("pwd")
		cmd.Dir = dir

		result, err := shell.Execute(ctx, cmd)
		require.NoError(t, err, "failed to run command")
		require.Equal(t, 0, result.ExitCode)

		got, err := filepath.EvalSymlinks(strings.TrimSpace(string(result.Stdout)))
		require.NoError(t, err)
		want, err := filepath.EvalSymlinks(dir)
		require.NoError(t, err)
		assert.Equal(t, want, got, "command should run inside Dir")
	})

	t.Run("Cancel context graceful shutdown", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*50)
		defer cancel()

		shell := command.NewShellExecutor()

		cmd := command.New("sleep", "10")
		result, err := shell.Execute(ctx, cmd)
		require.NoError(t, err, "context cancel sets return code -1")
		assert.Equal(t, -1, result.ExitCode, "context cancel sets return code to -1")
	})
}
