package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/patchtrack/git-ptk/internal/command"
)

// Ensure the git appliers implement Applier interface.
var (
	_ Applier = (*AmApplier)(nil)
	_ Applier = (*DiffApplier)(nil)
)

// AmApplier lands mail-formatted payloads with git-am, creating one commit
// per payload with the original authorship.
type AmApplier struct {
	executor command.Executor
	worktree string
}

func NewAmApplier(executor command.Executor, worktree string) *AmApplier {
	return &AmApplier{
		executor: executor,
		worktree: worktree,
	}
}

func (a *AmApplier) Apply(
	ctx context.Context,
	payload io.Reader,
	args []string,
) (*Outcome, error) {
	ctx, span := tracer.Start(ctx, "AmApplier.Apply", trace.WithAttributes(
		attribute.String("worktree", a.worktree),
		attribute.StringSlice("args", args),
	))
	defer span.End()

	buffered, files, err := inspectPayload(ctx, payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid payload")
		return nil, err
	}

	cmd := command.New("git", append([]string{"am"}, args...)...)
	cmd.Dir = a.worktree
	cmd.Stdin = bytes.NewReader(buffered)

	result, err := a.executor.Execute(ctx, cmd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to execute git am")
		return nil, err
	}

	if result.ExitCode != 0 {
		// git am keeps its rebase-apply state around for --continue or
		// --abort. Leave it for the user to resolve.
		span.AddEvent("conflict", trace.WithAttributes(
			attribute.Int("exitCode", result.ExitCode),
		))
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "payload conflicted")
		return &Outcome{
			Conflict:   true,
			Diagnostic: transcript(result),
			Files:      files,
		}, nil
	}

	sha, err := a.head(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to resolve new head")
		return nil, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "applied payload")
	return &Outcome{
		CommitSHA: sha,
		Files:     files,
	}, nil
}

func (a *AmApplier) head(ctx context.Context) (string, error) {
	cmd := command.New("git", "rev-parse", "HEAD")
	cmd.Dir = a.worktree

	result, err := a.executor.Execute(ctx, cmd)
	if err != nil {
		return "", err
	}
	if result.ExitCode != 0 {
		return "", fmt.Errorf("git rev-parse failed: %s", transcript(result))
	}

	return strings.TrimSpace(string(result.Stdout)), nil
}

// DiffApplier lands payloads with git-apply, staging the change without
// creating a commit. Mail headers in the payload are skipped by git.
type DiffApplier struct {
	executor command.Executor
	worktree string
}

func NewDiffApplier(executor command.Executor, worktree string) *DiffApplier {
	return &DiffApplier{
		executor: executor,
		worktree: worktree,
	}
}

func (a *DiffApplier) Apply(
	ctx context.Context,
	payload io.Reader,
	args []string,
) (*Outcome, error) {
	ctx, span := tracer.Start(ctx, "DiffApplier.Apply", trace.WithAttributes(
		attribute.String("worktree", a.worktree),
		attribute.StringSlice("args", args),
	))
	defer span.End()

	buffered, files, err := inspectPayload(ctx, payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid payload")
		return nil, err
	}

	cmd := command.New("git", append([]string{"apply", "--index"}, args...)...)
	cmd.Dir = a.worktree
	cmd.Stdin = bytes.NewReader(buffered)

	result, err := a.executor.Execute(ctx, cmd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to execute git apply")
		return nil, err
	}

	if result.ExitCode != 0 {
		span.AddEvent("conflict", trace.WithAttributes(
			attribute.Int("exitCode", result.ExitCode),
		))
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "payload conflicted")
		return &Outcome{
			Conflict:   true,
			Diagnostic: transcript(result),
			Files:      files,
		}, nil
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "applied payload")
	return &Outcome{
		Files: files,
	}, nil
}

// inspectPayload buffers the payload and lists the files it touches. A
// payload without a single parseable file fragment is rejected before any
// tool runs.
func inspectPayload(ctx context.Context, payload io.Reader) ([]byte, []string, error) {
	_, span := tracer.Start(ctx, "inspectPayload")
	defer span.End()

	buffered, err := io.ReadAll(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read payload")
		return nil, nil, fmt.Errorf("failed to read payload: %w", err)
	}

	parsed, _, err := gitdiff.Parse(bytes.NewReader(buffered))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse payload")
		return nil, nil, fmt.Errorf("failed to parse payload: %w", err)
	}
	if len(parsed) == 0 {
		err = errors.New("payload contains no file changes")
		span.RecordError(err)
		span.SetStatus(codes.Error, "empty payload")
		return nil, nil, err
	}

	files := make([]string, 0, len(parsed))
	for _, file := range parsed {
		name := file.NewName
		if file.IsDelete {
			name = file.OldName
		}
		files = append(files, stripDiffPrefix(strings.TrimSpace(name)))
	}

	span.SetAttributes(attribute.StringSlice("files", files))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "inspected payload")
	return buffered, files, nil
}

func stripDiffPrefix(input string) string {
	for _, pfx := range []string{"a/", "b/"} {
		if strings.HasPrefix(input, pfx) {
			return strings.TrimPrefix(input, pfx)
		}
	}

	return input
}

func transcript(result *command.Result) string {
	parts := []string{}
	if len(bytes.TrimSpace(result.Stdout)) > 0 {
		parts = append(parts, string(bytes.TrimSpace(result.Stdout)))
	}
	if len(bytes.TrimSpace(result.Stderr)) > 0 {
		parts = append(parts, string(bytes.TrimSpace(result.Stderr)))
	}

	return strings.Join(parts, "\n")
}
