// Package gitconfig resolves tool settings stored in git config and
// locates the working tree patches get applied to.
package gitconfig

import (
	"context"
	"errors"
	"fmt"

	git "github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	format "github.com/go-git/go-git/v5/plumbing/format/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/patchtrack/git-ptk/internal/gitconfig")

var ErrNotARepository = errors.New("not inside a git repository")

// section is the git config section the tool owns, as in
// `git config ptk.server https://patchtrack.example.com`.
const section = "ptk"

// Values are the ptk.* keys. Empty fields were not configured.
type Values struct {
	Server   string
	Project  string
	Token    string
	Username string
	Password string
}

// Load reads ptk.* for dir, repo keys overriding global ones. Outside a
// repository only the global scope contributes; that is not an error.
func Load(ctx context.Context, dir string) (*Values, error) {
	_, span := tracer.Start(ctx, "Load", trace.WithAttributes(
		attribute.String("dir", dir),
	))
	defer span.End()

	values := &Values{}

	global, err := gitcfg.LoadConfig(gitcfg.GlobalScope)
	if err != nil {
		span.AddEvent("skipping unreadable global config", trace.WithAttributes(
			attribute.String("error", err.Error()),
		))
	} else {
		apply(values, global.Raw.Section(section))
	}

	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			span.AddEvent("no enclosing repository, global scope only")
			span.SetStatus(codes.Ok, "")
			span.RecordError(nil)
			return values, nil
		}

		span.SetStatus(codes.Error, "failed to open repository")
		span.RecordError(err)
		return nil, fmt.Errorf("failed to open repository at %s: %w", dir, err)
	}

	local, err := repo.Config()
	if err != nil {
		span.SetStatus(codes.Error, "failed to read repository config")
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read repository config: %w", err)
	}
	apply(values, local.Raw.Section(section))

	span.SetStatus(codes.Ok, "")
	span.RecordError(nil)
	return values, nil
}

// Worktree returns the root of the working tree enclosing dir.
func Worktree(ctx context.Context, dir string) (string, error) {
	_, span := tracer.Start(ctx, "Worktree", trace.WithAttributes(
		attribute.String("dir", dir),
	))
	defer span.End()

	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			err = fmt.Errorf("%w: %s", ErrNotARepository, dir)
		}
		span.SetStatus(codes.Error, "failed to open repository")
		span.RecordError(err)
		return "", err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		span.SetStatus(codes.Error, "failed to resolve worktree")
		span.RecordError(err)
		return "", fmt.Errorf("failed to resolve worktree for %s: %w", dir, err)
	}

	root := worktree.Filesystem.Root()
	span.SetAttributes(attribute.String("worktree", root))
	span.SetStatus(codes.Ok, "")
	span.RecordError(nil)
	return root, nil
}

func apply(values *Values, s *format.Section) {
	if s.HasOption("server") {
		values.Server = s.Option("server")
	}
	if s.HasOption("project") {
		values.Project = s.Option("project")
	}
	if s.HasOption("token") {
		values.Token = s.Option("token")
	}
	if s.HasOption("username") {
		values.Username = s.Option("username")
	}
	if s.HasOption("password") {
		values.Password = s.Option("password")
	}
}
