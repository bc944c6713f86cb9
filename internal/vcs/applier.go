package vcs

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer(
	"github.com/patchtrack/git-ptk/internal/vcs",
)

// Outcome reports one apply attempt. A conflict is data, not an error;
// errors are reserved for environment failures such as a missing tool.
type Outcome struct {
	// Conflict means the tool rejected the payload against the current
	// tree. Its own recovery state (if any) is left untouched.
	Conflict bool
	// CommitSHA is the new HEAD when the attempt created a commit.
	CommitSHA string
	// Diagnostic is the tool transcript, populated on conflict.
	Diagnostic string
	// Files are the paths the payload touches, with diff prefixes removed.
	Files []string
}

//go:generate mockgen -destination ./mock/mock.go -package mock . Applier

// Applier lands one patch payload on a working tree. args pass through to
// the underlying tool.
type Applier interface {
	Apply(ctx context.Context, payload io.Reader, args []string) (*Outcome, error)
}
