package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/patchtrack/git-ptk/internal/fetch"
	"github.com/patchtrack/git-ptk/internal/hash"
	"github.com/patchtrack/git-ptk/internal/logger"
	"github.com/patchtrack/git-ptk/internal/types"
	"github.com/patchtrack/git-ptk/internal/vcs"
)

var tracer = otel.Tracer("github.com/patchtrack/git-ptk/internal/engine")

type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

type Reason string

const (
	ReasonNone           Reason = ""
	ReasonHashMismatch   Reason = "hash-mismatch"
	ReasonBlockedByPrior Reason = "blocked-by-prior-failure"
)

// ApplyResult is the terminal record for one patch in a run. Once recorded
// it never changes.
type ApplyResult struct {
	Patch      types.PatchRef `json:"patch"`
	Outcome    Outcome        `json:"outcome"`
	Reason     Reason         `json:"reason,omitempty"`
	Diagnostic string         `json:"diagnostic,omitempty"`
	CommitSHA  string         `json:"commit_sha,omitempty"`
}

type Options struct {
	// VerifyHash checks the fetched bytes against the server hash before
	// anything touches the tree. A missing server hash skips the check.
	VerifyHash bool
	// ContinueOnError keeps attempting the remaining patches after a
	// failure or a hash skip instead of the default fail fast.
	ContinueOnError bool
	// Dependent marks runs whose input order encodes a dependency chain,
	// i.e. a series. A broken chain blocks the remainder unless
	// ContinueOnError pushes through it.
	Dependent bool
	// ApplyArgs pass through to the VCS tool, e.g. "--3way".
	ApplyArgs []string
}

// HaltError ends a fail-fast run. The results handed back alongside it
// cover everything up to and including the failing patch.
type HaltError struct {
	Patch types.PatchRef
}

func (e *HaltError) Error() string {
	return fmt.Sprintf("apply run halted at patch %d (%s)", e.Patch.ID, e.Patch.Name)
}

// Engine applies an ordered patch selection to a working tree, one at a
// time, and reports per patch results.
type Engine struct {
	fetcher fetch.Fetcher
	applier vcs.Applier
}

func New(fetcher fetch.Fetcher, applier vcs.Applier) *Engine {
	return &Engine{
		fetcher: fetcher,
		applier: applier,
	}
}

// Apply walks patches in input order. The returned results are always
// meaningful, also when err is non nil: a fail-fast halt truncates them at
// the failing patch, a cancellation at the last patch that finished.
// Cancellation is only observed between patches; the in-flight apply is
// never interrupted.
func (e *Engine) Apply(
	ctx context.Context,
	patches []types.Patch,
	opts Options,
) ([]ApplyResult, error) {
	runID := uuid.New()
	ctx, span := tracer.Start(ctx, "Engine.Apply", trace.WithAttributes(
		attribute.String("runID", runID.String()),
		attribute.Int("patches", len(patches)),
		attribute.Bool("verifyHash", opts.VerifyHash),
		attribute.Bool("continueOnError", opts.ContinueOnError),
		attribute.Bool("dependent", opts.Dependent),
	))
	defer span.End()

	log := logger.Logger.With("runID", runID.String())

	results := make([]ApplyResult, 0, len(patches))
	chainBroken := false
	for _, patch := range patches {
		if err := ctx.Err(); err != nil {
			err = fmt.Errorf("apply run cancelled: %w", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "run cancelled between patches")
			return results, err
		}

		if chainBroken && opts.Dependent && !opts.ContinueOnError {
			log.InfoContext(ctx, "skipping patch behind a broken chain",
				"patch", patch.ID,
				"name", patch.Name,
			)
			results = append(results, ApplyResult{
				Patch:   patch.Ref(),
				Outcome: OutcomeSkipped,
				Reason:  ReasonBlockedByPrior,
			})
			continue
		}

		result := e.applyOne(ctx, log, patch, opts)
		results = append(results, result)

		switch result.Outcome {
		case OutcomeFailed:
			if !opts.ContinueOnError {
				err := &HaltError{Patch: result.Patch}
				span.RecordError(err)
				span.SetStatus(codes.Error, "run halted")
				return results, err
			}
			chainBroken = true
		case OutcomeSkipped:
			chainBroken = true
		case OutcomeApplied:
		}
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "run finished")
	return results, nil
}

// applyOne drives a single patch through fetch, verify and apply. Every
// exit from here is a terminal state for the patch.
func (e *Engine) applyOne(
	ctx context.Context,
	log *slog.Logger,
	patch types.Patch,
	opts Options,
) ApplyResult {
	ctx, span := tracer.Start(ctx, "Engine.applyOne", trace.WithAttributes(
		attribute.Int("patch", patch.ID),
		attribute.String("name", patch.Name),
	))
	defer span.End()

	result := ApplyResult{Patch: patch.Ref()}

	if patch.MboxURL == "" {
		result.Outcome = OutcomeFailed
		result.Diagnostic = "patch has no content URL"
		span.SetStatus(codes.Error, "patch has no content URL")
		return result
	}

	body, err := e.fetcher.Fetch(ctx, patch.MboxURL)
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Diagnostic = fmt.Sprintf("failed to fetch content: %s", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch content")
		return result
	}
	defer body.Close()

	span.AddEvent("fetched")
	log.DebugContext(ctx, "patch state change", "patch", patch.ID, "state", "fetched")

	var payload bytes.Buffer
	if opts.VerifyHash {
		sum, err := hash.Reader(ctx, io.TeeReader(body, &payload))
		if err != nil {
			result.Outcome = OutcomeFailed
			result.Diagnostic = fmt.Sprintf("failed to read content: %s", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to read content")
			return result
		}

		switch {
		case patch.Hash == "":
			log.WarnContext(ctx, "server provides no content hash, skipping verification",
				"patch", patch.ID,
			)
		case sum != patch.Hash:
			result.Outcome = OutcomeSkipped
			result.Reason = ReasonHashMismatch
			result.Diagnostic = fmt.Sprintf(
				"content hash %s does not match server hash %s",
				sum, patch.Hash,
			)
			span.AddEvent("hash mismatch", trace.WithAttributes(
				attribute.String("local", sum),
				attribute.String("server", patch.Hash),
			))
			span.SetStatus(codes.Ok, "patch skipped on hash mismatch")
			return result
		default:
			span.AddEvent("verified")
			log.DebugContext(ctx, "patch state change", "patch", patch.ID, "state", "verified")
		}
	} else {
		if _, err := io.Copy(&payload, body); err != nil {
			result.Outcome = OutcomeFailed
			result.Diagnostic = fmt.Sprintf("failed to read content: %s", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to read content")
			return result
		}
	}

	// The payload is committed to the tool now; a user interrupt must not
	// kill git halfway through a tree mutation.
	outcome, err := e.applier.Apply(context.WithoutCancel(ctx), &payload, opts.ApplyArgs)
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Diagnostic = fmt.Sprintf("failed to run apply tool: %s", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to run apply tool")
		return result
	}

	if outcome.Conflict {
		result.Outcome = OutcomeFailed
		result.Diagnostic = outcome.Diagnostic
		span.AddEvent("conflict")
		span.SetStatus(codes.Ok, "patch conflicted")
		log.InfoContext(ctx, "patch state change", "patch", patch.ID, "state", "failed")
		return result
	}

	result.Outcome = OutcomeApplied
	result.CommitSHA = outcome.CommitSHA
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "patch applied")
	log.InfoContext(ctx, "patch state change",
		"patch", patch.ID,
		"state", "applied",
		"commit", outcome.CommitSHA,
	)
	return result
}
