package cmds

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	clierrors "github.com/patchtrack/git-ptk/internal/cli_errors"
	"github.com/patchtrack/git-ptk/internal/client"
	"github.com/patchtrack/git-ptk/internal/command"
	"github.com/patchtrack/git-ptk/internal/engine"
	"github.com/patchtrack/git-ptk/internal/fetch"
	"github.com/patchtrack/git-ptk/internal/gitconfig"
	"github.com/patchtrack/git-ptk/internal/selector"
	"github.com/patchtrack/git-ptk/internal/vcs"
)

var (
	applyNoVerifyFlag     bool
	applyContinueFlag     bool
	applyFetchRetriesFlag int
)

// addApplyFlags registers the flags every apply command shares.
func addApplyFlags(cmd *cobra.Command) {
	cmd.Flags().
		BoolVar(&applyNoVerifyFlag, "no-verify-hash", false, "Skip content hash verification")
	cmd.Flags().
		BoolVar(&applyContinueFlag, "continue-on-error", false, "Keep attempting the remaining patches after a failure")
	cmd.Flags().
		IntVar(&applyFetchRetriesFlag, "fetch-retries", 0, "Retries for failed content downloads")
}

// splitToolArgs separates selection arguments from the pass-through tool
// arguments behind the -- marker.
func splitToolArgs(cmd *cobra.Command, args []string) ([]string, []string) {
	if at := cmd.ArgsLenAtDash(); at >= 0 {
		return args[:at], args[at:]
	}

	return args, nil
}

// runApply resolves criteria into an ordered selection and drives the
// engine over it in the enclosing git worktree.
func runApply(
	ctx context.Context,
	cmd *cobra.Command,
	criteria selector.Criteria,
	toolArgs []string,
) error {
	ctx, span := tracer.Start(ctx, "runApply", trace.WithAttributes(
		attribute.StringSlice("toolArgs", toolArgs),
	))
	defer span.End()

	settings, err := loadSettings(ctx)
	if err != nil {
		return err
	}

	t, err := newTransport(settings)
	if err != nil {
		return err
	}
	c := client.New(t, settings.Project)

	selection, err := selector.New(c).Resolve(ctx, criteria)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to resolve selection")
		return err
	}
	span.SetAttributes(attribute.Int("patches", len(selection.Patches)))

	worktree, err := gitconfig.Worktree(ctx, ".")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "no working tree")
		return err
	}

	fetchRetries := settings.FetchRetries
	if cmd.Flags().Changed("fetch-retries") {
		fetchRetries = applyFetchRetriesFlag
	}
	var fetcher fetch.Fetcher = fetch.NewTransportFetcher(t)
	if fetchRetries > 0 {
		fetcher = fetch.NewRetryFetcher(fetcher, uint64(fetchRetries))
	}

	applier := vcs.NewAmApplier(command.NewShellExecutor(), worktree)
	results, runErr := engine.New(fetcher, applier).Apply(ctx, selection.Patches, engine.Options{
		VerifyHash:      !applyNoVerifyFlag,
		ContinueOnError: applyContinueFlag,
		Dependent:       selection.Dependent,
		ApplyArgs:       toolArgs,
	})

	if err := printResults(results, len(selection.Patches)); err != nil {
		return err
	}

	if runErr != nil {
		var halt *engine.HaltError
		if errors.As(runErr, &halt) {
			span.RecordError(runErr)
			span.SetStatus(codes.Error, "apply run halted")
			return clierrors.ExitErrorWrap(clierrors.ExitApplyFailed, runErr)
		}
		span.RecordError(runErr)
		span.SetStatus(codes.Error, "apply run aborted")
		return runErr
	}

	failed := 0
	for _, result := range results {
		if result.Outcome == engine.OutcomeFailed {
			failed++
		}
	}
	if failed > 0 {
		span.SetStatus(codes.Ok, "apply run finished with failures")
		return clierrors.ExitErrorWrap(
			clierrors.ExitApplyFailed,
			fmt.Errorf("%d of %d patches failed", failed, len(results)),
		)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "apply run finished")
	return nil
}

// printResults renders one line per patch plus the aggregate summary. In
// JSON mode the records go to stdout and the summary to stderr so the
// output stays parseable.
func printResults(results []engine.ApplyResult, total int) error {
	applied := 0
	for _, result := range results {
		if result.Outcome == engine.OutcomeApplied {
			applied++
		}
	}
	summary := fmt.Sprintf("%d of %d applied", applied, total)

	if jsonFlag {
		if err := printJSON(results); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, summary)
		return nil
	}

	for _, result := range results {
		switch result.Outcome {
		case engine.OutcomeApplied:
			fmt.Fprintf(os.Stdout, "applied %d %s (%s)\n",
				result.Patch.ID, result.Patch.Name, result.CommitSHA)
		case engine.OutcomeSkipped:
			fmt.Fprintf(os.Stdout, "skipped %d %s (%s)\n",
				result.Patch.ID, result.Patch.Name, result.Reason)
		case engine.OutcomeFailed:
			fmt.Fprintf(os.Stdout, "failed  %d %s\n", result.Patch.ID, result.Patch.Name)
			if result.Diagnostic != "" {
				fmt.Fprintln(os.Stderr, result.Diagnostic)
			}
		}
	}
	fmt.Fprintln(os.Stdout, summary)

	return nil
}
