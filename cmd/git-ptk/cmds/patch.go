package cmds

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/patchtrack/git-ptk/internal/client"
	"github.com/patchtrack/git-ptk/internal/selector"
	"github.com/patchtrack/git-ptk/internal/types"
)

var patchCmd = &cobra.Command{
	Use:   "patch",
	Short: "List, inspect, download and apply patches",
}

var (
	patchListStates    []string
	patchListSubmitter string
	patchListDelegate  string
	patchListSince     string
	patchListArchived  bool
	patchListLimit     int
	patchListPage      int
	patchListSort      string
)

var patchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List patches",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, span := tracer.Start(cmd.Context(), "patchListCmd")
		defer span.End()

		settings, err := loadSettings(ctx)
		if err != nil {
			return err
		}
		c, err := newClient(settings)
		if err != nil {
			return err
		}

		// The configured states are the floor; explicit flags replace them.
		states := patchListStates
		if len(states) == 0 {
			states = settings.States
		}

		filters := client.NewFilters()
		for _, state := range states {
			filters.Add("state", state)
		}

		sel := selector.New(c)
		if patchListSubmitter != "" {
			id, err := sel.PersonID(ctx, patchListSubmitter)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed to resolve submitter")
				return err
			}
			filters.Set("submitter", strconv.Itoa(id))
		}
		if patchListDelegate != "" {
			id, err := sel.UserID(ctx, patchListDelegate)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed to resolve delegate")
				return err
			}
			filters.Set("delegate", strconv.Itoa(id))
		}
		if patchListSince != "" {
			ts, err := parseTime(patchListSince)
			if err != nil {
				return err
			}
			filters.Since(ts)
		}
		if cmd.Flags().Changed("archived") {
			filters.Set("archived", strconv.FormatBool(patchListArchived))
		}
		if patchListLimit > 0 {
			filters.PerPage(patchListLimit)
		}
		if patchListPage > 0 {
			filters.Page(patchListPage)
		}
		if patchListSort != "" {
			filters.Order(patchListSort)
		}

		it, err := c.ListPatches(ctx, filters)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid listing")
			return err
		}

		if jsonFlag {
			patches := []types.Patch{}
			if err := drainLimit(ctx, it, patchListLimit, func(p types.Patch) {
				patches = append(patches, p)
			}); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "listing failed")
				return err
			}

			span.RecordError(nil)
			span.SetStatus(codes.Ok, "listed patches")
			return printJSON(patches)
		}

		if err := drainLimit(ctx, it, patchListLimit, func(p types.Patch) {
			fmt.Fprintf(os.Stdout, "%-8d %-12s %s\n", p.ID, p.State, p.Name)
		}); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "listing failed")
			return err
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "listed patches")
		return nil
	},
}

var patchShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one patch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, span := tracer.Start(cmd.Context(), "patchShowCmd")
		defer span.End()

		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("patch ID %q is not numeric", args[0])
		}
		span.SetAttributes(attribute.Int("patch", id))

		settings, err := loadSettings(ctx)
		if err != nil {
			return err
		}
		c, err := newClient(settings)
		if err != nil {
			return err
		}

		patch, err := c.GetPatch(ctx, id)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to fetch patch")
			return err
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "fetched patch")
		if jsonFlag {
			return printJSON(patch)
		}
		printPatch(os.Stdout, patch)
		return nil
	},
}

var (
	patchDownloadOutput string
	patchDownloadDiff   bool
)

var patchDownloadCmd = &cobra.Command{
	Use:   "download <id>",
	Short: "Download a patch mbox or diff",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, span := tracer.Start(cmd.Context(), "patchDownloadCmd")
		defer span.End()

		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("patch ID %q is not numeric", args[0])
		}
		span.SetAttributes(
			attribute.Int("patch", id),
			attribute.Bool("diff", patchDownloadDiff),
		)

		settings, err := loadSettings(ctx)
		if err != nil {
			return err
		}
		c, err := newClient(settings)
		if err != nil {
			return err
		}

		patch, err := c.GetPatch(ctx, id)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to fetch patch")
			return err
		}

		if patchDownloadDiff {
			if patch.Diff == "" {
				err := fmt.Errorf("patch %d has no inline diff", id)
				span.RecordError(err)
				span.SetStatus(codes.Error, "no inline diff")
				return err
			}

			span.RecordError(nil)
			span.SetStatus(codes.Ok, "downloaded diff")
			return writeContent(
				io.NopCloser(strings.NewReader(patch.Diff)),
				fmt.Sprintf("%d.diff", id),
				patchDownloadOutput,
			)
		}

		if patch.MboxURL == "" {
			err := fmt.Errorf("patch %d has no content URL", id)
			span.RecordError(err)
			span.SetStatus(codes.Error, "no content URL")
			return err
		}

		body, filename, err := c.Download(ctx, patch.MboxURL)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to download content")
			return err
		}
		if filename == "" {
			filename = fmt.Sprintf("%d.mbox", id)
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "downloaded mbox")
		return writeContent(body, filename, patchDownloadOutput)
	},
}

var (
	patchApplyStates    []string
	patchApplySubmitter string
	patchApplyDelegate  string
	patchApplySince     string
)

var patchApplyCmd = &cobra.Command{
	Use:   "apply [id]... [-- <git am args>]",
	Short: "Apply patches to the current working tree",
	Long: `Apply the given patches in order with git am. Without IDs the filter
flags select the patches. Arguments behind -- pass through to git am.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, span := tracer.Start(cmd.Context(), "patchApplyCmd")
		defer span.End()

		selArgs, toolArgs := splitToolArgs(cmd, args)

		criteria := selector.Criteria{}
		if len(selArgs) > 0 {
			ids, err := parseIDs(selArgs)
			if err != nil {
				return err
			}
			criteria.PatchIDs = ids
		} else {
			filter, err := patchApplyFilter()
			if err != nil {
				return err
			}
			criteria.Filter = filter
		}

		return runApply(ctx, cmd, criteria, toolArgs)
	},
}

func patchApplyFilter() (*selector.Filter, error) {
	filter := &selector.Filter{
		States:    patchApplyStates,
		Submitter: patchApplySubmitter,
		Delegate:  patchApplyDelegate,
	}
	if patchApplySince != "" {
		ts, err := parseTime(patchApplySince)
		if err != nil {
			return nil, err
		}
		filter.Since = ts
	}

	if len(filter.States) == 0 && filter.Submitter == "" &&
		filter.Delegate == "" && filter.Since.IsZero() {
		return nil, errors.New("give patch IDs or at least one filter flag")
	}

	return filter, nil
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("patch ID %q is not numeric", arg)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

var (
	patchUpdateState     string
	patchUpdateArchived  bool
	patchUpdateDelegate  string
	patchUpdateCommitRef string
)

var patchUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update patch metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, span := tracer.Start(cmd.Context(), "patchUpdateCmd")
		defer span.End()

		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("patch ID %q is not numeric", args[0])
		}
		span.SetAttributes(attribute.Int("patch", id))

		settings, err := loadSettings(ctx)
		if err != nil {
			return err
		}
		c, err := newClient(settings)
		if err != nil {
			return err
		}

		update := types.PatchUpdate{}
		touched := false
		if cmd.Flags().Changed("state") {
			update.State = types.NewFromVal(patchUpdateState)
			touched = true
		}
		if cmd.Flags().Changed("archived") {
			update.Archived = types.NewFromVal(patchUpdateArchived)
			touched = true
		}
		if cmd.Flags().Changed("delegate") {
			delegateID, err := selector.New(c).UserID(ctx, patchUpdateDelegate)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed to resolve delegate")
				return err
			}
			update.Delegate = types.NewFromVal(delegateID)
			touched = true
		}
		if cmd.Flags().Changed("commit-ref") {
			update.CommitRef = types.NewFromVal(patchUpdateCommitRef)
			touched = true
		}
		if !touched {
			return errors.New(
				"nothing to update, give at least one of --state, --archived, --delegate, --commit-ref",
			)
		}

		patch, err := c.UpdatePatch(ctx, id, update)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to update patch")
			return err
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "updated patch")
		if jsonFlag {
			return printJSON(patch)
		}
		printPatch(os.Stdout, patch)
		return nil
	},
}

var patchChecksCmd = &cobra.Command{
	Use:   "checks <id>",
	Short: "List CI checks on a patch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, span := tracer.Start(cmd.Context(), "patchChecksCmd")
		defer span.End()

		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("patch ID %q is not numeric", args[0])
		}
		span.SetAttributes(attribute.Int("patch", id))

		settings, err := loadSettings(ctx)
		if err != nil {
			return err
		}
		c, err := newClient(settings)
		if err != nil {
			return err
		}

		it, err := c.ListChecks(ctx, id, nil)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid listing")
			return err
		}

		if jsonFlag {
			checks := []types.Check{}
			if err := drainLimit(ctx, it, 0, func(check types.Check) {
				checks = append(checks, check)
			}); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "listing failed")
				return err
			}

			span.RecordError(nil)
			span.SetStatus(codes.Ok, "listed checks")
			return printJSON(checks)
		}

		if err := drainLimit(ctx, it, 0, func(check types.Check) {
			fmt.Fprintf(os.Stdout, "%-8d %-8s %-24s %s\n",
				check.ID, check.State, check.Context, check.Description)
		}); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "listing failed")
			return err
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "listed checks")
		return nil
	},
}

func printPatch(w io.Writer, p *types.Patch) {
	fmt.Fprintf(w, "ID:        %d\n", p.ID)
	fmt.Fprintf(w, "Name:      %s\n", p.Name)
	fmt.Fprintf(w, "State:     %s\n", p.State)
	fmt.Fprintf(w, "Archived:  %t\n", p.Archived)
	fmt.Fprintf(w, "Date:      %s\n", p.Date)
	fmt.Fprintf(w, "Submitter: %s\n", personLabel(p.Submitter))
	if p.Delegate != nil {
		fmt.Fprintf(w, "Delegate:  %s\n", p.Delegate.Username)
	}
	if p.CommitRef != "" {
		fmt.Fprintf(w, "Commit:    %s\n", p.CommitRef)
	}
	for _, ref := range p.Series {
		fmt.Fprintf(w, "Series:    %d (%s, v%d)\n", ref.ID, ref.Name, ref.Version)
	}
	if p.Hash != "" {
		fmt.Fprintf(w, "Hash:      %s\n", p.Hash)
	}
	fmt.Fprintf(w, "Mbox:      %s\n", p.MboxURL)
	if p.WebURL != "" {
		fmt.Fprintf(w, "Web:       %s\n", p.WebURL)
	}
}

func personLabel(p types.Person) string {
	switch {
	case p.Name == "":
		return p.Email
	case p.Email == "":
		return p.Name
	default:
		return fmt.Sprintf("%s <%s>", p.Name, p.Email)
	}
}

func init() {
	rootCmd.AddCommand(patchCmd)
	patchCmd.AddCommand(
		patchListCmd,
		patchShowCmd,
		patchDownloadCmd,
		patchApplyCmd,
		patchUpdateCmd,
		patchChecksCmd,
	)

	patchListCmd.Flags().
		StringArrayVar(&patchListStates, "state", nil, "Filter by state, repeatable")
	patchListCmd.Flags().
		StringVar(&patchListSubmitter, "submitter", "", "Filter by submitter ID or name")
	patchListCmd.Flags().
		StringVar(&patchListDelegate, "delegate", "", "Filter by delegate ID or username")
	patchListCmd.Flags().
		StringVar(&patchListSince, "since", "", "Only patches updated since this time (RFC 3339 or YYYY-MM-DD)")
	patchListCmd.Flags().BoolVar(&patchListArchived, "archived", false, "Filter by archived state")
	patchListCmd.Flags().IntVar(&patchListLimit, "limit", 0, "Maximum records to list")
	patchListCmd.Flags().IntVar(&patchListPage, "page", 0, "Page to start at")
	patchListCmd.Flags().
		StringVar(&patchListSort, "sort", "", "Server-side sort field, prefix - for descending")

	patchApplyCmd.Flags().
		StringArrayVar(&patchApplyStates, "state", nil, "Select by state, repeatable")
	patchApplyCmd.Flags().
		StringVar(&patchApplySubmitter, "submitter", "", "Select by submitter ID or name")
	patchApplyCmd.Flags().
		StringVar(&patchApplyDelegate, "delegate", "", "Select by delegate ID or username")
	patchApplyCmd.Flags().
		StringVar(&patchApplySince, "since", "", "Only patches updated since this time")
	addApplyFlags(patchApplyCmd)

	patchDownloadCmd.Flags().
		StringVarP(&patchDownloadOutput, "output", "o", "", "Target path, - for stdout (default: server filename)")
	patchDownloadCmd.Flags().
		BoolVar(&patchDownloadDiff, "diff", false, "Download the inline diff instead of the mbox")

	patchUpdateCmd.Flags().StringVar(&patchUpdateState, "state", "", "New state")
	patchUpdateCmd.Flags().BoolVar(&patchUpdateArchived, "archived", false, "Archive or unarchive")
	patchUpdateCmd.Flags().
		StringVar(&patchUpdateDelegate, "delegate", "", "New delegate, ID or username")
	patchUpdateCmd.Flags().
		StringVar(&patchUpdateCommitRef, "commit-ref", "", "Commit the patch landed as")
}
