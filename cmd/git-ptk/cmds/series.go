package cmds

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/patchtrack/git-ptk/internal/client"
	"github.com/patchtrack/git-ptk/internal/selector"
	"github.com/patchtrack/git-ptk/internal/types"
)

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "List, inspect, download and apply patch series",
}

var (
	seriesListSubmitter string
	seriesListSince     string
	seriesListLimit     int
	seriesListPage      int
	seriesListSort      string
)

var seriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List series",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, span := tracer.Start(cmd.Context(), "seriesListCmd")
		defer span.End()

		settings, err := loadSettings(ctx)
		if err != nil {
			return err
		}
		c, err := newClient(settings)
		if err != nil {
			return err
		}

		filters := client.NewFilters()
		if seriesListSubmitter != "" {
			id, err := selector.New(c).PersonID(ctx, seriesListSubmitter)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed to resolve submitter")
				return err
			}
			filters.Set("submitter", strconv.Itoa(id))
		}
		if seriesListSince != "" {
			ts, err := parseTime(seriesListSince)
			if err != nil {
				return err
			}
			filters.Since(ts)
		}
		if seriesListLimit > 0 {
			filters.PerPage(seriesListLimit)
		}
		if seriesListPage > 0 {
			filters.Page(seriesListPage)
		}
		if seriesListSort != "" {
			filters.Order(seriesListSort)
		}

		it, err := c.ListSeries(ctx, filters)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid listing")
			return err
		}

		if jsonFlag {
			collection := []types.Series{}
			if err := drainLimit(ctx, it, seriesListLimit, func(s types.Series) {
				collection = append(collection, s)
			}); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "listing failed")
				return err
			}

			span.RecordError(nil)
			span.SetStatus(codes.Ok, "listed series")
			return printJSON(collection)
		}

		if err := drainLimit(ctx, it, seriesListLimit, func(s types.Series) {
			fmt.Fprintf(os.Stdout, "%-8d v%-3d %2d/%-2d %s\n",
				s.ID, s.Version, s.Received, s.Total, s.Name)
		}); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "listing failed")
			return err
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "listed series")
		return nil
	},
}

var seriesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one series",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, span := tracer.Start(cmd.Context(), "seriesShowCmd")
		defer span.End()

		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("series ID %q is not numeric", args[0])
		}
		span.SetAttributes(attribute.Int("series", id))

		settings, err := loadSettings(ctx)
		if err != nil {
			return err
		}
		c, err := newClient(settings)
		if err != nil {
			return err
		}

		series, err := c.GetSeries(ctx, id)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to fetch series")
			return err
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "fetched series")
		if jsonFlag {
			return printJSON(series)
		}
		printSeries(os.Stdout, series)
		return nil
	},
}

var seriesDownloadOutput string

var seriesDownloadCmd = &cobra.Command{
	Use:   "download <id>",
	Short: "Download a whole series as one mbox",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, span := tracer.Start(cmd.Context(), "seriesDownloadCmd")
		defer span.End()

		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("series ID %q is not numeric", args[0])
		}
		span.SetAttributes(attribute.Int("series", id))

		settings, err := loadSettings(ctx)
		if err != nil {
			return err
		}
		c, err := newClient(settings)
		if err != nil {
			return err
		}

		series, err := c.GetSeries(ctx, id)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to fetch series")
			return err
		}
		if series.MboxURL == "" {
			err := fmt.Errorf("series %d has no content URL", id)
			span.RecordError(err)
			span.SetStatus(codes.Error, "no content URL")
			return err
		}

		body, filename, err := c.Download(ctx, series.MboxURL)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to download content")
			return err
		}
		if filename == "" {
			filename = fmt.Sprintf("series-%d.mbox", id)
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "downloaded series")
		return writeContent(body, filename, seriesDownloadOutput)
	},
}

var (
	seriesApplyVersion         int
	seriesApplyAllowIncomplete bool
)

var seriesApplyCmd = &cobra.Command{
	Use:   "apply <id> [-- <git am args>]",
	Short: "Apply a series in sender order",
	Long: `Apply all patches of a series in sender order with git am. When the
series has been superseded by a newer revision, the newest revision is
applied unless --series-version pins one.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, span := tracer.Start(cmd.Context(), "seriesApplyCmd")
		defer span.End()

		selArgs, toolArgs := splitToolArgs(cmd, args)
		if len(selArgs) != 1 {
			return fmt.Errorf("expected one series ID, got %d", len(selArgs))
		}

		id, err := strconv.Atoi(selArgs[0])
		if err != nil {
			return fmt.Errorf("series ID %q is not numeric", selArgs[0])
		}
		span.SetAttributes(attribute.Int("series", id))

		return runApply(ctx, cmd, selector.Criteria{
			SeriesID:        id,
			SeriesVersion:   seriesApplyVersion,
			AllowIncomplete: seriesApplyAllowIncomplete,
		}, toolArgs)
	},
}

func printSeries(w io.Writer, s *types.Series) {
	fmt.Fprintf(w, "ID:        %d\n", s.ID)
	fmt.Fprintf(w, "Name:      %s\n", s.Name)
	fmt.Fprintf(w, "Version:   %d\n", s.Version)
	fmt.Fprintf(w, "Date:      %s\n", s.Date)
	fmt.Fprintf(w, "Submitter: %s\n", personLabel(s.Submitter))
	fmt.Fprintf(w, "Complete:  %t (%d of %d received)\n", s.ReceivedAll, s.Received, s.Total)
	if s.CoverLetter != nil {
		fmt.Fprintf(w, "Cover:     %s\n", s.CoverLetter.Name)
	}
	for _, ref := range s.Patches {
		fmt.Fprintf(w, "Patch:     %d %s\n", ref.ID, ref.Name)
	}
	fmt.Fprintf(w, "Mbox:      %s\n", s.MboxURL)
	if s.WebURL != "" {
		fmt.Fprintf(w, "Web:       %s\n", s.WebURL)
	}
}

func init() {
	rootCmd.AddCommand(seriesCmd)
	seriesCmd.AddCommand(seriesListCmd, seriesShowCmd, seriesDownloadCmd, seriesApplyCmd)

	seriesListCmd.Flags().
		StringVar(&seriesListSubmitter, "submitter", "", "Filter by submitter ID or name")
	seriesListCmd.Flags().
		StringVar(&seriesListSince, "since", "", "Only series updated since this time (RFC 3339 or YYYY-MM-DD)")
	seriesListCmd.Flags().IntVar(&seriesListLimit, "limit", 0, "Maximum records to list")
	seriesListCmd.Flags().IntVar(&seriesListPage, "page", 0, "Page to start at")
	seriesListCmd.Flags().
		StringVar(&seriesListSort, "sort", "", "Server-side sort field, prefix - for descending")

	seriesDownloadCmd.Flags().
		StringVarP(&seriesDownloadOutput, "output", "o", "", "Target path, - for stdout (default: server filename)")

	seriesApplyCmd.Flags().
		IntVar(&seriesApplyVersion, "series-version", 0, "Pin a specific series revision")
	seriesApplyCmd.Flags().
		BoolVar(&seriesApplyAllowIncomplete, "allow-incomplete", false, "Apply even while the server is missing members")
	addApplyFlags(seriesApplyCmd)
}
