package cmds

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/patchtrack/git-ptk/internal/client"
	"github.com/patchtrack/git-ptk/internal/selector"
	"github.com/patchtrack/git-ptk/internal/types"
)

var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Curate and apply bundles of patches",
	Long: `Bundles are owner-curated ordered sets of patches. Commands taking a
<bundle> argument accept a numeric ID or a bundle name that is unique
within the project.`,
}

var (
	bundleListLimit int
	bundleListPage  int
	bundleListSort  string
)

var bundleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bundles",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, span := tracer.Start(cmd.Context(), "bundleListCmd")
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
		if bundleListLimit > 0 {
			filters.PerPage(bundleListLimit)
		}
		if bundleListPage > 0 {
			filters.Page(bundleListPage)
		}
		if bundleListSort != "" {
			filters.Order(bundleListSort)
		}

		it, err := c.ListBundles(ctx, filters)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid listing")
			return err
		}

		if jsonFlag {
			bundles := []types.Bundle{}
			if err := drainLimit(ctx, it, bundleListLimit, func(b types.Bundle) {
				bundles = append(bundles, b)
			}); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "listing failed")
				return err
			}

			span.RecordError(nil)
			span.SetStatus(codes.Ok, "listed bundles")
			return printJSON(bundles)
		}

		if err := drainLimit(ctx, it, bundleListLimit, func(b types.Bundle) {
			fmt.Fprintf(os.Stdout, "%-8d %-16s %s\n", b.ID, b.Owner.Username, b.Name)
		}); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "listing failed")
			return err
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "listed bundles")
		return nil
	},
}

var bundleShowCmd = &cobra.Command{
	Use:   "show <bundle>",
	Short: "Show one bundle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, span := tracer.Start(cmd.Context(), "bundleShowCmd")
		defer span.End()
		span.SetAttributes(attribute.String("bundle", args[0]))

		settings, err := loadSettings(ctx)
		if err != nil {
			return err
		}
		c, err := newClient(settings)
		if err != nil {
			return err
		}

		bundle, err := selector.New(c).Bundle(ctx, args[0])
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to resolve bundle")
			return err
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "fetched bundle")
		if jsonFlag {
			return printJSON(bundle)
		}
		printBundle(os.Stdout, bundle)
		return nil
	},
}

var bundleDownloadOutput string

var bundleDownloadCmd = &cobra.Command{
	Use:   "download <bundle>",
	Short: "Download a whole bundle as one mbox",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, span := tracer.Start(cmd.Context(), "bundleDownloadCmd")
		defer span.End()
		span.SetAttributes(attribute.String("bundle", args[0]))

		settings, err := loadSettings(ctx)
		if err != nil {
			return err
		}
		c, err := newClient(settings)
		if err != nil {
			return err
		}

		bundle, err := selector.New(c).Bundle(ctx, args[0])
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to resolve bundle")
			return err
		}
		if bundle.MboxURL == "" {
			err := fmt.Errorf("bundle %d has no content URL", bundle.ID)
			span.RecordError(err)
			span.SetStatus(codes.Error, "no content URL")
			return err
		}

		body, filename, err := c.Download(ctx, bundle.MboxURL)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to download content")
			return err
		}
		if filename == "" {
			filename = fmt.Sprintf("bundle-%d.mbox", bundle.ID)
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "downloaded bundle")
		return writeContent(body, filename, bundleDownloadOutput)
	},
}

var bundleApplyCmd = &cobra.Command{
	Use:   "apply <bundle> [-- <git am args>]",
	Short: "Apply all patches of a bundle in curated order",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, span := tracer.Start(cmd.Context(), "bundleApplyCmd")
		defer span.End()

		selArgs, toolArgs := splitToolArgs(cmd, args)
		if len(selArgs) != 1 {
			return fmt.Errorf("expected one bundle, got %d arguments", len(selArgs))
		}
		span.SetAttributes(attribute.String("bundle", selArgs[0]))

		return runApply(ctx, cmd, selector.Criteria{Bundle: selArgs[0]}, toolArgs)
	},
}

var bundleCreatePublic bool

var bundleCreateCmd = &cobra.Command{
	Use:   "create <name> <patch-id>...",
	Short: "Create a bundle from patches",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, span := tracer.Start(cmd.Context(), "bundleCreateCmd")
		defer span.End()
		span.SetAttributes(attribute.String("name", args[0]))

		ids, err := parseIDs(args[1:])
		if err != nil {
			return err
		}

		settings, err := loadSettings(ctx)
		if err != nil {
			return err
		}
		c, err := newClient(settings)
		if err != nil {
			return err
		}

		bundle, err := c.CreateBundle(ctx, args[0], ids, bundleCreatePublic)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to create bundle")
			return err
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "created bundle")
		if jsonFlag {
			return printJSON(bundle)
		}
		printBundle(os.Stdout, bundle)
		return nil
	},
}

var (
	bundleUpdateName   string
	bundleUpdatePublic bool
)

var bundleUpdateCmd = &cobra.Command{
	Use:   "update <bundle>",
	Short: "Rename a bundle or change its visibility",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, span := tracer.Start(cmd.Context(), "bundleUpdateCmd")
		defer span.End()
		span.SetAttributes(attribute.String("bundle", args[0]))

		settings, err := loadSettings(ctx)
		if err != nil {
			return err
		}
		c, err := newClient(settings)
		if err != nil {
			return err
		}

		bundle, err := selector.New(c).Bundle(ctx, args[0])
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to resolve bundle")
			return err
		}

		update := types.BundleUpdate{}
		touched := false
		if cmd.Flags().Changed("name") {
			update.Name = types.NewFromVal(bundleUpdateName)
			touched = true
		}
		if cmd.Flags().Changed("public") {
			update.Public = types.NewFromVal(bundleUpdatePublic)
			touched = true
		}
		if !touched {
			return fmt.Errorf("nothing to update, give --name or --public")
		}

		bundle, err = c.UpdateBundle(ctx, bundle.ID, update)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to update bundle")
			return err
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "updated bundle")
		if jsonFlag {
			return printJSON(bundle)
		}
		printBundle(os.Stdout, bundle)
		return nil
	},
}

var bundleDeleteCmd = &cobra.Command{
	Use:   "delete <bundle>",
	Short: "Delete a bundle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, span := tracer.Start(cmd.Context(), "bundleDeleteCmd")
		defer span.End()
		span.SetAttributes(attribute.String("bundle", args[0]))

		settings, err := loadSettings(ctx)
		if err != nil {
			return err
		}
		c, err := newClient(settings)
		if err != nil {
			return err
		}

		bundle, err := selector.New(c).Bundle(ctx, args[0])
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to resolve bundle")
			return err
		}

		if err := c.DeleteBundle(ctx, bundle.ID); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to delete bundle")
			return err
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "deleted bundle")
		fmt.Fprintf(os.Stdout, "deleted bundle %d (%s)\n", bundle.ID, bundle.Name)
		return nil
	},
}

var bundleAddCmd = &cobra.Command{
	Use:   "add <bundle> <patch-id>...",
	Short: "Add patches to a bundle",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, span := tracer.Start(cmd.Context(), "bundleAddCmd")
		defer span.End()
		span.SetAttributes(attribute.String("bundle", args[0]))

		ids, err := parseIDs(args[1:])
		if err != nil {
			return err
		}

		settings, err := loadSettings(ctx)
		if err != nil {
			return err
		}
		c, err := newClient(settings)
		if err != nil {
			return err
		}

		bundle, err := selector.New(c).Bundle(ctx, args[0])
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to resolve bundle")
			return err
		}

		bundle, err = c.AddToBundle(ctx, bundle.ID, ids)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to add patches")
			return err
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "added patches")
		if jsonFlag {
			return printJSON(bundle)
		}
		printBundle(os.Stdout, bundle)
		return nil
	},
}

var bundleRemoveCmd = &cobra.Command{
	Use:   "remove <bundle> <patch-id>...",
	Short: "Remove patches from a bundle",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, span := tracer.Start(cmd.Context(), "bundleRemoveCmd")
		defer span.End()
		span.SetAttributes(attribute.String("bundle", args[0]))

		ids, err := parseIDs(args[1:])
		if err != nil {
			return err
		}

		settings, err := loadSettings(ctx)
		if err != nil {
			return err
		}
		c, err := newClient(settings)
		if err != nil {
			return err
		}

		bundle, err := selector.New(c).Bundle(ctx, args[0])
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to resolve bundle")
			return err
		}

		bundle, err = c.RemoveFromBundle(ctx, bundle.ID, ids)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to remove patches")
			return err
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "removed patches")
		if jsonFlag {
			return printJSON(bundle)
		}
		printBundle(os.Stdout, bundle)
		return nil
	},
}

func printBundle(w io.Writer, b *types.Bundle) {
	fmt.Fprintf(w, "ID:        %d\n", b.ID)
	fmt.Fprintf(w, "Name:      %s\n", b.Name)
	fmt.Fprintf(w, "Owner:     %s\n", b.Owner.Username)
	fmt.Fprintf(w, "Public:    %t\n", b.Public)
	for _, ref := range b.Patches {
		fmt.Fprintf(w, "Patch:     %d %s\n", ref.ID, ref.Name)
	}
	fmt.Fprintf(w, "Mbox:      %s\n", b.MboxURL)
	if b.WebURL != "" {
		fmt.Fprintf(w, "Web:       %s\n", b.WebURL)
	}
}

func init() {
	rootCmd.AddCommand(bundleCmd)
	bundleCmd.AddCommand(
		bundleListCmd,
		bundleShowCmd,
		bundleDownloadCmd,
		bundleApplyCmd,
		bundleCreateCmd,
		bundleUpdateCmd,
		bundleDeleteCmd,
		bundleAddCmd,
		bundleRemoveCmd,
	)

	bundleListCmd.Flags().IntVar(&bundleListLimit, "limit", 0, "Maximum records to list")
	bundleListCmd.Flags().IntVar(&bundleListPage, "page", 0, "Page to start at")
	bundleListCmd.Flags().
		StringVar(&bundleListSort, "sort", "", "Server-side sort field, prefix - for descending")

	bundleDownloadCmd.Flags().
		StringVarP(&bundleDownloadOutput, "output", "o", "", "Target path, - for stdout (default: server filename)")

	addApplyFlags(bundleApplyCmd)

	bundleCreateCmd.Flags().
		BoolVar(&bundleCreatePublic, "public", false, "Make the bundle visible to everyone")

	bundleUpdateCmd.Flags().StringVar(&bundleUpdateName, "name", "", "New name")
	bundleUpdateCmd.Flags().BoolVar(&bundleUpdatePublic, "public", false, "Visibility")
}
