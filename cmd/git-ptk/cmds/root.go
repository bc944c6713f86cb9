package cmds

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/patchtrack/git-ptk/internal/client"
	"github.com/patchtrack/git-ptk/internal/config"
	"github.com/patchtrack/git-ptk/internal/logger"
	"github.com/patchtrack/git-ptk/internal/transport"
)

var tracer = otel.Tracer("github.com/patchtrack/git-ptk/cmd/git-ptk/cmds")

// version is stamped by the release build, dev builds report the default.
var version = "dev"

var (
	serverFlag      string
	projectFlag     string
	tokenFlag       string
	usernameFlag    string
	passwordFlag    string
	debugFlag       bool
	timeoutFlag     time.Duration
	httpRetriesFlag int
	jsonFlag        bool
)

var rootCmd = &cobra.Command{
	Use:   "git-ptk",
	Short: "Git integration for the Patchtrack patch tracking service",
	Long: `git-ptk talks to a Patchtrack server from inside a git working copy:
list and inspect tracked patches, download their mbox content, and apply
patches, series or bundles onto the current branch.

Connection settings resolve from flags, PTK_* environment variables, a
gitptk.yaml config file and git config ptk.* keys, in that order.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// Raise the level before settings resolve so resolution itself is
		// visible under --debug.
		if debugFlag {
			logger.LogLevel.Set(slog.LevelDebug)
		}
	},
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "Patchtrack server URL")
	rootCmd.PersistentFlags().
		StringVar(&projectFlag, "project", "", "Project slug to scope listings to (* for all)")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "API token")
	rootCmd.PersistentFlags().StringVar(&usernameFlag, "username", "", "Basic auth username")
	rootCmd.PersistentFlags().StringVar(&passwordFlag, "password", "", "Basic auth password")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 0, "Per-request timeout")
	rootCmd.PersistentFlags().
		IntVar(&httpRetriesFlag, "http-retries", 0, "Retries for failed API requests")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Emit JSON instead of text")
}

// flagOverrides maps only the flags the user actually set onto settings
// keys, so an unset flag never masks env, file or git config values.
func flagOverrides() map[string]any {
	overrides := map[string]any{}

	flags := rootCmd.PersistentFlags()
	if flags.Changed("server") {
		overrides[config.Server] = serverFlag
	}
	if flags.Changed("project") {
		overrides[config.Project] = projectFlag
	}
	if flags.Changed("token") {
		overrides[config.Token] = tokenFlag
	}
	if flags.Changed("username") {
		overrides[config.Username] = usernameFlag
	}
	if flags.Changed("password") {
		overrides[config.Password] = passwordFlag
	}
	if flags.Changed("timeout") {
		overrides[config.RequestTimeout] = timeoutFlag
	}
	if flags.Changed("http-retries") {
		overrides[config.HTTPRetries] = httpRetriesFlag
	}
	if debugFlag {
		overrides[config.LogLevel] = int(slog.LevelDebug)
	}

	return overrides
}

func loadSettings(ctx context.Context) (*config.Settings, error) {
	settings, err := config.Load(ctx, "", flagOverrides())
	if err != nil {
		return nil, err
	}

	logger.LogLevel.Set(slog.Level(settings.LogLevel))
	return settings, nil
}

// newTransport builds the API transport. Retry policy and the request
// timeout live on the HTTP client; the transport itself never retries.
func newTransport(settings *config.Settings) (*transport.Transport, error) {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = settings.HTTPRetries
	// Request logging comes from the transport, the retry loop stays quiet.
	httpClient.Logger = nil

	std := httpClient.StandardClient()
	std.Timeout = settings.RequestTimeout

	return transport.New(std, transport.Config{
		Server:    settings.Server,
		Token:     settings.Token,
		Username:  settings.Username,
		Password:  settings.Password,
		UserAgent: "git-ptk/" + version,
	})
}

func newClient(settings *config.Settings) (*client.Client, error) {
	t, err := newTransport(settings)
	if err != nil {
		return nil, err
	}

	return client.New(t, settings.Project), nil
}

func printJSON(v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	fmt.Fprintln(os.Stdout, string(encoded))
	return nil
}

// drainLimit exhausts an iterator, stopping early once limit records were
// seen. Zero means no limit.
func drainLimit[T any](ctx context.Context, it *client.Iter[T], limit int, visit func(T)) error {
	count := 0
	for it.Next(ctx) {
		visit(it.Record())
		count++
		if limit > 0 && count >= limit {
			it.Stop()
			break
		}
	}

	return it.Err()
}

// parseTime accepts RFC 3339 or a plain date.
func parseTime(value string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, nil
	}

	ts, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("time %q is not RFC 3339 or YYYY-MM-DD", value)
	}

	return ts, nil
}

// writeContent lands a content stream at dest. Empty dest takes the
// suggested name in the working directory, "-" streams to stdout.
func writeContent(body io.ReadCloser, suggested, dest string) error {
	defer body.Close()

	if dest == "-" {
		_, err := io.Copy(os.Stdout, body)
		return err
	}

	if dest == "" {
		dest = suggested
	}
	if dest == "" {
		return fmt.Errorf("no target filename, use --output")
	}

	file, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if _, err := io.Copy(file, body); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}

	fmt.Fprintln(os.Stdout, dest)
	return nil
}
