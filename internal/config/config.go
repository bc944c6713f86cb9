package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/patchtrack/git-ptk/internal/gitconfig"
	"github.com/patchtrack/git-ptk/internal/logger"
	"github.com/patchtrack/git-ptk/internal/validator"
)

// Settings is everything the tool needs to talk to a server and run
// applies. It is resolved once by the CLI layer and passed down as a
// value; nothing below this package reads the environment.
type Settings struct {
	Server   string `mapstructure:"server"   validate:"required,url"`
	Project  string `mapstructure:"project"`
	Token    string `mapstructure:"token"`
	Username string `mapstructure:"username" validate:"required_with=Password"`
	Password string `mapstructure:"password"`

	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"required"`
	HTTPRetries    int           `mapstructure:"http_retries"    validate:"min=0"`
	FetchRetries   int           `mapstructure:"fetch_retries"   validate:"min=0"`

	// States is the default state filter for patch listings when the
	// command line does not narrow further.
	States []string `mapstructure:"states"`

	LogLevel int `mapstructure:"log_level"`
}

const (
	EnvPrefix      string = "ptk"
	Server         string = "server"
	Project        string = "project"
	Token          string = "token"
	Username       string = "username"
	Password       string = "password"
	RequestTimeout string = "request_timeout"
	HTTPRetries    string = "http_retries"
	FetchRetries   string = "fetch_retries"
	States         string = "states"
	LogLevel       string = "log_level"
)

// Load resolves settings for a run. Precedence, highest first: overrides
// (command-line flags), PTK_* environment, a gitptk.yaml config file next
// to dir / in the working directory / under ~/.config/git-ptk, and
// finally git config ptk.* keys.
func Load(ctx context.Context, dir string, overrides map[string]any) (*Settings, error) {
	logger.Logger.DebugContext(ctx, "loading settings", "dir", dir)

	v := viper.New()

	v.SetConfigName("gitptk")
	v.SetConfigType("yaml")
	if dir != "" {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "git-ptk"))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// workaround for https://github.com/spf13/viper/issues/761
	// bind the credential vars explicitly so env-only values unmarshal
	for _, key := range []string{Token, Username, Password} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	// git config is the floor of the chain, so its values go in as
	// defaults.
	git, err := gitconfig.Load(ctx, dir)
	if err != nil {
		logger.Logger.WarnContext(ctx, "ignoring unreadable git config", "error", err)
		git = &gitconfig.Values{}
	}
	v.SetDefault(Server, git.Server)
	v.SetDefault(Project, git.Project)
	v.SetDefault(Token, git.Token)
	v.SetDefault(Username, git.Username)
	v.SetDefault(Password, git.Password)

	v.SetDefault(RequestTimeout, 30*time.Second)
	v.SetDefault(HTTPRetries, 0)
	v.SetDefault(FetchRetries, 0)
	v.SetDefault(States, []string{})
	v.SetDefault(LogLevel, int(slog.LevelInfo))

	if err := v.ReadInConfig(); err != nil {
		// ignore config file not found to allow env/git-only setups
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}

	valid := validator.Create()
	if err := valid.Validate(&settings); err != nil {
		return nil, err
	}

	return &settings, nil
}
