package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the gfs-monitor binaries.
type Config struct {
	// BaseURL is the NOMADS production folder holding the daily directories.
	BaseURL string `yaml:"base_url"`
	// Collection is the dataset prefix, e.g. "gfs" in "gfs.20240101/".
	Collection string `yaml:"collection"`
	// ProductArea is the sub-folder of a cycle holding the marker file.
	ProductArea string `yaml:"product_area"`
	// Resolution is the grid tag in product file names, e.g. "0p25".
	Resolution string `yaml:"resolution"`
	// MaxHorizon is the last forecast hour written for a cycle.
	MaxHorizon int `yaml:"max_horizon"`
	// Timeout bounds every listing and completion request.
	Timeout time.Duration `yaml:"timeout"`
	// StateBackend selects the state store: "json" or "sqlite".
	StateBackend string `yaml:"state_backend"`
	// StateFile is the path of the JSON file or SQLite database.
	StateFile string `yaml:"state_file"`
	// ActivityLog is the path of the bounded audit trail.
	ActivityLog string `yaml:"activity_log"`
	// ActivityLogLimit caps the number of audit entries kept.
	ActivityLogLimit int `yaml:"activity_log_limit"`
	// LogLevel is the console log level.
	LogLevel string `yaml:"log_level"`
	// Schedule is the cron expression used by gfs-scheduler.
	Schedule string `yaml:"schedule"`
	// Notifier configures the outbound notification sink.
	Notifier Notifier `yaml:"notifier"`
}

// Notifier holds the settings of the notification sink.
type Notifier struct {
	// Kind selects the sink: "discord", "telegram" or "log".
	Kind string `yaml:"kind"`
	// Timeout bounds a single send.
	Timeout time.Duration `yaml:"timeout"`
	// DiscordToken is the bot token used in the Authorization header.
	DiscordToken string `yaml:"discord_token"`
	// DiscordChannelID is the channel receiving the embeds.
	DiscordChannelID string `yaml:"discord_channel_id"`
	// DiscordAPIURL overrides the Discord REST endpoint.
	DiscordAPIURL string `yaml:"discord_api_url"`
	// TelegramToken is the bot token.
	TelegramToken string `yaml:"telegram_token"`
	// TelegramChatID is the chat receiving the messages.
	TelegramChatID int64 `yaml:"telegram_chat_id"`
	// TelegramAPIURL overrides the Telegram Bot API endpoint.
	TelegramAPIURL string `yaml:"telegram_api_url"`
}

// Supported state backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Supported notifier kinds.
const (
	NotifierDiscord  = "discord"
	NotifierTelegram = "telegram"
	NotifierLog      = "log"
)

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "gfs-monitor-settings.yaml"

	// DefaultStateFilename is the default filename for the JSON state.
	DefaultStateFilename = "status.json"

	// DefaultActivityLogFilename is the default audit trail filename.
	DefaultActivityLogFilename = "activity.log"

	// DefaultActivityLogLimit is the number of audit entries kept.
	DefaultActivityLogLimit = 3000

	// DefaultBaseURL is the NOMADS GFS production folder.
	DefaultBaseURL = "https://nomads.ncep.noaa.gov/pub/data/nccf/com/gfs/prod/"

	// DefaultCollection is the GFS dataset prefix.
	DefaultCollection = "gfs"

	// DefaultProductArea is the atmospheric products folder.
	DefaultProductArea = "atmos"

	// DefaultResolution is the 0.25 degree grid tag.
	DefaultResolution = "0p25"

	// DefaultMaxHorizon is the last forecast hour of a GFS cycle.
	DefaultMaxHorizon = 384

	// DefaultTimeout is the default duration for probe requests.
	DefaultTimeout = 15 * time.Second

	// DefaultNotifierTimeout is the default duration for a notification send.
	DefaultNotifierTimeout = 10 * time.Second

	// DefaultSchedule runs a check every ten minutes.
	DefaultSchedule = "*/10 * * * *"

	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"

	// DefaultFilePermissions is the default file permission for written files.
	DefaultFilePermissions = 0o600
)

// Environment variables overriding the YAML settings.
const (
	EnvBaseURL        = "GFS_BASE_URL"
	EnvStateFile      = "GFS_STATE_FILE"
	EnvStateBackend   = "GFS_STATE_BACKEND"
	EnvActivityLog    = "GFS_ACTIVITY_LOG"
	EnvLogLevel       = "GFS_LOG_LEVEL"
	EnvSchedule       = "GFS_SCHEDULE"
	EnvNotifier       = "GFS_NOTIFIER"
	EnvDiscordToken   = "DISCORD_TOKEN"
	EnvDiscordChannel = "CHANNEL_ID"
	EnvTelegramToken  = "TELEGRAM_TOKEN"
	EnvTelegramChatID = "TELEGRAM_CHAT_ID"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errUnknownBackend is returned for an unsupported state backend.
	errUnknownBackend = errors.New("unknown state backend")
	// errUnknownNotifier is returned for an unsupported notifier kind.
	errUnknownNotifier = errors.New("unknown notifier kind")
	// errMissingCredentials is returned when the selected notifier lacks credentials.
	errMissingCredentials = errors.New("notifier credentials must be provided")
	// errInvalidHorizon is returned for a non-positive forecast horizon.
	errInvalidHorizon = errors.New("max horizon must be positive")
)

// Load reads configuration from the provided path, applies the environment
// (including a .env file in the working directory) and validates the result.
// An empty path means DefaultConfigFilename. The default file may be absent,
// in which case the settings come from the environment only; an explicitly
// named file must exist.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	optional := filepath.Clean(path) == DefaultConfigFilename

	// Existing variables win over .env entries.
	_ = godotenv.Load()

	var cfg Config

	contents, err := os.ReadFile(filepath.Clean(path))

	switch {
	case err == nil:
		if err = yaml.Unmarshal(contents, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	case optional && errors.Is(err, os.ErrNotExist):
		// Environment only.
	default:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err = applyEnvironment(&cfg); err != nil {
		return nil, err
	}

	if err = Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions, the file may hold bot tokens.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults and checks the settings for consistency.
//
//nolint:cyclop // A flat list of defaults reads better than helpers.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	if cfg.ProductArea == "" {
		cfg.ProductArea = DefaultProductArea
	}

	if cfg.Resolution == "" {
		cfg.Resolution = DefaultResolution
	}

	if cfg.MaxHorizon == 0 {
		cfg.MaxHorizon = DefaultMaxHorizon
	}

	if cfg.MaxHorizon < 0 {
		return errInvalidHorizon
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	cfg.StateBackend = strings.ToLower(strings.TrimSpace(cfg.StateBackend))
	switch cfg.StateBackend {
	case "":
		cfg.StateBackend = BackendJSON
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("%q: %w", cfg.StateBackend, errUnknownBackend)
	}

	if cfg.StateFile == "" {
		cfg.StateFile = DefaultStateFilename
	}

	if cfg.ActivityLog == "" {
		cfg.ActivityLog = DefaultActivityLogFilename
	}

	if cfg.ActivityLogLimit <= 0 {
		cfg.ActivityLogLimit = DefaultActivityLogLimit
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}

	return validateNotifier(&cfg.Notifier)
}

// validateNotifier checks that the selected sink has what it needs.
func validateNotifier(n *Notifier) error {
	if n.Timeout <= 0 {
		n.Timeout = DefaultNotifierTimeout
	}

	n.Kind = strings.ToLower(strings.TrimSpace(n.Kind))
	if n.Kind == "" {
		n.Kind = NotifierDiscord
	}

	switch n.Kind {
	case NotifierDiscord:
		if n.DiscordToken == "" || n.DiscordChannelID == "" {
			return fmt.Errorf("%s: %w", n.Kind, errMissingCredentials)
		}

		if n.DiscordAPIURL == "" {
			return nil
		}

		if _, err := url.ParseRequestURI(n.DiscordAPIURL); err != nil {
			return fmt.Errorf("invalid discord API URL: %w", err)
		}
	case NotifierTelegram:
		if n.TelegramToken == "" || n.TelegramChatID == 0 {
			return fmt.Errorf("%s: %w", n.Kind, errMissingCredentials)
		}
	case NotifierLog:
	default:
		return fmt.Errorf("%q: %w", n.Kind, errUnknownNotifier)
	}

	return nil
}

// applyEnvironment overrides settings with non-empty environment variables.
func applyEnvironment(cfg *Config) error {
	overrides := map[string]*string{
		EnvBaseURL:        &cfg.BaseURL,
		EnvStateFile:      &cfg.StateFile,
		EnvStateBackend:   &cfg.StateBackend,
		EnvActivityLog:    &cfg.ActivityLog,
		EnvLogLevel:       &cfg.LogLevel,
		EnvSchedule:       &cfg.Schedule,
		EnvNotifier:       &cfg.Notifier.Kind,
		EnvDiscordToken:   &cfg.Notifier.DiscordToken,
		EnvDiscordChannel: &cfg.Notifier.DiscordChannelID,
		EnvTelegramToken:  &cfg.Notifier.TelegramToken,
	}

	for name, target := range overrides {
		if value, ok := os.LookupEnv(name); ok && value != "" {
			*target = value
		}
	}

	if value := os.Getenv(EnvTelegramChatID); value != "" {
		chatID, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvTelegramChatID, err)
		}

		cfg.Notifier.TelegramChatID = chatID
	}

	return nil
}
