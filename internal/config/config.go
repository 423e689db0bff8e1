package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Environment variable names recognized by the tool. The TIMETRACKING and
// NTFY names predate this implementation and are kept for compatibility
// with existing .ttclock.env files.
const (
	EnvPortalURL = "TIMETRACKING_URL"
	EnvUsername  = "TIMETRACKING_USERNAME"
	EnvPassword  = "TIMETRACKING_PASSWORD"

	EnvNtfyTopic  = "NTFY_TOPIC"
	EnvNtfyServer = "NTFY_SERVER"

	EnvStateFile     = "TTCLOCK_STATE_FILE"
	EnvLockFile      = "TTCLOCK_LOCK_FILE"
	EnvLogDir        = "TTCLOCK_LOG_DIR"
	EnvLogMaxBytes   = "TTCLOCK_LOG_MAX_BYTES"
	EnvWorkDir       = "TTCLOCK_WORKDIR"
	EnvTimeout       = "TTCLOCK_TIMEOUT"
	EnvScreenshotDir = "TTCLOCK_SCREENSHOT_DIR"
	EnvHeadless      = "TTCLOCK_HEADLESS"
)

const (
	// EnvFileName is the well-known environment file name searched in the
	// home and working directories.
	EnvFileName = ".ttclock.env"

	// DefaultNtfyServer is the push endpoint used when NTFY_SERVER is unset.
	DefaultNtfyServer = "https://ntfy.sh"

	// DefaultTimeout bounds each portal navigation or element wait.
	DefaultTimeout = 30 * time.Second

	// DefaultLogMaxBytes rotates the log file past one megabyte.
	DefaultLogMaxBytes = 1 << 20
)

var (
	// ErrEnvFileMissing is returned when no environment file can be found.
	ErrEnvFileMissing = errors.New("environment file not found")
	// ErrEnvFileInvalid is returned when an environment file exists but cannot be read or parsed.
	ErrEnvFileInvalid = errors.New("environment file invalid")
	// ErrMissingCredentials is returned when a required portal variable is absent.
	ErrMissingCredentials = errors.New("missing required environment variables")
	// ErrInvalidValue is returned when a variable is present but malformed.
	ErrInvalidValue = errors.New("invalid environment value")
)

// Config holds everything one invocation needs: portal credentials,
// notification settings and local file locations.
type Config struct {
	// PortalURL is the time-tracking portal clock-in page.
	PortalURL string
	// Username and Password authenticate the portal's sign-on flow.
	Username string
	Password string

	// NtfyTopic enables push notifications when non-empty.
	NtfyTopic string
	// NtfyServer is the push endpoint base URL.
	NtfyServer string

	// StateFile persists the last observed clock status between runs.
	StateFile string
	// LockFile serializes overlapping invocations on the same host.
	LockFile string
	// LogDir receives the rotating invocation log.
	LogDir string
	// LogMaxBytes rotates the log file past this size.
	LogMaxBytes int64
	// WorkDir, when set, is switched to before anything else runs.
	WorkDir string
	// Timeout bounds each portal navigation or element wait.
	Timeout time.Duration
	// ScreenshotDir receives failure screenshots. Empty means the working directory.
	ScreenshotDir string
	// Headless controls whether the browser runs without a display.
	Headless bool

	// LoadedFrom records which environment file supplied the values.
	LoadedFrom string
}

// Load resolves the environment file chain, reads it and assembles a
// validated Config. Values in the file override the process environment.
func Load(explicitPath string) (*Config, error) {
	path, err := resolveEnvFile(explicitPath)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEnvFileInvalid, path, err)
	}

	get := func(key string) string {
		if v.IsSet(key) {
			return v.GetString(key)
		}

		return os.Getenv(key)
	}

	cfg := &Config{
		PortalURL:  get(EnvPortalURL),
		Username:   get(EnvUsername),
		Password:   get(EnvPassword),
		NtfyTopic:  get(EnvNtfyTopic),
		NtfyServer: get(EnvNtfyServer),

		StateFile:     get(EnvStateFile),
		LockFile:      get(EnvLockFile),
		LogDir:        get(EnvLogDir),
		WorkDir:       get(EnvWorkDir),
		ScreenshotDir: get(EnvScreenshotDir),

		LoadedFrom: path,
	}

	if cfg.LogMaxBytes, err = parseByteSize(get(EnvLogMaxBytes)); err != nil {
		return nil, err
	}

	if cfg.Timeout, err = parseTimeout(get(EnvTimeout)); err != nil {
		return nil, err
	}

	if cfg.Headless, err = parseHeadless(get(EnvHeadless)); err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveEnvFile picks the environment file per the documented chain.
// An explicit path must exist; the well-known locations are optional but
// at least one of them must be present.
func resolveEnvFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("%w: %s", ErrEnvFileMissing, explicitPath)
		}

		return explicitPath, nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, EnvFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	if _, err := os.Stat(EnvFileName); err == nil {
		return EnvFileName, nil
	}

	return "", fmt.Errorf("%w: no %s in home or working directory", ErrEnvFileMissing, EnvFileName)
}

// Validate checks required portal variables and URL formats.
func Validate(cfg *Config) error {
	if cfg.PortalURL == "" || cfg.Username == "" || cfg.Password == "" {
		return fmt.Errorf("%w: %s, %s, %s", ErrMissingCredentials, EnvPortalURL, EnvUsername, EnvPassword)
	}

	if _, err := url.ParseRequestURI(cfg.PortalURL); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidValue, EnvPortalURL, err)
	}

	if _, err := url.ParseRequestURI(cfg.NtfyServer); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidValue, EnvNtfyServer, err)
	}

	return nil
}

// applyDefaults fills unset locations with their home-directory defaults.
func applyDefaults(cfg *Config) {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fall back to relative paths when home cannot be determined.
		home = "."
	}

	if cfg.NtfyServer == "" {
		cfg.NtfyServer = DefaultNtfyServer
	}

	if cfg.StateFile == "" {
		cfg.StateFile = filepath.Join(home, ".ttclock.state.yaml")
	}

	if cfg.LockFile == "" {
		cfg.LockFile = filepath.Join(home, ".ttclock.lock")
	}

	if cfg.LogDir == "" {
		cfg.LogDir = filepath.Join(home, ".ttclock.logs")
	}
}

// LogFile returns the active log file path inside the log directory.
func (c *Config) LogFile() string {
	return filepath.Join(c.LogDir, "ttclock.log")
}

// NotificationsConfigured reports whether a push topic is available.
func (c *Config) NotificationsConfigured() bool {
	return c.NtfyTopic != ""
}

func parseByteSize(s string) (int64, error) {
	if s == "" {
		return DefaultLogMaxBytes, nil
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidValue, EnvLogMaxBytes, s)
	}

	return n, nil
}

// parseTimeout accepts a Go duration ("45s") or bare seconds ("45").
func parseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return DefaultTimeout, nil
	}

	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d, nil
	}

	if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second, nil
	}

	return 0, fmt.Errorf("%w: %s=%q", ErrInvalidValue, EnvTimeout, s)
}

func parseHeadless(s string) (bool, error) {
	if s == "" {
		return true, nil
	}

	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q", ErrInvalidValue, EnvHeadless, s)
	}

	return b, nil
}
