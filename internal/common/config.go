package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	plog "github.com/phuslu/log"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/guvitest/internal/browser"
)

// Config represents the suite configuration
type Config struct {
	Site        SiteConfig        `toml:"site"`
	Browser     BrowserConfig     `toml:"browser"`
	Wait        WaitConfig        `toml:"wait"`
	Credentials CredentialsConfig `toml:"credentials"`
	Logging     LoggingConfig     `toml:"logging"`
	Output      OutputConfig      `toml:"output"`
	Schedule    ScheduleConfig    `toml:"schedule"`
}

// SiteConfig holds the URLs and fixed text the scenarios check against
type SiteConfig struct {
	HomeURL       string `toml:"home_url" validate:"required,url"`
	SignInURL     string `toml:"sign_in_url" validate:"required,url"`
	RegisterURL   string `toml:"register_url" validate:"required,url"`
	ExpectedTitle string `toml:"expected_title" validate:"required"`
	ExpectedError string `toml:"expected_error" validate:"required"`
}

type BrowserConfig struct {
	Headless       bool     `toml:"headless"`
	NoSandbox      bool     `toml:"no_sandbox"`
	DisableGPU     bool     `toml:"disable_gpu"`
	WindowWidth    int      `toml:"window_width" validate:"gte=0"`
	WindowHeight   int      `toml:"window_height" validate:"gte=0"`
	UserAgent      string   `toml:"user_agent"`
	ExecPath       string   `toml:"exec_path"`       // Chrome binary; empty uses the system default
	ImplicitWait   Duration `toml:"implicit_wait"`   // How long element lookups keep trying
	StartupTimeout Duration `toml:"startup_timeout"` // Max time for the browser process to come up
}

// WaitConfig controls the bounded wait for the login error banner
type WaitConfig struct {
	ErrorTimeout Duration `toml:"error_timeout" validate:"gt=0"`
	PollInterval Duration `toml:"poll_interval" validate:"gt=0"`
}

// CredentialsConfig holds the accounts used by the login scenarios
type CredentialsConfig struct {
	ValidEmail      string `toml:"valid_email"`
	ValidPassword   string `toml:"valid_password"`
	InvalidEmail    string `toml:"invalid_email"`
	InvalidPassword string `toml:"invalid_password"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // default "15:04:05"
}

type OutputConfig struct {
	ResultsDir  string `toml:"results_dir" validate:"required"`
	Screenshots bool   `toml:"screenshots"` // Capture a screenshot when a scenario fails
	PageDumps   bool   `toml:"page_dumps"`  // Save page HTML and markdown when a scenario fails
}

// ScheduleConfig enables monitor mode; an empty Cron runs the suite once
type ScheduleConfig struct {
	Cron string `toml:"cron"`
}

// NewDefaultConfig returns the configuration used when no file overrides it
func NewDefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			HomeURL:       "https://www.guvi.in/",
			SignInURL:     "https://www.guvi.in/sign-in/",
			RegisterURL:   "https://www.guvi.in/register/",
			ExpectedTitle: "GUVI | Learn to code in your native language",
			ExpectedError: "Incorrect Email or Password",
		},
		Browser: BrowserConfig{
			Headless:       true,
			NoSandbox:      false,
			DisableGPU:     true,
			WindowWidth:    1920,
			WindowHeight:   1080,
			ImplicitWait:   Duration(5 * time.Second),
			StartupTimeout: Duration(30 * time.Second),
		},
		Wait: WaitConfig{
			ErrorTimeout: Duration(10 * time.Second),
			PollInterval: Duration(250 * time.Millisecond),
		},
		Credentials: CredentialsConfig{
			InvalidEmail:    "invalidemail@example.com",
			InvalidPassword: "invalidpassword",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		Output: OutputConfig{
			ResultsDir:  "./results",
			Screenshots: true,
			PageDumps:   true,
		},
	}
}

// LoadFromFiles loads defaults, then each file in order, then {NAME} references from kvMap,
// then environment overrides. Later files override earlier ones. A nil kvMap skips replacement.
func LoadFromFiles(kvMap map[string]string, paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	if kvMap != nil {
		logger := arbor.NewLogger()
		if err := ReplaceInStruct(config, kvMap, logger); err != nil {
			logger.Warn().Err(err).Msg("Failed to replace key references in config")
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

func applyEnvOverrides(config *Config) {
	// Site
	if v := os.Getenv("GUVITEST_HOME_URL"); v != "" {
		config.Site.HomeURL = v
	}
	if v := os.Getenv("GUVITEST_SIGN_IN_URL"); v != "" {
		config.Site.SignInURL = v
	}
	if v := os.Getenv("GUVITEST_REGISTER_URL"); v != "" {
		config.Site.RegisterURL = v
	}

	// Browser
	if v := os.Getenv("GUVITEST_HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Browser.Headless = b
		}
	}
	if v := os.Getenv("GUVITEST_NO_SANDBOX"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Browser.NoSandbox = b
		}
	}
	if v := os.Getenv("GUVITEST_CHROME_PATH"); v != "" {
		config.Browser.ExecPath = v
	}
	if v := os.Getenv("GUVITEST_IMPLICIT_WAIT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Browser.ImplicitWait = Duration(d)
		}
	}

	// Wait
	if v := os.Getenv("GUVITEST_ERROR_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Wait.ErrorTimeout = Duration(d)
		}
	}

	// Credentials are usually only supplied through the environment
	if v := os.Getenv("GUVITEST_VALID_EMAIL"); v != "" {
		config.Credentials.ValidEmail = v
	}
	if v := os.Getenv("GUVITEST_VALID_PASSWORD"); v != "" {
		config.Credentials.ValidPassword = v
	}

	// Logging
	if v := os.Getenv("GUVITEST_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("GUVITEST_LOG_OUTPUT"); v != "" {
		outputs := []string{}
		for _, o := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Output
	if v := os.Getenv("GUVITEST_RESULTS_DIR"); v != "" {
		config.Output.ResultsDir = v
	}

	// Schedule
	if v := os.Getenv("GUVITEST_SCHEDULE"); v != "" {
		config.Schedule.Cron = v
	}
}

// ApplyFlagOverrides applies command-line flags (highest priority).
// A nil headless leaves the configured value alone.
func ApplyFlagOverrides(config *Config, headless *bool, resultsDir string) {
	if headless != nil {
		config.Browser.Headless = *headless
	}
	if resultsDir != "" {
		config.Output.ResultsDir = resultsDir
	}
}

// Validate checks the configuration for values the suite cannot run with
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if lvl := plog.ParseLevel(c.Logging.Level); c.Logging.Level != "" && (lvl < plog.TraceLevel || lvl > plog.PanicLevel) {
		return fmt.Errorf("invalid configuration: unknown log level %q", c.Logging.Level)
	}

	for _, output := range c.Logging.Output {
		switch output {
		case "stdout", "console", "file":
		default:
			return fmt.Errorf("invalid configuration: unknown log output %q", output)
		}
	}

	return nil
}

// ChromeConfig maps the browser section onto launcher options
func (c *Config) ChromeConfig() browser.ChromeConfig {
	return browser.ChromeConfig{
		Headless:       c.Browser.Headless,
		NoSandbox:      c.Browser.NoSandbox,
		DisableGPU:     c.Browser.DisableGPU,
		WindowWidth:    c.Browser.WindowWidth,
		WindowHeight:   c.Browser.WindowHeight,
		UserAgent:      c.Browser.UserAgent,
		ExecPath:       c.Browser.ExecPath,
		ImplicitWait:   c.Browser.ImplicitWait.Std(),
		StartupTimeout: c.Browser.StartupTimeout.Std(),
	}
}
