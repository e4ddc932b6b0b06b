package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, "https://www.guvi.in/", config.Site.HomeURL)
	assert.Equal(t, "https://www.guvi.in/sign-in/", config.Site.SignInURL)
	assert.Equal(t, "https://www.guvi.in/register/", config.Site.RegisterURL)
	assert.Equal(t, "Incorrect Email or Password", config.Site.ExpectedError)
	assert.True(t, config.Browser.Headless)
	assert.Equal(t, 10*time.Second, config.Wait.ErrorTimeout.Std())
	assert.Equal(t, "invalidemail@example.com", config.Credentials.InvalidEmail)
	assert.Equal(t, "invalidpassword", config.Credentials.InvalidPassword)
	assert.Empty(t, config.Schedule.Cron)
	assert.NoError(t, config.Validate())
}

func TestLoadFromFiles_NoFiles(t *testing.T) {
	config, err := LoadFromFiles(nil)
	require.NoError(t, err)
	assert.Equal(t, NewDefaultConfig().Site, config.Site)
}

func TestLoadFromFiles_LaterFilesOverride(t *testing.T) {
	base := writeConfigFile(t, "base.toml", `
[browser]
headless = false
implicit_wait = "2s"

[wait]
error_timeout = "4s"

[logging]
level = "debug"
`)
	override := writeConfigFile(t, "override.toml", `
[browser]
headless = true

[output]
results_dir = "/tmp/guvi-results"
`)

	config, err := LoadFromFiles(nil, base, "", override)
	require.NoError(t, err)

	assert.True(t, config.Browser.Headless)
	assert.Equal(t, 2*time.Second, config.Browser.ImplicitWait.Std())
	assert.Equal(t, 4*time.Second, config.Wait.ErrorTimeout.Std())
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, "/tmp/guvi-results", config.Output.ResultsDir)
	// Untouched sections keep defaults
	assert.Equal(t, "https://www.guvi.in/", config.Site.HomeURL)
}

func TestLoadFromFiles_DeploymentConfig(t *testing.T) {
	path := filepath.Join("..", "..", "deployments", "local", "guvitest.toml")

	config, err := LoadFromFiles(map[string]string{
		"GUVI_EMAIL":    "qa@example.com",
		"GUVI_PASSWORD": "s3cret",
	}, path)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, config.Browser.ImplicitWait.Std())
	assert.Equal(t, 30*time.Second, config.Browser.StartupTimeout.Std())
	assert.Equal(t, 10*time.Second, config.Wait.ErrorTimeout.Std())
	assert.Equal(t, 250*time.Millisecond, config.Wait.PollInterval.Std())
	assert.Equal(t, "qa@example.com", config.Credentials.ValidEmail)
	assert.Equal(t, []string{"stdout", "file"}, config.Logging.Output)
	assert.NoError(t, config.Validate())
}

func TestLoadFromFiles_InvalidDuration(t *testing.T) {
	path := writeConfigFile(t, "bad-wait.toml", `
[wait]
error_timeout = "ten seconds"
`)
	_, err := LoadFromFiles(nil, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestDuration_Text(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Std())

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))

	assert.Error(t, d.UnmarshalText([]byte("30")))
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	_, err := LoadFromFiles(nil, filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadFromFiles_InvalidToml(t *testing.T) {
	path := writeConfigFile(t, "bad.toml", "[browser\nheadless = ")
	_, err := LoadFromFiles(nil, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadFromFiles_ResolvesKeyReferences(t *testing.T) {
	path := writeConfigFile(t, "creds.toml", `
[credentials]
valid_email = "{GUVI_EMAIL}"
valid_password = "{GUVI_PASSWORD}"
`)

	config, err := LoadFromFiles(map[string]string{
		"GUVI_EMAIL":    "qa@example.com",
		"GUVI_PASSWORD": "s3cret",
	}, path)
	require.NoError(t, err)

	assert.Equal(t, "qa@example.com", config.Credentials.ValidEmail)
	assert.Equal(t, "s3cret", config.Credentials.ValidPassword)
}

func TestLoadFromFiles_EnvOverridesFiles(t *testing.T) {
	path := writeConfigFile(t, "file.toml", `
[site]
home_url = "https://file.example.com/"

[browser]
headless = true
`)

	t.Setenv("GUVITEST_HOME_URL", "https://env.example.com/")
	t.Setenv("GUVITEST_HEADLESS", "false")
	t.Setenv("GUVITEST_ERROR_TIMEOUT", "3s")
	t.Setenv("GUVITEST_VALID_EMAIL", "env@example.com")
	t.Setenv("GUVITEST_LOG_OUTPUT", "stdout, file")
	t.Setenv("GUVITEST_SCHEDULE", "0 */5 * * * *")

	config, err := LoadFromFiles(nil, path)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com/", config.Site.HomeURL)
	assert.False(t, config.Browser.Headless)
	assert.Equal(t, 3*time.Second, config.Wait.ErrorTimeout.Std())
	assert.Equal(t, "env@example.com", config.Credentials.ValidEmail)
	assert.Equal(t, []string{"stdout", "file"}, config.Logging.Output)
	assert.Equal(t, "0 */5 * * * *", config.Schedule.Cron)
}

func TestLoadFromFiles_IgnoresMalformedEnv(t *testing.T) {
	t.Setenv("GUVITEST_HEADLESS", "sometimes")
	t.Setenv("GUVITEST_IMPLICIT_WAIT", "soon")

	config, err := LoadFromFiles(nil)
	require.NoError(t, err)

	assert.True(t, config.Browser.Headless)
	assert.Equal(t, 5*time.Second, config.Browser.ImplicitWait.Std())
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()

	ApplyFlagOverrides(config, nil, "")
	assert.True(t, config.Browser.Headless)
	assert.Equal(t, "./results", config.Output.ResultsDir)

	headless := false
	ApplyFlagOverrides(config, &headless, "/tmp/out")
	assert.False(t, config.Browser.Headless)
	assert.Equal(t, "/tmp/out", config.Output.ResultsDir)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"bad home url", func(c *Config) { c.Site.HomeURL = "not a url" }, "HomeURL"},
		{"missing expected title", func(c *Config) { c.Site.ExpectedTitle = "" }, "ExpectedTitle"},
		{"zero error timeout", func(c *Config) { c.Wait.ErrorTimeout = 0 }, "ErrorTimeout"},
		{"negative poll interval", func(c *Config) { c.Wait.PollInterval = Duration(-time.Second) }, "PollInterval"},
		{"negative window", func(c *Config) { c.Browser.WindowWidth = -1 }, "WindowWidth"},
		{"unknown log level", func(c *Config) { c.Logging.Level = "loud" }, "unknown log level"},
		{"verbose is not a level", func(c *Config) { c.Logging.Level = "verbose" }, "unknown log level"},
		{"warn level", func(c *Config) { c.Logging.Level = "warn" }, ""},
		{"trace level", func(c *Config) { c.Logging.Level = "trace" }, ""},
		{"upper case level", func(c *Config) { c.Logging.Level = "INFO" }, ""},
		{"unknown output", func(c *Config) { c.Logging.Output = []string{"syslog"} }, "unknown log output"},
		{"empty results dir", func(c *Config) { c.Output.ResultsDir = "" }, "ResultsDir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewDefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestChromeConfig(t *testing.T) {
	config := NewDefaultConfig()
	config.Browser.ExecPath = "/usr/bin/chromium"
	config.Browser.NoSandbox = true

	cc := config.ChromeConfig()
	assert.True(t, cc.Headless)
	assert.True(t, cc.NoSandbox)
	assert.Equal(t, "/usr/bin/chromium", cc.ExecPath)
	assert.Equal(t, 1920, cc.WindowWidth)
	assert.Equal(t, 5*time.Second, cc.ImplicitWait)
	assert.Equal(t, 30*time.Second, cc.StartupTimeout)
}
