package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and logs the resolved target
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.PrintSimple("guvitest", GetVersion())

	logger.Info().
		Str("version", GetFullVersion()).
		Str("home_url", config.Site.HomeURL).
		Bool("headless", config.Browser.Headless).
		Msg("UI regression suite starting")
}
