package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/guvitest/internal/browser"
	"github.com/ternarybob/guvitest/internal/common"
	"github.com/ternarybob/guvitest/internal/probe"
	"github.com/ternarybob/guvitest/internal/scenarios"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles   configPaths // Multiple -config flags supported
	runNames      = flag.String("run", "", "Comma separated scenario names to run (default: all)")
	headless      = flag.Bool("headless", true, "Run Chrome without a window (overrides config)")
	resultsDir    = flag.String("results", "", "Results directory (overrides config)")
	listOnly      = flag.Bool("list", false, "List scenarios and exit")
	skipPreflight = flag.Bool("skip-preflight", false, "Skip the HTTP reachability check")
	showVersion   = flag.Bool("version", false, "Print version information")
	showVersionV  = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("guvitest version %s\n", common.GetFullVersion())
		return 0
	}

	if *listOnly {
		for _, sc := range scenarios.All() {
			fmt.Printf("%-38s %s\n", sc.Name, sc.Description)
		}
		return 0
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> {NAME} refs -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Validate
	// 4. Initialize logger
	// 5. Print banner
	if len(configFiles) == 0 {
		if _, err := os.Stat("guvitest.toml"); err == nil {
			configFiles = append(configFiles, "guvitest.toml")
		} else if _, err := os.Stat("deployments/local/guvitest.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/guvitest.toml")
		}
	}

	config, err := common.LoadFromFiles(common.EnvMap(), configFiles...)
	if err != nil {
		arbor.NewLogger().Error().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration files")
		return 1
	}

	var headlessOverride *bool
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "headless" {
			headlessOverride = headless
		}
	})
	common.ApplyFlagOverrides(config, headlessOverride, *resultsDir)

	if err := config.Validate(); err != nil {
		arbor.NewLogger().Error().Err(err).Msg("Configuration rejected")
		return 1
	}

	logger := common.SetupLogger(config)

	common.InstallCrashHandler(config.Output.ResultsDir)
	defer common.RecoverWithCrashFile()

	common.PrintBanner(config, logger)

	logger.Debug().
		Strs("config_files", configFiles).
		Str("sign_in_url", config.Site.SignInURL).
		Str("log_level", config.Logging.Level).
		Strs("log_output", config.Logging.Output).
		Dur("error_timeout", config.Wait.ErrorTimeout.Std()).
		Bool("valid_credentials", config.Credentials.ValidEmail != "").
		Msg("Resolved configuration (sanitized)")

	var names []string
	if *runNames != "" {
		for _, n := range strings.Split(*runNames, ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
	}
	if _, err := scenarios.Select(names); err != nil {
		logger.Error().Err(err).Msg("Invalid -run selection")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !*skipPreflight {
		if err := preflight(ctx, config, logger); err != nil {
			logger.Error().Err(err).Msg("Preflight failed, not launching a browser")
			return 1
		}
	}

	runner := scenarios.NewRunner(browser.NewChromeLauncher(config.ChromeConfig(), logger), config, logger)

	if config.Schedule.Cron != "" {
		return monitor(ctx, runner, names, config.Schedule.Cron, logger)
	}

	summary, err := runner.Run(ctx, names)
	if err != nil {
		logger.Error().Err(err).Msg("Suite run failed")
		return 1
	}
	printSummary(summary)
	if !summary.AllPassed() {
		return 1
	}
	return 0
}

func preflight(ctx context.Context, config *common.Config, logger arbor.ILogger) error {
	p, err := probe.NewProber(nil, config.Browser.UserAgent, logger)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	_, err = p.Check(ctx, config.Site.HomeURL)
	return err
}

func monitor(ctx context.Context, runner *scenarios.Runner, names []string, schedule string, logger arbor.ILogger) int {
	m, err := scenarios.NewMonitor(runner, names, logger, printSummary)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create suite monitor")
		return 1
	}
	if err := m.Start(schedule); err != nil {
		logger.Error().Err(err).Str("schedule", schedule).Msg("Invalid schedule")
		return 1
	}

	// First run happens now rather than at the first tick
	common.SafeGo(logger, "initial-run", m.RunNow)

	logger.Info().Msg("Monitoring - Press Ctrl+C to stop")
	<-ctx.Done()
	logger.Info().Msg("Interrupt signal received")

	m.Stop()
	return 0
}

func printSummary(summary *scenarios.Summary) {
	fmt.Printf("\nRun %s (%s)\n", summary.RunID, summary.Duration.Round(time.Millisecond))
	for _, r := range summary.Results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
		}
		fmt.Printf("  %-4s %-38s %8s", status, r.Name, r.Duration.Round(time.Millisecond))
		if r.Err != nil {
			fmt.Printf("  %v", r.Err)
		}
		fmt.Println()
	}
	fmt.Printf("%d passed, %d failed\n", summary.Passed(), summary.Failed())
	if summary.Interrupted {
		fmt.Println("Run interrupted before all scenarios completed")
	}
	fmt.Printf("Results: %s\n", summary.Dir)
}
