package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/PavanSai0211/Finance-Reporting-Project/config"
	"github.com/PavanSai0211/Finance-Reporting-Project/logger"
	"github.com/PavanSai0211/Finance-Reporting-Project/metrics"
)

// Set at build time with -ldflags "-X .../cmd.version=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:     "finreport",
	Short:   "Financial star-schema ETL, reporting and dashboard",
	Version: version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newDownloadCmd())
	rootCmd.AddCommand(newDeriveCmd())
	rootCmd.AddCommand(newSQLCmd())
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(newDashboardCmd())
	reportCmd.AddCommand(newReportSendCmd())
	reportCmd.AddCommand(newReportScheduleCmd())
}

func isRunningOnGitHubActions() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

func initializeConfigAndLogger() (*config.Config, *slog.Logger, error) {
	log := logger.NewLogger()
	if !isRunningOnGitHubActions() {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Error("Error loading .env file")
			return nil, nil, err
		}
	}

	// 1. Open the base configuration file
	baseConfigFile, err := os.Open("config.base.yaml")
	if err != nil {
		log.Error(fmt.Sprintf("Error opening base config file: %v", err))
		return nil, nil, err
	}
	defer baseConfigFile.Close()

	// 2. Prepare environment-specific config reader (if needed)
	env := os.Getenv("APP_ENV")
	var envConfigFile *os.File
	envConfigFilename := fmt.Sprintf("config.%s.yaml", env)
	if _, err := os.Stat(envConfigFilename); err == nil {
		envConfigFile, err = os.Open(envConfigFilename)
		if err != nil {
			log.Error(fmt.Sprintf("Error opening environment config file: %v", err))
			return nil, nil, err
		}
		defer envConfigFile.Close()
	}

	// 3. Create the config
	var cfg *config.Config
	if envConfigFile != nil {
		cfg, err = config.NewConfig(baseConfigFile, envConfigFile, env)
	} else {
		cfg, err = config.NewConfig(baseConfigFile, nil, env)
	}
	if err != nil {
		log.Error(fmt.Sprintf("Error reading config: %v", err))
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		log.Error(fmt.Sprintf("Invalid config: %v", err))
		return nil, nil, err
	}

	// 4. Switch to the configured log format and level
	log = logger.New(os.Stdout, cfg.Log.Format, cfg.Log.Level).With("env", cfg.Env)
	metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)

	return cfg, log, nil
}
