package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	"liscraper/pkg/auth"
	"liscraper/pkg/browser"
	"liscraper/pkg/config"
	errs "liscraper/pkg/errors"
	"liscraper/pkg/harvester"
	"liscraper/pkg/logger"
	"liscraper/pkg/shutdown"
	"liscraper/pkg/sink"
	"liscraper/pkg/ui"
)

var (
	// Harvest command flags
	targetURL      string
	outputDir      string
	checkpointPath string
	headless       bool
	scrollDelay    time.Duration
	accountName    string
	useTUI         bool
)

// harvestCmd represents the harvest command
var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Collect profile records from the configured listing",
	Long: `Collect profile records from an infinitely-scrolling listing into a CSV
file.

The run scrolls the listing, extracts newly rendered profile cards, appends
them to the CSV, and checkpoints progress after every batch. Interrupting
the run (Ctrl+C) saves the checkpoint; the next run resumes into the same
CSV file without duplicating records. The run ends on its own once the
listing stops growing.

Credentials (when the listing requires login) come from:
  - Stored accounts ('liscraper auth login' to store)
  - Environment variables (LISCRAPER_EMAIL and LISCRAPER_PASSWORD)
  - Configuration file`,
	Example: `  # Harvest with settings from .liscraper.yaml
  liscraper harvest

  # Override the listing URL and output directory
  liscraper harvest --target-url https://example.com/people --output ./out

  # Use a specific stored account, watch live progress
  liscraper harvest --account me@example.com --tui`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runHarvest()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(harvestCmd)

	harvestCmd.Flags().StringVar(&targetURL, "target-url", "", "listing URL to harvest")
	harvestCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for CSV files")
	harvestCmd.Flags().StringVar(&checkpointPath, "checkpoint", "", "checkpoint file path")
	harvestCmd.Flags().BoolVar(&headless, "headless", true, "run the browser headless")
	harvestCmd.Flags().DurationVar(&scrollDelay, "scroll-delay", 0, "delay between scrolls (e.g. 2s)")
	harvestCmd.Flags().StringVarP(&accountName, "account", "a", "", "use specific stored account")
	harvestCmd.Flags().BoolVar(&useTUI, "tui", false, "show live progress in a terminal UI")

	// Same flags on the root command so 'liscraper' alone harvests.
	rootCmd.Flags().StringVar(&targetURL, "target-url", "", "listing URL to harvest")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for CSV files")
	rootCmd.Flags().StringVar(&checkpointPath, "checkpoint", "", "checkpoint file path")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "run the browser headless")
	rootCmd.Flags().DurationVar(&scrollDelay, "scroll-delay", 0, "delay between scrolls (e.g. 2s)")
	rootCmd.Flags().StringVarP(&accountName, "account", "a", "", "use specific stored account")
	rootCmd.Flags().BoolVar(&useTUI, "tui", false, "show live progress in a terminal UI")
}

func runHarvest() {
	flags := map[string]interface{}{
		"target-url":   targetURL,
		"output":       outputDir,
		"checkpoint":   checkpointPath,
		"scroll-delay": scrollDelay,
		"account":      accountName,
	}
	if !headless {
		flags["headless"] = false
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logging", err.Error())
		os.Exit(1)
	}
	logger.WithField("version", version).Info("Harvester starting")

	if err := resolveCredentials(cfg); err != nil {
		ui.PrintError("No usable credentials", err.Error())
		os.Exit(1)
	}

	driver, err := browser.NewDriver(cfg.Site)
	if err != nil {
		logger.WithError(err).Error("Browser startup failed")
		ui.PrintError("Failed to start browser", err.Error())
		os.Exit(1)
	}
	defer driver.Close()

	store := sink.NewStore(cfg.Output.Directory, cfg.Output.FileNamePattern)
	h := harvester.New(driver, sinkStore{store}, cfg)

	coord := shutdown.NewCoordinator(h.SaveProgress)
	ctx := coord.Register(context.Background())
	defer coord.Stop()

	ui.PrintInfo("Target listing", cfg.Site.TargetURL)

	if useTUI {
		runWithTUI(ctx, h)
		return
	}

	if err := h.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		coord.Trigger()
		logger.WithError(err).Error("Harvest failed")
		ui.PrintError("Harvest failed", err.Error())
		var typed *errs.Error
		if errors.As(err, &typed) && !errs.IsFatal(typed.Type) {
			ui.PrintWarning("Progress was checkpointed; rerun to resume")
		}
		os.Exit(1)
	}

	ui.PrintSuccess("Harvest complete")
}

// runWithTUI runs the harvest in a goroutine behind a live progress view.
func runWithTUI(ctx context.Context, h *harvester.Harvester) {
	view := ui.NewHarvestView()
	h.OnProgress(view.Publish)

	done := make(chan error, 1)
	go func() {
		done <- h.Run(ctx)
	}()

	viewDone := make(chan error, 1)
	go func() {
		viewDone <- view.Start()
	}()

	select {
	case err := <-done:
		view.Stop()
		<-viewDone
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Error("Harvest failed")
			ui.PrintError("Harvest failed", err.Error())
			os.Exit(1)
		}
	case err := <-viewDone:
		if err != nil {
			logger.WithError(err).Error("Progress view failed")
			os.Exit(1)
		}
		// View quit (Ctrl+C reaches the shutdown coordinator separately);
		// wait for the run to wind down.
		if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Error("Harvest failed")
			os.Exit(1)
		}
	}
}

// resolveCredentials fills cfg.Credentials when the listing requires login.
// Precedence: --account flag, then config/env, then the default stored
// account.
func resolveCredentials(cfg *config.Config) error {
	if cfg.Site.LoginURL == "" {
		return nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return err
	}

	if cfg.Credentials.Account != "" {
		account, err := manager.Retrieve(cfg.Credentials.Account)
		if err != nil {
			return err
		}
		applyAccount(cfg, account)
		return nil
	}

	if cfg.ValidateCredentials() == nil {
		return nil
	}

	account, err := manager.RetrieveDefault()
	if err != nil {
		return errors.New("listing requires login: store credentials with 'liscraper auth login' " +
			"or set LISCRAPER_EMAIL and LISCRAPER_PASSWORD")
	}
	applyAccount(cfg, account)
	return nil
}

func applyAccount(cfg *config.Config, account *auth.Account) {
	cfg.Credentials.Email = account.Email
	cfg.Credentials.Password = account.Password
	if account.UserAgent != "" {
		cfg.Site.UserAgent = account.UserAgent
	}
	logger.WithField("account", account.Email).Info("Using stored credentials")
}

// sinkStore adapts the CSV store to the harvester's interface.
type sinkStore struct {
	*sink.Store
}

func (s sinkStore) Create() (harvester.Sink, error) {
	return s.Store.Create()
}

func (s sinkStore) Open(filename string) (harvester.Sink, error) {
	return s.Store.Open(filename)
}
