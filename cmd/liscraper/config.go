package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"liscraper/pkg/config"
	"liscraper/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage harvester configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (LISCRAPER_*)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.liscraper.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the merged configuration from all sources. Sensitive values are
masked.`,
	Run: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Required fields
  - Value types and ranges
  - Path accessibility`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".liscraper.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	exampleConfig := `# liscraper configuration file
#
# Every option can also be set through environment variables prefixed with
# LISCRAPER_, for example LISCRAPER_TARGET_URL or LISCRAPER_EMAIL.

# Target site
site:
  # Listing URL to harvest (required)
  target_url: "https://example.com/people"

  # Login page URL; leave empty for public listings
  login_url: ""

  # User agent string (optional)
  user_agent: ""

  # Run the browser headless
  headless: true

  # CSS selectors for the listing markup
  selectors:
    listing_container: ".people-list"
    item_card: ".people-list .person-card"
    name: ".person-name"
    occupation: ".person-occupation"
    location: ".person-location"
    university: ".person-university"
    profile_link: "a.person-linkedin"
    website: "a.person-website"
    login_email: "input[name=email]"
    login_password: "input[name=password]"
    login_submit: "button[type=submit]"

# Login credentials; prefer 'liscraper auth login' or environment variables
credentials:
  email: ""
  password: ""

# Scrolling behavior
scroll:
  # Delay between scrolls, plus up to 'jitter' of random extra wait
  delay: 2s
  jitter: 1s

  # Consecutive no-growth iterations before the run is considered done
  stall_threshold: 5

  # How long to wait for the listing container on startup
  container_wait_timeout: 30s

  # Resume catch-up: scroll budget and expected items per load
  catch_up_max_scrolls: 30
  catch_up_items_per_load: 10

# Output
output:
  directory: "./harvest"
  file_name_pattern: "profiles_{timestamp}.csv"

# Checkpointing
checkpoint:
  path: "./harvest/checkpoint.json"

# Retry behavior for transient navigation failures
retry:
  max_attempts: 3
  base_delay: 1s
  max_delay: 30s
  multiplier: 2.0
  jitter_factor: 0.1

# Logging
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional); empty logs to stderr only
  file: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Edit the file: set the listing URL and selectors")
	fmt.Println("2. Run 'liscraper config validate' to check the configuration")
	fmt.Println("3. Start harvesting with 'liscraper harvest'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	displayCfg := *cfg
	if displayCfg.Credentials.Password != "" {
		displayCfg.Credentials.Password = "***"
	}

	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (LISCRAPER_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (not specified)")
	}
	fmt.Println("4. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	if configFile == "" {
		possiblePaths := []string{
			".liscraper.yaml",
			".liscraper.yml",
			"liscraper.yaml",
			filepath.Join(os.Getenv("HOME"), ".liscraper.yaml"),
			filepath.Join(os.Getenv("HOME"), ".config", "liscraper", "config.yaml"),
		}
		for _, path := range possiblePaths {
			if _, err := os.Stat(path); err == nil {
				configFile = path
				break
			}
		}
		if configFile == "" {
			ui.PrintError("No configuration file found", "Specify a file with --config flag")
			os.Exit(1)
		}
	}

	ui.PrintInfo("Validating configuration", configFile)

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	var warnings []string
	var errors []string

	if cfg.Site.LoginURL != "" && cfg.ValidateCredentials() != nil {
		warnings = append(warnings, "listing requires login but no credentials configured")
	}
	if cfg.Site.Selectors.ItemCard == "" {
		errors = append(errors, "selectors.item_card is required")
	}
	if cfg.Site.Selectors.ListingContainer == "" {
		errors = append(errors, "selectors.listing_container is required")
	}

	if cfg.Output.Directory != "" {
		if err := os.MkdirAll(cfg.Output.Directory, 0755); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create output directory: %v", err))
		}
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}

	if len(errors) > 0 {
		ui.PrintError("Configuration has errors:")
		for _, e := range errors {
			fmt.Printf("  - %s\n", e)
		}
		os.Exit(1)
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Target listing: %s\n", cfg.Site.TargetURL)
	fmt.Printf("  Output directory: %s\n", cfg.Output.Directory)
	fmt.Printf("  Checkpoint: %s\n", cfg.Checkpoint.Path)
	fmt.Printf("  Scroll delay: %s (+ up to %s jitter)\n", cfg.Scroll.Delay, cfg.Scroll.Jitter)
	fmt.Printf("  Stall threshold: %d\n", cfg.Scroll.StallThreshold)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}
