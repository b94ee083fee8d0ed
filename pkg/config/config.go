package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the harvester.
type Config struct {
	// Target listing and browser settings
	Site SiteConfig `yaml:"site" json:"site"`

	// Login credentials for the listing site
	Credentials CredentialsConfig `yaml:"credentials" json:"credentials"`

	// Scroll pacing and convergence settings
	Scroll ScrollConfig `yaml:"scroll" json:"scroll"`

	// CSV output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Checkpoint persistence settings
	Checkpoint CheckpointConfig `yaml:"checkpoint" json:"checkpoint"`

	// Retry settings for transient navigation failures
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SiteConfig holds the target listing and browser session settings.
type SiteConfig struct {
	TargetURL string          `yaml:"target_url" json:"target_url"`
	LoginURL  string          `yaml:"login_url" json:"login_url"`
	UserAgent string          `yaml:"user_agent" json:"user_agent"`
	Headless  bool            `yaml:"headless" json:"headless"`
	Selectors SelectorsConfig `yaml:"selectors" json:"selectors"`
}

// SelectorsConfig names the CSS selectors the page driver queries. The loop
// itself never sees a selector; markup specifics stay behind the driver.
type SelectorsConfig struct {
	ListingContainer string `yaml:"listing_container" json:"listing_container"`
	ItemCard         string `yaml:"item_card" json:"item_card"`
	Name             string `yaml:"name" json:"name"`
	Occupation       string `yaml:"occupation" json:"occupation"`
	Location         string `yaml:"location" json:"location"`
	University       string `yaml:"university" json:"university"`
	ProfileLink      string `yaml:"profile_link" json:"profile_link"`
	Website          string `yaml:"website" json:"website"`
	LoginEmail       string `yaml:"login_email" json:"login_email"`
	LoginPassword    string `yaml:"login_password" json:"login_password"`
	LoginSubmit      string `yaml:"login_submit" json:"login_submit"`
}

// CredentialsConfig holds the listing-site login.
type CredentialsConfig struct {
	Email    string `yaml:"email" json:"email"`
	Password string `yaml:"password" json:"-"`
	Account  string `yaml:"account" json:"account"`
}

// ScrollConfig holds scroll pacing and convergence settings.
type ScrollConfig struct {
	Delay                time.Duration `yaml:"delay" json:"delay"`
	Jitter               time.Duration `yaml:"jitter" json:"jitter"`
	StallThreshold       int           `yaml:"stall_threshold" json:"stall_threshold"`
	ContainerWaitTimeout time.Duration `yaml:"container_wait_timeout" json:"container_wait_timeout"`
	CatchUpMaxScrolls    int           `yaml:"catch_up_max_scrolls" json:"catch_up_max_scrolls"`
	CatchUpItemsPerLoad  int           `yaml:"catch_up_items_per_load" json:"catch_up_items_per_load"`
}

// OutputConfig holds CSV output settings.
type OutputConfig struct {
	Directory       string `yaml:"directory" json:"directory"`
	FileNamePattern string `yaml:"file_name_pattern" json:"file_name_pattern"`
}

// CheckpointConfig holds checkpoint persistence settings.
type CheckpointConfig struct {
	Path string `yaml:"path" json:"path"`
}

// RetryConfig holds retry settings for navigation and login.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay    time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier   float64       `yaml:"multiplier" json:"multiplier"`
	JitterFactor float64       `yaml:"jitter_factor" json:"jitter_factor"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Headless:  true,
			Selectors: SelectorsConfig{
				ListingContainer: "div.profiles-list",
				ItemCard:         "div.profile-card",
				Name:             ".profile-name",
				Occupation:       ".profile-occupation",
				Location:         ".profile-location",
				University:       ".profile-university",
				ProfileLink:      "a.profile-link",
				Website:          "a.profile-website",
				LoginEmail:       "input[name=email]",
				LoginPassword:    "input[name=password]",
				LoginSubmit:      "button[type=submit]",
			},
		},
		Scroll: ScrollConfig{
			Delay:                2 * time.Second,
			Jitter:               time.Second,
			StallThreshold:       5,
			ContainerWaitTimeout: 30 * time.Second,
			CatchUpMaxScrolls:    30,
			CatchUpItemsPerLoad:  10,
		},
		Output: OutputConfig{
			Directory:       "./harvest",
			FileNamePattern: "profiles_{timestamp}.csv",
		},
		Checkpoint: CheckpointConfig{
			Path: "./harvest/checkpoint.json",
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			BaseDelay:    2 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv overrides configuration from environment variables.
func (c *Config) LoadFromEnv() error {
	if url := os.Getenv("LISCRAPER_TARGET_URL"); url != "" {
		c.Site.TargetURL = url
	}
	if url := os.Getenv("LISCRAPER_LOGIN_URL"); url != "" {
		c.Site.LoginURL = url
	}
	if email := os.Getenv("LISCRAPER_EMAIL"); email != "" {
		c.Credentials.Email = email
	}
	if password := os.Getenv("LISCRAPER_PASSWORD"); password != "" {
		c.Credentials.Password = password
	}
	if headless := os.Getenv("LISCRAPER_HEADLESS"); headless != "" {
		c.Site.Headless = strings.ToLower(headless) != "false"
	}
	if dir := os.Getenv("LISCRAPER_OUTPUT_DIR"); dir != "" {
		c.Output.Directory = dir
	}
	if path := os.Getenv("LISCRAPER_CHECKPOINT_PATH"); path != "" {
		c.Checkpoint.Path = path
	}
	if delay := os.Getenv("LISCRAPER_SCROLL_DELAY"); delay != "" {
		if d, err := time.ParseDuration(delay); err == nil && d > 0 {
			c.Scroll.Delay = d
		}
	}
	if level := os.Getenv("LISCRAPER_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file. An empty path searches
// the standard locations and missing files are not an error.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *Config) findConfigFile() string {
	locations := []string{
		".liscraper.yaml",
		".liscraper.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "liscraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".liscraper.yaml"),
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// Validate checks the assembled configuration. Credential presence is checked
// separately by ValidateCredentials so commands that never log in can skip it.
func (c *Config) Validate() error {
	var errs []error

	if c.Site.TargetURL == "" {
		errs = append(errs, errors.New("target listing URL is required"))
	}
	if c.Scroll.Delay <= 0 {
		errs = append(errs, errors.New("scroll delay must be positive"))
	}
	if c.Scroll.Jitter < 0 {
		errs = append(errs, errors.New("scroll jitter cannot be negative"))
	}
	if c.Scroll.StallThreshold <= 0 {
		errs = append(errs, errors.New("stall threshold must be positive"))
	}
	if c.Scroll.ContainerWaitTimeout <= 0 {
		errs = append(errs, errors.New("container wait timeout must be positive"))
	}
	if c.Scroll.CatchUpMaxScrolls < 0 {
		errs = append(errs, errors.New("catch-up scroll cap cannot be negative"))
	}
	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.FileNamePattern == "" {
		errs = append(errs, errors.New("output file name pattern is required"))
	}
	if c.Checkpoint.Path == "" {
		errs = append(errs, errors.New("checkpoint path is required"))
	}
	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("retry attempts cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ValidateCredentials checks that a login is configured.
func (c *Config) ValidateCredentials() error {
	var errs []error
	if c.Credentials.Email == "" {
		errs = append(errs, errors.New("login email is required"))
	}
	if c.Credentials.Password == "" {
		errs = append(errs, errors.New("login password is required"))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// MergeCommandLineFlags merges CLI flag values into the configuration.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if url, ok := flags["target-url"].(string); ok && url != "" {
		c.Site.TargetURL = url
	}
	if dir, ok := flags["output"].(string); ok && dir != "" {
		c.Output.Directory = dir
	}
	if path, ok := flags["checkpoint"].(string); ok && path != "" {
		c.Checkpoint.Path = path
	}
	if headless, ok := flags["headless"].(bool); ok {
		c.Site.Headless = headless
	}
	if delay, ok := flags["scroll-delay"].(time.Duration); ok && delay > 0 {
		c.Scroll.Delay = delay
	}
	if account, ok := flags["account"].(string); ok && account != "" {
		c.Credentials.Account = account
	}
	if level, ok := flags["log-level"].(string); ok && level != "" {
		c.Logging.Level = level
	}
}

// Load assembles configuration from all sources.
// Precedence: CLI flags > environment variables > .env file > config file > defaults.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".liscraper.env"))

	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg.MergeCommandLineFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}
