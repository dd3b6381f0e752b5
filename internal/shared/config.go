package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Tracker    TrackerConfig    `toml:"tracker"`
	Classifier ClassifierConfig `toml:"classifier"`
	Accounts   []AccountConfig  `toml:"accounts"`
	Categories []CategoryConfig `toml:"categories"`
	Extract    ExtractConfig    `toml:"extract"`
	Store      StoreConfig      `toml:"store"`
	Database   DatabaseConfig   `toml:"database"`
	Telegram   TelegramConfig   `toml:"telegram"`
	Schedule   ScheduleConfig   `toml:"schedule"`
	Logging    LoggingConfig    `toml:"logging"`
}

// TrackerConfig holds the reviewer roster and the rules of the task tracker.
type TrackerConfig struct {
	Roster         []string `toml:"roster"`
	DefaultAccount string   `toml:"default_account"`
	SweepMode      string   `toml:"sweep_mode"`
	Seed           int64    `toml:"seed"`
}

// ClassifierConfig names the brand token and the standard item-id prefix.
type ClassifierConfig struct {
	BrandToken     string `toml:"brand_token"`
	StandardPrefix string `toml:"standard_prefix"`
}

// AccountConfig describes one merchant account on the portal.
type AccountConfig struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
}

// CategoryConfig describes one portal product category.
//
// Tracked marks the category whose items are fed into the task tracker.
type CategoryConfig struct {
	Key     string `toml:"key"`
	Label   string `toml:"label"`
	Tracked bool   `toml:"tracked"`
}

// ExtractConfig locates portal exports on disk and maps their header row.
type ExtractConfig struct {
	DownloadsDir string   `toml:"downloads_dir"`
	IDColumns    []string `toml:"id_columns"`
	NameColumns  []string `toml:"name_columns"`
}

// StoreConfig selects the tracking store backend.
type StoreConfig struct {
	Backend   string       `toml:"backend"`
	Worksheet string       `toml:"worksheet"`
	Sheets    SheetsConfig `toml:"sheets"`
}

// SheetsConfig contains Google Sheets access settings.
type SheetsConfig struct {
	SpreadsheetID     string `toml:"spreadsheet_id"`
	CredentialsFile   string `toml:"credentials_file"`
	BaseURL           string `toml:"base_url"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// TelegramConfig contains bot credentials for the daily summary.
type TelegramConfig struct {
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
	BaseURL  string `toml:"base_url"`
	Pin      bool   `toml:"pin"`
	Link     string `toml:"link"`
	Title    string `toml:"title"`
}

// ScheduleConfig is the local wall-clock time of the daily run.
type ScheduleConfig struct {
	Hour   int `toml:"hour"`
	Minute int `toml:"minute"`
}

// LoggingConfig contains log and lock file settings.
type LoggingConfig struct {
	Level    string `toml:"level"`
	File     string `toml:"file"`
	LockPath string `toml:"lock_path"`
}

// Sweep modes
const (
	SweepExact  = "exact"
	SweepMember = "member"
)

// Store backends
const (
	BackendSheets = "sheets"
	BackendSQLite = "sqlite"
)

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Environment variables that override secrets in the config file.
const (
	EnvTelegramToken  = "MERCHTRACK_TELEGRAM_TOKEN"
	EnvTelegramChatID = "MERCHTRACK_TELEGRAM_CHAT_ID"
	EnvSpreadsheetID  = "MERCHTRACK_SPREADSHEET_ID"
	EnvCredentials    = "GOOGLE_APPLICATION_CREDENTIALS"
)

// ApplyEnv overlays secrets from the environment so they can stay out of config.toml.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(EnvTelegramToken); ok && v != "" {
		c.Telegram.BotToken = v
	}
	if v, ok := lookup(EnvTelegramChatID); ok && v != "" {
		c.Telegram.ChatID = v
	}
	if v, ok := lookup(EnvSpreadsheetID); ok && v != "" {
		c.Store.Sheets.SpreadsheetID = v
	}
	if v, ok := lookup(EnvCredentials); ok && v != "" {
		c.Store.Sheets.CredentialsFile = v
	}
}

// Validate reports the first problem that would make a run misbehave.
func (c *Config) Validate() error {
	if len(c.Tracker.Roster) == 0 {
		return fmt.Errorf("%w: tracker.roster is empty", ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(c.Tracker.Roster))
	for _, name := range c.Tracker.Roster {
		name = strings.TrimSpace(name)
		if name == "" {
			return fmt.Errorf("%w: blank reviewer in tracker.roster", ErrInvalidConfig)
		}
		if seen[name] {
			return fmt.Errorf("%w: reviewer %q listed twice", ErrInvalidConfig, name)
		}
		seen[name] = true
	}

	switch c.Tracker.SweepMode {
	case "", SweepExact, SweepMember:
	default:
		return fmt.Errorf("%w: unknown sweep_mode %q", ErrInvalidConfig, c.Tracker.SweepMode)
	}

	if len(c.Accounts) == 0 {
		return fmt.Errorf("%w: no accounts configured", ErrInvalidConfig)
	}
	for _, a := range c.Accounts {
		if a.Name == "" {
			return fmt.Errorf("%w: account %q has no name", ErrInvalidConfig, a.ID)
		}
		if strings.Contains(a.Name, "+") {
			return fmt.Errorf("%w: account name %q contains '+'", ErrInvalidConfig, a.Name)
		}
	}

	tracked := 0
	for _, cat := range c.Categories {
		if cat.Key == "" {
			return fmt.Errorf("%w: category without key", ErrInvalidConfig)
		}
		if cat.Tracked {
			tracked++
		}
	}
	if tracked != 1 {
		return fmt.Errorf("%w: exactly one category must be tracked, found %d", ErrInvalidConfig, tracked)
	}

	switch c.Store.Backend {
	case BackendSheets, BackendSQLite:
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.Store.Backend)
	}

	return ValidateSchedule(c.Schedule.Hour, c.Schedule.Minute)
}

// TrackedCategory returns the category whose exports feed the tracker.
func (c *Config) TrackedCategory() (CategoryConfig, bool) {
	for _, cat := range c.Categories {
		if cat.Tracked {
			return cat, true
		}
	}
	return CategoryConfig{}, false
}

// AccountNames lists the configured account display names in order.
func (c *Config) AccountNames() []string {
	names := make([]string, len(c.Accounts))
	for i, a := range c.Accounts {
		names[i] = a.Name
	}
	return names
}
