package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./merchtrack.db" {
			t.Errorf("expected database path ./merchtrack.db, got %s", config.Database.Path)
		}

		if len(config.Tracker.Roster) != 7 {
			t.Errorf("expected 7 reviewers on the roster, got %d", len(config.Tracker.Roster))
		}

		if config.Tracker.DefaultAccount != "Sulpak" {
			t.Errorf("expected default account Sulpak, got %s", config.Tracker.DefaultAccount)
		}

		if config.Classifier.BrandToken != "ARG" || config.Classifier.StandardPrefix != "30000" {
			t.Errorf("unexpected classifier defaults: %+v", config.Classifier)
		}

		if config.Schedule.Hour != 9 || config.Schedule.Minute != 0 {
			t.Errorf("expected 09:00 schedule, got %02d:%02d", config.Schedule.Hour, config.Schedule.Minute)
		}

		cat, ok := config.TrackedCategory()
		if !ok || cat.Key != "unassigned" {
			t.Errorf("expected unassigned to be the tracked category, got %+v", cat)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[tracker]
roster = ["Alice", "Bob"]
sweep_mode = "member"

[[accounts]]
id = "X1"
name = "Shop"

[store]
backend = "sqlite"

[database]
path = "/custom/path.db"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if len(config.Tracker.Roster) != 2 || config.Tracker.Roster[1] != "Bob" {
			t.Errorf("expected roster override, got %v", config.Tracker.Roster)
		}

		if len(config.Accounts) != 1 || config.Accounts[0].Name != "Shop" {
			t.Errorf("expected accounts override, got %+v", config.Accounts)
		}

		if config.Classifier.BrandToken != "ARG" {
			t.Errorf("missing sections should keep defaults, got brand token %q", config.Classifier.BrandToken)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		env := map[string]string{
			EnvTelegramToken:  "123:abc",
			EnvTelegramChatID: "-100",
			EnvSpreadsheetID:  "sheet-id",
			EnvCredentials:    "",
		}
		config := DefaultConfig()
		config.Store.Sheets.CredentialsFile = "keep.json"
		config.ApplyEnv(func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		})

		if config.Telegram.BotToken != "123:abc" {
			t.Errorf("expected bot token from env, got %q", config.Telegram.BotToken)
		}
		if config.Telegram.ChatID != "-100" {
			t.Errorf("expected chat id from env, got %q", config.Telegram.ChatID)
		}
		if config.Store.Sheets.SpreadsheetID != "sheet-id" {
			t.Errorf("expected spreadsheet id from env, got %q", config.Store.Sheets.SpreadsheetID)
		}
		if config.Store.Sheets.CredentialsFile != "keep.json" {
			t.Errorf("empty env value should not override, got %q", config.Store.Sheets.CredentialsFile)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty roster", func(c *Config) { c.Tracker.Roster = nil }},
		{"duplicate reviewer", func(c *Config) { c.Tracker.Roster = []string{"A", "A"} }},
		{"blank reviewer", func(c *Config) { c.Tracker.Roster = []string{"A", " "} }},
		{"unknown sweep mode", func(c *Config) { c.Tracker.SweepMode = "fuzzy" }},
		{"no accounts", func(c *Config) { c.Accounts = nil }},
		{"account name with separator", func(c *Config) { c.Accounts[0].Name = "A+B" }},
		{"two tracked categories", func(c *Config) { c.Categories[1].Tracked = true }},
		{"no tracked category", func(c *Config) { c.Categories[0].Tracked = false }},
		{"unknown backend", func(c *Config) { c.Store.Backend = "excel" }},
		{"bad schedule", func(c *Config) { c.Schedule.Hour = 24 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
