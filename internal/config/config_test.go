package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Port:          "8081",
		DataBackend:   "memory",
		Currency:      "INR",
		ImportWorkers: 1,
		SessionTTL:    time.Hour,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid memory backend config",
			modify:  func(*Config) {},
			wantErr: false,
		},
		{
			name: "valid sqlite backend config",
			modify: func(c *Config) {
				c.DataBackend = "sqlite"
				c.SQLiteDBPath = "./test.db"
			},
			wantErr: false,
		},
		{
			name:        "invalid port - non-numeric",
			modify:      func(c *Config) { c.Port = "abc" },
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range low",
			modify:      func(c *Config) { c.Port = "0" },
			wantErr:     true,
			errorString: "invalid port 0: must be between 1 and 65535",
		},
		{
			name:        "invalid port - out of range high",
			modify:      func(c *Config) { c.Port = "70000" },
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "invalid data backend",
			modify:      func(c *Config) { c.DataBackend = "sheets" },
			wantErr:     true,
			errorString: "invalid data backend 'sheets': must be one of [memory sqlite]",
		},
		{
			name: "sqlite backend missing database path",
			modify: func(c *Config) {
				c.DataBackend = "sqlite"
				c.SQLiteDBPath = ""
			},
			wantErr:     true,
			errorString: "SQLite database path cannot be empty when using sqlite backend",
		},
		{
			name:        "unknown currency",
			modify:      func(c *Config) { c.Currency = "XYZ" },
			wantErr:     true,
			errorString: "unknown currency 'XYZ'",
		},
		{
			name:        "zero import workers",
			modify:      func(c *Config) { c.ImportWorkers = 0 },
			wantErr:     true,
			errorString: "invalid import workers 0: must be at least 1",
		},
		{
			name:        "too many import workers",
			modify:      func(c *Config) { c.ImportWorkers = 100 },
			wantErr:     true,
			errorString: "invalid import workers 100: must be at most 64",
		},
		{
			name:        "short session TTL",
			modify:      func(c *Config) { c.SessionTTL = time.Second },
			wantErr:     true,
			errorString: "invalid session TTL 1s: must be at least 1 minute",
		},
		{
			name:        "bad log level",
			modify:      func(c *Config) { c.LogLevel = "loud" },
			wantErr:     true,
			errorString: "invalid log level 'loud'",
		},
		{
			name:        "bad log format",
			modify:      func(c *Config) { c.LogFormat = "xml" },
			wantErr:     true,
			errorString: "invalid log format 'xml': must be text or json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errorString) {
				t.Errorf("Config.Validate() error = %v, want it to contain %q", err, tt.errorString)
			}
		})
	}
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "abc"
	cfg.Currency = "XYZ"
	cfg.LogFormat = "xml"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if n := strings.Count(err.Error(), "\n- "); n != 3 {
		t.Errorf("expected 3 problems, got %d: %v", n, err)
	}
}

func TestConfig_ValidateCreatesDBDirectory(t *testing.T) {
	cfg := validConfig()
	cfg.DataBackend = "sqlite"
	cfg.SQLiteDBPath = filepath.Join(t.TempDir(), "nested", "dir", "ledger.db")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Config.Validate() error = %v", err)
	}
}

func TestLoad(t *testing.T) {
	for _, key := range []string{"PORT", "DATA_BACKEND", "SQLITE_DB_PATH", "CURRENCY", "IMPORT_WORKERS", "SESSION_TTL", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}

	t.Run("default values", func(t *testing.T) {
		cfg := Load()

		if cfg.Port != "8081" {
			t.Errorf("Load() Port = %v, want 8081", cfg.Port)
		}
		if cfg.DataBackend != "sqlite" {
			t.Errorf("Load() DataBackend = %v, want sqlite", cfg.DataBackend)
		}
		if cfg.SQLiteDBPath != "./data/ledger.db" {
			t.Errorf("Load() SQLiteDBPath = %v, want ./data/ledger.db", cfg.SQLiteDBPath)
		}
		if cfg.Currency != "INR" {
			t.Errorf("Load() Currency = %v, want INR", cfg.Currency)
		}
		if cfg.ImportWorkers != 1 {
			t.Errorf("Load() ImportWorkers = %v, want 1", cfg.ImportWorkers)
		}
		if cfg.SessionTTL != 12*time.Hour {
			t.Errorf("Load() SessionTTL = %v, want 12h", cfg.SessionTTL)
		}
	})

	t.Run("environment variables", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("DATA_BACKEND", "memory")
		t.Setenv("CURRENCY", "eur")
		t.Setenv("IMPORT_WORKERS", "4")
		t.Setenv("SESSION_TTL", "30m")
		t.Setenv("LOG_FORMAT", "json")

		cfg := Load()

		if cfg.Port != "9090" {
			t.Errorf("Load() Port = %v, want 9090", cfg.Port)
		}
		if cfg.DataBackend != "memory" {
			t.Errorf("Load() DataBackend = %v, want memory", cfg.DataBackend)
		}
		if cfg.Currency != "EUR" {
			t.Errorf("Load() Currency = %v, want EUR", cfg.Currency)
		}
		if cfg.ImportWorkers != 4 {
			t.Errorf("Load() ImportWorkers = %v, want 4", cfg.ImportWorkers)
		}
		if cfg.SessionTTL != 30*time.Minute {
			t.Errorf("Load() SessionTTL = %v, want 30m", cfg.SessionTTL)
		}
		if cfg.LogFormat != "json" {
			t.Errorf("Load() LogFormat = %v, want json", cfg.LogFormat)
		}
	})

	t.Run("invalid environment variables use defaults", func(t *testing.T) {
		t.Setenv("IMPORT_WORKERS", "invalid")
		t.Setenv("SESSION_TTL", "invalid")

		cfg := Load()

		if cfg.ImportWorkers != 1 {
			t.Errorf("Load() ImportWorkers = %v, want 1 (default for invalid input)", cfg.ImportWorkers)
		}
		if cfg.SessionTTL != 12*time.Hour {
			t.Errorf("Load() SessionTTL = %v, want 12h (default for invalid input)", cfg.SessionTTL)
		}
	})
}
