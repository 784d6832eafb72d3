package util

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ValentinKolb/braidwood/lib/common"
	"github.com/ValentinKolb/braidwood/lib/db"
	"github.com/ValentinKolb/braidwood/lib/repository"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		if len(line) > Wrap {
			t.Errorf("Line exceeds %d characters: %q", Wrap, line)
		}
	}
	if got := WrapString("  short   text "); got != "short text" {
		t.Errorf("Expected whitespace to be normalized, got %q", got)
	}
}

func TestGetConfig(t *testing.T) {
	t.Cleanup(viper.Reset)

	cmd := &cobra.Command{Use: "test"}
	SetupStorageFlags(cmd)
	if err := cmd.PersistentFlags().Parse([]string{"--backend", "SQLite", "--dsn", "data.db", "--metrics"}); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
		t.Fatalf("failed to bind flags: %v", err)
	}

	config := GetConfig()
	if config.Backend != db.ImplSQLite {
		t.Errorf("Expected backend sqlite, got %q", config.Backend)
	}
	if config.DSN != "data.db" || !config.Metrics {
		t.Errorf("Expected dsn and metrics from the flags, got %+v", config)
	}
	if config.Formatter != "msgpack" || config.LogLevel != "warn" {
		t.Errorf("Expected defaults for formatter and log level, got %+v", config)
	}
}

func TestOpenRepository(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	configs := map[string]common.Config{
		"Memory": {Backend: db.ImplMemory, LogLevel: "warn"},
		"SQLite": {Backend: db.ImplSQLite, DSN: filepath.Join(dir, "cli.db"), Formatter: "json", LogLevel: "warn"},
		"Bolt":   {Backend: db.ImplBolt, BoltPath: filepath.Join(dir, "cli.bolt"), Formatter: "gob", LogLevel: "warn"},
	}

	for name, config := range configs {
		t.Run(name, func(t *testing.T) {
			repo, closer, err := OpenRepository(ctx, config)
			if err != nil {
				t.Fatalf("failed to open repository: %v", err)
			}
			defer closer()

			if repo.Implementation() != config.Backend {
				t.Errorf("Expected implementation %s, got %s", config.Backend, repo.Implementation())
			}

			dict, err := repository.Dict[string, string](ctx, repo, "cli")
			if err != nil {
				t.Fatalf("failed to resolve dictionary: %v", err)
			}
			if err := dict.Add(ctx, "hola", "mundo"); err != nil {
				t.Fatalf("Add failed: %v", err)
			}
			if v, err := dict.Get(ctx, "hola"); err != nil || v != "mundo" {
				t.Errorf("Expected mundo, got %q (%v)", v, err)
			}
			if err := repo.Drop(ctx, "cli"); err != nil {
				t.Errorf("Drop failed: %v", err)
			}
		})
	}
}

func TestOpenRepositoryInvalid(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		config common.Config
	}{
		{"UnknownBackend", common.Config{Backend: "redis"}},
		{"SQLiteWithoutDSN", common.Config{Backend: db.ImplSQLite}},
		{"UnknownFormatter", common.Config{Backend: db.ImplMemory, Formatter: "xml"}},
		{"UnknownLogLevel", common.Config{Backend: db.ImplMemory, LogLevel: "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := OpenRepository(ctx, tt.config); err == nil {
				t.Errorf("Expected an error for %+v", tt.config)
			}
		})
	}
}
