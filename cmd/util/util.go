package util

import (
	"context"
	"fmt"
	"strings"

	"github.com/ValentinKolb/braidwood/lib/common"
	"github.com/ValentinKolb/braidwood/lib/db"
	"github.com/ValentinKolb/braidwood/lib/db/engines/bolt"
	"github.com/ValentinKolb/braidwood/lib/db/engines/mssql"
	"github.com/ValentinKolb/braidwood/lib/db/engines/sqlite"
	"github.com/ValentinKolb/braidwood/lib/formatter"
	"github.com/ValentinKolb/braidwood/lib/repository"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupStorageFlags adds the backend selection flags to a command
func SetupStorageFlags(cmd *cobra.Command) {
	key := "backend"
	cmd.PersistentFlags().String(key, "memory", WrapString("Storage backend of the dictionaries (memory, sqlite, mssql, bolt)"))

	key = "dsn"
	cmd.PersistentFlags().String(key, "", WrapString("Path of the sqlite database file or the sqlserver:// connection string for mssql"))

	key = "bolt-path"
	cmd.PersistentFlags().String(key, "braidwood.bolt", WrapString("Path of the bolt database file"))

	key = "formatter"
	cmd.PersistentFlags().String(key, "msgpack", WrapString("Formatter of the values of plain dictionaries (msgpack, json, gob)"))

	key = "memory-optimized"
	cmd.PersistentFlags().Bool(key, false, WrapString("Create mssql tables as memory-optimized tables"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "warn", WrapString("Log level (debug, info, warn, error), optionally followed by package overrides like sqlbase=debug,ledger=info"))

	key = "metrics"
	cmd.PersistentFlags().Bool(key, false, WrapString("Print the collected metrics in the Prometheus text format after the command"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("braidwood")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// GetConfig reads the application configuration from viper
func GetConfig() common.Config {
	return common.Config{
		Backend:         db.Implementation(strings.ToLower(viper.GetString("backend"))),
		DSN:             viper.GetString("dsn"),
		BoltPath:        viper.GetString("bolt-path"),
		Formatter:       viper.GetString("formatter"),
		MemoryOptimized: viper.GetBool("memory-optimized"),
		LogLevel:        viper.GetString("log-level"),
		Metrics:         viper.GetBool("metrics"),
	}
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// OpenRepository opens the configured backend and creates a repository on it.
// The returned function releases the backend and must be called when the command is done.
func OpenRepository(ctx context.Context, config common.Config) (*repository.Repository, func() error, error) {
	if err := config.Validate(); err != nil {
		return nil, nil, err
	}

	f, err := formatter.ByName(config.Formatter)
	if err != nil {
		return nil, nil, err
	}

	opts := repository.Options{
		Implementation:  config.Backend,
		Formatter:       f,
		MemoryOptimized: config.MemoryOptimized,
	}
	closer := func() error { return nil }

	switch config.Backend {
	case db.ImplSQLite:
		conn, err := sqlite.Open(ctx, config.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		opts.Conn, closer = conn, conn.Close
	case db.ImplMSSQL:
		conn, err := mssql.Open(ctx, config.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to mssql: %w", err)
		}
		opts.Conn, closer = conn, conn.Close
	case db.ImplBolt:
		bdb, err := bolt.Open(config.BoltPath, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open bolt database: %w", err)
		}
		opts.Bolt, closer = bdb, bdb.Close
	}

	repo, err := repository.New(opts)
	if err != nil {
		_ = closer()
		return nil, nil, err
	}
	return repo, closer, nil
}
