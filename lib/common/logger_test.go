package common

import (
	"bytes"
	"slices"
	"strings"
	"testing"

	"github.com/lni/dragonboat/v4/logger"
)

// captureLogs redirects all loggers into a buffer for the duration of the test
func captureLogs(t *testing.T) *bytes.Buffer {
	var buf bytes.Buffer
	old := LogOutput
	LogOutput = &buf
	t.Cleanup(func() {
		LogOutput = old
	})
	return &buf
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]logger.LogLevel{
		"debug":   logger.DEBUG,
		"INFO":    logger.INFO,
		"":        logger.INFO,
		"warn":    logger.WARNING,
		"warning": logger.WARNING,
		"error":   logger.ERROR,
	}
	for in, expected := range tests {
		level, err := ParseLogLevel(in)
		if err != nil || level != expected {
			t.Errorf("ParseLogLevel(%q): expected %v, got %v (%v)", in, expected, level, err)
		}
	}
	if _, err := ParseLogLevel("loud"); err == nil {
		t.Errorf("expected an error for an invalid level")
	}
}

func TestParseLogLevels(t *testing.T) {
	levels, err := ParseLogLevels("warn, sqlbase=debug ,ledger=ERROR")
	if err != nil {
		t.Fatalf("ParseLogLevels failed: %v", err)
	}
	if levels.Of("repository") != logger.WARNING {
		t.Errorf("expected the default level warn, got %v", levels.Of("repository"))
	}
	if levels.Of("sqlbase") != logger.DEBUG || levels.Of("ledger") != logger.ERROR {
		t.Errorf("expected the overrides to apply, got %+v", levels.Packages)
	}

	if levels, err := ParseLogLevels("bolt=debug"); err != nil || levels.Default != logger.INFO {
		t.Errorf("expected info as default without a default level, got %v (%v)", levels.Default, err)
	}

	for _, invalid := range []string{"loud", "warn,error", "=debug", "sqlbase=loud"} {
		if _, err := ParseLogLevels(invalid); err == nil {
			t.Errorf("expected an error for %q", invalid)
		}
	}
}

func TestInitLoggers(t *testing.T) {
	buf := captureLogs(t)
	quiet := NewLogger("testquiet")
	verbose := NewLogger("testverbose")

	if !slices.Contains(LoggerNames(), "testquiet") || !slices.Contains(LoggerNames(), "testverbose") {
		t.Fatalf("expected the loggers to be registered, got %v", LoggerNames())
	}

	if err := InitLoggers(Config{LogLevel: "error,testverbose=debug"}); err != nil {
		t.Fatalf("InitLoggers failed: %v", err)
	}
	quiet.Infof("hidden")
	verbose.Debugf("shown %d", 42)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("expected info to be filtered by the default level, got %q", out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", out)
	}
	fields := strings.Fields(lines[0])
	if len(fields) != 5 || fields[1] != "DEBUG" || fields[2] != "testverbose" || fields[4] != "42" {
		t.Errorf("unexpected line format %q", lines[0])
	}

	// a second initialization must not install the factory again
	if err := InitLoggers(Config{LogLevel: "warn"}); err != nil {
		t.Errorf("InitLoggers failed on the second call: %v", err)
	}
}

func TestInitLoggersUnknownPackage(t *testing.T) {
	err := InitLoggers(Config{LogLevel: "warn,nosuchpackage=debug"})
	if err == nil || !strings.Contains(err.Error(), "nosuchpackage") {
		t.Errorf("expected an error naming the unknown logger, got %v", err)
	}
}
