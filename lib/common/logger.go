package common

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboats logger.ILogger)
// --------------------------------------------------------------------------

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// braidwoodLogger writes one line per message with time, level and package
type braidwoodLogger struct {
	name  string
	level logger.LogLevel
}

func (l *braidwoodLogger) SetLevel(level logger.LogLevel) {
	l.level = level
}

func (l *braidwoodLogger) Debugf(format string, args ...interface{}) {
	if l.level >= logger.DEBUG {
		l.write("DEBUG", format, args...)
	}
}

func (l *braidwoodLogger) Infof(format string, args ...interface{}) {
	if l.level >= logger.INFO {
		l.write("INFO", format, args...)
	}
}

func (l *braidwoodLogger) Warningf(format string, args ...interface{}) {
	if l.level >= logger.WARNING {
		l.write("WARN", format, args...)
	}
}

func (l *braidwoodLogger) Errorf(format string, args ...interface{}) {
	if l.level >= logger.ERROR {
		l.write("ERROR", format, args...)
	}
}

// Panicf logs the message regardless of the level and panics with it
func (l *braidwoodLogger) Panicf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.write("PANIC", "%s", msg)
	panic(msg)
}

func (l *braidwoodLogger) write(level string, format string, args ...interface{}) {
	line := fmt.Sprintf("%s %-5s %-10s %s\n",
		time.Now().UTC().Format(timeLayout), level, l.name, strings.TrimRight(fmt.Sprintf(format, args...), "\n"))

	outputMu.Lock()
	defer outputMu.Unlock()
	_, _ = io.WriteString(LogOutput, line)
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

// LogOutput is where all loggers write to. Command output goes to stdout, so logs go to stderr.
var LogOutput io.Writer = os.Stderr

var (
	outputMu    sync.Mutex // serializes lines of all loggers
	registered  = xsync.NewMapOf[string, struct{}]()
	factoryOnce sync.Once
)

// CreateLogger implements dragonboats logger.Factory
func CreateLogger(pkgName string) logger.ILogger {
	return &braidwoodLogger{
		name:  pkgName,
		level: logger.INFO,
	}
}

// NewLogger returns the logger of pkgName and registers the name, so InitLoggers sets
// its level. Packages call it once in a package level variable.
func NewLogger(pkgName string) logger.ILogger {
	registered.Store(pkgName, struct{}{})
	return logger.GetLogger(pkgName)
}

// LoggerNames returns the sorted names of all registered loggers
func LoggerNames() []string {
	names := make([]string, 0, registered.Size())
	registered.Range(func(name string, _ struct{}) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}

// --------------------------------------------------------------------------
// Levels
// --------------------------------------------------------------------------

// LogLevels is a default level with per package overrides
type LogLevels struct {
	Default  logger.LogLevel
	Packages map[string]logger.LogLevel
}

// Of returns the level of the logger pkgName
func (l LogLevels) Of(pkgName string) logger.LogLevel {
	if level, ok := l.Packages[pkgName]; ok {
		return level
	}
	return l.Default
}

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logger.DEBUG, nil
	case "info", "":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return logger.INFO, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// ParseLogLevels parses a comma separated list of a default level and package=level
// overrides, e.g. "warn,sqlbase=debug". Without a default level info is used.
func ParseLogLevels(spec string) (LogLevels, error) {
	levels := LogLevels{Default: logger.INFO, Packages: map[string]logger.LogLevel{}}

	hasDefault := false
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		pkg, raw, isOverride := strings.Cut(part, "=")
		if !isOverride {
			if hasDefault {
				return levels, fmt.Errorf("invalid log level %q: more than one default level", spec)
			}
			level, err := ParseLogLevel(part)
			if err != nil {
				return levels, err
			}
			levels.Default, hasDefault = level, true
			continue
		}

		pkg = strings.TrimSpace(pkg)
		if pkg == "" {
			return levels, fmt.Errorf("invalid log level %q: missing package name", part)
		}
		level, err := ParseLogLevel(raw)
		if err != nil {
			return levels, err
		}
		levels.Packages[pkg] = level
	}
	return levels, nil
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// InitLoggers installs the custom logger factory (once per process) and sets the level of
// every registered logger. Overrides naming an unregistered package are rejected.
func InitLoggers(config Config) error {
	levels, err := ParseLogLevels(config.LogLevel)
	if err != nil {
		return err
	}

	var unknown []string
	for pkg := range levels.Packages {
		if _, ok := registered.Load(pkg); !ok {
			unknown = append(unknown, pkg)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown logger %s. must be one of %s",
			strings.Join(unknown, ", "), strings.Join(LoggerNames(), ", "))
	}

	factoryOnce.Do(func() {
		logger.SetLoggerFactory(CreateLogger)
	})
	for _, name := range LoggerNames() {
		logger.GetLogger(name).SetLevel(levels.Of(name))
	}
	return nil
}
