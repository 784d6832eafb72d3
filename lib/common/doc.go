// Package common provides the configuration and logging shared by all parts of the application.
//
// Key Components:
//
//   - Config: Selects the storage backend and its connection settings, the value formatter
//     and the log level. String renders it for the startup log.
//
//   - Logger: Custom logging implementation that plugs into dragonboat's logger package.
//     Every package registers its named logger with NewLogger("sqlbase"). InitLoggers installs
//     the factory and sets the configured level, or a package override, on all registered loggers.
package common
