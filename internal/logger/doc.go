// Package logger builds the zap logger used by the zypprepo command.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Format: json (default) or console
//
// A debug level selects the zap development config, every other level the
// production config.
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info", Format: "console"})
//	log.Info("repository created", zap.String("repo", "updates"))
package logger
