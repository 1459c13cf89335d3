// Package config loads the settings of the zypprepo command.
//
// Settings are resolved in this order, the first match wins:
//   - command line flags bound with BindFlags
//   - environment variables prefixed with ZYPPREPO_ (e.g. ZYPPREPO_LOG_LEVEL)
//   - the settings file, by default config.yaml in the per-user config directory
//   - ZYPPREPO_ variables from a .env file next to the settings file
//   - the defaults from the struct tags of Config
//
// A missing settings file or .env file is not an error.
package config
