// Package config defines configuration structures for the routefetch CLI.
//
// Configuration can be provided via, in increasing precedence:
//   - Defaults
//   - YAML configuration file (-config)
//   - Environment variables (ROUTEFETCH_ prefix)
//   - Command-line flags
//
// # Structure
//
//	type Config struct {
//	    APIURL     string
//	    ConnectURL string
//	    Workers    int
//	    FileTypes  []string
//	    Overwrite  bool
//	    Progress   bool
//	    Mirror     string
//	    Bzip2      string
//	    LogLevel   string
//	    Timeout    time.Duration
//	    Retry      RetryConfig
//	}
//
//	type RetryConfig struct {
//	    Attempts   int
//	    Backoff    time.Duration
//	    MaxBackoff time.Duration
//	}
package config
