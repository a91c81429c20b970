// Package pkgconfig provides a small abstraction for reading configuration values.
//
// Values come from config/config.yaml, then environment variables listed in
// EnvBindings (LOG_LEVEL, JSON_LOGS), falling back to Defaults. Business code
// depends on the Config interface so it stays easy to test.
package pkgconfig
