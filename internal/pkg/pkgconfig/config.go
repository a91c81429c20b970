package pkgconfig

import "time"

// Config is the read-only view of the application configuration.
type Config interface {
	GetInt(key string) int64
	GetBool(key string) bool
	GetFloat(key string) float64
	GetString(key string) string
	GetDuration(key string) time.Duration
	GetBinary(key string) []byte
	GetArray(key string) []string
	GetMap(key string) map[string]string
	Close() error
}

// Defaults used when neither the config file nor the environment sets a key.
var Defaults = map[string]any{
	"log.level":               "INFO",
	"log.json":                false,
	"log.path":                "logs/app.log",
	"log.rotation.size":       10_000_000,
	"log.rotation.time":       "00:00",
	"log.retention":           "240h",
	"server.address.http":     ":8000",
	"server.cors.enabled":     true,
	"modules.demo.enabled":    true,
	"modules.demo.work_delay": "50ms",
	"tz":                      "UTC",
}

// EnvBindings maps config keys to the environment variables overriding them.
var EnvBindings = map[string]string{
	"log.level": "LOG_LEVEL",
	"log.json":  "JSON_LOGS",
}
