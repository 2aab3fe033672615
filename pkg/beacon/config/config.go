package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/beaconhq/beacon-go/pkg/beacon"
)

// Settings keys recognized by ClientConfig and FromEnv. Unknown keys are
// preserved in the map but ignored when building a client configuration.
const (
	KeyAPIKey          = "api_key"
	KeyHost            = "host"
	KeyBatchSize       = "batch_size"
	KeyFlushInterval   = "flush_interval"
	KeyShutdownTimeout = "shutdown_timeout"
)

// settingKeys drives FromEnv; the environment variable name is the key
// upper-cased with the BEACON_ prefix (api_key -> BEACON_API_KEY).
var settingKeys = []string{
	KeyAPIKey,
	KeyHost,
	KeyBatchSize,
	KeyFlushInterval,
	KeyShutdownTimeout,
}

// Config wraps a map[string]any of beacon settings for type-safe value
// extraction. Accessors return the given default when the key is missing or
// the value cannot be converted to the requested type, so a partially
// populated source still yields a usable configuration.
type Config struct {
	data map[string]any
}

// New creates a Config from the given map.
// If data is nil, an empty Config is returned.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

// String returns the string value for key, or defaultVal if missing or not a string.
func (c Config) String(key, defaultVal string) string {
	v, ok := c.data[key]
	if !ok {
		return defaultVal
	}
	if s, ok := v.(string); ok {
		return s
	}
	return defaultVal
}

// Int returns the integer value for key, or defaultVal if missing or not
// convertible.
//
// Accepts:
//   - int: used directly
//   - int64: converted to int
//   - float64: converted to int (only if no fractional part; JSON numbers)
//   - string: parsed with strconv.Atoi (environment values)
func (c Config) Int(key string, defaultVal int) int {
	v, ok := c.data[key]
	if !ok {
		return defaultVal
	}
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		if val == float64(int(val)) {
			return int(val)
		}
	case string:
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

// Duration returns the duration value for key, or defaultVal if missing or
// invalid.
//
// Accepts:
//   - string: parsed with time.ParseDuration ("5s", "1m30s")
//   - int, int64, float64: interpreted as seconds
//   - time.Duration: used directly
func (c Config) Duration(key string, defaultVal time.Duration) time.Duration {
	v, ok := c.data[key]
	if !ok {
		return defaultVal
	}
	switch val := v.(type) {
	case string:
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	case float64:
		return time.Duration(val * float64(time.Second))
	case int:
		return time.Duration(val) * time.Second
	case int64:
		return time.Duration(val) * time.Second
	case time.Duration:
		return val
	}
	return defaultVal
}

// Has returns true if the key exists in the config.
func (c Config) Has(key string) bool {
	_, ok := c.data[key]
	return ok
}

// Raw returns the underlying map.
// The returned map should not be modified.
func (c Config) Raw() map[string]any {
	return c.data
}

// Merge returns a new Config combining both sources, with overlay's keys
// taking precedence. Typical use: file settings overlaid with environment
// settings so deployment environments win.
func (c Config) Merge(overlay Config) Config {
	merged := make(map[string]any, len(c.data)+len(overlay.data))
	for k, v := range c.data {
		merged[k] = v
	}
	for k, v := range overlay.data {
		merged[k] = v
	}
	return New(merged)
}

// ClientConfig builds a beacon.Config from the settings. Missing or invalid
// values fall back to beacon's defaults; a missing api_key produces a config
// that beacon.Init treats as disabled mode.
func (c Config) ClientConfig() beacon.Config {
	cfg := beacon.NewConfig(c.String(KeyAPIKey, ""))
	cfg.Host = ParseHost(c.String(KeyHost, ""))
	cfg.BatchSize = c.Int(KeyBatchSize, cfg.BatchSize)
	cfg.FlushInterval = c.Duration(KeyFlushInterval, cfg.FlushInterval)
	cfg.ShutdownTimeout = c.Duration(KeyShutdownTimeout, cfg.ShutdownTimeout)
	return cfg
}

// ParseHost maps a host setting to a beacon.Host. The region shorthands
// "us" and "eu" (case-insensitive) select the managed ingestion hosts;
// anything else is treated as a custom base URL. Empty selects US.
func ParseHost(s string) beacon.Host {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "us":
		return beacon.HostUS
	case "eu":
		return beacon.HostEU
	default:
		return beacon.CustomHost(s)
	}
}
