package driven

import "time"

// ConfigStore provides access to application configuration.
// Keys are dot-separated paths into the nested file ("collections.chunk_sizes").
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	// Returns the value and a boolean indicating if the key exists.
	Get(key string) (any, bool)

	// GetString returns "" if the key is absent or not a string.
	GetString(key string) string

	// GetInt returns 0 if the key is absent or not an integer.
	GetInt(key string) int

	// GetFloat accepts integers and floats; returns 0 otherwise.
	GetFloat(key string) float64

	// GetBool returns false if the key is absent or not a boolean.
	GetBool(key string) bool

	// GetDuration parses Go duration strings ("1s", "500ms") and bare
	// numbers as seconds. Returns 0 if the key is absent or invalid.
	GetDuration(key string) time.Duration

	// GetStringSlice returns nil if the key is absent or not a list.
	GetStringSlice(key string) []string

	// GetSlice returns a heterogeneous list (chunk sizes mix "page" and ints).
	GetSlice(key string) []any

	// Set stores a value in memory. Call Save to persist.
	Set(key string, value any) error

	// Save persists the current configuration to storage.
	Save() error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}
