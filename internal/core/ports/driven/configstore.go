package driven

// ConfigStore is persistent agent configuration. Keys use dot
// notation ("scm.token"); implementations own the file format and
// the type conversions.
type ConfigStore interface {
	// Get retrieves a raw value and whether the key exists.
	Get(key string) (any, bool)

	// GetString retrieves a string value, "" when absent or not a
	// string.
	GetString(key string) string

	// GetInt retrieves an integer value, 0 when absent or not an
	// integer.
	GetInt(key string) int

	// GetBool retrieves a boolean value, false when absent or not a
	// boolean.
	GetBool(key string) bool

	// GetStringSlice retrieves a string slice, nil when absent or
	// not a slice.
	GetStringSlice(key string) []string

	// Set stores a value and persists it immediately.
	Set(key string, value any) error

	// Save persists the current configuration.
	Save() error

	// Load reads configuration from storage.
	Load() error

	// Path returns the backing location for display to operators.
	Path() string
}
