package domain

import "time"

// Settings is the immutable configuration for one invocation. It is
// assembled once by the config loader and passed by value into
// provider and service constructors, never mutated afterwards.
type Settings struct {
	// Ingester holds backend connection settings.
	Ingester IngesterSettings

	// SCM holds repository host settings.
	SCM SCMSettings

	// WebDAV holds WebDAV share settings.
	WebDAV WebDAVSettings

	// Extensions is the file extension allow-list applied during
	// tree enumeration, lower-case without dots.
	Extensions []string

	// MaxConcurrent bounds the in-flight fetches during tree walks.
	MaxConcurrent int
}

// IngesterSettings holds backend connection settings.
type IngesterSettings struct {
	// BaseURL is the backend endpoint, without trailing slash.
	BaseURL string

	// APIKey is the bearer token, "" for unauthenticated backends.
	APIKey string

	// Timeout bounds every backend round-trip.
	Timeout time.Duration
}

// IsConfigured returns true if the backend endpoint is set up.
func (i IngesterSettings) IsConfigured() bool {
	return i.BaseURL != ""
}

// SCMSettings holds repository host settings.
type SCMSettings struct {
	// Endpoint is the API base URL. Empty selects the public
	// endpoint for the chosen platform.
	Endpoint string

	// Token is the API token, "" for anonymous access.
	Token string

	// CloneDir is where the git CLI decorator keeps its shallow
	// clones. Empty selects a directory under the user cache dir.
	CloneDir string

	// GitTimeout bounds each git subprocess.
	GitTimeout time.Duration
}

// WebDAVSettings holds WebDAV share settings.
type WebDAVSettings struct {
	// Endpoint is the share URL.
	Endpoint string

	// Username is the login.
	Username string

	// Password is the secret, usually supplied via environment.
	Password string
}

// IsConfigured returns true if the share is set up.
func (w WebDAVSettings) IsConfigured() bool {
	return w.Endpoint != ""
}

// Default tuning values.
const (
	// DefaultHTTPTimeout bounds a backend or API round-trip.
	DefaultHTTPTimeout = 120 * time.Second

	// DefaultGitTimeout bounds a git subprocess.
	DefaultGitTimeout = 300 * time.Second

	// DefaultMaxConcurrent bounds tree-walk fan-out.
	DefaultMaxConcurrent = 3
)

// DefaultSettings returns settings with sensible defaults. Endpoints
// and credentials are left empty and come from the config store or
// the environment.
func DefaultSettings() Settings {
	return Settings{
		Ingester: IngesterSettings{
			Timeout: DefaultHTTPTimeout,
		},
		SCM: SCMSettings{
			GitTimeout: DefaultGitTimeout,
		},
		Extensions:    DefaultExtensions(),
		MaxConcurrent: DefaultMaxConcurrent,
	}
}

// DefaultExtensions returns the default extension allow-list.
func DefaultExtensions() []string {
	return []string{"md", "pdf", "doc", "docx"}
}
