package file

import (
	"os"
	"time"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
	"github.com/custodia-labs/ferry-cli/internal/core/ports/driven"
)

// Environment fallbacks for secrets, read when the store carries no
// value. Keeping tokens in the environment keeps them out of the
// on-disk config file.
const (
	EnvIngesterAPIKey = "FERRY_INGESTER_API_KEY"
	EnvSCMToken       = "FERRY_SCM_TOKEN"
	EnvWebDAVPassword = "FERRY_WEBDAV_PASSWORD"
)

// LoadSettings assembles the immutable run settings from the store on
// top of the defaults. Timeouts are configured in seconds.
func LoadSettings(store driven.ConfigStore) domain.Settings {
	settings := domain.DefaultSettings()

	settings.Ingester.BaseURL = store.GetString("ingester.base_url")
	settings.Ingester.APIKey = secret(store, "ingester.api_key", EnvIngesterAPIKey)
	if seconds := store.GetInt("ingester.timeout_seconds"); seconds > 0 {
		settings.Ingester.Timeout = time.Duration(seconds) * time.Second
	}

	settings.SCM.Endpoint = store.GetString("scm.endpoint")
	settings.SCM.Token = secret(store, "scm.token", EnvSCMToken)
	settings.SCM.CloneDir = store.GetString("scm.clone_dir")
	if seconds := store.GetInt("scm.git_timeout_seconds"); seconds > 0 {
		settings.SCM.GitTimeout = time.Duration(seconds) * time.Second
	}

	settings.WebDAV.Endpoint = store.GetString("webdav.endpoint")
	settings.WebDAV.Username = store.GetString("webdav.username")
	settings.WebDAV.Password = secret(store, "webdav.password", EnvWebDAVPassword)

	if extensions := store.GetStringSlice("extensions"); len(extensions) > 0 {
		settings.Extensions = extensions
	}
	if limit := store.GetInt("max_concurrent"); limit > 0 {
		settings.MaxConcurrent = limit
	}

	return settings
}

// secret reads a store key with an environment fallback.
func secret(store driven.ConfigStore, key, envVar string) string {
	if value := store.GetString(key); value != "" {
		return value
	}
	return os.Getenv(envVar)
}
