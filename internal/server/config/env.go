package config

import (
	"github.com/caarlos0/env/v11"
)

// EnvPrefix namespaces every environment variable read by the server,
// e.g. AUTH_SECRET_KEY or AUTH_DATABASE_URL.
const EnvPrefix = "AUTH_"

// parseEnv overlays variables that are set in the environment; unset
// variables leave the current value untouched.
func parseEnv(config *Config) {
	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		panic(err)
	}
}
