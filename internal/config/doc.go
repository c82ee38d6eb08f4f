// Package config manages user-level settings stored at ~/.datakit/config.yaml.
// Values can be overridden through DATAKIT_* environment variables, e.g.
// DATAKIT_WORKERS=8 or DATAKIT_LOG_LEVEL=debug.
package config
