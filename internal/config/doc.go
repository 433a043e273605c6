// Package config loads analyzer settings from .mapcheck.yaml or
// .mapcheck.toml. Unset values take defaults; the loaded result is always
// validated before use.
package config
