// Package config provides environment-based application configuration and
// YAML pipeline spec loading.
//
// Application settings come from environment variables via envconfig with
// sensible defaults; pipeline graph overrides for the demo binary come from
// a YAML file. Both are validated before use.
package config
