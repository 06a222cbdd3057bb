// Package config loads the configuration of the soundalike CLI and server.
//
// Sources are layered with koanf, later layers winning:
//
//  1. built-in defaults
//  2. an optional YAML file (--config or SOUNDALIKE_CONFIG)
//  3. environment variables prefixed SOUNDALIKE_
//
// Environment variables map to keys by dropping the prefix, lowercasing
// and turning the first underscore into a dot:
//
//	SOUNDALIKE_ARTIFACTS_SOURCE=s3   -> artifacts.source
//	SOUNDALIKE_SERVER_READ_TIMEOUT=5s -> server.read_timeout
//	SOUNDALIKE_FIT_N_INIT=20          -> fit.n_init
package config
