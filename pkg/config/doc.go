// Package config loads service configuration from an optional YAML file
// with environment variable overrides. Key material (the data key and the
// token verification key) is deliberately NOT part of this package; it is
// read from the environment at startup and its absence is fatal.
package config
