// Package manifest reads the per-repository slimio.toml manifest used for
// inventory filtering, platform compatibility and policy exclusion.
package manifest
