// Package inventory scans the workspace for local checkouts, optionally keeping
// only directories that carry a project manifest.
package inventory
