// Package stats counts open issues and pull requests across the repositories of an organization.
package stats
