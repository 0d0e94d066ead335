// Package resolver lists the repositories of a GitHub organization and narrows
// them to the set a run acts on: archived and excluded repositories are dropped,
// an optional pick-list is matched exactly or by edit distance, and repositories
// whose manifest targets another platform are removed.
package resolver
