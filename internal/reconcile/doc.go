// Package reconcile synchronizes a workspace with the repositories of a GitHub organization.
//
// A run resolves the remote repository set and scans the workspace concurrently, diffs the two into a
// clone worklist and a list of existing checkouts, classifies existing checkouts against their remote
// primary branch and applies clone or pull work items through the bounded batch executor. Runs hold a
// file lock inside the workspace so two synchronizations never overlap.
package reconcile
