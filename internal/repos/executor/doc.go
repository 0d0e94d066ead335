// Package executor runs clone and pull work items across a workspace with a
// bounded number of in-flight operations.
//
// Each item moves through pending, cloning, pulling and installing before it
// succeeds; a failure at any step is recorded in the item's BatchResult and a
// clone that fails after it started is removed from disk. Failures never stop
// sibling items.
package executor
