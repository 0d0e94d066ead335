// Package info fetches GitHub metadata of the repository checked out in the working directory.
package info
