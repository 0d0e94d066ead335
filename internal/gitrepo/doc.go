// Package gitrepo clones, pulls and inspects repositories with an embedded git
// implementation and converts between textual and structured remote URLs.
package gitrepo
