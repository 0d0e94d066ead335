// Package githubapi wraps the GitHub REST API calls orgsync depends on:
// organization listings, branch heads, manifest downloads, repository
// documents and open pull request counts.
package githubapi
