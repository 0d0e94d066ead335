// Package githubauth locates the GitHub token used for API calls and HTTPS git transport.
package githubauth
