package githubauth

import (
	"os"
	"strings"
)

// Environment variable names consulted for a GitHub token, in preference order.
const (
	EnvGitHubCLIToken = "GH_TOKEN"
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvGitHubAPIToken = "GITHUB_API_TOKEN"
	EnvGitToken       = "GIT_TOKEN"
)

var tokenPreference = []string{
	EnvGitHubCLIToken,
	EnvGitHubToken,
	EnvGitHubAPIToken,
	EnvGitToken,
}

// EnvironmentLookup reads a variable from an environment source.
type EnvironmentLookup func(key string) (string, bool)

// ResolveToken returns the first non-empty token found in the configured value, the provided
// environment map or the process environment, in that order.
func ResolveToken(configuredToken string, environment map[string]string) (string, bool) {
	if trimmedToken := strings.TrimSpace(configuredToken); len(trimmedToken) > 0 {
		return trimmedToken, true
	}
	if token, found := firstToken(mapLookup(environment)); found {
		return token, true
	}
	return firstToken(os.LookupEnv)
}

func firstToken(lookup EnvironmentLookup) (string, bool) {
	for _, key := range tokenPreference {
		value, exists := lookup(key)
		if !exists {
			continue
		}
		value = strings.TrimSpace(value)
		if len(value) > 0 {
			return value, true
		}
	}
	return "", false
}

func mapLookup(environment map[string]string) EnvironmentLookup {
	return func(key string) (string, bool) {
		value, exists := environment[key]
		return value, exists
	}
}
