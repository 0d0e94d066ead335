package githubapi

import (
	"strings"

	"github.com/temirov/orgsync/internal/repos/shared"
)

const (
	configurationOrganizationKeyConstant = "organization"
	configurationTokenKeyConstant        = "token"
	configurationBaseURLKeyConstant      = "base_url"
	configurationBranchKeyConstant       = "branch"
	configurationKeySeparatorConstant    = "."
)

// Configuration captures the GitHub settings shared by every command.
type Configuration struct {
	Organization string `mapstructure:"organization"`
	Token        string `mapstructure:"token"`
	BaseURL      string `mapstructure:"base_url"`
	Branch       string `mapstructure:"branch"`
}

// DefaultConfiguration returns baseline GitHub settings.
func DefaultConfiguration() Configuration {
	return Configuration{Branch: shared.DefaultPrimaryBranchConstant}
}

// DefaultConfigurationValues exposes DefaultConfiguration as viper defaults below rootKey.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultConfiguration()
	return map[string]any{
		rootKey + configurationKeySeparatorConstant + configurationOrganizationKeyConstant: defaults.Organization,
		rootKey + configurationKeySeparatorConstant + configurationTokenKeyConstant:        defaults.Token,
		rootKey + configurationKeySeparatorConstant + configurationBaseURLKeyConstant:      defaults.BaseURL,
		rootKey + configurationKeySeparatorConstant + configurationBranchKeyConstant:       defaults.Branch,
	}
}

// Sanitize trims values. An empty branch is kept so each repository falls back to its own default branch.
func (configuration Configuration) Sanitize() Configuration {
	sanitized := configuration
	sanitized.Organization = strings.TrimSpace(configuration.Organization)
	sanitized.Token = strings.TrimSpace(configuration.Token)
	sanitized.BaseURL = strings.TrimSpace(configuration.BaseURL)
	sanitized.Branch = strings.TrimSpace(configuration.Branch)
	return sanitized
}

// ClientOptions converts the configuration into client options using token as the resolved credential.
func (configuration Configuration) ClientOptions(token string) Options {
	return Options{Token: token, BaseURL: configuration.BaseURL}
}
