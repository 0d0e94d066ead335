package outdated

import (
	"strings"
	"time"

	"github.com/temirov/orgsync/internal/npm"
)

const (
	configurationKeySeparatorConstant = "."
	registryKeyConstant               = "registry"
	tokenKeyConstant                  = "token"
	cacheSizeKeyConstant              = "cache_size"
	cacheTTLKeyConstant               = "cache_ttl"
	concurrencyKeyConstant            = "concurrency"
)

// Configuration captures the registry settings of the outdated report.
type Configuration struct {
	Registry    string        `mapstructure:"registry"`
	Token       string        `mapstructure:"token"`
	CacheSize   int           `mapstructure:"cache_size"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	Concurrency int           `mapstructure:"concurrency"`
}

// DefaultConfiguration targets the public npm registry.
func DefaultConfiguration() Configuration {
	return Configuration{
		Registry:    npm.DefaultRegistryURLConstant,
		CacheSize:   npm.DefaultCacheSizeConstant,
		CacheTTL:    npm.DefaultCacheTTLConstant,
		Concurrency: DefaultConcurrencyConstant,
	}
}

// DefaultConfigurationValues exposes DefaultConfiguration as viper defaults below rootKey.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultConfiguration()
	prefix := rootKey + configurationKeySeparatorConstant
	return map[string]any{
		prefix + registryKeyConstant:    defaults.Registry,
		prefix + tokenKeyConstant:       defaults.Token,
		prefix + cacheSizeKeyConstant:   defaults.CacheSize,
		prefix + cacheTTLKeyConstant:    defaults.CacheTTL.String(),
		prefix + concurrencyKeyConstant: defaults.Concurrency,
	}
}

// Sanitize trims values and replaces non-positive limits with defaults.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	sanitized := configuration
	sanitized.Registry = strings.TrimSpace(configuration.Registry)
	if len(sanitized.Registry) == 0 {
		sanitized.Registry = defaults.Registry
	}
	sanitized.Token = strings.TrimSpace(configuration.Token)
	if sanitized.CacheSize <= 0 {
		sanitized.CacheSize = defaults.CacheSize
	}
	if sanitized.CacheTTL <= 0 {
		sanitized.CacheTTL = defaults.CacheTTL
	}
	if sanitized.Concurrency <= 0 {
		sanitized.Concurrency = defaults.Concurrency
	}
	return sanitized
}
