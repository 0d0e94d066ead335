package reconcile

import (
	"strings"

	"github.com/temirov/orgsync/internal/manifest"
	"github.com/temirov/orgsync/internal/repos/executor"
	pathutils "github.com/temirov/orgsync/internal/utils/path"
)

const (
	defaultWorkspaceConstant          = "."
	defaultLockFileNameConstant       = ".orgsync.lock"
	defaultFuzzyToleranceConstant     = 2
	configurationKeySeparatorConstant = "."
	workspaceKeyConstant              = "workspace"
	manifestFileKeyConstant           = "manifest_file"
	requireManifestKeyConstant        = "require_manifest"
	platformFilterKeyConstant         = "platform_filter"
	excludeKeyConstant                = "exclude"
	excludePatternsKeyConstant        = "exclude_patterns"
	fuzzyToleranceKeyConstant         = "fuzzy_tolerance"
	installConcurrencyKeyConstant     = "install_concurrency"
	concurrencyKeyConstant            = "concurrency"
	lockFileKeyConstant               = "lock_file"
)

var workspacePathExpander = pathutils.NewWorkspacePathExpander()

// Configuration captures the persisted synchronization settings.
type Configuration struct {
	Workspace          string   `mapstructure:"workspace"`
	ManifestFile       string   `mapstructure:"manifest_file"`
	RequireManifest    bool     `mapstructure:"require_manifest"`
	PlatformFilter     bool     `mapstructure:"platform_filter"`
	Exclude            []string `mapstructure:"exclude"`
	ExcludePatterns    []string `mapstructure:"exclude_patterns"`
	FuzzyTolerance     int      `mapstructure:"fuzzy_tolerance"`
	InstallConcurrency int      `mapstructure:"install_concurrency"`
	Concurrency        int      `mapstructure:"concurrency"`
	LockFile           string   `mapstructure:"lock_file"`
}

// DefaultConfiguration returns the baseline synchronization settings.
func DefaultConfiguration() Configuration {
	return Configuration{
		Workspace:          defaultWorkspaceConstant,
		ManifestFile:       manifest.DefaultFileNameConstant,
		RequireManifest:    false,
		PlatformFilter:     true,
		Exclude:            []string{"governance", "n-api-ci", "blog"},
		ExcludePatterns:    []string{"nix"},
		FuzzyTolerance:     defaultFuzzyToleranceConstant,
		InstallConcurrency: executor.DefaultInstallConcurrencyConstant,
		Concurrency:        executor.DefaultConcurrencyConstant,
		LockFile:           defaultLockFileNameConstant,
	}
}

// DefaultConfigurationValues exposes DefaultConfiguration as viper defaults below rootKey.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultConfiguration()
	key := func(name string) string {
		return rootKey + configurationKeySeparatorConstant + name
	}
	return map[string]any{
		key(workspaceKeyConstant):          defaults.Workspace,
		key(manifestFileKeyConstant):       defaults.ManifestFile,
		key(requireManifestKeyConstant):    defaults.RequireManifest,
		key(platformFilterKeyConstant):     defaults.PlatformFilter,
		key(excludeKeyConstant):            defaults.Exclude,
		key(excludePatternsKeyConstant):    defaults.ExcludePatterns,
		key(fuzzyToleranceKeyConstant):     defaults.FuzzyTolerance,
		key(installConcurrencyKeyConstant): defaults.InstallConcurrency,
		key(concurrencyKeyConstant):        defaults.Concurrency,
		key(lockFileKeyConstant):           defaults.LockFile,
	}
}

// Sanitize trims values, lower-cases exclusions and restores defaults for unset numeric and path values.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	sanitized := configuration

	sanitized.Workspace = workspacePathExpander.Expand(configuration.Workspace)
	if len(sanitized.Workspace) == 0 {
		sanitized.Workspace = defaults.Workspace
	}
	sanitized.ManifestFile = strings.TrimSpace(configuration.ManifestFile)
	if len(sanitized.ManifestFile) == 0 {
		sanitized.ManifestFile = defaults.ManifestFile
	}
	sanitized.LockFile = strings.TrimSpace(configuration.LockFile)
	if len(sanitized.LockFile) == 0 {
		sanitized.LockFile = defaults.LockFile
	}
	sanitized.Exclude = sanitizeNames(configuration.Exclude, true)
	sanitized.ExcludePatterns = sanitizeNames(configuration.ExcludePatterns, false)
	if sanitized.FuzzyTolerance < 0 {
		sanitized.FuzzyTolerance = 0
	}
	if sanitized.InstallConcurrency <= 0 {
		sanitized.InstallConcurrency = defaults.InstallConcurrency
	}
	if sanitized.Concurrency <= 0 {
		sanitized.Concurrency = defaults.Concurrency
	}
	return sanitized
}

// BatchConcurrency selects the pool capacity for a batch.
func (configuration Configuration) BatchConcurrency(installFollows bool) int {
	if installFollows {
		return configuration.InstallConcurrency
	}
	return configuration.Concurrency
}

// sanitizeNames trims entries, splits comma separated values and drops blanks.
func sanitizeNames(values []string, lowerCase bool) []string {
	sanitized := make([]string, 0, len(values))
	for _, value := range values {
		for _, candidate := range strings.Split(value, ",") {
			trimmed := strings.TrimSpace(candidate)
			if len(trimmed) == 0 {
				continue
			}
			if lowerCase {
				trimmed = strings.ToLower(trimmed)
			}
			sanitized = append(sanitized, trimmed)
		}
	}
	return sanitized
}
