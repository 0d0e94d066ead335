package policy

// Configuration captures the policy report settings.
type Configuration struct {
	// Minimum hides checkouts with fewer findings.
	Minimum int `mapstructure:"minimum"`
}

// DefaultConfigurationValues exposes the defaults below rootKey.
func DefaultConfigurationValues(rootKey string) map[string]any {
	return map[string]any{rootKey + ".minimum": 0}
}

// Sanitize clamps negative minimums to zero.
func (configuration Configuration) Sanitize() Configuration {
	if configuration.Minimum < 0 {
		configuration.Minimum = 0
	}
	return configuration
}
