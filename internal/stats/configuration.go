package stats

const concurrencyKeyConstant = ".concurrency"

// Configuration captures the stats report settings.
type Configuration struct {
	Concurrency int `mapstructure:"concurrency"`
}

// DefaultConfiguration returns the baseline stats settings.
func DefaultConfiguration() Configuration {
	return Configuration{Concurrency: DefaultConcurrencyConstant}
}

// DefaultConfigurationValues exposes the defaults below rootKey.
func DefaultConfigurationValues(rootKey string) map[string]any {
	return map[string]any{rootKey + concurrencyKeyConstant: DefaultConcurrencyConstant}
}

// Sanitize restores the default concurrency when the configured one is not positive.
func (configuration Configuration) Sanitize() Configuration {
	sanitized := configuration
	if sanitized.Concurrency <= 0 {
		sanitized.Concurrency = DefaultConcurrencyConstant
	}
	return sanitized
}
