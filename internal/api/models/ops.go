package models

// Health represents the health status of the service.
type Health struct {
	Status  HealthStatus           `json:"status"`
	Time    Timestamp              `json:"time"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SystemStatus reports version, uptime and upstream provider health.
type SystemStatus struct {
	Status        HealthStatus     `json:"status"`
	Time          Timestamp        `json:"time"`
	Version       string           `json:"version"`
	UptimeSeconds int64            `json:"uptimeSeconds"`
	Providers     []ProviderStatus `json:"providers"`
}

// ProviderStatus is the health of one upstream provider, derived from its
// circuit breaker.
type ProviderStatus struct {
	Provider     string       `json:"provider"`
	Status       HealthStatus `json:"status"`
	CircuitState string       `json:"circuitState"`
	Requests     uint32       `json:"requests"`
	Failures     uint32       `json:"failures"`
}

// FeatureFlag is one runtime feature flag.
type FeatureFlag struct {
	Key       string      `json:"key"`
	Value     interface{} `json:"value"`
	UpdatedAt Timestamp   `json:"updatedAt"`
}

// FeatureFlagList is the response of the flag listing endpoint.
type FeatureFlagList struct {
	Flags []FeatureFlag `json:"flags"`
}

// FeatureFlagUpdateRequest is the body for updating a single flag.
type FeatureFlagUpdateRequest struct {
	Value bool `json:"value"`
}
