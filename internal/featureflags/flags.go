// Package featureflags provides environment-driven feature flags for runtime
// configuration.
package featureflags

import (
	"strings"
	"time"
)

// Well-known feature flag keys.
const (
	// FlagAIInsight gates query intent parsing and the streamed
	// conditions insight.
	FlagAIInsight = "ai_insight"

	// FlagAIScene gates background scene image generation.
	FlagAIScene = "ai_scene"

	// FlagWorkerPrefetch gates the background forecast prefetch worker.
	FlagWorkerPrefetch = "worker_prefetch"
)

// EnvPrefix plus the upper-cased key forms the environment variable that
// overrides a flag, e.g. ai_insight reads FF_AI_INSIGHT.
const EnvPrefix = "FF_"

// EnvVarName returns the environment variable name for a flag key.
func EnvVarName(key string) string {
	return EnvPrefix + strings.ToUpper(key)
}

// Flag represents a feature flag with its current value.
type Flag struct {
	Key       string    `json:"key"`
	Value     any       `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BoolValue returns the flag value as a boolean.
// Returns the default value if the flag is nil or not boolean-shaped.
func (f *Flag) BoolValue(defaultValue bool) bool {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case bool:
		return v
	case float64:
		// JSON unmarshals numbers as float64
		return v != 0
	default:
		return defaultValue
	}
}

// DefaultFlags returns the default feature flags for the application. Every
// feature ships enabled; the environment turns things off.
func DefaultFlags() map[string]*Flag {
	now := time.Now()
	return map[string]*Flag{
		FlagAIInsight: {
			Key:       FlagAIInsight,
			Value:     true,
			UpdatedAt: now,
		},
		FlagAIScene: {
			Key:       FlagAIScene,
			Value:     true,
			UpdatedAt: now,
		},
		FlagWorkerPrefetch: {
			Key:       FlagWorkerPrefetch,
			Value:     true,
			UpdatedAt: now,
		},
	}
}
