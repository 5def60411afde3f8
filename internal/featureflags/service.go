package featureflags

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the feature flag service.
type ServiceConfig struct {
	// Logger for flag evaluation warnings.
	Logger zerolog.Logger

	// DefaultFlags overrides the built-in defaults (optional).
	DefaultFlags map[string]*Flag
}

// Service evaluates feature flags. Values are read from the environment once
// at construction and overlaid on the defaults; SetFlag allows runtime
// overrides through the ops surface.
type Service struct {
	logger zerolog.Logger

	mu    sync.RWMutex
	flags map[string]*Flag
}

// NewService creates a new feature flag service, resolving each known flag
// against its environment variable.
func NewService(cfg ServiceConfig) *Service {
	defaults := cfg.DefaultFlags
	if defaults == nil {
		defaults = DefaultFlags()
	}

	flags := make(map[string]*Flag, len(defaults))
	for key, flag := range defaults {
		flags[key] = flag
	}

	for key := range defaults {
		raw, ok := os.LookupEnv(EnvVarName(key))
		if !ok {
			continue
		}

		value, err := strconv.ParseBool(raw)
		if err != nil {
			cfg.Logger.Warn().
				Str("flag", key).
				Str("value", raw).
				Msg("unparseable feature flag value, keeping default")
			continue
		}

		flags[key] = &Flag{Key: key, Value: value, UpdatedAt: time.Now()}
	}

	return &Service{
		logger: cfg.Logger,
		flags:  flags,
	}
}

// GetFlag retrieves a feature flag by key, or nil if unknown.
func (s *Service) GetFlag(key string) *Flag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags[key]
}

// GetAllFlags returns a copy of all flags.
func (s *Service) GetAllFlags() map[string]*Flag {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*Flag, len(s.flags))
	for key, flag := range s.flags {
		result[key] = flag
	}
	return result
}

// SetFlag overrides a feature flag at runtime.
func (s *Service) SetFlag(flag *Flag) {
	s.mu.Lock()
	defer s.mu.Unlock()

	flag.UpdatedAt = time.Now()
	s.flags[flag.Key] = flag
}

// IsEnabled returns true if the flag with the given key is enabled.
// Unknown flags are disabled.
func (s *Service) IsEnabled(key string) bool {
	return s.GetFlag(key).BoolValue(false)
}

// IsDisabled is the inverse of IsEnabled.
func (s *Service) IsDisabled(key string) bool {
	return !s.IsEnabled(key)
}

// Convenience methods for well-known flags.

// IsAIInsightEnabled returns true if intent parsing and the insight stream
// are enabled.
func (s *Service) IsAIInsightEnabled() bool {
	return s.IsEnabled(FlagAIInsight)
}

// IsAISceneEnabled returns true if scene image generation is enabled.
func (s *Service) IsAISceneEnabled() bool {
	return s.IsEnabled(FlagAIScene)
}

// IsWorkerPrefetchEnabled returns true if the prefetch worker is enabled.
func (s *Service) IsWorkerPrefetchEnabled() bool {
	return s.IsEnabled(FlagWorkerPrefetch)
}
