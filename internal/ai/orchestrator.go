package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/skycastlabs/skycast/internal/featureflags"
	"github.com/skycastlabs/skycast/internal/weather"
)

// Provider is a generative AI backend. Implementations translate these calls
// into their native transport; they never retry on their own.
type Provider interface {
	// GenerateJSON issues a single generation call in JSON mode and
	// decodes the model's reply into out.
	GenerateJSON(ctx context.Context, prompt string, out any) error

	// StreamText issues a streaming generation call, invoking onChunk for
	// each text fragment in arrival order.
	StreamText(ctx context.Context, prompt string, onChunk func(chunk string)) error

	// GenerateImage issues an image generation call and returns the first
	// inline image as a data URI, or empty when the reply had no image
	// part.
	GenerateImage(ctx context.Context, prompt string) (string, error)

	// Name returns the provider name for logging.
	Name() string
}

// OrchestratorConfig holds configuration for the AI orchestrator.
type OrchestratorConfig struct {
	// Provider is the AI backend. Nil disables every operation: calls
	// return their fallback without touching the network. This is the
	// documented degraded mode when no credential is configured.
	Provider Provider

	// Flags gates the insight and scene features (optional). A disabled
	// flag behaves exactly like a missing credential.
	Flags *featureflags.Service

	// Logger for orchestrator operations.
	Logger zerolog.Logger
}

// Orchestrator runs the three best-effort AI operations. None of its methods
// return errors; every failure collapses into a fallback value the caller
// can render.
type Orchestrator struct {
	provider Provider
	flags    *featureflags.Service
	logger   zerolog.Logger
}

// NewOrchestrator creates a new AI orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	return &Orchestrator{
		provider: cfg.Provider,
		flags:    cfg.Flags,
		logger:   cfg.Logger,
	}
}

// Enabled reports whether a provider is configured.
func (o *Orchestrator) Enabled() bool {
	return o.provider != nil
}

// insightEnabled covers intent parsing and the insight stream.
func (o *Orchestrator) insightEnabled() bool {
	return o.provider != nil && (o.flags == nil || o.flags.IsAIInsightEnabled())
}

func (o *Orchestrator) sceneEnabled() bool {
	return o.provider != nil && (o.flags == nil || o.flags.IsAISceneEnabled())
}

// needsIntentParse reports whether a query looks like a question rather than
// a bare city name: more than two words, or longer than 20 characters.
func needsIntentParse(query string) bool {
	return len(strings.Fields(query)) > 2 || len(query) > 20
}

// ParseIntent splits a search query into a city and an optional weather
// intent. Short queries pass through verbatim without an AI call, and every
// failure falls back the same way.
func (o *Orchestrator) ParseIntent(ctx context.Context, query string) ParsedQuery {
	query = strings.TrimSpace(query)
	fallback := ParsedQuery{City: query}

	if !o.insightEnabled() || !needsIntentParse(query) {
		return fallback
	}

	var parsed ParsedQuery
	if err := o.provider.GenerateJSON(ctx, buildIntentPrompt(query), &parsed); err != nil {
		o.logger.Warn().
			Str("provider", o.provider.Name()).
			Err(err).
			Msg("intent parse failed, treating query as city name")
		return fallback
	}

	parsed.City = strings.TrimSpace(parsed.City)
	parsed.Intent = strings.TrimSpace(parsed.Intent)
	if parsed.City == "" {
		return fallback
	}

	return parsed
}

// StreamInsight streams a natural-language description of the snapshot,
// invoking onChunk per fragment in arrival order. On quota exhaustion it
// delivers QuotaMessage as the only chunk; on any other failure,
// UnavailableMessage. Never retries.
func (o *Orchestrator) StreamInsight(ctx context.Context, snap *weather.Snapshot, intent string, onChunk func(chunk string)) InsightResult {
	if !o.insightEnabled() {
		onChunk(UnavailableMessage)
		return InsightResult{Status: StatusFailed, Text: UnavailableMessage}
	}

	var text strings.Builder
	err := o.provider.StreamText(ctx, buildInsightPrompt(snap, intent), func(chunk string) {
		text.WriteString(chunk)
		onChunk(chunk)
	})
	if err != nil {
		if errors.Is(err, ErrQuotaExhausted) {
			o.logger.Warn().
				Str("provider", o.provider.Name()).
				Str("city", snap.Location.Name).
				Msg("insight stream hit quota")
			onChunk(QuotaMessage)
			return InsightResult{Status: StatusQuotaExceeded, Text: QuotaMessage}
		}

		o.logger.Warn().
			Str("provider", o.provider.Name()).
			Str("city", snap.Location.Name).
			Err(err).
			Msg("insight stream failed")
		onChunk(UnavailableMessage)
		return InsightResult{Status: StatusFailed, Text: UnavailableMessage}
	}

	return InsightResult{Status: StatusSuccess, Text: text.String()}
}

// GenerateScene generates a background image for the snapshot. On quota
// exhaustion the result signals the caller to start its retry countdown; any
// other failure, including a reply with no image part, degrades silently.
func (o *Orchestrator) GenerateScene(ctx context.Context, snap *weather.Snapshot) SceneResult {
	if !o.sceneEnabled() {
		return SceneResult{Status: StatusFailed}
	}

	uri, err := o.provider.GenerateImage(ctx, buildScenePrompt(snap))
	if err != nil {
		if errors.Is(err, ErrQuotaExhausted) {
			o.logger.Warn().
				Str("provider", o.provider.Name()).
				Str("city", snap.Location.Name).
				Msg("scene generation hit quota")
			return SceneResult{Status: StatusQuotaExceeded}
		}

		o.logger.Warn().
			Str("provider", o.provider.Name()).
			Str("city", snap.Location.Name).
			Err(err).
			Msg("scene generation failed")
		return SceneResult{Status: StatusFailed}
	}

	if uri == "" {
		o.logger.Debug().
			Str("provider", o.provider.Name()).
			Str("city", snap.Location.Name).
			Msg("scene reply had no image part")
		return SceneResult{Status: StatusFailed}
	}

	return SceneResult{Status: StatusSuccess, ImageDataURI: uri}
}
