// Package dashboard owns the application state machine behind the dashboard
// endpoints: one explicit state struct, mutated only through controller
// transitions.
package dashboard

import (
	"errors"
	"time"

	"github.com/skycastlabs/skycast/internal/ai"
	"github.com/skycastlabs/skycast/internal/weather"
)

// Controller errors.
var (
	ErrNoSnapshot = errors.New("no conditions loaded")
)

// Phase is the top-level lifecycle of the dashboard.
type Phase string

// Dashboard phases.
const (
	PhaseIdle    Phase = "IDLE"
	PhaseLoading Phase = "LOADING"
	PhaseReady   Phase = "READY"
	PhaseError   Phase = "ERROR"
)

// InsightState tracks the streamed conditions insight. Text grows append-only
// while Streaming is true and is reset when a new search begins.
type InsightState struct {
	Streaming bool
	Text      string
	Status    ai.ResultStatus
}

// SceneState tracks the background scene image. Each generation attempt
// supersedes it wholesale. While RetryAfterSeconds is above zero, searches
// skip scene generation; an explicit retry bypasses the countdown.
type SceneState struct {
	Generating        bool
	ImageDataURI      string
	QuotaExhausted    bool
	RetryAfterSeconds int
}

// State is the complete dashboard state. Snapshot and Forecast always
// describe the same city: they are replaced together, never individually.
type State struct {
	Phase  Phase
	Query  string
	Intent string
	Error  string

	Snapshot *weather.Snapshot
	Forecast *weather.ForecastSet

	Insight InsightState
	Scene   SceneState

	// Generation increases with every search. AI callbacks carry the
	// generation they were launched under; stale ones are discarded.
	Generation uint64

	UpdatedAt time.Time
}
