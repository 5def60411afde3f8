// Package ai orchestrates the best-effort generative calls around a weather
// snapshot: query intent parsing, the streamed conditions insight, and the
// background scene image. Every operation degrades to a fixed fallback; none
// of them may block or fail the core weather display.
package ai

import "errors"

// ErrQuotaExhausted signals that the provider refused a call because its
// usage quota or rate limit was reached.
var ErrQuotaExhausted = errors.New("ai quota exhausted")

// ResultStatus is the terminal outcome of a best-effort AI operation.
// Callers handle all three variants explicitly.
type ResultStatus string

const (
	StatusSuccess       ResultStatus = "SUCCESS"
	StatusQuotaExceeded ResultStatus = "QUOTA_EXCEEDED"
	StatusFailed        ResultStatus = "FAILED"
)

// Fixed user-facing fallback chunks for the insight stream. Each is emitted
// as the single chunk of a failed stream.
const (
	// QuotaMessage is the apology shown when the provider reports quota
	// exhaustion.
	QuotaMessage = "Sorry, the AI assistant has reached its usage limit for today. Your weather data is still live and up to date."

	// UnavailableMessage is shown on any other insight failure.
	UnavailableMessage = "AI insights are temporarily unavailable. Your weather data is still live and up to date."
)

// ParsedQuery is the resolved form of a free-text search query.
type ParsedQuery struct {
	// City is the place to look up. Holds the raw query verbatim when no
	// parse happened.
	City string `json:"city"`

	// Intent is what the user wants to know about the weather. Empty when
	// the query was only a place name.
	Intent string `json:"intent,omitempty"`
}

// InsightResult is the outcome of one insight stream. Text is the
// concatenation of every chunk delivered, fallback messages included.
type InsightResult struct {
	Status ResultStatus
	Text   string
}

// SceneResult is the outcome of one scene generation attempt. ImageDataURI
// is only set on success. On quota exhaustion the caller owns the retry
// countdown; this package never retries.
type SceneResult struct {
	Status       ResultStatus
	ImageDataURI string
}
