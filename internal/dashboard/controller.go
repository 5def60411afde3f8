package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/skycastlabs/skycast/internal/ai"
	"github.com/skycastlabs/skycast/internal/geocode"
	"github.com/skycastlabs/skycast/internal/weather"
)

// Geocoder resolves free-text city names.
type Geocoder interface {
	Resolve(ctx context.Context, city string) (*geocode.Location, error)
}

// WeatherFetcher loads normalized conditions and outlooks.
type WeatherFetcher interface {
	GetCurrent(ctx context.Context, loc geocode.Location, units weather.UnitSystem) (*weather.Snapshot, error)
	GetForecast(ctx context.Context, loc geocode.Location, units weather.UnitSystem) (*weather.ForecastSet, error)
}

// Assistant runs the best-effort AI operations. Failures surface as fallback
// values, never as errors.
type Assistant interface {
	ParseIntent(ctx context.Context, query string) ai.ParsedQuery
	StreamInsight(ctx context.Context, snap *weather.Snapshot, intent string, onChunk func(chunk string)) ai.InsightResult
	GenerateScene(ctx context.Context, snap *weather.Snapshot) ai.SceneResult
}

// Countdown defaults.
const (
	DefaultSceneRetrySeconds = 86400
	DefaultCountdownInterval = time.Second
)

// ControllerConfig holds configuration for the dashboard controller.
type ControllerConfig struct {
	// Geocoder resolves search queries to coordinates.
	Geocoder Geocoder

	// Weather loads conditions for resolved locations.
	Weather WeatherFetcher

	// Assistant is the AI orchestrator.
	Assistant Assistant

	// Logger for controller operations.
	Logger zerolog.Logger

	// SceneRetrySeconds is the countdown started when scene generation
	// exhausts its quota (default: 86400, one day).
	SceneRetrySeconds int

	// CountdownInterval is how often the countdown decrements
	// (default: once per second).
	CountdownInterval time.Duration
}

// Controller owns the dashboard state. All mutation happens through its
// transition methods under a single mutex, so readers always observe a
// consistent snapshot/forecast pair.
type Controller struct {
	geocoder  Geocoder
	weather   WeatherFetcher
	assistant Assistant
	logger    zerolog.Logger

	sceneRetrySeconds int
	countdownInterval time.Duration

	mu               sync.Mutex
	state            State
	countdownRunning bool
}

// NewController creates a new dashboard controller.
func NewController(cfg ControllerConfig) *Controller {
	retrySeconds := cfg.SceneRetrySeconds
	if retrySeconds == 0 {
		retrySeconds = DefaultSceneRetrySeconds
	}

	interval := cfg.CountdownInterval
	if interval == 0 {
		interval = DefaultCountdownInterval
	}

	return &Controller{
		geocoder:          cfg.Geocoder,
		weather:           cfg.Weather,
		assistant:         cfg.Assistant,
		logger:            cfg.Logger,
		sceneRetrySeconds: retrySeconds,
		countdownInterval: interval,
		state:             State{Phase: PhaseIdle},
	}
}

// Current returns a copy of the dashboard state.
func (c *Controller) Current() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Search runs the full flow for a query: intent parse, geocode, parallel
// current+forecast fetch, then the AI operations in the background. It
// returns the state right after the weather resolves, with the insight and
// scene still in flight.
func (c *Controller) Search(ctx context.Context, query string, units weather.UnitSystem) (State, error) {
	gen := c.beginSearch(query)

	parsed := c.assistant.ParseIntent(ctx, query)

	loc, err := c.geocoder.Resolve(ctx, parsed.City)
	if err != nil {
		return c.searchFailed(gen, err), err
	}

	var (
		wg          sync.WaitGroup
		snap        *weather.Snapshot
		forecast    *weather.ForecastSet
		snapErr     error
		forecastErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		snap, snapErr = c.weather.GetCurrent(ctx, *loc, units)
	}()
	go func() {
		defer wg.Done()
		forecast, forecastErr = c.weather.GetForecast(ctx, *loc, units)
	}()
	wg.Wait()

	if snapErr != nil {
		return c.searchFailed(gen, snapErr), snapErr
	}
	if forecastErr != nil {
		return c.searchFailed(gen, forecastErr), forecastErr
	}

	return c.searchSucceeded(gen, parsed.Intent, snap, forecast), nil
}

// RetryScene re-runs scene generation immediately, bypassing any quota
// countdown. It requires loaded conditions.
func (c *Controller) RetryScene() (State, error) {
	c.mu.Lock()

	if c.state.Snapshot == nil {
		state := c.state
		c.mu.Unlock()
		return state, ErrNoSnapshot
	}

	gen := c.state.Generation
	snap := c.state.Snapshot
	c.state.Scene = SceneState{Generating: true}
	c.state.UpdatedAt = time.Now()
	state := c.state
	c.mu.Unlock()

	go c.attemptScene(gen, snap)

	return state, nil
}

// beginSearch bumps the generation and moves to the loading phase. The
// previous snapshot stays visible while the new one loads; the insight
// buffer resets immediately.
func (c *Controller) beginSearch(query string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Generation++
	c.state.Phase = PhaseLoading
	c.state.Query = query
	c.state.Intent = ""
	c.state.Error = ""
	c.state.Insight = InsightState{}
	c.state.UpdatedAt = time.Now()
	return c.state.Generation
}

// searchFailed clears the weather state and surfaces the error. A stale
// generation leaves the state untouched.
func (c *Controller) searchFailed(gen uint64, err error) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.state.Generation {
		return c.state
	}

	c.logger.Warn().
		Uint64("generation", gen).
		Str("query", c.state.Query).
		Err(err).
		Msg("search failed, clearing weather state")

	c.state.Phase = PhaseError
	c.state.Error = err.Error()
	c.state.Snapshot = nil
	c.state.Forecast = nil
	c.state.Intent = ""
	c.state.Insight = InsightState{}
	c.state.Scene = supersededScene(c.state.Scene)
	c.state.UpdatedAt = time.Now()
	return c.state
}

// searchSucceeded installs the new snapshot/forecast pair and launches the
// AI operations. Scene generation is skipped while the quota countdown is
// above zero.
func (c *Controller) searchSucceeded(gen uint64, intent string, snap *weather.Snapshot, forecast *weather.ForecastSet) State {
	c.mu.Lock()

	if gen != c.state.Generation {
		state := c.state
		c.mu.Unlock()
		return state
	}

	c.state.Phase = PhaseReady
	c.state.Intent = intent
	c.state.Snapshot = snap
	c.state.Forecast = forecast
	c.state.Insight = InsightState{Streaming: true}
	c.state.Scene = supersededScene(c.state.Scene)

	launchScene := !c.state.Scene.QuotaExhausted
	if launchScene {
		c.state.Scene = SceneState{Generating: true}
	}
	c.state.UpdatedAt = time.Now()
	state := c.state
	c.mu.Unlock()

	go c.streamInsight(gen, snap, intent)
	if launchScene {
		go c.attemptScene(gen, snap)
	}

	return state
}

// streamInsight runs the insight stream for one generation, appending chunks
// as they arrive. It detaches from the request context: the search response
// returns while this is still running.
func (c *Controller) streamInsight(gen uint64, snap *weather.Snapshot, intent string) {
	result := c.assistant.StreamInsight(context.Background(), snap, intent, func(chunk string) {
		c.appendInsight(gen, chunk)
	})
	c.finishInsight(gen, result.Status)
}

func (c *Controller) appendInsight(gen uint64, chunk string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.state.Generation {
		return
	}

	c.state.Insight.Text += chunk
	c.state.UpdatedAt = time.Now()
}

func (c *Controller) finishInsight(gen uint64, status ai.ResultStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.state.Generation {
		c.logger.Debug().
			Uint64("generation", gen).
			Msg("discarding stale insight result")
		return
	}

	c.state.Insight.Streaming = false
	c.state.Insight.Status = status
	c.state.UpdatedAt = time.Now()
}

func (c *Controller) attemptScene(gen uint64, snap *weather.Snapshot) {
	result := c.assistant.GenerateScene(context.Background(), snap)
	c.applyScene(gen, result)
}

// applyScene installs a scene result, superseding the previous scene state
// wholesale. Quota exhaustion starts the retry countdown.
func (c *Controller) applyScene(gen uint64, result ai.SceneResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.state.Generation {
		c.logger.Debug().
			Uint64("generation", gen).
			Msg("discarding stale scene result")
		return
	}

	switch result.Status {
	case ai.StatusSuccess:
		c.state.Scene = SceneState{ImageDataURI: result.ImageDataURI}
	case ai.StatusQuotaExceeded:
		c.state.Scene = SceneState{
			QuotaExhausted:    true,
			RetryAfterSeconds: c.sceneRetrySeconds,
		}
		c.startCountdownLocked()
	default:
		c.state.Scene = SceneState{}
	}
	c.state.UpdatedAt = time.Now()
}

// startCountdownLocked launches the countdown goroutine. Callers hold the
// state mutex. At most one countdown runs at a time.
func (c *Controller) startCountdownLocked() {
	if c.countdownRunning {
		return
	}
	c.countdownRunning = true
	go c.runCountdown()
}

// runCountdown decrements the scene retry countdown once per interval.
// Reaching zero re-permits generation and re-attempts immediately when
// conditions are loaded; an explicit retry stops the countdown early.
func (c *Controller) runCountdown() {
	ticker := time.NewTicker(c.countdownInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()

		if !c.state.Scene.QuotaExhausted {
			c.countdownRunning = false
			c.mu.Unlock()
			return
		}

		c.state.Scene.RetryAfterSeconds--
		c.state.UpdatedAt = time.Now()

		if c.state.Scene.RetryAfterSeconds > 0 {
			c.mu.Unlock()
			continue
		}

		c.countdownRunning = false
		gen := c.state.Generation
		snap := c.state.Snapshot
		if snap != nil {
			c.state.Scene = SceneState{Generating: true}
		} else {
			c.state.Scene = SceneState{}
		}
		c.mu.Unlock()

		if snap != nil {
			c.attemptScene(gen, snap)
		}
		return
	}
}

// supersededScene drops any previous image while preserving the provider
// quota countdown, which outlives individual searches.
func supersededScene(prev SceneState) SceneState {
	return SceneState{
		QuotaExhausted:    prev.QuotaExhausted,
		RetryAfterSeconds: prev.RetryAfterSeconds,
	}
}
