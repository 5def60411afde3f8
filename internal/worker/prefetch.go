package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/skycastlabs/skycast/internal/featureflags"
	"github.com/skycastlabs/skycast/internal/geocode"
	"github.com/skycastlabs/skycast/internal/weather"
)

// PrefetchJob keeps the weather cache warm for a configured city list.
type PrefetchJob struct {
	config   PrefetchConfig
	logger   zerolog.Logger
	flags    *featureflags.Service
	geocoder *geocode.Service
	weather  *weather.Service

	metrics *PrefetchMetrics
}

// PrefetchMetrics tracks prefetch job statistics.
type PrefetchMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalRuns       int64
	SkippedRuns     int64
	SuccessfulWarms int64
	FailedWarms     int64
	CurrentWarms    int64
	ForecastWarms   int64

	// Timings
	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// PrefetchJobConfig holds configuration for creating a PrefetchJob.
type PrefetchJobConfig struct {
	Config   PrefetchConfig
	Logger   zerolog.Logger
	Geocoder *geocode.Service
	Weather  *weather.Service

	// Flags gates the interval prefetch (optional). On-demand refreshes
	// are always served.
	Flags *featureflags.Service
}

// NewPrefetchJob creates a new prefetch job processor.
func NewPrefetchJob(cfg PrefetchJobConfig) *PrefetchJob {
	config := cfg.Config
	if len(config.Cities) == 0 {
		config = DefaultPrefetchConfig()
	}

	return &PrefetchJob{
		config:   config,
		logger:   cfg.Logger,
		flags:    cfg.Flags,
		geocoder: cfg.Geocoder,
		weather:  cfg.Weather,
		metrics:  &PrefetchMetrics{},
	}
}

// PrefetchResult contains the result of one prefetch run.
type PrefetchResult struct {
	JobID        string
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
	TotalTargets int
	Successful   int
	Failed       int
	Skipped      bool
	Errors       []PrefetchError
}

// PrefetchError represents a failed warm for one target.
type PrefetchError struct {
	Stage  string
	Target Target
	Error  string
}

// Run executes one prefetch pass over all configured targets. The run is
// skipped, and marked as such, when the prefetch feature flag is disabled.
func (j *PrefetchJob) Run(ctx context.Context) *PrefetchResult {
	startTime := time.Now()
	result := &PrefetchResult{
		JobID:        uuid.New().String(),
		StartTime:    startTime,
		TotalTargets: j.config.TotalTargets(),
	}

	logger := j.logger.With().Str("job_id", result.JobID).Logger()

	if j.flags != nil && !j.flags.IsWorkerPrefetchEnabled() {
		logger.Info().Msg("prefetch disabled by feature flag, skipping run")
		result.Skipped = true
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(startTime)
		j.recordSkip()
		return result
	}

	logger.Info().
		Int("total_targets", result.TotalTargets).
		Int("concurrency", j.config.Concurrency).
		Msg("starting cache prefetch")

	targets := j.config.Targets()

	targetsChan := make(chan Target, len(targets))
	resultsChan := make(chan targetResult, len(targets))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.warmWorker(ctx, targetsChan, resultsChan)
		}()
	}

	for _, target := range targets {
		targetsChan <- target
	}
	close(targetsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for tr := range resultsChan {
		if tr.success {
			result.Successful++
		} else {
			result.Failed++
		}
		result.Errors = append(result.Errors, tr.errors...)
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.recordRun(result)

	logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("cache prefetch completed")

	return result
}

// RunEvery runs the job immediately and then on the configured interval
// until the context ends.
func (j *PrefetchJob) RunEvery(ctx context.Context) {
	j.Run(ctx)

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Run(ctx)
		}
	}
}

type targetResult struct {
	target  Target
	success bool
	errors  []PrefetchError
}

func (j *PrefetchJob) warmWorker(ctx context.Context, targets <-chan Target, results chan<- targetResult) {
	for target := range targets {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.warmTarget(ctx, target)
		}
	}
}

func (j *PrefetchJob) warmTarget(ctx context.Context, target Target) targetResult {
	result := targetResult{
		target:  target,
		success: true,
	}

	targetCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	loc, err := j.geocoder.Resolve(targetCtx, target.City)
	if err != nil {
		result.errors = append(result.errors, PrefetchError{
			Stage:  "geocode",
			Target: target,
			Error:  err.Error(),
		})
		result.success = false
		return result
	}

	if j.config.WarmCurrent {
		if _, err := j.weather.GetCurrent(targetCtx, *loc, target.Units); err != nil {
			result.errors = append(result.errors, PrefetchError{
				Stage:  "current",
				Target: target,
				Error:  err.Error(),
			})
			result.success = false
		} else {
			atomic.AddInt64(&j.metrics.CurrentWarms, 1)
		}
	}

	if j.config.WarmForecast {
		if _, err := j.weather.GetForecast(targetCtx, *loc, target.Units); err != nil {
			result.errors = append(result.errors, PrefetchError{
				Stage:  "forecast",
				Target: target,
				Error:  err.Error(),
			})
			result.success = false
		} else {
			atomic.AddInt64(&j.metrics.ForecastWarms, 1)
		}
	}

	return result
}

// WarmCity warms a single city on demand. Refresh requests name their city
// explicitly, so the prefetch feature flag does not apply.
func (j *PrefetchJob) WarmCity(ctx context.Context, city string, units weather.UnitSystem) error {
	warmCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	loc, err := j.geocoder.Resolve(warmCtx, city)
	if err != nil {
		return err
	}

	if _, err := j.weather.GetCurrent(warmCtx, *loc, units); err != nil {
		return err
	}
	atomic.AddInt64(&j.metrics.CurrentWarms, 1)

	if _, err := j.weather.GetForecast(warmCtx, *loc, units); err != nil {
		return err
	}
	atomic.AddInt64(&j.metrics.ForecastWarms, 1)

	return nil
}

func (j *PrefetchJob) recordRun(result *PrefetchResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.SuccessfulWarms += int64(result.Successful)
	j.metrics.FailedWarms += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

func (j *PrefetchJob) recordSkip() {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()
	j.metrics.SkippedRuns++
}

// GetMetrics returns a copy of the current metrics.
func (j *PrefetchJob) GetMetrics() PrefetchMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return PrefetchMetrics{
		TotalRuns:       j.metrics.TotalRuns,
		SkippedRuns:     j.metrics.SkippedRuns,
		SuccessfulWarms: j.metrics.SuccessfulWarms,
		FailedWarms:     j.metrics.FailedWarms,
		CurrentWarms:    atomic.LoadInt64(&j.metrics.CurrentWarms),
		ForecastWarms:   atomic.LoadInt64(&j.metrics.ForecastWarms),
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
		TotalDuration:   j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *PrefetchJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":        m.TotalRuns,
		"skipped_runs":      m.SkippedRuns,
		"successful_warms":  m.SuccessfulWarms,
		"failed_warms":      m.FailedWarms,
		"current_warms":     m.CurrentWarms,
		"forecast_warms":    m.ForecastWarms,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
		"total_duration":    m.TotalDuration.String(),
	}
}
