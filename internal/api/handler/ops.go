// Package handler provides HTTP handlers for the Skycast API.
package handler

import (
	"net/http"
	"time"

	"github.com/skycastlabs/skycast/internal/api/models"
	"github.com/skycastlabs/skycast/internal/api/response"
	"github.com/skycastlabs/skycast/internal/provider/resilience"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	startTime time.Time
	providers *resilience.Registry
}

// NewOpsHandler creates a new OpsHandler. The registry may be nil, in which
// case the status endpoints report no providers.
func NewOpsHandler(version, buildTime string, startTime time.Time, providers *resilience.Registry) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		startTime: startTime,
		providers: providers,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
// The API serves cached data while circuits recover, so readiness only fails
// when every upstream circuit is open.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := h.aggregateStatus()

	code := http.StatusOK
	if status == models.HealthStatusFail {
		code = http.StatusServiceUnavailable
	}

	health := models.Health{
		Status: status,
		Time:   models.Timestamp(time.Now()),
	}
	response.JSON(w, r, code, health)
}

// SystemStatus handles GET /v1/ops/status - version, uptime and per-provider
// circuit breaker state.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:        h.aggregateStatus(),
		Time:          models.Timestamp(time.Now()),
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Providers:     h.providerStatuses(),
	}
	response.JSON(w, r, http.StatusOK, status)
}

// aggregateStatus folds all provider circuit states into a single status:
// every circuit closed is OK, any open or half-open circuit degrades the
// service, and all circuits open means no upstream is reachable.
func (h *OpsHandler) aggregateStatus() models.HealthStatus {
	if h.providers == nil {
		return models.HealthStatusOK
	}

	all := h.providers.GetAllHealth()
	if len(all) == 0 {
		return models.HealthStatusOK
	}

	unhealthy := 0
	degraded := 0
	for _, ph := range all {
		switch {
		case ph.IsUnhealthy():
			unhealthy++
		case ph.IsDegraded():
			degraded++
		}
	}

	switch {
	case unhealthy == len(all):
		return models.HealthStatusFail
	case unhealthy > 0 || degraded > 0:
		return models.HealthStatusDegraded
	default:
		return models.HealthStatusOK
	}
}

func (h *OpsHandler) providerStatuses() []models.ProviderStatus {
	if h.providers == nil {
		return nil
	}

	all := h.providers.GetAllHealth()
	statuses := make([]models.ProviderStatus, 0, len(all))
	for _, ph := range all {
		status := models.HealthStatusOK
		switch {
		case ph.IsUnhealthy():
			status = models.HealthStatusFail
		case ph.IsDegraded():
			status = models.HealthStatusDegraded
		}

		statuses = append(statuses, models.ProviderStatus{
			Provider:     ph.Name,
			Status:       status,
			CircuitState: ph.CircuitState.String(),
			Requests:     ph.Counts.Requests,
			Failures:     ph.Counts.TotalFailures,
		})
	}
	return statuses
}
