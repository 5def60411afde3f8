package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/skycastlabs/skycast/internal/api/models"
	"github.com/skycastlabs/skycast/internal/api/response"
	"github.com/skycastlabs/skycast/internal/dashboard"
	"github.com/skycastlabs/skycast/internal/geocode"
	"github.com/skycastlabs/skycast/internal/weather"
)

// DashboardHandler exposes the dashboard controller over HTTP.
type DashboardHandler struct {
	ctrl *dashboard.Controller
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(ctrl *dashboard.Controller) *DashboardHandler {
	return &DashboardHandler{ctrl: ctrl}
}

// Search handles POST /v1/dashboard/search - run the full search flow and
// return the state once the weather has resolved. The AI insight and scene
// keep streaming in afterwards; clients pick them up by polling.
func (h *DashboardHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		response.BadRequest(w, r, "query is required", []models.FieldError{
			{Field: "query", Message: "must not be empty"},
		})
		return
	}

	units, err := weather.ParseUnitSystem(req.Units)
	if err != nil {
		response.BadRequest(w, r, "invalid units", []models.FieldError{
			{Field: "units", Message: "must be metric or imperial"},
		})
		return
	}

	state, err := h.ctrl.Search(r.Context(), req.Query, units)
	if err != nil {
		writeSearchError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toDashboardState(state))
}

// State handles GET /v1/dashboard - the poll target. The insight text grows
// across polls while the stream runs; the scene countdown ticks down while
// the quota is exhausted.
func (h *DashboardHandler) State(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, toDashboardState(h.ctrl.Current()))
}

// RetryScene handles POST /v1/dashboard/scene/retry - an explicit user retry
// of scene generation that bypasses the quota countdown.
func (h *DashboardHandler) RetryScene(w http.ResponseWriter, r *http.Request) {
	state, err := h.ctrl.RetryScene()
	if err != nil {
		if errors.Is(err, dashboard.ErrNoSnapshot) {
			response.Conflict(w, r, "no conditions loaded; search for a city first")
			return
		}
		response.InternalError(w, r, "scene retry failed")
		return
	}

	response.JSON(w, r, http.StatusOK, toDashboardState(state))
}

// writeSearchError maps search flow errors to problem responses. The
// controller has already recorded the failure in the dashboard state, so
// polling clients see it as well.
func writeSearchError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, geocode.ErrEmptyQuery):
		response.BadRequest(w, r, "city is required", []models.FieldError{
			{Field: "query", Message: "must name a city"},
		})
	case errors.Is(err, geocode.ErrCityNotFound):
		response.NotFound(w, r, "city not found")
	case errors.Is(err, weather.ErrProviderUnavailable):
		response.BadGateway(w, r, "weather provider unavailable")
	default:
		response.BadGateway(w, r, "geocoding provider unavailable")
	}
}
