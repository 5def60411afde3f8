package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/skycastlabs/skycast/internal/ai"
	"github.com/skycastlabs/skycast/internal/api/models"
	"github.com/skycastlabs/skycast/internal/api/response"
	"github.com/skycastlabs/skycast/internal/geocode"
	"github.com/skycastlabs/skycast/internal/weather"
)

// InsightHandler streams one-shot AI insights over Server-Sent Events. It
// runs the same orchestrator path as the dashboard but holds no state: each
// request resolves, fetches and streams, then ends.
type InsightHandler struct {
	geocoder  *geocode.Service
	weather   *weather.Service
	assistant *ai.Orchestrator
}

// NewInsightHandler creates a new InsightHandler.
func NewInsightHandler(geocoder *geocode.Service, weatherSvc *weather.Service, assistant *ai.Orchestrator) *InsightHandler {
	return &InsightHandler{
		geocoder:  geocoder,
		weather:   weatherSvc,
		assistant: assistant,
	}
}

// Stream handles GET /v1/insight/stream?city=&units=&intent= - an SSE stream
// of insight chunks followed by a terminal done event carrying the outcome.
// Parameter and provider errors are written as problem responses before any
// event is sent; once streaming starts the stream itself is the response.
func (h *InsightHandler) Stream(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	intent := r.URL.Query().Get("intent")

	units, err := weather.ParseUnitSystem(r.URL.Query().Get("units"))
	if err != nil {
		response.BadRequest(w, r, "invalid units", []models.FieldError{
			{Field: "units", Message: "must be metric or imperial"},
		})
		return
	}

	loc, err := h.geocoder.Resolve(r.Context(), city)
	if err != nil {
		writeGeocodeError(w, r, city, err)
		return
	}

	snap, err := h.weather.GetCurrent(r.Context(), *loc, units)
	if err != nil {
		writeWeatherError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalError(w, r, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	result := h.assistant.StreamInsight(r.Context(), snap, intent, func(chunk string) {
		writeSSEData(w, chunk)
		flusher.Flush()
	})

	fmt.Fprintf(w, "event: done\ndata: %s\n\n", result.Status)
	flusher.Flush()
}

// writeSSEData writes one chunk as a single SSE data event. Chunks may span
// multiple lines; every line needs its own data: prefix.
func writeSSEData(w http.ResponseWriter, chunk string) {
	for _, line := range strings.Split(chunk, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
}
