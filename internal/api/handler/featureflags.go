package handler

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/skycastlabs/skycast/internal/api/models"
	"github.com/skycastlabs/skycast/internal/api/response"
	"github.com/skycastlabs/skycast/internal/featureflags"
)

// FeatureFlagsHandler handles feature flag endpoints.
type FeatureFlagsHandler struct {
	service *featureflags.Service
}

// NewFeatureFlagsHandler creates a new FeatureFlagsHandler.
func NewFeatureFlagsHandler(service *featureflags.Service) *FeatureFlagsHandler {
	return &FeatureFlagsHandler{service: service}
}

// ListFeatureFlags handles GET /v1/ops/flags - list all feature flags.
func (h *FeatureFlagsHandler) ListFeatureFlags(w http.ResponseWriter, r *http.Request) {
	all := h.service.GetAllFlags()

	flags := make([]models.FeatureFlag, 0, len(all))
	for _, flag := range all {
		flags = append(flags, toFeatureFlag(flag))
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i].Key < flags[j].Key })

	response.JSON(w, r, http.StatusOK, models.FeatureFlagList{Flags: flags})
}

// UpdateFeatureFlag handles PUT /v1/ops/flags/{key} - override one flag at
// runtime. Only known flags can be overridden.
func (h *FeatureFlagsHandler) UpdateFeatureFlag(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	if h.service.GetFlag(key) == nil {
		response.NotFound(w, r, "unknown feature flag: "+key)
		return
	}

	var req models.FeatureFlagUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	flag := &featureflags.Flag{Key: key, Value: req.Value}
	h.service.SetFlag(flag)

	response.JSON(w, r, http.StatusOK, toFeatureFlag(flag))
}

func toFeatureFlag(flag *featureflags.Flag) models.FeatureFlag {
	return models.FeatureFlag{
		Key:       flag.Key,
		Value:     flag.Value,
		UpdatedAt: models.Timestamp(flag.UpdatedAt),
	}
}
