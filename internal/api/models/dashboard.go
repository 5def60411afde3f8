package models

// SearchRequest is the body of the dashboard search endpoint.
type SearchRequest struct {
	Query string `json:"query"`
	Units string `json:"units,omitempty"`
}

// InsightState is the AI insight portion of the dashboard state.
type InsightState struct {
	Streaming bool   `json:"streaming"`
	Text      string `json:"text,omitempty"`
	Status    string `json:"status,omitempty"`
}

// SceneState is the AI scene portion of the dashboard state.
type SceneState struct {
	Generating        bool   `json:"generating"`
	ImageDataURI      string `json:"imageDataUri,omitempty"`
	QuotaExhausted    bool   `json:"quotaExhausted"`
	RetryAfterSeconds int    `json:"retryAfterSeconds,omitempty"`
}

// DashboardState is the application state returned by the dashboard
// endpoints. The insight text grows across polls while streaming; the scene
// countdown is visible while the image quota is exhausted.
type DashboardState struct {
	Phase      string           `json:"phase"`
	Query      string           `json:"query,omitempty"`
	Intent     string           `json:"intent,omitempty"`
	Error      string           `json:"error,omitempty"`
	Snapshot   *WeatherSnapshot `json:"snapshot,omitempty"`
	Forecast   *ForecastSet     `json:"forecast,omitempty"`
	Insight    InsightState     `json:"insight"`
	Scene      SceneState       `json:"scene"`
	Generation uint64           `json:"generation"`
	UpdatedAt  Timestamp        `json:"updatedAt"`
}
