package types

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: no camera could capture a frame
	Error string `json:"error" example:"no camera could capture a frame"`
	// HTTP status code.
	// example: 503
	Code int `json:"code" example:"503"`
}

// AnalysisResponse is returned by POST /snapshot and POST /analyze.
type AnalysisResponse struct {
	// Annotated result image as an inline data URI.
	// example: data:image/jpeg;base64,/9j/4AAQ...
	Image string `json:"image" example:"data:image/jpeg;base64,/9j/4AAQ..."`
	// Occupancy statistics computed from the detections.
	Stats Stats `json:"stats"`
	// Raw detections the statistics were reduced from.
	Detections []Detection `json:"detections"`
	// Where the input frame came from: "capture" or "upload".
	// example: capture
	Source string `json:"source" example:"capture"`
	// Time the result was produced (RFC 3339).
	// example: 2025-11-08T12:34:56Z
	UpdatedAt string `json:"updated_at" example:"2025-11-08T12:34:56Z"`
}

// DashboardResponse is returned by GET /dashboard.
type DashboardResponse struct {
	// Total parking spaces known (store baseline or latest detection).
	// example: 40
	TotalSpots int `json:"total_spots" example:"40"`
	// Spaces currently occupied.
	// example: 25
	OccupiedSpots int `json:"occupied_spots" example:"25"`
	// Spaces currently free.
	// example: 15
	FreeSpots int `json:"free_spots" example:"15"`
	// Occupancy percentage 0-100.
	// example: 62
	OccupancyRate int `json:"occupancy_rate" example:"62"`
	// Source of the displayed numbers: "store", "capture" or "upload".
	// example: capture
	Source string `json:"source" example:"capture"`
	// Time of the latest analysis, empty when showing store baseline.
	UpdatedAt string `json:"updated_at,omitempty"`
}

// HistoryPoint is one analytics sample for the occupancy chart.
type HistoryPoint struct {
	// Sample time (RFC 3339).
	// example: 2025-11-08T12:00:00Z
	Timestamp string `json:"timestamp" example:"2025-11-08T12:00:00Z"`
	// Occupancy percentage 0-100 at that time.
	// example: 60
	OccupancyRate int `json:"occupancy_rate" example:"60"`
}

// HistoryResponse is returned by GET /api/stats.
type HistoryResponse struct {
	// Chronological occupancy samples, oldest first.
	Points []HistoryPoint `json:"points"`
}

// CameraResponse is returned by GET /camera.
type CameraResponse struct {
	// True when at least one capture backend looks usable.
	// example: true
	Ready bool `json:"ready" example:"true"`
	// Names of the capture backends configured on this host.
	Adapters []string `json:"adapters"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// True when the detection model is loaded.
	// example: true
	ModelLoaded bool `json:"model_loaded" example:"true"`
	// Path of the model artifact on disk.
	// example: /var/lib/parkd/best.onnx
	ModelPath string `json:"model_path" example:"/var/lib/parkd/best.onnx"`
	// Detector backend in use (dnn or ort).
	// example: dnn
	Backend string `json:"backend" example:"dnn"`
	// Total successful analyses since start.
	// example: 12
	AnalysesTotal uint64 `json:"analyses_total" example:"12"`
	// Last error observed (if any).
	LastError string `json:"last_error,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
