package types

// Box is a pixel-space bounding region inside a frame.
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Detection is one object located by the model in a frame.
type Detection struct {
	// Class index as reported by the model.
	ClassID int `json:"class_id"`
	// Human-readable class label (e.g., "empty_spot", "occupied_spot").
	Label string `json:"label"`
	// Confidence score in [0,1].
	Confidence float64 `json:"confidence"`
	// Bounding region in pixel coordinates.
	Box Box `json:"box"`
}

// Stats is the occupancy summary derived from one detection pass.
type Stats struct {
	Occupied      int `json:"occupied"`
	Empty         int `json:"empty"`
	TotalSpaces   int `json:"total_spaces"`
	OccupancyRate int `json:"occupancy_rate"`
	LotsDetected  int `json:"lots_detected"`
}
