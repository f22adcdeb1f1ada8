// Package grasp holds the grasp candidate data model and the result
// post-processing applied between the engine and the wire.
package grasp

// Candidate is one proposed gripper pose as produced by the engine.
// Field names match the wire format; candidates are immutable once
// produced.
type Candidate struct {
	Score          float64       `json:"score"`
	Width          float64       `json:"width"`
	Height         float64       `json:"height"`
	Depth          float64       `json:"depth"`
	Translation    [3]float64    `json:"translation"`
	RotationMatrix [3][3]float64 `json:"rotation_matrix"`
	// ObjectID is -1 when the engine has no object association.
	ObjectID int `json:"object_id"`
}

// Detection is the raw engine output for one request. Suppressed reports
// whether the engine already applied its own near-duplicate suppression,
// in which case the post-processor skips the geometric fallback.
type Detection struct {
	Grasps     []Candidate
	Suppressed bool
}
