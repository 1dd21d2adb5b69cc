package geo

import (
	"math"

	"attendance.service/internal/core/model"
)

// HubLocation is the fixed site whose proximity gates attendance actions.
// Loaded once from config at startup, never mutated.
type HubLocation struct {
	model.Coordinate
	RadiusMeters float64
}

// Evaluation is the result of checking a sample against the hub geofence.
type Evaluation struct {
	InRange        bool `json:"inRange"`
	DistanceMeters int  `json:"distanceMeters"`
}

// Evaluate classifies a sample as in or out of the hub's circular geofence.
// Distance is rounded to whole meters before the comparison and the boundary
// is inclusive: a sample exactly at the radius passes. This never fails;
// callers decide what an out-of-range sample means.
func Evaluate(sample model.Coordinate, hub HubLocation) Evaluation {
	meters := int(math.Round(Distance(sample, hub.Coordinate)))
	return Evaluation{
		InRange:        float64(meters) <= hub.RadiusMeters,
		DistanceMeters: meters,
	}
}
