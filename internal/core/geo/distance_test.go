package geo

import (
	"math"
	"testing"

	"attendance.service/internal/core/model"
)

var hubPoint = model.Coordinate{Latitude: 8.479898, Longitude: 4.541840}

func TestDistanceZeroForSamePoint(t *testing.T) {
	points := []model.Coordinate{
		hubPoint,
		{Latitude: 0, Longitude: 0},
		{Latitude: -89.9, Longitude: 179.9},
		{Latitude: 51.5007, Longitude: -0.1246},
	}
	for _, p := range points {
		if d := Distance(p, p); d != 0 {
			t.Fatalf("Distance(%v, %v) = %v, want 0", p, p, d)
		}
	}
}

func TestDistanceSymmetry(t *testing.T) {
	pairs := [][2]model.Coordinate{
		{hubPoint, {Latitude: 8.4969, Longitude: 4.5421}},
		{{Latitude: 51.5007, Longitude: -0.1246}, {Latitude: 40.6892, Longitude: -74.0445}},
		{{Latitude: -33.8568, Longitude: 151.2153}, {Latitude: 35.6586, Longitude: 139.7454}},
	}
	for _, pair := range pairs {
		ab := Distance(pair[0], pair[1])
		ba := Distance(pair[1], pair[0])
		if ab != ba {
			t.Fatalf("Distance not symmetric: %v vs %v", ab, ba)
		}
	}
}

func TestDistanceHundredMetersNorthOfHub(t *testing.T) {
	// ~0.0009 degrees of latitude is about 100m on the R=6371km sphere.
	sample := model.Coordinate{Latitude: 8.480798, Longitude: 4.541840}

	d := Distance(hubPoint, sample)
	if math.Abs(d-100) > 1 {
		t.Fatalf("expected ~100m, got %.3fm", d)
	}
}

func TestDistanceKnownFixture(t *testing.T) {
	// London Eye to the Statue of Liberty, a long great-circle leg.
	a := model.Coordinate{Latitude: 51.5007, Longitude: -0.1246}
	b := model.Coordinate{Latitude: 40.6892, Longitude: -74.0445}

	d := Distance(a, b)
	if math.Abs(d-5574840) > 5000 {
		t.Fatalf("expected ~5574.8km, got %.1fkm", d/1000)
	}
}
