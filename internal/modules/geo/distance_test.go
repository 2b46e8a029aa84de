package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMetersZeroForSamePoint(t *testing.T) {
	points := []Position{
		{Lat: 0, Lng: 0},
		{Lat: 35.6895, Lng: 139.6917},
		{Lat: -90, Lng: 180},
		{Lat: 89.999, Lng: -179.999},
	}
	for _, p := range points {
		assert.InDelta(t, 0, DistanceMeters(p, p), 1e-6)
	}
}

func TestDistanceMetersSymmetry(t *testing.T) {
	a := Position{Lat: 35.0, Lng: 139.0}
	b := Position{Lat: 36.0, Lng: 140.0}
	assert.Equal(t, DistanceMeters(a, b), DistanceMeters(b, a))
}

func TestDistanceMetersKnownValues(t *testing.T) {
	// Tokyo Station to Shinjuku Station, roughly 6.2 km.
	tokyo := Position{Lat: 35.6812, Lng: 139.7671}
	shinjuku := Position{Lat: 35.6896, Lng: 139.7006}
	d := DistanceMeters(tokyo, shinjuku)
	assert.InDelta(t, 6100, d, 300)

	// ~1.3 m apart: one hundred-thousandth of a degree in both axes.
	a := Position{Lat: 35.0, Lng: 139.0}
	b := Position{Lat: 35.00001, Lng: 139.00001}
	near := DistanceMeters(a, b)
	assert.Greater(t, near, 0.0)
	assert.Less(t, near, 50.0)

	// A full degree apart is on the order of 100 km.
	far := DistanceMeters(Position{Lat: 35, Lng: 139}, Position{Lat: 36, Lng: 140})
	assert.Greater(t, far, 100_000.0)
}

func TestDistanceMetersNonNegative(t *testing.T) {
	a := Position{Lat: -45.3, Lng: -170.2}
	b := Position{Lat: 72.1, Lng: 12.9}
	assert.GreaterOrEqual(t, DistanceMeters(a, b), 0.0)
}

func TestWithinDistance(t *testing.T) {
	a := Position{Lat: 35.0, Lng: 139.0}
	b := Position{Lat: 35.00001, Lng: 139.00001}
	assert.True(t, WithinDistance(a, b, 50))
	assert.False(t, WithinDistance(a, Position{Lat: 36, Lng: 140}, 50))
}

func TestPositionInRange(t *testing.T) {
	assert.True(t, Position{Lat: 0, Lng: 0}.InRange())
	assert.True(t, Position{Lat: -90, Lng: 180}.InRange())
	assert.False(t, Position{Lat: 90.0001, Lng: 0}.InRange())
	assert.False(t, Position{Lat: 0, Lng: -180.0001}.InRange())
	assert.False(t, Position{Lat: math.NaN(), Lng: 0}.InRange())
	assert.False(t, Position{Lat: 0, Lng: math.Inf(1)}.InRange())
}

func TestFormatDistance(t *testing.T) {
	assert.Equal(t, "42m", FormatDistance(42.4))
	assert.Equal(t, "1.5km", FormatDistance(1480))
}
