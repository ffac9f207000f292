package elev

import (
	"math"
	"time"
)

// Profile is the car's kinematics: constant acceleration up to a top speed,
// an optional cruise, and symmetric deceleration.
type Profile struct {
	Acceleration  float64 // m/s^2
	TopSpeed      float64 // m/s
	FloorDistance float64 // m
}

// TravelTime is the time in seconds to cover distance metres from rest to rest.
func (p Profile) TravelTime(distance float64) float64 {
	if distance <= 0 {
		return 0
	}
	rampTime, rampDistance, peak := p.ramp(distance)
	return 2*rampTime + (distance-2*rampDistance)/peak
}

// ramp returns the duration and length of the acceleration phase and the
// speed reached at its end.
func (p Profile) ramp(distance float64) (float64, float64, float64) {
	fullRamp := p.TopSpeed * p.TopSpeed / (2 * p.Acceleration)
	if distance > 2*fullRamp {
		return p.TopSpeed / p.Acceleration, fullRamp, p.TopSpeed
	}
	t := math.Sqrt(distance / p.Acceleration)
	return t, distance / 2, p.Acceleration * t
}

// timeAt is when position x is reached on a trip of the given distance.
func (p Profile) timeAt(x, distance float64) float64 {
	rampTime, rampDistance, peak := p.ramp(distance)
	switch {
	case x <= rampDistance:
		return math.Sqrt(2 * x / p.Acceleration)
	case x <= distance-rampDistance:
		return rampTime + (x-rampDistance)/peak
	default:
		return p.TravelTime(distance) - math.Sqrt(2*(distance-x)/p.Acceleration)
	}
}

// Legs splits a trip of floors floors into the holds between consecutive
// floor crossings. The last leg ends at arrival, so there are floors legs.
func (p Profile) Legs(floors int) []time.Duration {
	if floors < 0 {
		floors = -floors
	}
	distance := float64(floors) * p.FloorDistance
	legs := make([]time.Duration, 0, floors)
	prev := 0.0
	for k := 1; k <= floors; k++ {
		at := p.TravelTime(distance)
		if k < floors {
			at = p.timeAt(float64(k)*p.FloorDistance, distance)
		}
		legs = append(legs, seconds(at-prev))
		prev = at
	}
	return legs
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
