package domain

import "math"

// Depth and damage model constants.
const (
	DecayPerDegree    = 55.0 // metres of depth lost per degree from the river
	AffectedThreshold = 0.05 // metres
	DamageCoefficient = 0.8
	MaxDamageRatio    = 0.95
)

// Centerline is the river polyline the depth model measures distance to.
var Centerline = [4]Geo{
	{Lat: 45.7950, Lon: 4.8450},
	{Lat: 45.7700, Lon: 4.8400},
	{Lat: 45.7450, Lon: 4.8330},
	{Lat: 45.7200, Lon: 4.8250},
}

// DepthAt returns the water depth in metres at point for a water level in
// centimetres, after mitigation. The result is never negative.
func DepthAt(point Geo, levelCm float64, m Mitigation) float64 {
	level := levelCm / 100 * (1 - m.Attenuation())
	depth := level - float64(distanceToCenterline(point)*DecayPerDegree)
	return math.Max(0, depth)
}

// DamageRatio returns the share of replacement cost lost at depth metres,
// in [0, MaxDamageRatio].
func DamageRatio(depth float64) float64 {
	depth = math.Max(0, depth)
	return math.Min(MaxDamageRatio, 1-math.Exp(-DamageCoefficient*depth))
}

// distanceToCenterline is the minimum planar distance, in degrees, from p to
// any segment of the Centerline.
func distanceToCenterline(p Geo) float64 {
	best := math.Inf(1)
	for i := 0; i < len(Centerline)-1; i++ {
		best = math.Min(best, segmentDistance(p, Centerline[i], Centerline[i+1]))
	}
	return best
}

func segmentDistance(p, a, b Geo) float64 {
	dx := b.Lon - a.Lon
	dy := b.Lat - a.Lat
	l2 := float64(dx*dx) + float64(dy*dy)

	var t float64
	if l2 > 0 {
		t = (float64((p.Lon-a.Lon)*dx) + float64((p.Lat-a.Lat)*dy)) / l2
	}
	t = math.Max(0, math.Min(1, t))

	ex := p.Lon - (a.Lon + float64(t*dx))
	ey := p.Lat - (a.Lat + float64(t*dy))
	return math.Sqrt(float64(ex*ex) + float64(ey*ey))
}
