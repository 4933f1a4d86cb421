package component

import "github.com/navalrts/server/internal/core/timer"

// DetectionStatus tracks whether the opposing team currently sees the entity.
// Boost is the detected-by-firing countdown; BoostRange is the range it
// grants while running.
type DetectionStatus struct {
	Detected   bool
	Boost      timer.Timer
	BoostRange float64
}

// BaseDetection is the entity's unboosted detection range, and the range it
// is seen at while firing from inside smoke.
type BaseDetection struct {
	Range        float64
	ThroughSmoke float64
}

// Detector marks entities that can spot enemies.
type Detector struct{}
