package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput     Phase = iota // 0: drain the inbound queue, run handlers
	PhaseMovement               // 1: ships, projectiles, reload and smoke timers
	PhaseCollision              // 2: hits and damage
	PhaseDetection              // 3: visibility between teams
	PhaseWeapons                // 4: turret aim and fire
	PhaseEvents                 // 5: dispatch last tick's events
	PhaseOutput                 // 6: replicate and flush outbound messages
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhaseMovement:
		return "movement"
	case PhaseCollision:
		return "collision"
	case PhaseDetection:
		return "detection"
	case PhaseWeapons:
		return "weapons"
	case PhaseEvents:
		return "events"
	case PhaseOutput:
		return "output"
	}
	return "unknown"
}

// System is the interface every ECS system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
