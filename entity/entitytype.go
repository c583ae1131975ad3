// Package entity holds the data model and host-facing interfaces shared by
// every other package in the simulator core. It intentionally contains no
// simulation logic of its own: graph, registry, control, animate, zone and
// spawn all depend on entity, never the other way around.
package entity

import "fmt"

// PointID identifies a SplinePoint. Stable for the lifetime of the graph.
type PointID int64

// Side indexes the two lateral directions a lane change can go.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// DirectionTag groups spline points that run the same logical direction of
// travel. Two points with different tags are never considered adjacent
// lanes of each other, even if a left/right link happens to connect them.
type DirectionTag int32

// Kind distinguishes the two vehicle classes the spawn controller draws
// from a zone's truck ratio.
type Kind int

const (
	Car Kind = iota
	Truck
)

func (k Kind) String() string {
	if k == Truck {
		return "truck"
	}
	return "car"
}

// Personality buckets drivers into four IDM/MOBIL parameter profiles.
type Personality int

const (
	Timid Personality = iota
	Normal
	Aggressive
	VeryAggressive
)

func (p Personality) String() string {
	switch p {
	case Timid:
		return "timid"
	case Normal:
		return "normal"
	case Aggressive:
		return "aggressive"
	case VeryAggressive:
		return "very_aggressive"
	default:
		return fmt.Sprintf("personality(%d)", int(p))
	}
}

// Params is the derived bundle of IDM and MOBIL constants a Personality
// maps to. Sampled once at spawn time and held fixed for the agent's life.
type Params struct {
	MaxAcceleration float64 // IDM `a`
	SafeDecel       float64 // IDM `b`
	MinimumGap      float64 // IDM `s0`
	TimeHeadway     float64 // IDM `T`
	Politeness      float64 // MOBIL politeness factor
	LaneChangeBias  float64 // personality offset set by DefaultParams; the lane-change decider does not read it
}

// TickStats counts one tick's outcome: how many agents were controlled,
// how many spawned/despawned, and how many lane changes started versus
// finalized. Logged at debug_logging level and handed back to the host
// through Scheduler.LastStats for dashboards.
type TickStats struct {
	AgentsControlled   int
	Spawned            int
	Despawned          int
	LaneChangesStarted int
	LaneChangesEnded   int
}

// DefaultParams derives a personality's IDM/MOBIL bundle from a base
// Params: aggressive drivers brake harder, accelerate harder, tailgate
// closer and are less polite about disadvantaging a follower.
func DefaultParams(base Params, p Personality) Params {
	switch p {
	case Timid:
		base.MaxAcceleration *= 0.7
		base.MinimumGap *= 1.4
		base.TimeHeadway *= 1.3
		base.Politeness *= 1.5
		base.LaneChangeBias -= 0.1
	case Aggressive:
		base.MaxAcceleration *= 1.2
		base.MinimumGap *= 0.75
		base.TimeHeadway *= 0.8
		base.Politeness *= 0.5
		base.LaneChangeBias += 0.1
	case VeryAggressive:
		base.MaxAcceleration *= 1.4
		base.MinimumGap *= 0.6
		base.TimeHeadway *= 0.6
		base.Politeness *= 0.2
		base.LaneChangeBias += 0.25
	case Normal:
		// base values, unmodified
	}
	return base
}
