// Package animate drives the lane-change lateral trajectory: a quintic
// S-curve lateral offset applied as an overlay on top of the host's own
// longitudinal integration, finalized by an atomic neighbor-index and
// current-point update. Grounded on the teacher's personruntime.go
// lcRuntime bookkeeping, generalized from AssettoServer's car-transform
// overlay to the point-graph model.
package animate

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/Ereebay/assetto-traffic-sim/coreerr"
	"github.com/Ereebay/assetto-traffic-sim/entity"
)

var log = logrus.WithField("module", "animate")

const (
	minDurationFloorS = 2.5
	maxDurationCeilS  = 7.0
	baseSpeedMps      = 100.0 / 3.6 // speed_factor's reference: 100 km/h
)

// Params configures duration shaping and lane geometry.
type Params struct {
	BaseDurationS float64
	MinDurationS  float64
	MaxDurationS  float64
	LaneWidthM    float64
}

// Animator starts and steps lane-change animations and finalizes them
// into the registry once complete.
type Animator struct {
	graph     entity.SplineGraph
	neighbors entity.NeighborIndex
	lanes     entity.LaneChangeTable
	params    Params
}

func NewAnimator(graph entity.SplineGraph, neighbors entity.NeighborIndex, lanes entity.LaneChangeTable, params Params) *Animator {
	return &Animator{graph: graph, neighbors: neighbors, lanes: lanes, params: params}
}

// speedFactor scales the 100 km/h base duration toward longer durations
// at higher speeds; v in m/s.
func speedFactor(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return v / baseSpeedMps
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Start begins a lane change for agent, computing its duration from
// current speed and storing the ActiveLaneChange keyed by agent identity.
// Fails with HostContractViolation if the agent already has one active
// (the uniqueness invariant).
func (a *Animator) Start(agent *entity.AiAgent, target entity.PointID, isLeft bool, now float64) (*entity.ActiveLaneChange, error) {
	if _, active := a.lanes.Get(agent.ID); active {
		return nil, fmt.Errorf("%w: agent %d already has an active lane change", coreerr.HostContractViolation, agent.ID)
	}
	duration := clamp(a.params.BaseDurationS*speedFactor(agent.CurrentSpeed), a.params.MinDurationS, a.params.MaxDurationS)
	duration = clamp(duration, minDurationFloorS, maxDurationCeilS)

	lc := &entity.ActiveLaneChange{
		Agent:       agent.ID,
		SourcePoint: agent.CurrentPoint,
		TargetPoint: target,
		StartTime:   now,
		Duration:    duration,
		LaneWidth:   a.params.LaneWidthM,
		IsLeft:      isLeft,
	}
	a.lanes.Start(lc)
	agent.LastLaneChangeAt = now
	return lc, nil
}

// quintic evaluates the zero-velocity/zero-acceleration S-curve at tau in [0,1].
func quintic(tau float64) float64 {
	return 10*math.Pow(tau, 3) - 15*math.Pow(tau, 4) + 6*math.Pow(tau, 5)
}

// rightVectorFromVelocity derives the lateral unit vector from an XZ
// velocity, falling back to a yaw heading when the agent is nearly
// stationary (|velocity_xz| <= 0.1).
func rightVectorFromVelocity(velocityXZ entity.Vec3, yaw float64) entity.Vec3 {
	if velocityXZ.NormXZ() > 0.1 {
		return velocityXZ.NormalizeXZ().Rotate90XZ()
	}
	heading := entity.Vec3{X: -math.Sin(yaw), Y: 0, Z: -math.Cos(yaw)}
	return heading.Rotate90XZ()
}

// Step advances lc's CompletedRatio for the current tick and returns the
// lateral position overlay to add to the host's own longitudinal
// integration this tick, plus whether the change has reached tau=1.
func (a *Animator) Step(lc *entity.ActiveLaneChange, now float64, velocityXZ entity.Vec3, yaw float64) (offset entity.Vec3, done bool) {
	tau := clamp((now-lc.StartTime)/lc.Duration, 0, 1)
	lc.CompletedRatio = tau
	y := lc.LaneWidth * quintic(tau)

	right := rightVectorFromVelocity(velocityXZ, yaw)
	sign := 1.0
	if lc.IsLeft {
		sign = -1.0
	}
	offset = right.Scale(sign * y)
	return offset, tau >= 1
}

// Finalize completes a lane change: atomically moves the agent's
// NeighborIndex occupancy from SourcePoint to TargetPoint and updates its
// CurrentPoint/VecProgress, then clears the lane-change table entry. If
// TargetPoint no longer resolves in the graph, or it has no successor
// (a dead-end lane point a MOBIL/forced decision should never target,
// but the core checks defensively), it logs and aborts without any
// partial update, returning GraphInconsistent.
func (a *Animator) Finalize(agent *entity.AiAgent, lc *entity.ActiveLaneChange) error {
	target, ok := a.graph.Point(lc.TargetPoint)
	if !ok {
		log.Warnf("finalize lane change: agent %d target point %d missing from graph, aborting", agent.ID, lc.TargetPoint)
		return fmt.Errorf("%w: lane-change target point %d not found", coreerr.GraphInconsistent, lc.TargetPoint)
	}
	if target.NextID == nil {
		log.Warnf("finalize lane change: agent %d target point %d has no successor, aborting", agent.ID, lc.TargetPoint)
		return fmt.Errorf("%w: lane-change target point %d has no successor", coreerr.GraphInconsistent, lc.TargetPoint)
	}
	a.neighbors.Leave(lc.SourcePoint, agent)
	agent.CurrentPoint = target.ID
	agent.VecProgress = 0
	agent.VecLength = target.Length // arc length from target to target.next
	a.neighbors.Enter(target.ID, agent)
	a.lanes.Clear(agent.ID)
	return nil
}
