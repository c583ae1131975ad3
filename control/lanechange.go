package control

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/Ereebay/assetto-traffic-sim/entity"
)

var lcLog = logrus.WithField("module", "control.lanechange")

// LaneChangeParams is the MOBIL configuration, read from package config
// at startup and passed in rather than imported directly, so control has
// no dependency on the config package's YAML schema.
type LaneChangeParams struct {
	Threshold        float64 // incentive must exceed this to accept
	KeepSlowLaneBias float64
	CooldownS        float64
	LaneEndMarginM   float64 // lcLaneEnd equivalent
	UsualBrakingA    float64 // forced-path braking fallback
}

// LaneChangeDecider implements the MOBIL politeness-weighted incentive
// test plus the forced-lane-change dead-end escape, grounded on
// controllerlanechange.go's planLaneChange.
type LaneChangeDecider struct {
	graph        entity.SplineGraph
	neighbors    entity.NeighborIndex
	lanes        entity.LaneChangeTable
	longitudinal *Longitudinal
	params       LaneChangeParams
}

func NewLaneChangeDecider(graph entity.SplineGraph, neighbors entity.NeighborIndex, lanes entity.LaneChangeTable, long *Longitudinal, params LaneChangeParams) *LaneChangeDecider {
	return &LaneChangeDecider{graph: graph, neighbors: neighbors, lanes: lanes, longitudinal: long, params: params}
}

// isBlocked reports the "blocked" gate: crawling well below target speed
// with a leader close enough that the slowdown is plausibly caused by it.
func isBlocked(agent *entity.AiAgent, leader leaderInfo) bool {
	if agent.CurrentSpeed <= 5 {
		return false
	}
	if agent.CurrentSpeed > 0.85*agent.TargetSpeed {
		return false
	}
	return leader.found && leader.distance < 100
}

// sameDirection reports whether the side point id runs the same direction
// of travel as p; a missing point counts as not adjacent.
func (d *LaneChangeDecider) sameDirection(p *entity.SplinePoint, id entity.PointID) bool {
	q, ok := d.graph.Point(id)
	return ok && d.graph.IsSameDirection(p.Direction, q.Direction)
}

// Decide evaluates a lane-change opportunity for agent sitting at
// (point, progress) with laneMaxV as the recognized speed limit and now
// the simulation clock reading, returning an Action with an LCTarget set
// only when a change should start. now, simTime is passed explicitly so
// this stays a pure function of its arguments (testable without a clock).
// Politeness is read from agent.Params.Politeness (personality-scaled).
func (d *LaneChangeDecider) Decide(agent *entity.AiAgent, point entity.PointID, progress, laneMaxV, now float64) entity.Action {
	if _, active := d.lanes.Get(agent.ID); active {
		return entity.Action{A: math.Inf(1)}
	}
	p, ok := d.graph.Point(point)
	if !ok {
		return entity.Action{A: math.Inf(1)}
	}
	remaining := p.Length - progress

	if forced, act := d.forcedLaneChange(agent, p, progress, remaining, laneMaxV); forced {
		return act
	}

	if remaining < d.params.LaneEndMarginM {
		return entity.Action{A: math.Inf(1)}
	}
	if now-agent.LastLaneChangeAt < d.params.CooldownS {
		return entity.Action{A: math.Inf(1)}
	}
	leader := d.longitudinal.FindLeaderFrom(agent, point, progress)
	if !isBlocked(agent, leader) {
		return entity.Action{A: math.Inf(1)}
	}
	if p.LeftID == nil && p.RightID == nil {
		return entity.Action{A: math.Inf(1)}
	}

	aCur := d.longitudinal.Accelerate(agent, point, progress, laneMaxV)

	type candidate struct {
		side   entity.Side
		target entity.PointID
		incent float64
	}
	var candidates []candidate

	for _, side := range []entity.Side{entity.Left, entity.Right} {
		ref := p.NeighborID(side)
		if ref == nil {
			continue
		}
		target := *ref
		if !d.sameDirection(p, target) {
			continue // cross-traffic link: never an adjacent lane
		}
		leaderNew := d.longitudinal.FindLeaderFrom(agent, target, progress)
		leaderSpeed := math.Inf(1)
		leaderDist := math.Inf(1)
		if leaderNew.found {
			leaderSpeed, leaderDist = leaderNew.speed, leaderNew.distance
		}
		aNew := idm(agent.CurrentSpeed, math.Min(agent.MaxSpeed, laneMaxV), leaderSpeed, leaderDist,
			agent.Params.MinimumGap, agent.Params.TimeHeadway, agent.Params.MaxAcceleration, agent.Params.SafeDecel)

		follower := d.longitudinal.FindFollowerFrom(agent, target, progress)
		if follower.found {
			aFollowerAfter := followerAccel(follower.speed, agent.CurrentSpeed, follower.distance, agent.Params)
			if aFollowerAfter < -agent.Params.SafeDecel {
				continue // safety test: would force the new follower to rear-end us
			}
		}

		var deltaFollower float64
		if follower.found {
			aFollowerBefore := followerAccel(follower.speed, leaderSpeed, follower.distance+progress, agent.Params)
			aFollowerAfter := followerAccel(follower.speed, agent.CurrentSpeed, follower.distance, agent.Params)
			deltaFollower = aFollowerBefore - aFollowerAfter
		}

		bias := d.params.KeepSlowLaneBias
		if side == entity.Left {
			bias = -d.params.KeepSlowLaneBias
		}
		incentive := (aNew - aCur) - agent.Params.Politeness*deltaFollower - bias
		if incentive > d.params.Threshold {
			candidates = append(candidates, candidate{side: side, target: target, incent: incentive})
		}
	}

	if len(candidates) == 0 {
		return entity.Action{A: aCur}
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.incent > best.incent {
			best = c
		}
	}
	lcLog.Debugf("agent %d starting lane change side=%v target=%d incentive=%.3f", agent.ID, best.side, best.target, best.incent)
	act := entity.Action{A: aCur}
	act.StartLaneChange(best.target, best.side == entity.Left)
	return act
}

// forcedLaneChange implements the dead-end escape: when the current
// point has no same-direction successor within LaneEndMarginM, the agent
// must move toward any side whose link runs the same direction (left
// first), braking hard if the candidate
// follower would otherwise be forced to rear-end it. Mirrors
// controllerlanechange.go's forceLC path.
func (d *LaneChangeDecider) forcedLaneChange(agent *entity.AiAgent, p *entity.SplinePoint, progress, remaining, laneMaxV float64) (bool, entity.Action) {
	if p.NextID != nil || remaining >= d.params.LaneEndMarginM {
		return false, entity.Action{}
	}
	var target *entity.PointID
	var side entity.Side
	if p.LeftID != nil && d.sameDirection(p, *p.LeftID) {
		target, side = p.LeftID, entity.Left
	} else if p.RightID != nil && d.sameDirection(p, *p.RightID) {
		target, side = p.RightID, entity.Right
	}
	if target == nil {
		return true, entity.Action{A: -d.params.UsualBrakingA}
	}
	follower := d.longitudinal.FindFollowerFrom(agent, *target, progress)
	if follower.found {
		aFollowerAfter := followerAccel(follower.speed, agent.CurrentSpeed, follower.distance, agent.Params)
		if aFollowerAfter < -d.params.UsualBrakingA-1 {
			act := entity.Action{A: -d.params.UsualBrakingA}
			act.StartLaneChange(*target, side == entity.Left)
			return true, act
		}
	}
	act := entity.Action{A: -d.params.UsualBrakingA}
	act.StartLaneChange(*target, side == entity.Left)
	return true, act
}
