// Package control implements the per-tick driving decisions: the IDM
// longitudinal controller and the MOBIL lane-change decider, both
// grounded on the teacher's entity/person/controller*.go family but
// generalized from per-lane vehicle nodes to per-point graph occupancy.
package control

import (
	"math"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/Ereebay/assetto-traffic-sim/entity"
)

var log = logrus.WithField("module", "control")

// idmDelta is the IDM model's free acceleration exponent, always 4 in
// the standard formulation (entity/person/controller.go's idmTheta).
const idmDelta = 4

// maxLeaderSearchM and maxFollowerSearchM bound how far the graph walk
// looks for a neighbor before giving up and treating the lane as clear.
const (
	maxLeaderSearchM   = 200.0
	maxFollowerSearchM = 50.0
)

// Longitudinal computes IDM accelerations for agents against a
// NeighborIndex-backed graph. It holds no per-agent state; every call is
// a pure function of its arguments, safe to run from multiple goroutines
// over disjoint agents (the parallel IDM subphase).
type Longitudinal struct {
	graph     entity.SplineGraph
	neighbors entity.NeighborIndex
}

func NewLongitudinal(graph entity.SplineGraph, neighbors entity.NeighborIndex) *Longitudinal {
	return &Longitudinal{graph: graph, neighbors: neighbors}
}

// idm is the raw Intelligent Driver Model acceleration law: the distance
// an agent wants to keep ahead grows with its own speed and with the
// closing rate to the leader, and the resulting acceleration is clamped
// to [-1.5b, a]. Mirrors controllermodel.go's followImpl, generalized to
// take a and b explicitly instead of reading them off a *controller.
func idm(selfV, targetV, leaderV, distance, s0, headwayT, a, b float64) float64 {
	if distance <= 0 {
		return -1.5 * b
	}
	if math.IsInf(distance, 1) {
		// No leader: the interaction term drops out entirely rather than
		// feeding +Inf through selfV*(selfV-leaderV), which is NaN at
		// selfV==0 (a momentarily-stopped agent with an open road).
		acc := a * (1 - math.Pow(selfV/targetV, idmDelta))
		return lo.Clamp(acc, -1.5*b, a)
	}
	sStar := s0 + math.Max(0,
		selfV*headwayT+selfV*(selfV-leaderV)/(2*math.Sqrt(a*b)),
	)
	acc := a * (1 - math.Pow(selfV/targetV, idmDelta) - math.Pow(sStar/distance, 2))
	return lo.Clamp(acc, -1.5*b, a)
}

// Stop computes the braking acceleration needed to come to rest within
// distance, by reusing idm with the leader's speed fixed at zero, the way
// controllermodel.go's stop method does for spawn placement checks and
// host-reported upcoming-incident stops.
func (l *Longitudinal) Stop(agent *entity.AiAgent, distance, laneMaxV float64) float64 {
	targetV := math.Min(agent.MaxSpeed, laneMaxV)
	return idm(agent.CurrentSpeed, targetV, 0, distance, agent.Params.MinimumGap, agent.Params.TimeHeadway, agent.Params.MaxAcceleration, agent.Params.SafeDecel)
}

// leaderInfo is what the graph walk finds ahead of an agent: the
// occupant's speed and the cumulative distance to it.
type leaderInfo struct {
	speed    float64
	distance float64
	found    bool
}

// findLeader walks Next links from point p, accumulating Length, until it
// finds a point whose NeighborIndex entry holds an agent other than self,
// the cumulative distance exceeds maxLeaderSearchM, or Next is absent.
func (l *Longitudinal) findLeader(self *entity.AiAgent, p entity.PointID, progress float64) leaderInfo {
	return l.FindLeaderFrom(self, p, progress)
}

// FindLeaderFrom is the exported form of findLeader, used by the
// lane-change decider to probe a candidate side point instead of the
// agent's own current point.
func (l *Longitudinal) FindLeaderFrom(self *entity.AiAgent, p entity.PointID, progress float64) leaderInfo {
	point, ok := l.graph.Point(p)
	if !ok {
		return leaderInfo{}
	}
	// cum starts as the distance from self to the end of its own span,
	// i.e. to the start of the next point. An occupant of self's own
	// point is measured by the difference in progress; an occupant of a
	// later point sits cum plus its own progress ahead, cum then being
	// the distance to that point's start.
	cum := point.Length - progress
	cur := point
	if occ, ok := l.neighbors.SlowestAt(cur.ID); ok && occ.ID != self.ID {
		return leaderInfo{speed: occ.CurrentSpeed, distance: math.Max(0, occ.VecProgress-progress), found: true}
	}
	for {
		if cum > maxLeaderSearchM {
			return leaderInfo{}
		}
		if cur.NextID == nil {
			return leaderInfo{}
		}
		next, ok := l.graph.Point(*cur.NextID)
		if !ok {
			return leaderInfo{}
		}
		cur = next
		if occ, ok := l.neighbors.SlowestAt(cur.ID); ok && occ.ID != self.ID {
			return leaderInfo{speed: occ.CurrentSpeed, distance: cum + occ.VecProgress, found: true}
		}
		cum += cur.Length
	}
}

// FindFollowerFrom walks Prev links from point p, accumulating Length,
// the mirror image of FindLeaderFrom bounded by maxFollowerSearchM: used
// by the MOBIL safety/incentive tests to find the agent that would become
// the new follower on a candidate side.
func (l *Longitudinal) FindFollowerFrom(self *entity.AiAgent, p entity.PointID, progress float64) leaderInfo {
	point, ok := l.graph.Point(p)
	if !ok {
		return leaderInfo{}
	}
	cum := progress
	cur := point
	// The candidate insertion point itself may already hold an occupant
	// behind where self would merge in.
	if occ, ok := l.neighbors.SlowestAt(cur.ID); ok && occ.ID != self.ID {
		return leaderInfo{speed: occ.CurrentSpeed, distance: math.Max(0, progress-occ.VecProgress), found: true}
	}
	for {
		if cur.PrevID == nil {
			return leaderInfo{}
		}
		prev, ok := l.graph.Point(*cur.PrevID)
		if !ok {
			return leaderInfo{}
		}
		cum += prev.Length
		if cum > maxFollowerSearchM {
			return leaderInfo{}
		}
		cur = prev
		if occ, ok := l.neighbors.SlowestAt(cur.ID); ok && occ.ID != self.ID {
			return leaderInfo{speed: occ.CurrentSpeed, distance: cum, found: true}
		}
	}
}

// Accelerate computes the free-driving/car-following IDM acceleration for
// agent at (point, progress) and applies the override policy: the result
// never raises an acceleration the caller already decided on (e.g. a
// braking decision from the lane-change forced path), only lowers it.
func (l *Longitudinal) Accelerate(agent *entity.AiAgent, point entity.PointID, progress, laneMaxV float64) float64 {
	targetV := math.Min(agent.MaxSpeed, laneMaxV)
	leader := l.findLeader(agent, point, progress)
	leaderV, dist := math.Inf(1), math.Inf(1)
	if leader.found {
		leaderV, dist = leader.speed, leader.distance
	}
	a := idm(agent.CurrentSpeed, targetV, leaderV, dist,
		agent.Params.MinimumGap, agent.Params.TimeHeadway,
		agent.Params.MaxAcceleration, agent.Params.SafeDecel)
	return math.Min(agent.Acceleration, a)
}

// followerAccel computes the acceleration a candidate follower at
// (followerSpeed, distance-behind-the-inserted-agent) would need to apply
// if agent cut in ahead of it, used by the MOBIL safety test.
func followerAccel(followerSpeed, agentSpeed, distance float64, p entity.Params) float64 {
	return idm(followerSpeed, followerSpeed, agentSpeed, distance, p.MinimumGap, p.TimeHeadway, p.MaxAcceleration, p.SafeDecel)
}
