package entity

// NeighborIndex maps a PointID to the slowest initialized agent currently
// located at it (§3 invariant: for every initialized agent A with
// CurrentPoint=p, either index[p]==A or index[p] is a strictly slower
// agent; an agent appears under exactly one point at a time).
//
// Entries are mutated only between tick phases (never read concurrently
// with a write), so implementations need not be internally synchronized.
type NeighborIndex interface {
	// SlowestAt returns the slowest agent at a point, if any.
	SlowestAt(p PointID) (*AiAgent, bool)
	// Enter registers (or replaces, if slower) an agent as occupying p.
	Enter(p PointID, a *AiAgent)
	// Leave removes an agent from p's entry if it is the one currently
	// indexed there.
	Leave(p PointID, a *AiAgent)
}

// VehicleRegistry owns the set of active AiAgents. It is the single
// allocator of AgentID and the only component permitted to create or
// destroy an AiAgent; every other package resolves agents by AgentID
// through it.
type VehicleRegistry interface {
	Get(id AgentID) (*AiAgent, bool)
	All() []*AiAgent
	Spawn(a *AiAgent) AgentID
	Despawn(id AgentID)
	Len() int
}

// LaneChangeTable owns the set of in-flight ActiveLaneChange entries,
// keyed by agent identity, enforcing the at-most-one-per-agent invariant.
type LaneChangeTable interface {
	Get(agent AgentID) (*ActiveLaneChange, bool)
	Start(lc *ActiveLaneChange)
	Clear(agent AgentID)
	All() []*ActiveLaneChange
}

// ZoneProvider resolves the governing Zone for a world position, or
// reports that no zone applies (which disables spawning there). point is
// consulted first against each zone's named point set (the preferred,
// exact predicate); pos is the XZ-box fallback for zones with no point
// set configured.
type ZoneProvider interface {
	ZoneAt(pos Vec3, point PointID) (Zone, bool)
	// TimeOfDayMultiplier returns the density multiplier for an hour of
	// day in [0,23].
	TimeOfDayMultiplier(hour int) float64
}
