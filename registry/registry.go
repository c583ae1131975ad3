// Package registry holds the three pieces of mutable per-tick state the
// core tracks across agents: the vehicle registry itself (staged
// spawn/despawn merged at Prepare, mirroring the teacher's
// entity/person/manager.go personInserted pattern), the neighbor index
// (one slowest occupant per spline point), and the lane-change table (at
// most one active animation per agent).
package registry

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Ereebay/assetto-traffic-sim/entity"
	"github.com/Ereebay/assetto-traffic-sim/utils/container"
)

var log = logrus.WithField("module", "registry")

// vehicleSlot adapts *entity.AiAgent to container.IIncrementalItem so the
// registry's backing array can be compacted by IncrementalArray.Prepare.
type vehicleSlot struct {
	container.IncrementalItemBase
	agent *entity.AiAgent
}

// VehicleRegistry is the canonical store of every live AI agent. Spawn
// stages an Add, Despawn stages a Remove; both only take effect at the
// next Prepare, so a tick in progress never observes the backing slice
// shift under it — the same contract entity/person/manager.go's
// PersonManager gives its own readers.
type VehicleRegistry struct {
	mu       sync.RWMutex
	byID     map[entity.AgentID]*vehicleSlot
	slots    *container.IncrementalArray[*vehicleSlot]
	nextID   entity.AgentID
	inserted []*entity.AiAgent
	insMu    sync.Mutex
}

func NewVehicleRegistry() *VehicleRegistry {
	return &VehicleRegistry{
		byID:  make(map[entity.AgentID]*vehicleSlot),
		slots: container.NewIncrementalArray[*vehicleSlot](),
	}
}

func (r *VehicleRegistry) Get(id entity.AgentID) (*entity.AiAgent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return s.agent, true
}

func (r *VehicleRegistry) All() []*entity.AiAgent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.AiAgent, 0, len(r.slots.Data()))
	for _, s := range r.slots.Data() {
		out = append(out, s.agent)
	}
	return out
}

func (r *VehicleRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.slots.Len()
}

// Spawn assigns a fresh AgentID and stages the agent for insertion at the
// next Prepare. Safe for concurrent calls (e.g. from the spawn controller
// running alongside a read-only IDM subphase).
func (r *VehicleRegistry) Spawn(a *entity.AiAgent) entity.AgentID {
	r.insMu.Lock()
	defer r.insMu.Unlock()
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.mu.Unlock()
	a.ID = id
	r.inserted = append(r.inserted, a)
	return id
}

// Despawn stages the agent for removal at the next Prepare.
func (r *VehicleRegistry) Despawn(id entity.AgentID) {
	r.mu.Lock()
	s, ok := r.byID[id]
	r.mu.Unlock()
	if !ok {
		return
	}
	r.slots.Remove(s)
}

// Prepare folds staged spawns/despawns into the live set. Must be called
// exactly once per tick, before the IDM/MOBIL phases read All().
func (r *VehicleRegistry) Prepare() {
	r.insMu.Lock()
	newAgents := r.inserted
	r.inserted = nil
	r.insMu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range newAgents {
		s := &vehicleSlot{agent: a}
		r.slots.Add(s)
		r.byID[a.ID] = s
	}
	r.slots.Prepare()
	if len(newAgents) > 0 {
		log.Debugf("registry prepare: +%d spawned, %d live", len(newAgents), r.slots.Len())
	}

	// byID must track the removals Prepare just folded in; rebuild is O(n)
	// but Prepare already re-walks every slot so this stays linear overall.
	for id := range r.byID {
		delete(r.byID, id)
	}
	for _, s := range r.slots.Data() {
		r.byID[s.agent.ID] = s
	}
}

// NeighborIndex maps each spline point to the single slowest agent
// currently occupying it, the invariant §3's NeighborIndex describes:
// "exactly one PointID per initialized agent holding the slowest
// occupant."
type NeighborIndex struct {
	mu   sync.RWMutex
	byPt map[entity.PointID]*entity.AiAgent
}

func NewNeighborIndex() *NeighborIndex {
	return &NeighborIndex{byPt: make(map[entity.PointID]*entity.AiAgent)}
}

func (n *NeighborIndex) SlowestAt(p entity.PointID) (*entity.AiAgent, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	a, ok := n.byPt[p]
	return a, ok
}

// Enter records a as occupying p, replacing any prior occupant only if a
// is slower (the point tracks its slowest occupant, per the leader-search
// semantics that follow the slowest car ahead, not the nearest).
func (n *NeighborIndex) Enter(p entity.PointID, a *entity.AiAgent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	cur, ok := n.byPt[p]
	if !ok || a.CurrentSpeed < cur.CurrentSpeed {
		n.byPt[p] = a
	}
}

// Leave removes a from p's occupancy if it is the recorded occupant.
func (n *NeighborIndex) Leave(p entity.PointID, a *entity.AiAgent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if cur, ok := n.byPt[p]; ok && cur.ID == a.ID {
		delete(n.byPt, p)
	}
}

// LaneChangeTable tracks at most one ActiveLaneChange per agent.
type LaneChangeTable struct {
	mu   sync.RWMutex
	data map[entity.AgentID]*entity.ActiveLaneChange
}

func NewLaneChangeTable() *LaneChangeTable {
	return &LaneChangeTable{data: make(map[entity.AgentID]*entity.ActiveLaneChange)}
}

func (t *LaneChangeTable) Get(agent entity.AgentID) (*entity.ActiveLaneChange, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	lc, ok := t.data[agent]
	return lc, ok
}

// Start begins a lane change, overwriting any prior entry for the agent
// (callers are expected to check Get first; the uniqueness invariant is
// enforced by the MOBIL decider refusing to start a second change).
func (t *LaneChangeTable) Start(lc *entity.ActiveLaneChange) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data[lc.Agent] = lc
}

func (t *LaneChangeTable) Clear(agent entity.AgentID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.data, agent)
}

func (t *LaneChangeTable) All() []*entity.ActiveLaneChange {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*entity.ActiveLaneChange, 0, len(t.data))
	for _, lc := range t.data {
		out = append(out, lc)
	}
	return out
}
