// Package scheduler drives the fixed-rate tick loop that orchestrates
// every other package each simulation step: spawn/despawn, the IDM free
// acceleration subphase (parallelized across agents, grounded on
// entity/person/manager.go's parallel.GoMap/GoFor fan-out), the serial
// MOBIL/animate phase, and the session clock. Grounded on task/simulet.go's
// prepare/update split and task.go's atomic-bool cooperative shutdown,
// adapted to a single context.Context instead of the teacher's syncer
// sidecar handshake (a distributed control-plane this core has no need
// for).
package scheduler

import (
	"context"
	"math"
	"time"

	"git.fiblab.net/general/common/v2/parallel"
	"github.com/sirupsen/logrus"

	"github.com/Ereebay/assetto-traffic-sim/animate"
	"github.com/Ereebay/assetto-traffic-sim/clock"
	"github.com/Ereebay/assetto-traffic-sim/control"
	"github.com/Ereebay/assetto-traffic-sim/entity"
	"github.com/Ereebay/assetto-traffic-sim/registry"
	"github.com/Ereebay/assetto-traffic-sim/spawn"
)

var log = logrus.WithField("module", "scheduler")

// Params configures cadence and diagnostics, read from config.Scheduler
// and config.Diagnostics at wiring time.
type Params struct {
	TickRateHz             float64
	HeartbeatIntervalTicks int64
	DebugLogging           bool
	LogLaneChanges         bool
}

// Scheduler owns the tick loop. It holds no business logic of its own:
// every phase delegates to registry/control/animate/zone/spawn, the way
// task/simulet.go's Context.prepare/update delegate to the per-domain
// managers.
type Scheduler struct {
	clock *clock.Clock

	graph    entity.SplineGraph
	vehicles *registry.VehicleRegistry
	lanes    *registry.LaneChangeTable

	longitudinal *control.Longitudinal
	decider      *control.LaneChangeDecider
	animator     *animate.Animator
	spawner      *spawn.Controller

	zones      entity.ZoneProvider
	hostConfig entity.HostConfig
	playersFn  func() []entity.PlayerPos

	params    Params
	lastStats entity.TickStats
}

func New(
	clk *clock.Clock,
	graph entity.SplineGraph,
	vehicles *registry.VehicleRegistry,
	lanes *registry.LaneChangeTable,
	longitudinal *control.Longitudinal,
	decider *control.LaneChangeDecider,
	animator *animate.Animator,
	spawner *spawn.Controller,
	zones entity.ZoneProvider,
	hostConfig entity.HostConfig,
	playersFn func() []entity.PlayerPos,
	params Params,
) *Scheduler {
	return &Scheduler{
		clock: clk, graph: graph, vehicles: vehicles, lanes: lanes,
		longitudinal: longitudinal, decider: decider, animator: animator, spawner: spawner,
		zones: zones, hostConfig: hostConfig, playersFn: playersFn, params: params,
	}
}

// LastStats returns the most recently completed tick's counters.
func (s *Scheduler) LastStats() entity.TickStats {
	return s.lastStats
}

// VehicleState is the read-only per-agent snapshot a host dashboard or
// the cmd/ demonstration harness can poll between ticks.
type VehicleState struct {
	ID                 entity.AgentID
	Point              entity.PointID
	Progress           float64
	Speed              float64
	Kind               entity.Kind
	Animating          bool
	LaneChangeProgress float64 // 0 unless Animating
}

// Snapshot reports every live agent's current state.
func (s *Scheduler) Snapshot() []VehicleState {
	agents := s.vehicles.All()
	out := make([]VehicleState, 0, len(agents))
	for _, a := range agents {
		vs := VehicleState{ID: a.ID, Point: a.CurrentPoint, Progress: a.VecProgress, Speed: a.CurrentSpeed, Kind: a.Kind}
		if lc, ok := s.lanes.Get(a.ID); ok {
			vs.Animating = true
			vs.LaneChangeProgress = lc.CompletedRatio
		}
		out = append(out, vs)
	}
	return out
}

// laneMaxV resolves the speed limit an agent should perceive at its
// current point: the host's AI-desired max speed, capped further by the
// agent's governing zone's speed limit if one applies, then perturbed by
// the agent's own recognition bias.
func (s *Scheduler) laneMaxV(agent *entity.AiAgent, point *entity.SplinePoint) float64 {
	limit := s.hostConfig.AiDesiredMaxSpeed()
	if z, ok := s.zones.ZoneAt(point.Position, point.ID); ok && z.SpeedLimitMps > 0 && z.SpeedLimitMps < limit {
		limit = z.SpeedLimitMps
	}
	return agent.PerceivedLaneMaxV(limit)
}

// tangent approximates an agent's forward direction from its point's
// neighbors, since the core's own geometry has no richer heading field;
// a real host's physics step would supply the actual car heading instead.
func (s *Scheduler) tangent(point *entity.SplinePoint) entity.Vec3 {
	if point.NextID != nil {
		if next, ok := s.graph.Point(*point.NextID); ok {
			return next.Position.Sub(point.Position)
		}
	}
	if point.PrevID != nil {
		if prev, ok := s.graph.Point(*point.PrevID); ok {
			return point.Position.Sub(prev.Position)
		}
	}
	return entity.Vec3{X: 1}
}

// freeAccel computes the read-only IDM acceleration for one agent; safe
// to run concurrently across agents since it only reads the graph and
// neighbor index, never writes.
func (s *Scheduler) freeAccel(agent *entity.AiAgent) float64 {
	point, ok := s.graph.Point(agent.CurrentPoint)
	if !ok {
		return 0
	}
	return s.longitudinal.Accelerate(agent, agent.CurrentPoint, agent.VecProgress, s.laneMaxV(agent, point))
}

// tick runs one simulation step: merges staged spawns/despawns, computes
// the parallel IDM subphase, then serially steps animations and evaluates
// MOBIL/forced lane changes, and finally sweeps spawn/despawn.
func (s *Scheduler) tick() entity.TickStats {
	s.vehicles.Prepare()

	var stats entity.TickStats
	agents := s.vehicles.All()

	initialized := make([]*entity.AiAgent, 0, len(agents))
	for _, a := range agents {
		if a.Initialized {
			a.Acceleration = math.Inf(1) // reset the override floor for this tick
			initialized = append(initialized, a)
		}
	}
	freeAccels := parallel.GoMap(initialized, func(a *entity.AiAgent) float64 {
		return s.freeAccel(a)
	})

	for i, agent := range initialized {
		s.stepAgent(agent, freeAccels[i], &stats)
	}
	stats.AgentsControlled = len(initialized)

	players := s.playersFn()
	now := s.clock.T
	hour, _, _ := s.clock.GetHourMinuteSecond()
	spawnStats := s.spawner.Sweep(players, hour, now)
	stats.Spawned = spawnStats.Spawned
	stats.Despawned = spawnStats.Despawned

	s.clock.Advance()
	return stats
}

// stepAgent advances one initialized agent: if it is mid-lane-change,
// steps (and possibly finalizes) the animation; otherwise applies the
// free-driving acceleration and evaluates a MOBIL/forced lane-change
// decision, starting the animator if one is accepted.
func (s *Scheduler) stepAgent(agent *entity.AiAgent, freeAccel float64, stats *entity.TickStats) {
	now := s.clock.T
	if lc, active := s.lanes.Get(agent.ID); active {
		point, ok := s.graph.Point(agent.CurrentPoint)
		tangent := entity.Vec3{X: 1}
		if ok {
			tangent = s.tangent(point)
		}
		velocity := tangent.NormalizeXZ().Scale(agent.CurrentSpeed)
		_, done := s.animator.Step(lc, now, velocity, 0)
		if done {
			if err := s.animator.Finalize(agent, lc); err != nil {
				log.Warnf("agent %d lane-change finalize failed: %v", agent.ID, err)
			} else {
				stats.LaneChangesEnded++
			}
		}
		return
	}

	action := entity.Action{A: freeAccel}
	point, ok := s.graph.Point(agent.CurrentPoint)
	if ok {
		laneMaxV := s.laneMaxV(agent, point)
		decision := s.decider.Decide(agent, agent.CurrentPoint, agent.VecProgress, laneMaxV, now)
		action.Update(decision)
	}
	agent.Acceleration = action.A

	if action.LCTarget != nil {
		if _, err := s.animator.Start(agent, *action.LCTarget, action.LCIsLeft, now); err != nil {
			log.Warnf("agent %d lane-change start failed: %v", agent.ID, err)
		} else {
			stats.LaneChangesStarted++
			if s.params.LogLaneChanges {
				log.Infof("agent %d started lane change to point %d (left=%v)", agent.ID, *action.LCTarget, action.LCIsLeft)
			}
		}
	}
}

// Run executes the fixed-rate tick loop until ctx is cancelled. A tick
// error (none are currently returned by the phases themselves, but the
// loop keeps the shape for host integrations that inject fallible I/O)
// backs off one second rather than terminating, the way the teacher's
// task loop never exits on a transient condition.
func (s *Scheduler) Run(ctx context.Context) error {
	interval := time.Duration(float64(time.Second) / s.params.TickRateHz)
	last := time.Now()
	var tickN int64

	// On cancellation every in-flight lane change is dropped. Agents stay
	// indexed under their source point until finalization, so the neighbor
	// index is already consistent.
	defer func() {
		for _, lc := range s.lanes.All() {
			s.lanes.Clear(lc.Agent)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Infof("scheduler stopping: %v", ctx.Err())
			return ctx.Err()
		default:
		}

		now := time.Now()
		dt := now.Sub(last)
		if dt < interval {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval - dt):
			}
			continue
		}
		last = now

		stats := s.runTickSafely()
		s.lastStats = stats
		tickN++
		if s.params.HeartbeatIntervalTicks > 0 && tickN%s.params.HeartbeatIntervalTicks == 0 {
			log.Infof("tick %d t=%s agents=%d spawned=%d despawned=%d lc_started=%d lc_ended=%d",
				tickN, s.clock.String(), stats.AgentsControlled, stats.Spawned, stats.Despawned,
				stats.LaneChangesStarted, stats.LaneChangesEnded)
		} else if s.params.DebugLogging {
			log.Debugf("tick %d complete", tickN)
		}
	}
}

// runTickSafely recovers a panicking tick phase into a logged, skipped
// tick rather than crashing the loop, mirroring the "unhandled tick
// errors are logged and back off" contract; a panic is treated as the
// worst case of that same contract.
func (s *Scheduler) runTickSafely() (stats entity.TickStats) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("tick panicked, skipping: %v", r)
			time.Sleep(time.Second)
		}
	}()
	return s.tick()
}
