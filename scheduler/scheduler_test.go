package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Ereebay/assetto-traffic-sim/animate"
	"github.com/Ereebay/assetto-traffic-sim/clock"
	"github.com/Ereebay/assetto-traffic-sim/config"
	"github.com/Ereebay/assetto-traffic-sim/control"
	"github.com/Ereebay/assetto-traffic-sim/entity"
	"github.com/Ereebay/assetto-traffic-sim/registry"
	"github.com/Ereebay/assetto-traffic-sim/spawn"
	"github.com/Ereebay/assetto-traffic-sim/utils/randengine"
)

type fakeGraph struct {
	pts map[entity.PointID]*entity.SplinePoint
}

func (g fakeGraph) Points() []*entity.SplinePoint { return nil }
func (g fakeGraph) Point(id entity.PointID) (*entity.SplinePoint, bool) {
	p, ok := g.pts[id]
	return p, ok
}
func (g fakeGraph) WorldToSpline(pos entity.Vec3) (entity.PointID, float64, bool) { return 0, 0, false }
func (g fakeGraph) IsSameDirection(a, b entity.DirectionTag) bool                 { return a == b }

func straightGraph(n int, spacing float64) fakeGraph {
	pts := make(map[entity.PointID]*entity.SplinePoint, n)
	for i := 0; i < n; i++ {
		pts[entity.PointID(i)] = &entity.SplinePoint{ID: entity.PointID(i), Length: spacing, Position: entity.Vec3{X: float64(i) * spacing}}
	}
	for i := 0; i < n; i++ {
		if i+1 < n {
			next := entity.PointID(i + 1)
			pts[entity.PointID(i)].NextID = &next
		}
		if i > 0 {
			prev := entity.PointID(i - 1)
			pts[entity.PointID(i)].PrevID = &prev
		}
	}
	return fakeGraph{pts: pts}
}

type fakeZones struct{}

func (fakeZones) ZoneAt(pos entity.Vec3, point entity.PointID) (entity.Zone, bool) {
	return entity.Zone{ID: "z", Enabled: true}, true
}
func (fakeZones) TimeOfDayMultiplier(hour int) float64                            { return 1 }

type fakeHostConfig struct{ maxSpeed float64 }

func (h fakeHostConfig) AiDesiredMaxSpeed() float64 { return h.maxSpeed }

func newTestScheduler() (*Scheduler, *registry.VehicleRegistry) {
	g := straightGraph(30, 20)
	neighbors := registry.NewNeighborIndex()
	vehicles := registry.NewVehicleRegistry()
	lanes := registry.NewLaneChangeTable()
	long := control.NewLongitudinal(g, neighbors)
	decider := control.NewLaneChangeDecider(g, neighbors, lanes, long, control.LaneChangeParams{
		Threshold: 0.2, KeepSlowLaneBias: 0.1, CooldownS: 4, LaneEndMarginM: 20, UsualBrakingA: 3,
	})
	anim := animate.NewAnimator(g, neighbors, lanes, animate.Params{BaseDurationS: 3.5, MinDurationS: 2.5, MaxDurationS: 7, LaneWidthM: 3.5})
	zones := fakeZones{}
	rng := randengine.New(1)
	spawner := spawn.NewController(g, neighbors, vehicles, lanes, zones, rng,
		config.Population{SpawnAheadM: 100, SpawnBehindM: 20, DespawnM: 500, MinSpawnGapM: 15, MaxSpawnsPerTick: 5, BaseDensityPerKm: 50},
		config.Speeds{DesiredSpeedKph: 90, TruckDesiredSpeedKph: 80},
		config.IDM{MinimumGapM: 2, TimeHeadwayS: 1.2, SafeDecelMps2: 4, MaxAccelMps2: 2.5},
		config.MOBIL{Politeness: 0.2},
		config.Personality{NormalRatio: 1},
	)

	clk := clock.New(50)
	players := func() []entity.PlayerPos {
		return []entity.PlayerPos{{SessionID: "p1", CurrentPoint: 2, WorldPos: entity.Vec3{X: 40}}}
	}
	sched := New(clk, g, vehicles, lanes, long, decider, anim, spawner, zones, fakeHostConfig{maxSpeed: 30}, players,
		Params{TickRateHz: 50, HeartbeatIntervalTicks: 100})
	return sched, vehicles
}

func TestTickSpawnsAndControlsAgents(t *testing.T) {
	sched, vehicles := newTestScheduler()
	stats := sched.tick()
	require.Greater(t, stats.Spawned, 0)
	require.GreaterOrEqual(t, vehicles.Len(), 0) // spawns staged, merged next Prepare

	stats2 := sched.tick()
	require.GreaterOrEqual(t, stats2.AgentsControlled, 1)
}

func TestSnapshotReflectsLiveAgents(t *testing.T) {
	sched, _ := newTestScheduler()
	sched.tick()
	sched.tick()
	snap := sched.Snapshot()
	require.NotEmpty(t, snap)
}

func TestRunStopsOnCancel(t *testing.T) {
	sched, _ := newTestScheduler()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := sched.Run(ctx)
	require.Error(t, err)
}
