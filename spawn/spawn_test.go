package spawn

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Ereebay/assetto-traffic-sim/config"
	"github.com/Ereebay/assetto-traffic-sim/entity"
	"github.com/Ereebay/assetto-traffic-sim/registry"
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

// straightGraph builds n points of length `spacing`, chained 0->1->...->n-1,
// with world positions spaced `spacing` apart along X.
func straightGraph(n int, spacing float64) fakeGraph {
	pts := make(map[entity.PointID]*entity.SplinePoint, n)
	for i := 0; i < n; i++ {
		p := &entity.SplinePoint{ID: entity.PointID(i), Length: spacing, Position: entity.Vec3{X: float64(i) * spacing}}
		pts[p.ID] = p
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

type fakeZones struct {
	zone    entity.Zone
	hasZone bool
	tod     float64
}

func (z fakeZones) ZoneAt(pos entity.Vec3, point entity.PointID) (entity.Zone, bool) {
	return z.zone, z.hasZone
}
func (z fakeZones) TimeOfDayMultiplier(hour int) float64 { return z.tod }

func basePopulation() config.Population {
	return config.Population{
		SpawnAheadM:      100,
		SpawnBehindM:     20,
		DespawnM:         500,
		MinSpawnGapM:     15,
		MaxSpawnsPerTick: 10,
		BaseDensityPerKm: 50,
	}
}

func baseIDM() config.IDM   { return config.IDM{MinimumGapM: 2, TimeHeadwayS: 1.2, SafeDecelMps2: 4, MaxAccelMps2: 2.5} }
func baseMOBIL() config.MOBIL { return config.MOBIL{Politeness: 0.2} }
func baseSpeeds() config.Speeds {
	return config.Speeds{DesiredSpeedKph: 90, TruckDesiredSpeedKph: 80}
}

func TestSweepSpawnsTowardTargetDensity(t *testing.T) {
	g := straightGraph(20, 10) // 190m corridor, spacing 10
	neighbors := registry.NewNeighborIndex()
	vehicles := registry.NewVehicleRegistry()
	zones := fakeZones{hasZone: true, tod: 1, zone: entity.Zone{ID: "z", MaxPerKm: 100, DensityMultiplier: 1}}
	rng := randengine.New(1)

	ctrl := NewController(g, neighbors, vehicles, registry.NewLaneChangeTable(), zones, rng, basePopulation(), baseSpeeds(), baseIDM(), baseMOBIL(), config.Personality{NormalRatio: 1})

	players := []entity.PlayerPos{{SessionID: "p1", CurrentPoint: 2, WorldPos: entity.Vec3{X: 20}}}
	stats := ctrl.Sweep(players, 12, 0)
	require.Greater(t, stats.Spawned, 0)
	require.LessOrEqual(t, stats.Spawned, basePopulation().MaxSpawnsPerTick)
}

func TestSweepSkipsPlayerWithNoZone(t *testing.T) {
	g := straightGraph(10, 10)
	neighbors := registry.NewNeighborIndex()
	vehicles := registry.NewVehicleRegistry()
	zones := fakeZones{hasZone: false}
	rng := randengine.New(1)
	ctrl := NewController(g, neighbors, vehicles, registry.NewLaneChangeTable(), zones, rng, basePopulation(), baseSpeeds(), baseIDM(), baseMOBIL(), config.Personality{NormalRatio: 1})

	players := []entity.PlayerPos{{SessionID: "p1", CurrentPoint: 2, WorldPos: entity.Vec3{X: 20}}}
	stats := ctrl.Sweep(players, 12, 0)
	require.Equal(t, 0, stats.Spawned)
}

func TestSweepRespectsMinSpawnGap(t *testing.T) {
	g := straightGraph(20, 10)
	neighbors := registry.NewNeighborIndex()
	vehicles := registry.NewVehicleRegistry()
	zones := fakeZones{hasZone: true, tod: 1, zone: entity.Zone{ID: "z", MaxPerKm: 1000, DensityMultiplier: 1}}
	rng := randengine.New(7)
	pop := basePopulation()
	pop.MinSpawnGapM = 1000 // larger than the whole corridor: only the first candidate should land
	ctrl := NewController(g, neighbors, vehicles, registry.NewLaneChangeTable(), zones, rng, pop, baseSpeeds(), baseIDM(), baseMOBIL(), config.Personality{NormalRatio: 1})

	players := []entity.PlayerPos{{SessionID: "p1", CurrentPoint: 2, WorldPos: entity.Vec3{X: 20}}}
	stats := ctrl.Sweep(players, 12, 0)
	require.Equal(t, 1, stats.Spawned)
}

func TestDespawnFarFromAllPlayers(t *testing.T) {
	g := straightGraph(5, 10)
	neighbors := registry.NewNeighborIndex()
	vehicles := registry.NewVehicleRegistry()
	zones := fakeZones{hasZone: false}
	rng := randengine.New(1)
	pop := basePopulation()
	pop.DespawnM = 15
	ctrl := NewController(g, neighbors, vehicles, registry.NewLaneChangeTable(), zones, rng, pop, baseSpeeds(), baseIDM(), baseMOBIL(), config.Personality{NormalRatio: 1})

	far := &entity.AiAgent{ID: 1, CurrentPoint: 4}
	id := vehicles.Spawn(far)
	far.ID = id
	vehicles.Prepare()
	neighbors.Enter(4, far)

	players := []entity.PlayerPos{{SessionID: "p1", CurrentPoint: 0, WorldPos: entity.Vec3{X: 0}}}
	stats := ctrl.Sweep(players, 12, 0)
	require.Equal(t, 1, stats.Despawned)
}
