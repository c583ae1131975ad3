package main

import (
	"math"
	"sync"

	"github.com/Ereebay/assetto-traffic-sim/entity"
	"github.com/Ereebay/assetto-traffic-sim/graph"
	"github.com/Ereebay/assetto-traffic-sim/zone"
)

// buildLoopGraph builds a closed two-lane loop of n points per lane,
// spaced spacingM apart, laid out on a circle so Position is a real
// world coordinate for the zone/despawn distance checks. Lane 0 occupies
// ids [0,n), lane 1 (the passing lane) occupies ids [n,2n), cross-linked
// by index: every lane-0 point has lane 1 as its Right neighbor and every
// lane-1 point has lane 0 as its Left neighbor. Both lanes share one
// direction tag, since they run the same way round the loop.
func buildLoopGraph(n int, spacingM, laneWidthM float64) (*graph.Graph, error) {
	circumference := float64(n) * spacingM
	radius := circumference / (2 * math.Pi)

	points := make([]*entity.SplinePoint, 0, 2*n)
	for lane := 0; lane < 2; lane++ {
		laneRadius := radius + float64(lane)*laneWidthM
		for i := 0; i < n; i++ {
			id := entity.PointID(lane*n + i)
			theta := 2 * math.Pi * float64(i) / float64(n)
			pos := entity.Vec3{X: laneRadius * math.Cos(theta), Z: laneRadius * math.Sin(theta)}
			points = append(points, &entity.SplinePoint{
				ID: id, Position: pos, Length: spacingM, Direction: 0,
			})
		}
	}
	get := func(lane, i int) *entity.SplinePoint {
		return points[lane*n+((i%n+n)%n)]
	}
	for lane := 0; lane < 2; lane++ {
		for i := 0; i < n; i++ {
			p := get(lane, i)
			next := get(lane, i+1).ID
			prev := get(lane, i-1).ID
			p.NextID = &next
			p.PrevID = &prev
			other := get(1-lane, i).ID
			if lane == 0 {
				p.LeftID = nil
				p.RightID = &other
			} else {
				p.LeftID = &other
				p.RightID = nil
			}
		}
	}
	return graph.New(points)
}

// demoZones splits the loop into an "urban" half (denser, slower) and a
// "highway" half (sparser, faster), grounded on controller.go's
// lane-speed-profile-by-segment idea, generalized to a position predicate.
func demoZones(n int) *zone.Manager {
	urban := make(zone.PointSet, n)
	highway := make(zone.PointSet, n)
	for i := 0; i < n; i++ {
		for lane := 0; lane < 2; lane++ {
			id := entity.PointID(lane*n + i)
			if i < n/2 {
				urban[id] = struct{}{}
			} else {
				highway[id] = struct{}{}
			}
		}
	}
	zones := []*entity.Zone{
		{ID: "urban", PointSetName: "urban", Enabled: true, DensityMultiplier: 1.3, SpeedLimitMps: 15, MaxPerKm: 60, TruckRatio: 0.05},
		{ID: "highway", PointSetName: "highway", Enabled: true, DensityMultiplier: 0.8, SpeedLimitMps: 33, MaxPerKm: 40, TruckRatio: 0.2},
	}
	return zone.NewManager(zones, map[string]zone.PointSet{"urban": urban, "highway": highway})
}

// demoHostConfig is the smallest possible entity.HostConfig: a fixed
// AI-desired max speed, the one value §6 says the core reads from the host.
type demoHostConfig struct {
	maxSpeed float64
}

func (h demoHostConfig) AiDesiredMaxSpeed() float64 { return h.maxSpeed }

// demoPlayers simulates a single connected player orbiting the loop at a
// constant speed, standing in for the real host's player feed so the
// harness has something for the spawn/despawn controller to react to.
type demoPlayers struct {
	mu       sync.Mutex
	g        *graph.Graph
	n        int
	spacingM float64
	speedMps float64
	pos      float64 // cumulative arc-length position on lane 0
}

func newDemoPlayers(g *graph.Graph, n int, spacingM, speedMps float64) *demoPlayers {
	return &demoPlayers{g: g, n: n, spacingM: spacingM, speedMps: speedMps}
}

func (d *demoPlayers) advance(dt float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	total := float64(d.n) * d.spacingM
	d.pos = math.Mod(d.pos+d.speedMps*dt, total)
}

func (d *demoPlayers) snapshot() []entity.PlayerPos {
	d.mu.Lock()
	pos := d.pos
	d.mu.Unlock()

	idx := int(pos/d.spacingM) % d.n
	point, ok := d.g.Point(entity.PointID(idx))
	if !ok {
		return nil
	}
	return []entity.PlayerPos{{SessionID: "demo-player", CurrentPoint: point.ID, WorldPos: point.Position}}
}
