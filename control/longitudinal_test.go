package control

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Ereebay/assetto-traffic-sim/entity"
)

func straightGraph(t *testing.T, n int, spacing float64) (entity.SplineGraph, []*entity.SplinePoint) {
	t.Helper()
	pts := make([]*entity.SplinePoint, n)
	for i := 0; i < n; i++ {
		pts[i] = &entity.SplinePoint{ID: entity.PointID(i), Length: spacing}
	}
	for i := 0; i < n; i++ {
		if i+1 < n {
			next := entity.PointID(i + 1)
			pts[i].NextID = &next
		}
		if i > 0 {
			prev := entity.PointID(i - 1)
			pts[i].PrevID = &prev
		}
	}
	return fakeGraph{pts: pts}, pts
}

type fakeGraph struct {
	pts []*entity.SplinePoint
}

func (g fakeGraph) Points() []*entity.SplinePoint { return g.pts }
func (g fakeGraph) Point(id entity.PointID) (*entity.SplinePoint, bool) {
	for _, p := range g.pts {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}
func (g fakeGraph) WorldToSpline(pos entity.Vec3) (entity.PointID, float64, bool) { return 0, 0, false }
func (g fakeGraph) IsSameDirection(a, b entity.DirectionTag) bool                 { return a == b }

func baseParams() entity.Params {
	return entity.Params{MaxAcceleration: 2.5, SafeDecel: 4.0, MinimumGap: 2.0, TimeHeadway: 1.2, Politeness: 0.2}
}

func TestAccelerateFreeRoadApproachesTargetSpeed(t *testing.T) {
	g, _ := straightGraph(t, 5, 200)
	idx := fakeNeighbors{}
	lon := NewLongitudinal(g, idx)
	agent := &entity.AiAgent{ID: 1, CurrentSpeed: 20, TargetSpeed: 25, MaxSpeed: 25, Params: baseParams(), Acceleration: math.Inf(1)}
	a := lon.Accelerate(agent, 0, 0, 25)
	require.Greater(t, a, 0.0, "below target speed on a clear road should accelerate")
}

func TestAccelerateHardBrakeWhenVeryClose(t *testing.T) {
	g, _ := straightGraph(t, 5, 200)
	idx := fakeNeighbors{occupied: map[entity.PointID]*entity.AiAgent{
		1: {ID: 2, CurrentSpeed: 0},
	}}
	lon := NewLongitudinal(g, idx)
	agent := &entity.AiAgent{ID: 1, CurrentSpeed: 20, TargetSpeed: 25, MaxSpeed: 25, Params: baseParams(), Acceleration: math.Inf(1)}
	a := lon.Accelerate(agent, 0, 199, 25) // 1m from the blocking point
	require.Less(t, a, -1.0, "a stopped leader one meter away must force hard braking")
}

func TestAccelerateNeverRaisesExistingAcceleration(t *testing.T) {
	g, _ := straightGraph(t, 5, 200)
	idx := fakeNeighbors{}
	lon := NewLongitudinal(g, idx)
	agent := &entity.AiAgent{ID: 1, CurrentSpeed: 5, TargetSpeed: 25, MaxSpeed: 25, Params: baseParams(), Acceleration: -2.0}
	a := lon.Accelerate(agent, 0, 0, 25)
	require.LessOrEqual(t, a, -2.0, "override policy must never raise acceleration above an existing decision")
}

type fakeNeighbors struct {
	occupied map[entity.PointID]*entity.AiAgent
}

func (n fakeNeighbors) SlowestAt(p entity.PointID) (*entity.AiAgent, bool) {
	a, ok := n.occupied[p]
	return a, ok
}
func (n fakeNeighbors) Enter(p entity.PointID, a *entity.AiAgent) {}
func (n fakeNeighbors) Leave(p entity.PointID, a *entity.AiAgent) {}
