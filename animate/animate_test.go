package animate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Ereebay/assetto-traffic-sim/entity"
	"github.com/Ereebay/assetto-traffic-sim/registry"
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

func TestQuinticEndpointsAreZeroAndOne(t *testing.T) {
	require.InDelta(t, 0, quintic(0), 1e-9)
	require.InDelta(t, 1, quintic(1), 1e-9)
}

func TestDurationClampedToFloorAndCeiling(t *testing.T) {
	g := fakeGraph{pts: map[entity.PointID]*entity.SplinePoint{1: {ID: 1, Length: 50}}}
	neighbors := registry.NewNeighborIndex()
	lanes := registry.NewLaneChangeTable()
	a := NewAnimator(g, neighbors, lanes, Params{BaseDurationS: 3.5, MinDurationS: 1, MaxDurationS: 10, LaneWidthM: 3.5})

	agent := &entity.AiAgent{ID: 1, CurrentPoint: 1, CurrentSpeed: 0}
	lc, err := a.Start(agent, 1, true, 0)
	require.NoError(t, err)
	require.GreaterOrEqual(t, lc.Duration, minDurationFloorS)

	agent2 := &entity.AiAgent{ID: 2, CurrentPoint: 1, CurrentSpeed: 200}
	lc2, err := a.Start(agent2, 1, true, 0)
	require.NoError(t, err)
	require.LessOrEqual(t, lc2.Duration, maxDurationCeilS)
}

func TestStartRejectsWhileAlreadyAnimating(t *testing.T) {
	g := fakeGraph{pts: map[entity.PointID]*entity.SplinePoint{1: {ID: 1, Length: 50}}}
	neighbors := registry.NewNeighborIndex()
	lanes := registry.NewLaneChangeTable()
	a := NewAnimator(g, neighbors, lanes, Params{BaseDurationS: 3.5, MinDurationS: 2.5, MaxDurationS: 7, LaneWidthM: 3.5})
	agent := &entity.AiAgent{ID: 1, CurrentPoint: 1}
	_, err := a.Start(agent, 1, true, 0)
	require.NoError(t, err)
	_, err = a.Start(agent, 1, true, 1)
	require.Error(t, err)
}

func TestStepReachesDoneAtDuration(t *testing.T) {
	g := fakeGraph{pts: map[entity.PointID]*entity.SplinePoint{1: {ID: 1, Length: 50}}}
	neighbors := registry.NewNeighborIndex()
	lanes := registry.NewLaneChangeTable()
	a := NewAnimator(g, neighbors, lanes, Params{BaseDurationS: 3.5, MinDurationS: 2.5, MaxDurationS: 7, LaneWidthM: 3.5})
	agent := &entity.AiAgent{ID: 1, CurrentPoint: 1, CurrentSpeed: 0}
	lc, err := a.Start(agent, 1, true, 0)
	require.NoError(t, err)

	_, done := a.Step(lc, lc.Duration/2, entity.Vec3{X: 1}, 0)
	require.False(t, done)
	require.InDelta(t, 0.5, lc.CompletedRatio, 1e-9)

	_, done = a.Step(lc, lc.Duration, entity.Vec3{X: 1}, 0)
	require.True(t, done)
}

func TestFinalizeMovesNeighborOccupancyAtomically(t *testing.T) {
	source := entity.PointID(1)
	target := entity.PointID(2)
	after := entity.PointID(3)
	g := fakeGraph{pts: map[entity.PointID]*entity.SplinePoint{
		1: {ID: 1, Length: 50},
		2: {ID: 2, Length: 60, NextID: &after},
		3: {ID: 3, Length: 40},
	}}
	neighbors := registry.NewNeighborIndex()
	lanes := registry.NewLaneChangeTable()
	a := NewAnimator(g, neighbors, lanes, Params{BaseDurationS: 3.5, MinDurationS: 2.5, MaxDurationS: 7, LaneWidthM: 3.5})

	agent := &entity.AiAgent{ID: 1, CurrentPoint: source}
	neighbors.Enter(source, agent)
	lc := &entity.ActiveLaneChange{Agent: 1, SourcePoint: source, TargetPoint: target}
	lanes.Start(lc)

	err := a.Finalize(agent, lc)
	require.NoError(t, err)
	require.Equal(t, target, agent.CurrentPoint)
	require.Equal(t, 0.0, agent.VecProgress)

	_, stillAtSource := neighbors.SlowestAt(source)
	require.False(t, stillAtSource)
	occ, atTarget := neighbors.SlowestAt(target)
	require.True(t, atTarget)
	require.Equal(t, agent.ID, occ.ID)

	_, active := lanes.Get(1)
	require.False(t, active, "finalize must clear the lane-change table entry")
}

func TestFinalizeFailsOnTargetWithNoSuccessorWithoutPartialUpdate(t *testing.T) {
	source := entity.PointID(1)
	target := entity.PointID(2)
	g := fakeGraph{pts: map[entity.PointID]*entity.SplinePoint{
		1: {ID: 1, Length: 50},
		2: {ID: 2, Length: 60}, // dead end: no NextID
	}}
	neighbors := registry.NewNeighborIndex()
	lanes := registry.NewLaneChangeTable()
	a := NewAnimator(g, neighbors, lanes, Params{BaseDurationS: 3.5, MinDurationS: 2.5, MaxDurationS: 7, LaneWidthM: 3.5})

	agent := &entity.AiAgent{ID: 1, CurrentPoint: source}
	neighbors.Enter(source, agent)
	lc := &entity.ActiveLaneChange{Agent: 1, SourcePoint: source, TargetPoint: target}
	lanes.Start(lc)

	err := a.Finalize(agent, lc)
	require.Error(t, err)
	require.Equal(t, source, agent.CurrentPoint, "a failed finalize must not move the agent")
	_, stillThere := neighbors.SlowestAt(source)
	require.True(t, stillThere)
}

func TestFinalizeFailsOnMissingTargetWithoutPartialUpdate(t *testing.T) {
	source := entity.PointID(1)
	target := entity.PointID(99)
	g := fakeGraph{pts: map[entity.PointID]*entity.SplinePoint{1: {ID: 1, Length: 50}}}
	neighbors := registry.NewNeighborIndex()
	lanes := registry.NewLaneChangeTable()
	a := NewAnimator(g, neighbors, lanes, Params{BaseDurationS: 3.5, MinDurationS: 2.5, MaxDurationS: 7, LaneWidthM: 3.5})

	agent := &entity.AiAgent{ID: 1, CurrentPoint: source}
	neighbors.Enter(source, agent)
	lc := &entity.ActiveLaneChange{Agent: 1, SourcePoint: source, TargetPoint: target}
	lanes.Start(lc)

	err := a.Finalize(agent, lc)
	require.Error(t, err)
	require.Equal(t, source, agent.CurrentPoint, "a failed finalize must not move the agent")
	_, stillThere := neighbors.SlowestAt(source)
	require.True(t, stillThere)
}
