package zone

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Ereebay/assetto-traffic-sim/entity"
	"github.com/Ereebay/assetto-traffic-sim/utils/randengine"
)

func TestZoneAtPrefersPointSetOverBox(t *testing.T) {
	downtown := &entity.Zone{ID: "downtown", PointSetName: "downtown-points", Enabled: true, DensityMultiplier: 2}
	m := NewManager([]*entity.Zone{downtown}, map[string]PointSet{
		"downtown-points": {5: {}},
	})
	z, ok := m.ZoneAt(entity.Vec3{}, 5)
	require.True(t, ok)
	require.Equal(t, "downtown", z.ID)
}

func TestZoneAtFallsBackToBox(t *testing.T) {
	rural := &entity.Zone{ID: "rural", Enabled: true, Box: &entity.Box{MinX: 0, MinZ: 0, MaxX: 100, MaxZ: 100}}
	m := NewManager([]*entity.Zone{rural}, nil)
	z, ok := m.ZoneAt(entity.Vec3{X: 50, Z: 50}, 999)
	require.True(t, ok)
	require.Equal(t, "rural", z.ID)

	_, ok = m.ZoneAt(entity.Vec3{X: 500, Z: 500}, 999)
	require.False(t, ok)
}

func TestZoneAtSkipsDisabledZones(t *testing.T) {
	z := &entity.Zone{ID: "off", Enabled: false, Box: &entity.Box{MinX: -10, MinZ: -10, MaxX: 10, MaxZ: 10}}
	m := NewManager([]*entity.Zone{z}, nil)
	_, ok := m.ZoneAt(entity.Vec3{}, 1)
	require.False(t, ok)
}

func TestTimeOfDayMultiplierPeaksAtCommuteHours(t *testing.T) {
	m := NewManager(nil, nil)
	require.Greater(t, m.TimeOfDayMultiplier(8), m.TimeOfDayMultiplier(3))
	require.Greater(t, m.TimeOfDayMultiplier(18), m.TimeOfDayMultiplier(12))
}

func TestDrawPersonalityRespectsZeroRatios(t *testing.T) {
	rng := randengine.New(1)
	p := DrawPersonality(rng, 0, 0, 0)
	require.Equal(t, entity.Normal, p)
}

func TestDrawLaneMaxVBiasWithinBounds(t *testing.T) {
	rng := randengine.New(42)
	for i := 0; i < 100; i++ {
		b := DrawLaneMaxVBias(rng)
		require.GreaterOrEqual(t, b, 0.8)
		require.LessOrEqual(t, b, 1.2)
	}
}
