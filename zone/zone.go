// Package zone resolves which Zone a position falls in and draws the
// personality/kind/speed-recognition attributes new spawns get, grounded
// on controller.go's laneMaxVRatio noise pattern and
// entity/person/person.go's NormFloat64-clamp noise idiom.
package zone

import (
	"math"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/Ereebay/assetto-traffic-sim/entity"
	"github.com/Ereebay/assetto-traffic-sim/utils/randengine"
)

var log = logrus.WithField("module", "zone")

// PointSet is a named set of point ids, the preferred zone predicate kind
// over a world-space box.
type PointSet map[entity.PointID]struct{}

// Manager resolves zones and draws spawn attributes. Zones are checked in
// registration order; the first match wins, matching the "at most one
// zone applies" invariant.
type Manager struct {
	zones     []*entity.Zone
	pointSets map[string]PointSet
}

func NewManager(zones []*entity.Zone, pointSets map[string]PointSet) *Manager {
	return &Manager{zones: zones, pointSets: pointSets}
}

// ZoneAt resolves the zone containing pos, preferring the named point-set
// predicate (inSet/point) when the zone specifies one, falling back to
// the axis-aligned box.
func (m *Manager) ZoneAt(pos entity.Vec3, point entity.PointID) (entity.Zone, bool) {
	for _, z := range m.zones {
		if !z.Enabled {
			continue
		}
		if z.PointSetName != "" {
			set, ok := m.pointSets[z.PointSetName]
			if ok {
				if _, in := set[point]; in {
					return *z, true
				}
				continue
			}
		}
		if z.Box != nil && z.Box.Contains(pos) {
			return *z, true
		}
	}
	return entity.Zone{}, false
}

// TimeOfDayMultiplier scales base density by hour-of-day: a simple
// commute-peaked curve — higher at 7-9 and 17-19, a trough overnight.
func (m *Manager) TimeOfDayMultiplier(hour int) float64 {
	switch {
	case hour >= 7 && hour < 9:
		return 1.4
	case hour >= 17 && hour < 19:
		return 1.5
	case hour >= 23 || hour < 5:
		return 0.3
	default:
		return 1.0
	}
}

// DrawPersonality picks a personality from the configured ratios
// (timid/normal/aggressive), the remainder of the ratios implicitly
// Normal. VeryAggressive is never drawn here.
func DrawPersonality(rng *randengine.Engine, timid, normal, aggressive float64) entity.Personality {
	weights := []float64{timid, normal, aggressive}
	remaining := 1 - (timid + normal + aggressive)
	weights = append(weights, math.Max(0, remaining))
	idx := rng.DiscreteDistributionSafe(weights)
	switch idx {
	case 0:
		return entity.Timid
	case 1:
		return entity.Normal
	case 2:
		return entity.Aggressive
	default:
		return entity.Normal
	}
}

// DrawKind picks Truck with probability truckRatio, Car otherwise.
func DrawKind(rng *randengine.Engine, truckRatio float64) entity.Kind {
	if rng.PTrueSafe(truckRatio) {
		return entity.Truck
	}
	return entity.Car
}

// DrawLaneMaxVBias draws a speed-limit recognition bias, N(1, 0.1)
// clamped to +-20%, mirroring controller.go's laneMaxVRatio comment and
// person.go's NormFloat64-clamp noise idiom (lo.Clamp(.5*Norm(), -1, 1)
// scaled by an amplitude, generalized here to a +-2 sigma clamp at 0.1 std).
func DrawLaneMaxVBias(rng *randengine.Engine) float64 {
	bias := 1 + 0.1*lo.Clamp(rng.NormFloat64(), -2, 2)
	return lo.Clamp(bias, 0.8, 1.2)
}
