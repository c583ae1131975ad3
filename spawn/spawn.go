// Package spawn maintains AI population density around each connected
// player: a per-tick sweep walks the graph region around every player,
// compares current occupancy to the zone's target density, and stages
// spawns/despawns into the vehicle registry. Grounded on
// entity/person/manager.go's personInserted staging pattern, generalized
// from "new Person by protobuf" to "new AiAgent by zone profile".
package spawn

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/Ereebay/assetto-traffic-sim/config"
	"github.com/Ereebay/assetto-traffic-sim/entity"
	"github.com/Ereebay/assetto-traffic-sim/registry"
	"github.com/Ereebay/assetto-traffic-sim/utils/randengine"
	"github.com/Ereebay/assetto-traffic-sim/zone"
)

var log = logrus.WithField("module", "spawn")

// Stats counts one sweep's outcome, folded into the tick's TickStats.
type Stats struct {
	Spawned   int
	Despawned int
}

// Controller runs the spawn/despawn sweep. It reads the graph and neighbor
// index read-only and only mutates state through VehicleRegistry.Spawn /
// Despawn, both of which stage their effect for the registry's next
// Prepare, never touching live agents mid-sweep.
type Controller struct {
	graph     entity.SplineGraph
	neighbors entity.NeighborIndex
	vehicles  *registry.VehicleRegistry
	lanes     entity.LaneChangeTable
	zones     entity.ZoneProvider
	rng       *randengine.Engine

	population  config.Population
	speeds      config.Speeds
	idm         config.IDM
	mobil       config.MOBIL
	personality config.Personality
}

func NewController(
	graph entity.SplineGraph,
	neighbors entity.NeighborIndex,
	vehicles *registry.VehicleRegistry,
	lanes entity.LaneChangeTable,
	zones entity.ZoneProvider,
	rng *randengine.Engine,
	population config.Population,
	speeds config.Speeds,
	idm config.IDM,
	mobil config.MOBIL,
	personality config.Personality,
) *Controller {
	return &Controller{
		graph: graph, neighbors: neighbors, vehicles: vehicles, lanes: lanes, zones: zones, rng: rng,
		population: population, speeds: speeds, idm: idm, mobil: mobil, personality: personality,
	}
}

// regionPoint is one spline point swept into a player's region along with
// its cumulative distance from the player (signed: negative behind).
type regionPoint struct {
	point *entity.SplinePoint
	cum   float64
}

// walkRegion collects every point within [-behindM, +aheadM] of (point,
// progress), walking Prev for the behind half and Next for the ahead half.
// Mirrors the leader/follower walks in package control, but unbounded by
// their 200m/50m caps since the spawn region can be configured wider.
func (c *Controller) walkRegion(point entity.PointID, progress, aheadM, behindM float64) []regionPoint {
	start, ok := c.graph.Point(point)
	if !ok {
		return nil
	}
	out := []regionPoint{{point: start, cum: 0}}

	cur := start
	cum := start.Length - progress
	for cum <= aheadM {
		if cur.NextID == nil {
			break
		}
		next, ok := c.graph.Point(*cur.NextID)
		if !ok {
			break
		}
		out = append(out, regionPoint{point: next, cum: cum})
		cur = next
		cum += cur.Length
	}

	cur = start
	cum = progress
	for cur.PrevID != nil {
		prev, ok := c.graph.Point(*cur.PrevID)
		if !ok {
			break
		}
		cum += prev.Length // prev's start lies one full span behind cur's
		if cum > behindM {
			break
		}
		out = append(out, regionPoint{point: prev, cum: -cum})
		cur = prev
	}

	return out
}

// targetCount computes the density-scaled headcount a region of length
// rangeM should hold: maxPerKm (or the config fallback) scaled by the
// zone's density multiplier and the hour-of-day multiplier.
func (c *Controller) targetCount(z entity.Zone, hasZone bool, hour int, rangeM float64) float64 {
	perKm := c.population.BaseDensityPerKm
	densityMult := 1.0
	if hasZone {
		if z.MaxPerKm > 0 {
			perKm = z.MaxPerKm
		}
		if z.DensityMultiplier > 0 {
			densityMult = z.DensityMultiplier
		}
	}
	tod := c.zones.TimeOfDayMultiplier(hour)
	return perKm * densityMult * tod * (rangeM / 1000.0)
}

// Sweep runs one tick's spawn/despawn pass for every connected player,
// drawing new agents toward the target density and despawning agents no
// player is within despawn_m of.
func (c *Controller) Sweep(players []entity.PlayerPos, hour int, now float64) Stats {
	var stats Stats
	if len(players) == 0 {
		return stats
	}
	spawnBudget := c.population.MaxSpawnsPerTick

	for _, p := range players {
		z, hasZone := c.zones.ZoneAt(p.WorldPos, p.CurrentPoint)
		if !hasZone {
			continue
		}
		region := c.walkRegion(p.CurrentPoint, 0, c.population.SpawnAheadM, c.population.SpawnBehindM)
		if len(region) == 0 {
			continue
		}

		occupied := 0
		var occupiedCum []float64
		var candidates []regionPoint
		for _, rp := range region {
			if _, ok := c.neighbors.SlowestAt(rp.point.ID); ok {
				occupied++
				occupiedCum = append(occupiedCum, rp.cum)
				continue
			}
			candidates = append(candidates, rp)
		}

		rangeM := c.population.SpawnAheadM + c.population.SpawnBehindM
		target := c.targetCount(z, hasZone, hour, rangeM)
		need := int(math.Round(target)) - occupied
		if c.population.PerPlayer > 0 && occupied+need > c.population.PerPlayer {
			need = c.population.PerPlayer - occupied
		}
		if need <= 0 || len(candidates) == 0 {
			continue
		}

		for _, rp := range candidates {
			if need <= 0 || spawnBudget <= 0 {
				break
			}
			if c.population.MaxTotal > 0 && c.vehicles.Len()+stats.Spawned >= c.population.MaxTotal {
				break
			}
			if !farEnoughFromOccupants(rp.cum, occupiedCum, c.population.MinSpawnGapM) {
				continue
			}
			c.spawnAt(rp.point, z, now)
			occupiedCum = append(occupiedCum, rp.cum)
			stats.Spawned++
			need--
			spawnBudget--
		}
	}

	stats.Despawned = c.despawnFarFromAll(players)
	return stats
}

// farEnoughFromOccupants rejects a candidate whose cumulative distance from
// the player falls within minGapM of any already-occupied (or
// already-spawned-this-sweep) point in the region, enforcing min_spawn_gap_m
// along the corridor rather than just between graph-adjacent points.
func farEnoughFromOccupants(candidateCum float64, occupiedCum []float64, minGapM float64) bool {
	for _, occ := range occupiedCum {
		if math.Abs(candidateCum-occ) < minGapM {
			return false
		}
	}
	return true
}

func (c *Controller) spawnAt(point *entity.SplinePoint, z entity.Zone, now float64) {
	truckRatio := c.personality.TruckRatio
	timid, normal, aggressive := c.personality.TimidRatio, c.personality.NormalRatio, c.personality.AggressiveRatio
	if z.TruckRatio > 0 {
		truckRatio = z.TruckRatio
	}

	kind := zone.DrawKind(c.rng, truckRatio)
	personality := zone.DrawPersonality(c.rng, timid, normal, aggressive)
	bias := zone.DrawLaneMaxVBias(c.rng)

	desiredKph := c.speeds.DesiredSpeedKph
	if kind == entity.Truck {
		desiredKph = c.speeds.TruckDesiredSpeedKph
	}
	desiredMps := desiredKph / 3.6
	if z.SpeedLimitMps > 0 && z.SpeedLimitMps < desiredMps {
		desiredMps = z.SpeedLimitMps
	}

	base := entity.Params{
		MaxAcceleration: c.idm.MaxAccelMps2,
		SafeDecel:       c.idm.SafeDecelMps2,
		MinimumGap:      c.idm.MinimumGapM,
		TimeHeadway:     c.idm.TimeHeadwayS,
		Politeness:      c.mobil.Politeness,
	}
	params := entity.DefaultParams(base, personality)

	agent := &entity.AiAgent{
		CurrentPoint:     point.ID,
		VecProgress:      0,
		VecLength:        point.Length,
		CurrentSpeed:     desiredMps,
		TargetSpeed:      desiredMps,
		MaxSpeed:         desiredMps,
		Personality:      personality,
		Params:           params,
		Kind:             kind,
		LaneMaxVBias:     bias,
		Initialized:      true,
		LastLaneChangeAt: now,
	}
	id := c.vehicles.Spawn(agent)
	c.neighbors.Enter(point.ID, agent)
	log.Debugf("spawn: agent %d kind=%s personality=%s at point %d", id, kind, personality, point.ID)
}

// despawnFarFromAll removes every agent no player's world position is
// within despawn_m of (straight-line XZ distance from the agent's
// point position, since the core has no richer geometry locally).
// Destruction removes the agent from the neighbor index and cancels any
// in-flight lane change immediately, never leaving a stale occupant
// behind for a surviving agent to follow.
func (c *Controller) despawnFarFromAll(players []entity.PlayerPos) int {
	if len(players) == 0 {
		return 0
	}
	despawnM := c.population.DespawnM
	n := 0
	for _, a := range c.vehicles.All() {
		point, ok := c.graph.Point(a.CurrentPoint)
		if !ok {
			continue
		}
		nearAny := false
		for _, p := range players {
			if point.Position.Distance2D(p.WorldPos) <= despawnM {
				nearAny = true
				break
			}
		}
		if !nearAny {
			c.neighbors.Leave(a.CurrentPoint, a)
			c.lanes.Clear(a.ID)
			c.vehicles.Despawn(a.ID)
			n++
		}
	}
	return n
}
