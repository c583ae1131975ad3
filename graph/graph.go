// Package graph implements entity.SplineGraph: a static, load-once road
// network of entity.SplinePoint nodes plus a uniform spatial grid so
// WorldToSpline and the spawn controller's per-player region sweep don't
// scan every point in the map every tick.
package graph

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/Ereebay/assetto-traffic-sim/coreerr"
	"github.com/Ereebay/assetto-traffic-sim/entity"
	"github.com/Ereebay/assetto-traffic-sim/utils/container"
)

var log = logrus.WithField("module", "graph")

// cellSize is the grid bucket edge length in meters. It trades memory for
// query speed: large enough that a typical road segment spans a handful
// of cells, small enough that a cell holds few points.
const cellSize = 50.0

type cellKey struct{ x, z int64 }

func cellOf(pos entity.Vec3) cellKey {
	return cellKey{
		x: int64(math.Floor(pos.X / cellSize)),
		z: int64(math.Floor(pos.Z / cellSize)),
	}
}

// Graph is the in-memory road network: an immutable slice of points plus
// the id->index and id->point lookups and the spatial grid layered on top.
type Graph struct {
	points []*entity.SplinePoint
	byID   map[entity.PointID]*entity.SplinePoint
	grid   map[cellKey][]*entity.SplinePoint
}

// New builds a Graph from a flat slice of points, validating link
// consistency (§ graph-inconsistent invariants: every Next/Prev/Left/Right
// id, if set, must resolve to a point that is itself part of the graph).
func New(points []*entity.SplinePoint) (*Graph, error) {
	g := &Graph{
		points: points,
		byID:   make(map[entity.PointID]*entity.SplinePoint, len(points)),
		grid:   make(map[cellKey][]*entity.SplinePoint),
	}
	for _, p := range points {
		if _, dup := g.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate point id %d", coreerr.GraphInconsistent, p.ID)
		}
		g.byID[p.ID] = p
	}
	for _, p := range points {
		for _, ref := range []*entity.PointID{p.NextID, p.PrevID, p.LeftID, p.RightID} {
			if ref == nil {
				continue
			}
			if _, ok := g.byID[*ref]; !ok {
				return nil, fmt.Errorf("%w: point %d references missing point %d", coreerr.GraphInconsistent, p.ID, *ref)
			}
		}
		if p.Length < 0 {
			return nil, fmt.Errorf("%w: point %d has negative length %v", coreerr.GraphInconsistent, p.ID, p.Length)
		}
		key := cellOf(p.Position)
		g.grid[key] = append(g.grid[key], p)
	}
	log.Infof("loaded graph: %d points, %d grid cells", len(points), len(g.grid))
	return g, nil
}

func (g *Graph) Points() []*entity.SplinePoint {
	return g.points
}

func (g *Graph) Point(id entity.PointID) (*entity.SplinePoint, bool) {
	p, ok := g.byID[id]
	return p, ok
}

func (g *Graph) IsSameDirection(a, b entity.DirectionTag) bool {
	return a == b
}

// WorldToSpline returns the nearest point to pos and the progress (arc
// length from that point toward Next) implied by projecting pos onto the
// segment, by expanding a ring search over the spatial grid until a
// candidate is found, then checking the adjacent ring once more to catch
// points just across a cell boundary.
func (g *Graph) WorldToSpline(pos entity.Vec3) (entity.PointID, float64, bool) {
	center := cellOf(pos)
	var best *entity.SplinePoint

	nearestQueue := container.NewPriorityQueue[*entity.SplinePoint]()
	firstHit := -1
	for radius := 0; radius <= maxSearchRadius; radius++ {
		found := false
		for dx := -int64(radius); dx <= int64(radius); dx++ {
			for dz := -int64(radius); dz <= int64(radius); dz++ {
				if radius > 0 && abs64(dx) != int64(radius) && abs64(dz) != int64(radius) {
					continue // only scan the new ring, interior cells already scanned
				}
				key := cellKey{x: center.x + dx, z: center.z + dz}
				for _, p := range g.grid[key] {
					found = true
					nearestQueue.Push(p, pos.Distance2D(p.Position))
				}
			}
		}
		if found {
			nearestQueue.Heapify()
			best = nearestQueue.First()
			if firstHit < 0 {
				firstHit = radius
			}
		}
		if best != nil && radius > firstHit {
			break
		}
	}
	if best == nil {
		return 0, 0, false
	}

	progress := g.projectProgress(best, pos)
	return best.ID, progress, true
}

const maxSearchRadius = 6

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// projectProgress estimates arc-length progress from point p toward its
// Next by projecting pos onto the straight chord p->Next, clamped to
// [0, p.Length]. Falls back to 0 (exactly at p) when p has no Next.
func (g *Graph) projectProgress(p *entity.SplinePoint, pos entity.Vec3) float64 {
	if p.NextID == nil || p.Length <= 0 {
		return 0
	}
	next, ok := g.byID[*p.NextID]
	if !ok {
		return 0
	}
	chord := next.Position.Sub(p.Position)
	chordLen := chord.NormXZ()
	if chordLen <= 0 {
		return 0
	}
	toPos := pos.Sub(p.Position)
	t := toPos.Dot(chord) / (chordLen * chordLen)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return t * p.Length
}
