package entity

import "fmt"

// SplinePoint is a read-only node of the road graph. The graph is static
// after load: no component ever mutates a SplinePoint's connectivity at
// runtime, only the NeighborIndex (who currently occupies it) changes.
type SplinePoint struct {
	ID        PointID
	Position  Vec3
	Length    float64 // arc length from this point to Next, meters
	NextID    *PointID
	PrevID    *PointID
	LeftID    *PointID
	RightID   *PointID
	Direction DirectionTag
}

func (p *SplinePoint) String() string {
	return fmt.Sprintf("SplinePoint{ID:%d, Len:%.1f}", p.ID, p.Length)
}

// HasNext reports whether the point has a successor.
func (p *SplinePoint) HasNext() bool { return p.NextID != nil }

// HasPrev reports whether the point has a predecessor.
func (p *SplinePoint) HasPrev() bool { return p.PrevID != nil }

// NeighborID returns the left (Left) or right (Right) link, or nil.
func (p *SplinePoint) NeighborID(side Side) *PointID {
	if side == Left {
		return p.LeftID
	}
	return p.RightID
}

// SplineGraph is the read-only view of the road network the core consumes
// from the host (AssettoServer-style car file + spline loader, or any
// other world source). The graph is immutable after load and may be
// shared freely by reference across goroutines (§5 of the design doc).
type SplineGraph interface {
	// Points returns every point in the graph, indexed arbitrarily (callers
	// should not assume array-index equals PointID).
	Points() []*SplinePoint
	// Point looks up a point by id.
	Point(id PointID) (*SplinePoint, bool)
	// WorldToSpline finds the nearest point to a world position and the
	// progress (0..length) along that point's span.
	WorldToSpline(pos Vec3) (PointID, float64, bool)
	// IsSameDirection reports whether two direction tags represent travel
	// in the same logical direction (used to reject cross-traffic links).
	IsSameDirection(a, b DirectionTag) bool
}
