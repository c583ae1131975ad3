package entity

// Box is an axis-aligned XZ rectangle, the fallback zone predicate kind
// when a named spline-point set is not configured.
type Box struct {
	MinX, MinZ float64
	MaxX, MaxZ float64
}

// Contains reports whether a world position's XZ projection falls inside
// the box (inclusive bounds).
func (b Box) Contains(pos Vec3) bool {
	return pos.X >= b.MinX && pos.X <= b.MaxX && pos.Z >= b.MinZ && pos.Z <= b.MaxZ
}

// Profile holds a zone's personality ratios (sum <= 1, remainder
// implicitly Normal) and a truck ratio. The spawn controller does not read
// it: new agents draw their personality from the config ratios and their
// kind from Zone.TruckRatio (or the config truck ratio).
type Profile struct {
	TimidRatio      float64
	AggressiveRatio float64
	VeryAggRatio    float64
	TruckRatio      float64
}

// Zone is a named region of the road with its own density, speed and
// personality distribution. At most one zone applies to any position.
type Zone struct {
	ID                string
	PointSetName      string // non-empty selects the point-membership predicate
	Box               *Box   // non-nil selects the fallback rectangle predicate
	LaneCount         int
	DensityMultiplier float64
	SpeedLimitMps     float64
	MaxPerKm          float64
	TruckRatio        float64
	Profile           Profile
	Enabled           bool
}

// PlayerPos is the host-reported position of a connected player, consumed
// read-only by the spawn controller.
type PlayerPos struct {
	SessionID    string
	CurrentPoint PointID
	WorldPos     Vec3
}
