package entity

import "github.com/Ereebay/assetto-traffic-sim/clock"

// HostConfig exposes the small slice of host configuration the core reads
// directly (as opposed to its own YAML surface, package config), per §6:
// "Host config: AI desired max speed."
type HostConfig interface {
	AiDesiredMaxSpeed() float64
}

// Context bundles everything the core needs from its environment for one
// tick: the graph, the clock, host config, and the live player feed. A
// concrete host (the AssettoServer-style driving server, or the cmd/
// demonstration harness) implements it once at startup. The core owns its
// AiAgent population end-to-end through VehicleRegistry; the host is never
// asked to hold or mutate per-agent state, only to supply the road network,
// the player feed, and the small HostConfig slice above.
type Context interface {
	Graph() SplineGraph
	Clock() *clock.Clock
	HostConfig() HostConfig
	Players() []PlayerPos
}
