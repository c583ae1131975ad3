// Package clock provides the simulation's monotonic session clock, adapted
// from the teacher's clock.Clock: a fixed dt, a running tick count, and the
// same Day/Hour/Minute/Second formatting helpers, without the sub-loop
// scaling or RPC registration the distributed host needed.
package clock

import "fmt"

// Clock tracks simulation time for one running core instance. T advances
// by DT every tick; InternalStep counts ticks since Init.
type Clock struct {
	DT float64 // seconds per tick

	T            float64 // current simulation time, seconds
	InternalStep int64
}

// New creates a Clock for the given tick rate.
func New(tickRateHz float64) *Clock {
	c := &Clock{DT: 1.0 / tickRateHz}
	c.Init()
	return c
}

// Init resets the clock to t=0, step=0.
func (c *Clock) Init() {
	c.InternalStep = 0
	c.T = 0
}

// Advance moves the clock forward by one tick.
func (c *Clock) Advance() {
	c.InternalStep++
	c.T = float64(c.InternalStep) * c.DT
}

// NowMillis returns the current simulation time in milliseconds, matching
// the §6 "session clock: monotonic server time in milliseconds" contract.
func (c *Clock) NowMillis() int64 {
	return int64(c.T * 1000)
}

// GetHourMinuteSecond decomposes T into a wall-clock-like hour/minute/second
// triple, wrapping at 24h, mirroring the teacher's day-of-simulation clock.
func (c *Clock) GetHourMinuteSecond() (hour, minute int, second float64) {
	dayStart := float64(int64(c.T)/86400) * 86400
	t := c.T - dayStart
	hour = int(t) / 3600
	minute = int(t) % 3600 / 60
	second = t - float64(hour*3600+minute*60)
	return
}

// String renders the clock as HH:MM:SS.
func (c *Clock) String() string {
	h, m, s := c.GetHourMinuteSecond()
	return fmt.Sprintf("%02d:%02d:%02d", h, m, int(s))
}
