// Command trafficsim is a standalone demonstration harness: it loads a
// YAML config, wires an in-memory loop-road host (no network, no physics
// engine), and runs the core scheduler against it, logging a heartbeat
// line of tick counters every five seconds. It exists to demonstrate the host integration
// contract described in §6 without depending on any particular driving
// server. Grounded on the teacher's root main.go (flag parsing, the
// easy.Formatter log setup, yaml.UnmarshalStrict-via-config.Load), with
// the syncer sidecar and economy-simulator registration dropped: this
// core has no distributed control plane or RPC surface to register.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/sirupsen/logrus"

	"github.com/Ereebay/assetto-traffic-sim/animate"
	"github.com/Ereebay/assetto-traffic-sim/clock"
	"github.com/Ereebay/assetto-traffic-sim/config"
	"github.com/Ereebay/assetto-traffic-sim/control"
	"github.com/Ereebay/assetto-traffic-sim/registry"
	"github.com/Ereebay/assetto-traffic-sim/scheduler"
	"github.com/Ereebay/assetto-traffic-sim/spawn"
	"github.com/Ereebay/assetto-traffic-sim/utils/randengine"
)

var (
	configPath = flag.String("config", "", "config file path")
	seed       = flag.Uint64("seed", 1, "random engine seed")

	logLevels = map[string]logrus.Level{
		"trace": logrus.TraceLevel,
		"debug": logrus.DebugLevel,
		"info":  logrus.InfoLevel,
		"warn":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
		"off":   logrus.PanicLevel,
	}
	logLevel = flag.String("log.level", "info", "log level: trace debug info warn error off")

	log = logrus.WithField("module", "trafficsim")
)

func main() {
	flag.Parse()
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	if level, ok := logLevels[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		log.Panicf("log.level must be one of %v", logLevels)
	}
	if *configPath == "" {
		log.Panic("-config must be specified")
	}

	rc, err := config.Load(*configPath)
	if err != nil {
		log.Panicf("config load failed: %v", err)
	}
	c := rc.All

	const loopPoints = 80
	const spacingM = 25.0
	g, err := buildLoopGraph(loopPoints, spacingM, c.Animator.LaneWidthM)
	if err != nil {
		log.Panicf("demo graph build failed: %v", err)
	}
	zones := demoZones(loopPoints)

	neighbors := registry.NewNeighborIndex()
	vehicles := registry.NewVehicleRegistry()
	lanes := registry.NewLaneChangeTable()

	long := control.NewLongitudinal(g, neighbors)
	decider := control.NewLaneChangeDecider(g, neighbors, lanes, long, control.LaneChangeParams{
		Threshold:        c.MOBIL.LaneChangeThreshold,
		KeepSlowLaneBias: c.MOBIL.KeepSlowLaneBias,
		CooldownS:        c.MOBIL.LaneChangeCooldownS,
		LaneEndMarginM:   20,
		UsualBrakingA:    c.IDM.SafeDecelMps2,
	})
	anim := animate.NewAnimator(g, neighbors, lanes, animate.Params{
		BaseDurationS: c.Animator.BaseDurationS,
		MinDurationS:  c.Animator.MinDurationS,
		MaxDurationS:  c.Animator.MaxDurationS,
		LaneWidthM:    c.Animator.LaneWidthM,
	})
	rng := randengine.New(*seed)
	spawner := spawn.NewController(g, neighbors, vehicles, lanes, zones, rng, c.Population, c.Speeds, c.IDM, c.MOBIL, c.Personality)

	players := newDemoPlayers(g, loopPoints, spacingM, 20.0) // ~72 km/h
	clk := clock.New(c.Scheduler.TickRateHz)
	sched := scheduler.New(clk, g, vehicles, lanes, long, decider, anim, spawner, zones,
		demoHostConfig{maxSpeed: 33.0}, players.snapshot,
		scheduler.Params{
			TickRateHz:             c.Scheduler.TickRateHz,
			HeartbeatIntervalTicks: int64(c.Scheduler.TickRateHz) * 5,
			DebugLogging:           c.Diagnostics.DebugLogging,
			LogLaneChanges:         c.Diagnostics.LogLaneChanges,
		},
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go driveDemoPlayers(ctx, players, clk.DT)

	log.Infof("starting scheduler at %.1f Hz", c.Scheduler.TickRateHz)
	if err := sched.Run(ctx); err != nil {
		log.Infof("scheduler exited: %v", err)
	}
}

// driveDemoPlayers advances the demo player's orbit position once per
// tick interval, standing in for the host's real per-frame player feed.
func driveDemoPlayers(ctx context.Context, players *demoPlayers, dt float64) {
	ticker := time.NewTicker(time.Duration(dt * float64(time.Second)))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			players.advance(dt)
		}
	}
}
