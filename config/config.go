package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/Ereebay/assetto-traffic-sim/coreerr"
)

var log = logrus.WithField("module", "config")

// RuntimeConfig is the validated, ready-to-use form of Config, mirroring
// the teacher's RuntimeConfig wrapping a raw Config plus its frequently
// accessed Control section.
type RuntimeConfig struct {
	All Config
}

// Load reads and strictly parses a YAML config file, then validates it.
// Unlike the teacher's main.go, which panics on a bad config because it
// owns the process, this returns a wrapped coreerr.ConfigInvalid: the
// core is a library embedded in a host process that gets to decide how
// to fail.
func Load(path string) (*RuntimeConfig, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading config file %q: %v", coreerr.ConfigInvalid, path, err)
	}
	var c Config
	if err := yaml.UnmarshalStrict(file, &c); err != nil {
		return nil, fmt.Errorf("%w: parsing config file %q: %v", coreerr.ConfigInvalid, path, err)
	}
	return NewRuntimeConfig(c)
}

// NewRuntimeConfig validates config and wraps it, returning
// coreerr.ConfigInvalid on the first validation failure.
func NewRuntimeConfig(c Config) (*RuntimeConfig, error) {
	if err := validate(c); err != nil {
		return nil, err
	}
	log.Infof("%+v", c)
	return &RuntimeConfig{All: c}, nil
}

func validate(c Config) error {
	if c.Scheduler.TickRateHz <= 0 {
		return fmt.Errorf("%w: scheduler.tick_rate_hz must be > 0, got %v", coreerr.ConfigInvalid, c.Scheduler.TickRateHz)
	}
	if c.Population.SpawnAheadM <= 0 || c.Population.SpawnBehindM <= 0 {
		return fmt.Errorf("%w: population.spawn_ahead_m/spawn_behind_m must be > 0", coreerr.ConfigInvalid)
	}
	if c.Population.DespawnM <= c.Population.SpawnAheadM {
		return fmt.Errorf("%w: population.despawn_m must be greater than spawn_ahead_m", coreerr.ConfigInvalid)
	}
	if c.Population.MaxSpawnsPerTick < 0 {
		return fmt.Errorf("%w: population.max_spawns_per_tick must be >= 0", coreerr.ConfigInvalid)
	}
	if c.IDM.MinimumGapM <= 0 || c.IDM.TimeHeadwayS <= 0 || c.IDM.SafeDecelMps2 <= 0 || c.IDM.MaxAccelMps2 <= 0 {
		return fmt.Errorf("%w: idm parameters must all be > 0", coreerr.ConfigInvalid)
	}
	if c.MOBIL.Politeness < 0 {
		return fmt.Errorf("%w: mobil.politeness must be >= 0", coreerr.ConfigInvalid)
	}
	if c.Animator.MinDurationS <= 0 || c.Animator.MaxDurationS < c.Animator.MinDurationS {
		return fmt.Errorf("%w: animator.min_duration_s/max_duration_s out of order", coreerr.ConfigInvalid)
	}
	if c.Animator.LaneWidthM <= 0 {
		return fmt.Errorf("%w: animator.lane_width_m must be > 0", coreerr.ConfigInvalid)
	}
	sum := c.Personality.TimidRatio + c.Personality.NormalRatio + c.Personality.AggressiveRatio
	if sum > 1.0+1e-9 {
		return fmt.Errorf("%w: personality ratios sum to %v, must be <= 1", coreerr.ConfigInvalid, sum)
	}
	if c.Personality.TruckRatio < 0 || c.Personality.TruckRatio > 1 {
		return fmt.Errorf("%w: personality.truck_ratio must be within [0,1]", coreerr.ConfigInvalid)
	}
	return nil
}
