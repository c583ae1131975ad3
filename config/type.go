package config

// ZoneOverride tweaks a subset of a zone's runtime behavior without
// restating its full definition, keyed by zone id in Config.ZoneOverrides.
type ZoneOverride struct {
	DensityMultiplier *float64 `yaml:"density_mult,omitempty"`
	SpeedLimitKph     *float64 `yaml:"speed_limit,omitempty"`
	LaneCount         *int     `yaml:"lane_count,omitempty"`
	Enabled           *bool    `yaml:"enabled,omitempty"`
}

// Scheduler controls tick cadence.
type Scheduler struct {
	TickRateHz float64 `yaml:"tick_rate_hz"`
}

// Population controls the per-player spawn/despawn region and the
// density target used to decide how many agents should occupy it.
type Population struct {
	SpawnAheadM      float64 `yaml:"spawn_ahead_m"`
	SpawnBehindM     float64 `yaml:"spawn_behind_m"`
	DespawnM         float64 `yaml:"despawn_m"`
	MinSpawnGapM     float64 `yaml:"min_spawn_gap_m"`
	MaxSpawnsPerTick int     `yaml:"max_spawns_per_tick"`

	BaseDensityPerKm float64 `yaml:"base_density_per_km"`
	MaxTotal         int     `yaml:"max_total"`
	PerPlayer        int     `yaml:"per_player"`
}

// Speeds holds the personality-neutral cruise speeds new spawns target
// before a zone or personality scales them.
type Speeds struct {
	DesiredSpeedKph      float64 `yaml:"desired_speed_kph"`
	TruckDesiredSpeedKph float64 `yaml:"truck_desired_speed_kph"`
}

// IDM holds the Intelligent Driver Model's base parameters, scaled per
// agent by entity.DefaultParams according to personality.
type IDM struct {
	MinimumGapM    float64 `yaml:"minimum_gap_m"`
	TimeHeadwayS   float64 `yaml:"time_headway_s"`
	SafeDecelMps2  float64 `yaml:"safe_decel_mps2"`
	MaxAccelMps2   float64 `yaml:"max_accel_mps2"`
}

// MOBIL holds the lane-change decider's incentive-model parameters.
type MOBIL struct {
	Politeness           float64 `yaml:"politeness"`
	LaneChangeThreshold  float64 `yaml:"lane_change_threshold"`
	KeepSlowLaneBias     float64 `yaml:"keep_slow_lane_bias"`
	LaneChangeCooldownS  float64 `yaml:"lane_change_cooldown_s"`
}

// Animator holds the lane-change trajectory's duration model.
type Animator struct {
	BaseDurationS float64 `yaml:"base_duration_s"`
	MinDurationS  float64 `yaml:"min_duration_s"`
	MaxDurationS  float64 `yaml:"max_duration_s"`
	LaneWidthM    float64 `yaml:"lane_width_m"`
}

// Personality holds the ratios used to draw a new spawn's personality and
// vehicle kind. The ratios must sum to <= 1; the remainder is Normal.
type Personality struct {
	TimidRatio      float64 `yaml:"timid_ratio"`
	NormalRatio     float64 `yaml:"normal_ratio"`
	AggressiveRatio float64 `yaml:"aggressive_ratio"`
	TruckRatio      float64 `yaml:"truck_ratio"`
}

// Diagnostics controls optional logging verbosity.
type Diagnostics struct {
	DebugLogging   bool `yaml:"debug_logging"`
	LogLaneChanges bool `yaml:"log_lane_changes"`
}

// Config is the YAML-rooted configuration schema, loaded via
// yaml.UnmarshalStrict the way the teacher's utils/config.Config is.
type Config struct {
	Scheduler    Scheduler               `yaml:"scheduler"`
	Population   Population              `yaml:"population"`
	Speeds       Speeds                  `yaml:"speeds"`
	IDM          IDM                     `yaml:"idm"`
	MOBIL        MOBIL                   `yaml:"mobil"`
	Animator     Animator                `yaml:"animator"`
	Personality  Personality             `yaml:"personality"`
	ZoneOverrides map[string]ZoneOverride `yaml:"zone_overrides,omitempty"`
	Diagnostics  Diagnostics             `yaml:"diagnostics"`
}
