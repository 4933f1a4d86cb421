package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/navalrts/server/internal/data"
	"github.com/navalrts/server/internal/world"
)

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Logging LoggingConfig `toml:"logging"`
	Match   MatchConfig   `toml:"match"`
	Rules   RulesConfig   `toml:"rules"`
	Data    DataConfig    `toml:"data"`
	Fleet   FleetConfig   `toml:"fleet"`
	Lobby   LobbyConfig   `toml:"lobby"`
}

type ServerConfig struct {
	Name      string `toml:"name"`
	StartTime int64  // set at boot, not from config
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type MatchConfig struct {
	TickRate          time.Duration `toml:"tick_rate"`
	Clients           int           `toml:"clients"`
	InQueueSize       int           `toml:"in_queue_size"`
	OutQueueSize      int           `toml:"out_queue_size"`
	MaxPacketsPerTick int           `toml:"max_packets_per_tick"` // 0 = drain everything
	MaxFrameSize      int           `toml:"max_frame_size"`
	CommandsPerSecond float64       `toml:"commands_per_second"` // 0 disables the limit
	CommandBurst      int           `toml:"command_burst"`
	Seed              uint64        `toml:"seed"` // 0 = random
}

// RulesConfig mirrors world.Rules in file-friendly units.
type RulesConfig struct {
	Gravity            float64       `toml:"gravity"`
	MapHalfSize        float64       `toml:"map_half_size"`
	WaypointEpsilon    float64       `toml:"waypoint_epsilon"`
	ReferenceTurnKts   float64       `toml:"reference_turn_speed_kts"`
	MinDetection       float64       `toml:"min_detection"`
	FiringBoost        time.Duration `toml:"firing_boost"`
	BulletMinAltitude  float64       `toml:"bullet_min_altitude"`
	TorpedoDetection   float64       `toml:"torpedo_detection"`
	TorpedoSpawnOffset float64       `toml:"torpedo_spawn_offset"`
	SmokePuffInterval  time.Duration `toml:"smoke_puff_interval"`
	AimToleranceDeg    float64       `toml:"aim_tolerance_deg"`
}

type DataConfig struct {
	ShipList   string `toml:"ship_list"`
	ScriptsDir string `toml:"scripts_dir"`
}

type FleetConfig struct {
	Ships         []string `toml:"ships"`
	SpawnDistance float64  `toml:"spawn_distance"`
	ShipSpacing   float64  `toml:"ship_spacing"`
}

type LobbyConfig struct {
	BindAddress  string        `toml:"bind_address"`
	Path         string        `toml:"path"`
	PingInterval time.Duration `toml:"ping_interval"`
	WriteTimeout time.Duration `toml:"write_timeout"`
	SendQueue    int           `toml:"send_queue"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

// Default returns the built-in configuration, used when no file exists.
func Default() *Config {
	cfg := defaults()
	cfg.Server.StartTime = time.Now().Unix()
	return cfg
}

func (c *Config) validate() error {
	if c.Match.TickRate <= 0 {
		return fmt.Errorf("match.tick_rate must be positive")
	}
	if c.Match.Clients < 1 {
		return fmt.Errorf("match.clients must be at least 1")
	}
	if c.Match.InQueueSize < 1 || c.Match.OutQueueSize < 1 {
		return fmt.Errorf("match queue sizes must be positive")
	}
	if len(c.Fleet.Ships) == 0 {
		return fmt.Errorf("fleet.ships is empty")
	}
	return nil
}

// WorldRules converts the [rules] section.
func (c *Config) WorldRules() world.Rules {
	r := c.Rules
	return world.Rules{
		Gravity:            r.Gravity,
		MapHalfSize:        r.MapHalfSize,
		WaypointEpsilon:    r.WaypointEpsilon,
		ReferenceTurnSpeed: data.Knots(r.ReferenceTurnKts),
		MinDetection:       r.MinDetection,
		FiringBoost:        r.FiringBoost,
		BulletMinAltitude:  r.BulletMinAltitude,
		TorpedoDetection:   r.TorpedoDetection,
		TorpedoSpawnOffset: r.TorpedoSpawnOffset,
		SmokePuffInterval:  r.SmokePuffInterval,
		AimTolerance:       r.AimToleranceDeg * math.Pi / 180,
	}
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "navalrts",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Match: MatchConfig{
			TickRate:          time.Second / 30,
			Clients:           2,
			InQueueSize:       256,
			OutQueueSize:      4096,
			MaxPacketsPerTick: 64,
			MaxFrameSize:      1 << 20,
			CommandsPerSecond: 30,
			CommandBurst:      60,
		},
		Rules: RulesConfig{
			Gravity:            10,
			MapHalfSize:        24000,
			WaypointEpsilon:    5,
			ReferenceTurnKts:   20,
			MinDetection:       2000,
			FiringBoost:        20 * time.Second,
			BulletMinAltitude:  -100,
			TorpedoDetection:   2000,
			TorpedoSpawnOffset: 50,
			SmokePuffInterval:  2 * time.Second,
			AimToleranceDeg:    1,
		},
		Data: DataConfig{
			ShipList:   "data/yaml/ship_list.yaml",
			ScriptsDir: "scripts",
		},
		Fleet: FleetConfig{
			Ships:         []string{"oland", "bismarck", "kiev", "nagato"},
			SpawnDistance: 8000,
			ShipSpacing:   400,
		},
		Lobby: LobbyConfig{
			BindAddress:  "0.0.0.0:7002",
			Path:         "/ws",
			PingInterval: 15 * time.Second,
			WriteTimeout: 10 * time.Second,
			SendQueue:    512,
		},
	}
}
