package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/ovenbird/gingerhaus/internal/geometry"
	"github.com/ovenbird/gingerhaus/internal/limiter"
	"github.com/ovenbird/gingerhaus/internal/room"
)

type Server struct {
	Mode   string `mapstructure:"mode"`
	Port   int    `mapstructure:"port"`
	Secret string `mapstructure:"secret"`
}

type Room struct {
	MaxUsers          int           `mapstructure:"max_users"`
	MaxPieces         int           `mapstructure:"max_pieces"`
	UndoDepth         int           `mapstructure:"undo_depth"`
	CellSize          float64       `mapstructure:"cell_size"`
	SearchRadius      int           `mapstructure:"search_radius"`
	HalfExtent        float64       `mapstructure:"half_extent"`
	RoofEpsilon       float64       `mapstructure:"roof_epsilon"`
	RoofOverhang      float64       `mapstructure:"roof_overhang"`
	RoofMaxCycle      int           `mapstructure:"roof_max_cycle"`
	BroadcastInterval time.Duration `mapstructure:"broadcast_interval"`
}

type Lifecycle struct {
	GraceWindow   time.Duration `mapstructure:"grace_window"`
	IdleAfter     time.Duration `mapstructure:"idle_after"`
	EmptyRoomTTL  time.Duration `mapstructure:"empty_room_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// Snapshot selects and parameterizes the persistence backend.
type Snapshot struct {
	Backend       string        `mapstructure:"backend"` // file | redis
	Dir           string        `mapstructure:"dir"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	KeyPrefix     string        `mapstructure:"key_prefix"`
	TTL           time.Duration `mapstructure:"ttl"`
}

type Config struct {
	Server    Server                   `mapstructure:"server"`
	Room      Room                     `mapstructure:"room"`
	Lifecycle Lifecycle                `mapstructure:"lifecycle"`
	Snapshot  Snapshot                 `mapstructure:"snapshot"`
	Limits    map[string]limiter.Limit `mapstructure:"limits"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("server.mode", "release")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.secret", "gingerhaus-dev-secret")

	v.SetDefault("room.max_users", 6)
	v.SetDefault("room.max_pieces", 200)
	v.SetDefault("room.undo_depth", 10)
	v.SetDefault("room.cell_size", 1.0)
	v.SetDefault("room.search_radius", 5)
	v.SetDefault("room.half_extent", 20.0)
	v.SetDefault("room.roof_epsilon", 0.25)
	v.SetDefault("room.roof_overhang", 0.6)
	v.SetDefault("room.roof_max_cycle", 12)
	v.SetDefault("room.broadcast_interval", "50ms")

	v.SetDefault("lifecycle.grace_window", "30s")
	v.SetDefault("lifecycle.idle_after", "2m")
	v.SetDefault("lifecycle.empty_room_ttl", "10m")
	v.SetDefault("lifecycle.sweep_interval", "5s")
	v.SetDefault("lifecycle.flush_interval", "10s")

	v.SetDefault("snapshot.backend", "file")
	v.SetDefault("snapshot.dir", "./data/rooms")
	v.SetDefault("snapshot.redis_addr", "localhost:6379")
	v.SetDefault("snapshot.redis_db", 0)
	v.SetDefault("snapshot.key_prefix", "ginger:")
	v.SetDefault("snapshot.ttl", "168h")

	v.SetDefault("limits.spawn", map[string]any{"rate": 4.0, "burst": 8.0})
	v.SetDefault("limits.delete", map[string]any{"rate": 4.0, "burst": 8.0})
	v.SetDefault("limits.create_wall", map[string]any{"rate": 2.0, "burst": 4.0})
	v.SetDefault("limits.create_fence", map[string]any{"rate": 1.0, "burst": 2.0})
	v.SetDefault("limits.create_icing", map[string]any{"rate": 2.0, "burst": 4.0})
	v.SetDefault("limits.chat", map[string]any{"rate": 1.0, "burst": 3.0})
	v.SetDefault("limits.undo", map[string]any{"rate": 4.0, "burst": 8.0})
	v.SetDefault("limits.reset", map[string]any{"rate": 0.1, "burst": 1.0})
	v.SetDefault("limits.join", map[string]any{"rate": 0.5, "burst": 3.0})
	v.SetDefault("limits.cursor", map[string]any{"rate": 30.0, "burst": 60.0})
	v.SetDefault("limits.transform", map[string]any{"rate": 30.0, "burst": 60.0})

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Snapshots: %s\n", cfg.Server.Mode, cfg.Server.Port, cfg.Snapshot.Backend)
	return &cfg, nil
}

// RoomConfig converts the loaded tunables into the engine's config type.
func (c *Config) RoomConfig() room.Config {
	h := c.Room.HalfExtent
	return room.Config{
		MaxUsers:          c.Room.MaxUsers,
		MaxPieces:         c.Room.MaxPieces,
		UndoDepth:         c.Room.UndoDepth,
		CellSize:          c.Room.CellSize,
		SearchRadius:      c.Room.SearchRadius,
		Bounds:            geometry.Bounds{MinX: -h, MaxX: h, MinZ: -h, MaxZ: h},
		RoofEpsilon:       c.Room.RoofEpsilon,
		RoofOverhang:      c.Room.RoofOverhang,
		RoofMaxCycle:      c.Room.RoofMaxCycle,
		BroadcastInterval: c.Room.BroadcastInterval,
	}
}

// OpLimits keys the configured limits by operation class.
func (c *Config) OpLimits() map[limiter.OpClass]limiter.Limit {
	out := make(map[limiter.OpClass]limiter.Limit, len(c.Limits))
	for name, lim := range c.Limits {
		out[limiter.OpClass(name)] = lim
	}
	return out
}
