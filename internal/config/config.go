package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config describes all runtime settings for the server.
//
// Loaded once in main, validated, then passed down explicitly.
type Config struct {
	Env string // dev|stage|prod

	Log struct {
		Format string // text|json
	}

	HTTP struct {
		Addr              string
		ReadHeaderTimeout time.Duration
		ReadTimeout       time.Duration
		WriteTimeout      time.Duration
		IdleTimeout       time.Duration
		ShutdownTimeout   time.Duration
	}

	Stats struct {
		Backend string // memory|redis
	}

	Redis struct {
		Addr     string
		DB       int
		StatsTTL time.Duration
	}

	Game struct {
		Capacity        int
		MaxRounds       int
		RoundDuration   time.Duration
		WordChoiceCount int
	}
}

func LoadFromEnv() (Config, error) {
	var c Config

	c.Env = envString("APP_ENV", "dev")
	c.Log.Format = envString("LOG_FORMAT", "text")

	port := envString("PORT", "8080")
	c.HTTP.Addr = envString("HTTP_ADDR", ":"+port)
	c.HTTP.ReadHeaderTimeout = envDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second)
	c.HTTP.ReadTimeout = envDuration("HTTP_READ_TIMEOUT", 0)
	c.HTTP.WriteTimeout = envDuration("HTTP_WRITE_TIMEOUT", 0)
	c.HTTP.IdleTimeout = envDuration("HTTP_IDLE_TIMEOUT", 60*time.Second)
	c.HTTP.ShutdownTimeout = envDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second)

	c.Stats.Backend = envString("STATS_BACKEND", "memory")

	c.Redis.Addr = envString("REDIS_ADDR", "localhost:6379")
	c.Redis.DB = envInt("REDIS_DB", 0)
	c.Redis.StatsTTL = envDuration("STATS_TTL", 10*time.Minute)

	c.Game.Capacity = envInt("ROOM_CAPACITY", 10)
	c.Game.MaxRounds = envInt("MAX_ROUNDS", 10)
	c.Game.RoundDuration = envDuration("ROUND_DURATION", 60*time.Second)
	c.Game.WordChoiceCount = envInt("WORD_CHOICE_COUNT", 3)

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("HTTP addr is empty")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("unsupported LOG_FORMAT=%q (want text|json)", c.Log.Format)
	}
	if c.Stats.Backend != "memory" && c.Stats.Backend != "redis" {
		return fmt.Errorf("unsupported STATS_BACKEND=%q (want memory|redis)", c.Stats.Backend)
	}
	if c.Stats.Backend == "redis" && c.Redis.Addr == "" {
		return errors.New("REDIS_ADDR is empty")
	}
	if c.Game.Capacity < 2 {
		return fmt.Errorf("ROOM_CAPACITY=%d too small", c.Game.Capacity)
	}
	if c.Game.RoundDuration < 5*time.Second {
		return fmt.Errorf("ROUND_DURATION=%s too short", c.Game.RoundDuration)
	}
	return nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
