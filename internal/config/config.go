package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type Config struct {
	Environment string `json:"environment"`
	Server      struct {
		Host string `json:"host"`
		Port int    `json:"port"`
	} `json:"server"`
	MongoDB struct {
		URI      string `json:"uri"`
		Database string `json:"database"`
	} `json:"mongodb"`
	Frontend struct {
		URL string `json:"url"`
	} `json:"frontend"`
	Game struct {
		MatchDurationMs           int64 `json:"matchDurationMs"`
		MatchmakingIntervalSecs   int   `json:"matchmakingIntervalSeconds"`
		BotFallbackSecs           int   `json:"botFallbackSeconds"`
		BotMoveIntervalMs         int64 `json:"botMoveIntervalMs"`
		TournamentStartDelaySecs  int   `json:"tournamentStartDelaySeconds"`
		ForcedEndGraceSecs        int   `json:"forcedEndGraceSeconds"`
		StaleSessionSweepSecs     int   `json:"staleSessionSweepSeconds"`
		StaleSessionThresholdSecs int   `json:"staleSessionThresholdSeconds"`
	} `json:"game"`
}

func Load(env string) (*Config, error) {
	configDir := os.Getenv("CONFIG_DIR")
	if configDir == "" {
		// Default to configs directory relative to working directory
		configDir = "configs"
	}

	filename := fmt.Sprintf("config.%s.json", env)
	configPath := filepath.Join(configDir, filename)

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	// Replace environment variables in the config
	configStr := expandEnvVars(string(data))

	var cfg Config
	if err := json.Unmarshal([]byte(configStr), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Environment = env
	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults fills unset game tuning values so a minimal config file
// still yields a playable server.
func (c *Config) applyDefaults() {
	g := &c.Game
	if g.MatchDurationMs == 0 {
		g.MatchDurationMs = 60000
	}
	if g.MatchmakingIntervalSecs == 0 {
		g.MatchmakingIntervalSecs = 2
	}
	if g.BotFallbackSecs == 0 {
		g.BotFallbackSecs = 10
	}
	if g.BotMoveIntervalMs == 0 {
		g.BotMoveIntervalMs = 1500
	}
	if g.TournamentStartDelaySecs == 0 {
		g.TournamentStartDelaySecs = 2
	}
	if g.ForcedEndGraceSecs == 0 {
		g.ForcedEndGraceSecs = 10
	}
	if g.StaleSessionSweepSecs == 0 {
		g.StaleSessionSweepSecs = 60
	}
	if g.StaleSessionThresholdSecs == 0 {
		g.StaleSessionThresholdSecs = 300
	}
}

func (c *Config) MatchDuration() time.Duration {
	return time.Duration(c.Game.MatchDurationMs) * time.Millisecond
}

func (c *Config) MatchmakingInterval() time.Duration {
	return time.Duration(c.Game.MatchmakingIntervalSecs) * time.Second
}

func (c *Config) BotFallback() time.Duration {
	return time.Duration(c.Game.BotFallbackSecs) * time.Second
}

func (c *Config) BotMoveInterval() time.Duration {
	return time.Duration(c.Game.BotMoveIntervalMs) * time.Millisecond
}

func (c *Config) TournamentStartDelay() time.Duration {
	return time.Duration(c.Game.TournamentStartDelaySecs) * time.Second
}

func (c *Config) ForcedEndGrace() time.Duration {
	return time.Duration(c.Game.ForcedEndGraceSecs) * time.Second
}

func (c *Config) StaleSessionSweep() time.Duration {
	return time.Duration(c.Game.StaleSessionSweepSecs) * time.Second
}

func (c *Config) StaleSessionThreshold() time.Duration {
	return time.Duration(c.Game.StaleSessionThresholdSecs) * time.Second
}

// expandEnvVars replaces ${VAR_NAME} with environment variable values
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		return os.Getenv(key)
	})
}

func GetEnv() string {
	env := os.Getenv("PONG_ENV")
	if env == "" {
		return "dev"
	}
	return env
}
