package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type GameConfig struct {
	TargetCount    int `yaml:"target_count"`
	MaxTargetCount int `yaml:"max_target_count"`
	FieldSize      int `yaml:"field_size"`
	TargetSize     int `yaml:"target_size"`
}

type Config struct {
	Port              string
	LogLevel          string
	SessionTTLMinutes int
	Game              GameConfig
}

// fileGame uses pointers so an explicit zero in the file is kept.
type fileGame struct {
	TargetCount    *int `yaml:"target_count"`
	MaxTargetCount *int `yaml:"max_target_count"`
	FieldSize      *int `yaml:"field_size"`
	TargetSize     *int `yaml:"target_size"`
}

type fileConfig struct {
	Game fileGame `yaml:"game"`
}

func defaultGame() GameConfig {
	return GameConfig{
		TargetCount:    3,
		MaxTargetCount: 1000,
		FieldSize:      384,
		TargetSize:     42,
	}
}

// Load reads the configuration from the environment. When CONFIG_FILE names
// a YAML file its game section replaces the defaults; environment variables
// still take precedence.
func Load() (Config, error) {
	game := defaultGame()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		fromFile, err := loadFile(path)
		if err != nil {
			return Config{}, err
		}
		game = merge(game, fromFile)
	}

	cfg := Config{
		Port:              getEnv("PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		SessionTTLMinutes: getEnvInt("SESSION_TTL_MINUTES", 60),
		Game: GameConfig{
			TargetCount:    getEnvInt("TARGET_COUNT", game.TargetCount),
			MaxTargetCount: getEnvInt("MAX_TARGET_COUNT", game.MaxTargetCount),
			FieldSize:      getEnvInt("FIELD_SIZE", game.FieldSize),
			TargetSize:     getEnvInt("TARGET_SIZE", game.TargetSize),
		},
	}
	if cfg.Game.TargetCount < 0 {
		return Config{}, fmt.Errorf("target count must not be negative, got %d", cfg.Game.TargetCount)
	}
	if cfg.Game.MaxTargetCount < 0 {
		return Config{}, fmt.Errorf("max target count must not be negative, got %d", cfg.Game.MaxTargetCount)
	}
	if cfg.Game.MaxTargetCount > 0 && cfg.Game.TargetCount > cfg.Game.MaxTargetCount {
		return Config{}, fmt.Errorf("target count %d exceeds max target count %d", cfg.Game.TargetCount, cfg.Game.MaxTargetCount)
	}
	if cfg.Game.TargetSize > cfg.Game.FieldSize {
		return Config{}, fmt.Errorf("target size %d exceeds field size %d", cfg.Game.TargetSize, cfg.Game.FieldSize)
	}
	return cfg, nil
}

func loadFile(path string) (fileGame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileGame{}, fmt.Errorf("reading config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fileGame{}, fmt.Errorf("parsing config file: %w", err)
	}
	return fc.Game, nil
}

// merge keeps base values for fields the file leaves unset.
func merge(base GameConfig, override fileGame) GameConfig {
	if override.TargetCount != nil {
		base.TargetCount = *override.TargetCount
	}
	if override.MaxTargetCount != nil {
		base.MaxTargetCount = *override.MaxTargetCount
	}
	if override.FieldSize != nil {
		base.FieldSize = *override.FieldSize
	}
	if override.TargetSize != nil {
		base.TargetSize = *override.TargetSize
	}
	return base
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
