// Package config loads and sanitizes server tunables, following the
// Default/Load/sanitize shape used elsewhere in this codebase.
package config

import (
	"flagrelay/secret"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultListenAddr      = "0.0.0.0:4444"
	defaultMaxGames        = 10
	defaultMaxCmdLen       = 250
	defaultMaxFlagRetries  = 5
	defaultFlagTokenLen    = 31
	defaultPathLen         = 16
	defaultAcceptIdleMS    = 100
	defaultHandlerTickMS   = 1000
	defaultShutdownDrainMS = 5000

	minAcceptIdleMS  = 10
	minHandlerTickMS = 50
)

// Config holds every tunable this server exposes. Zero-value fields
// left unset by a loaded file fall back to DefaultConfig's values.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`

	MaxGames       int `yaml:"max_games"`
	MaxCmdLen      int `yaml:"max_cmd_len"`
	MaxFlagRetries int `yaml:"max_flag_retries"`
	FlagTokenLen   int `yaml:"flag_token_len"`
	PathLen        int `yaml:"path_len"`

	AcceptIdleMS    int `yaml:"accept_idle_ms"`
	HandlerTickMS   int `yaml:"handler_tick_ms"`
	ShutdownDrainMS int `yaml:"shutdown_drain_ms"`

	BannedTokens    []string `yaml:"banned_tokens"`
	AllowedCommands []string `yaml:"allowed_commands"`
}

// DefaultConfig returns the canonical tunables used when no file is
// given on the command line.
func DefaultConfig() Config {
	return Config{
		ListenAddr:      defaultListenAddr,
		MaxGames:        defaultMaxGames,
		MaxCmdLen:       defaultMaxCmdLen,
		MaxFlagRetries:  defaultMaxFlagRetries,
		FlagTokenLen:    defaultFlagTokenLen,
		PathLen:         defaultPathLen,
		AcceptIdleMS:    defaultAcceptIdleMS,
		HandlerTickMS:   defaultHandlerTickMS,
		ShutdownDrainMS: defaultShutdownDrainMS,
		BannedTokens:    []string{";", "|", "&&", ">", "<", "`", "$(", "..", "/etc", "rm", "sudo", secret.SentinelName},
		AllowedCommands: []string{"ls", "cat", "cd", "echo", "pwd", "openssl", "whoami", "find", "grep"},
	}
}

// LoadConfig reads a YAML file at path, overlaying it onto
// DefaultConfig so any field the file omits keeps its default, then
// sanitizes the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return sanitize(cfg), nil
}

func sanitize(cfg Config) Config {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultListenAddr
	}
	if cfg.MaxGames < 1 {
		cfg.MaxGames = defaultMaxGames
	}
	if cfg.MaxCmdLen < 1 {
		cfg.MaxCmdLen = defaultMaxCmdLen
	}
	if cfg.MaxFlagRetries < 1 {
		cfg.MaxFlagRetries = defaultMaxFlagRetries
	}
	if cfg.FlagTokenLen < 1 {
		cfg.FlagTokenLen = defaultFlagTokenLen
	}
	if cfg.PathLen < 1 {
		cfg.PathLen = defaultPathLen
	}
	if cfg.AcceptIdleMS < minAcceptIdleMS {
		cfg.AcceptIdleMS = defaultAcceptIdleMS
	}
	if cfg.HandlerTickMS < minHandlerTickMS {
		cfg.HandlerTickMS = defaultHandlerTickMS
	}
	if cfg.ShutdownDrainMS < 0 {
		cfg.ShutdownDrainMS = defaultShutdownDrainMS
	}
	return cfg
}

func (c Config) AcceptIdleSleep() time.Duration {
	return time.Duration(c.AcceptIdleMS) * time.Millisecond
}

func (c Config) HandlerTick() time.Duration {
	return time.Duration(c.HandlerTickMS) * time.Millisecond
}

func (c Config) ShutdownDrain() time.Duration {
	return time.Duration(c.ShutdownDrainMS) * time.Millisecond
}

// MaxLiveHandlers is the hard cap on concurrently connected seats:
// two per game slot.
func (c Config) MaxLiveHandlers() int {
	return c.MaxGames * 2
}
