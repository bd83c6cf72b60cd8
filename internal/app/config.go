package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/vk/chaingrid/internal/datasource"
	"github.com/vk/chaingrid/internal/events"
	"github.com/vk/chaingrid/modules/datarequest"
)

// Mode selects what App.Run does.
type Mode string

const (
	// ModeServe exposes the chain over HTTP until the context is done.
	ModeServe Mode = "serve"
	// ModeRun executes the chain once and prints a report.
	ModeRun Mode = "run"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Mode     Mode
	GridPath string // hcl file or directory; required in run mode
	Addr     string // serve mode listen address
	Start    string // run mode start node; empty selects the graph's start node
	Vars     map[string]any

	LogFormat string
	LogLevel  string

	APIURL         string
	HTTPTimeout    time.Duration
	ScriptMaxSteps uint64
	RunTimeout     time.Duration

	NATSURL      string
	RedisURL     string
	RedisChannel string
	UISocketURL  string
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	switch cfg.Mode {
	case ModeServe:
		if cfg.Addr == "" {
			return nil, errors.New("Addr is a required configuration field in serve mode and cannot be empty")
		}
	case ModeRun:
		if cfg.GridPath == "" {
			return nil, errors.New("GridPath is a required configuration field in run mode and cannot be empty")
		}
	default:
		return nil, fmt.Errorf("unknown mode '%s'", cfg.Mode)
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = "text"
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format '%s': must be 'text' or 'json'", cfg.LogFormat)
	}

	if _, err := datasource.NewResolver(cfg.APIURL); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = datarequest.DefaultTimeout
	}
	if cfg.RunTimeout < 0 {
		return nil, fmt.Errorf("invalid run timeout %s: must not be negative", cfg.RunTimeout)
	}
	if cfg.RedisURL != "" && cfg.RedisChannel == "" {
		cfg.RedisChannel = events.DefaultRedisChannel
	}
	if cfg.Vars == nil {
		cfg.Vars = make(map[string]any)
	}

	return &cfg, nil
}
