package config

import (
	"fmt"
	"log/slog"
	"time"
	_ "time/tzdata" // schedules must resolve zones on hosts without a zoneinfo database

	"github.com/kelseyhightower/envconfig"

	"github.com/alanyang/shiftdesk/internal/domain/dispatch"
)

type BaseEnv struct {
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort string `envconfig:"HTTP_PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type StoreEnv struct {
	// Store selects the persistence backend: postgres or memory.
	Store       string `envconfig:"STORE" default:"postgres"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
}

type DispatchEnv struct {
	Timezone          string        `envconfig:"TIMEZONE" default:"UTC"`
	SelectionStrategy string        `envconfig:"SELECTION_STRATEGY" default:"rotation"`
	RefreshInterval   time.Duration `envconfig:"REFRESH_INTERVAL" default:"30s"`
	IdempotencyTTL    time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`
}

type Env struct {
	BaseEnv
	StoreEnv
	DispatchEnv
}

const namespace = "SHIFTDESK"

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	return &env, nil
}

// Validate checks the combinations envconfig cannot express.
func (e *Env) Validate() error {
	switch e.Store {
	case StorePostgres:
		if e.DatabaseURL == "" {
			return fmt.Errorf("SHIFTDESK_DATABASE_URL is required when SHIFTDESK_STORE=%s", StorePostgres)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown SHIFTDESK_STORE %q (want %s or %s)", e.Store, StorePostgres, StoreMemory)
	}
	if _, err := e.Strategy(); err != nil {
		return err
	}
	if _, err := e.Location(); err != nil {
		return err
	}
	return nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelInfo
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func (e *BaseEnv) Addr() string {
	return e.HTTPHost + ":" + e.HTTPPort
}

// Location is the zone agent schedules are written in.
func (e *DispatchEnv) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid SHIFTDESK_TIMEZONE %q: %w", e.Timezone, err)
	}
	return loc, nil
}

func (e *DispatchEnv) Strategy() (dispatch.Strategy, error) {
	switch s := dispatch.Strategy(e.SelectionStrategy); s {
	case dispatch.StrategyRotation, dispatch.StrategyLoad:
		return s, nil
	}
	return "", fmt.Errorf("unknown SHIFTDESK_SELECTION_STRATEGY %q", e.SelectionStrategy)
}
