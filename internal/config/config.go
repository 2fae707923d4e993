package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/DoyleJ11/blackjack-backend/internal/engine"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	HTTPAddr        string
	DatabaseURL     string
	Store           string
	JWTSecret       string
	LogLevel        string
	LogDev          bool
	StartingBalance int64
	WSMsgsPerSec    float64
	Rules           engine.Rules
}

// Load reads an optional .env file and then the environment.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, applying defaults for
// unset keys.
func FromEnv(getenv func(string) string) (Config, error) {
	r := &reader{getenv: getenv}
	defaults := engine.DefaultRules()
	cfg := Config{
		HTTPAddr:        r.str("HTTP_ADDR", ":8080"),
		DatabaseURL:     r.str("DATABASE_URL", ""),
		Store:           r.str("STORE", StoreMemory),
		JWTSecret:       r.str("JWT_SECRET", ""),
		LogLevel:        r.str("LOG_LEVEL", "info"),
		LogDev:          r.boolean("LOG_DEV", false),
		StartingBalance: int64(r.integer("STARTING_BALANCE", 1000)),
		WSMsgsPerSec:    float64(r.integer("WS_MSGS_PER_SEC", 10)),
		Rules: engine.Rules{
			Decks:            r.integer("SHOE_DECKS", defaults.Decks),
			ReshuffleBelow:   r.integer("RESHUFFLE_BELOW", defaults.ReshuffleBelow),
			BettingTimeout:   r.duration("BETTING_TIMEOUT", defaults.BettingTimeout),
			TurnTimeout:      r.duration("TURN_TIMEOUT", defaults.TurnTimeout),
			InsuranceTimeout: r.duration("INSURANCE_TIMEOUT", defaults.InsuranceTimeout),
			DealDelay:        r.duration("DEAL_DELAY", defaults.DealDelay),
			DealerStartDelay: r.duration("DEALER_START_DELAY", defaults.DealerStartDelay),
			DealerDrawDelay:  r.duration("DEALER_DRAW_DELAY", defaults.DealerDrawDelay),
			SettlementDelay:  r.duration("SETTLEMENT_DELAY", defaults.SettlementDelay),
		},
	}
	if r.err != nil {
		return Config{}, r.err
	}
	switch cfg.Store {
	case StoreMemory:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required when STORE=%s", StorePostgres)
		}
	default:
		return Config{}, fmt.Errorf("STORE must be %q or %q, got %q", StorePostgres, StoreMemory, cfg.Store)
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Rules.Decks <= 0 {
		return Config{}, fmt.Errorf("SHOE_DECKS must be positive")
	}
	return cfg, nil
}

// reader keeps the first parse error so Load can report it once.
type reader struct {
	getenv func(string) string
	err    error
}

func (r *reader) str(key, def string) string {
	if v := r.getenv(key); v != "" {
		return v
	}
	return def
}

func (r *reader) integer(key string, def int) int {
	v := r.getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return n
}

func (r *reader) boolean(key string, def bool) bool {
	v := r.getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return b
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := r.getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, err)
		return def
	}
	return d
}

func (r *reader) fail(key, value string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("invalid %s=%q: %w", key, value, err)
	}
}
