package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field keys shared across packages.
const (
	KeyTable  = "table_id"
	KeyPlayer = "player_id"
	KeyConn   = "conn_id"
	KeyPhase  = "phase"
	KeyRound  = "round"
)

// New builds the process logger. development switches to the console
// encoder with stack traces on warnings.
func New(level string, development bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func Table(id string) zap.Field  { return zap.String(KeyTable, id) }
func Player(id string) zap.Field { return zap.String(KeyPlayer, id) }
func Conn(id string) zap.Field   { return zap.String(KeyConn, id) }
