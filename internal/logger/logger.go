package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config describes where and how verbosely to log
type Config struct {
	Level   zapcore.Level
	Path    string
	Mode    FileMode
	DevMode bool
}

// New builds a JSON zap logger from cfg
func New(cfg Config) (*zap.Logger, error) {
	ws, err := OpenFile(cfg.Path, cfg.Mode)
	if err != nil {
		return nil, err
	}
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), ws, cfg.Level)
	opts := []zap.Option{zap.ErrorOutput(ws)}
	if cfg.DevMode {
		opts = append(opts, zap.Development(), zap.AddCaller())
	}
	return zap.New(core, opts...), nil
}
