package logger

import (
	"context"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bigp7952/siggil-sub002/internal/config"
)

// Module exposes a configured Zap logger to the Fx container.
var Module = fx.Provide(New)

// New builds the service logger and syncs it when the app stops.
func New(lc fx.Lifecycle, cfg config.Config) (*zap.Logger, error) {
	logger, err := Build(cfg.Observability)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			// stdout and stderr cannot be fsynced on most platforms.
			_ = logger.Sync()
			return nil
		},
	})

	return logger, nil
}

// Build returns a json logger, or a colored console logger when the encoding is
// "console". Unknown levels fall back to info.
func Build(obs config.Observability) (*zap.Logger, error) {
	zapCfg := zapConfig(obs.LogEncoding)
	zapCfg.Level = zap.NewAtomicLevelAt(parseLevel(obs.LogLevel))

	logger, err := zapCfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, err
	}

	return logger.With(
		zap.String("service", obs.ServiceName),
		zap.String("version", obs.ServiceVersion),
		zap.String("environment", obs.Environment),
	), nil
}

func zapConfig(encoding string) zap.Config {
	if encoding == "console" {
		c := zap.NewDevelopmentConfig()
		c.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.DateTime)
		c.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return c
	}

	c := zap.NewProductionConfig()
	c.Encoding = "json"
	c.EncoderConfig.TimeKey = "ts"
	c.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339Nano)
	c.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	c.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	return c
}

func parseLevel(raw string) zapcore.Level {
	level := zapcore.InfoLevel
	if err := level.Set(strings.ToLower(strings.TrimSpace(raw))); err != nil {
		return zapcore.InfoLevel
	}
	return level
}
