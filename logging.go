package resp3hub

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger builds a zap.Logger for the hub. When opts.LogFilePath is set,
// output is rotated through lumberjack instead of going to stderr; this is
// the same pairing gnet itself pulls in transitively, promoted here to a
// direct, visible dependency of the server rather than left buried.
func newLogger(opts Options) (*zap.Logger, error) {
	if opts.LogFilePath == "" {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return cfg.Build()
	}

	maxSize := opts.LogMaxSizeMB
	if maxSize <= 0 {
		maxSize = 100
	}
	maxBackups := opts.LogMaxBackups
	if maxBackups <= 0 {
		maxBackups = 3
	}

	sink := &lumberjack.Logger{
		Filename:   opts.LogFilePath,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		Compress:   true,
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(sink),
		zap.InfoLevel,
	)
	return zap.New(core), nil
}
