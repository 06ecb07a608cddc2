package main

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/born-ml/saliency/internal/config"
)

// newLogger builds the command logger. Logs go to a rotated file when
// log.file is set and to stderr otherwise. closeFn flushes the logger and
// closes the log file.
func newLogger(cfg *config.Config, stderr io.Writer) (logger *zap.Logger, closeFn func() error, err error) {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.Log.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	var sink zapcore.WriteSyncer
	var file *lumberjack.Logger
	if cfg.Log.File != "" {
		file = &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAgeDays,
			Compress:   true,
		}
		sink = zapcore.AddSync(file)
	} else {
		sink = zapcore.Lock(zapcore.AddSync(stderr))
	}

	core := zapcore.NewCore(encoder, sink, level)
	logger = zap.New(core, zap.AddCaller()).With(zap.String("version", version))

	closeFn = func() error {
		_ = logger.Sync() // stderr may not support fsync
		if file != nil {
			return file.Close()
		}
		return nil
	}
	return logger, closeFn, nil
}
