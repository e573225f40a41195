package logger

import (
	"log"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"user-admin/internal/core/config"
)

type FileRotate struct {
	Enable     bool
	Filename   string // e.g. logs/admin.log
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Options struct {
	Level       string // debug / info / warn / error
	JSON        bool
	AddCaller   bool
	Development bool
	Stderr      bool // console output to stderr, for CLIs that own stdout
	Rotate      FileRotate
}

// FromConfig maps the log section onto Options. Console output gets the
// development encoder.
func FromConfig(c config.Log) Options {
	return Options{
		Level:       c.Level,
		JSON:        c.JSON,
		AddCaller:   true,
		Development: !c.JSON,
		Rotate: FileRotate{
			Enable:     c.Rotate.Enable,
			Filename:   c.Rotate.Filename,
			MaxSizeMB:  c.Rotate.MaxSizeMB,
			MaxBackups: c.Rotate.MaxBackups,
			MaxAgeDays: c.Rotate.MaxAgeDays,
			Compress:   c.Rotate.Compress,
		},
	}
}

func New(opt Options) (*zap.Logger, func()) {
	var lvl zapcore.Level
	if err := lvl.Set(opt.Level); err != nil {
		lvl = zapcore.InfoLevel
	}
	enc := encoder(opt.JSON)

	out := os.Stdout
	if opt.Stderr {
		out = os.Stderr
	}
	sinks := []zapcore.Core{zapcore.NewCore(enc, zapcore.AddSync(out), lvl)}
	var rotator *lumberjack.Logger
	if opt.Rotate.Enable && opt.Rotate.Filename != "" {
		rotator = &lumberjack.Logger{
			Filename:   opt.Rotate.Filename,
			MaxSize:    max(1, opt.Rotate.MaxSizeMB),
			MaxBackups: max(0, opt.Rotate.MaxBackups),
			MaxAge:     max(0, opt.Rotate.MaxAgeDays),
			Compress:   opt.Rotate.Compress,
		}
		// file output is always JSON so it can be shipped as-is
		sinks = append(sinks, zapcore.NewCore(encoder(true), zapcore.AddSync(rotator), lvl))
	}

	core := zapcore.NewSamplerWithOptions(zapcore.NewTee(sinks...), time.Second, 100, 100)

	var opts []zap.Option
	if opt.AddCaller {
		opts = append(opts, zap.AddCaller())
	}
	if opt.Development {
		opts = append(opts, zap.Development())
	}
	l := zap.New(core, opts...)
	cleanup := func() {
		_ = l.Sync()
		if rotator != nil {
			_ = rotator.Close()
		}
	}
	return l, cleanup
}

func encoder(json bool) zapcore.Encoder {
	if json {
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "ts"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncodeCaller = zapcore.ShortCallerEncoder
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

// RedirectStdLog routes the standard library logger (used by net/http and
// amqp internals) into l. The returned func restores it.
func RedirectStdLog(l *zap.Logger) func() {
	undo, err := zap.RedirectStdLogAt(l, zapcore.WarnLevel)
	if err != nil {
		log.Printf("redirect std log: %v", err)
		return func() {}
	}
	return undo
}
