package logger

import (
	"context"
	"sync"
	"sync/atomic"
)

//nolint:gochecknoglobals // process-wide logger singleton
var (
	global   atomic.Value // stores Logger
	setOnce  sync.Once
	initOnce sync.Once
)

// SetGlobal configures the process-wide logger. It must be called at most once,
// before components start logging.
func SetGlobal(cfg Config) {
	called := false
	setOnce.Do(func() {
		initOnce.Do(func() {})

		l, err := New(cfg)
		if err != nil {
			panic("[logger]: failed to initialize global logger: " + err.Error())
		}
		global.Store(l)
		called = true
	})
	if !called {
		panic("[logger]: SetGlobal can only be called once")
	}
}

// With returns the global logger with the given key-value pairs attached.
func With(keysAndValues ...any) Logger {
	return getGlobal().With(keysAndValues...)
}

// WithContext returns the global logger enriched with request metadata.
func WithContext(ctx context.Context) Logger {
	return getGlobal().WithContext(ctx)
}

// Named returns the global logger scoped under name.
func Named(name string) Logger {
	return getGlobal().Named(name)
}

// Info logs a message at info level using the global logger.
func Info(msg any) {
	getGlobal().Info(msg)
}

// Errorx logs err at error level using the global logger.
func Errorx(err error) {
	getGlobal().Errorx(err)
}

// Fatalx logs err at fatal level using the global logger and exits.
func Fatalx(err error) {
	getGlobal().Fatalx(err)
}

// Sync flushes the global logger.
func Sync() error {
	return getGlobal().Sync()
}

func getGlobal() Logger {
	if l, ok := global.Load().(Logger); ok {
		return l
	}
	initOnce.Do(func() {
		l, err := New(Config{Level: levelDebug, Encoding: EncodingPretty})
		if err != nil {
			panic("[logger]: failed to initialize default logger: " + err.Error())
		}
		global.Store(l)
	})
	l, ok := global.Load().(Logger)
	if !ok {
		panic("[logger]: global contains invalid type")
	}
	return l
}
