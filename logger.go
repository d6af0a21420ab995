package msgpack

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the msgpack package's logger instance.
// It uses a no-op logger by default; the codec hot path never logs.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the msgpack package's logger.
// This must be called before any codec operations.
func SetLogger(l *zap.Logger) {
	logger = l
}
