package log

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	logger     zerolog.Logger
	loggerOnce sync.Once
)

// initLogger initializes the global logger to write to stderr with timestamps.
func initLogger() {
	loggerOnce.Do(func() {
		console := zerolog.NewConsoleWriter()
		console.Out = os.Stderr
		console.TimeFormat = time.RFC3339
		logger = zerolog.New(console).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	})
}

// SetLevel adjusts the minimum level. Unknown names fall back to info.
func SetLevel(name string) {
	initLogger()
	level, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)
}

func Debug(msg string, kv ...any) {
	initLogger()
	logger.Debug().Fields(fieldMap(kv)).Msg(msg)
}

func Info(msg string, kv ...any) {
	initLogger()
	logger.Info().Fields(fieldMap(kv)).Msg(msg)
}

func Warn(msg string, kv ...any) {
	initLogger()
	logger.Warn().Fields(fieldMap(kv)).Msg(msg)
}

func Error(msg string, err error, kv ...any) {
	initLogger()
	logger.Error().Err(err).Fields(fieldMap(kv)).Msg(msg)
}

// fieldMap converts a flat key-value list into the map zerolog expects.
// Keys must be strings; an odd trailing value is ignored.
func fieldMap(kv []any) map[string]any {
	if len(kv) == 0 {
		return nil
	}
	fields := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields[key] = kv[i+1]
	}
	return fields
}
