package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New 构造服务全局 logger。
// pretty 模式用于本地开发，生产输出 JSON 便于采集。
func New(level string, pretty bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	} else {
		logger = zerolog.New(os.Stdout)
	}

	return logger.Level(lvl).With().
		Timestamp().
		Str("service", "bankcore").
		Logger()
}
