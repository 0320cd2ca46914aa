package log

import (
	"fmt"
	"log/slog"

	"github.com/levenlabs/go-llog"
)

// SlogLevel maps the level lflag configured on llog to its slog equivalent.
func SlogLevel(l llog.Level) (slog.Level, error) {
	switch l {
	case llog.DebugLevel:
		return slog.LevelDebug, nil
	case llog.InfoLevel:
		return slog.LevelInfo, nil
	case llog.WarnLevel:
		return slog.LevelWarn, nil
	case llog.ErrorLevel:
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", l.String())
	}
}

// ConfigureFromLLog sets both the package and the slog default logger to the
// level llog was configured with. It must be called after lflag.Configure.
func ConfigureFromLLog() {
	level, err := SlogLevel(llog.GetLevel())
	if err != nil {
		panic(err)
	}
	SetDefaultLogLevel(level)
	slog.SetDefault(defaultLogger)
	slog.Debug("logger configured", slog.String("level", level.String()))
}
