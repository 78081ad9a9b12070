package libav

import (
	"context"
	"strings"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/decodesession/logger"
)

func LogLevelToAstiav(level logger.Level) astiav.LogLevel {
	switch level {
	case logger.LevelTrace:
		return astiav.LogLevelTrace
	case logger.LevelDebug:
		return astiav.LogLevelDebug
	case logger.LevelInfo:
		return astiav.LogLevelInfo
	case logger.LevelWarning:
		return astiav.LogLevelWarning
	case logger.LevelError:
		return astiav.LogLevelError
	case logger.LevelPanic:
		return astiav.LogLevelPanic
	case logger.LevelFatal:
		return astiav.LogLevelFatal
	}
	return astiav.LogLevelQuiet
}

func LogLevelFromAstiav(level astiav.LogLevel) logger.Level {
	switch {
	case level <= astiav.LogLevelQuiet:
		return logger.LevelUndefined
	case level <= astiav.LogLevelPanic:
		return logger.LevelPanic
	case level <= astiav.LogLevelFatal:
		return logger.LevelFatal
	case level <= astiav.LogLevelError:
		return logger.LevelError
	case level <= astiav.LogLevelWarning:
		return logger.LevelWarning
	case level <= astiav.LogLevelInfo:
		return logger.LevelInfo
	case level <= astiav.LogLevelDebug:
		return logger.LevelDebug
	}
	return logger.LevelTrace
}

// RedirectLogs routes the libav log messages to the logger of ctx.
func RedirectLogs(ctx context.Context) {
	l := logger.FromCtx(ctx)
	astiav.SetLogLevel(LogLevelToAstiav(l.Level()))
	astiav.SetLogCallback(func(c astiav.Classer, level astiav.LogLevel, _, msg string) {
		var cs string
		if c != nil {
			if cl := c.Class(); cl != nil {
				cs = " - class: " + cl.String()
			}
		}
		l.Logf(LogLevelFromAstiav(level), "%s%s", strings.TrimSpace(msg), cs)
	})
}
