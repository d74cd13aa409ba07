package logger

import (
	"os"

	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// levelEncoder returns a colored level encoder only when stderr is an
// interactive terminal. Under systemd the stream lands in journald, which
// must stay free of ANSI escapes. NO_COLOR disables colors as well.
func levelEncoder() zapcore.LevelEncoder {
	if term.IsTerminal(int(os.Stderr.Fd())) && os.Getenv("NO_COLOR") == "" {
		return zapcore.CapitalColorLevelEncoder
	}

	return zapcore.CapitalLevelEncoder
}
