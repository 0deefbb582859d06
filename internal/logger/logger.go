package logger

import (
	"os"

	"github.com/fatih/color"
)

// Colorized printing functions for the different log levels, built on
// fatih/color. Each level carries a fixed marker so success, warning and
// failure lines are distinguishable even with colors stripped.

var infof = color.New(color.FgGreen).PrintfFunc()
var warnf = color.New(color.FgHiMagenta).PrintfFunc()
var errorf = color.New(color.FgRed).FprintfFunc()
var debugf func(format string, a ...any)

// Info logs informational messages in green to stdout.
func Info(format string, a ...any) {
	infof("[INFO] "+format, a...)
}

// Warn logs warning messages in bright magenta to stdout.
func Warn(format string, a ...any) {
	warnf("[WARN] "+format, a...)
}

// Error logs error messages in red to stderr.
func Error(format string, a ...any) {
	errorf(os.Stderr, "[ERROR] "+format, a...)
}

// Debug logs debug messages in cyan when debug logging is enabled, otherwise
// it is a no-op. Call Init before use.
func Debug(format string, a ...any) {
	if debugf != nil {
		debugf("[DEBUG] "+format, a...)
	}
}

// Init enables or disables debug logging.
func Init(enableDebug bool) {
	if enableDebug {
		debugf = color.New(color.FgCyan).PrintfFunc()
	} else {
		debugf = nil
	}
}
