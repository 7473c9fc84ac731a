// Package logger provides leveled logging for the scanner.
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Level represents a logging level.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

var defaultLogger = &loggerState{
	level:  InfoLevel,
	logger: log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds),
}

type loggerState struct {
	level  Level
	logger *log.Logger
}

func parseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Init configures the default logger. Text format adds source locations.
func Init(level, format string) {
	flags := log.LstdFlags | log.Lmicroseconds
	if strings.ToLower(format) == "text" {
		flags |= log.Lshortfile
	}
	defaultLogger = &loggerState{
		level:  parseLevel(level),
		logger: log.New(os.Stderr, "", flags),
	}
}

func output(min Level, tag, format string, args ...interface{}) {
	if defaultLogger.level > min {
		return
	}
	_ = defaultLogger.logger.Output(3, fmt.Sprintf(tag+format, args...))
}

func Debug(format string, args ...interface{}) { output(DebugLevel, "[DEBUG] ", format, args...) }
func Info(format string, args ...interface{})  { output(InfoLevel, "[INFO] ", format, args...) }
func Warn(format string, args ...interface{})  { output(WarnLevel, "[WARN] ", format, args...) }
func Error(format string, args ...interface{}) { output(ErrorLevel, "[ERROR] ", format, args...) }

// Fatal logs and exits. Only entry points should reach for this.
func Fatal(format string, args ...interface{}) {
	_ = defaultLogger.logger.Output(3, fmt.Sprintf("[FATAL] "+format, args...))
	os.Exit(1)
}
