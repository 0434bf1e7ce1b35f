package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Leveled logger shared by the API server and packctl.
// Provides Debug/Info/Warn/Error/Fatal variants, field-carrying *w variants and Init(level).

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var (
	mu     sync.RWMutex
	logger zerolog.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	level  Level          = LevelInfo
)

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal).
// Call early during startup. Default level is Info.
func Init(l string) {
	mu.Lock()
	defer mu.Unlock()
	s := strings.ToLower(strings.TrimSpace(l))
	switch s {
	case "debug":
		level = LevelDebug
	case "warn", "warning":
		level = LevelWarn
	case "error":
		level = LevelError
	case "fatal":
		level = LevelFatal
	default:
		level = LevelInfo
	}
}

// UseConsole switches output to zerolog's human-readable console writer.
func UseConsole() {
	mu.Lock()
	defer mu.Unlock()
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

func shouldLog(l Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return l >= level
}

func current() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := logger
	return &l
}

func Debugf(format string, v ...interface{}) {
	if !shouldLog(LevelDebug) {
		return
	}
	current().Debug().Msgf(format, v...)
}

func Infof(format string, v ...interface{}) {
	if !shouldLog(LevelInfo) {
		return
	}
	current().Info().Msgf(format, v...)
}

func Warnf(format string, v ...interface{}) {
	if !shouldLog(LevelWarn) {
		return
	}
	current().Warn().Msgf(format, v...)
}

func Errorf(format string, v ...interface{}) {
	if !shouldLog(LevelError) {
		return
	}
	current().Error().Msgf(format, v...)
}

func Fatalf(format string, v ...interface{}) {
	current().WithLevel(zerolog.FatalLevel).Msgf(format, v...)
	os.Exit(1)
}

// Infow, Warnw and Errorw attach structured fields to the entry.
func Infow(msg string, fields map[string]interface{}) {
	if !shouldLog(LevelInfo) {
		return
	}
	current().Info().Fields(fields).Msg(msg)
}

func Warnw(msg string, fields map[string]interface{}) {
	if !shouldLog(LevelWarn) {
		return
	}
	current().Warn().Fields(fields).Msg(msg)
}

func Errorw(msg string, fields map[string]interface{}) {
	if !shouldLog(LevelError) {
		return
	}
	current().Error().Fields(fields).Msg(msg)
}

// Println kept for brief messages (maps to Info)
func Println(v ...interface{}) {
	if !shouldLog(LevelInfo) {
		return
	}
	current().Info().Msg(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

func Debug(v string) { Debugf("%s", v) }
func Info(v string)  { Infof("%s", v) }
func Warn(v string)  { Warnf("%s", v) }
func Error(v string) { Errorf("%s", v) }

// LevelString returns the current level as text.
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	switch level {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	}
	return "info"
}
