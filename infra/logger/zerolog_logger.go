package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ZerologLogger implements Logger using rs/zerolog.
type ZerologLogger struct {
	log zerolog.Logger
}

// SetLevel changes the global minimum level, e.g. "debug" or "warn".
func SetLevel(level string) error {
	if level == "" {
		return nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

var console atomic.Bool

// Configure applies the level and the output format ("json" or "console")
// for loggers created afterwards.
func Configure(level, format string) error {
	if err := SetLevel(level); err != nil {
		return err
	}
	switch strings.ToLower(format) {
	case "", "json":
		console.Store(false)
	case "console":
		console.Store(true)
	default:
		return fmt.Errorf("log format: unknown %q", format)
	}
	return nil
}

var (
	fileMu sync.RWMutex
	file   *lumberjack.Logger
)

// SetFile mirrors the JSON lines of loggers created afterwards into a size
// rotated file. An empty path disables the file output.
func SetFile(path string, maxSizeMB, maxBackups, maxAgeDays int) error {
	if err := CloseFile(); err != nil {
		return err
	}
	if path == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("log file: %w", err)
		}
	}
	fileMu.Lock()
	file = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}
	fileMu.Unlock()
	return nil
}

// CloseFile closes the rotated log file, if any.
func CloseFile() error {
	fileMu.Lock()
	defer fileMu.Unlock()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

// NewZerologLogger creates a ZerologLogger writing to stderr. Console output
// is used when configured or when APP_ENV=dev. All logs include the provided
// component field.
func NewZerologLogger(component string) Logger {
	var out io.Writer = os.Stderr
	env := strings.ToLower(os.Getenv("APP_ENV"))
	if env == "dev" || console.Load() {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	fileMu.RLock()
	f := file
	fileMu.RUnlock()
	if f != nil {
		out = zerolog.MultiLevelWriter(out, f)
	}
	return NewWithWriter(component, out)
}

// NewWithWriter writes JSON log lines to w.
func NewWithWriter(component string, w io.Writer) Logger {
	z := zerolog.New(w).With().Timestamp().Str("component", component).Logger()
	return &ZerologLogger{log: z}
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	l.log.Debug().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Infow(msg string, fields map[string]any) {
	l.log.Info().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
