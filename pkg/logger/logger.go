// Package logger writes levelled, optionally coloured lines for the CLI and
// the server. Every deck run logs through it; tests use Discard.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelStyles = [...]struct {
	name  string
	color string
}{
	DEBUG: {"DEBUG", "\033[90m"},
	INFO:  {"INFO", "\033[34m"},
	WARN:  {"WARN", "\033[33m"},
	ERROR: {"ERROR", "\033[31m"},
	FATAL: {"FATAL", "\033[1;31m"},
}

const colorReset = "\033[0m"

func (l LogLevel) String() string {
	if l < DEBUG || l > FATAL {
		return "UNKNOWN"
	}
	return levelStyles[l].name
}

// ParseLevel maps a level name, in any case, to a LogLevel.
func ParseLevel(name string) (LogLevel, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "WARNING" {
		return WARN, true
	}
	for lvl, s := range levelStyles {
		if s.name == name {
			return LogLevel(lvl), true
		}
	}
	return INFO, false
}

const timeLayout = "2006-01-02 15:04:05"

type Config struct {
	Level      LogLevel
	Prefix     string
	Colorize   bool
	ShowCaller bool
	ShowTime   bool
	Output     io.Writer
}

func DefaultConfig() Config {
	return Config{Level: INFO, Colorize: true, ShowTime: true, Output: os.Stdout}
}

// Logger is safe for concurrent use. Loggers derived with With share the
// parent's writer lock so their lines never interleave.
type Logger struct {
	mu  *sync.Mutex
	cfg Config
}

var (
	shared     *Logger
	sharedOnce sync.Once

	// exit is swapped out in tests.
	exit = os.Exit
)

func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	return &Logger{mu: &sync.Mutex{}, cfg: cfg}
}

// GetLogger returns the process-wide logger. LOG_LEVEL selects the level and
// NO_COLOR disables ANSI colours.
func GetLogger() *Logger {
	sharedOnce.Do(func() {
		cfg := DefaultConfig()
		if lvl, ok := ParseLevel(os.Getenv("LOG_LEVEL")); ok {
			cfg.Level = lvl
		}
		cfg.Colorize = os.Getenv("NO_COLOR") == ""
		shared = New(cfg)
	})
	return shared
}

// Discard returns a logger that writes nothing; Fatalf still exits.
func Discard() *Logger {
	return New(Config{Level: FATAL, Output: io.Discard})
}

// With returns a logger whose lines carry an extra prefix such as a run ID
// or song title.
func (l *Logger) With(prefix string) *Logger {
	l.mu.Lock()
	cfg := l.cfg
	l.mu.Unlock()
	cfg.Prefix = strings.TrimSpace(cfg.Prefix + " " + prefix)
	return &Logger{mu: l.mu, cfg: cfg}
}

func (l *Logger) Level() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg.Level
}

func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	l.cfg.Level = level
	l.mu.Unlock()
}

func (l *Logger) Debugf(format string, args ...any) { l.emit(DEBUG, format, args) }
func (l *Logger) Infof(format string, args ...any)  { l.emit(INFO, format, args) }
func (l *Logger) Warnf(format string, args ...any)  { l.emit(WARN, format, args) }
func (l *Logger) Errorf(format string, args ...any) { l.emit(ERROR, format, args) }

// Fatalf logs and terminates the process with status 1.
func (l *Logger) Fatalf(format string, args ...any) {
	l.emit(FATAL, format, args)
	exit(1)
}

// emit is called exactly two frames below the caller's log call.
func (l *Logger) emit(level LogLevel, format string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.cfg.Level {
		return
	}

	var b strings.Builder
	if l.cfg.ShowTime {
		b.WriteString(time.Now().Format(timeLayout))
		b.WriteByte(' ')
	}
	tag := "[" + level.String() + "]"
	if l.cfg.Colorize {
		tag = levelStyles[level].color + tag + colorReset
	}
	b.WriteString(tag)
	if l.cfg.ShowCaller {
		if _, file, line, ok := runtime.Caller(2); ok {
			fmt.Fprintf(&b, " %s:%d", filepath.Base(file), line)
		}
	}
	if l.cfg.Prefix != "" {
		b.WriteByte(' ')
		b.WriteString(l.cfg.Prefix)
	}
	b.WriteByte(' ')
	if len(args) > 0 {
		fmt.Fprintf(&b, format, args...)
	} else {
		b.WriteString(format)
	}
	b.WriteByte('\n')
	io.WriteString(l.cfg.Output, b.String())
}

func Debugf(format string, args ...any) { GetLogger().emit(DEBUG, format, args) }
func Infof(format string, args ...any)  { GetLogger().emit(INFO, format, args) }
func Warnf(format string, args ...any)  { GetLogger().emit(WARN, format, args) }
func Errorf(format string, args ...any) { GetLogger().emit(ERROR, format, args) }
