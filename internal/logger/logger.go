// Package logger writes category-tagged log lines: colored for the terminal
// and JSON for the log file.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

// ParseLevel maps LOG_LEVEL values to a LogLevel, defaulting to INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	}
	return INFO
}

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "INFO"
	}
}

type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Category  string `json:"category"`
	Message   string `json:"message"`
	File      string `json:"file,omitempty"`
	Line      int    `json:"line,omitempty"`
}

type Logger struct {
	mu       sync.Mutex
	terminal io.Writer
	file     io.Writer
	closer   io.Closer
	min      LogLevel
	exit     func(int)
}

// New returns a logger writing colored lines to terminal and JSON lines to
// file.  Either writer may be nil.
func New(terminal, file io.Writer, min LogLevel) *Logger {
	return &Logger{terminal: terminal, file: file, min: min, exit: os.Exit}
}

// Discard returns a logger that drops everything.  Handy in tests.
func Discard() *Logger {
	return New(nil, nil, FATAL+1)
}

// NewFileLogger logs to stdout and to dir/<name>-YYYY-MM-DD.log.
func NewFileLogger(dir, name string, min LogLevel) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	fileName := filepath.Join(dir, fmt.Sprintf("%s-%s.log", name, time.Now().Format("2006-01-02")))
	f, err := os.OpenFile(fileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	l := New(os.Stdout, f, min)
	l.closer = f
	l.Info("LOGGER", fmt.Sprintf("Log file: %s", fileName))
	return l, nil
}

func (l *Logger) log(level LogLevel, category, message string) {
	if level < l.min {
		return
	}
	_, file, line, ok := runtime.Caller(2)
	if ok {
		file = filepath.Base(file)
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Level:     level.String(),
		Category:  strings.ToUpper(category),
		Message:   message,
		File:      file,
		Line:      line,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.terminal != nil {
		_, _ = io.WriteString(l.terminal, formatTerminal(entry))
	}
	if l.file != nil {
		bs, _ := json.Marshal(entry)
		_, _ = l.file.Write(append(bs, '\n'))
	}
}

func formatTerminal(entry LogEntry) string {
	timestamp := entry.Timestamp[11:19]

	var levelColor, categoryColor *color.Color
	switch entry.Level {
	case "DEBUG":
		levelColor = color.New(color.FgCyan)
		categoryColor = color.New(color.FgCyan, color.Bold)
	case "INFO":
		levelColor = color.New(color.FgGreen)
		categoryColor = color.New(color.FgGreen, color.Bold)
	case "WARN":
		levelColor = color.New(color.FgYellow)
		categoryColor = color.New(color.FgYellow, color.Bold)
	default:
		levelColor = color.New(color.FgRed)
		categoryColor = color.New(color.FgRed, color.Bold)
	}

	timeStr := color.New(color.FgBlue).Sprintf("%s", timestamp)
	levelStr := levelColor.Sprintf("%-5s", entry.Level)
	categoryStr := categoryColor.Sprintf("[%-11s]", entry.Category)

	if entry.File != "" && entry.Line > 0 {
		fileInfo := color.New(color.FgMagenta).Sprintf(" (%s:%d)", entry.File, entry.Line)
		return fmt.Sprintf("%s %s %s %s%s\n", timeStr, levelStr, categoryStr, entry.Message, fileInfo)
	}
	return fmt.Sprintf("%s %s %s %s\n", timeStr, levelStr, categoryStr, entry.Message)
}

func (l *Logger) Debug(category, message string) { l.log(DEBUG, category, message) }
func (l *Logger) Info(category, message string)  { l.log(INFO, category, message) }
func (l *Logger) Warn(category, message string)  { l.log(WARN, category, message) }
func (l *Logger) Error(category, message string) { l.log(ERROR, category, message) }

func (l *Logger) Fatal(category, message string) {
	l.log(FATAL, category, message)
	l.exit(1)
}

// LogReservation records a lifecycle event for one reservation.
func (l *Logger) LogReservation(action, number, message string) {
	l.log(INFO, "RESERVATION", fmt.Sprintf("[%s] %s - %s", action, number, message))
}

// LogAPI records one served HTTP request.
func (l *Logger) LogAPI(method, path string, status int, duration time.Duration) {
	l.log(INFO, "API", fmt.Sprintf("%s %s - %d (%s)", method, path, status, duration))
}

// LogSweep records the outcome of a background sweep.
func (l *Logger) LogSweep(job, message string) {
	l.log(INFO, "SWEEPER", fmt.Sprintf("[%s] %s", job, message))
}

// LogEvent records a broker interaction.
func (l *Logger) LogEvent(action, topic, message string) {
	l.log(INFO, "EVENTS", fmt.Sprintf("[%s] %s - %s", action, topic, message))
}

func (l *Logger) Close() {
	if l.closer != nil {
		l.Info("LOGGER", "Closing log file")
		_ = l.closer.Close()
	}
}
