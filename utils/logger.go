/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Logger = logrus.Logger

const timestampFormat = "2006-01-02 15:04:05.000"

var (
	loggerRegistryMu sync.RWMutex
	loggerRegistry   = map[string]*logrus.Logger{}
	baseLevel        = ParseLogLevel(EnvDefaultString("LOG_LEVEL", "info"))
	consoleLogFormat = EnvDefaultString("CONSOLE_LOG_FORMAT", "text")
	consoleOutput    io.Writer = os.Stdout

	fileLogEnabled    = EnvDefaultBool("FILE_LOG_ENABLED", false)
	fileLogDir        = EnvDefaultString("FILE_LOG_DIR", "logs")
	fileLogMaxAgeDays = EnvDefaultInt("FILE_LOG_MAX_AGE_DAYS", 7)
	fileLogFormat     = EnvDefaultString("FILE_LOG_FORMAT", "text")
	fileHooks         = map[string]*levelWriterHook{}
)

// ConfigureFileLogFormat switches file output between "text" and "json".
func ConfigureFileLogFormat(format string) {
	loggerRegistryMu.Lock()
	defer loggerRegistryMu.Unlock()
	if strings.ToLower(strings.TrimSpace(format)) == "json" {
		fileLogFormat = "json"
	} else {
		fileLogFormat = "text"
	}
}

// ConfigureFileLog turns on daily rolling files under dir for every
// registered logger and for loggers created later. maxAgeDays <= 0 keeps
// old days forever. Turning it off detaches the hooks and closes the files.
func ConfigureFileLog(enabled bool, dir string, maxAgeDays int) error {
	loggerRegistryMu.Lock()
	defer loggerRegistryMu.Unlock()
	fileLogEnabled = enabled
	if dir != "" {
		fileLogDir = dir
	}
	fileLogMaxAgeDays = maxAgeDays

	if !enabled {
		for name, hook := range fileHooks {
			if lg, ok := loggerRegistry[name]; ok {
				detachHook(lg, hook)
			}
			hook.Close()
			delete(fileHooks, name)
		}
		return nil
	}
	for name, lg := range loggerRegistry {
		if _, ok := fileHooks[name]; ok {
			continue
		}
		hook, err := addDailyRollingFileHook(lg, name, fileLogDir, fileLogMaxAgeDays)
		if err != nil {
			return err
		}
		fileHooks[name] = hook
	}
	return nil
}

func detachHook(l *logrus.Logger, hook logrus.Hook) {
	kept := make(logrus.LevelHooks)
	for level, hooks := range l.ReplaceHooks(make(logrus.LevelHooks)) {
		for _, h := range hooks {
			if h != hook {
				kept[level] = append(kept[level], h)
			}
		}
	}
	l.ReplaceHooks(kept)
}

// ConfigureConsoleLogFormat switches new loggers between "text" and "json".
func ConfigureConsoleLogFormat(format string) {
	if strings.ToLower(strings.TrimSpace(format)) == "json" {
		consoleLogFormat = "json"
	} else {
		consoleLogFormat = "text"
	}
}

// ConfigureLogLevel sets the level of every registered logger and of loggers
// created afterwards.
func ConfigureLogLevel(levelStr string) {
	SetAllLoggersLevel(ParseLogLevel(levelStr))
}

// SetOutput redirects every registered logger, and loggers created later.
func SetOutput(w io.Writer) {
	loggerRegistryMu.Lock()
	defer loggerRegistryMu.Unlock()
	consoleOutput = w
	for _, lg := range loggerRegistry {
		lg.SetOutput(w)
	}
}

func ParseLogLevel(s string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "info", "":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}

func RegisterLogger(name string, l *logrus.Logger) {
	loggerRegistryMu.Lock()
	defer loggerRegistryMu.Unlock()
	loggerRegistry[name] = l
}

func SetAllLoggersLevel(lvl logrus.Level) {
	loggerRegistryMu.Lock()
	defer loggerRegistryMu.Unlock()
	baseLevel = lvl
	for _, lg := range loggerRegistry {
		lg.SetLevel(lvl)
	}
}

// SetLoggerLevel changes one named logger. It reports false if no logger was
// registered under name.
func SetLoggerLevel(name string, lvlStr string) bool {
	loggerRegistryMu.RLock()
	lg, ok := loggerRegistry[name]
	loggerRegistryMu.RUnlock()
	if !ok {
		return false
	}
	lg.SetLevel(ParseLogLevel(lvlStr))
	return true
}

// NewLogger returns a named logger writing to the console in the configured
// format. Creating a logger twice under the same name returns the first one.
func NewLogger(name string) *logrus.Logger {
	loggerRegistryMu.Lock()
	defer loggerRegistryMu.Unlock()
	if lg, ok := loggerRegistry[name]; ok {
		return lg
	}

	l := logrus.New()
	l.SetOutput(consoleOutput)
	l.SetLevel(baseLevel)
	l.SetReportCaller(true)
	if consoleLogFormat == "json" {
		l.SetFormatter(&JSONLogFormatter{LoggerName: name})
	} else {
		l.SetFormatter(&Log4jColorFormatter{LoggerName: name, NameWidth: 10, ColorCaller: true})
	}
	if fileLogEnabled {
		if hook, err := addDailyRollingFileHook(l, name, fileLogDir, fileLogMaxAgeDays); err == nil {
			fileHooks[name] = hook
		} else {
			fmt.Fprintf(os.Stderr, "file logging disabled for %s: %v\n", name, err)
		}
	}
	loggerRegistry[name] = l
	return l
}

// levelWriterHook copies each entry to the writer of its level.
type levelWriterHook struct {
	writers   map[logrus.Level]io.Writer
	formatter logrus.Formatter
}

// Close closes the files behind the hook's writers.
func (h *levelWriterHook) Close() {
	seen := map[io.Writer]bool{}
	for _, w := range h.writers {
		if seen[w] {
			continue
		}
		seen[w] = true
		if c, ok := w.(io.Closer); ok {
			_ = c.Close()
		}
	}
}

func (h *levelWriterHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *levelWriterHook) Fire(e *logrus.Entry) error {
	w, ok := h.writers[e.Level]
	if !ok {
		return nil
	}
	b, err := h.formatter.Format(e)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

const dayLayout = "2006-01-02"

// dailyLevelWriter appends to <baseDir>/<date>/<level>.log and moves to a
// new file when the date changes. On each switch it removes day
// directories older than maxAgeDays.
type dailyLevelWriter struct {
	baseDir    string
	level      string
	maxAgeDays int
	now        func() time.Time

	mu      sync.Mutex
	curDate string
	file    *os.File
}

func (w *dailyLevelWriter) ensureOpen(date string) error {
	if w.file != nil && w.curDate == date {
		return nil
	}
	if w.file != nil {
		_ = w.file.Close()
		w.file = nil
	}
	dir := filepath.Join(w.baseDir, date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(dir, w.level+".log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w.file = f
	w.curDate = date
	return nil
}

func (w *dailyLevelWriter) cleanup(today time.Time) {
	if w.maxAgeDays <= 0 {
		return
	}
	y, m, d := today.AddDate(0, 0, -w.maxAgeDays).Date()
	cutoff := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	entries, err := os.ReadDir(w.baseDir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		day, err := time.Parse(dayLayout, e.Name())
		if err != nil || !day.Before(cutoff) {
			continue
		}
		_ = os.RemoveAll(filepath.Join(w.baseDir, e.Name()))
	}
}

func (w *dailyLevelWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	w.curDate = ""
	return err
}

func (w *dailyLevelWriter) Write(p []byte) (int, error) {
	now := w.now()
	date := now.Format(dayLayout)

	w.mu.Lock()
	defer w.mu.Unlock()
	switched := w.curDate != date
	if err := w.ensureOpen(date); err != nil {
		return 0, err
	}
	if switched {
		w.cleanup(now)
	}
	return w.file.Write(p)
}

// AddDailyRollingFileHook makes l also write to per-level daily files under
// dir. Fatal and panic entries go to error.log.
func AddDailyRollingFileHook(l *logrus.Logger, name, dir string, maxAgeDays int) error {
	loggerRegistryMu.RLock()
	defer loggerRegistryMu.RUnlock()
	_, err := addDailyRollingFileHook(l, name, dir, maxAgeDays)
	return err
}

// addDailyRollingFileHook expects loggerRegistryMu to be held.
func addDailyRollingFileHook(l *logrus.Logger, name, dir string, maxAgeDays int) (*levelWriterHook, error) {
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	writer := func(level string) io.Writer {
		return &dailyLevelWriter{baseDir: dir, level: level, maxAgeDays: maxAgeDays, now: time.Now}
	}
	errorW := writer("error")

	var formatter logrus.Formatter = &Log4jColorFormatter{LoggerName: name, NameWidth: 10, Plain: true}
	if fileLogFormat == "json" {
		formatter = &JSONLogFormatter{LoggerName: name}
	}

	hook := &levelWriterHook{
		writers: map[logrus.Level]io.Writer{
			logrus.TraceLevel: writer("trace"),
			logrus.DebugLevel: writer("debug"),
			logrus.InfoLevel:  writer("info"),
			logrus.WarnLevel:  writer("warn"),
			logrus.ErrorLevel: errorW,
			logrus.FatalLevel: errorW,
			logrus.PanicLevel: errorW,
		},
		formatter: formatter,
	}
	l.AddHook(hook)
	return hook, nil
}

// Log4jColorFormatter renders entries as
// "time LEVEL pid - [main] name file:line : message k=v".
type Log4jColorFormatter struct {
	LoggerName      string
	TimestampFormat string
	ColorCaller     bool
	NameWidth       int
	// Plain drops ANSI colors, for file output.
	Plain bool
}

func (f *Log4jColorFormatter) color(s, code string) string {
	if f.Plain {
		return s
	}
	return colorWrap(s, code)
}

func (f *Log4jColorFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	tsFmt := f.TimestampFormat
	if tsFmt == "" {
		tsFmt = timestampFormat
	}
	ts := entry.Time.Format(tsFmt)
	lvl := padLeft(strings.ToUpper(entry.Level.String()), 7)
	if !f.Plain {
		lvl = colorLevel(lvl, entry.Level)
	}
	pid := f.color(fmt.Sprintf("%-6d", os.Getpid()), ansiMagenta)
	name := f.color(padLeft(limitRunes(f.LoggerName, f.NameWidth), f.NameWidth), ansiCyan)

	caller := ""
	if entry.Caller != nil {
		caller = " " + filepath.Base(filepath.Dir(entry.Caller.File)) + "/" +
			filepath.Base(entry.Caller.File) + ":" + strconv.Itoa(entry.Caller.Line)
		if f.ColorCaller && !f.Plain {
			caller = colorWrap(caller, ansiFaint)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s - %s %s%s %s %s", ts, lvl, pid, f.color("[main]", ansiMagenta), name, caller, f.color(":", ansiFaint), entry.Message)
	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
		}
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

// JSONLogFormatter renders one JSON object per entry with the logger name
// under "model".
type JSONLogFormatter struct {
	LoggerName string
}

func (f *JSONLogFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	inner := &logrus.JSONFormatter{
		TimestampFormat: timestampFormat,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "time",
			logrus.FieldKeyMsg:  "message",
			logrus.FieldKeyFunc: "func",
		},
		CallerPrettyfier: func(fr *runtime.Frame) (string, string) {
			return "", filepath.Base(fr.File) + ":" + strconv.Itoa(fr.Line)
		},
	}
	data := make(logrus.Fields, len(entry.Data)+1)
	for k, v := range entry.Data {
		data[k] = v
	}
	data["model"] = f.LoggerName
	clone := *entry
	clone.Data = data
	return inner.Format(&clone)
}

const (
	ansiReset   = "\x1b[0m"
	ansiFaint   = "\x1b[2m"
	ansiRed     = "\x1b[31m"
	ansiYellow  = "\x1b[33m"
	ansiGreen   = "\x1b[32m"
	ansiBlue    = "\x1b[34m"
	ansiMagenta = "\x1b[35m"
	ansiCyan    = "\x1b[36m"
)

func colorWrap(s, code string) string { return code + s + ansiReset }

func colorLevel(s string, level logrus.Level) string {
	switch level {
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return colorWrap(s, ansiRed)
	case logrus.WarnLevel:
		return colorWrap(s, ansiYellow)
	case logrus.InfoLevel:
		return colorWrap(s, ansiGreen)
	case logrus.DebugLevel:
		return colorWrap(s, ansiBlue)
	default:
		return colorWrap(s, ansiMagenta)
	}
}

func padLeft(s string, width int) string { return fmt.Sprintf("%*s", width, s) }

func limitRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func EnvDefaultString(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return def
		}
		return b
	}
	return def
}

func EnvDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return def
		}
		return n
	}
	return def
}

func EnvDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return def
		}
		return d
	}
	return def
}
