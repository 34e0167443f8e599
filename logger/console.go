package logger

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

const isWindows = runtime.GOOS == "windows"

var noColor = os.Getenv("TERM") == "dumb" ||
	(!isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()))

func color(val string) string {
	if isWindows || noColor {
		return ""
	}
	return val
}

const (
	reset      = "\033[0m"
	red        = "\033[31m"
	magenta    = "\033[35m"
	gray       = "\033[1;90m"
	blueBold   = "\033[34;1m"
	redBold    = "\033[31;1m"
	yellowBold = "\033[33;1m"
	whiteBold  = "\033[37;1m"
	cyanBold   = "\033[36;1m"
)

type consoleLogger struct {
	out      io.Writer
	logLevel LogLevel
	metadata map[string]interface{}
}

var _ Logger = (*consoleLogger)(nil)

// NewConsoleLogger returns a Logger writing human-readable output to stderr.
// With no level argument the level comes from the environment.
func NewConsoleLogger(levels ...LogLevel) Logger {
	level := GetLevelFromEnv()
	if len(levels) > 0 {
		level = levels[0]
	}
	return &consoleLogger{
		out:      os.Stderr,
		logLevel: level,
	}
}

func (c *consoleLogger) With(metadata map[string]interface{}) Logger {
	kv := make(map[string]interface{}, len(c.metadata)+len(metadata))
	for k, v := range c.metadata {
		kv[k] = v
	}
	for k, v := range metadata {
		kv[k] = v
	}
	return &consoleLogger{
		out:      c.out,
		logLevel: c.logLevel,
		metadata: kv,
	}
}

func (c *consoleLogger) log(level LogLevel, levelColor string, levelString string, msg string, args ...interface{}) {
	if level < c.logLevel {
		return
	}
	var suffix string
	if len(c.metadata) > 0 {
		keys := make([]string, 0, len(c.metadata))
		for k := range c.metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var sb strings.Builder
		for _, k := range keys {
			fmt.Fprintf(&sb, " %s=%v", k, c.metadata[k])
		}
		suffix = color(gray) + sb.String() + color(reset)
	}
	fmt.Fprintf(c.out, "%s %s[%s]%s %s%s\n",
		time.Now().Format("2006-01-02 15:04:05.000"),
		color(levelColor), levelString, color(reset),
		fmt.Sprintf(msg, args...), suffix,
	)
}

func (c *consoleLogger) Trace(msg string, args ...interface{}) {
	c.log(LevelTrace, cyanBold, "TRACE", msg, args...)
}

func (c *consoleLogger) Debug(msg string, args ...interface{}) {
	c.log(LevelDebug, blueBold, "DEBUG", msg, args...)
}

func (c *consoleLogger) Info(msg string, args ...interface{}) {
	c.log(LevelInfo, yellowBold, "INFO ", msg, args...)
}

func (c *consoleLogger) Warn(msg string, args ...interface{}) {
	c.log(LevelWarn, magenta, "WARN ", msg, args...)
}

func (c *consoleLogger) Error(msg string, args ...interface{}) {
	c.log(LevelError, redBold, "ERROR", msg, args...)
}
