// Package logsvc implements core.Logger.
package logsvc

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/user"
)

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
	levelFatal
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

var exitFunc = os.Exit // mockable

// StdLogger writes to a std logger. Debug lines are dropped unless debug is on.
type StdLogger struct {
	std   *log.Logger
	debug bool
}

var _ core.Logger = (*StdLogger)(nil)

func NewStdLogger(std *log.Logger, debug bool) *StdLogger {
	return &StdLogger{std: std, debug: debug}
}

// New returns the logger matching conf: Rollbar when a token is set, else a StdLogger.
// prefix names the app, e.g. "PORTAL".
func New(out io.Writer, prefix string, conf *core.Config) core.Logger {
	std := log.New(out, prefix+" : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	if conf.RollbarToken != "" {
		l := NewRollbarLogger(std, conf)
		l.Enable(!conf.Debug)
		return l
	}
	return NewStdLogger(std, conf.Debug)
}

func (l StdLogger) Debug(msg string, args ...interface{}) {
	if l.debug {
		write(l.std, levelDebug, msg, args)
	}
}

func (l StdLogger) Info(msg string, args ...interface{})  { write(l.std, levelInfo, msg, args) }
func (l StdLogger) Warn(msg string, args ...interface{})  { write(l.std, levelWarn, msg, args) }
func (l StdLogger) Error(msg string, args ...interface{}) { write(l.std, levelError, msg, args) }

func (l StdLogger) Fatal(msg string, args ...interface{}) {
	write(l.std, levelFatal, msg, args)
	exitFunc(1)
}

// write prints one line: level, message, then the args as key=value pairs or values.
func write(std *log.Logger, lvl level, msg string, args []interface{}) {
	var b strings.Builder
	b.WriteString(levelNames[lvl])
	b.WriteString(" ")
	b.WriteString(msg)
	for _, arg := range args {
		switch a := arg.(type) {
		case map[string]interface{}:
			keys := make([]string, 0, len(a))
			for k := range a {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(&b, " %s=%v", k, a[k])
			}
		case user.User:
			fmt.Fprintf(&b, " user=%s", a.Email)
		case error:
			fmt.Fprintf(&b, " error=%q", a.Error())
		default:
			fmt.Fprintf(&b, " %v", a)
		}
	}
	_ = std.Output(3, b.String())
}
