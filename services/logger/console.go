// Package logsvc provides the core.Logger implementations: console output
// for DEV/TEST, Rollbar otherwise.
package logsvc

import (
	"log"

	"github.com/NercinoN21/dlpl-frontend/core"
)

type ConsoleLogger struct {
	std     *log.Logger
	enabled bool
}

var _ core.Logger = (*ConsoleLogger)(nil)

func NewConsoleLogger(std *log.Logger) *ConsoleLogger {
	return &ConsoleLogger{std: std, enabled: true}
}

func (l *ConsoleLogger) Enable(enabled bool) {
	l.enabled = enabled
}

func (l *ConsoleLogger) Info(msg string, args ...interface{}) {
	l.print("INFO: "+msg, args)
}

func (l *ConsoleLogger) Error(msg string, err error, args ...interface{}) {
	l.print("ERROR: "+msg, append(args, err))
}

func (l *ConsoleLogger) print(msg string, args []interface{}) {
	if !l.enabled {
		return
	}
	l.std.Println(msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}
