package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"

	"github.com/NercinoN21/dlpl-frontend/core"
)

type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger) *RollbarLogger {
	rollbar.SetToken(core.Conf.GetString("rollbarToken"))
	rollbar.SetEnvironment(core.Conf.GetString("env"))
	rollbar.SetCodeVersion(core.Conf.GetString("build"))
	return &RollbarLogger{std: std}
}

func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	l.print(msg, args)
	rollbar.Info(append([]interface{}{msg}, args...)...)
}

func (l *RollbarLogger) Error(msg string, err error, args ...interface{}) {
	l.print(msg, append(args, err))
	rollbar.Error(append([]interface{}{msg, err}, args...)...)
}

func (l *RollbarLogger) print(msg string, args []interface{}) {
	l.std.Println(msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}
