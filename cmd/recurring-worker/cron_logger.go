package main

import (
	"fmt"
	"strings"

	applog "expensetracker/internal/log"
)

// cronLogger adapts the scheduler's printf logging to the structured logger.
type cronLogger struct {
	logger *applog.Logger
}

func newCronLogger(logger *applog.Logger) cronLogger {
	return cronLogger{logger: logger.WithComponent("cron")}
}

func (l cronLogger) Printf(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
