package whatsapp

import (
	"fmt"

	"smartsheet/internal/shared/logging"

	waLog "go.mau.fi/whatsmeow/util/log"
)

// waLogger routes whatsmeow's internal logging into the component logger.
type waLogger struct {
	logger logging.Logger
	module string
}

func newWALogger(logger logging.Logger, module string) waLog.Logger {
	return waLogger{logger: logging.OrNop(logger), module: module}
}

func (l waLogger) prefix(msg string, args []any) string {
	return "[" + l.module + "] " + fmt.Sprintf(msg, args...)
}

func (l waLogger) Warnf(msg string, args ...any)  { l.logger.Warn("%s", l.prefix(msg, args)) }
func (l waLogger) Errorf(msg string, args ...any) { l.logger.Error("%s", l.prefix(msg, args)) }
func (l waLogger) Infof(msg string, args ...any)  { l.logger.Info("%s", l.prefix(msg, args)) }
func (l waLogger) Debugf(msg string, args ...any) { l.logger.Debug("%s", l.prefix(msg, args)) }

func (l waLogger) Sub(module string) waLog.Logger {
	return waLogger{logger: l.logger, module: l.module + "/" + module}
}
