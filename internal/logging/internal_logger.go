package logging

import (
	"fmt"

	"github.com/rs/zerolog"
)

// InternalLogger is used by components that keep their own log output, such as
// background tasks whose logs are served through the admin API.
type InternalLogger interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Sink receives a formatted message together with its level name.
type Sink func(level, msg string)

// TeeLogger writes every message to zerolog and then hands it to a sink.
type TeeLogger struct {
	zlog zerolog.Logger
	sink Sink
}

var _ InternalLogger = TeeLogger{}

// Tee returns a logger writing to zlog and sink. A nil sink only logs.
func Tee(zlog zerolog.Logger, sink Sink) TeeLogger {
	return TeeLogger{zlog: zlog, sink: sink}
}

func (l TeeLogger) Info(format string, args ...any) {
	l.emit(zerolog.InfoLevel, format, args)
}

func (l TeeLogger) Warn(format string, args ...any) {
	l.emit(zerolog.WarnLevel, format, args)
}

func (l TeeLogger) Error(format string, args ...any) {
	l.emit(zerolog.ErrorLevel, format, args)
}

func (l TeeLogger) emit(level zerolog.Level, format string, args []any) {
	msg := fmt.Sprintf(format, args...)
	l.zlog.WithLevel(level).Msg(msg)
	if l.sink != nil {
		l.sink(level.String(), msg)
	}
}
