package eventbus

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/go-kratos/kratos/v2/log"
)

// kratosLogger bridges Watermill's logging to the Kratos logger so bus
// internals share the application's log sink.
type kratosLogger struct {
	helper *log.Helper
	fields watermill.LogFields
}

// NewKratosLoggerAdapter wraps a Kratos logger as a Watermill LoggerAdapter.
func NewKratosLoggerAdapter(logger log.Logger) watermill.LoggerAdapter {
	return &kratosLogger{helper: log.NewHelper(logger)}
}

func (l *kratosLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.emit(log.LevelError, msg, fields.Add(watermill.LogFields{"error": err}))
}

func (l *kratosLogger) Info(msg string, fields watermill.LogFields) {
	l.emit(log.LevelInfo, msg, fields)
}

func (l *kratosLogger) Debug(msg string, fields watermill.LogFields) {
	l.emit(log.LevelDebug, msg, fields)
}

func (l *kratosLogger) Trace(msg string, fields watermill.LogFields) {
	l.emit(log.LevelDebug, msg, fields)
}

func (l *kratosLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &kratosLogger{helper: l.helper, fields: l.fields.Add(fields)}
}

func (l *kratosLogger) emit(level log.Level, msg string, fields watermill.LogFields) {
	merged := l.fields.Add(fields)
	keyvals := make([]interface{}, 0, len(merged)*2+2)
	keyvals = append(keyvals, "msg", msg)
	for k, v := range merged {
		keyvals = append(keyvals, k, v)
	}
	l.helper.Log(level, keyvals...)
}
