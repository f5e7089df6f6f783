// Package logging defines the structured logger used across the module and
// adapters for the logging libraries most services already run with.
package logging

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

// Logger is a key/value logger compatible with log/slog.
//
// args are alternating keys and values, e.g.
//
//	logger.Warn("token rejected", "reason", "token_expired", "kid", kid)
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// badKey is used for a trailing value without a key, as log/slog does.
const badKey = "!BADKEY"

// fields turns alternating key/value args into a map.
func fields(args []any) map[string]any {
	out := make(map[string]any, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			out[badKey] = args[i]
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		if err, ok := args[i+1].(error); ok {
			out[key] = err.Error()
			continue
		}
		out[key] = args[i+1]
	}
	return out
}

// NewLogrus returns a Logger adapter for logrus.FieldLogger.
func NewLogrus(l logrus.FieldLogger) Logger {
	return &logrusAdapter{l}
}

type logrusAdapter struct{ l logrus.FieldLogger }

func (a *logrusAdapter) Debug(msg string, args ...any) {
	a.l.WithFields(logrus.Fields(fields(args))).Debug(msg)
}
func (a *logrusAdapter) Info(msg string, args ...any) {
	a.l.WithFields(logrus.Fields(fields(args))).Info(msg)
}
func (a *logrusAdapter) Warn(msg string, args ...any) {
	a.l.WithFields(logrus.Fields(fields(args))).Warn(msg)
}
func (a *logrusAdapter) Error(msg string, args ...any) {
	a.l.WithFields(logrus.Fields(fields(args))).Error(msg)
}

// NewZap returns a Logger adapter for zap.Logger.
func NewZap(l *zap.Logger) Logger {
	return &zapAdapter{l.Sugar()}
}

type zapAdapter struct{ l *zap.SugaredLogger }

func (a *zapAdapter) Debug(msg string, args ...any) { a.l.Debugw(msg, args...) }
func (a *zapAdapter) Info(msg string, args ...any)  { a.l.Infow(msg, args...) }
func (a *zapAdapter) Warn(msg string, args ...any)  { a.l.Warnw(msg, args...) }
func (a *zapAdapter) Error(msg string, args ...any) { a.l.Errorw(msg, args...) }

// NewZerolog returns a Logger adapter for zerolog.Logger.
func NewZerolog(l zerolog.Logger) Logger {
	return &zerologAdapter{l}
}

type zerologAdapter struct{ l zerolog.Logger }

func (a *zerologAdapter) Debug(msg string, args ...any) {
	a.l.Debug().Fields(fields(args)).Msg(msg)
}
func (a *zerologAdapter) Info(msg string, args ...any) {
	a.l.Info().Fields(fields(args)).Msg(msg)
}
func (a *zerologAdapter) Warn(msg string, args ...any) {
	a.l.Warn().Fields(fields(args)).Msg(msg)
}
func (a *zerologAdapter) Error(msg string, args ...any) {
	a.l.Error().Fields(fields(args)).Msg(msg)
}
