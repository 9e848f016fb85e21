// Package logger provides utilities for working with
// [zerolog] and [context.Context].
package logger

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// WithContext attaches a logger to the given context.
func WithContext(ctx context.Context, l zerolog.Logger) context.Context {
	return l.WithContext(ctx)
}

// FromContext returns the logger attached to the given
// context, or the global logger if there isn't one.
func FromContext(ctx context.Context) zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return *l
	}
	return log.Logger
}

// Fatal logs an error message and aborts the process.
func Fatal(msg string) {
	FatalError(msg, nil)
}

// FatalError logs an error message with its cause and aborts the process.
func FatalError(msg string, err error) {
	log.Error().Err(err).Msg(msg)
	os.Exit(1)
}
