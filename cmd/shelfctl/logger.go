package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/homeshelf/lending-ledger-go/ledger"
)

// zerologAdapter implements ledger.Logger on a zerolog.Logger, converting
// the slog-style key-value args into structured fields.
type zerologAdapter struct {
	logger zerolog.Logger
}

func newZerologAdapter(logger zerolog.Logger) *zerologAdapter {
	return &zerologAdapter{logger: logger}
}

var _ ledger.Logger = (*zerologAdapter)(nil)

func (a *zerologAdapter) Debug(msg string, args ...any) {
	withFields(a.logger.Debug(), args).Msg(msg)
}

func (a *zerologAdapter) Info(msg string, args ...any) {
	withFields(a.logger.Info(), args).Msg(msg)
}

func (a *zerologAdapter) Warn(msg string, args ...any) {
	withFields(a.logger.Warn(), args).Msg(msg)
}

func (a *zerologAdapter) Error(msg string, args ...any) {
	withFields(a.logger.Error(), args).Msg(msg)
}

func withFields(event *zerolog.Event, args []any) *zerolog.Event {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}

		event = event.Interface(key, args[i+1])
	}

	return event
}
