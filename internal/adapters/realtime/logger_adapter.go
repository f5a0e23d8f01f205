package realtime

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/okian/tally/pkg/logger"
)

// watermillAdapter bridges watermill's logging to pkg/logger.
type watermillAdapter struct {
	log    logger.Logger
	fields watermill.LogFields
}

func (a watermillAdapter) convert(fields watermill.LogFields) []logger.Field {
	out := make([]logger.Field, 0, len(a.fields)+len(fields))
	for k, v := range a.fields {
		out = append(out, logger.Any(k, v))
	}
	for k, v := range fields {
		out = append(out, logger.Any(k, v))
	}
	return out
}

func (a watermillAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.log.Error(context.Background(), msg, append(a.convert(fields), logger.Error(err))...)
}

func (a watermillAdapter) Info(msg string, fields watermill.LogFields) {
	a.log.Debug(context.Background(), msg, a.convert(fields)...) // watermill info is noisy; demote
}

func (a watermillAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log.Debug(context.Background(), msg, a.convert(fields)...)
}

func (a watermillAdapter) Trace(msg string, fields watermill.LogFields) {
	a.log.Debug(context.Background(), msg, a.convert(fields)...)
}

func (a watermillAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return watermillAdapter{log: a.log, fields: a.fields.Add(fields)}
}
