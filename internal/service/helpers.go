package service

import (
	"strconv"

	"pointshop/internal/domain"

	"go.uber.org/zap"
)

func formatID(id int64) string { return strconv.FormatInt(id, 10) }

// logFailure logs err at a level matching its kind: rule outcomes at debug,
// retryable store trouble at warn, everything else at error.
func logFailure(log *zap.Logger, msg string, err error, fields ...zap.Field) {
	kind := Kind(err)
	fields = append(fields, zap.String("reason", string(kind)), zap.Error(err))
	switch {
	case Business(err), kind == domain.FailureInvalidRequest:
		log.Debug(msg, fields...)
	case kind == domain.FailureTransient:
		log.Warn(msg, fields...)
	default:
		log.Error(msg, fields...)
	}
}
