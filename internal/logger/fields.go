package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Structured log field keys shared across packages.
const (
	FieldProvider      = "llm_provider"
	FieldModel         = "llm_model"
	FieldRunID         = "run_id"
	FieldDocKind       = "doc_kind"
	FieldCacheKey      = "cache_key"
	FieldRequirementID = "requirement_id"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// A nil logger becomes a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CommonFields returns the provider and model fields, skipping empty values.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// CacheKey returns a shortened cache key field; full sha256 keys add little to a log line.
func CacheKey(key string) zap.Field {
	if len(key) > 12 {
		key = key[:12]
	}
	return zap.String(FieldCacheKey, key)
}
