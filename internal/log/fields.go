package log

import (
	"time"

	"go.uber.org/zap"
)

// Field is a strongly typed log field.
type Field = zap.Field

// Field constructors, aliased so callers depend on this package only.
var (
	String  = zap.String
	Strings = zap.Strings
	Int     = zap.Int
	Int64   = zap.Int64
	Float64 = zap.Float64
	Bool    = zap.Bool
	Time    = zap.Time
	Any     = zap.Any
)

// Duration logs a duration in its string form for readability.
func Duration(key string, value time.Duration) Field {
	return zap.Stringer(key, value)
}

// Cause attaches the error that caused the log entry.
func Cause(err error) Field {
	return zap.Error(err)
}
