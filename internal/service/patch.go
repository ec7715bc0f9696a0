package service

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimePatch wraps an optional time field in an update: a nil patch leaves
// the field unchanged, a patch with a nil Value clears it.
type TimePatch struct {
	Value *time.Time
}

// DecimalPatch is TimePatch for decimal fields.
type DecimalPatch struct {
	Value *decimal.Decimal
}
