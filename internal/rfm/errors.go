package rfm

import (
	"fmt"
	"time"
)

// MalformedRecordError reports a transaction that cannot participate in
// aggregation: missing customer identifier, zero timestamp, or a NaN amount.
// With Config.SkipMalformed the record is dropped instead; otherwise the whole
// run fails on the first occurrence.
type MalformedRecordError struct {
	Index int    // position in the input slice
	Field string // which required field is missing or invalid
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed transaction at index %d: invalid %s", e.Index, e.Field)
}

// InvalidDateError reports a customer whose most recent transaction postdates
// the configured as-of date. Negative recency means the reference date is wrong
// for the dataset, so the run aborts rather than clamping.
type InvalidDateError struct {
	CustomerID      string
	LastTransaction time.Time
	AsOf            time.Time
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("customer %s: last transaction %s is after as-of date %s",
		e.CustomerID,
		e.LastTransaction.Format("2006-01-02"),
		e.AsOf.Format("2006-01-02"))
}
