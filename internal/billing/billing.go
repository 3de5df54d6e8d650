// Package billing computes parking charges.  It is pure: no I/O, no
// clock access, no database.  The lifecycle layer passes in the entry
// and exit timestamps and the lot's current fee and stores whatever
// comes back.
package billing

import (
    "errors"
    "time"
)

// ErrInvalidTimeRange is returned when the exit timestamp precedes the
// entry timestamp.  A negative duration is rejected, never clamped to
// zero, so a caller mixing up its arguments gets an error instead of
// a free stay.
var ErrInvalidTimeRange = errors.New("exit time is before entry time")

// BillableHours is the rounding policy: the duration between entry and
// exit is rounded up to whole hours, with a minimum of one billable
// hour.  Even a near-instant stay bills one hour; a naive ceiling
// would bill zero.  The policy lives in this one function so it can
// be swapped (e.g. per-minute billing) without touching the lifecycle
// code.
func BillableHours(entry, exit time.Time) (int64, error) {
    d := exit.Sub(entry)
    if d < 0 {
        return 0, ErrInvalidTimeRange
    }
    hours := int64(d / time.Hour)
    if d%time.Hour > 0 {
        hours++
    }
    if hours < 1 {
        hours = 1
    }
    return hours, nil
}

// Charge returns the amount owed for a stay: billable hours times the
// lot's fee per hour.  The result keeps the fee's precision; nothing
// is truncated to whole currency units.
func Charge(entry, exit time.Time, feePerHour float64) (float64, error) {
    hours, err := BillableHours(entry, exit)
    if err != nil {
        return 0, err
    }
    return float64(hours) * feePerHour, nil
}
