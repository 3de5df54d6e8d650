// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// parking service and handlers to distinguish between different failure
// scenarios with errors.Is instead of matching on driver error strings.
package repository

import "errors"

// ErrLotNotFound is returned when the referenced parking lot does not
// exist. Handlers should translate this into an HTTP 404 response.
var ErrLotNotFound = errors.New("parking lot not found")

// ErrDuplicateLotCode is returned when creating a lot whose code is
// already taken. Handlers should translate this into an HTTP 409.
var ErrDuplicateLotCode = errors.New("parking lot code already exists")

// ErrEntryNotFound is returned when no car entry matches the given
// ticket or identifier.
var ErrEntryNotFound = errors.New("car entry not found")

// ErrCapacityExceeded is returned when a lot has no free spaces at
// entry time. The caller may suggest an alternate lot; the operation
// is never retried automatically.
var ErrCapacityExceeded = errors.New("no available spaces in parking lot")

// ErrDuplicateActiveEntry is returned when the same plate already has
// an ACTIVE entry in the same lot. It prevents one vehicle from being
// booked against two spaces.
var ErrDuplicateActiveEntry = errors.New("plate already has an active entry in this lot")

// ErrAlreadyCompleted is returned when closing an entry that has
// already been completed. Completion happens exactly once; re-billing
// is rejected rather than silently repeated.
var ErrAlreadyCompleted = errors.New("car entry already completed")

// ErrInvariantViolation is returned when releasing a space would push
// the available counter above the lot's total. The violation is
// rejected, never clamped, because clamping would mask bugs such as a
// double release. Callers must roll back and log it.
var ErrInvariantViolation = errors.New("available spaces would exceed total spaces")

// ErrVehicleNotFound is returned when a vehicle record does not exist
// or belongs to another user.
var ErrVehicleNotFound = errors.New("vehicle not found")

// ErrDuplicatePlate is returned when registering a vehicle with a
// plate the user has already registered.
var ErrDuplicatePlate = errors.New("plate already registered")
