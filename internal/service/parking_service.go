// Package service contains the parking coordinator: the one place
// where the space ledger and the entry lifecycle are mutated together.
// Every open/close runs inside a single database transaction scoped to
// the one lot and one entry being touched, so a space is never
// double-counted or lost; a failed step rolls the whole unit back and
// the error is returned to the caller without retrying.
package service

import (
    "context"
    "database/sql"
    "errors"
    "log"
    "strings"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/parking-management/internal/billing"
    "github.com/iliyamo/parking-management/internal/model"
    "github.com/iliyamo/parking-management/internal/queue"
    "github.com/iliyamo/parking-management/internal/repository"
)

// ErrPlateRequired is returned when opening an entry with an empty
// plate identifier.
var ErrPlateRequired = errors.New("plate number required")

// ErrLotInactive is returned when opening an entry against a lot that
// has been taken out of service.
var ErrLotInactive = errors.New("parking lot is inactive")

// Date-range report modes: filter by entry time, exit time, or both.
const (
    ModeIncoming = "incoming"
    ModeOutgoing = "outgoing"
    ModeEither   = "either"
)

// PublishFunc publishes a completed-entry event.  It is injected so
// tests can run without a broker; a nil function disables publishing.
type PublishFunc func(ctx context.Context, ev queue.EntryCompletedEvent) error

// ParkingService coordinates the parking lot space ledger and the car
// entry lifecycle.
type ParkingService struct {
    db      *sql.DB
    lots    *repository.ParkingLotRepo
    entries *repository.CarEntryRepo
    publish PublishFunc
}

// NewParkingService constructs the coordinator.  db must be the same
// handle the repositories are bound to; publish may be nil.
func NewParkingService(db *sql.DB, lots *repository.ParkingLotRepo, entries *repository.CarEntryRepo, publish PublishFunc) *ParkingService {
    if db == nil || lots == nil || entries == nil {
        panic("nil dependency passed to NewParkingService")
    }
    return &ParkingService{db: db, lots: lots, entries: entries, publish: publish}
}

// newTicketNumber builds an opaque ticket identifier returned at entry
// and used later to close the stay.
func newTicketNumber() string {
    return "PK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:15]
}

// OpenEntry records a vehicle's arrival: it creates an ACTIVE entry
// and reserves one space on the lot as a single atomic unit.  A nil
// entryTime defaults to the current time; passing one explicitly keeps
// the operation testable.  Returns the created entry including its
// ticket number, or ErrPlateRequired, repository.ErrLotNotFound,
// ErrLotInactive, repository.ErrDuplicateActiveEntry or
// repository.ErrCapacityExceeded.
func (s *ParkingService) OpenEntry(ctx context.Context, userID uint64, plate, lotCode string, entryTime *time.Time) (*model.CarEntry, error) {
    plate = strings.ToUpper(strings.TrimSpace(plate))
    if plate == "" {
        return nil, ErrPlateRequired
    }
    when := time.Now().UTC()
    if entryTime != nil {
        when = entryTime.UTC()
    }

    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    lot, err := s.lots.GetByCodeTx(ctx, tx, lotCode)
    if err != nil {
        return nil, err
    }
    if lot.Status != model.LotStatusActive {
        return nil, ErrLotInactive
    }
    // One plate may hold at most one ACTIVE entry per lot; the check
    // locks the matching row so a concurrent open for the same plate
    // waits for this transaction.
    dup, err := s.entries.HasActiveByPlateTx(ctx, tx, lot.ID, plate)
    if err != nil {
        return nil, err
    }
    if dup {
        return nil, repository.ErrDuplicateActiveEntry
    }
    if err := s.lots.ReserveSpaceTx(ctx, tx, lot.ID); err != nil {
        return nil, err
    }
    entry := &model.CarEntry{
        TicketNumber: newTicketNumber(),
        PlateNumber:  plate,
        LotID:        lot.ID,
        UserID:       userID,
        EntryTime:    when,
    }
    if err := s.entries.CreateTx(ctx, tx, entry); err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return entry, nil
}

// CloseEntry records a vehicle's departure: it computes the charge,
// completes the entry and releases its space as a single atomic unit.
// A nil exitTime defaults to the current time.  The completed entry is
// returned and doubles as the bill.  Returns
// repository.ErrEntryNotFound, repository.ErrAlreadyCompleted,
// billing.ErrInvalidTimeRange or repository.ErrInvariantViolation.
func (s *ParkingService) CloseEntry(ctx context.Context, ticket string, exitTime *time.Time) (*model.CarEntry, error) {
    when := time.Now().UTC()
    if exitTime != nil {
        when = exitTime.UTC()
    }

    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    entry, err := s.entries.GetByTicketTx(ctx, tx, ticket)
    if err != nil {
        return nil, err
    }
    if !entry.Active() {
        return nil, repository.ErrAlreadyCompleted
    }
    lot, err := s.lots.GetByIDTx(ctx, tx, entry.LotID)
    if err != nil {
        return nil, err
    }
    charge, err := billing.Charge(entry.EntryTime, when, lot.FeePerHour)
    if err != nil {
        return nil, err
    }
    if err := s.entries.CompleteTx(ctx, tx, entry.ID, when, charge); err != nil {
        return nil, err
    }
    if err := s.lots.ReleaseSpaceTx(ctx, tx, lot.ID); err != nil {
        if errors.Is(err, repository.ErrInvariantViolation) {
            log.Printf("parking: space release for lot %s (entry %d) would exceed total, rolling back", lot.Code, entry.ID)
        }
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true

    entry.ExitTime = &when
    entry.Charge = charge
    entry.Status = model.EntryStatusCompleted

    if s.publish != nil {
        hours, _ := billing.BillableHours(entry.EntryTime, when)
        ev := queue.EntryCompletedEvent{
            EntryID:       entry.ID,
            TicketNumber:  entry.TicketNumber,
            PlateNumber:   entry.PlateNumber,
            LotCode:       lot.Code,
            LotName:       lot.Name,
            EntryTime:     entry.EntryTime.UTC().Format(time.RFC3339),
            ExitTime:      when.Format(time.RFC3339),
            BillableHours: hours,
            FeePerHour:    lot.FeePerHour,
            Charge:        charge,
            CompletedAt:   time.Now().UTC().Format(time.RFC3339),
        }
        // Receipt events are best effort; the stay is already committed.
        if err := s.publish(ctx, ev); err != nil {
            log.Printf("parking: publish entry.completed failed: %v", err)
        }
    }
    return entry, nil
}

// ListActive returns all ACTIVE entries, optionally filtered by lot
// code.
func (s *ParkingService) ListActive(ctx context.Context, lotCode string) ([]repository.EntryDetail, error) {
    var lotID *uint64
    if strings.TrimSpace(lotCode) != "" {
        lot, err := s.lots.GetByCode(ctx, lotCode)
        if err != nil {
            return nil, err
        }
        lotID = &lot.ID
    }
    return s.entries.ListActive(ctx, lotID)
}

// ListByDateRange returns entries whose entry and/or exit timestamp
// (per mode) falls within [start, end], with the end date extended to
// the end of its day.  An unknown mode behaves like ModeEither.
func (s *ParkingService) ListByDateRange(ctx context.Context, start, end time.Time, mode string) ([]repository.EntryDetail, error) {
    return s.entries.ListByDateRange(ctx, start.UTC(), endOfRange(end), mode)
}

// ListByUser returns all entries registered by the given user.
func (s *ParkingService) ListByUser(ctx context.Context, userID uint64) ([]repository.EntryDetail, error) {
    return s.entries.ListByUser(ctx, userID)
}

// TotalCharges sums the charge of COMPLETED entries whose exit falls
// within [start, end], end date extended to end of day.  An empty
// range yields 0.
func (s *ParkingService) TotalCharges(ctx context.Context, start, end time.Time) (float64, error) {
    return s.entries.SumCharges(ctx, start.UTC(), endOfRange(end))
}

// endOfRange extends the end boundary by one day so a date-only end
// value includes the whole day; the repositories query with an
// exclusive upper bound.
func endOfRange(end time.Time) time.Time {
    return end.UTC().AddDate(0, 0, 1)
}
