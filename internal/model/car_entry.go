package model

import "time"

// Car entry lifecycle states.  An entry starts ACTIVE and moves to
// COMPLETED exactly once, at exit; there are no other transitions.
const (
    EntryStatusActive    = "ACTIVE"    // vehicle is inside the lot
    EntryStatusCompleted = "COMPLETED" // vehicle has left and was billed
)

// CarEntry records one vehicle's stay in a parking lot, from arrival
// to departure, as stored in the `car_entries` table.  The status tag
// together with the nullable exit fields forms the lifecycle: while
// ACTIVE the exit time is nil and the charge is zero; CompleteTx sets
// exit time, charge and status in a single guarded write so a
// COMPLETED entry without a charge cannot exist.  Entries are never
// deleted; completed rows double as receipts and report records.
//
// Fields:
//  ID           – primary key identifier.
//  TicketNumber – unique opaque ticket returned at entry and used to close the stay.
//  PlateNumber  – vehicle plate (free text, at most one ACTIVE entry per plate per lot).
//  LotID        – parking lot the vehicle occupies.
//  UserID       – user who registered the entry.
//  EntryTime    – arrival timestamp, immutable after creation.
//  ExitTime     – departure timestamp (nil while ACTIVE, set exactly once).
//  Charge       – billed amount (0 while ACTIVE, computed exactly once at exit).
//  Status       – lifecycle state (ACTIVE, COMPLETED).
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type CarEntry struct {
    ID           uint64     // car_entries.id
    TicketNumber string     // car_entries.ticket_number
    PlateNumber  string     // car_entries.plate_number
    LotID        uint64     // car_entries.lot_id
    UserID       uint64     // car_entries.user_id
    EntryTime    time.Time  // car_entries.entry_time
    ExitTime     *time.Time // car_entries.exit_time (nullable)
    Charge       float64    // car_entries.charge
    Status       string     // car_entries.status
    CreatedAt    time.Time  // car_entries.created_at
    UpdatedAt    time.Time  // car_entries.updated_at
}

// Active reports whether the vehicle is still inside the lot.
func (e *CarEntry) Active() bool { return e.Status == EntryStatusActive }

// Completed reports whether the stay has been closed and billed.
func (e *CarEntry) Completed() bool { return e.Status == EntryStatusCompleted }
