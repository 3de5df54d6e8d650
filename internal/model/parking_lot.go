package model

import "time"

// Lot lifecycle status values.  A lot can be taken out of service
// without deleting its historical entries.
const (
    LotStatusActive   = "ACTIVE"   // lot accepts new car entries
    LotStatusInactive = "INACTIVE" // lot is closed for new entries
)

// ParkingLot represents a managed parking facility as stored in the
// `parking_lots` table.  The available space counter lives on the lot
// row itself and is the single source of truth for capacity; it is
// mutated only inside the entry/exit transaction and can never
// exceed TotalSpaces.
//
// Fields:
//  ID              – primary key identifier.
//  AdminID         – user ID of the administrator who created the lot.
//  Code            – unique short code used by clients (e.g. "P1").
//  Name            – human-friendly display name.
//  TotalSpaces     – fixed total capacity (≥ 1).
//  AvailableSpaces – free spaces right now (0 ≤ available ≤ total).
//  Location        – free-text address or description.
//  FeePerHour      – billing rate per started hour.
//  Status          – lifecycle status (ACTIVE, INACTIVE).
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type ParkingLot struct {
    ID              uint64    // parking_lots.id
    AdminID         uint64    // parking_lots.admin_id
    Code            string    // parking_lots.code
    Name            string    // parking_lots.name
    TotalSpaces     uint32    // parking_lots.total_spaces
    AvailableSpaces uint32    // parking_lots.available_spaces
    Location        string    // parking_lots.location
    FeePerHour      float64   // parking_lots.fee_per_hour
    Status          string    // parking_lots.status
    CreatedAt       time.Time // parking_lots.created_at
    UpdatedAt       time.Time // parking_lots.updated_at
}
