package model

import "time"

// Vehicle is a car registered by a client in the `vehicles` table.
// Registration is optional for parking (entries reference plates as
// free text) but lets clients keep a profile of their cars and lets
// admins look up an owner from a plate.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – owner of the vehicle record.
//  PlateNumber – plate, unique per owner.
//  Make        – manufacturer (e.g. "Toyota").
//  Model       – model name.
//  Color       – color description.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Vehicle struct {
    ID          uint64    // vehicles.id
    UserID      uint64    // vehicles.user_id
    PlateNumber string    // vehicles.plate_number
    Make        string    // vehicles.make
    Model       string    // vehicles.model
    Color       string    // vehicles.color
    CreatedAt   time.Time // vehicles.created_at
    UpdatedAt   time.Time // vehicles.updated_at
}
