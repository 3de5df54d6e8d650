package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/iliyamo/parking-management/internal/model"
)

// VehicleRepo encapsulates database operations for the vehicles a
// client has registered.  Ownership is enforced in the queries: a
// vehicle is only visible to and mutable by the user who created it.
type VehicleRepo struct {
    db *sql.DB
}

// NewVehicleRepo constructs a VehicleRepo with the provided DB handle.
func NewVehicleRepo(db *sql.DB) *VehicleRepo { return &VehicleRepo{db: db} }

const vehicleColumns = `id, user_id, plate_number, make, model, color, created_at, updated_at`

func scanVehicle(row interface{ Scan(...interface{}) error }) (*model.Vehicle, error) {
    var v model.Vehicle
    err := row.Scan(&v.ID, &v.UserID, &v.PlateNumber, &v.Make, &v.Model, &v.Color, &v.CreatedAt, &v.UpdatedAt)
    if err != nil {
        return nil, err
    }
    return &v, nil
}

// Create inserts a vehicle for a user.  A duplicate plate for the same
// user yields ErrDuplicatePlate.  On success the generated ID and
// timestamps are populated on the record.
func (r *VehicleRepo) Create(ctx context.Context, v *model.Vehicle) error {
    const q = `INSERT INTO vehicles (user_id, plate_number, make, model, color) VALUES (?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, v.UserID, v.PlateNumber, v.Make, v.Model, v.Color)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return ErrDuplicatePlate
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    v.ID = uint64(id)
    const sel = `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = ?`
    got, err := scanVehicle(r.db.QueryRowContext(ctx, sel, v.ID))
    if err != nil {
        return err
    }
    *v = *got
    return nil
}

// GetByIDForUser fetches a vehicle only when it belongs to the given
// user.  Missing or foreign vehicles both yield ErrVehicleNotFound so
// the API does not leak other users' records.
func (r *VehicleRepo) GetByIDForUser(ctx context.Context, id, userID uint64) (*model.Vehicle, error) {
    const q = `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = ? AND user_id = ?`
    v, err := scanVehicle(r.db.QueryRowContext(ctx, q, id, userID))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrVehicleNotFound
        }
        return nil, err
    }
    return v, nil
}

// ListByUser returns all vehicles registered by a user ordered by id.
func (r *VehicleRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.Vehicle, error) {
    const q = `SELECT ` + vehicleColumns + ` FROM vehicles WHERE user_id = ? ORDER BY id`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var out []*model.Vehicle
    for rows.Next() {
        v, err := scanVehicle(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, v)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// ListAll returns every registered vehicle, optionally filtered to an
// exact plate.  Used by admins to look up an owner from a plate seen
// at the gate.
func (r *VehicleRepo) ListAll(ctx context.Context, plate string) ([]*model.Vehicle, error) {
    q := `SELECT ` + vehicleColumns + ` FROM vehicles`
    args := []interface{}{}
    if plate != "" {
        q += ` WHERE plate_number = ?`
        args = append(args, plate)
    }
    q += ` ORDER BY user_id, id`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var out []*model.Vehicle
    for rows.Next() {
        v, err := scanVehicle(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, v)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// Update applies partial changes to a user's vehicle.  Nil pointers
// leave the column untouched.  Returns ErrVehicleNotFound when the
// vehicle does not exist or belongs to someone else.
func (r *VehicleRepo) Update(ctx context.Context, id, userID uint64, make, mdl, color *string) (*model.Vehicle, error) {
    const q = `UPDATE vehicles
               SET make = COALESCE(?, make),
                   model = COALESCE(?, model),
                   color = COALESCE(?, color)
               WHERE id = ? AND user_id = ?`
    if _, err := r.db.ExecContext(ctx, q, make, mdl, color, id, userID); err != nil {
        return nil, err
    }
    return r.GetByIDForUser(ctx, id, userID)
}

// Delete removes a user's vehicle.  Returns ErrVehicleNotFound when
// nothing was deleted.
func (r *VehicleRepo) Delete(ctx context.Context, id, userID uint64) error {
    const q = `DELETE FROM vehicles WHERE id = ? AND user_id = ?`
    res, err := r.db.ExecContext(ctx, q, id, userID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrVehicleNotFound
    }
    return nil
}
