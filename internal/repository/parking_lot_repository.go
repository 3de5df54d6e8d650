package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/iliyamo/parking-management/internal/model"
)

// ParkingLotRepo encapsulates all database queries related to parking
// lots, including the space ledger.  The available_spaces column on
// the lot row is the authoritative free-space counter; it is only
// ever changed by ReserveSpaceTx and ReleaseSpaceTx inside the
// open/close transaction, so the check and the mutation are a single
// statement and concurrent entries cannot observe a stale count.
type ParkingLotRepo struct {
    db *sql.DB // db is the underlying database connection pool
}

// NewParkingLotRepo constructs a ParkingLotRepo with the provided DB
// handle.  This function allows dependency injection of the database
// in tests and at startup.
func NewParkingLotRepo(db *sql.DB) *ParkingLotRepo { return &ParkingLotRepo{db: db} }

// DB exposes the underlying handle so callers can begin transactions
// that span multiple repositories.
func (r *ParkingLotRepo) DB() *sql.DB { return r.db }

const lotColumns = `id, admin_id, code, name, total_spaces, available_spaces, location, fee_per_hour, status, created_at, updated_at`

// scanLot reads one lot row from either a *sql.Row or *sql.Rows.
func scanLot(row interface{ Scan(...interface{}) error }) (*model.ParkingLot, error) {
    var l model.ParkingLot
    err := row.Scan(&l.ID, &l.AdminID, &l.Code, &l.Name, &l.TotalSpaces, &l.AvailableSpaces,
        &l.Location, &l.FeePerHour, &l.Status, &l.CreatedAt, &l.UpdatedAt)
    if err != nil {
        return nil, err
    }
    return &l, nil
}

// Create inserts a new parking lot.  The available counter starts at
// the full capacity.  On success the lot's ID and timestamp fields are
// populated from the freshly inserted row.  A duplicate code yields
// ErrDuplicateLotCode.
func (r *ParkingLotRepo) Create(ctx context.Context, l *model.ParkingLot) error {
    const qInsert = `INSERT INTO parking_lots (admin_id, code, name, total_spaces, available_spaces, location, fee_per_hour, status)
                     VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
    if l.Status == "" {
        l.Status = model.LotStatusActive
    }
    l.AvailableSpaces = l.TotalSpaces
    res, err := r.db.ExecContext(ctx, qInsert,
        l.AdminID, l.Code, l.Name, l.TotalSpaces, l.AvailableSpaces, l.Location, l.FeePerHour, l.Status)
    if err != nil {
        // MySQL duplicate key error (code 1062) on the unique lot code.
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return ErrDuplicateLotCode
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    l.ID = uint64(id)
    // Query back the full row to populate timestamps and defaults.
    const qSelect = `SELECT ` + lotColumns + ` FROM parking_lots WHERE id = ?`
    got, err := scanLot(r.db.QueryRowContext(ctx, qSelect, l.ID))
    if err != nil {
        return err
    }
    *l = *got
    return nil
}

// GetByCode fetches a lot by its unique code.  It returns
// ErrLotNotFound if no row is found.
func (r *ParkingLotRepo) GetByCode(ctx context.Context, code string) (*model.ParkingLot, error) {
    const q = `SELECT ` + lotColumns + ` FROM parking_lots WHERE code = ?`
    l, err := scanLot(r.db.QueryRowContext(ctx, q, code))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrLotNotFound
        }
        return nil, err
    }
    return l, nil
}

// GetByCodeTx is like GetByCode but runs inside an existing
// transaction so the lot lookup participates in the open/close atomic
// unit.
func (r *ParkingLotRepo) GetByCodeTx(ctx context.Context, tx *sql.Tx, code string) (*model.ParkingLot, error) {
    const q = `SELECT ` + lotColumns + ` FROM parking_lots WHERE code = ?`
    l, err := scanLot(tx.QueryRowContext(ctx, q, code))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrLotNotFound
        }
        return nil, err
    }
    return l, nil
}

// GetByIDTx fetches a lot by primary key within a transaction.  It is
// used at exit time to read the fee for the billing calculation.
func (r *ParkingLotRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.ParkingLot, error) {
    const q = `SELECT ` + lotColumns + ` FROM parking_lots WHERE id = ?`
    l, err := scanLot(tx.QueryRowContext(ctx, q, id))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrLotNotFound
        }
        return nil, err
    }
    return l, nil
}

// List returns all parking lots ordered by code.
func (r *ParkingLotRepo) List(ctx context.Context) ([]*model.ParkingLot, error) {
    const q = `SELECT ` + lotColumns + ` FROM parking_lots ORDER BY code`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var out []*model.ParkingLot
    for rows.Next() {
        l, err := scanLot(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, l)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// Update applies partial changes to a lot identified by code.  Nil
// pointers leave the corresponding column untouched.  The space
// counters are deliberately not updatable here; they move only
// through ReserveSpaceTx/ReleaseSpaceTx.  Returns ErrLotNotFound when
// no row matches.
func (r *ParkingLotRepo) Update(ctx context.Context, code string, name, location *string, feePerHour *float64, status *string) (*model.ParkingLot, error) {
    const q = `UPDATE parking_lots
               SET name = COALESCE(?, name),
                   location = COALESCE(?, location),
                   fee_per_hour = COALESCE(?, fee_per_hour),
                   status = COALESCE(?, status)
               WHERE code = ?`
    if _, err := r.db.ExecContext(ctx, q, name, location, feePerHour, status, code); err != nil {
        return nil, err
    }
    return r.GetByCode(ctx, code)
}

// ReserveSpaceTx decrements the lot's available space counter by one
// within the given transaction.  The capacity check and the decrement
// are a single guarded UPDATE: when the lot is full the statement
// matches no rows and ErrCapacityExceeded is returned, so two
// concurrent entries can never both take the last space.
func (r *ParkingLotRepo) ReserveSpaceTx(ctx context.Context, tx *sql.Tx, lotID uint64) error {
    const q = `UPDATE parking_lots
               SET available_spaces = available_spaces - 1
               WHERE id = ? AND available_spaces > 0`
    res, err := tx.ExecContext(ctx, q, lotID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrCapacityExceeded
    }
    return nil
}

// ReleaseSpaceTx increments the lot's available space counter by one
// within the given transaction.  The guard rejects an increment that
// would push available above total with ErrInvariantViolation instead
// of clamping; a violation means a space was released twice and must
// surface as an error, not be papered over.
func (r *ParkingLotRepo) ReleaseSpaceTx(ctx context.Context, tx *sql.Tx, lotID uint64) error {
    const q = `UPDATE parking_lots
               SET available_spaces = available_spaces + 1
               WHERE id = ? AND available_spaces < total_spaces`
    res, err := tx.ExecContext(ctx, q, lotID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrInvariantViolation
    }
    return nil
}
