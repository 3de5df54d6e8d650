package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/parking-management/internal/model"
)

// CarEntryRepo provides persistence for car entries (stays).  Entries
// are created ACTIVE when a vehicle arrives and completed exactly once
// when it leaves.  Methods with the Tx suffix run inside a caller
// supplied transaction and form the atomic open/close unit together
// with the space ledger; the caller must commit or roll back.  All
// timestamps are stored in UTC.
type CarEntryRepo struct {
    db *sql.DB
}

// NewCarEntryRepo returns a new CarEntryRepo bound to the given database.
func NewCarEntryRepo(db *sql.DB) *CarEntryRepo { return &CarEntryRepo{db: db} }

const entryColumns = `id, ticket_number, plate_number, lot_id, user_id, entry_time, exit_time, charge, status, created_at, updated_at`

// scanEntry reads one entry row from either a *sql.Row or *sql.Rows.
func scanEntry(row interface{ Scan(...interface{}) error }) (*model.CarEntry, error) {
    var (
        e        model.CarEntry
        exitTime sql.NullTime
    )
    err := row.Scan(&e.ID, &e.TicketNumber, &e.PlateNumber, &e.LotID, &e.UserID,
        &e.EntryTime, &exitTime, &e.Charge, &e.Status, &e.CreatedAt, &e.UpdatedAt)
    if err != nil {
        return nil, err
    }
    if exitTime.Valid {
        t := exitTime.Time.UTC()
        e.ExitTime = &t
    }
    return &e, nil
}

// CreateTx inserts a new ACTIVE car entry within the scope of an
// existing transaction.  It populates the generated ID and timestamp
// fields on the provided record.  The caller must have reserved a
// space on the lot in the same transaction before calling this.
func (r *CarEntryRepo) CreateTx(ctx context.Context, tx *sql.Tx, e *model.CarEntry) error {
    const q = `INSERT INTO car_entries (ticket_number, plate_number, lot_id, user_id, entry_time, charge, status)
               VALUES (?, ?, ?, ?, ?, 0, ?)`
    e.Status = model.EntryStatusActive
    res, err := tx.ExecContext(ctx, q,
        e.TicketNumber, e.PlateNumber, e.LotID, e.UserID,
        e.EntryTime.UTC().Format("2006-01-02 15:04:05"), e.Status)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    e.ID = uint64(id)
    // Query back the full row to populate timestamps and defaults.
    const sel = `SELECT ` + entryColumns + ` FROM car_entries WHERE id = ?`
    got, err := scanEntry(tx.QueryRowContext(ctx, sel, e.ID))
    if err != nil {
        return err
    }
    *e = *got
    return nil
}

// HasActiveByPlateTx reports whether the plate already has an ACTIVE
// entry in the given lot.  The row is taken FOR UPDATE so a concurrent
// open for the same plate blocks until this transaction finishes.
func (r *CarEntryRepo) HasActiveByPlateTx(ctx context.Context, tx *sql.Tx, lotID uint64, plate string) (bool, error) {
    const q = `SELECT id FROM car_entries
               WHERE lot_id = ? AND plate_number = ? AND status = 'ACTIVE'
               LIMIT 1 FOR UPDATE`
    var id uint64
    err := tx.QueryRowContext(ctx, q, lotID, plate).Scan(&id)
    if errors.Is(err, sql.ErrNoRows) {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}

// GetByTicketTx fetches an entry by its ticket number within a
// transaction, locking the row FOR UPDATE so that two concurrent
// closes of the same ticket serialize.  Returns ErrEntryNotFound when
// the ticket does not exist.
func (r *CarEntryRepo) GetByTicketTx(ctx context.Context, tx *sql.Tx, ticket string) (*model.CarEntry, error) {
    const q = `SELECT ` + entryColumns + ` FROM car_entries WHERE ticket_number = ? FOR UPDATE`
    e, err := scanEntry(tx.QueryRowContext(ctx, q, ticket))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrEntryNotFound
        }
        return nil, err
    }
    return e, nil
}

// GetByTicket fetches an entry by ticket outside a transaction, for
// read-only lookups such as showing a receipt.
func (r *CarEntryRepo) GetByTicket(ctx context.Context, ticket string) (*model.CarEntry, error) {
    const q = `SELECT ` + entryColumns + ` FROM car_entries WHERE ticket_number = ?`
    e, err := scanEntry(r.db.QueryRowContext(ctx, q, ticket))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrEntryNotFound
        }
        return nil, err
    }
    return e, nil
}

// CompleteTx sets the exit time, charge and COMPLETED status on an
// entry in a single guarded UPDATE.  The status guard makes the
// transition exactly-once: when another transaction completed the
// entry first, no row matches and ErrAlreadyCompleted is returned.
func (r *CarEntryRepo) CompleteTx(ctx context.Context, tx *sql.Tx, entryID uint64, exitTime time.Time, charge float64) error {
    const q = `UPDATE car_entries
               SET exit_time = ?, charge = ?, status = 'COMPLETED'
               WHERE id = ? AND status = 'ACTIVE'`
    res, err := tx.ExecContext(ctx, q, exitTime.UTC().Format("2006-01-02 15:04:05"), charge, entryID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrAlreadyCompleted
    }
    return nil
}

// EntryDetail is a car entry joined with its lot's code and name for
// listings and reports.
type EntryDetail struct {
    model.CarEntry
    LotCode string `json:"lot_code"`
    LotName string `json:"lot_name"`
}

const detailColumns = `e.id, e.ticket_number, e.plate_number, e.lot_id, e.user_id, e.entry_time, e.exit_time, e.charge, e.status, e.created_at, e.updated_at, l.code, l.name`

func scanDetail(row interface{ Scan(...interface{}) error }) (*EntryDetail, error) {
    var (
        d        EntryDetail
        exitTime sql.NullTime
    )
    err := row.Scan(&d.ID, &d.TicketNumber, &d.PlateNumber, &d.LotID, &d.UserID,
        &d.EntryTime, &exitTime, &d.Charge, &d.Status, &d.CreatedAt, &d.UpdatedAt,
        &d.LotCode, &d.LotName)
    if err != nil {
        return nil, err
    }
    if exitTime.Valid {
        t := exitTime.Time.UTC()
        d.ExitTime = &t
    }
    return &d, nil
}

// listDetails runs a query selecting detailColumns and collects the rows.
func (r *CarEntryRepo) listDetails(ctx context.Context, q string, args ...interface{}) ([]EntryDetail, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    details := make([]EntryDetail, 0)
    for rows.Next() {
        d, err := scanDetail(rows)
        if err != nil {
            return nil, err
        }
        details = append(details, *d)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return details, nil
}

// ListActive returns all ACTIVE entries, newest first, optionally
// restricted to a single lot.  A nil lotID means all lots.
func (r *CarEntryRepo) ListActive(ctx context.Context, lotID *uint64) ([]EntryDetail, error) {
    q := `SELECT ` + detailColumns + `
          FROM car_entries e
          JOIN parking_lots l ON l.id = e.lot_id
          WHERE e.status = 'ACTIVE'`
    args := []interface{}{}
    if lotID != nil {
        q += ` AND e.lot_id = ?`
        args = append(args, *lotID)
    }
    q += ` ORDER BY e.entry_time DESC`
    return r.listDetails(ctx, q, args...)
}

// ListByDateRange returns entries whose entry time (incoming), exit
// time (outgoing) or either timestamp falls within [start, end).  The
// caller is responsible for extending the end boundary to the end of
// the requested day.
func (r *CarEntryRepo) ListByDateRange(ctx context.Context, start, end time.Time, mode string) ([]EntryDetail, error) {
    base := `SELECT ` + detailColumns + `
             FROM car_entries e
             JOIN parking_lots l ON l.id = e.lot_id
             WHERE `
    s := start.UTC().Format("2006-01-02 15:04:05")
    t := end.UTC().Format("2006-01-02 15:04:05")
    var (
        q    string
        args []interface{}
    )
    switch mode {
    case "incoming":
        q = base + `e.entry_time >= ? AND e.entry_time < ?`
        args = []interface{}{s, t}
    case "outgoing":
        q = base + `e.exit_time IS NOT NULL AND e.exit_time >= ? AND e.exit_time < ?`
        args = []interface{}{s, t}
    default: // either
        q = base + `((e.entry_time >= ? AND e.entry_time < ?) OR (e.exit_time IS NOT NULL AND e.exit_time >= ? AND e.exit_time < ?))`
        args = []interface{}{s, t, s, t}
    }
    q += ` ORDER BY e.entry_time DESC`
    return r.listDetails(ctx, q, args...)
}

// ListByUser returns all entries registered by the given user, newest
// first, so clients can review their own parking history.
func (r *CarEntryRepo) ListByUser(ctx context.Context, userID uint64) ([]EntryDetail, error) {
    q := `SELECT ` + detailColumns + `
          FROM car_entries e
          JOIN parking_lots l ON l.id = e.lot_id
          WHERE e.user_id = ?
          ORDER BY e.entry_time DESC`
    return r.listDetails(ctx, q, userID)
}

// SumCharges totals the charge of COMPLETED entries whose exit time
// falls within [start, end).  An empty result set yields 0, not an
// error.
func (r *CarEntryRepo) SumCharges(ctx context.Context, start, end time.Time) (float64, error) {
    const q = `SELECT COALESCE(SUM(charge), 0)
               FROM car_entries
               WHERE status = 'COMPLETED' AND exit_time >= ? AND exit_time < ?`
    var total float64
    err := r.db.QueryRowContext(ctx, q,
        start.UTC().Format("2006-01-02 15:04:05"),
        end.UTC().Format("2006-01-02 15:04:05")).Scan(&total)
    if err != nil {
        return 0, err
    }
    return total, nil
}
