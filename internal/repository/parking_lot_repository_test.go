package repository

import (
    "context"
    "errors"
    "regexp"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/parking-management/internal/model"
)

func lotRows(id uint64, code string, total, available uint32, fee float64, status string) *sqlmock.Rows {
    now := time.Now().UTC()
    return sqlmock.NewRows([]string{
        "id", "admin_id", "code", "name", "total_spaces", "available_spaces",
        "location", "fee_per_hour", "status", "created_at", "updated_at",
    }).AddRow(id, 1, code, "Main Lot", total, available, "Downtown", fee, status, now, now)
}

func TestParkingLotRepoCreateStartsAtFullCapacity(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()
    repo := NewParkingLotRepo(db)

    mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO parking_lots`)).
        WillReturnResult(sqlmock.NewResult(5, 1))
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT `+lotColumns+` FROM parking_lots WHERE id = ?`)).
        WithArgs(uint64(5)).
        WillReturnRows(lotRows(5, "LOT-A", 50, 50, 2.5, model.LotStatusActive))

    lot := &model.ParkingLot{AdminID: 1, Code: "LOT-A", Name: "Main Lot", TotalSpaces: 50, FeePerHour: 2.5}
    require.NoError(t, repo.Create(context.Background(), lot))

    assert.Equal(t, uint64(5), lot.ID)
    assert.Equal(t, lot.TotalSpaces, lot.AvailableSpaces)
    assert.Equal(t, model.LotStatusActive, lot.Status)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestParkingLotRepoCreateDuplicateCode(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()
    repo := NewParkingLotRepo(db)

    mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO parking_lots`)).
        WillReturnError(errors.New("Error 1062: Duplicate entry 'LOT-A' for key 'code'"))

    lot := &model.ParkingLot{AdminID: 1, Code: "LOT-A", Name: "Main Lot", TotalSpaces: 50}
    err = repo.Create(context.Background(), lot)
    require.ErrorIs(t, err, ErrDuplicateLotCode)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestParkingLotRepoGetByCodeNotFound(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()
    repo := NewParkingLotRepo(db)

    mock.ExpectQuery(regexp.QuoteMeta(`SELECT `+lotColumns+` FROM parking_lots WHERE code = ?`)).
        WithArgs("NOPE").
        WillReturnRows(sqlmock.NewRows([]string{"id"}))

    _, err = repo.GetByCode(context.Background(), "NOPE")
    require.ErrorIs(t, err, ErrLotNotFound)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestParkingLotRepoReserveSpaceDecrements(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()
    repo := NewParkingLotRepo(db)

    mock.ExpectBegin()
    mock.ExpectExec(regexp.QuoteMeta(`SET available_spaces = available_spaces - 1`)).
        WithArgs(uint64(5)).
        WillReturnResult(sqlmock.NewResult(0, 1))

    tx, err := db.BeginTx(context.Background(), nil)
    require.NoError(t, err)
    require.NoError(t, repo.ReserveSpaceTx(context.Background(), tx, 5))
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestParkingLotRepoReserveSpaceFullLot(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()
    repo := NewParkingLotRepo(db)

    // No row matches the guard when the counter is already at zero.
    mock.ExpectBegin()
    mock.ExpectExec(regexp.QuoteMeta(`SET available_spaces = available_spaces - 1`)).
        WithArgs(uint64(5)).
        WillReturnResult(sqlmock.NewResult(0, 0))

    tx, err := db.BeginTx(context.Background(), nil)
    require.NoError(t, err)
    err = repo.ReserveSpaceTx(context.Background(), tx, 5)
    require.ErrorIs(t, err, ErrCapacityExceeded)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestParkingLotRepoReleaseSpaceAtCapacity(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()
    repo := NewParkingLotRepo(db)

    // Releasing when available already equals total must surface an
    // error rather than clamp the counter.
    mock.ExpectBegin()
    mock.ExpectExec(regexp.QuoteMeta(`SET available_spaces = available_spaces + 1`)).
        WithArgs(uint64(5)).
        WillReturnResult(sqlmock.NewResult(0, 0))

    tx, err := db.BeginTx(context.Background(), nil)
    require.NoError(t, err)
    err = repo.ReleaseSpaceTx(context.Background(), tx, 5)
    require.ErrorIs(t, err, ErrInvariantViolation)
    require.NoError(t, mock.ExpectationsWereMet())
}
