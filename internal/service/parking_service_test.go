package service

import (
    "context"
    "regexp"
    "strings"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/parking-management/internal/billing"
    "github.com/iliyamo/parking-management/internal/model"
    "github.com/iliyamo/parking-management/internal/queue"
    "github.com/iliyamo/parking-management/internal/repository"
)

func newTestService(t *testing.T, publish PublishFunc) (*ParkingService, sqlmock.Sqlmock, func()) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    svc := NewParkingService(db, repository.NewParkingLotRepo(db), repository.NewCarEntryRepo(db), publish)
    return svc, mock, func() { db.Close() }
}

func mockLotRow(id uint64, code string, available uint32, fee float64, status string) *sqlmock.Rows {
    now := time.Now().UTC()
    return sqlmock.NewRows([]string{
        "id", "admin_id", "code", "name", "total_spaces", "available_spaces",
        "location", "fee_per_hour", "status", "created_at", "updated_at",
    }).AddRow(id, 1, code, "Main Lot", 50, available, "Downtown", fee, status, now, now)
}

func mockEntryRow(id uint64, ticket string, entryTime time.Time, exitTime interface{}, charge float64, status string) *sqlmock.Rows {
    now := time.Now().UTC()
    return sqlmock.NewRows([]string{
        "id", "ticket_number", "plate_number", "lot_id", "user_id",
        "entry_time", "exit_time", "charge", "status", "created_at", "updated_at",
    }).AddRow(id, ticket, "AB123CD", 5, 1, entryTime, exitTime, charge, status, now, now)
}

func TestParkingServiceOpenEntryReservesSpaceAndCreatesTicket(t *testing.T) {
    svc, mock, closeDB := newTestService(t, nil)
    defer closeDB()

    entryTime := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta(`FROM parking_lots WHERE code = ?`)).
        WithArgs("LOT-A").
        WillReturnRows(mockLotRow(5, "LOT-A", 12, 2.5, model.LotStatusActive))
    mock.ExpectQuery(regexp.QuoteMeta(`status = 'ACTIVE' LIMIT 1 FOR UPDATE`)).
        WillReturnRows(sqlmock.NewRows([]string{"id"}))
    mock.ExpectExec(regexp.QuoteMeta(`SET available_spaces = available_spaces - 1`)).
        WithArgs(uint64(5)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO car_entries`)).
        WillReturnResult(sqlmock.NewResult(9, 1))
    mock.ExpectQuery(regexp.QuoteMeta(`FROM car_entries WHERE id = ?`)).
        WithArgs(uint64(9)).
        WillReturnRows(mockEntryRow(9, "PK-ABCDEF12345678", entryTime, nil, 0, model.EntryStatusActive))
    mock.ExpectCommit()

    entry, err := svc.OpenEntry(context.Background(), 1, " ab123cd ", "LOT-A", &entryTime)
    require.NoError(t, err)
    assert.Equal(t, uint64(9), entry.ID)
    assert.True(t, strings.HasPrefix(entry.TicketNumber, "PK-"))
    assert.Equal(t, model.EntryStatusActive, entry.Status)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestParkingServiceOpenEntryEmptyPlate(t *testing.T) {
    svc, mock, closeDB := newTestService(t, nil)
    defer closeDB()

    _, err := svc.OpenEntry(context.Background(), 1, "   ", "LOT-A", nil)
    require.ErrorIs(t, err, ErrPlateRequired)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestParkingServiceOpenEntryInactiveLot(t *testing.T) {
    svc, mock, closeDB := newTestService(t, nil)
    defer closeDB()

    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta(`FROM parking_lots WHERE code = ?`)).
        WithArgs("LOT-A").
        WillReturnRows(mockLotRow(5, "LOT-A", 12, 2.5, model.LotStatusInactive))
    mock.ExpectRollback()

    _, err := svc.OpenEntry(context.Background(), 1, "AB123CD", "LOT-A", nil)
    require.ErrorIs(t, err, ErrLotInactive)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestParkingServiceOpenEntryDuplicatePlate(t *testing.T) {
    svc, mock, closeDB := newTestService(t, nil)
    defer closeDB()

    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta(`FROM parking_lots WHERE code = ?`)).
        WithArgs("LOT-A").
        WillReturnRows(mockLotRow(5, "LOT-A", 12, 2.5, model.LotStatusActive))
    mock.ExpectQuery(regexp.QuoteMeta(`status = 'ACTIVE' LIMIT 1 FOR UPDATE`)).
        WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
    mock.ExpectRollback()

    _, err := svc.OpenEntry(context.Background(), 1, "AB123CD", "LOT-A", nil)
    require.ErrorIs(t, err, repository.ErrDuplicateActiveEntry)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestParkingServiceOpenEntryLotFullRollsBack(t *testing.T) {
    svc, mock, closeDB := newTestService(t, nil)
    defer closeDB()

    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta(`FROM parking_lots WHERE code = ?`)).
        WithArgs("LOT-A").
        WillReturnRows(mockLotRow(5, "LOT-A", 0, 2.5, model.LotStatusActive))
    mock.ExpectQuery(regexp.QuoteMeta(`status = 'ACTIVE' LIMIT 1 FOR UPDATE`)).
        WillReturnRows(sqlmock.NewRows([]string{"id"}))
    mock.ExpectExec(regexp.QuoteMeta(`SET available_spaces = available_spaces - 1`)).
        WithArgs(uint64(5)).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectRollback()

    _, err := svc.OpenEntry(context.Background(), 1, "AB123CD", "LOT-A", nil)
    require.ErrorIs(t, err, repository.ErrCapacityExceeded)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestParkingServiceCloseEntryBillsAndReleasesSpace(t *testing.T) {
    var published []queue.EntryCompletedEvent
    capture := func(ctx context.Context, ev queue.EntryCompletedEvent) error {
        published = append(published, ev)
        return nil
    }
    svc, mock, closeDB := newTestService(t, capture)
    defer closeDB()

    entryTime := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
    exitTime := time.Date(2025, 3, 10, 11, 30, 0, 0, time.UTC)

    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta(`FROM car_entries WHERE ticket_number = ? FOR UPDATE`)).
        WithArgs("PK-ABCDEF12345678").
        WillReturnRows(mockEntryRow(9, "PK-ABCDEF12345678", entryTime, nil, 0, model.EntryStatusActive))
    mock.ExpectQuery(regexp.QuoteMeta(`FROM parking_lots WHERE id = ?`)).
        WithArgs(uint64(5)).
        WillReturnRows(mockLotRow(5, "LOT-A", 11, 2.5, model.LotStatusActive))
    // 1h30m rounds up to 2 billable hours at 2.50/hour.
    mock.ExpectExec(regexp.QuoteMeta(`status = 'COMPLETED' WHERE id = ? AND status = 'ACTIVE'`)).
        WithArgs("2025-03-10 11:30:00", 5.0, uint64(9)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(regexp.QuoteMeta(`SET available_spaces = available_spaces + 1`)).
        WithArgs(uint64(5)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    entry, err := svc.CloseEntry(context.Background(), "PK-ABCDEF12345678", &exitTime)
    require.NoError(t, err)
    assert.Equal(t, model.EntryStatusCompleted, entry.Status)
    assert.Equal(t, 5.0, entry.Charge)
    require.NotNil(t, entry.ExitTime)
    assert.Equal(t, exitTime, entry.ExitTime.UTC())

    require.Len(t, published, 1)
    assert.Equal(t, "LOT-A", published[0].LotCode)
    assert.Equal(t, int64(2), published[0].BillableHours)
    assert.Equal(t, 5.0, published[0].Charge)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestParkingServiceCloseEntryAlreadyCompleted(t *testing.T) {
    svc, mock, closeDB := newTestService(t, nil)
    defer closeDB()

    entryTime := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
    exitTime := time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)

    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta(`FROM car_entries WHERE ticket_number = ? FOR UPDATE`)).
        WithArgs("PK-ABCDEF12345678").
        WillReturnRows(mockEntryRow(9, "PK-ABCDEF12345678", entryTime, exitTime, 2.5, model.EntryStatusCompleted))
    mock.ExpectRollback()

    _, err := svc.CloseEntry(context.Background(), "PK-ABCDEF12345678", nil)
    require.ErrorIs(t, err, repository.ErrAlreadyCompleted)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestParkingServiceCloseEntryExitBeforeEntry(t *testing.T) {
    svc, mock, closeDB := newTestService(t, nil)
    defer closeDB()

    entryTime := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
    exitTime := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta(`FROM car_entries WHERE ticket_number = ? FOR UPDATE`)).
        WithArgs("PK-ABCDEF12345678").
        WillReturnRows(mockEntryRow(9, "PK-ABCDEF12345678", entryTime, nil, 0, model.EntryStatusActive))
    mock.ExpectQuery(regexp.QuoteMeta(`FROM parking_lots WHERE id = ?`)).
        WithArgs(uint64(5)).
        WillReturnRows(mockLotRow(5, "LOT-A", 11, 2.5, model.LotStatusActive))
    mock.ExpectRollback()

    _, err := svc.CloseEntry(context.Background(), "PK-ABCDEF12345678", &exitTime)
    require.ErrorIs(t, err, billing.ErrInvalidTimeRange)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestParkingServiceTotalChargesExtendsEndByOneDay(t *testing.T) {
    svc, mock, closeDB := newTestService(t, nil)
    defer closeDB()

    // The end boundary covers the whole end day via an exclusive
    // next-day bound.
    mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(charge), 0)`)).
        WithArgs("2025-03-10 00:00:00", "2025-03-12 00:00:00").
        WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(17.5))

    start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
    end := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
    total, err := svc.TotalCharges(context.Background(), start, end)
    require.NoError(t, err)
    assert.Equal(t, 17.5, total)
    require.NoError(t, mock.ExpectationsWereMet())
}
