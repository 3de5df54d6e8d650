package handler

import (
    "net/http"
    "net/http/httptest"
    "regexp"
    "strings"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/parking-management/internal/repository"
    "github.com/iliyamo/parking-management/internal/service"
)

// newContext builds an echo context carrying an authenticated user,
// the way the JWT middleware would leave it.
func newContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
    t.Helper()
    e := echo.New()
    var req *http.Request
    if body != "" {
        req = httptest.NewRequest(method, target, strings.NewReader(body))
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    } else {
        req = httptest.NewRequest(method, target, nil)
    }
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.Set("user_id", uint64(1))
    c.Set("role", "ADMIN")
    return c, rec
}

func TestLotHandlerCreateLotRejectsMissingFields(t *testing.T) {
    db, _, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()
    h := NewLotHandler(repository.NewParkingLotRepo(db))

    c, rec := newContext(t, http.MethodPost, "/v1/lots", `{"name":"Main Lot","total_spaces":50}`)
    require.NoError(t, h.CreateLot(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLotHandlerCreateLotRejectsZeroCapacity(t *testing.T) {
    db, _, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()
    h := NewLotHandler(repository.NewParkingLotRepo(db))

    c, rec := newContext(t, http.MethodPost, "/v1/lots", `{"code":"LOT-A","name":"Main Lot","total_spaces":0}`)
    require.NoError(t, h.CreateLot(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLotHandlerGetLotNotFound(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()
    h := NewLotHandler(repository.NewParkingLotRepo(db))

    mock.ExpectQuery(regexp.QuoteMeta(`FROM parking_lots WHERE code = ?`)).
        WithArgs("NOPE").
        WillReturnRows(sqlmock.NewRows([]string{"id"}))

    c, rec := newContext(t, http.MethodGet, "/v1/lots/NOPE", "")
    c.SetParamNames("code")
    c.SetParamValues("NOPE")
    require.NoError(t, h.GetLot(c))
    assert.Equal(t, http.StatusNotFound, rec.Code)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestLotHandlerUpdateLotRejectsBadStatus(t *testing.T) {
    db, _, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()
    h := NewLotHandler(repository.NewParkingLotRepo(db))

    c, rec := newContext(t, http.MethodPatch, "/v1/lots/LOT-A", `{"status":"CLOSED"}`)
    c.SetParamNames("code")
    c.SetParamValues("LOT-A")
    require.NoError(t, h.UpdateLot(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func newEntryHandler(t *testing.T) *EntryHandler {
    t.Helper()
    db, _, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    svc := service.NewParkingService(db, repository.NewParkingLotRepo(db), repository.NewCarEntryRepo(db), nil)
    return NewEntryHandler(svc)
}

func TestEntryHandlerOpenEntryRejectsBadTimestamp(t *testing.T) {
    h := newEntryHandler(t)

    c, rec := newContext(t, http.MethodPost, "/v1/entries",
        `{"plate_number":"AB123CD","lot_code":"LOT-A","entry_time":"10/03/2025"}`)
    require.NoError(t, h.OpenEntry(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEntryHandlerListByRangeRejectsUnknownMode(t *testing.T) {
    h := newEntryHandler(t)

    c, rec := newContext(t, http.MethodGet, "/v1/entries?start=2025-03-10&end=2025-03-11&mode=sideways", "")
    require.NoError(t, h.ListByRange(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEntryHandlerListByRangeRejectsBadDates(t *testing.T) {
    h := newEntryHandler(t)

    c, rec := newContext(t, http.MethodGet, "/v1/entries?start=last-tuesday&end=2025-03-11", "")
    require.NoError(t, h.ListByRange(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVehicleHandlerRegisterRejectsMissingPlate(t *testing.T) {
    db, _, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()
    h := NewVehicleHandler(repository.NewVehicleRepo(db))

    c, rec := newContext(t, http.MethodPost, "/v1/vehicles", `{"make":"Toyota"}`)
    require.NoError(t, h.RegisterVehicle(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}
