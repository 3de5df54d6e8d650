package handler

import (
    "errors"   // errors.Is comparisons against sentinel errors
    "net/http" // HTTP status codes
    "strings"  // input normalization
    "time"     // timestamp parsing

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/iliyamo/parking-management/internal/billing"
    "github.com/iliyamo/parking-management/internal/model"
    "github.com/iliyamo/parking-management/internal/repository"
    "github.com/iliyamo/parking-management/internal/service"
)

// EntryHandler exposes the car entry lifecycle over HTTP: recording
// arrivals, closing stays with a bill, and the active/date-range/
// charges reports.  It is a thin layer over the parking service;
// every open and close runs as one atomic unit inside the service.
type EntryHandler struct {
    Parking *service.ParkingService
}

// NewEntryHandler constructs an EntryHandler and panics if the service is nil.
func NewEntryHandler(parking *service.ParkingService) *EntryHandler {
    if parking == nil {
        panic("nil service passed to NewEntryHandler")
    }
    return &EntryHandler{Parking: parking}
}

// entryResp is the JSON shape returned for a car entry.  ExitTime is
// omitted while the entry is ACTIVE.
type entryResp struct {
    ID           uint64  `json:"id"`
    TicketNumber string  `json:"ticket_number"`
    PlateNumber  string  `json:"plate_number"`
    LotID        uint64  `json:"lot_id"`
    LotCode      string  `json:"lot_code,omitempty"`
    LotName      string  `json:"lot_name,omitempty"`
    EntryTime    string  `json:"entry_time"`
    ExitTime     *string `json:"exit_time,omitempty"`
    Charge       float64 `json:"charge"`
    Status       string  `json:"status"`
}

func toEntryResp(e *model.CarEntry) entryResp {
    out := entryResp{
        ID:           e.ID,
        TicketNumber: e.TicketNumber,
        PlateNumber:  e.PlateNumber,
        LotID:        e.LotID,
        EntryTime:    e.EntryTime.UTC().Format(time.RFC3339),
        Charge:       e.Charge,
        Status:       e.Status,
    }
    if e.ExitTime != nil {
        iso := e.ExitTime.UTC().Format(time.RFC3339)
        out.ExitTime = &iso
    }
    return out
}

func toEntryDetailResp(d *repository.EntryDetail) entryResp {
    out := toEntryResp(&d.CarEntry)
    out.LotCode = d.LotCode
    out.LotName = d.LotName
    return out
}

// parseOptionalTime parses an RFC3339 timestamp when present.  An
// empty string yields nil so the service falls back to the current
// time.
func parseOptionalTime(s string) (*time.Time, error) {
    s = strings.TrimSpace(s)
    if s == "" {
        return nil, nil
    }
    t, err := time.Parse(time.RFC3339, s)
    if err != nil {
        return nil, err
    }
    return &t, nil
}

// parseDateParam parses a YYYY-MM-DD query parameter.
func parseDateParam(s string) (time.Time, error) {
    return time.Parse("2006-01-02", strings.TrimSpace(s))
}

// OpenEntry handles POST /v1/entries.  It records a vehicle arriving
// at a lot and returns the created entry with its ticket number.  The
// entry_time field is optional and defaults to the current time.
func (h *EntryHandler) OpenEntry(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body struct {
        PlateNumber string `json:"plate_number"`
        LotCode     string `json:"lot_code"`
        EntryTime   string `json:"entry_time"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    entryTime, err := parseOptionalTime(body.EntryTime)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "entry_time must be RFC3339"})
    }
    entry, err := h.Parking.OpenEntry(c.Request().Context(), userID, body.PlateNumber, body.LotCode, entryTime)
    if err != nil {
        switch {
        case errors.Is(err, service.ErrPlateRequired):
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "plate_number is required"})
        case errors.Is(err, repository.ErrLotNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "lot not found"})
        case errors.Is(err, service.ErrLotInactive):
            return c.JSON(http.StatusConflict, echo.Map{"error": "lot is inactive"})
        case errors.Is(err, repository.ErrDuplicateActiveEntry):
            return c.JSON(http.StatusConflict, echo.Map{"error": "plate already has an active entry in this lot"})
        case errors.Is(err, repository.ErrCapacityExceeded):
            return c.JSON(http.StatusConflict, echo.Map{"error": "no available spaces in this lot"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "open entry failed"})
    }
    return c.JSON(http.StatusCreated, toEntryResp(entry))
}

// CloseEntry handles POST /v1/entries/:ticket/complete.  It bills the
// stay, frees the space and returns the completed entry, which serves
// as the receipt.  The exit_time field is optional and defaults to
// the current time.
func (h *EntryHandler) CloseEntry(c echo.Context) error {
    ticket := strings.TrimSpace(c.Param("ticket"))
    if ticket == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket"})
    }
    var body struct {
        ExitTime string `json:"exit_time"`
    }
    // An empty body is fine; exit time then defaults to now.
    _ = c.Bind(&body)
    exitTime, err := parseOptionalTime(body.ExitTime)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "exit_time must be RFC3339"})
    }
    entry, err := h.Parking.CloseEntry(c.Request().Context(), ticket, exitTime)
    if err != nil {
        switch {
        case errors.Is(err, repository.ErrEntryNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "entry not found"})
        case errors.Is(err, repository.ErrAlreadyCompleted):
            return c.JSON(http.StatusConflict, echo.Map{"error": "entry already completed"})
        case errors.Is(err, billing.ErrInvalidTimeRange):
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "exit_time is before entry time"})
        case errors.Is(err, repository.ErrInvariantViolation):
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "space accounting invariant violated"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "close entry failed"})
    }
    return c.JSON(http.StatusOK, toEntryResp(entry))
}

// ListActive handles GET /v1/entries/active.  The optional ?lot=CODE
// query parameter restricts the result to one lot.
func (h *EntryHandler) ListActive(c echo.Context) error {
    details, err := h.Parking.ListActive(c.Request().Context(), c.QueryParam("lot"))
    if err != nil {
        if errors.Is(err, repository.ErrLotNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "lot not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list active entries failed"})
    }
    out := make([]entryResp, 0, len(details))
    for i := range details {
        out = append(out, toEntryDetailResp(&details[i]))
    }
    return c.JSON(http.StatusOK, out)
}

// ListByRange handles GET /v1/entries?start=...&end=...&mode=...
// with YYYY-MM-DD boundaries (end inclusive of the whole day) and
// mode incoming, outgoing or either (default either).
func (h *EntryHandler) ListByRange(c echo.Context) error {
    start, err := parseDateParam(c.QueryParam("start"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "start must be YYYY-MM-DD"})
    }
    end, err := parseDateParam(c.QueryParam("end"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "end must be YYYY-MM-DD"})
    }
    mode := strings.ToLower(strings.TrimSpace(c.QueryParam("mode")))
    switch mode {
    case "":
        mode = service.ModeEither
    case service.ModeIncoming, service.ModeOutgoing, service.ModeEither:
    default:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "mode must be incoming, outgoing or either"})
    }
    details, err := h.Parking.ListByDateRange(c.Request().Context(), start, end, mode)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list entries failed"})
    }
    out := make([]entryResp, 0, len(details))
    for i := range details {
        out = append(out, toEntryDetailResp(&details[i]))
    }
    return c.JSON(http.StatusOK, out)
}

// ChargesReport handles GET /v1/reports/charges?start=...&end=...
// and returns the total charge over completed entries whose exit
// falls in the range.  An empty range reports 0.
func (h *EntryHandler) ChargesReport(c echo.Context) error {
    start, err := parseDateParam(c.QueryParam("start"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "start must be YYYY-MM-DD"})
    }
    end, err := parseDateParam(c.QueryParam("end"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "end must be YYYY-MM-DD"})
    }
    total, err := h.Parking.TotalCharges(c.Request().Context(), start, end)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "charges report failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"total_charge": total})
}

// ListMine handles GET /v1/entries/mine for clients reviewing their
// own parking history.
func (h *EntryHandler) ListMine(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    details, err := h.Parking.ListByUser(c.Request().Context(), userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list entries failed"})
    }
    out := make([]entryResp, 0, len(details))
    for i := range details {
        out = append(out, toEntryDetailResp(&details[i]))
    }
    return c.JSON(http.StatusOK, out)
}
