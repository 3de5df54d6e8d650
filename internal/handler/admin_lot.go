package handler

import (
    "errors"   // errors.Is comparisons against repository sentinels
    "net/http" // HTTP status codes
    "strings"  // input normalization

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/iliyamo/parking-management/internal/model"
    "github.com/iliyamo/parking-management/internal/repository"
)

// LotHandler exposes parking lot administration: creating lots,
// listing them, and updating their name, location, fee or status.
// All methods assume JWT authentication and the ADMIN role have been
// enforced by middleware.
type LotHandler struct {
    Lots *repository.ParkingLotRepo
}

// NewLotHandler constructs a LotHandler and panics if the repository is nil.
func NewLotHandler(lots *repository.ParkingLotRepo) *LotHandler {
    if lots == nil {
        panic("nil repository passed to NewLotHandler")
    }
    return &LotHandler{Lots: lots}
}

// lotResp is the JSON shape returned for a parking lot.
type lotResp struct {
    ID              uint64  `json:"id"`
    Code            string  `json:"code"`
    Name            string  `json:"name"`
    TotalSpaces     uint32  `json:"total_spaces"`
    AvailableSpaces uint32  `json:"available_spaces"`
    Location        string  `json:"location"`
    FeePerHour      float64 `json:"fee_per_hour"`
    Status          string  `json:"status"`
}

func toLotResp(l *model.ParkingLot) lotResp {
    return lotResp{
        ID:              l.ID,
        Code:            l.Code,
        Name:            l.Name,
        TotalSpaces:     l.TotalSpaces,
        AvailableSpaces: l.AvailableSpaces,
        Location:        l.Location,
        FeePerHour:      l.FeePerHour,
        Status:          l.Status,
    }
}

// CreateLot handles POST /v1/lots.  The body must contain a unique
// code, a name, a total capacity of at least one space, a location
// and a non-negative hourly fee.  The available counter starts at
// full capacity.
func (h *LotHandler) CreateLot(c echo.Context) error {
    adminID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body struct {
        Code        string  `json:"code"`
        Name        string  `json:"name"`
        TotalSpaces int64   `json:"total_spaces"`
        Location    string  `json:"location"`
        FeePerHour  float64 `json:"fee_per_hour"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    body.Code = strings.ToUpper(strings.TrimSpace(body.Code))
    body.Name = strings.TrimSpace(body.Name)
    if body.Code == "" || body.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "code and name are required"})
    }
    if body.TotalSpaces < 1 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_spaces must be at least 1"})
    }
    if body.FeePerHour < 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "fee_per_hour must not be negative"})
    }

    lot := &model.ParkingLot{
        AdminID:     adminID,
        Code:        body.Code,
        Name:        body.Name,
        TotalSpaces: uint32(body.TotalSpaces),
        Location:    body.Location,
        FeePerHour:  body.FeePerHour,
    }
    if err := h.Lots.Create(c.Request().Context(), lot); err != nil {
        if errors.Is(err, repository.ErrDuplicateLotCode) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "lot code already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create lot failed"})
    }
    return c.JSON(http.StatusCreated, toLotResp(lot))
}

// ListLots handles GET /v1/lots and returns all lots ordered by code.
func (h *LotHandler) ListLots(c echo.Context) error {
    lots, err := h.Lots.List(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list lots failed"})
    }
    out := make([]lotResp, 0, len(lots))
    for _, l := range lots {
        out = append(out, toLotResp(l))
    }
    return c.JSON(http.StatusOK, out)
}

// GetLot handles GET /v1/lots/:code.
func (h *LotHandler) GetLot(c echo.Context) error {
    code := strings.ToUpper(strings.TrimSpace(c.Param("code")))
    if code == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lot code"})
    }
    lot, err := h.Lots.GetByCode(c.Request().Context(), code)
    if err != nil {
        if errors.Is(err, repository.ErrLotNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "lot not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, toLotResp(lot))
}

// UpdateLot handles PATCH /v1/lots/:code.  Only name, location,
// fee_per_hour and status can change; capacity counters move solely
// through the entry/exit lifecycle.
func (h *LotHandler) UpdateLot(c echo.Context) error {
    code := strings.ToUpper(strings.TrimSpace(c.Param("code")))
    if code == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lot code"})
    }
    var body struct {
        Name       *string  `json:"name"`
        Location   *string  `json:"location"`
        FeePerHour *float64 `json:"fee_per_hour"`
        Status     *string  `json:"status"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.FeePerHour != nil && *body.FeePerHour < 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "fee_per_hour must not be negative"})
    }
    if body.Status != nil {
        st := strings.ToUpper(strings.TrimSpace(*body.Status))
        if st != model.LotStatusActive && st != model.LotStatusInactive {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be ACTIVE or INACTIVE"})
        }
        body.Status = &st
    }
    // Ensure the lot exists before applying a partial update so a
    // wrong code yields 404 rather than a silent no-op.
    if _, err := h.Lots.GetByCode(c.Request().Context(), code); err != nil {
        if errors.Is(err, repository.ErrLotNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "lot not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    lot, err := h.Lots.Update(c.Request().Context(), code, body.Name, body.Location, body.FeePerHour, body.Status)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update lot failed"})
    }
    return c.JSON(http.StatusOK, toLotResp(lot))
}
