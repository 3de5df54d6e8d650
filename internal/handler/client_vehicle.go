package handler

import (
    "errors"   // errors.Is comparisons against repository sentinels
    "net/http" // HTTP status codes
    "strconv"  // path parameter conversion
    "strings"  // input normalization

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/iliyamo/parking-management/internal/model"
    "github.com/iliyamo/parking-management/internal/repository"
)

// VehicleHandler exposes the vehicle registry for clients.  Every
// operation is scoped to the authenticated user; a vehicle that
// belongs to someone else behaves exactly like a missing one.
type VehicleHandler struct {
    Vehicles *repository.VehicleRepo
}

// NewVehicleHandler constructs a VehicleHandler and panics if the repository is nil.
func NewVehicleHandler(vehicles *repository.VehicleRepo) *VehicleHandler {
    if vehicles == nil {
        panic("nil repository passed to NewVehicleHandler")
    }
    return &VehicleHandler{Vehicles: vehicles}
}

type vehicleResp struct {
    ID          uint64 `json:"id"`
    UserID      uint64 `json:"user_id"`
    PlateNumber string `json:"plate_number"`
    Make        string `json:"make"`
    Model       string `json:"model"`
    Color       string `json:"color"`
}

func toVehicleResp(v *model.Vehicle) vehicleResp {
    return vehicleResp{
        ID:          v.ID,
        UserID:      v.UserID,
        PlateNumber: v.PlateNumber,
        Make:        v.Make,
        Model:       v.Model,
        Color:       v.Color,
    }
}

// vehicleID parses the :id path parameter.
func vehicleID(c echo.Context) (uint64, error) {
    return strconv.ParseUint(c.Param("id"), 10, 64)
}

// RegisterVehicle handles POST /v1/vehicles.  Plate numbers are
// normalized to upper case; each user may register a plate only once.
func (h *VehicleHandler) RegisterVehicle(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body struct {
        PlateNumber string `json:"plate_number"`
        Make        string `json:"make"`
        Model       string `json:"model"`
        Color       string `json:"color"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    plate := strings.ToUpper(strings.TrimSpace(body.PlateNumber))
    if plate == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "plate_number is required"})
    }

    v := &model.Vehicle{
        UserID:      userID,
        PlateNumber: plate,
        Make:        strings.TrimSpace(body.Make),
        Model:       strings.TrimSpace(body.Model),
        Color:       strings.TrimSpace(body.Color),
    }
    if err := h.Vehicles.Create(c.Request().Context(), v); err != nil {
        if errors.Is(err, repository.ErrDuplicatePlate) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "plate already registered"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "register vehicle failed"})
    }
    return c.JSON(http.StatusCreated, toVehicleResp(v))
}

// ListVehicles handles GET /v1/vehicles.
func (h *VehicleHandler) ListVehicles(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    vehicles, err := h.Vehicles.ListByUser(c.Request().Context(), userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list vehicles failed"})
    }
    out := make([]vehicleResp, 0, len(vehicles))
    for _, v := range vehicles {
        out = append(out, toVehicleResp(v))
    }
    return c.JSON(http.StatusOK, out)
}

// ListAllVehicles handles GET /v1/vehicles/all for admins, with an
// optional ?plate=XX query to look up a plate's owner.
func (h *VehicleHandler) ListAllVehicles(c echo.Context) error {
    plate := strings.ToUpper(strings.TrimSpace(c.QueryParam("plate")))
    vehicles, err := h.Vehicles.ListAll(c.Request().Context(), plate)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list vehicles failed"})
    }
    out := make([]vehicleResp, 0, len(vehicles))
    for _, v := range vehicles {
        out = append(out, toVehicleResp(v))
    }
    return c.JSON(http.StatusOK, out)
}

// GetVehicle handles GET /v1/vehicles/:id.
func (h *VehicleHandler) GetVehicle(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := vehicleID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid vehicle id"})
    }
    v, err := h.Vehicles.GetByIDForUser(c.Request().Context(), id, userID)
    if err != nil {
        if errors.Is(err, repository.ErrVehicleNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, toVehicleResp(v))
}

// UpdateVehicle handles PATCH /v1/vehicles/:id.  Only make, model and
// color can change; the plate is immutable once registered.
func (h *VehicleHandler) UpdateVehicle(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := vehicleID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid vehicle id"})
    }
    var body struct {
        Make  *string `json:"make"`
        Model *string `json:"model"`
        Color *string `json:"color"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    // Confirm ownership first so a foreign id yields 404 rather than a
    // silent no-op update.
    if _, err := h.Vehicles.GetByIDForUser(c.Request().Context(), id, userID); err != nil {
        if errors.Is(err, repository.ErrVehicleNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    v, err := h.Vehicles.Update(c.Request().Context(), id, userID, body.Make, body.Model, body.Color)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update vehicle failed"})
    }
    return c.JSON(http.StatusOK, toVehicleResp(v))
}

// DeleteVehicle handles DELETE /v1/vehicles/:id.
func (h *VehicleHandler) DeleteVehicle(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := vehicleID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid vehicle id"})
    }
    if err := h.Vehicles.Delete(c.Request().Context(), id, userID); err != nil {
        if errors.Is(err, repository.ErrVehicleNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete vehicle failed"})
    }
    return c.NoContent(http.StatusNoContent)
}
