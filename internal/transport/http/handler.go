package http

import (
	"errors"
	"net/http"
	"time"

	"availability-service/internal/models"
	"availability-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AvailabilityHandler struct {
	svc service.Availability
	log *zap.Logger
}

func NewAvailabilityHandler(svc service.Availability, log *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc, log: log}
}

func (h *AvailabilityHandler) hotelID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("hotelID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid hotel id"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *AvailabilityHandler) writeError(c *gin.Context, err error) {
	switch {
	case service.IsValidation(err):
		c.JSON(http.StatusBadRequest, NewValidationError(err.Error()))
	case errors.Is(err, service.ErrRoomUnitNotFound),
		errors.Is(err, service.ErrMaintenanceNotFound):
		c.JSON(http.StatusNotFound, NewNotFoundError(err.Error()))
	default:
		h.log.Error("availability request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, NewInternalError("failed to update availability: "+err.Error()))
	}
}

// ApplyMaintenanceFeed принимает ручной батч обслуживаний (тот же контракт, что у фида PMS)
func (h *AvailabilityHandler) ApplyMaintenanceFeed(c *gin.Context) {
	hotelID, ok := h.hotelID(c)
	if !ok {
		return
	}

	var req MaintenanceFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid maintenance feed request", zap.Error(err))
		c.JSON(http.StatusBadRequest, NewValidationError("invalid request body"))
		return
	}

	events := make([]service.MaintenanceEvent, 0, len(req.Items))
	for _, it := range req.Items {
		events = append(events, service.MaintenanceEvent{
			RoomUnitExternalCode:    it.RoomUnitExternalCode,
			From:                    it.From,
			To:                      it.To,
			Type:                    models.DayStatus(it.Type),
			MaintenanceExternalCode: it.MaintenanceExternalCode,
		})
	}

	res, err := h.svc.ApplyMaintenanceFeed(c.Request.Context(), hotelID, events)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, MaintenanceFeedResponse{
		EventsIn:      res.EventsIn,
		RowsApplied:   res.RowsApplied,
		SkippedRooms:  res.SkippedRooms,
		ReleasedCodes: res.ReleasedCodes,
	})
}

// ReleaseMaintenance снимает блоки по внешним кодам и возвращает дни в AVAILABLE
func (h *AvailabilityHandler) ReleaseMaintenance(c *gin.Context) {
	hotelID, ok := h.hotelID(c)
	if !ok {
		return
	}

	var req ReleaseMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid request body"))
		return
	}

	res, err := h.svc.ReleaseMaintenances(c.Request.Context(), hotelID, req.ExternalCodes)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ReleaseMaintenanceResponse{
		RowsReleased:   res.RowsReleased,
		DeletedBlocks:  res.DeletedBlocks,
		RoomProductIDs: res.RoomProductIDs,
	})
}

// Reconcile запускает сверку по отелю на заданном окне
func (h *AvailabilityHandler) Reconcile(c *gin.Context) {
	hotelID, ok := h.hotelID(c)
	if !ok {
		return
	}

	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid request body"))
		return
	}
	from, err1 := time.Parse("2006-01-02", req.From)
	to, err2 := time.Parse("2006-01-02", req.To)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("from/to must be YYYY-MM-DD"))
		return
	}

	res, err := h.svc.ReconcileHotel(c.Request.Context(), hotelID, from, to)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ReconcileResponse{
		Freed:          res.Freed,
		Assigned:       res.Assigned,
		RoomProductIDs: res.RoomProductIDs,
	})
}

// ProvisionRoomUnit заводит календарь номера вперёд (по умолчанию на год)
func (h *AvailabilityHandler) ProvisionRoomUnit(c *gin.Context) {
	hotelID, ok := h.hotelID(c)
	if !ok {
		return
	}
	roomID, err := uuid.Parse(c.Param("roomID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid room id"))
		return
	}

	var req ProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid request body"))
		return
	}

	created, err := h.svc.ProvisionRoomUnit(c.Request.Context(), hotelID, roomID, req.Days)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ProvisionResponse{RowsCreated: created})
}

// ApplyReservation — коммит (assigned=true) или освобождение (assigned=false)
// ночей брони [date(from), date(to))
func (h *AvailabilityHandler) ApplyReservation(c *gin.Context) {
	hotelID, ok := h.hotelID(c)
	if !ok {
		return
	}
	roomID, err := uuid.Parse(c.Param("roomID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid room id"))
		return
	}

	var req ReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid request body"))
		return
	}
	from, err1 := time.Parse(time.RFC3339, req.From)
	to, err2 := time.Parse(time.RFC3339, req.To)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("from/to must be RFC3339 timestamps"))
		return
	}

	applied, err := h.svc.ApplyReservation(c.Request.Context(), hotelID, roomID, from, to, *req.Assigned)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ReservationResponse{RowsApplied: applied})
}

// ListAvailability отдаёт календарь номера на окне дат
func (h *AvailabilityHandler) ListAvailability(c *gin.Context) {
	hotelID, ok := h.hotelID(c)
	if !ok {
		return
	}
	roomID, err := uuid.Parse(c.Param("roomID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid room id"))
		return
	}

	from, err1 := time.Parse("2006-01-02", c.Query("from"))
	to, err2 := time.Parse("2006-01-02", c.Query("to"))
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("from/to query params must be YYYY-MM-DD"))
		return
	}

	days, err := h.svc.ListDays(c.Request.Context(), hotelID, roomID, from, to)
	if err != nil {
		h.writeError(c, err)
		return
	}

	out := make([]AvailabilityDayResponse, 0, len(days))
	for _, d := range days {
		out = append(out, AvailabilityDayResponse{
			RoomUnitID:    d.RoomUnitID,
			Date:          d.Date.Format("2006-01-02"),
			Status:        string(d.Status),
			MaintenanceID: d.MaintenanceID,
			UpdatedAt:     d.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}
