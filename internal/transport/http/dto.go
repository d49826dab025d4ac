package http

import (
	"time"

	"github.com/google/uuid"
)

type MaintenanceItemRequest struct {
	RoomUnitExternalCode    string `json:"room_unit_external_code" binding:"required"`
	From                    string `json:"from" binding:"required"`
	To                      string `json:"to" binding:"required"`
	Type                    string `json:"type" binding:"required"`
	MaintenanceExternalCode string `json:"maintenance_external_code"`
}

type MaintenanceFeedRequest struct {
	Items []MaintenanceItemRequest `json:"items" binding:"required"`
}

type MaintenanceFeedResponse struct {
	EventsIn      int      `json:"events_in"`
	RowsApplied   int64    `json:"rows_applied"`
	SkippedRooms  int      `json:"skipped_rooms"`
	ReleasedCodes []string `json:"released_codes,omitempty"`
}

type ReleaseMaintenanceRequest struct {
	ExternalCodes []string `json:"external_codes" binding:"required"`
}

type ReleaseMaintenanceResponse struct {
	RowsReleased   int64       `json:"rows_released"`
	DeletedBlocks  int64       `json:"deleted_blocks"`
	RoomProductIDs []uuid.UUID `json:"room_product_ids"`
}

type ReconcileRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

type ReconcileResponse struct {
	Freed          int         `json:"freed"`
	Assigned       int         `json:"assigned"`
	RoomProductIDs []uuid.UUID `json:"room_product_ids"`
}

type ProvisionRequest struct {
	Days int `json:"days"`
}

type ProvisionResponse struct {
	RowsCreated int64 `json:"rows_created"`
}

type ReservationRequest struct {
	From     string `json:"from" binding:"required"`
	To       string `json:"to" binding:"required"`
	Assigned *bool  `json:"assigned" binding:"required"`
}

type ReservationResponse struct {
	RowsApplied int64 `json:"rows_applied"`
}

type AvailabilityDayResponse struct {
	RoomUnitID    uuid.UUID  `json:"room_unit_id"`
	Date          string     `json:"date"`
	Status        string     `json:"status"`
	MaintenanceID *uuid.UUID `json:"maintenance_id,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func NewValidationError(msg string) ErrorResponse {
	return ErrorResponse{Error: "validation_error", Message: msg}
}

func NewNotFoundError(msg string) ErrorResponse {
	return ErrorResponse{Error: "not_found", Message: msg}
}

func NewInternalError(msg string) ErrorResponse {
	return ErrorResponse{Error: "internal_error", Message: msg}
}
