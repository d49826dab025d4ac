package service

import "errors"

// ValidationError отклоняет запрос до любой записи (нет обязательного фильтра и т.п.)
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

var (
	ErrHotelRequired  = &ValidationError{Msg: "hotel id is required"}
	ErrWindowRequired = &ValidationError{Msg: "date window is required and must not be empty"}

	ErrRoomUnitNotFound    = errors.New("room unit not found")
	ErrMaintenanceNotFound = errors.New("maintenance not found")
)
