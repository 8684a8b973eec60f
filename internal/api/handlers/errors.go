package handlers

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

const (
	codeValidation                    = "validation_error"
	codeNotFound                      = "not_found"
	codeBookingConflict               = "booking_conflict"
	codeAvailabilityViolation         = "availability_violation"
	codeInvalidTransition             = "invalid_transition"
	codeActiveBookingsPreventDeletion = "active_bookings_prevent_deletion"
	codeAllocationExhausted           = "allocation_exhausted"
	codeInternal                      = "internal_error"
)

const (
	msgValidation          = "некорректные параметры запроса"
	msgBookingNotFound     = "бронирование не найдено"
	msgWindowNotFound      = "окно доступности не найдено"
	msgResourceNotFound    = "ресурс не найден"
	msgUserNotFound        = "пользователь не найден"
	msgNotFound            = "объект не найден"
	msgBookingConflict     = "интервал пересекается с другим бронированием"
	msgAvailability        = "интервал не соответствует правилам доступности"
	msgInvalidTransition   = "недопустимая смена статуса бронирования"
	msgActiveBookings      = "окно используется активными бронированиями"
	msgAllocationExhausted = "не удалось выделить номер бронирования, повторите запрос"
	msgInternal            = "внутренняя ошибка сервера"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// StatusFor возвращает HTTP статус для ошибки доменного уровня
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrBookingConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrAvailabilityViolation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrActiveBookingsPreventDeletion):
		return http.StatusConflict
	case errors.Is(err, domain.ErrAllocationExhausted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorBody формирует тело ответа для ошибки доменного уровня
func ErrorBody(err error) ErrorResponse {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return ErrorResponse{Code: codeValidation, Message: msgValidation, Reason: err.Error()}
	case errors.Is(err, domain.ErrBookingNotFound):
		return ErrorResponse{Code: codeNotFound, Message: msgBookingNotFound}
	case errors.Is(err, domain.ErrWindowNotFound):
		return ErrorResponse{Code: codeNotFound, Message: msgWindowNotFound}
	case errors.Is(err, domain.ErrResourceNotFound):
		return ErrorResponse{Code: codeNotFound, Message: msgResourceNotFound}
	case errors.Is(err, domain.ErrUserNotFound):
		return ErrorResponse{Code: codeNotFound, Message: msgUserNotFound}
	case errors.Is(err, domain.ErrNotFound):
		return ErrorResponse{Code: codeNotFound, Message: msgNotFound}
	case errors.Is(err, domain.ErrBookingConflict):
		body := ErrorResponse{Code: codeBookingConflict, Message: msgBookingConflict}
		var conflictErr *domain.ConflictError
		if errors.As(err, &conflictErr) {
			body.ConflictingBookingID = ptr.Ptr(conflictErr.BookingID)
		}
		return body
	case errors.Is(err, domain.ErrAvailabilityViolation):
		return ErrorResponse{Code: codeAvailabilityViolation, Message: msgAvailability, Reason: domain.AvailabilityReason(err)}
	case errors.Is(err, domain.ErrInvalidTransition):
		return ErrorResponse{Code: codeInvalidTransition, Message: msgInvalidTransition, Reason: err.Error()}
	case errors.Is(err, domain.ErrActiveBookingsPreventDeletion):
		return ErrorResponse{Code: codeActiveBookingsPreventDeletion, Message: msgActiveBookings}
	case errors.Is(err, domain.ErrAllocationExhausted):
		return ErrorResponse{Code: codeAllocationExhausted, Message: msgAllocationExhausted}
	default:
		return ErrorResponse{Code: codeInternal, Message: msgInternal}
	}
}

// RespondDomainError отвечает ошибкой доменного уровня и логирует её
// Отказы логируются как предупреждения, остальные ошибки как ошибки
func RespondDomainError(w http.ResponseWriter, logger Logger, op string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		logger.Error("%s - Failed: %v", op, err)
	} else {
		logger.Warn("%s - Rejected (%d): %v", op, status, err)
	}
	RespondJSON(w, status, ErrorBody(err))
}
