package adaptor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"seat-booking/internal/usecase"
	"seat-booking/pkg/utils"

	"go.uber.org/zap"
)

const (
	msgInvalidBody        = "Invalid request body"
	msgSomethingWentWrong = "Something went wrong"
	msgSeatConflict       = "Seats were booked by another request, please retry"
)

// decodeJSON decodes the request body into dst. An empty body leaves dst at
// its zero value so the service reports the missing field.
func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// handleServiceError maps usecase errors to HTTP responses.
func handleServiceError(log *zap.Logger, w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, usecase.ErrSeatCountRequired):
		log.Warn(operation+" failed - seat count missing", zap.Error(err))
		utils.ResponseBadRequest(w, "Number of seats required", nil)

	case errors.Is(err, usecase.ErrSeatsNotAvailable):
		log.Warn(operation+" failed - not enough seats", zap.Error(err))
		utils.ResponseBadRequest(w, "Seats not available", nil)

	case errors.Is(err, usecase.ErrSeatNumbersRequired):
		log.Warn(operation+" failed - seat numbers missing", zap.Error(err))
		utils.ResponseNotFound(w, "Unbook seatNumbers number required")

	case errors.Is(err, usecase.ErrInvalidSeatNumbers):
		log.Warn(operation+" failed - invalid seat numbers", zap.Error(err))
		utils.ResponseBadRequest(w, "Invalid seat numbers or already unbooked", nil)

	case errors.Is(err, usecase.ErrUnknownSeatNumbers):
		log.Warn(operation+" failed - unknown seat numbers", zap.Error(err))
		utils.ResponseBadRequest(w, "Seat numbers must exist and appear once", nil)

	case errors.Is(err, usecase.ErrValidation):
		log.Warn(operation+" validation failed", zap.Error(err))
		utils.ResponseBadRequest(w, "Validation failed", validationDetail(err))

	case errors.Is(err, usecase.ErrSeatConflict):
		log.Warn(operation+" failed - concurrent update", zap.Error(err))
		utils.ResponseConflict(w, msgSeatConflict)

	default:
		log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, msgSomethingWentWrong, err)
	}
}

// validationDetail strips the sentinel prefix from a wrapped validation error.
func validationDetail(err error) any {
	detail := strings.TrimPrefix(err.Error(), usecase.ErrValidation.Error())
	detail = strings.TrimPrefix(detail, ": ")
	if detail == "" {
		return nil
	}
	return detail
}
