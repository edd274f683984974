package adaptor

import (
	"net/http"

	"seat-booking/internal/dto/request"
	"seat-booking/internal/usecase"
	"seat-booking/pkg/utils"

	"go.uber.org/zap"
)

type SeatHandler struct {
	service usecase.SeatService
	log     *zap.Logger
}

func NewSeatHandler(service usecase.SeatService, log *zap.Logger) *SeatHandler {
	return &SeatHandler{
		service: service,
		log:     log.With(zap.String("handler", "seat")),
	}
}

// CreateSeats handles POST /api/seats/create
func (h *SeatHandler) CreateSeats(w http.ResponseWriter, r *http.Request) {
	createSeats(h.log, h.service, w, r)
}

// GetAllSeats handles GET /api/seats/get/all
func (h *SeatHandler) GetAllSeats(w http.ResponseWriter, r *http.Request) {
	listSeats(h.log, h.service, w, r)
}

// BookSeats handles POST /api/seats/book
func (h *SeatHandler) BookSeats(w http.ResponseWriter, r *http.Request) {
	var req request.BookSeatsRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.ResponseBadRequest(w, msgInvalidBody, nil)
		return
	}

	resp, err := h.service.BookSeats(r.Context(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "book seats")
		return
	}

	utils.ResponseSuccess(w, resp)
}

// UnbookSeats handles PATCH /api/seats/unbook
func (h *SeatHandler) UnbookSeats(w http.ResponseWriter, r *http.Request) {
	var req request.UnbookSeatsRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.ResponseBadRequest(w, msgInvalidBody, nil)
		return
	}

	resp, err := h.service.UnbookSeats(r.Context(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "unbook seats")
		return
	}

	utils.ResponseSuccess(w, resp)
}

// createSeats and listSeats are shared by both seat resources.
func createSeats(log *zap.Logger, service usecase.SeatService, w http.ResponseWriter, r *http.Request) {
	resp, created, err := service.CreateSeats(r.Context())
	if err != nil {
		handleServiceError(log, w, err, "create seats")
		return
	}

	if created {
		utils.ResponseCreated(w, resp)
		return
	}
	utils.ResponseSuccess(w, resp)
}

func listSeats(log *zap.Logger, service usecase.SeatService, w http.ResponseWriter, r *http.Request) {
	resp, err := service.GetAllSeats(r.Context())
	if err != nil {
		handleServiceError(log, w, err, "get seats")
		return
	}

	utils.ResponseSuccess(w, resp)
}
