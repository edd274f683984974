package adaptor

import (
	"net/http"

	"seat-booking/internal/dto/request"
	"seat-booking/internal/usecase"
	"seat-booking/pkg/utils"

	"go.uber.org/zap"
)

type LatestSeatHandler struct {
	service usecase.SeatService
	log     *zap.Logger
}

func NewLatestSeatHandler(service usecase.SeatService, log *zap.Logger) *LatestSeatHandler {
	return &LatestSeatHandler{
		service: service,
		log:     log.With(zap.String("handler", "latest_seat")),
	}
}

// CreateInitialSeats handles POST /api/latest/create
func (h *LatestSeatHandler) CreateInitialSeats(w http.ResponseWriter, r *http.Request) {
	createSeats(h.log, h.service, w, r)
}

// UpdateLatestSeats handles PATCH /api/latest/update/all
func (h *LatestSeatHandler) UpdateLatestSeats(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateSeatsRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.ResponseBadRequest(w, msgInvalidBody, nil)
		return
	}

	resp, err := h.service.UpdateSeats(r.Context(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "update seats")
		return
	}

	utils.ResponseSuccess(w, resp)
}

// GetLatestSeats handles GET /api/latest/get
func (h *LatestSeatHandler) GetLatestSeats(w http.ResponseWriter, r *http.Request) {
	listSeats(h.log, h.service, w, r)
}
