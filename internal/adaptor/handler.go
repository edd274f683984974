package adaptor

import (
	"seat-booking/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Seat       *SeatHandler
	LatestSeat *LatestSeatHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Seat:       NewSeatHandler(service.Seat, log),
		LatestSeat: NewLatestSeatHandler(service.LatestSeat, log),
	}
}
