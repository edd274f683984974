package usecase

import (
	"seat-booking/internal/data/cache"
	"seat-booking/internal/data/repository"
	"seat-booking/internal/event"
	"seat-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Seat       SeatService
	LatestSeat SeatService
}

func NewService(
	repo *repository.Repository,
	seatCache cache.SeatCache,
	events event.Publisher,
	config *utils.Config,
	log *zap.Logger,
	opts ...SeatServiceOption,
) *Service {
	return &Service{
		Seat:       NewSeatService(repository.SeatsTable, repo.Seat, seatCache, events, config.Seats, log, opts...),
		LatestSeat: NewSeatService(repository.LatestSeatsTable, repo.LatestSeat, seatCache, events, config.Seats, log, opts...),
	}
}
