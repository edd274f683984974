package repository

import (
	"seat-booking/pkg/database"

	"go.uber.org/zap"
)

// Repository groups the two seat inventories. LatestSeat is an independent
// copy of the same contract backed by its own table.
type Repository struct {
	Seat       SeatRepository
	LatestSeat SeatRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Seat:       NewSeatRepository(db, SeatsTable, log),
		LatestSeat: NewSeatRepository(db, LatestSeatsTable, log),
	}
}

func NewMemoryRepository(log *zap.Logger) *Repository {
	return &Repository{
		Seat:       NewMemorySeatRepository(SeatsTable, log),
		LatestSeat: NewMemorySeatRepository(LatestSeatsTable, log),
	}
}
