package entity

import "time"

type Seat struct {
	SeatNo    int       `db:"seat_no"`
	IsBooked  bool      `db:"is_booked"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// NewInventory lays out seats 1..total with the first preBooked seats booked.
func NewInventory(total, preBooked int, now time.Time) []*Seat {
	seats := make([]*Seat, 0, total)
	for no := 1; no <= total; no++ {
		seats = append(seats, &Seat{
			SeatNo:    no,
			IsBooked:  no <= preBooked,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return seats
}
