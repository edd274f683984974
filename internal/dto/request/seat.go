package request

type BookSeatsRequest struct {
	NumSeats int `json:"numSeats" validate:"required,gt=0"`
}

type UnbookSeatsRequest struct {
	SeatNumbers []int `json:"seatNumbers" validate:"required,min=1,dive,gt=0"`
}

type SeatStateRequest struct {
	SeatNo   int   `json:"seatNo" validate:"required,gt=0"`
	IsBooked *bool `json:"isBooked" validate:"required"`
}

// UpdateSeatsRequest replaces the booked flag of every listed seat at once.
type UpdateSeatsRequest struct {
	Seats []SeatStateRequest `json:"seats" validate:"required,min=1,dive"`
}
