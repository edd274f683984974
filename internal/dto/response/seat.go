package response

import "seat-booking/internal/data/entity"

type SeatResponse struct {
	SeatNo   int  `json:"seatNo"`
	IsBooked bool `json:"isBooked"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type CreateSeatsResponse struct {
	Message string         `json:"message"`
	Seats   []SeatResponse `json:"seats,omitempty"`
}

type SeatListResponse struct {
	Seats []SeatResponse `json:"seats"`
}

type BookSeatsResponse struct {
	Message     string `json:"message"`
	BookedSeats []int  `json:"bookedSeats"`
}

type UpdateSeatsResponse struct {
	Message string         `json:"message"`
	Changed int64          `json:"changed"`
	Seats   []SeatResponse `json:"seats"`
}

// Helper converters
func SeatToResponse(seat *entity.Seat) SeatResponse {
	return SeatResponse{
		SeatNo:   seat.SeatNo,
		IsBooked: seat.IsBooked,
	}
}

func SeatsToResponse(seats []*entity.Seat) []SeatResponse {
	out := make([]SeatResponse, len(seats))
	for i, seat := range seats {
		out[i] = SeatToResponse(seat)
	}
	return out
}
