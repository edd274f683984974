package wire

import (
	"seat-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireSeat(r chi.Router, seatHandler *adaptor.SeatHandler) {
	r.Route("/api/seats", func(r chi.Router) {
		// POST /api/seats/create - create the venue inventory once
		r.Post("/create", seatHandler.CreateSeats)

		// GET /api/seats/get/all - list every seat by number
		r.Get("/get/all", seatHandler.GetAllSeats)

		// POST /api/seats/book - allocate and book numSeats seats
		r.Post("/book", seatHandler.BookSeats)

		// PATCH /api/seats/unbook - release explicit seat numbers
		r.Patch("/unbook", seatHandler.UnbookSeats)
	})
}
