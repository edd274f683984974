package wire

import (
	"seat-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireLatestSeat(r chi.Router, latestHandler *adaptor.LatestSeatHandler) {
	r.Route("/api/latest", func(r chi.Router) {
		r.Post("/create", latestHandler.CreateInitialSeats)
		r.Patch("/update/all", latestHandler.UpdateLatestSeats)
		r.Get("/get", latestHandler.GetLatestSeats)
	})
}
