// Package allocator picks which seats satisfy a booking request.
//
// Every function here is pure: it works on a snapshot of the inventory,
// ordered ascending by seat number, and never mutates it.
package allocator

import (
	"slices"

	"seat-booking/internal/data/entity"
)

const DefaultSeatsPerRow = 7

// Allocate returns count seat numbers to book. A single row with enough free
// seats wins; otherwise the closest run of free seats across rows is used.
func Allocate(seats []*entity.Seat, count, seatsPerRow int) ([]int, bool) {
	if count <= 0 {
		return nil, false
	}
	if picked := FindInRow(seats, count, seatsPerRow); picked != nil {
		return picked, true
	}
	if picked := FindClosestRun(seats, count); picked != nil {
		return picked, true
	}
	return nil, false
}

// FindInRow scans rows in ascending order and returns the first count free
// seats of the first row that has at least count of them.
func FindInRow(seats []*entity.Seat, count, seatsPerRow int) []int {
	if count <= 0 || seatsPerRow <= 0 {
		return nil
	}
	for row := range slices.Chunk(seats, seatsPerRow) {
		free := freeSeatNumbers(row)
		if len(free) >= count {
			return free[:count]
		}
	}
	return nil
}

// FindClosestRun slides a window of count consecutive entries over the sorted
// free seat numbers and returns the window with the smallest spread between
// its first and last number. Ties keep the earliest window.
func FindClosestRun(seats []*entity.Seat, count int) []int {
	if count <= 0 {
		return nil
	}
	free := freeSeatNumbers(seats)
	if len(free) < count {
		return nil
	}

	best, minDiff := 0, -1
	for start, end := 0, count-1; end < len(free); start, end = start+1, end+1 {
		diff := free[end] - free[start]
		if diff < 0 {
			diff = -diff
		}
		if minDiff < 0 || diff < minDiff {
			best, minDiff = start, diff
		}
	}
	return slices.Clone(free[best : best+count])
}

func freeSeatNumbers(seats []*entity.Seat) []int {
	free := make([]int, 0, len(seats))
	for _, seat := range seats {
		if !seat.IsBooked {
			free = append(free, seat.SeatNo)
		}
	}
	return free
}
