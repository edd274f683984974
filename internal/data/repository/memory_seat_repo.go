package repository

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"seat-booking/internal/data/entity"

	"go.uber.org/zap"
)

// memorySeatRepository keeps seats in process memory. A transaction holds the
// store mutex for its whole duration and restores a snapshot when fn fails or
// panics.
type memorySeatRepository struct {
	mu    sync.Mutex
	seats map[int]entity.Seat
	log   *zap.Logger
}

type memoryTxKey struct {
	repo *memorySeatRepository
}

func NewMemorySeatRepository(name string, log *zap.Logger) SeatRepository {
	return &memorySeatRepository{
		seats: make(map[int]entity.Seat),
		log:   log.With(zap.String("repository", name), zap.String("driver", "memory")),
	}
}

func (r *memorySeatRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.inTx(ctx) {
		return fn(ctx)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := maps.Clone(r.seats)
	committed := false
	defer func() {
		if !committed {
			r.seats = snapshot
		}
	}()

	if err := fn(context.WithValue(ctx, memoryTxKey{repo: r}, true)); err != nil {
		return err
	}
	committed = true
	return nil
}

func (r *memorySeatRepository) CountAll(ctx context.Context) (int64, error) {
	defer r.lock(ctx)()
	return int64(len(r.seats)), nil
}

func (r *memorySeatRepository) CreateBatch(ctx context.Context, seats []*entity.Seat) (int64, error) {
	defer r.lock(ctx)()

	var inserted int64
	for _, seat := range seats {
		if _, exists := r.seats[seat.SeatNo]; exists {
			continue
		}
		r.seats[seat.SeatNo] = *seat
		inserted++
	}
	return inserted, nil
}

func (r *memorySeatRepository) FindAll(ctx context.Context) ([]*entity.Seat, error) {
	defer r.lock(ctx)()

	seats := make([]*entity.Seat, 0, len(r.seats))
	for _, no := range slices.Sorted(maps.Keys(r.seats)) {
		seat := r.seats[no]
		seats = append(seats, &seat)
	}
	return seats, nil
}

func (r *memorySeatRepository) FindByNumbers(ctx context.Context, seatNumbers []int) ([]*entity.Seat, error) {
	defer r.lock(ctx)()

	wanted := slices.Clone(seatNumbers)
	slices.Sort(wanted)
	wanted = slices.Compact(wanted)

	seats := []*entity.Seat{}
	for _, no := range wanted {
		if seat, ok := r.seats[no]; ok {
			seats = append(seats, &seat)
		}
	}
	return seats, nil
}

func (r *memorySeatRepository) UpdateBookedFlags(ctx context.Context, seatNumbers []int, isBooked bool) (int64, error) {
	defer r.lock(ctx)()

	now := time.Now()
	var changed int64
	for _, no := range seatNumbers {
		seat, ok := r.seats[no]
		if !ok || seat.IsBooked == isBooked {
			continue
		}
		seat.IsBooked = isBooked
		seat.UpdatedAt = now
		r.seats[no] = seat
		changed++
	}

	r.log.Debug("Booked flags updated",
		zap.Ints("seat_numbers", seatNumbers),
		zap.Bool("is_booked", isBooked),
		zap.Int64("changed", changed),
	)
	return changed, nil
}

func (r *memorySeatRepository) inTx(ctx context.Context) bool {
	return ctx.Value(memoryTxKey{repo: r}) != nil
}

// lock takes the mutex unless ctx already belongs to a running transaction.
func (r *memorySeatRepository) lock(ctx context.Context) func() {
	if r.inTx(ctx) {
		return func() {}
	}
	r.mu.Lock()
	return r.mu.Unlock
}
