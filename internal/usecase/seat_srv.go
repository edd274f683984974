package usecase

import (
	"context"
	"errors"
	"fmt"

	"seat-booking/internal/allocator"
	"seat-booking/internal/clock"
	"seat-booking/internal/data/cache"
	"seat-booking/internal/data/entity"
	"seat-booking/internal/data/repository"
	"seat-booking/internal/dto/request"
	"seat-booking/internal/dto/response"
	"seat-booking/internal/event"
	"seat-booking/pkg/utils"

	"go.uber.org/zap"
)

type SeatService interface {
	CreateSeats(ctx context.Context) (*response.CreateSeatsResponse, bool, error)
	GetAllSeats(ctx context.Context) (*response.SeatListResponse, error)
	BookSeats(ctx context.Context, req *request.BookSeatsRequest) (*response.BookSeatsResponse, error)
	UnbookSeats(ctx context.Context, req *request.UnbookSeatsRequest) (*response.MessageResponse, error)
	UpdateSeats(ctx context.Context, req *request.UpdateSeatsRequest) (*response.UpdateSeatsResponse, error)
}

type seatService struct {
	resource string
	repo     repository.SeatRepository
	cache    cache.SeatCache
	events   event.Publisher
	clock    clock.Clock
	layout   utils.SeatsConfig
	log      *zap.Logger
}

type SeatServiceOption func(*seatService)

// WithClock overrides the system clock.
func WithClock(clk clock.Clock) SeatServiceOption {
	return func(s *seatService) {
		s.clock = clk
	}
}

// NewSeatService serves one seat inventory. resource names the inventory in
// cache keys, events and logs.
func NewSeatService(
	resource string,
	repo repository.SeatRepository,
	seatCache cache.SeatCache,
	events event.Publisher,
	layout utils.SeatsConfig,
	log *zap.Logger,
	opts ...SeatServiceOption,
) SeatService {
	svc := &seatService{
		resource: resource,
		repo:     repo,
		cache:    seatCache,
		events:   events,
		clock:    clock.NewSystem(),
		layout:   layout,
		log:      log.With(zap.String("service", resource)),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *seatService) CreateSeats(ctx context.Context) (*response.CreateSeatsResponse, bool, error) {
	var created []*entity.Seat

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.CountAll(txCtx)
		if err != nil {
			return fmt.Errorf("count seats: %w", err)
		}
		if existing > 0 {
			return nil
		}

		inventory := entity.NewInventory(s.layout.Total, s.layout.PreBooked, s.clock.Now())
		inserted, err := s.repo.CreateBatch(txCtx, inventory)
		if err != nil {
			return fmt.Errorf("create seats: %w", err)
		}
		// A concurrent initializer won the race.
		if inserted == 0 {
			return nil
		}

		created = inventory
		return nil
	})
	if err != nil {
		s.log.Error("Failed to create seats", zap.Error(err))
		return nil, false, err
	}

	if created == nil {
		s.log.Info("Seats already exist")
		return &response.CreateSeatsResponse{Message: "Seats already exist"}, false, nil
	}

	s.afterCommit(ctx, event.ActionCreated, seatNumbers(created))

	s.log.Info("Seats created",
		zap.Int("total", len(created)),
		zap.Int("pre_booked", s.layout.PreBooked),
	)

	return &response.CreateSeatsResponse{
		Message: "Seats created successfully",
		Seats:   response.SeatsToResponse(created),
	}, true, nil
}

func (s *seatService) GetAllSeats(ctx context.Context) (*response.SeatListResponse, error) {
	seats, ok, err := s.cache.Get(ctx, s.resource)
	if err != nil {
		s.log.Warn("Seat cache read failed", zap.Error(err))
	}
	if ok {
		return &response.SeatListResponse{Seats: response.SeatsToResponse(seats)}, nil
	}

	// The cache is filled while the inventory is locked. A writer can only
	// commit, and then invalidate, after this snapshot is stored.
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		seats, err = s.repo.FindAll(txCtx)
		if err != nil {
			return err
		}

		if err := s.cache.Set(txCtx, s.resource, seats); err != nil {
			s.log.Warn("Seat cache write failed", zap.Error(err))
		}
		return nil
	})
	if err != nil {
		s.log.Error("Failed to get seats", zap.Error(err))
		return nil, fmt.Errorf("get seats: %w", err)
	}

	return &response.SeatListResponse{Seats: response.SeatsToResponse(seats)}, nil
}

func (s *seatService) BookSeats(ctx context.Context, req *request.BookSeatsRequest) (*response.BookSeatsResponse, error) {
	if req == nil {
		return nil, ErrSeatCountRequired
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Book seats validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrSeatCountRequired, utils.FormatValidationErrors(errs))
	}

	var booked []int
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		seats, err := s.repo.FindAll(txCtx)
		if err != nil {
			return fmt.Errorf("load seats: %w", err)
		}

		picked, ok := allocator.Allocate(seats, req.NumSeats, s.layout.PerRow)
		if !ok {
			return ErrSeatsNotAvailable
		}

		changed, err := s.repo.UpdateBookedFlags(txCtx, picked, true)
		if err != nil {
			return fmt.Errorf("mark seats booked: %w", err)
		}
		if changed != int64(len(picked)) {
			return ErrSeatConflict
		}

		booked = picked
		return nil
	})
	if err != nil {
		s.logFailure("Failed to book seats", err, zap.Int("num_seats", req.NumSeats))
		return nil, err
	}

	s.afterCommit(ctx, event.ActionBooked, booked)

	s.log.Info("Seats booked",
		zap.Int("num_seats", req.NumSeats),
		zap.Ints("seat_numbers", booked),
	)

	return &response.BookSeatsResponse{
		Message:     "Seats booked successfully",
		BookedSeats: booked,
	}, nil
}

func (s *seatService) UnbookSeats(ctx context.Context, req *request.UnbookSeatsRequest) (*response.MessageResponse, error) {
	if req == nil || req.SeatNumbers == nil {
		return nil, ErrSeatNumbersRequired
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Unbook seats validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		seats, err := s.repo.FindByNumbers(txCtx, req.SeatNumbers)
		if err != nil {
			return fmt.Errorf("find seats: %w", err)
		}

		// Every requested entry must match a distinct, currently booked seat.
		booked := 0
		for _, seat := range seats {
			if seat.IsBooked {
				booked++
			}
		}
		if booked != len(req.SeatNumbers) {
			return ErrInvalidSeatNumbers
		}

		changed, err := s.repo.UpdateBookedFlags(txCtx, req.SeatNumbers, false)
		if err != nil {
			return fmt.Errorf("mark seats unbooked: %w", err)
		}
		if changed != int64(booked) {
			return ErrSeatConflict
		}
		return nil
	})
	if err != nil {
		s.logFailure("Failed to unbook seats", err, zap.Ints("seat_numbers", req.SeatNumbers))
		return nil, err
	}

	s.afterCommit(ctx, event.ActionUnbooked, req.SeatNumbers)

	s.log.Info("Seats unbooked", zap.Ints("seat_numbers", req.SeatNumbers))

	return &response.MessageResponse{Message: "Seats successfully unbooked"}, nil
}

func (s *seatService) UpdateSeats(ctx context.Context, req *request.UpdateSeatsRequest) (*response.UpdateSeatsResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: seats: This field is required", ErrValidation)
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Update seats validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	numbers := make([]int, 0, len(req.Seats))
	var toBook, toUnbook []int
	seen := make(map[int]struct{}, len(req.Seats))
	for _, item := range req.Seats {
		if _, dup := seen[item.SeatNo]; dup {
			return nil, ErrUnknownSeatNumbers
		}
		seen[item.SeatNo] = struct{}{}
		numbers = append(numbers, item.SeatNo)
		if *item.IsBooked {
			toBook = append(toBook, item.SeatNo)
		} else {
			toUnbook = append(toUnbook, item.SeatNo)
		}
	}

	var (
		changed int64
		seats   []*entity.Seat
	)
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByNumbers(txCtx, numbers)
		if err != nil {
			return fmt.Errorf("find seats: %w", err)
		}
		if len(found) != len(numbers) {
			return ErrUnknownSeatNumbers
		}

		booked, err := s.repo.UpdateBookedFlags(txCtx, toBook, true)
		if err != nil {
			return fmt.Errorf("mark seats booked: %w", err)
		}
		unbooked, err := s.repo.UpdateBookedFlags(txCtx, toUnbook, false)
		if err != nil {
			return fmt.Errorf("mark seats unbooked: %w", err)
		}
		changed = booked + unbooked

		seats, err = s.repo.FindAll(txCtx)
		if err != nil {
			return fmt.Errorf("load seats: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logFailure("Failed to update seats", err, zap.Int("seat_count", len(numbers)))
		return nil, err
	}

	s.afterCommit(ctx, event.ActionUpdated, numbers)

	s.log.Info("Seats updated",
		zap.Int("seat_count", len(numbers)),
		zap.Int64("changed", changed),
	)

	return &response.UpdateSeatsResponse{
		Message: "Seats updated successfully",
		Changed: changed,
		Seats:   response.SeatsToResponse(seats),
	}, nil
}

// afterCommit drops the cached listing and announces the change. Neither
// step can fail the request.
func (s *seatService) afterCommit(ctx context.Context, action event.Action, numbers []int) {
	if err := s.cache.Invalidate(ctx, s.resource); err != nil {
		s.log.Warn("Seat cache invalidation failed", zap.Error(err))
	}

	evt := event.SeatEvent{
		ID:          utils.GenerateUUIDString(),
		Resource:    s.resource,
		Action:      action,
		SeatNumbers: numbers,
		OccurredAt:  s.clock.Now(),
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		s.log.Warn("Seat event publish failed",
			zap.Error(err),
			zap.String("action", string(action)),
		)
	}
}

// logFailure logs client-side outcomes at Warn and store failures at Error.
func (s *seatService) logFailure(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if isClientError(err) {
		s.log.Warn(msg, fields...)
		return
	}
	s.log.Error(msg, fields...)
}

func isClientError(err error) bool {
	for _, target := range []error{
		ErrValidation,
		ErrSeatCountRequired,
		ErrSeatsNotAvailable,
		ErrSeatNumbersRequired,
		ErrInvalidSeatNumbers,
		ErrUnknownSeatNumbers,
		ErrSeatConflict,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func seatNumbers(seats []*entity.Seat) []int {
	out := make([]int, len(seats))
	for i, seat := range seats {
		out[i] = seat.SeatNo
	}
	return out
}
