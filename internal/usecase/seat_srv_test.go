package usecase

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"seat-booking/internal/clock"
	"seat-booking/internal/data/entity"
	"seat-booking/internal/data/repository"
	"seat-booking/internal/dto/request"
	"seat-booking/internal/event"
	"seat-booking/pkg/utils"

	"go.uber.org/zap"
)

var testLayout = utils.SeatsConfig{Total: 80, PerRow: 7, PreBooked: 7}

type fakeCache struct {
	mu          sync.Mutex
	entries     map[string][]*entity.Seat
	invalidated []string
	getErr      error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]*entity.Seat)}
}

func (c *fakeCache) Get(_ context.Context, resource string) ([]*entity.Seat, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	seats, ok := c.entries[resource]
	return seats, ok, nil
}

func (c *fakeCache) Set(_ context.Context, resource string, seats []*entity.Seat) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[resource] = seats
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, resource string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, resource)
	c.invalidated = append(c.invalidated, resource)
	return nil
}

// interleavingCache runs onSet before storing a listing so a writer can race
// the fill.
type interleavingCache struct {
	*fakeCache
	onSet func()
}

func (c *interleavingCache) Set(ctx context.Context, resource string, seats []*entity.Seat) error {
	if c.onSet != nil {
		c.onSet()
	}
	return c.fakeCache.Set(ctx, resource, seats)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []event.SeatEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, evt event.SeatEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) actions() []event.Action {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]event.Action, len(p.events))
	for i, evt := range p.events {
		out[i] = evt.Action
	}
	return out
}

// failingRepo fails every write after delegating reads.
type failingRepo struct {
	repository.SeatRepository
	err error
}

func (r failingRepo) UpdateBookedFlags(context.Context, []int, bool) (int64, error) {
	return 0, r.err
}

// racingRepo reports fewer changed rows than requested, as if another
// writer got there first.
type racingRepo struct {
	repository.SeatRepository
}

func (r racingRepo) UpdateBookedFlags(ctx context.Context, nums []int, isBooked bool) (int64, error) {
	changed, err := r.SeatRepository.UpdateBookedFlags(ctx, nums, isBooked)
	return changed - 1, err
}

type fixture struct {
	svc    SeatService
	repo   repository.SeatRepository
	cache  *fakeCache
	events *fakePublisher
}

func newFixture(t *testing.T, seeded bool) fixture {
	t.Helper()

	repo := repository.NewMemorySeatRepository(repository.SeatsTable, zap.NewNop())
	return newFixtureWithRepo(t, repo, seeded)
}

func newFixtureWithRepo(t *testing.T, repo repository.SeatRepository, seeded bool) fixture {
	t.Helper()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cache := newFakeCache()
	events := &fakePublisher{}
	svc := NewSeatService(repository.SeatsTable, repo, cache, events, testLayout, zap.NewNop(), WithClock(clock.NewFixed(now)))

	if seeded {
		if _, created, err := svc.CreateSeats(context.Background()); err != nil || !created {
			t.Fatalf("seed seats: created=%v err=%v", created, err)
		}
		events.events = nil
		cache.invalidated = nil
	}
	return fixture{svc: svc, repo: repo, cache: cache, events: events}
}

func bookedNumbers(t *testing.T, repo repository.SeatRepository) []int {
	t.Helper()

	seats, err := repo.FindAll(context.Background())
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	var out []int
	for _, seat := range seats {
		if seat.IsBooked {
			out = append(out, seat.SeatNo)
		}
	}
	return out
}

func boolPtr(b bool) *bool { return &b }

func TestSeatService_CreateSeats(t *testing.T) {
	t.Parallel()

	t.Run("creates venue with first row booked", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, false)

		resp, created, err := f.svc.CreateSeats(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !created {
			t.Fatalf("expected created=true")
		}
		if resp.Message != "Seats created successfully" {
			t.Fatalf("unexpected message %q", resp.Message)
		}
		if len(resp.Seats) != 80 {
			t.Fatalf("expected 80 seats, got %d", len(resp.Seats))
		}
		if got := bookedNumbers(t, f.repo); !slices.Equal(got, []int{1, 2, 3, 4, 5, 6, 7}) {
			t.Fatalf("expected seats 1-7 booked, got %v", got)
		}
		if got := f.events.actions(); !slices.Equal(got, []event.Action{event.ActionCreated}) {
			t.Fatalf("expected created event, got %v", got)
		}
		if len(f.events.events[0].SeatNumbers) != 80 {
			t.Fatalf("expected event to list 80 seats, got %d", len(f.events.events[0].SeatNumbers))
		}
	})

	t.Run("second call reports existing seats", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, true)

		resp, created, err := f.svc.CreateSeats(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if created {
			t.Fatalf("expected created=false")
		}
		if resp.Message != "Seats already exist" {
			t.Fatalf("unexpected message %q", resp.Message)
		}
		if len(f.events.events) != 0 {
			t.Fatalf("expected no events, got %d", len(f.events.events))
		}
		count, _ := f.repo.CountAll(context.Background())
		if count != 80 {
			t.Fatalf("expected 80 seats after second create, got %d", count)
		}
	})

	t.Run("concurrent initializers create once", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, false)

		var wg sync.WaitGroup
		results := make(chan bool, 8)
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, created, err := f.svc.CreateSeats(context.Background())
				if err != nil {
					t.Errorf("create seats: %v", err)
				}
				results <- created
			}()
		}
		wg.Wait()
		close(results)

		createdCount := 0
		for created := range results {
			if created {
				createdCount++
			}
		}
		if createdCount != 1 {
			t.Fatalf("expected exactly one creator, got %d", createdCount)
		}
	})
}

func TestSeatService_BookSeats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		req      *request.BookSeatsRequest
		wantErr  error
		wantSeat []int
	}{
		{name: "five seats in second row", req: &request.BookSeatsRequest{NumSeats: 5}, wantSeat: []int{8, 9, 10, 11, 12}},
		{name: "whole row", req: &request.BookSeatsRequest{NumSeats: 7}, wantSeat: []int{8, 9, 10, 11, 12, 13, 14}},
		{name: "zero seats", req: &request.BookSeatsRequest{NumSeats: 0}, wantErr: ErrSeatCountRequired},
		{name: "negative seats", req: &request.BookSeatsRequest{NumSeats: -2}, wantErr: ErrSeatCountRequired},
		{name: "nil request", req: nil, wantErr: ErrSeatCountRequired},
		{name: "more than available", req: &request.BookSeatsRequest{NumSeats: 74}, wantErr: ErrSeatsNotAvailable},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, true)

			resp, err := f.svc.BookSeats(context.Background(), tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if len(f.events.events) != 0 {
					t.Fatalf("expected no events on failure")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.Message != "Seats booked successfully" {
				t.Fatalf("unexpected message %q", resp.Message)
			}
			if !slices.Equal(resp.BookedSeats, tt.wantSeat) {
				t.Fatalf("expected %v, got %v", tt.wantSeat, resp.BookedSeats)
			}
			booked := bookedNumbers(t, f.repo)
			for _, no := range tt.wantSeat {
				if !slices.Contains(booked, no) {
					t.Fatalf("seat %d not persisted as booked", no)
				}
			}
			if !slices.Equal(f.cache.invalidated, []string{repository.SeatsTable}) {
				t.Fatalf("expected cache invalidation, got %v", f.cache.invalidated)
			}
		})
	}
}

func TestSeatService_BookSeats_ExhaustsVenue(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	ctx := context.Background()

	if _, err := f.svc.BookSeats(ctx, &request.BookSeatsRequest{NumSeats: 73}); err != nil {
		t.Fatalf("book remaining seats: %v", err)
	}
	if got := len(bookedNumbers(t, f.repo)); got != 80 {
		t.Fatalf("expected full venue, got %d booked", got)
	}
	if _, err := f.svc.BookSeats(ctx, &request.BookSeatsRequest{NumSeats: 1}); !errors.Is(err, ErrSeatsNotAvailable) {
		t.Fatalf("expected ErrSeatsNotAvailable, got %v", err)
	}
}

func TestSeatService_BookSeats_ConcurrentNeverOverlap(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		all []int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := f.svc.BookSeats(context.Background(), &request.BookSeatsRequest{NumSeats: 3})
			if err != nil {
				if !errors.Is(err, ErrSeatsNotAvailable) {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			mu.Lock()
			all = append(all, resp.BookedSeats...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	slices.Sort(all)
	if len(slices.Compact(slices.Clone(all))) != len(all) {
		t.Fatalf("seat handed out twice: %v", all)
	}
	if len(all) != 60 {
		t.Fatalf("expected 60 seats booked, got %d", len(all))
	}
}

func TestSeatService_BookSeats_Conflict(t *testing.T) {
	t.Parallel()
	base := repository.NewMemorySeatRepository(repository.SeatsTable, zap.NewNop())
	f := newFixtureWithRepo(t, racingRepo{SeatRepository: base}, true)

	_, err := f.svc.BookSeats(context.Background(), &request.BookSeatsRequest{NumSeats: 2})
	if !errors.Is(err, ErrSeatConflict) {
		t.Fatalf("expected ErrSeatConflict, got %v", err)
	}
	if got := bookedNumbers(t, base); len(got) != 7 {
		t.Fatalf("expected rollback to 7 booked seats, got %v", got)
	}
}

func TestSeatService_BookSeats_StoreFailure(t *testing.T) {
	t.Parallel()
	storeErr := errors.New("connection reset")
	base := repository.NewMemorySeatRepository(repository.SeatsTable, zap.NewNop())
	f := newFixture(t, false)
	if _, err := base.CreateBatch(context.Background(), entity.NewInventory(80, 7, time.Now())); err != nil {
		t.Fatalf("seed: %v", err)
	}
	f.svc = NewSeatService(repository.SeatsTable, failingRepo{SeatRepository: base, err: storeErr}, f.cache, f.events, testLayout, zap.NewNop())

	_, err := f.svc.BookSeats(context.Background(), &request.BookSeatsRequest{NumSeats: 2})
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if isClientError(err) {
		t.Fatalf("store failure must not classify as client error")
	}
}

func TestSeatService_UnbookSeats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		seats      []int
		wantErr    error
		wantBooked []int
	}{
		{name: "frees booked seats", seats: []int{3, 5}, wantBooked: []int{1, 2, 4, 6, 7}},
		{name: "nil list", seats: nil, wantErr: ErrSeatNumbersRequired},
		{name: "empty list", seats: []int{}, wantErr: ErrValidation},
		{name: "zero seat number", seats: []int{0, 3}, wantErr: ErrValidation},
		{name: "negative seat number", seats: []int{-1}, wantErr: ErrValidation},
		{name: "unknown seat rejects all", seats: []int{3, 99}, wantErr: ErrInvalidSeatNumbers},
		{name: "already free seat rejects all", seats: []int{3, 20}, wantErr: ErrInvalidSeatNumbers},
		{name: "duplicate entries reject", seats: []int{3, 3}, wantErr: ErrInvalidSeatNumbers},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, true)

			resp, err := f.svc.UnbookSeats(context.Background(), &request.UnbookSeatsRequest{SeatNumbers: tt.seats})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if got := bookedNumbers(t, f.repo); len(got) != 7 {
					t.Fatalf("expected inventory untouched, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.Message != "Seats successfully unbooked" {
				t.Fatalf("unexpected message %q", resp.Message)
			}
			if got := bookedNumbers(t, f.repo); !slices.Equal(got, tt.wantBooked) {
				t.Fatalf("expected booked %v, got %v", tt.wantBooked, got)
			}
			if got := f.events.actions(); !slices.Equal(got, []event.Action{event.ActionUnbooked}) {
				t.Fatalf("expected unbooked event, got %v", got)
			}
		})
	}
}

func TestSeatService_UnbookThenRebook(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	ctx := context.Background()

	first, err := f.svc.BookSeats(ctx, &request.BookSeatsRequest{NumSeats: 4})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := f.svc.UnbookSeats(ctx, &request.UnbookSeatsRequest{SeatNumbers: first.BookedSeats}); err != nil {
		t.Fatalf("unbook: %v", err)
	}
	second, err := f.svc.BookSeats(ctx, &request.BookSeatsRequest{NumSeats: 4})
	if err != nil {
		t.Fatalf("rebook: %v", err)
	}
	if !slices.Equal(first.BookedSeats, second.BookedSeats) {
		t.Fatalf("expected %v again, got %v", first.BookedSeats, second.BookedSeats)
	}
}

func TestSeatService_EventsCarryDistinctIDs(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	ctx := context.Background()

	for range 2 {
		if _, err := f.svc.BookSeats(ctx, &request.BookSeatsRequest{NumSeats: 1}); err != nil {
			t.Fatalf("book: %v", err)
		}
	}

	if len(f.events.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(f.events.events))
	}
	first, second := f.events.events[0].ID, f.events.events[1].ID
	if first == "" || first == second {
		t.Fatalf("expected distinct event ids, got %q and %q", first, second)
	}
}

func TestSeatService_GetAllSeats(t *testing.T) {
	t.Parallel()

	t.Run("fills cache on miss and serves from it after", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, true)
		ctx := context.Background()

		resp, err := f.svc.GetAllSeats(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(resp.Seats) != 80 {
			t.Fatalf("expected 80 seats, got %d", len(resp.Seats))
		}
		for i, seat := range resp.Seats {
			if seat.SeatNo != i+1 {
				t.Fatalf("expected ascending order, seat %d at index %d", seat.SeatNo, i)
			}
		}
		if _, ok := f.cache.entries[repository.SeatsTable]; !ok {
			t.Fatalf("expected listing to be cached")
		}

		f.cache.entries[repository.SeatsTable] = []*entity.Seat{{SeatNo: 1, IsBooked: true}}
		cached, err := f.svc.GetAllSeats(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(cached.Seats) != 1 {
			t.Fatalf("expected cached listing, got %d seats", len(cached.Seats))
		}
	})

	t.Run("booking drops cached listing", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, true)
		ctx := context.Background()

		if _, err := f.svc.GetAllSeats(ctx); err != nil {
			t.Fatalf("list: %v", err)
		}
		if _, err := f.svc.BookSeats(ctx, &request.BookSeatsRequest{NumSeats: 1}); err != nil {
			t.Fatalf("book: %v", err)
		}
		resp, err := f.svc.GetAllSeats(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if !resp.Seats[7].IsBooked {
			t.Fatalf("expected seat 8 booked in fresh listing")
		}
	})

	t.Run("booking racing the cache fill is not hidden", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, true)
		ctx := context.Background()

		racing := &interleavingCache{fakeCache: newFakeCache()}
		svc := NewSeatService(repository.SeatsTable, f.repo, racing, f.events, testLayout, zap.NewNop())

		booked := make(chan error, 1)
		var once sync.Once
		racing.onSet = func() {
			once.Do(func() {
				go func() {
					_, err := svc.BookSeats(ctx, &request.BookSeatsRequest{NumSeats: 5})
					booked <- err
				}()
				// Let the booking commit first if the store allows it.
				select {
				case err := <-booked:
					booked <- err
				case <-time.After(50 * time.Millisecond):
				}
			})
		}

		if _, err := svc.GetAllSeats(ctx); err != nil {
			t.Fatalf("list: %v", err)
		}
		if err := <-booked; err != nil {
			t.Fatalf("book: %v", err)
		}

		resp, err := svc.GetAllSeats(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if !resp.Seats[7].IsBooked {
			t.Fatalf("expected seat 8 booked once the booking committed, listing was stale")
		}
	})

	t.Run("cache errors fall back to store", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, true)
		f.cache.getErr = errors.New("redis down")

		resp, err := f.svc.GetAllSeats(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(resp.Seats) != 80 {
			t.Fatalf("expected 80 seats, got %d", len(resp.Seats))
		}
	})

	t.Run("empty store lists nothing", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, false)

		resp, err := f.svc.GetAllSeats(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(resp.Seats) != 0 {
			t.Fatalf("expected empty listing, got %d", len(resp.Seats))
		}
	})
}

func TestSeatService_PublishFailureDoesNotFailRequest(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	f.events.err = errors.New("broker gone")

	if _, err := f.svc.BookSeats(context.Background(), &request.BookSeatsRequest{NumSeats: 2}); err != nil {
		t.Fatalf("expected booking to succeed, got %v", err)
	}
}

func TestSeatService_UpdateSeats(t *testing.T) {
	t.Parallel()

	t.Run("applies every listed state", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, true)

		resp, err := f.svc.UpdateSeats(context.Background(), &request.UpdateSeatsRequest{Seats: []request.SeatStateRequest{
			{SeatNo: 1, IsBooked: boolPtr(false)},
			{SeatNo: 2, IsBooked: boolPtr(true)},
			{SeatNo: 40, IsBooked: boolPtr(true)},
		}})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.Message != "Seats updated successfully" {
			t.Fatalf("unexpected message %q", resp.Message)
		}
		if resp.Changed != 2 {
			t.Fatalf("expected 2 changed seats, got %d", resp.Changed)
		}
		if len(resp.Seats) != 80 {
			t.Fatalf("expected full listing, got %d", len(resp.Seats))
		}
		want := []int{2, 3, 4, 5, 6, 7, 40}
		if got := bookedNumbers(t, f.repo); !slices.Equal(got, want) {
			t.Fatalf("expected booked %v, got %v", want, got)
		}
		if got := f.events.actions(); !slices.Equal(got, []event.Action{event.ActionUpdated}) {
			t.Fatalf("expected updated event, got %v", got)
		}
	})

	t.Run("unknown seat rejects batch", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, true)

		_, err := f.svc.UpdateSeats(context.Background(), &request.UpdateSeatsRequest{Seats: []request.SeatStateRequest{
			{SeatNo: 1, IsBooked: boolPtr(false)},
			{SeatNo: 81, IsBooked: boolPtr(true)},
		}})
		if !errors.Is(err, ErrUnknownSeatNumbers) {
			t.Fatalf("expected ErrUnknownSeatNumbers, got %v", err)
		}
		if got := bookedNumbers(t, f.repo); len(got) != 7 {
			t.Fatalf("expected inventory untouched, got %v", got)
		}
	})

	t.Run("duplicate seat rejects batch", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, true)

		_, err := f.svc.UpdateSeats(context.Background(), &request.UpdateSeatsRequest{Seats: []request.SeatStateRequest{
			{SeatNo: 9, IsBooked: boolPtr(true)},
			{SeatNo: 9, IsBooked: boolPtr(false)},
		}})
		if !errors.Is(err, ErrUnknownSeatNumbers) {
			t.Fatalf("expected ErrUnknownSeatNumbers, got %v", err)
		}
	})

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, true)

		cases := []*request.UpdateSeatsRequest{
			nil,
			{},
			{Seats: []request.SeatStateRequest{{SeatNo: 0, IsBooked: boolPtr(true)}}},
			{Seats: []request.SeatStateRequest{{SeatNo: 4}}},
		}
		for _, req := range cases {
			if _, err := f.svc.UpdateSeats(context.Background(), req); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation for %+v, got %v", req, err)
			}
		}
	})
}

func TestNewService_SeparatesInventories(t *testing.T) {
	t.Parallel()

	repo := repository.NewMemoryRepository(zap.NewNop())
	config := &utils.Config{Seats: testLayout}
	svc := NewService(repo, newFakeCache(), &fakePublisher{}, config, zap.NewNop())
	ctx := context.Background()

	if _, _, err := svc.Seat.CreateSeats(ctx); err != nil {
		t.Fatalf("create seats: %v", err)
	}
	latest, err := svc.LatestSeat.GetAllSeats(ctx)
	if err != nil {
		t.Fatalf("list latest: %v", err)
	}
	if len(latest.Seats) != 0 {
		t.Fatalf("expected latest inventory to stay empty, got %d", len(latest.Seats))
	}
}
