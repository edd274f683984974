package repository

import (
	"context"
	"fmt"
	"strings"

	"seat-booking/internal/data/entity"
	"seat-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	SeatsTable       = "seats"
	LatestSeatsTable = "latest_seats"
)

type SeatRepository interface {
	// WithTx runs fn in a transaction. Reads made through the ctx passed to
	// fn lock the rows they return until fn finishes.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	CountAll(ctx context.Context) (int64, error)
	CreateBatch(ctx context.Context, seats []*entity.Seat) (int64, error)
	FindAll(ctx context.Context) ([]*entity.Seat, error)
	FindByNumbers(ctx context.Context, seatNumbers []int) ([]*entity.Seat, error)

	// UpdateBookedFlags sets is_booked on the given seats and returns how many
	// actually changed; seats already in the target state are not counted.
	UpdateBookedFlags(ctx context.Context, seatNumbers []int, isBooked bool) (int64, error)
}

type seatRepository struct {
	db    database.PgxIface
	table string
	log   *zap.Logger
}

// NewSeatRepository returns a Postgres store over table, which must be one of
// the tables created by the migrations.
func NewSeatRepository(db database.PgxIface, table string, log *zap.Logger) SeatRepository {
	return &seatRepository{
		db:    db,
		table: table,
		log:   log.With(zap.String("repository", table)),
	}
}

func (r *seatRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.db, fn)
}

func (r *seatRepository) CountAll(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, r.table)

	var total int64
	if err := r.queryRow(ctx, query).Scan(&total); err != nil {
		r.log.Error("Failed to count seats", zap.Error(err))
		return 0, fmt.Errorf("failed to count seats: %w", err)
	}

	return total, nil
}

func (r *seatRepository) CreateBatch(ctx context.Context, seats []*entity.Seat) (int64, error) {
	if len(seats) == 0 {
		return 0, nil
	}

	// Build batch insert
	var sb strings.Builder
	fmt.Fprintf(&sb, `INSERT INTO %s (seat_no, is_booked, created_at, updated_at) VALUES `, r.table)
	args := make([]any, 0, len(seats)*4)

	for i, seat := range seats {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d)", i*4+1, i*4+2, i*4+3, i*4+4)

		args = append(args,
			seat.SeatNo,
			seat.IsBooked,
			seat.CreatedAt,
			seat.UpdatedAt,
		)
	}
	sb.WriteString(` ON CONFLICT (seat_no) DO NOTHING`)

	result, err := r.exec(ctx, sb.String(), args...)
	if err != nil {
		r.log.Error("Failed to create batch seats",
			zap.Error(err),
			zap.Int("count", len(seats)),
		)
		return 0, fmt.Errorf("failed to create batch seats: %w", err)
	}

	return result.RowsAffected(), nil
}

func (r *seatRepository) FindAll(ctx context.Context) ([]*entity.Seat, error) {
	query := fmt.Sprintf(`
		SELECT seat_no, is_booked, created_at, updated_at
		FROM %s
		ORDER BY seat_no`, r.table)

	rows, err := r.query(ctx, r.lockIfTx(ctx, query))
	if err != nil {
		r.log.Error("Failed to find seats", zap.Error(err))
		return nil, fmt.Errorf("failed to find seats: %w", err)
	}

	return r.scanSeats(rows)
}

func (r *seatRepository) FindByNumbers(ctx context.Context, seatNumbers []int) ([]*entity.Seat, error) {
	if len(seatNumbers) == 0 {
		return []*entity.Seat{}, nil
	}

	query := fmt.Sprintf(`
		SELECT seat_no, is_booked, created_at, updated_at
		FROM %s
		WHERE seat_no = ANY($1)
		ORDER BY seat_no`, r.table)

	rows, err := r.query(ctx, r.lockIfTx(ctx, query), seatNumbers)
	if err != nil {
		r.log.Error("Failed to find seats by number",
			zap.Error(err),
			zap.Ints("seat_numbers", seatNumbers),
		)
		return nil, fmt.Errorf("failed to find seats: %w", err)
	}

	return r.scanSeats(rows)
}

func (r *seatRepository) UpdateBookedFlags(ctx context.Context, seatNumbers []int, isBooked bool) (int64, error) {
	if len(seatNumbers) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET is_booked = $2, updated_at = NOW()
		WHERE seat_no = ANY($1) AND is_booked <> $2`, r.table)

	result, err := r.exec(ctx, query, seatNumbers, isBooked)
	if err != nil {
		r.log.Error("Failed to update booked flags",
			zap.Error(err),
			zap.Ints("seat_numbers", seatNumbers),
			zap.Bool("is_booked", isBooked),
		)
		return 0, fmt.Errorf("failed to update booked flags: %w", err)
	}

	return result.RowsAffected(), nil
}

func (r *seatRepository) scanSeats(rows pgx.Rows) ([]*entity.Seat, error) {
	defer rows.Close()

	seats := []*entity.Seat{}
	for rows.Next() {
		var seat entity.Seat
		err := rows.Scan(
			&seat.SeatNo,
			&seat.IsBooked,
			&seat.CreatedAt,
			&seat.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan seat row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan seat: %w", err)
		}
		seats = append(seats, &seat)
	}
	if err := rows.Err(); err != nil {
		r.log.Error("Failed to iterate seat rows", zap.Error(err))
		return nil, fmt.Errorf("failed to read seats: %w", err)
	}

	return seats, nil
}

func (r *seatRepository) lockIfTx(ctx context.Context, query string) string {
	if txFromContext(ctx) != nil {
		return query + " FOR UPDATE"
	}
	return query
}
