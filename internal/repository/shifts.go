package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/libreria-pagine/turni/backend/internal/domain"
)

const shiftColumns = `id, shift_date, month_year, day_of_week, morning_shift, afternoon_shift, notes, created_at, version`

func scanShift(row interface{ Scan(...any) error }) (*domain.Shift, error) {
	shift := &domain.Shift{}
	dst := []any{&shift.ID, &shift.Date, &shift.MonthYear, &shift.DayOfWeek, &shift.MorningShift, &shift.AfternoonShift, &shift.Notes, &shift.CreatedAt, &shift.Version}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	return shift, nil
}

const insertShiftQuery = `
	INSERT INTO shifts (shift_date, month_year, day_of_week, morning_shift, afternoon_shift, notes, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, version
`

func shiftArgs(shift *domain.Shift) []any {
	return []any{shift.Date, shift.MonthYear, shift.DayOfWeek, shift.MorningShift, shift.AfternoonShift, shift.Notes, shift.CreatedAt}
}

func (r *Repository) ListShiftsByMonth(ctx context.Context, month domain.Month) ([]*domain.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE month_year = $1 ORDER BY shift_date`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, month.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := make([]*domain.Shift, 0, month.DaysIn())
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return shifts, nil
}

func (r *Repository) CountShiftsByMonth(ctx context.Context, month domain.Month) (int, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	count := 0
	query := `SELECT COUNT(*) FROM shifts WHERE month_year = $1`
	if err := r.dbpool.QueryRowContext(ctx, query, month.String()).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

func (r *Repository) GetShiftByDate(ctx context.Context, date string) (*domain.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE shift_date = $1`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	return scanShift(r.dbpool.QueryRowContext(ctx, query, date))
}

// CreateShift 写入单条记录，日期已存在时返回 ErrConflict
func (r *Repository) CreateShift(ctx context.Context, shift *domain.Shift) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	if shift.CreatedAt.IsZero() {
		shift.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}

	if err := r.dbpool.QueryRowContext(ctx, insertShiftQuery, shiftArgs(shift)...).Scan(&shift.ID, &shift.Version); err != nil {
		return wrapUnique(err, shift.Date)
	}

	return nil
}

/**
 * InsertMonthShifts 在一个事务里写入整个月的班次
 * 月份已经有记录时不写入任何东西，返回 ErrMonthAlreadyGenerated
 * 任何一条写入失败都会回滚整个事务，不会留下半个月的数据
 */
func (r *Repository) InsertMonthShifts(ctx context.Context, month domain.Month, shifts []*domain.Shift) error {
	ctx, cancel := r.txContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	count := 0
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM shifts WHERE month_year = $1`, month.String()).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return ErrMonthAlreadyGenerated
	}

	stmt, err := tx.PrepareContext(ctx, insertShiftQuery)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Truncate(time.Microsecond)
	for _, shift := range shifts {
		if !month.Contains(shift.Date) {
			return fmt.Errorf("il turno %s non appartiene al mese %s", shift.Date, month)
		}
		shift.MonthYear = month.String()
		shift.CreatedAt = now
		if err := stmt.QueryRowContext(ctx, shiftArgs(shift)...).Scan(&shift.ID, &shift.Version); err != nil {
			return fmt.Errorf("inserimento del turno %s fallito: %w", shift.Date, wrapUnique(err, shift.Date))
		}
	}

	return tx.Commit()
}

// UpdateShift 使用乐观锁，版本号不匹配时返回 sql.ErrNoRows
func (r *Repository) UpdateShift(ctx context.Context, shift *domain.Shift) error {
	query := `
		UPDATE shifts
		SET
			morning_shift = $1,
			afternoon_shift = $2,
			notes = $3,
			version = version + 1
		WHERE id = $4 AND version = $5
		RETURNING version
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	args := []any{shift.MorningShift, shift.AfternoonShift, shift.Notes, shift.ID, shift.Version}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&shift.Version)
}

func (r *Repository) DeleteShift(ctx context.Context, id int64) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, `DELETE FROM shifts WHERE id = $1`, id)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// DeleteShiftsByMonth 返回删除的条数，月份本来就没有记录时返回 0
func (r *Repository) DeleteShiftsByMonth(ctx context.Context, month domain.Month) (int64, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, `DELETE FROM shifts WHERE month_year = $1`, month.String())
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
