package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/libreria-pagine/turni/backend/internal/domain"
	"github.com/libreria-pagine/turni/backend/internal/repository"
	"github.com/libreria-pagine/turni/backend/internal/scheduler"
	"golang.org/x/sync/errgroup"
)

// 一次最多生成两年的班次
const MaxRangeMonths = 24

type ShiftStore interface {
	ListShiftsByMonth(ctx context.Context, month domain.Month) ([]*domain.Shift, error)
	InsertMonthShifts(ctx context.Context, month domain.Month, shifts []*domain.Shift) error
	DeleteShiftsByMonth(ctx context.Context, month domain.Month) (int64, error)
}

type Status string

const (
	StatusGenerated Status = "generated"
	StatusSkipped   Status = "skipped"
)

type Result struct {
	Month  string            `json:"month"`
	Status Status            `json:"status"`
	Shifts []*domain.Shift   `json:"shifts"`
	Quotas *scheduler.Quotas `json:"quotas,omitempty"`
}

type Preview struct {
	Month               string               `json:"month"`
	Shifts              []*domain.Shift      `json:"shifts"`
	Quotas              scheduler.Quotas     `json:"quotas"`
	RotationAssignments int                  `json:"rotationAssignments"`
	Stats               []domain.WorkerStats `json:"stats"`
}

type Planner struct {
	scheduler   *scheduler.Scheduler
	store       ShiftStore
	parallelism int
}

func New(s *scheduler.Scheduler, store ShiftStore, parallelism int) *Planner {
	if parallelism < 1 {
		parallelism = 1
	}

	return &Planner{
		scheduler:   s,
		store:       store,
		parallelism: parallelism,
	}
}

func (p *Planner) Roster() domain.Roster {
	return p.scheduler.Roster()
}

// Preview 计算完整的计划但不写入
func (p *Planner) Preview(month domain.Month) (*Preview, error) {
	plan, err := p.scheduler.Schedule(month)
	if err != nil {
		return nil, err
	}

	return &Preview{
		Month:               month.String(),
		Shifts:              plan.Shifts(),
		Quotas:              plan.Quotas,
		RotationAssignments: plan.RotationAssignments,
		Stats:               plan.Stats(p.scheduler.Roster()),
	}, nil
}

/**
 * Generate 生成并写入一个月的班次
 * 该月已有记录时不做任何写入，返回 StatusSkipped 而不是错误
 */
func (p *Planner) Generate(ctx context.Context, month domain.Month) (*Result, error) {
	plan, err := p.scheduler.Schedule(month)
	if err != nil {
		return nil, err
	}

	shifts := plan.Shifts()
	if err := p.store.InsertMonthShifts(ctx, month, shifts); err != nil {
		if errors.Is(err, repository.ErrMonthAlreadyGenerated) {
			slog.Info("turni già presenti, generazione saltata", "month", month.String())
			return &Result{Month: month.String(), Status: StatusSkipped, Shifts: []*domain.Shift{}}, nil
		}
		return nil, fmt.Errorf("salvataggio dei turni di %s fallito: %w", month, err)
	}

	slog.Info("turni generati", "month", month.String(), "shifts", len(shifts), "rotation", plan.RotationAssignments)

	return &Result{
		Month:  month.String(),
		Status: StatusGenerated,
		Shifts: shifts,
		Quotas: &plan.Quotas,
	}, nil
}

/**
 * GenerateRange 并发生成 [from, to] 之间的每个月份，结果按月份排序
 * 每个月份单独提交，出错时已经保存的月份不会回滚：
 * 返回的切片仍然包含这些月份的结果，失败或未执行的月份为 nil
 */
func (p *Planner) GenerateRange(ctx context.Context, from, to domain.Month) ([]*Result, error) {
	months, err := MonthRange(from, to)
	if err != nil {
		return nil, err
	}

	results := make([]*Result, len(months))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.parallelism)
	for i, month := range months {
		i, month := i, month
		g.Go(func() error {
			res, err := p.Generate(ctx, month)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	return results, nil
}

// MonthsWithStatus 返回结果中处于指定状态的月份，跳过 nil
func MonthsWithStatus(results []*Result, status Status) []string {
	months := make([]string, 0, len(results))
	for _, res := range results {
		if res != nil && res.Status == status {
			months = append(months, res.Month)
		}
	}
	return months
}

func (p *Planner) Stats(ctx context.Context, month domain.Month) ([]domain.WorkerStats, error) {
	shifts, err := p.store.ListShiftsByMonth(ctx, month)
	if err != nil {
		return nil, err
	}

	return scheduler.Statistics(p.scheduler.Roster(), shifts), nil
}

func (p *Planner) Delete(ctx context.Context, month domain.Month) (int64, error) {
	n, err := p.store.DeleteShiftsByMonth(ctx, month)
	if err != nil {
		return 0, err
	}

	slog.Info("turni eliminati", "month", month.String(), "deleted", n)
	return n, nil
}

func MonthRange(from, to domain.Month) ([]domain.Month, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("intervallo non valido: %s è prima di %s", to, from)
	}

	months := make([]domain.Month, 0)
	for m := from; !to.Before(m); m = m.Next() {
		if len(months) == MaxRangeMonths {
			return nil, fmt.Errorf("l'intervallo non può superare %d mesi", MaxRangeMonths)
		}
		months = append(months, m)
	}

	return months, nil
}
