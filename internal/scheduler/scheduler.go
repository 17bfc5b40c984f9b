package scheduler

import (
	"errors"
	"fmt"

	"github.com/libreria-pagine/turni/backend/internal/domain"
)

type Scheduler struct {
	roster   domain.Roster
	flex     int // 第一个 flex 员工，吸收所有余数
	rotation int // 参与轮换的员工，-1 表示没有
}

func New(roster domain.Roster) (*Scheduler, error) {
	if len(roster.Workers) == 0 {
		return nil, errors.New("l'organico è vuoto")
	}
	if roster.RotationCap < 0 {
		return nil, errors.New("il limite di rotazione non può essere negativo")
	}

	s := &Scheduler{
		roster:   roster,
		flex:     -1,
		rotation: -1,
	}

	seen := make(map[string]bool)
	for i, w := range roster.Workers {
		switch {
		case w.Name == "":
			return nil, fmt.Errorf("il dipendente %d non ha un nome", i+1)
		case w.Name == domain.ShiftClosed || w.Name == domain.ShiftDoubleCoverage:
			return nil, fmt.Errorf("il nome %q è riservato", w.Name)
		case seen[w.Name]:
			return nil, fmt.Errorf("il dipendente %q è duplicato", w.Name)
		}
		seen[w.Name] = true

		if w.Flex {
			if s.flex < 0 {
				s.flex = i
			}
			if w.BaseQuota < 0 {
				return nil, fmt.Errorf("la quota base di %q non può essere negativa", w.Name)
			}
		} else if w.Period != domain.PeriodMorning && w.Period != domain.PeriodAfternoon {
			// 非 flex 员工只能通过自己的时段获得班次
			return nil, fmt.Errorf("il dipendente %q deve avere un turno preferito", w.Name)
		}

		if w.Rotation && s.rotation < 0 {
			s.rotation = i
		}
	}

	if s.flex < 0 {
		return nil, errors.New("serve almeno un dipendente flessibile")
	}

	return s, nil
}

func (s *Scheduler) Roster() domain.Roster {
	return s.roster
}

// Preview 只计算日历、闭店规则和配额，不做分配
func (s *Scheduler) Preview(month domain.Month) ([]Day, Quotas) {
	days := BuildCalendar(month)
	applyClosures(days)
	return days, s.computeQuotas(days)
}

func (s *Scheduler) Schedule(month domain.Month) (*Plan, error) {
	days, quotas := s.Preview(month)

	c := newCounters(len(s.roster.Workers))
	s.weekendPass(days, quotas, c)
	s.rotationPass(days, c)
	s.weekdayFillPass(days, quotas, c)
	s.wildcardPass(days, quotas, c)

	plan := &Plan{
		Month:               month,
		Days:                days,
		Quotas:              quotas,
		RotationAssignments: c.rotation,
		names:               s.roster.Names(),
	}

	// 最后检查一下结果是否满足闭店规则
	if err := validatePlan(plan); err != nil {
		return nil, err
	}

	return plan, nil
}

func validatePlan(p *Plan) error {
	for _, d := range p.Days {
		date := d.Date.Format(domain.DateLayout)
		if d.Morning.IsFree() || d.Afternoon.IsFree() {
			return fmt.Errorf("il giorno %s ha un turno non assegnato", date)
		}
		if (d.IsHoliday || d.IsMonday) && !(d.Morning.IsClosed() && d.Afternoon.IsClosed()) {
			return fmt.Errorf("il giorno %s dovrebbe essere chiuso", date)
		}
		if d.IsSunday && !d.Morning.IsClosed() {
			return fmt.Errorf("la domenica mattina %s dovrebbe essere chiusa", date)
		}
	}
	return nil
}

func (p *Plan) slotValue(s Slot) string {
	if w, ok := s.Worker(); ok {
		return p.names[w]
	}
	return domain.ShiftClosed
}

// Shifts 将计划转换为每天一条的排班记录
func (p *Plan) Shifts() []*domain.Shift {
	shifts := make([]*domain.Shift, 0, len(p.Days))
	for _, d := range p.Days {
		shifts = append(shifts, &domain.Shift{
			Date:           d.Date.Format(domain.DateLayout),
			MonthYear:      p.Month.String(),
			DayOfWeek:      domain.WeekdayName(d.Weekday),
			MorningShift:   p.slotValue(d.Morning),
			AfternoonShift: p.slotValue(d.Afternoon),
			Notes:          d.Notes,
		})
	}
	return shifts
}
