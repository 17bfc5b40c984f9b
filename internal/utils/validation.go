package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/libreria-pagine/turni/backend/internal/domain"
)

// ValidateShiftValues 检查两个时段的值是否是排班表中的员工或者保留值
func ValidateShiftValues(roster domain.Roster, shift *domain.Shift) error {
	if !roster.IsValidSlotValue(shift.MorningShift) {
		return fmt.Errorf("turno del mattino non valido per il %s: %q", shift.Date, shift.MorningShift)
	}
	if !roster.IsValidSlotValue(shift.AfternoonShift) {
		return fmt.Errorf("turno del pomeriggio non valido per il %s: %q", shift.Date, shift.AfternoonShift)
	}
	return nil
}

/**
 * ValidateMonthShifts 用于导入前的检查
 * 每条记录必须属于该月，日期不能重复，星期必须和日期一致
 * 导入时允许缺少某些日期
 */
func ValidateMonthShifts(month domain.Month, roster domain.Roster, shifts []*domain.Shift) error {
	if len(shifts) == 0 {
		return errors.New("nessun turno da importare")
	}

	seen := make(map[string]bool, len(shifts))
	for i, shift := range shifts {
		date, err := time.Parse(domain.DateLayout, shift.Date)
		if err != nil {
			return fmt.Errorf("riga %d: data non valida %q", i+1, shift.Date)
		}
		if domain.MonthOf(date) != month {
			return fmt.Errorf("riga %d: il %s non appartiene al mese %s", i+1, shift.Date, month)
		}
		if seen[shift.Date] {
			return fmt.Errorf("riga %d: il %s è duplicato", i+1, shift.Date)
		}
		seen[shift.Date] = true

		if want := domain.WeekdayName(date.Weekday()); shift.DayOfWeek != want {
			return fmt.Errorf("riga %d: il %s è %s, non %s", i+1, shift.Date, want, shift.DayOfWeek)
		}
		if err := ValidateShiftValues(roster, shift); err != nil {
			return fmt.Errorf("riga %d: %w", i+1, err)
		}
	}

	return nil
}
