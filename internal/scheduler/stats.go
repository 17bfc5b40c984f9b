package scheduler

import (
	"time"

	"github.com/libreria-pagine/turni/backend/internal/domain"
)

/**
 * 统计每个员工的班次
 * special = saturday + sunday + holiday + preHoliday
 * 一天如果同时属于多个类别（比如节前的周六）会被重复计算，这是用来衡量工作负担的，不是日历天数
 */
func Statistics(roster domain.Roster, shifts []*domain.Shift) []domain.WorkerStats {
	stats := make([]domain.WorkerStats, len(roster.Workers))
	index := make(map[string]int, len(roster.Workers))
	for i, w := range roster.Workers {
		stats[i].Worker = w.Name
		index[w.Name] = i
	}

	for _, shift := range shifts {
		date, err := time.Parse(domain.DateLayout, shift.Date)
		if err != nil {
			// 手动导入的记录可能有格式错误的日期，只计入总数
			date = time.Time{}
		}

		for _, value := range []string{shift.MorningShift, shift.AfternoonShift} {
			i, ok := index[value]
			if !ok {
				continue
			}

			st := &stats[i]
			st.Total++
			if date.IsZero() {
				continue
			}
			if date.Weekday() == time.Saturday {
				st.Saturday++
			}
			if date.Weekday() == time.Sunday {
				st.Sunday++
			}
			if IsHoliday(date) {
				st.Holiday++
			}
			if isPreHoliday(date) {
				st.PreHoliday++
			}
		}
	}

	for i := range stats {
		stats[i].Special = stats[i].Saturday + stats[i].Sunday + stats[i].Holiday + stats[i].PreHoliday
	}

	return stats
}

// isPreHoliday 只查同一年的节假日表，12-31 不因为次年的 01-01 算作节前
func isPreHoliday(date time.Time) bool {
	next := date.AddDate(0, 0, 1)
	return next.Year() == date.Year() && IsHoliday(next)
}

// Stats 统计计划本身，方便在写入之前预览
func (p *Plan) Stats(roster domain.Roster) []domain.WorkerStats {
	return Statistics(roster, p.Shifts())
}
