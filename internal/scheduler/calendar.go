package scheduler

import (
	"time"

	"github.com/libreria-pagine/turni/backend/internal/domain"
)

type monthDay struct {
	month time.Month
	day   int
}

// 固定日期的法定节假日，不包含复活节等移动节日
var holidays = []monthDay{
	{time.January, 1},   // Capodanno
	{time.January, 6},   // Epifania
	{time.April, 25},    // Festa della Liberazione
	{time.May, 1},       // Festa dei Lavoratori
	{time.June, 2},      // Festa della Repubblica
	{time.August, 15},   // Ferragosto
	{time.November, 1},  // Ognissanti
	{time.December, 8},  // Immacolata
	{time.December, 25}, // Natale
	{time.December, 26}, // Santo Stefano
}

func IsHoliday(t time.Time) bool {
	for _, h := range holidays {
		if t.Month() == h.month && t.Day() == h.day {
			return true
		}
	}
	return false
}

// HolidayDates 返回某一年所有节假日的 ISO 日期
func HolidayDates(year int) []string {
	dates := make([]string, 0, len(holidays))
	for _, h := range holidays {
		dates = append(dates, time.Date(year, h.month, h.day, 0, 0, 0, 0, time.UTC).Format(domain.DateLayout))
	}
	return dates
}

// BuildCalendar 列出该月的每一天并标记星期和节假日
func BuildCalendar(month domain.Month) []Day {
	first := month.FirstDay()
	n := month.DaysIn()

	days := make([]Day, 0, n)
	for i := 0; i < n; i++ {
		date := first.AddDate(0, 0, i)
		wd := date.Weekday()
		days = append(days, Day{
			Date:       date,
			Weekday:    wd,
			IsHoliday:  IsHoliday(date),
			IsSaturday: wd == time.Saturday,
			IsSunday:   wd == time.Sunday,
			IsMonday:   wd == time.Monday,
			Morning:    freeSlot(),
			Afternoon:  freeSlot(),
		})
	}
	return days
}

// applyClosures 按优先级应用固定的闭店规则：节假日 > 周一 > 周日上午
func applyClosures(days []Day) {
	for i := range days {
		d := &days[i]
		d.Morning = freeSlot()
		d.Afternoon = freeSlot()

		switch {
		case d.IsHoliday:
			d.Morning = closedSlot()
			d.Afternoon = closedSlot()
			d.Notes = domain.NoteHoliday
		case d.IsMonday:
			d.Morning = closedSlot()
			d.Afternoon = closedSlot()
		case d.IsSunday:
			d.Morning = closedSlot()
		}
	}
}
