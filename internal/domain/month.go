package domain

import (
	"fmt"
	"time"
)

// Month 是一个日历月，格式化为 "YYYY-MM"
type Month struct {
	Year  int
	Month time.Month
}

const MonthLayout = "2006-01"
const DateLayout = "2006-01-02"

func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return Month{}, fmt.Errorf("mese non valido %q: %w", s, err)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// FirstDay 返回该月第一天（UTC 零点）
func (m Month) FirstDay() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (m Month) DaysIn() int {
	return m.FirstDay().AddDate(0, 1, -1).Day()
}

func (m Month) Next() Month {
	return MonthOf(m.FirstDay().AddDate(0, 1, 0))
}

func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// Contains 判断 ISO 日期是否属于该月
func (m Month) Contains(date string) bool {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return false
	}
	return MonthOf(t) == m
}
