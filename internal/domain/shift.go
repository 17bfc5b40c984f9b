package domain

import "time"

const (
	ShiftClosed         = "Chiuso"
	ShiftDoubleCoverage = "Doppia presenza"
	NoteHoliday         = "Festività"
)

type Shift struct {
	ID             int64     `json:"id"`
	Date           string    `json:"date"`
	MonthYear      string    `json:"monthYear"`
	DayOfWeek      string    `json:"dayOfWeek"`
	MorningShift   string    `json:"morningShift"`
	AfternoonShift string    `json:"afternoonShift"`
	Notes          string    `json:"notes"`
	CreatedAt      time.Time `json:"createdAt"`
	Version        int32     `json:"-"`
}

var weekdayNames = [...]string{
	time.Sunday:    "Domenica",
	time.Monday:    "Lunedì",
	time.Tuesday:   "Martedì",
	time.Wednesday: "Mercoledì",
	time.Thursday:  "Giovedì",
	time.Friday:    "Venerdì",
	time.Saturday:  "Sabato",
}

func WeekdayName(d time.Weekday) string {
	return weekdayNames[d]
}
