package scheduler

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/libreria-pagine/turni/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMonth(t *testing.T, s string) domain.Month {
	t.Helper()
	m, err := domain.ParseMonth(s)
	require.NoError(t, err)
	return m
}

func newDefaultScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New(domain.DefaultRoster())
	require.NoError(t, err)
	return s
}

func totals(p *Plan, n int) []int {
	out := make([]int, n)
	for _, d := range p.Days {
		for _, slot := range []Slot{d.Morning, d.Afternoon} {
			if w, ok := slot.Worker(); ok {
				out[w]++
			}
		}
	}
	return out
}

func TestFloorArithmetic(t *testing.T) {
	cases := []struct {
		a, b, div, mod int
	}{
		{7, 2, 3, 1},
		{6, 2, 3, 0},
		{0, 2, 0, 0},
		{-1, 2, -1, 1},
		{-3, 2, -2, 1},
		{-4, 2, -2, 0},
		{16, 3, 5, 1},
	}

	for _, c := range cases {
		assert.Equal(t, c.div, floorDiv(c.a, c.b), "floorDiv(%d, %d)", c.a, c.b)
		assert.Equal(t, c.mod, floorMod(c.a, c.b), "floorMod(%d, %d)", c.a, c.b)
	}
}

func TestBuildCalendar(t *testing.T) {
	t.Run("month lengths", func(t *testing.T) {
		assert.Len(t, BuildCalendar(mustMonth(t, "2025-02")), 28)
		assert.Len(t, BuildCalendar(mustMonth(t, "2024-02")), 29)
		assert.Len(t, BuildCalendar(mustMonth(t, "2025-04")), 30)
		assert.Len(t, BuildCalendar(mustMonth(t, "2025-12")), 31)
	})

	t.Run("flags", func(t *testing.T) {
		days := BuildCalendar(mustMonth(t, "2025-12"))

		// 2025-12-01 是周一
		assert.True(t, days[0].IsMonday)
		assert.Equal(t, time.Monday, days[0].Weekday)
		assert.True(t, days[5].IsSaturday)
		assert.True(t, days[6].IsSunday)

		var holidays []int
		for _, d := range days {
			if d.IsHoliday {
				holidays = append(holidays, d.Date.Day())
			}
		}
		assert.Equal(t, []int{8, 25, 26}, holidays)
	})
}

func TestHolidayDates(t *testing.T) {
	dates := HolidayDates(2025)
	assert.Len(t, dates, 10)
	assert.Contains(t, dates, "2025-04-25")
	assert.Contains(t, dates, "2025-12-26")
	assert.NotContains(t, dates, "2025-04-21") // Pasquetta è mobile, non inclusa
}

func TestApplyClosures(t *testing.T) {
	days := BuildCalendar(mustMonth(t, "2025-12"))
	applyClosures(days)

	for _, d := range days {
		switch {
		case d.IsHoliday:
			assert.True(t, d.Morning.IsClosed() && d.Afternoon.IsClosed(), d.Date)
			assert.Equal(t, domain.NoteHoliday, d.Notes)
		case d.IsMonday:
			assert.True(t, d.Morning.IsClosed() && d.Afternoon.IsClosed(), d.Date)
			assert.Empty(t, d.Notes)
		case d.IsSunday:
			assert.True(t, d.Morning.IsClosed(), d.Date)
			assert.True(t, d.Afternoon.IsFree(), d.Date)
		default:
			assert.True(t, d.Morning.IsFree() && d.Afternoon.IsFree(), d.Date)
		}
	}
}

func daysWith(n int, weekday time.Weekday, morning, afternoon Slot) []Day {
	days := make([]Day, n)
	for i := range days {
		days[i] = Day{
			Weekday:    weekday,
			IsSaturday: weekday == time.Saturday,
			IsSunday:   weekday == time.Sunday,
			Morning:    morning,
			Afternoon:  afternoon,
		}
	}
	return days
}

func TestComputeQuotas(t *testing.T) {
	s := newDefaultScheduler(t)

	t.Run("16 weekend slots", func(t *testing.T) {
		days := append(daysWith(8, time.Saturday, freeSlot(), freeSlot()), daysWith(12, time.Tuesday, freeSlot(), freeSlot())...)
		q := s.computeQuotas(days)

		want := Quotas{
			Available:        40,
			WeekendAvailable: 16,
			Workers: []WorkerQuota{
				{Worker: "Dario", Monthly: 12, Weekend: 5},
				{Worker: "Marco", Monthly: 12, Weekend: 5},
				{Worker: "Morena", Monthly: 16, Weekend: 6},
			},
		}
		if diff := cmp.Diff(want, q); diff != "" {
			t.Errorf("quote diverse (-want +got):\n%s", diff)
		}
	})

	t.Run("odd remainder goes to the flex worker", func(t *testing.T) {
		days := append(daysWith(20, time.Tuesday, freeSlot(), freeSlot()), daysWith(1, time.Sunday, closedSlot(), freeSlot())...)
		q := s.computeQuotas(days)

		assert.Equal(t, 41, q.Available)
		assert.Equal(t, 12, q.Workers[0].Monthly)
		assert.Equal(t, 12, q.Workers[1].Monthly)
		assert.Equal(t, 17, q.Workers[2].Monthly)
		assert.Equal(t, []int{0, 0, 1}, []int{q.Workers[0].Weekend, q.Workers[1].Weekend, q.Workers[2].Weekend})
	})

	t.Run("degenerate month", func(t *testing.T) {
		days := append(daysWith(6, time.Tuesday, freeSlot(), freeSlot()), daysWith(1, time.Wednesday, freeSlot(), closedSlot())...)
		q := s.computeQuotas(days)

		// S_rem = 13 - 16 = -3
		assert.Equal(t, 13, q.Available)
		assert.Equal(t, -2, q.Workers[0].Monthly)
		assert.Equal(t, -2, q.Workers[1].Monthly)
		assert.Equal(t, 17, q.Workers[2].Monthly)
	})
}

func TestSchedule_March2025(t *testing.T) {
	s := newDefaultScheduler(t)

	plan, err := s.Schedule(mustMonth(t, "2025-03"))
	require.NoError(t, err)

	assert.Equal(t, 47, plan.Quotas.Available)
	assert.Equal(t, 15, plan.Quotas.WeekendAvailable)
	assert.Equal(t, 8, plan.RotationAssignments)
	assert.Equal(t, []int{15, 15, 17}, totals(plan, 3))

	shifts := plan.Shifts()
	require.Len(t, shifts, 31)

	expected := map[string][2]string{
		"2025-03-01": {"Dario", "Marco"},
		"2025-03-02": {"Chiuso", "Marco"},
		"2025-03-03": {"Chiuso", "Chiuso"},
		"2025-03-05": {"Morena", "Marco"},
		"2025-03-06": {"Dario", "Morena"},
		"2025-03-12": {"Dario", "Morena"},
		"2025-03-13": {"Morena", "Marco"},
		"2025-03-16": {"Chiuso", "Morena"},
		"2025-03-22": {"Dario", "Morena"},
		"2025-03-26": {"Morena", "Morena"},
		"2025-03-28": {"Morena", "Morena"},
		"2025-03-29": {"Dario", "Morena"},
		"2025-03-31": {"Chiuso", "Chiuso"},
	}
	for _, shift := range shifts {
		assert.Equal(t, "2025-03", shift.MonthYear)
		want, ok := expected[shift.Date]
		if !ok {
			continue
		}
		assert.Equal(t, want[0], shift.MorningShift, shift.Date)
		assert.Equal(t, want[1], shift.AfternoonShift, shift.Date)
	}
	assert.Equal(t, "Sabato", shifts[0].DayOfWeek)
	assert.Equal(t, "Lunedì", shifts[2].DayOfWeek)
}

func TestSchedule_December2025Holidays(t *testing.T) {
	s := newDefaultScheduler(t)

	plan, err := s.Schedule(mustMonth(t, "2025-12"))
	require.NoError(t, err)

	byDate := make(map[string]*domain.Shift)
	for _, shift := range plan.Shifts() {
		byDate[shift.Date] = shift
	}

	for _, date := range []string{"2025-12-08", "2025-12-25", "2025-12-26"} {
		assert.Equal(t, domain.ShiftClosed, byDate[date].MorningShift)
		assert.Equal(t, domain.ShiftClosed, byDate[date].AfternoonShift)
		assert.Equal(t, domain.NoteHoliday, byDate[date].Notes)
	}
	// 12-24 是节前的周三，奇数周，轮换后由 Morena 补满
	assert.Equal(t, "Morena", byDate["2025-12-24"].MorningShift)
	assert.Equal(t, "Morena", byDate["2025-12-31"].AfternoonShift)
	assert.Equal(t, []int{14, 14, 16}, totals(plan, 3))
}

// 对多个月份检查排班结果的不变量
func TestSchedule_Invariants(t *testing.T) {
	s := newDefaultScheduler(t)
	valid := map[string]bool{"Dario": true, "Marco": true, "Morena": true, domain.ShiftClosed: true}

	for m := mustMonth(t, "2024-01"); m.Before(mustMonth(t, "2027-01")); m = m.Next() {
		t.Run(m.String(), func(t *testing.T) {
			plan, err := s.Schedule(m)
			require.NoError(t, err)

			shifts := plan.Shifts()
			require.Len(t, shifts, m.DaysIn())

			seen := make(map[string]bool)
			open := 0
			for i, shift := range shifts {
				d := plan.Days[i]
				assert.False(t, seen[shift.Date], "data duplicata %s", shift.Date)
				seen[shift.Date] = true

				assert.True(t, valid[shift.MorningShift], shift.Date)
				assert.True(t, valid[shift.AfternoonShift], shift.Date)
				assert.NotEqual(t, domain.ShiftDoubleCoverage, shift.MorningShift)

				if d.IsHoliday {
					assert.Equal(t, domain.ShiftClosed, shift.MorningShift)
					assert.Equal(t, domain.ShiftClosed, shift.AfternoonShift)
					assert.Equal(t, domain.NoteHoliday, shift.Notes)
				} else if d.IsMonday {
					assert.Equal(t, domain.ShiftClosed, shift.MorningShift)
					assert.Equal(t, domain.ShiftClosed, shift.AfternoonShift)
				} else if d.IsSunday {
					assert.Equal(t, domain.ShiftClosed, shift.MorningShift)
				}

				for _, v := range []string{shift.MorningShift, shift.AfternoonShift} {
					if v != domain.ShiftClosed {
						open++
					}
				}
			}

			got := totals(plan, 3)
			assert.Equal(t, open, got[0]+got[1]+got[2])
			assert.LessOrEqual(t, plan.RotationAssignments, 8)

			for i, q := range plan.Quotas.Workers {
				assert.LessOrEqual(t, got[i], q.Monthly, q.Worker)
			}

			stats := plan.Stats(s.Roster())
			for i := range stats {
				assert.Equal(t, got[i], stats[i].Total)
			}
		})
	}
}

func TestSchedule_CustomRoster(t *testing.T) {
	roster := domain.Roster{
		Workers: []domain.Worker{
			{Name: "Anna", Period: domain.PeriodMorning},
			{Name: "Bruno", Period: domain.PeriodAfternoon},
			{Name: "Carla", Period: domain.PeriodMorning},
			{Name: "Dora", Flex: true, BaseQuota: 10, Rotation: true},
		},
		RotationCap: 3,
	}
	s, err := New(roster)
	require.NoError(t, err)

	plan, err := s.Schedule(mustMonth(t, "2025-03"))
	require.NoError(t, err)

	assert.Equal(t, 3, plan.RotationAssignments)
	assert.Equal(t, []int{12, 12, 7, 11}, totals(plan, 4))
	assert.Equal(t, 6, plan.Quotas.Workers[3].Weekend)

	shifts := plan.Shifts()
	assert.Equal(t, "Dora", shifts[4].MorningShift)   // 03-05 周三上午
	assert.Equal(t, "Dora", shifts[5].AfternoonShift) // 03-06 周四下午
	assert.Equal(t, "Dora", shifts[8].AfternoonShift) // 03-09 周日下午，周末余下的时段
}

func TestSchedule_RotationCap(t *testing.T) {
	roster := domain.DefaultRoster()
	roster.RotationCap = 0
	s, err := New(roster)
	require.NoError(t, err)

	plan, err := s.Schedule(mustMonth(t, "2025-03"))
	require.NoError(t, err)
	assert.Zero(t, plan.RotationAssignments)
}

func TestFerialWeeks(t *testing.T) {
	days := BuildCalendar(mustMonth(t, "2025-12"))
	weeks := ferialWeeks(days)

	var got [][]int
	for _, w := range weeks {
		var week []int
		for _, i := range w {
			week = append(week, days[i].Date.Day())
		}
		got = append(got, week)
	}

	// 25、26 日是节假日，不属于任何一组
	want := [][]int{{2, 3, 4, 5}, {9, 10, 11, 12}, {16, 17, 18, 19}, {23, 24}, {30, 31}}
	assert.Equal(t, want, got)
}

func TestNew_InvalidRoster(t *testing.T) {
	cases := map[string]domain.Roster{
		"empty":      {},
		"no flex":    {Workers: []domain.Worker{{Name: "Dario", Period: domain.PeriodMorning}}},
		"duplicate":  {Workers: []domain.Worker{{Name: "A", Flex: true}, {Name: "A", Flex: true}}},
		"reserved":   {Workers: []domain.Worker{{Name: domain.ShiftClosed, Flex: true}}},
		"no period":  {Workers: []domain.Worker{{Name: "A"}, {Name: "B", Flex: true}}},
		"negative":   {Workers: []domain.Worker{{Name: "A", Flex: true}}, RotationCap: -1},
		"unnamed":    {Workers: []domain.Worker{{Flex: true}}},
		"neg. quota": {Workers: []domain.Worker{{Name: "A", Flex: true, BaseQuota: -1}}},
	}

	for name, roster := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New(roster)
			assert.Error(t, err)
		})
	}
}

func TestParseRoster(t *testing.T) {
	data := []byte(`
workers:
  - name: Dario
    period: morning
  - name: Marco
    period: afternoon
  - name: Morena
    flex: true
    base_quota: 16
    rotation: true
`)

	roster, err := ParseRoster(data)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultRoster(), roster)

	_, err = ParseRoster([]byte("workers: [{name: Solo, period: morning}]"))
	assert.Error(t, err)

	roster, err = LoadRoster("")
	require.NoError(t, err)
	assert.Equal(t, []string{"Dario", "Marco", "Morena"}, roster.Names())
}

func TestStatistics(t *testing.T) {
	shift := func(date, morning, afternoon string) *domain.Shift {
		return &domain.Shift{Date: date, MorningShift: morning, AfternoonShift: afternoon}
	}

	cases := []struct {
		name   string
		shifts []*domain.Shift
		want   []domain.WorkerStats
	}{
		{
			name: "empty month",
			want: []domain.WorkerStats{{Worker: "Dario"}, {Worker: "Marco"}, {Worker: "Morena"}},
		},
		{
			// 12-25 既是节假日又是 12-26 的前一天，两类都计入
			name: "christmas week",
			shifts: []*domain.Shift{
				shift("2025-12-24", "Dario", "Marco"),
				shift("2025-12-25", "Dario", domain.ShiftClosed),
				shift("2025-12-26", domain.ShiftDoubleCoverage, "Morena"),
				shift("2025-12-27", "Dario", "Morena"),
				shift("2025-12-28", domain.ShiftClosed, "Marco"),
				shift("2025-12-31", "Morena", "Morena"),
				shift("31/12/2025", "Marco", "Ignoto"),
			},
			want: []domain.WorkerStats{
				{Worker: "Dario", Total: 3, Saturday: 1, Holiday: 1, PreHoliday: 2, Special: 4},
				{Worker: "Marco", Total: 3, Sunday: 1, PreHoliday: 1, Special: 2},
				{Worker: "Morena", Total: 4, Saturday: 1, Holiday: 1, Special: 2},
			},
		},
		{
			// 2026-08-15 是周六也是节假日
			name: "saturday holiday",
			shifts: []*domain.Shift{
				shift("2026-08-14", "Dario", "Marco"),
				shift("2026-08-15", domain.ShiftClosed, "Marco"),
				shift("2026-08-16", domain.ShiftClosed, "Marco"),
			},
			want: []domain.WorkerStats{
				{Worker: "Dario", Total: 1, PreHoliday: 1, Special: 1},
				{Worker: "Marco", Total: 3, Saturday: 1, Sunday: 1, Holiday: 1, PreHoliday: 1, Special: 4},
				{Worker: "Morena"},
			},
		},
		{
			// 节前只看同一年的节假日表
			name: "new year's eve",
			shifts: []*domain.Shift{
				shift("2026-12-31", "Dario", "Marco"),
				shift("2027-01-01", "Morena", domain.ShiftClosed),
			},
			want: []domain.WorkerStats{
				{Worker: "Dario", Total: 1},
				{Worker: "Marco", Total: 1},
				{Worker: "Morena", Total: 1, Holiday: 1, Special: 1},
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Statistics(domain.DefaultRoster(), c.shifts)
			if diff := cmp.Diff(c.want, got); diff != "" {
				t.Errorf("statistiche diverse (-want +got):\n%s", diff)
			}
		})
	}
}

// 2025-08-15 是周五，节假日所在的自然周仍然单独成组，轮换次数不受影响
func TestSchedule_August2025Rotation(t *testing.T) {
	s := newDefaultScheduler(t)

	plan, err := s.Schedule(mustMonth(t, "2025-08"))
	require.NoError(t, err)
	assert.Equal(t, 8, plan.RotationAssignments)

	var groups [][]int
	for _, w := range ferialWeeks(plan.Days) {
		var week []int
		for _, i := range w {
			week = append(week, plan.Days[i].Date.Day())
		}
		groups = append(groups, week)
	}
	assert.Equal(t, [][]int{{1}, {5, 6, 7, 8}, {12, 13, 14}, {19, 20, 21, 22}, {26, 27, 28, 29}}, groups)

	byDate := make(map[string]*domain.Shift)
	for _, shift := range plan.Shifts() {
		byDate[shift.Date] = shift
	}

	assert.Equal(t, "Morena", byDate["2025-08-07"].MorningShift)
	assert.Equal(t, "Morena", byDate["2025-08-06"].AfternoonShift)
	assert.Equal(t, "Morena", byDate["2025-08-13"].MorningShift)
	assert.Equal(t, "Morena", byDate["2025-08-14"].AfternoonShift)
	assert.Equal(t, "Morena", byDate["2025-08-21"].MorningShift)
	assert.Equal(t, "Morena", byDate["2025-08-20"].AfternoonShift)
	assert.Equal(t, "Morena", byDate["2025-08-27"].MorningShift)
	assert.Equal(t, "Morena", byDate["2025-08-28"].AfternoonShift)
}
