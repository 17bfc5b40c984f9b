package scheduler

import (
	"time"

	"github.com/libreria-pagine/turni/backend/internal/domain"
)

type slotState uint8

const (
	slotClosed slotState = iota
	slotFree
	slotAssigned
)

// Slot: 某一天的一个时段（上午或下午）
type Slot struct {
	state  slotState
	worker int // 仅在 state == slotAssigned 时有效，是 roster 中的下标
}

func closedSlot() Slot        { return Slot{state: slotClosed} }
func freeSlot() Slot          { return Slot{state: slotFree} }
func assignedSlot(w int) Slot { return Slot{state: slotAssigned, worker: w} }

func (s Slot) IsClosed() bool { return s.state == slotClosed }
func (s Slot) IsFree() bool   { return s.state == slotFree }

func (s Slot) Worker() (int, bool) {
	return s.worker, s.state == slotAssigned
}

// Day: 日历中的一天，以及两个时段的状态
type Day struct {
	Date       time.Time
	Weekday    time.Weekday
	IsHoliday  bool
	IsSaturday bool
	IsSunday   bool
	IsMonday   bool
	Morning    Slot
	Afternoon  Slot
	Notes      string
}

func (d *Day) IsWeekend() bool {
	return d.IsSaturday || d.IsSunday
}

// IsFerial 表示周二到周五且不是节假日
func (d *Day) IsFerial() bool {
	return !d.IsHoliday && !d.IsMonday && !d.IsWeekend()
}

func (d *Day) slot(p domain.Period) *Slot {
	switch p {
	case domain.PeriodMorning:
		return &d.Morning
	case domain.PeriodAfternoon:
		return &d.Afternoon
	}
	return nil
}

var periods = []domain.Period{domain.PeriodMorning, domain.PeriodAfternoon}

type WorkerQuota struct {
	Worker  string `json:"worker"`
	Monthly int    `json:"monthly"`
	Weekend int    `json:"weekend"`
}

// Quotas: 每个员工本月的目标班次数，下标与 roster 一致
type Quotas struct {
	Available        int           `json:"available"`
	WeekendAvailable int           `json:"weekendAvailable"`
	Workers          []WorkerQuota `json:"workers"`
}

// counters 记录分配过程中每个员工已获得的班次数
type counters struct {
	total    []int
	weekend  []int
	rotation int
}

func newCounters(n int) *counters {
	return &counters{
		total:   make([]int, n),
		weekend: make([]int, n),
	}
}

type Plan struct {
	Month               domain.Month `json:"month"`
	Days                []Day        `json:"-"`
	Quotas              Quotas       `json:"quotas"`
	RotationAssignments int          `json:"rotationAssignments"`

	names []string
}
