package scheduler

import (
	"time"

	"github.com/libreria-pagine/turni/backend/internal/domain"
)

func (s *Scheduler) assign(slot *Slot, worker int, d *Day, c *counters) {
	*slot = assignedSlot(worker)
	c.total[worker]++
	if d.IsWeekend() {
		c.weekend[worker]++
	}
}

// weekendPass: 周末优先分配
// 有固定时段的员工按日历顺序领取自己时段的周末班次，直到周末配额用完；
// 剩下的周末时段（不论上午下午）按日历顺序交给 flex 员工
func (s *Scheduler) weekendPass(days []Day, q Quotas, c *counters) {
	for wi, w := range s.roster.Workers {
		if w.Flex {
			continue
		}
		for i := range days {
			if c.weekend[wi] >= q.Workers[wi].Weekend {
				break
			}
			d := &days[i]
			if !d.IsWeekend() || d.IsHoliday {
				continue
			}
			if slot := d.slot(w.Period); slot.IsFree() {
				s.assign(slot, wi, d, c)
			}
		}
	}

	for i := range days {
		d := &days[i]
		if !d.IsWeekend() || d.IsHoliday {
			continue
		}
		for _, p := range periods {
			slot := d.slot(p)
			if !slot.IsFree() {
				continue
			}
			for wi, w := range s.roster.Workers {
				if w.Flex && c.weekend[wi] < q.Workers[wi].Weekend {
					s.assign(slot, wi, d, c)
					break
				}
			}
		}
	}
}

// ferialWeeks 将周二到周五的非节假日按自然周分组，返回每组中天的下标
func ferialWeeks(days []Day) [][]int {
	var weeks [][]int
	var current time.Time

	for i := range days {
		d := &days[i]
		if !d.IsFerial() {
			continue
		}
		// 以周一作为一周的开始
		monday := d.Date.AddDate(0, 0, -((int(d.Weekday) + 6) % 7))
		if len(weeks) == 0 || !monday.Equal(current) {
			weeks = append(weeks, []int{})
			current = monday
		}
		weeks[len(weeks)-1] = append(weeks[len(weeks)-1], i)
	}

	return weeks
}

type rotationTarget struct {
	weekday time.Weekday
	period  domain.Period
}

var (
	evenWeekRotation = []rotationTarget{{time.Wednesday, domain.PeriodMorning}, {time.Thursday, domain.PeriodAfternoon}}
	oddWeekRotation  = []rotationTarget{{time.Thursday, domain.PeriodMorning}, {time.Wednesday, domain.PeriodAfternoon}}
)

// rotationPass: 轮换员工在周三和周四之间交替
// 偶数周：周三上午、周四下午；奇数周：周四上午、周三下午
// 总数达到 RotationCap 后立即停止，与已分配的周末班次无关
func (s *Scheduler) rotationPass(days []Day, c *counters) {
	if s.rotation < 0 {
		return
	}

	for w, week := range ferialWeeks(days) {
		targets := evenWeekRotation
		if w%2 == 1 {
			targets = oddWeekRotation
		}

		for _, t := range targets {
			if c.rotation >= s.roster.RotationCap {
				return
			}
			for _, i := range week {
				d := &days[i]
				if d.Weekday != t.weekday {
					continue
				}
				if slot := d.slot(t.period); slot.IsFree() {
					s.assign(slot, s.rotation, d, c)
					c.rotation++
				}
				break
			}
		}
	}
}

// weekdayFillPass: 剩余时段按日历顺序交给对应时段的员工，直到总配额用完（包括已分配的周末班次）
func (s *Scheduler) weekdayFillPass(days []Day, q Quotas, c *counters) {
	for i := range days {
		d := &days[i]
		for _, p := range periods {
			slot := d.slot(p)
			if !slot.IsFree() {
				continue
			}
			for wi, w := range s.roster.Workers {
				if !w.Flex && w.Period == p && c.total[wi] < q.Workers[wi].Monthly {
					s.assign(slot, wi, d, c)
					break
				}
			}
		}
	}
}

// wildcardPass: 仍未分配的时段交给 flex 员工，配额用完后剩下的时段一律关闭
func (s *Scheduler) wildcardPass(days []Day, q Quotas, c *counters) {
	for i := range days {
		d := &days[i]
		for _, p := range periods {
			slot := d.slot(p)
			if !slot.IsFree() {
				continue
			}
			for wi, w := range s.roster.Workers {
				if w.Flex && c.total[wi] < q.Workers[wi].Monthly {
					s.assign(slot, wi, d, c)
					break
				}
			}
			if slot.IsFree() {
				*slot = closedSlot()
			}
		}
	}
}
