package scheduler

// countAvailable 统计可分配的时段数，以及其中落在周六和周日的部分
func countAvailable(days []Day) (total int, weekend int) {
	for i := range days {
		d := &days[i]
		for _, p := range periods {
			if !d.slot(p).IsFree() {
				continue
			}
			total++
			if d.IsWeekend() {
				weekend++
			}
		}
	}
	return total, weekend
}

/**
 * 计算每个员工的目标班次数
 * 		1. flex 员工有固定的基础配额，剩余的时段由其他员工平分，除不尽的部分归第一个 flex 员工
 * 		2. 周末时段由所有员工平分，余数同样归第一个 flex 员工
 * 配额只是目标，不是下限，剩余时段为负数时配额也会变成负数
 */
func (s *Scheduler) computeQuotas(days []Day) Quotas {
	available, weekendAvailable := countAvailable(days)

	workers := s.roster.Workers
	q := Quotas{
		Available:        available,
		WeekendAvailable: weekendAvailable,
		Workers:          make([]WorkerQuota, len(workers)),
	}

	remaining := available
	regular := 0
	for i, w := range workers {
		q.Workers[i].Worker = w.Name
		if w.Flex {
			remaining -= w.BaseQuota
			q.Workers[i].Monthly = w.BaseQuota
		} else {
			regular++
		}
	}

	share, rest := 0, remaining
	if regular > 0 {
		share = floorDiv(remaining, regular)
		rest = floorMod(remaining, regular)
	}
	for i, w := range workers {
		if !w.Flex {
			q.Workers[i].Monthly = share
		}
	}
	q.Workers[s.flex].Monthly += rest

	weekendShare := weekendAvailable / len(workers)
	weekendRest := weekendAvailable % len(workers)
	for i := range workers {
		q.Workers[i].Weekend = weekendShare
	}
	q.Workers[s.flex].Weekend += weekendRest

	return q
}
