package domain

import "slices"

type Period string

const (
	PeriodNone      Period = ""
	PeriodMorning   Period = "morning"
	PeriodAfternoon Period = "afternoon"
)

// Worker 是排班表中的一名员工
type Worker struct {
	Name      string `json:"name" yaml:"name"`
	Period    Period `json:"period" yaml:"period"`        // 周末和工作日优先的时段
	Flex      bool   `json:"flex" yaml:"flex"`            // 吸收余数的员工
	BaseQuota int    `json:"baseQuota" yaml:"base_quota"` // 仅对 Flex 员工有效
	Rotation  bool   `json:"rotation" yaml:"rotation"`    // 参与周三/周四轮换
}

type Roster struct {
	Workers     []Worker `json:"workers" yaml:"workers"`
	RotationCap int      `json:"rotationCap" yaml:"rotation_cap"`
}

func DefaultRoster() Roster {
	return Roster{
		Workers: []Worker{
			{Name: "Dario", Period: PeriodMorning},
			{Name: "Marco", Period: PeriodAfternoon},
			{Name: "Morena", Flex: true, BaseQuota: 16, Rotation: true},
		},
		RotationCap: 8,
	}
}

func (r Roster) Names() []string {
	names := make([]string, len(r.Workers))
	for i, w := range r.Workers {
		names[i] = w.Name
	}
	return names
}

// IsValidSlotValue 判断一个值能否写入 morning/afternoon 字段
func (r Roster) IsValidSlotValue(v string) bool {
	if v == ShiftClosed || v == ShiftDoubleCoverage {
		return true
	}
	return slices.Contains(r.Names(), v)
}
