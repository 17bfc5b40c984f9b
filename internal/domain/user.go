package domain

import (
	"time"
)

type Role string

const (
	RoleOwner Role = "titolare"
	RoleClerk Role = "commesso"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	WorkerName   string    `json:"workerName"` // 对应排班表中的员工名，管理员可以为空
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}
