package domain

const (
	MailTypeCreateUser         = "create_user"
	MailTypeResetPassword      = "reset_password"
	MailTypeShiftPlanGenerated = "shift_plan_generated"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type ResetPasswordMailData struct {
	FullName   string `json:"fullName"`
	OTP        string `json:"otp"`
	Expiration int    `json:"expiration"`
}

type ShiftPlanGeneratedMailData struct {
	FullName   string   `json:"fullName"`
	Month      string   `json:"month"`
	Mornings   []string `json:"mornings"`   // 该员工上午班的日期
	Afternoons []string `json:"afternoons"` // 该员工下午班的日期
	Total      int      `json:"total"`
}
