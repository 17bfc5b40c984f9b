package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/libreria-pagine/turni/backend/internal/domain"
	"github.com/libreria-pagine/turni/backend/internal/repository"
	"github.com/libreria-pagine/turni/backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) GetAllUserInfo(w http.ResponseWriter, r *http.Request) {
	users, err := h.repository.GetAllUsers()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "utenti recuperati", users)
}

// workerExists 允许空字符串，表示不关联任何员工
func (h *Handler) workerExists(name string) bool {
	if name == "" {
		return true
	}
	for _, w := range h.planner.Roster().Workers {
		if w.Name == name {
			return true
		}
	}
	return false
}

func (h *Handler) userConstraintError(w http.ResponseWriter, r *http.Request, err error) {
	name, ok := repository.ConstraintName(err)
	switch {
	case ok && name == "users_username_key":
		h.badRequest(w, r, errors.New("nome utente già in uso"))
	case ok && name == "users_email_key":
		h.badRequest(w, r, errors.New("email già in uso"))
	case errors.Is(err, sql.ErrNoRows):
		h.errorResponse(w, r, "aggiornamento non riuscito, riprova")
	default:
		h.internalServerError(w, r, err)
	}
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username   string `json:"username" validate:"required"`
		FullName   string `json:"fullName" validate:"required"`
		Email      string `json:"email" validate:"required,email"`
		Role       string `json:"role" validate:"required,oneof=titolare commesso"`
		WorkerName string `json:"workerName"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if !h.workerExists(req.WorkerName) {
		h.errorResponse(w, r, "dipendente non presente nell'organico")
		return
	}

	// 生成随机密码
	password := utils.GenerateRandomPassword(h.config.NewUser.PasswordLength)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	user := &domain.User{
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
		FullName:     req.FullName,
		Email:        req.Email,
		Role:         domain.Role(req.Role),
		WorkerName:   req.WorkerName,
	}

	if err := h.repository.CreateUser(user); err != nil {
		h.userConstraintError(w, r, err)
		return
	}

	mailMessage := domain.MailMessage{
		Type: domain.MailTypeCreateUser,
		To:   user.Email,
		Data: domain.CreateUserMailData{
			FullName: req.FullName,
			Username: req.Username,
			Password: password,
		},
	}

	// 用户已经写入数据库，邮件发送失败只记录日志
	if err := h.publisher.Publish(r.Context(), mailMessage); err != nil {
		slog.Error("impossibile inviare l'email di benvenuto", "username", user.Username, "error", err)
	}

	h.successResponse(w, r, "utente creato", user)
}

func (h *Handler) GetUserInfo(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)
	h.successResponse(w, r, "utente recuperato", user)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email      *string `json:"email" validate:"omitempty,email"`
		Role       *string `json:"role" validate:"omitempty,oneof=titolare commesso"`
		WorkerName *string `json:"workerName"`
		IsActive   *bool   `json:"isActive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	user := r.Context().Value(UserInfoCtx).(*domain.User)

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Role != nil {
		user.Role = domain.Role(*req.Role)
	}
	if req.WorkerName != nil {
		if !h.workerExists(*req.WorkerName) {
			h.errorResponse(w, r, "dipendente non presente nell'organico")
			return
		}
		user.WorkerName = *req.WorkerName
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := h.repository.UpdateUser(user); err != nil {
		h.userConstraintError(w, r, err)
		return
	}

	h.successResponse(w, r, "utente aggiornato", user)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	if err := h.repository.DeleteUser(user.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "utente eliminato", nil)
}

func (h *Handler) UpdateUserPassword(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	var req struct {
		Password string `json:"password" validate:"required,min=8"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	user.PasswordHash = string(hashedPassword)
	if err := h.repository.UpdateUser(user); err != nil {
		h.userConstraintError(w, r, err)
		return
	}

	h.successResponse(w, r, "password aggiornata", nil)
}
