package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/libreria-pagine/turni/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) GetMyInfo(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	h.successResponse(w, r, "profilo recuperato", myInfo)
}

func (h *Handler) UpdateMyPassword(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		OldPassword string `json:"oldPassword" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required,min=8"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(myInfo.PasswordHash), []byte(req.OldPassword)); err != nil {
		h.errorResponse(w, r, "la vecchia password è errata")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	myInfo.PasswordHash = string(hashedPassword)

	if err := h.repository.UpdateUser(myInfo); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "aggiornamento della password non riuscito, riprova")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "password aggiornata", nil)
}

// GetMyShifts 只返回当前用户在该月的班次
func (h *Handler) GetMyShifts(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	month := r.Context().Value(MonthCtx).(domain.Month)

	if myInfo.WorkerName == "" {
		h.errorResponse(w, r, "il tuo account non è collegato a nessun dipendente")
		return
	}

	shifts, err := h.repository.ListShiftsByMonth(r.Context(), month)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	mine := make([]*domain.Shift, 0)
	for _, s := range shifts {
		if s.MorningShift == myInfo.WorkerName || s.AfternoonShift == myInfo.WorkerName {
			mine = append(mine, s)
		}
	}

	h.successResponse(w, r, "turni recuperati", mine)
}
