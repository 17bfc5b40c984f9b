package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/libreria-pagine/turni/backend/internal/cache"
	"github.com/libreria-pagine/turni/backend/internal/domain"
	"github.com/libreria-pagine/turni/backend/internal/notify"
	"github.com/libreria-pagine/turni/backend/internal/planner"
	"github.com/libreria-pagine/turni/backend/internal/repository"
	"github.com/libreria-pagine/turni/backend/internal/seed"
	"github.com/libreria-pagine/turni/backend/internal/utils"
)

func (h *Handler) GetRoster(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "organico recuperato", h.planner.Roster())
}

func (h *Handler) GetMonthShifts(w http.ResponseWriter, r *http.Request) {
	month := r.Context().Value(MonthCtx).(domain.Month)

	shifts, err := h.repository.ListShiftsByMonth(r.Context(), month)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "turni recuperati", shifts)
}

func (h *Handler) PreviewMonthShifts(w http.ResponseWriter, r *http.Request) {
	month := r.Context().Value(MonthCtx).(domain.Month)

	preview, err := h.planner.Preview(month)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "anteprima calcolata", preview)
}

// lockMonth 加锁失败时已经写好响应，调用方直接返回即可
func (h *Handler) lockMonth(w http.ResponseWriter, r *http.Request, month domain.Month) (func(), bool) {
	ctx, cancel := h.redisContext(r.Context())
	defer cancel()

	release, err := h.cache.LockMonth(ctx, month)
	if err != nil {
		switch {
		case errors.Is(err, cache.ErrLocked):
			h.errorResponse(w, r, "è già in corso un'operazione su questo mese, riprova tra poco")
		default:
			h.internalServerError(w, r, err)
		}
		return nil, false
	}

	return release, true
}

// invalidateStats 缓存失效失败不影响已经提交的写入
func (h *Handler) invalidateStats(ctx context.Context, month domain.Month) {
	ctx, cancel := h.redisContext(ctx)
	defer cancel()

	if err := h.cache.InvalidateStats(ctx, month); err != nil {
		slog.Error("impossibile invalidare le statistiche", "month", month.String(), "error", err)
	}
}

// notifyStaff 给每个关联了员工的用户发送本月的排班
func (h *Handler) notifyStaff(ctx context.Context, month domain.Month, shifts []*domain.Shift) {
	users, err := h.repository.GetAllUsers()
	if err != nil {
		slog.Error("impossibile leggere gli utenti per le notifiche", "error", err)
		return
	}

	for _, msg := range notify.PlanMessages(month, users, shifts) {
		if err := h.publisher.Publish(ctx, msg); err != nil {
			slog.Error("impossibile inviare la notifica dei turni", "to", msg.To, "error", err)
		}
	}
}

func (h *Handler) GenerateMonthShifts(w http.ResponseWriter, r *http.Request) {
	month := r.Context().Value(MonthCtx).(domain.Month)

	release, ok := h.lockMonth(w, r, month)
	if !ok {
		return
	}
	defer release()

	result, err := h.planner.Generate(r.Context(), month)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			h.errorResponse(w, r, "i turni sono stati modificati da un'altra operazione, riprova")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if result.Status == planner.StatusSkipped {
		h.successResponse(w, r, "i turni di questo mese esistono già, nessuna modifica", result)
		return
	}

	h.invalidateStats(r.Context(), month)
	h.notifyStaff(r.Context(), month, result.Shifts)

	h.successResponse(w, r, "turni generati", result)
}

func (h *Handler) GenerateShiftRange(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From string `json:"from" validate:"required,datetime=2006-01"`
		To   string `json:"to" validate:"required,datetime=2006-01"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	from, _ := domain.ParseMonth(req.From)
	to, _ := domain.ParseMonth(req.To)
	months, err := planner.MonthRange(from, to)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 按顺序加锁，任何一个月份被占用就放弃
	for _, month := range months {
		release, ok := h.lockMonth(w, r, month)
		if !ok {
			return
		}
		defer release()
	}

	// 出错时已经提交的月份仍然需要让缓存失效并通知员工
	results, err := h.planner.GenerateRange(r.Context(), from, to)
	for i, res := range results {
		if res != nil && res.Status == planner.StatusGenerated {
			h.invalidateStats(r.Context(), months[i])
			h.notifyStaff(r.Context(), months[i], res.Shifts)
		}
	}

	if err != nil {
		h.rangeFailure(w, r, err, results)
		return
	}

	h.successResponse(w, r, "turni generati", results)
}

// rangeFailure 报告部分失败，data 中失败或未执行的月份为 null
func (h *Handler) rangeFailure(w http.ResponseWriter, r *http.Request, err error, results []*planner.Result) {
	status := http.StatusOK
	reason := "i turni sono stati modificati da un'altra operazione"
	if !errors.Is(err, repository.ErrConflict) {
		h.logInternalServerError(r, err)
		status = http.StatusInternalServerError
		reason = "errore interno del server"
	}

	saved := "nessun mese salvato"
	if months := planner.MonthsWithStatus(results, planner.StatusGenerated); len(months) > 0 {
		saved = "mesi salvati: " + strings.Join(months, ", ")
	}

	h.writeJSON(w, r, status, Response{
		Success: false,
		Message: fmt.Sprintf("generazione interrotta (%s), %s", reason, saved),
		Data:    results,
	})
}

func (h *Handler) DeleteMonthShifts(w http.ResponseWriter, r *http.Request) {
	month := r.Context().Value(MonthCtx).(domain.Month)

	release, ok := h.lockMonth(w, r, month)
	if !ok {
		return
	}
	defer release()

	n, err := h.planner.Delete(r.Context(), month)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.invalidateStats(r.Context(), month)

	h.successResponse(w, r, fmt.Sprintf("eliminati %d turni", n), map[string]int64{"deleted": n})
}

func (h *Handler) GetMonthStats(w http.ResponseWriter, r *http.Request) {
	month := r.Context().Value(MonthCtx).(domain.Month)

	ctx, cancel := h.redisContext(r.Context())
	defer cancel()

	stats, hit, err := h.cache.GetStats(ctx, month)
	if err != nil {
		// redis 不可用时直接计算
		slog.Error("impossibile leggere le statistiche dalla cache", "month", month.String(), "error", err)
	}
	if hit {
		h.successResponse(w, r, "statistiche recuperate", stats)
		return
	}

	// 代数必须在读取班次之前获取，计算期间的写入会让这次缓存写入作废
	gen, genErr := h.cache.StatsGeneration(ctx, month)
	if genErr != nil {
		slog.Error("impossibile leggere la generazione delle statistiche", "month", month.String(), "error", genErr)
	}

	stats, err = h.planner.Stats(r.Context(), month)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if genErr == nil {
		if _, err := h.cache.SetStats(ctx, month, gen, stats); err != nil {
			slog.Error("impossibile salvare le statistiche nella cache", "month", month.String(), "error", err)
		}
	}

	h.successResponse(w, r, "statistiche recuperate", stats)
}

func (h *Handler) ExportMonthShifts(w http.ResponseWriter, r *http.Request) {
	month := r.Context().Value(MonthCtx).(domain.Month)

	shifts, err := h.repository.ListShiftsByMonth(r.Context(), month)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="turni-%s.csv"`, month))
	if err := seed.WriteCSV(w, shifts); err != nil {
		// 响应头已经发出，只能记录日志
		h.logInternalServerError(r, err)
	}
}

func (h *Handler) ImportMonthShifts(w http.ResponseWriter, r *http.Request) {
	month := r.Context().Value(MonthCtx).(domain.Month)

	shifts, err := seed.ReadCSV(r.Body, month)
	if err != nil {
		h.badRequest(w, r, fmt.Errorf("CSV non valido: %w", err))
		return
	}
	if err := utils.ValidateMonthShifts(month, h.planner.Roster(), shifts); err != nil {
		h.badRequest(w, r, err)
		return
	}

	release, ok := h.lockMonth(w, r, month)
	if !ok {
		return
	}
	defer release()

	if err := h.repository.InsertMonthShifts(r.Context(), month, shifts); err != nil {
		switch {
		case errors.Is(err, repository.ErrMonthAlreadyGenerated):
			h.errorResponse(w, r, "i turni di questo mese esistono già, eliminali prima di importare")
		case errors.Is(err, repository.ErrConflict):
			h.errorResponse(w, r, "i turni sono stati modificati da un'altra operazione, riprova")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.invalidateStats(r.Context(), month)

	h.successResponse(w, r, fmt.Sprintf("importati %d turni", len(shifts)), shifts)
}

func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)
	h.successResponse(w, r, "turno recuperato", shift)
}

func (h *Handler) UpdateShift(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)
	month := r.Context().Value(MonthCtx).(domain.Month)

	var req struct {
		MorningShift   *string `json:"morningShift" validate:"omitempty,min=1"`
		AfternoonShift *string `json:"afternoonShift" validate:"omitempty,min=1"`
		Notes          *string `json:"notes" validate:"omitempty,max=500"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.MorningShift != nil {
		shift.MorningShift = *req.MorningShift
	}
	if req.AfternoonShift != nil {
		shift.AfternoonShift = *req.AfternoonShift
	}
	if req.Notes != nil {
		shift.Notes = *req.Notes
	}

	if err := utils.ValidateShiftValues(h.planner.Roster(), shift); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.UpdateShift(r.Context(), shift); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "il turno è stato modificato da un'altra operazione, riprova")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.invalidateStats(r.Context(), month)

	h.successResponse(w, r, "turno aggiornato", shift)
}

func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)
	month := r.Context().Value(MonthCtx).(domain.Month)

	if err := h.repository.DeleteShift(r.Context(), shift.ID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "turno non trovato")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.invalidateStats(r.Context(), month)

	h.successResponse(w, r, "turno eliminato", nil)
}
