package handler

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/it"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	it_translations "github.com/go-playground/validator/v10/translations/it"
	"github.com/libreria-pagine/turni/backend/internal/config"
	"github.com/libreria-pagine/turni/backend/internal/domain"
	"github.com/libreria-pagine/turni/backend/internal/planner"
	"github.com/libreria-pagine/turni/backend/internal/repository"
)

// Cache 由 internal/cache 基于 redis 实现
type Cache interface {
	LockMonth(ctx context.Context, month domain.Month) (func(), error)
	GetStats(ctx context.Context, month domain.Month) ([]domain.WorkerStats, bool, error)
	StatsGeneration(ctx context.Context, month domain.Month) (int64, error)
	SetStats(ctx context.Context, month domain.Month, gen int64, stats []domain.WorkerStats) (bool, error)
	InvalidateStats(ctx context.Context, month domain.Month) error
	SetOTP(ctx context.Context, purpose, username, otp string, ttl time.Duration) error
	ConsumeOTP(ctx context.Context, purpose, username, otp string) error
}

type Publisher interface {
	Publish(ctx context.Context, msg domain.MailMessage) error
}

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	repository *repository.Repository
	planner    *planner.Planner
	cache      Cache
	publisher  Publisher
	translator ut.Translator

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, p *planner.Planner, c Cache, pub Publisher) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	it := it.New()
	uni := ut.New(it, it)
	trans, _ := uni.GetTranslator("it")
	if err := it_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		repository: repo,
		planner:    p,
		cache:      c,
		publisher:  pub,
		translator: trans,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.requestID)
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	owner := h.RequiredRole([]domain.Role{domain.RoleOwner})

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Route("/reset-password", func(r chi.Router) {
			r.Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
			r.With(h.month).Get("/shifts/{month}", h.GetMyShifts)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(owner).Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin, owner).Patch("/", h.UpdateUser)
				r.With(h.preventOperateInitialAdmin, owner).Delete("/", h.DeleteUser)
				r.With(owner).Patch("/password", h.UpdateUserPassword)
			})
		})

		r.Get("/roster", h.GetRoster)

		r.Route("/shifts", func(r chi.Router) {
			r.With(owner).Post("/generate-range", h.GenerateShiftRange)
			r.Route("/{month}", func(r chi.Router) {
				r.Use(h.month)
				r.Get("/", h.GetMonthShifts)
				r.Get("/preview", h.PreviewMonthShifts)
				r.Get("/stats", h.GetMonthStats)
				r.Get("/export", h.ExportMonthShifts)
				r.With(owner).Post("/generate", h.GenerateMonthShifts)
				r.With(owner).Post("/import", h.ImportMonthShifts)
				r.With(owner).Delete("/", h.DeleteMonthShifts)
				r.Route("/{date}", func(r chi.Router) {
					r.Use(h.shift)
					r.Get("/", h.GetShift)
					r.With(owner).Patch("/", h.UpdateShift)
					r.With(owner).Delete("/", h.DeleteShift)
				})
			})
		})
	})
}

func (h *Handler) redisContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, time.Duration(h.config.Redis.OperationExpiration)*time.Second)
}
