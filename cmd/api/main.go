package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/libreria-pagine/turni/backend/internal/cache"
	"github.com/libreria-pagine/turni/backend/internal/config"
	"github.com/libreria-pagine/turni/backend/internal/domain"
	"github.com/libreria-pagine/turni/backend/internal/handler"
	"github.com/libreria-pagine/turni/backend/internal/notify"
	"github.com/libreria-pagine/turni/backend/internal/planner"
	"github.com/libreria-pagine/turni/backend/internal/repository"
	"github.com/libreria-pagine/turni/backend/internal/scheduler"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/mattn/go-sqlite3"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 加载配置
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("impossibile caricare la configurazione", "error", err)
		return
	}

	/**********************************************
	 * 加载排班表
	 **********************************************/
	roster, err := scheduler.LoadRoster(cfg.Planner.RosterFile)
	if err != nil {
		logger.Error("impossibile caricare l'organico", "error", err)
		return
	}
	sched, err := scheduler.New(roster)
	if err != nil {
		logger.Error("organico non valido", "error", err)
		return
	}

	/**********************************************
	 * 连接数据库
	 **********************************************/
	dbpool, err := repository.Open(cfg)
	if err != nil {
		logger.Error("impossibile connettersi al database", "driver", cfg.Database.Driver, "error", err)
		return
	}
	defer dbpool.Close()

	repo := repository.NewRepository(cfg, dbpool)
	if err := repo.Migrate(); err != nil {
		logger.Error("impossibile creare lo schema del database", "error", err)
		return
	}

	/**********************************************
	 * 确保数据库中存在初始管理员
	 **********************************************/
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.InitialAdmin.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("impossibile calcolare l'hash della password iniziale", "error", err)
		return
	}
	initialAdmin := &domain.User{
		Username:     cfg.InitialAdmin.Username,
		PasswordHash: string(passwordHash),
		FullName:     cfg.InitialAdmin.FullName,
		Email:        cfg.InitialAdmin.Email,
		Role:         domain.RoleOwner,
	}
	if err := repo.CreateUser(initialAdmin); err != nil {
		// 如果返回 users_username_key，说明数据库中已经存在初始管理员，不处理
		if name, ok := repository.ConstraintName(err); !ok || name != "users_username_key" {
			logger.Error("impossibile creare l'amministratore iniziale", "error", err)
			return
		}
	}

	/**********************************************
	 * 连接 rabbitmq
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("impossibile connettersi a rabbitmq", "error", err)
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("impossibile aprire il canale", "error", err)
		return
	}
	defer ch.Close()

	if _, err := notify.DeclareQueue(ch, cfg.RabbitMQ.Queue); err != nil {
		logger.Error("impossibile dichiarare la coda", "error", err)
		return
	}
	publisher := notify.NewPublisher(ch, cfg.RabbitMQ.Queue, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second)

	/**********************************************
	 * 连接 redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password:    cfg.Redis.Password,
		DB:          0,
		DialTimeout: time.Duration(cfg.Redis.ConnectTimeout) * time.Second,
	})
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Redis.ConnectTimeout)*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("impossibile connettersi a redis", "error", err)
		return
	}

	c := cache.New(rdb,
		time.Duration(cfg.Planner.GenerationLockTTL)*time.Second,
		time.Duration(cfg.Planner.StatsCacheTTL)*time.Second,
	)

	/**********************************************
	 * 创建 handler
	 **********************************************/
	p := planner.New(sched, repo, cfg.Planner.RangeParallelism)

	h, err := handler.NewHandler(cfg, repo, p, c, publisher)
	if err != nil {
		logger.Error("impossibile creare l'handler", "error", err)
		return
	}
	h.RegisterRoutes()

	/**********************************************
	 * 启动 HTTP 服务器
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      h.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("avvio del server...", "port", cfg.Server.Port, "workers", len(roster.Workers))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("impossibile avviare il server", slog.String("error", err.Error()))
			return
		}
	}()

	<-quit
	logger.Info("arresto del server...")

	ctx, cancel = context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("arresto del server non riuscito", slog.String("error", err.Error()))
	}
	logger.Info("server arrestato")
}
