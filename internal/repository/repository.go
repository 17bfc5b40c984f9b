package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/libreria-pagine/turni/backend/internal/config"
	"github.com/mattn/go-sqlite3"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var (
	ErrMonthAlreadyGenerated = errors.New("i turni di questo mese esistono già")
	ErrConflict              = errors.New("conflitto con una modifica concorrente")
)

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

// Open 创建数据库连接池并确认可以连接
func Open(cfg *config.Config) (*sql.DB, error) {
	dbpool, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		dbpool.Close()
		return nil, err
	}

	return dbpool, nil
}

// ConstraintName 返回违反的唯一约束名，格式与 Postgres 默认的命名一致（如 users_username_key）
func ConstraintName(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != "23505" {
			return "", false
		}
		return pgErr.ConstraintName, true
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		// 错误信息形如 "UNIQUE constraint failed: users.username"
		_, cols, ok := strings.Cut(liteErr.Error(), "failed: ")
		if !ok {
			return "", true
		}
		first, _, _ := strings.Cut(cols, ",")
		return strings.ReplaceAll(strings.TrimSpace(first), ".", "_") + "_key", true
	}

	return "", false
}

func (r *Repository) queryContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
}

func (r *Repository) txContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
}

func wrapUnique(err error, what string) error {
	if _, ok := ConstraintName(err); ok {
		return fmt.Errorf("%s: %w", what, ErrConflict)
	}
	return err
}
