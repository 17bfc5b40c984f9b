package repository

import (
	"context"
	"fmt"
	"time"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL,
		worker_name TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		version INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS shifts (
		id BIGSERIAL PRIMARY KEY,
		shift_date TEXT NOT NULL UNIQUE,
		month_year TEXT NOT NULL,
		day_of_week TEXT NOT NULL,
		morning_shift TEXT NOT NULL CHECK (morning_shift <> ''),
		afternoon_shift TEXT NOT NULL CHECK (afternoon_shift <> ''),
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		version INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE INDEX IF NOT EXISTS shifts_month_year_idx ON shifts (month_year)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL,
		worker_name TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		version INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS shifts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		shift_date TEXT NOT NULL UNIQUE,
		month_year TEXT NOT NULL,
		day_of_week TEXT NOT NULL,
		morning_shift TEXT NOT NULL CHECK (morning_shift <> ''),
		afternoon_shift TEXT NOT NULL CHECK (afternoon_shift <> ''),
		notes TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		version INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE INDEX IF NOT EXISTS shifts_month_year_idx ON shifts (month_year)`,
}

func SchemaFor(driver string) ([]string, error) {
	switch driver {
	case "pgx", "postgres":
		return postgresSchema, nil
	case "sqlite3":
		return sqliteSchema, nil
	}
	return nil, fmt.Errorf("driver di database non supportato: %s", driver)
}

// Migrate 创建表结构，可以重复执行
func (r *Repository) Migrate() error {
	stmts, err := SchemaFor(r.cfg.Database.Driver)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	for _, stmt := range stmts {
		if _, err := r.dbpool.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}
