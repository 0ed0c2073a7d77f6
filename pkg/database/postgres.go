package database

import (
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/gestionsaas/identity/pkg/config"
)

// Connect opens a Postgres connection pool from config.
func Connect(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}
