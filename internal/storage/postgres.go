package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// NewPostgresStorage connects to the PostgreSQL catalog described by dsn and initializes the schema.
func NewPostgresStorage(ctx context.Context, dsn string) (*SQLStorage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLStorage{db: db, dialect: DialectPostgres}, nil
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS businesses (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	address TEXT,
	area TEXT,
	city TEXT,
	state TEXT,
	phone_number TEXT,
	phone_digits TEXT,
	website TEXT,
	category TEXT,
	subcategory TEXT,
	reviews_count INTEGER DEFAULT 0,
	reviews_average DOUBLE PRECISION,
	created_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_businesses_city ON businesses(city);
CREATE INDEX IF NOT EXISTS idx_businesses_phone_digits ON businesses(phone_digits);
`
