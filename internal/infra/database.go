package infra

import (
	"fmt"

	"garagepos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate,
// then applies idempotent SQL patches that GORM cannot express (the partial
// unique index guarding the single-open-session invariant).
//
// TranslateError is enabled so that a violation of uniq_cash_sessions_open
// surfaces as gorm.ErrDuplicatedKey instead of a raw SQLSTATE 23505, which is
// what the session service matches on.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := db.AutoMigrate(
		&model.Operator{},
		&model.CashSession{},
		&model.CashMovement{},
	); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}

	if err := applySchemaPatches(db); err != nil {
		return nil, fmt.Errorf("schema patches: %w", err)
	}

	return db, nil
}

// applySchemaPatches runs idempotent DDL statements that GORM AutoMigrate
// cannot fully handle on its own. Each statement uses IF NOT EXISTS guards so
// re-running on an already-patched DB is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// The single-open-session invariant. A check-then-insert in
		// application code alone is racy across processes; this index makes
		// the second concurrent open fail at commit with a duplicate key.
		{"partial unique index on the single open session", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uniq_cash_sessions_open') THEN
    CREATE UNIQUE INDEX uniq_cash_sessions_open
        ON cash_sessions ((status))
        WHERE status = 'open';
  END IF;
END $$`},
		// Range scans for the report aggregator.
		{"index for occurred_at range scans", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_cash_movements_occurred_at') THEN
    CREATE INDEX idx_cash_movements_occurred_at
        ON cash_movements (occurred_at);
  END IF;
END $$`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
