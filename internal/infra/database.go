package infra

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx. Schema is managed
// via SQL migrations (see migrations/); only idempotent patches that the
// migrate CLI may lag behind on are applied here.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
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

	if err := applySchemaPatches(db); err != nil {
		return nil, fmt.Errorf("schema patches: %w", err)
	}

	return db, nil
}

// applySchemaPatches runs idempotent DDL that was added after the initial
// deployment. Each statement uses IF NOT EXISTS semantics so re-running on an
// already-patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// migration 000002: retry columns for the identificacion sweep
		`DO $$ BEGIN
		  IF EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'multas') THEN
		    ALTER TABLE multas ADD COLUMN IF NOT EXISTS retry_count   INT         NOT NULL DEFAULT 0;
		    ALTER TABLE multas ADD COLUMN IF NOT EXISTS next_retry_at TIMESTAMPTZ;
		    ALTER TABLE multas ADD COLUMN IF NOT EXISTS last_error    TEXT;
		  END IF;
		END $$`,
		// migration 000002: partial index for the retry sweep query
		`DO $$ BEGIN
		  IF EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'multas')
		    AND NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_multas_pending_retry') THEN
		    CREATE INDEX idx_multas_pending_retry
		        ON multas (next_retry_at)
		        WHERE estado = 'pendiente_identificacion' AND next_retry_at IS NOT NULL;
		  END IF;
		END $$`,
		// facturacion eligibility predicate index
		`DO $$ BEGIN
		  IF EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'multas')
		    AND NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_multas_facturables') THEN
		    CREATE INDEX idx_multas_facturables
		        ON multas (empresa_id, fecha_comunicacion_organismo)
		        WHERE facturada = true;
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}

// RunMigrations applies schema patches for integration tests. Base schema is
// applied with the migrate CLI (or testcontainers init scripts).
func RunMigrations(db *gorm.DB) error {
	return applySchemaPatches(db)
}
