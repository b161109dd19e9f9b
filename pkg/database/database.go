package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/config"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/medflow-scheduling/pkg/metrics"
)

func Connect(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	// Only slow queries and errors reach the log.
	gormLog := gormlogger.New(
		zap.NewStdLog(log.Named("gorm")),
		gormlogger.Config{
			SlowThreshold:             cfg.SlowQueryThreshold,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
		},
	)

	gormCfg := &gorm.Config{
		Logger:      gormLog,
		PrepareStmt: true,
		NowFunc:     func() time.Time { return time.Now().UTC() },
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: cfg.DSN(),
	}), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// ReportPoolStats publishes the open connection count until ctx is done.
func ReportPoolStats(ctx context.Context, db *gorm.DB, m *metrics.Collector, every time.Duration) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.DBConnections.Set(float64(sqlDB.Stats().OpenConnections))
		}
	}
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	start := time.Now()

	for _, schema := range []string{"clinical", "audit"} {
		if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)).Error; err != nil {
			return fmt.Errorf("creating schema %s: %w", schema, err)
		}
	}

	// btree_gist lets uuid equality share a GiST index with range overlap.
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS btree_gist").Error; err != nil {
		return fmt.Errorf("creating btree_gist extension: %w", err)
	}

	models := []any{
		&domain.AuditLog{},
		&doctor.Doctor{},
		&appointment.Appointment{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}

	if err := createConstraints(db); err != nil {
		return fmt.Errorf("creating constraints: %w", err)
	}

	if err := createIndexes(db, log); err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}

	log.Info("migrations completed", zap.Duration("duration", time.Since(start)))
	return nil
}

// ExclusionConstraint rejects two active appointments for the same doctor
// whose intervals overlap. Violations surface as SQLSTATE 23P01.
const ExclusionConstraint = "appointments_no_overlap"

func createConstraints(db *gorm.DB) error {
	constraints := []struct {
		name string
		ddl  string
	}{
		{
			name: "appointments_scheduled_interval_check",
			ddl:  `ALTER TABLE clinical.appointments ADD CONSTRAINT appointments_scheduled_interval_check CHECK (scheduled_end > scheduled_start)`,
		},
		{
			name: "appointments_actual_interval_check",
			ddl:  `ALTER TABLE clinical.appointments ADD CONSTRAINT appointments_actual_interval_check CHECK (actual_start IS NULL OR actual_end IS NULL OR actual_end > actual_start)`,
		},
		{
			name: ExclusionConstraint,
			ddl: `ALTER TABLE clinical.appointments ADD CONSTRAINT ` + ExclusionConstraint + ` EXCLUDE USING gist (
				doctor_id WITH =,
				tstzrange(scheduled_start, scheduled_end, '[)') WITH &&
			) WHERE (deleted_at IS NULL AND status NOT IN ('cancelled', 'no_show'))`,
		},
	}

	for _, c := range constraints {
		stmt := fmt.Sprintf(`DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
		%s;
	END IF;
END $$;`, c.name, c.ddl)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
	}
	return nil
}

func createIndexes(db *gorm.DB, log *zap.Logger) error {
	indexes := []struct {
		name  string
		query string
	}{
		{
			name:  "idx_appointments_doctor_schedule",
			query: `CREATE INDEX IF NOT EXISTS idx_appointments_doctor_schedule ON clinical.appointments (doctor_id, scheduled_start, scheduled_end) WHERE deleted_at IS NULL AND status NOT IN ('cancelled', 'no_show')`,
		},
		{
			name:  "idx_appointments_patient_schedule",
			query: `CREATE INDEX IF NOT EXISTS idx_appointments_patient_schedule ON clinical.appointments (patient_id, scheduled_start DESC) WHERE deleted_at IS NULL`,
		},
		{
			name:  "idx_appointments_time_range",
			query: `CREATE INDEX IF NOT EXISTS idx_appointments_time_range ON clinical.appointments (scheduled_start, status) WHERE deleted_at IS NULL`,
		},
	}

	for _, idx := range indexes {
		if err := db.Exec(idx.query).Error; err != nil {
			// Indexes are performance-only; a failure must not block startup.
			log.Warn("index creation failed", zap.String("index", idx.name), zap.Error(err))
		}
	}

	return nil
}
