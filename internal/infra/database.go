package infra

import (
	"fmt"

	"cierrecaja/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens a GORM connection backed by pgx. The schema is owned by the
// SQL migrations under migrations/ (see cmd/migrate); nothing is created here.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), GormConfig())
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return db, nil
}

// GormConfig is shared by the postgres connection and the sqlite test databases.
// TranslateError turns driver-specific unique violations into gorm.ErrDuplicatedKey.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}
}

// RunMigrations creates the schema with AutoMigrate and then applies the patches
// AutoMigrate cannot express. Used by tests and by APP_ENV=development; production
// schemas come from cmd/migrate.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Secuencia{},
		&model.CierreCaja{},
		&model.CierrePago{},
		&model.CierreDenominacion{},
		&model.Venta{},
		&model.VentaPago{},
		&model.Devolucion{},
		&model.Producto{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that both postgres and sqlite accept.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// at most one pending closure per scope
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_cierres_caja_pendiente_alcance
		    ON cierres_caja (alcance_clave) WHERE estado = 'pendiente'`,
		`INSERT INTO secuencias (nombre, valor) VALUES ('cierres_caja', 0)
		    ON CONFLICT (nombre) DO NOTHING`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
