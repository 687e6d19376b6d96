package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// RunMigrations applies any pending .up.sql migrations from the migrations
// directory.
func RunMigrations(config Config, migrationsPath string) error {
	sqlDB, err := sql.Open("pgx", config.DSN())
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}

	driver, err := pgxmigrate.WithInstance(sqlDB, &pgxmigrate.Config{})
	if err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("failed to prepare migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, config.DBName, driver)
	if err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("failed to load migrations from %s: %w", migrationsPath, err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	srcErr, dbErr := m.Close()
	if srcErr != nil {
		log.Printf("migration source close: %v", srcErr)
	}
	if dbErr != nil {
		log.Printf("migration db close: %v", dbErr)
	}

	return nil
}
