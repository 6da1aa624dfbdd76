package db

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chaima229/fraisScolaire-backend-sub001/internal/store"
)

// ConnectAndMigrate opens the database and brings the documents table up to
// date. SQL migrations run when MIGRATIONS=1|true|yes; otherwise AutoMigrate
// keeps the dev loop simple.
func ConnectAndMigrate() (*gorm.DB, error) {
	dsn := GetNormalizedDSN()
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN est vide, vérifiez la configuration de l'environnement")
	}
	var db *gorm.DB
	var err error
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}
	for i := 0; i < 10; i++ {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
		if err == nil {
			break
		}
		fmt.Println("Retrying DB connection...", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}

	// Basic connectivity test
	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}

	// Print masked DSN once for diagnostics
	masked := dsn
	if strings.Contains(masked, "password=") {
		re := regexp.MustCompile(`(password=)([^\s]+)`)
		masked = re.ReplaceAllString(masked, `${1}***`)
	}
	fmt.Println("[DB] Using DSN:", masked)

	if v := strings.ToLower(os.Getenv("MIGRATIONS")); v == "1" || v == "true" || v == "yes" {
		if err := runSQLMigrations(dsn); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		if migErr := db.AutoMigrate(&store.DocumentRow{}); migErr != nil {
			return nil, fmt.Errorf("automigrate documents: %w", migErr)
		}
	}

	if !db.Migrator().HasTable("documents") {
		return nil, errors.New("missing table after migration: documents")
	}
	// Seeding only when explicitly requested (e.g. development) via DB_SEED=1|true
	if v := strings.ToLower(os.Getenv("DB_SEED")); v == "1" || v == "true" || v == "yes" {
		seed(db)
	}
	return db, nil
}

// seed inserts the two active Scolarité tariffs for the current academic
// year when they are missing. Their sum defines the default amount of a new
// student's initial invoice.
func seed(db *gorm.DB) {
	annee := currentAcademicYear()
	base := []map[string]any{
		{"nom": "Frais Inscription", "montant": 500.0, "type": "Scolarité", "annee_scolaire": annee, "actif": true},
		{"nom": "Frais scolaire", "montant": 2500.0, "type": "Scolarité", "annee_scolaire": annee, "actif": true},
	}
	for _, t := range base {
		var count int64
		db.Model(&store.DocumentRow{}).
			Where("collection = ? AND data ->> 'nom' = ? AND data ->> 'annee_scolaire' = ?", "tarifs", t["nom"], annee).
			Count(&count)
		if count == 0 {
			db.Create(store.NewDocumentRow("tarifs", t))
		}
	}
}

// currentAcademicYear formats the running school year, e.g. "2025-2026".
// The year switches on September 1st.
func currentAcademicYear() string {
	now := time.Now()
	start := now.Year()
	if now.Month() < time.September {
		start--
	}
	return fmt.Sprintf("%d-%d", start, start+1)
}

// runSQLMigrations executes migrations in ./migrations using golang-migrate file source.
func runSQLMigrations(dsn string) error {
	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
