package migration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/akhil9281/AlgoTest-OrderApi/pkg/postgresql"
)

// Migration represents a single SQL migration file pair.
type Migration struct {
	ID      string
	Name    string
	UpSQL   string
	DownSQL string
}

// Runner handles PostgreSQL migration execution
type Runner struct {
	client       postgresql.PostgreSQLClient
	migrationDir string
	tableName    string
}

// Config for migration runner
type Config struct {
	MigrationDir string
	TableName    string // Migration table name (default: "schema_migrations")
}

// NewRunner creates a new migration runner for PostgreSQL
func NewRunner(client postgresql.PostgreSQLClient, config Config) *Runner {
	if config.TableName == "" {
		config.TableName = "schema_migrations"
	}

	return &Runner{
		client:       client,
		migrationDir: config.MigrationDir,
		tableName:    config.TableName,
	}
}

// Up applies all pending migrations in lexical order.
func (r *Runner) Up(ctx context.Context) error {
	if err := r.ensureMigrationTable(ctx); err != nil {
		return err
	}

	applied, err := r.appliedMigrations(ctx)
	if err != nil {
		return err
	}

	migrations, err := r.loadMigrations()
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.ID] {
			continue
		}

		if _, err := r.client.Exec(ctx, m.UpSQL); err != nil {
			return fmt.Errorf("migration %s failed: %w", m.ID, err)
		}

		insertSQL := fmt.Sprintf("INSERT INTO %s (id, name) VALUES ($1, $2)", r.tableName)
		if _, err := r.client.Exec(ctx, insertSQL, m.ID, m.Name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", m.ID, err)
		}
	}

	return nil
}

// ensureMigrationTable creates the schema_migrations table if it doesn't exist
func (r *Runner) ensureMigrationTable(ctx context.Context) error {
	createTableSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(255) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);
	`, r.tableName)

	_, err := r.client.Exec(ctx, createTableSQL)
	return err
}

// appliedMigrations returns a map of applied migration IDs
func (r *Runner) appliedMigrations(ctx context.Context) (map[string]bool, error) {
	applied := make(map[string]bool)

	query := fmt.Sprintf("SELECT id FROM %s ORDER BY applied_at", r.tableName)
	rows, err := r.client.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		applied[id] = true
	}

	return applied, rows.Err()
}

// loadMigrations loads all migration files from the migration directory
func (r *Runner) loadMigrations() ([]Migration, error) {
	upFiles, err := filepath.Glob(filepath.Join(r.migrationDir, "*.up.sql"))
	if err != nil {
		return nil, err
	}

	sort.Strings(upFiles)

	var migrations []Migration
	for _, upFile := range upFiles {
		upContent, err := os.ReadFile(upFile)
		if err != nil {
			return nil, err
		}

		fileName := filepath.Base(upFile)
		id := strings.TrimSuffix(fileName, ".up.sql")

		name := id
		if parts := strings.SplitN(id, "_", 2); len(parts) > 1 {
			name = parts[1]
		}

		m := Migration{
			ID:    id,
			Name:  name,
			UpSQL: string(upContent),
		}

		downFile := strings.Replace(upFile, ".up.sql", ".down.sql", 1)
		if downContent, err := os.ReadFile(downFile); err == nil {
			m.DownSQL = string(downContent)
		}

		migrations = append(migrations, m)
	}

	return migrations, nil
}
