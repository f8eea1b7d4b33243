package database

import (
	"fmt"
	"log/slog"

	"github.com/yukikurage/taskflow/internal/models"
	"gorm.io/gorm"
)

// AddIndexes adds the composite indexes that struct tags cannot express portably
func AddIndexes(db *gorm.DB) error {
	names := models.CurrentTableNames()

	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Comment threads are read per task, newest first
		{names.Comments, "idx_comments_task_created", "task_id, created_at"},
		{names.Tasks, "idx_tasks_created_at", "created_at"},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.table, idx.name) {
			slog.Debug("index already exists, skipping", "index", idx.name)
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		slog.Info("created index", "index", idx.name, "table", idx.table, "columns", idx.columns)
	}

	return nil
}

// MigrateDatabase creates the schema and indexes
func MigrateDatabase(db *gorm.DB) error {
	slog.Info("running database migrations")
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := AddIndexes(db); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}

	slog.Info("database migrations completed")
	return nil
}
