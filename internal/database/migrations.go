package database

import (
	"fmt"

	"github.com/ahmaruff/todos-api/internal/models"
	"gorm.io/gorm"
)

// AddIndexes adds the indexes used by filtering, charting and sorting
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		name    string
		columns string
	}{
		{"idx_todos_status", "status"},
		{"idx_todos_priority", "priority"},
		{"idx_todos_due_date", "due_date"},
		{"idx_todos_created_at", "created_at"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(&models.Todo{}, idx.name) {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON todos (%s)", idx.name, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}
