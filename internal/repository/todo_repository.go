package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ahmaruff/todos-api/internal/database"
	"github.com/ahmaruff/todos-api/internal/models"
	"github.com/ahmaruff/todos-api/internal/utils"
)

// GormTodoRepository is a GORM implementation of TodoRepository
type GormTodoRepository struct {
	db *gorm.DB
}

// NewTodoRepository creates a new TodoRepository
func NewTodoRepository(db *gorm.DB) TodoRepository {
	return &GormTodoRepository{db: db}
}

// Create inserts a todo inside a transaction
func (r *GormTodoRepository) Create(ctx context.Context, todo *models.Todo) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(todo).Error
	})
}

// Update loads the todo, applies mutate and saves it inside one transaction
func (r *GormTodoRepository) Update(ctx context.Context, id string, mutate func(todo *models.Todo)) (*models.Todo, error) {
	var todo models.Todo

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&todo).Error; err != nil {
			return err
		}

		mutate(&todo)

		return tx.Save(&todo).Error
	})
	if err != nil {
		return nil, err
	}

	return &todo, nil
}

// Delete loads and deletes the todo inside one transaction
func (r *GormTodoRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var todo models.Todo
		if err := tx.Where("id = ?", id).First(&todo).Error; err != nil {
			return err
		}

		return tx.Delete(&todo).Error
	})
}

// FindByID finds a todo by ID
func (r *GormTodoRepository) FindByID(ctx context.Context, id string) (*models.Todo, error) {
	var todo models.Todo

	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&todo).Error; err != nil {
		return nil, err
	}

	return &todo, nil
}

// List returns one page of matching todos and the total count
func (r *GormTodoRepository) List(ctx context.Context, filter TodoFilter, params utils.PaginationParams) ([]models.Todo, int64, error) {
	var todos []models.Todo

	query := r.db.WithContext(ctx).Model(&models.Todo{}).Scopes(filter.Scope)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Scopes(database.Latest, database.Paginate(params)).Find(&todos).Error; err != nil {
		return nil, 0, err
	}

	return todos, total, nil
}

// ListAll returns every matching todo, newest first
func (r *GormTodoRepository) ListAll(ctx context.Context, filter TodoFilter) ([]models.Todo, error) {
	var todos []models.Todo

	err := r.db.WithContext(ctx).
		Model(&models.Todo{}).
		Scopes(filter.Scope, database.Latest).
		Find(&todos).Error
	if err != nil {
		return nil, err
	}

	return todos, nil
}

// Chunk feeds matching todos to fn in batches of size
func (r *GormTodoRepository) Chunk(ctx context.Context, filter TodoFilter, size int, fn func(batch []models.Todo) error) error {
	var batch []models.Todo

	return r.db.WithContext(ctx).
		Model(&models.Todo{}).
		Scopes(filter.Scope).
		FindInBatches(&batch, size, func(tx *gorm.DB, _ int) error {
			return fn(batch)
		}).Error
}

type groupCount struct {
	Value string
	Total int64
}

// CountBy groups matching todos by column ("status" or "priority")
func (r *GormTodoRepository) CountBy(ctx context.Context, column string, filter TodoFilter) (map[string]int64, error) {
	if column != "status" && column != "priority" {
		return nil, gorm.ErrInvalidField
	}

	var rows []groupCount
	err := r.db.WithContext(ctx).
		Model(&models.Todo{}).
		Scopes(filter.Scope).
		Select(column + " AS value, COUNT(*) AS total").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Value] = row.Total
	}

	return counts, nil
}

// Assignments returns assignee, status and time tracked of matching todos
func (r *GormTodoRepository) Assignments(ctx context.Context, filter TodoFilter) ([]models.Todo, error) {
	var todos []models.Todo

	err := r.db.WithContext(ctx).
		Model(&models.Todo{}).
		Scopes(filter.Scope).
		Select("assignee", "status", "time_tracked").
		Find(&todos).Error
	if err != nil {
		return nil, err
	}

	return todos, nil
}
