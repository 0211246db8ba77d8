package repository

import (
	"context"

	"github.com/ahmaruff/todos-api/internal/models"
	"github.com/ahmaruff/todos-api/internal/utils"
)

// TodoRepository defines the interface for todo data access
type TodoRepository interface {
	// Create inserts a todo inside a transaction
	Create(ctx context.Context, todo *models.Todo) error

	// Update loads the todo, applies mutate and saves it inside one transaction
	Update(ctx context.Context, id string, mutate func(todo *models.Todo)) (*models.Todo, error)

	// Delete loads and deletes the todo inside one transaction
	Delete(ctx context.Context, id string) error

	// FindByID finds a todo by ID
	FindByID(ctx context.Context, id string) (*models.Todo, error)

	// List returns one page of matching todos and the total count
	List(ctx context.Context, filter TodoFilter, params utils.PaginationParams) ([]models.Todo, int64, error)

	// ListAll returns every matching todo, newest first
	ListAll(ctx context.Context, filter TodoFilter) ([]models.Todo, error)

	// Chunk feeds matching todos to fn in batches of size
	Chunk(ctx context.Context, filter TodoFilter, size int, fn func(batch []models.Todo) error) error

	// CountBy groups matching todos by column ("status" or "priority")
	CountBy(ctx context.Context, column string, filter TodoFilter) (map[string]int64, error)

	// Assignments returns assignee, status and time tracked of matching todos
	Assignments(ctx context.Context, filter TodoFilter) ([]models.Todo, error)
}
