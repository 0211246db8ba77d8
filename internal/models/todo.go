package models

import (
	"time"

	"github.com/ahmaruff/todos-api/internal/utils"
	"gorm.io/gorm"
)

type TodoStatus string

const (
	TodoStatusPending    TodoStatus = "pending"
	TodoStatusOpen       TodoStatus = "open"
	TodoStatusInProgress TodoStatus = "in_progress"
	TodoStatusCompleted  TodoStatus = "completed"
)

// TodoStatuses lists every status in display order.
var TodoStatuses = []TodoStatus{
	TodoStatusPending,
	TodoStatusOpen,
	TodoStatusInProgress,
	TodoStatusCompleted,
}

type TodoPriority string

const (
	TodoPriorityLow    TodoPriority = "low"
	TodoPriorityMedium TodoPriority = "medium"
	TodoPriorityHigh   TodoPriority = "high"
)

// TodoPriorities lists every priority in display order.
var TodoPriorities = []TodoPriority{
	TodoPriorityLow,
	TodoPriorityMedium,
	TodoPriorityHigh,
}

// Todo is a task record. Assignee holds a comma-separated list of names.
type Todo struct {
	ID          string       `gorm:"type:char(26);primarykey" json:"id"`
	Title       string       `gorm:"type:varchar(255);not null" json:"title"`
	Assignee    *string      `gorm:"type:varchar(255)" json:"assignee"`
	DueDate     time.Time    `gorm:"not null" json:"due_date"`
	TimeTracked int          `gorm:"not null;default:0" json:"time_tracked"`
	Status      TodoStatus   `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Priority    TodoPriority `gorm:"type:varchar(20);not null" json:"priority"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// BeforeCreate assigns the ULID primary key.
func (t *Todo) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = utils.NewID()
	}
	return nil
}

// BeforeSave keeps due dates in UTC.
func (t *Todo) BeforeSave(tx *gorm.DB) error {
	t.DueDate = t.DueDate.UTC()
	return nil
}
