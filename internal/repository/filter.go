package repository

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// TodoFilter is the typed form of the list, chart and export query string.
// Zero values mean "no constraint".
type TodoFilter struct {
	Title    string
	Assignee string
	Status   string
	Priority string
	Start    *time.Time
	End      *time.Time
	Min      *int
	Max      *int
}

// StartOfDay returns midnight UTC of the calendar day of t.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last nanosecond of the UTC calendar day of t.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(24*time.Hour - time.Nanosecond)
}

// AssigneeNames splits the comma separated assignee filter.
func (f TodoFilter) AssigneeNames() []string {
	return SplitAssignees(f.Assignee)
}

// SplitAssignees splits a comma separated list, trimming names and
// dropping empty ones.
func SplitAssignees(list string) []string {
	var names []string
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// DueDateRange keeps only the due date bounds.
func (f TodoFilter) DueDateRange() TodoFilter {
	return TodoFilter{Start: f.Start, End: f.End}
}

// Scope applies the filter to a query.
func (f TodoFilter) Scope(db *gorm.DB) *gorm.DB {
	if title := strings.TrimSpace(f.Title); title != "" {
		db = db.Where("title LIKE ?", "%"+title+"%")
	}

	switch {
	case f.Start != nil && f.End != nil:
		db = db.Where("due_date BETWEEN ? AND ?", StartOfDay(*f.Start), EndOfDay(*f.End))
	case f.Start != nil:
		db = db.Where("due_date >= ?", StartOfDay(*f.Start))
	case f.End != nil:
		db = db.Where("due_date <= ?", EndOfDay(*f.End))
	}

	if f.Min != nil {
		db = db.Where("time_tracked >= ?", *f.Min)
	}
	if f.Max != nil {
		db = db.Where("time_tracked <= ?", *f.Max)
	}

	if names := f.AssigneeNames(); len(names) > 0 {
		group := db.Session(&gorm.Session{NewDB: true})
		for i, name := range names {
			match := assigneeMatch(db, name)
			if i == 0 {
				group = group.Where(match)
			} else {
				group = group.Or(match)
			}
		}
		db = db.Where(group)
	}

	if status := strings.TrimSpace(f.Status); status != "" {
		db = db.Where("status = ?", status)
	}
	if priority := strings.TrimSpace(f.Priority); priority != "" {
		db = db.Where("priority = ?", priority)
	}

	return db
}

// assigneeMatch matches name as a whole token of the comma separated
// assignee column.
func assigneeMatch(db *gorm.DB, name string) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true}).
		Where("assignee = ?", name).
		Or("assignee LIKE ?", name+",%").
		Or("assignee LIKE ?", "%, "+name).
		Or("assignee LIKE ?", "%,"+name).
		Or("assignee LIKE ?", "%, "+name+",%").
		Or("assignee LIKE ?", "%,"+name+",%")
}
