// Package store persists tasks and attendance records. Every query is
// scoped by company id.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"studio-go/app/models"
)

// ErrNotFound is returned when a record does not exist for the company.
var ErrNotFound = errors.New("not found")

// TaskFilter narrows a task listing. Empty fields do not filter.
type TaskFilter struct {
	DeliverableID string
	ParentTaskID  string
}

// AttendanceFilter narrows an attendance listing. From and To are
// inclusive date keys; empty fields do not filter.
type AttendanceFilter struct {
	EmployeeID string
	From       string
	To         string
}

// Store is implemented by the Neo4j and SQLite backends.
type Store interface {
	ListTasks(ctx context.Context, companyID string, filter TaskFilter) ([]*models.Task, error)
	GetTask(ctx context.Context, companyID, taskID string) (*models.Task, error)
	CreateTask(ctx context.Context, task *models.Task) (*models.Task, error)
	UpdateTask(ctx context.Context, companyID, taskID string, update models.TaskUpdate) (*models.Task, error)
	DeleteTask(ctx context.Context, companyID, taskID string) error

	GetAttendance(ctx context.Context, companyID, employeeID, date string) (*models.Attendance, error)
	UpsertAttendance(ctx context.Context, record *models.Attendance) (*models.Attendance, error)
	InsertAttendance(ctx context.Context, record *models.Attendance) (*models.Attendance, error)
	ListAttendance(ctx context.Context, companyID string, filter AttendanceFilter) ([]*models.Attendance, error)

	Close(ctx context.Context) error
}

// prepareTask fills the id and creation time of a new task.
func prepareTask(task *models.Task, now time.Time) {
	if !task.HasID() {
		task.ID = models.IDPtr(newID())
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now.UTC()
	}
}

func prepareAttendance(record *models.Attendance) {
	if record.ID == "" {
		record.ID = newID()
	}
}

// applyUpdate changes the task in place. Renaming an auto-generated
// placeholder turns it into a manual task.
func applyUpdate(task *models.Task, update models.TaskUpdate) {
	if update.Title != nil && *update.Title != task.Title {
		task.Title = *update.Title
		task.IsAutoGenerated = false
	}
	if update.Completed != nil {
		task.Completed = *update.Completed
	}
}

func newID() string {
	return uuid.New().String()
}
