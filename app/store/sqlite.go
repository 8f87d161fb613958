package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"studio-go/app/models"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
    id                TEXT PRIMARY KEY,
    company_id        TEXT NOT NULL,
    deliverable_id    TEXT,
    parent_task_id    TEXT,
    title             TEXT NOT NULL,
    completed         INTEGER NOT NULL DEFAULT 0,
    is_auto_generated INTEGER NOT NULL DEFAULT 0,
    created_at        INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS tasks_company_idx ON tasks (company_id, deliverable_id)`,
	`CREATE TABLE IF NOT EXISTS attendance (
    id          TEXT PRIMARY KEY,
    company_id  TEXT NOT NULL,
    employee_id TEXT NOT NULL,
    date        TEXT NOT NULL,
    check_in    INTEGER NOT NULL,
    check_out   INTEGER,
    UNIQUE (company_id, employee_id, date)
)`,
}

const taskColumns = `id, company_id, deliverable_id, parent_task_id, title, completed, is_auto_generated, created_at`

// SQLiteStore implements Store on an embedded SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the database at path and ensures the schema.
// Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writes.
	db.SetMaxOpenConns(1)

	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close(context.Context) error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var (
		id, companyID, title string
		deliverable, parent  sql.NullString
		completed, autoGen   bool
		createdAt            int64
	)
	if err := row.Scan(&id, &companyID, &deliverable, &parent, &title, &completed, &autoGen, &createdAt); err != nil {
		return nil, err
	}
	return &models.Task{
		ID:              models.IDPtr(id),
		CompanyID:       companyID,
		DeliverableID:   models.IDPtr(deliverable.String),
		ParentTaskID:    models.IDPtr(parent.String),
		Title:           title,
		Completed:       completed,
		IsAutoGenerated: autoGen,
		CreatedAt:       time.Unix(0, createdAt).UTC(),
	}, nil
}

func nullID(id *models.ID) sql.NullString {
	v := models.IDValue(id)
	return sql.NullString{String: v, Valid: v != ""}
}

// ListTasks returns the company's tasks in creation order.
func (s *SQLiteStore) ListTasks(ctx context.Context, companyID string, filter TaskFilter) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE company_id = ?`
	args := []any{companyID}
	if filter.DeliverableID != "" {
		query += ` AND deliverable_id = ?`
		args = append(args, filter.DeliverableID)
	}
	if filter.ParentTaskID != "" {
		query += ` AND parent_task_id = ?`
		args = append(args, filter.ParentTaskID)
	}
	query += ` ORDER BY created_at, rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// GetTask retrieves a single task by its ID.
func (s *SQLiteStore) GetTask(ctx context.Context, companyID, taskID string) (*models.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE company_id = ? AND id = ?`, companyID, taskID)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", taskID, err)
	}
	return task, nil
}

// CreateTask inserts the task, assigning an id and creation time if missing.
func (s *SQLiteStore) CreateTask(ctx context.Context, task *models.Task) (*models.Task, error) {
	prepareTask(task, s.now())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		models.IDValue(task.ID), task.CompanyID, nullID(task.DeliverableID), nullID(task.ParentTaskID),
		task.Title, task.Completed, task.IsAutoGenerated, task.CreatedAt.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// UpdateTask applies a partial update and returns the stored task.
func (s *SQLiteStore) UpdateTask(ctx context.Context, companyID, taskID string, update models.TaskUpdate) (*models.Task, error) {
	task, err := s.GetTask(ctx, companyID, taskID)
	if err != nil {
		return nil, err
	}
	applyUpdate(task, update)

	_, err = s.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, completed = ?, is_auto_generated = ? WHERE company_id = ? AND id = ?`,
		task.Title, task.Completed, task.IsAutoGenerated, companyID, taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("update task %s: %w", taskID, err)
	}
	return task, nil
}

// DeleteTask removes the task and all of its descendants.
func (s *SQLiteStore) DeleteTask(ctx context.Context, companyID, taskID string) error {
	res, err := s.db.ExecContext(ctx, `
WITH RECURSIVE subtree(id) AS (
    SELECT id FROM tasks WHERE company_id = ? AND id = ?
    UNION ALL
    SELECT t.id FROM tasks t JOIN subtree s ON t.parent_task_id = s.id WHERE t.company_id = ?
)
DELETE FROM tasks WHERE id IN (SELECT id FROM subtree)`,
		companyID, taskID, companyID,
	)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", taskID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task %s: %w", taskID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAttendance(row rowScanner) (*models.Attendance, error) {
	var (
		record   models.Attendance
		checkIn  int64
		checkOut sql.NullInt64
	)
	if err := row.Scan(&record.ID, &record.CompanyID, &record.EmployeeID, &record.Date, &checkIn, &checkOut); err != nil {
		return nil, err
	}
	record.CheckIn = time.Unix(0, checkIn).UTC()
	if checkOut.Valid {
		out := time.Unix(0, checkOut.Int64).UTC()
		record.CheckOut = &out
	}
	return &record, nil
}

const attendanceColumns = `id, company_id, employee_id, date, check_in, check_out`

// GetAttendance returns the record for one employee and day.
func (s *SQLiteStore) GetAttendance(ctx context.Context, companyID, employeeID, date string) (*models.Attendance, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendance WHERE company_id = ? AND employee_id = ? AND date = ?`,
		companyID, employeeID, date)
	record, err := scanAttendance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get attendance: %w", err)
	}
	return record, nil
}

// UpsertAttendance stores the record, replacing the check times of an
// existing record for the same employee and day.
func (s *SQLiteStore) UpsertAttendance(ctx context.Context, record *models.Attendance) (*models.Attendance, error) {
	prepareAttendance(record)
	var checkOut sql.NullInt64
	if record.CheckOut != nil {
		checkOut = sql.NullInt64{Int64: record.CheckOut.UnixNano(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO attendance (`+attendanceColumns+`) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (company_id, employee_id, date)
DO UPDATE SET check_in = excluded.check_in, check_out = excluded.check_out`,
		record.ID, record.CompanyID, record.EmployeeID, record.Date, record.CheckIn.UnixNano(), checkOut,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert attendance: %w", err)
	}
	return s.GetAttendance(ctx, record.CompanyID, record.EmployeeID, record.Date)
}

// InsertAttendance creates the record unless one exists for the same
// employee and day, and returns the stored record either way.
func (s *SQLiteStore) InsertAttendance(ctx context.Context, record *models.Attendance) (*models.Attendance, error) {
	prepareAttendance(record)
	var checkOut sql.NullInt64
	if record.CheckOut != nil {
		checkOut = sql.NullInt64{Int64: record.CheckOut.UnixNano(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO attendance (`+attendanceColumns+`) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (company_id, employee_id, date) DO NOTHING`,
		record.ID, record.CompanyID, record.EmployeeID, record.Date, record.CheckIn.UnixNano(), checkOut,
	)
	if err != nil {
		return nil, fmt.Errorf("insert attendance: %w", err)
	}
	return s.GetAttendance(ctx, record.CompanyID, record.EmployeeID, record.Date)
}

// ListAttendance returns matching records ordered by date, then employee.
func (s *SQLiteStore) ListAttendance(ctx context.Context, companyID string, filter AttendanceFilter) ([]*models.Attendance, error) {
	conds := []string{"company_id = ?"}
	args := []any{companyID}
	if filter.EmployeeID != "" {
		conds = append(conds, "employee_id = ?")
		args = append(args, filter.EmployeeID)
	}
	if filter.From != "" {
		conds = append(conds, "date >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		conds = append(conds, "date <= ?")
		args = append(args, filter.To)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendance WHERE `+strings.Join(conds, " AND ")+` ORDER BY date, employee_id`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()

	records := []*models.Attendance{}
	for rows.Next() {
		record, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
