package store

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"studio-go/app/models"
)

const taskReturn = "RETURN t.id AS id, t.company_id AS company_id, t.deliverable_id AS deliverable_id, " +
	"p.id AS parent_task_id, t.title AS title, t.completed AS completed, " +
	"t.is_auto_generated AS is_auto_generated, t.created_at AS created_at"

const attendanceReturn = "RETURN a.id AS id, a.company_id AS company_id, a.employee_id AS employee_id, " +
	"a.date AS date, a.check_in AS check_in, a.check_out AS check_out"

// Neo4jStore implements Store on Neo4j. Tasks are :Task nodes linked to
// their parent through HAS_PARENT; attendance records are :Attendance nodes.
type Neo4jStore struct {
	driver neo4j.DriverWithContext
	now    func() time.Time
}

var _ Store = (*Neo4jStore)(nil)

// NewNeo4jStore creates a new store on top of the driver.
func NewNeo4jStore(driver neo4j.DriverWithContext) *Neo4jStore {
	return &Neo4jStore{driver: driver, now: time.Now}
}

// EnsureSchema creates the uniqueness constraints the store relies on.
func (s *Neo4jStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		"CREATE CONSTRAINT task_id IF NOT EXISTS FOR (t:Task) REQUIRE t.id IS UNIQUE",
		"CREATE CONSTRAINT attendance_id IF NOT EXISTS FOR (a:Attendance) REQUIRE a.id IS UNIQUE",
		"CREATE CONSTRAINT attendance_day IF NOT EXISTS FOR (a:Attendance) REQUIRE (a.company_id, a.employee_id, a.date) IS UNIQUE",
	}
	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, stmt := range statements {
			if _, err := tx.Run(ctx, stmt, nil); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("ensure neo4j schema: %w", err)
	}
	return nil
}

// Close closes the underlying driver.
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Neo4jStore) read(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)
	return session.ExecuteRead(ctx, work)
}

func (s *Neo4jStore) write(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)
	return session.ExecuteWrite(ctx, work)
}

func stringValue(record *neo4j.Record, key string) string {
	v, _ := record.Get(key)
	s, _ := v.(string)
	return s
}

func boolValue(record *neo4j.Record, key string) bool {
	v, _ := record.Get(key)
	b, _ := v.(bool)
	return b
}

func timeValue(record *neo4j.Record, key string) *time.Time {
	v, _ := record.Get(key)
	t, ok := v.(time.Time)
	if !ok {
		return nil
	}
	t = t.UTC()
	return &t
}

func taskFromRecord(record *neo4j.Record) *models.Task {
	task := &models.Task{
		ID:              models.IDPtr(stringValue(record, "id")),
		CompanyID:       stringValue(record, "company_id"),
		DeliverableID:   models.IDPtr(stringValue(record, "deliverable_id")),
		ParentTaskID:    models.IDPtr(stringValue(record, "parent_task_id")),
		Title:           stringValue(record, "title"),
		Completed:       boolValue(record, "completed"),
		IsAutoGenerated: boolValue(record, "is_auto_generated"),
	}
	if created := timeValue(record, "created_at"); created != nil {
		task.CreatedAt = *created
	}
	return task
}

func collectTasks(ctx context.Context, res neo4j.ResultWithContext) ([]*models.Task, error) {
	tasks := []*models.Task{}
	for res.Next(ctx) {
		tasks = append(tasks, taskFromRecord(res.Record()))
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListTasks retrieves the company's tasks in creation order.
func (s *Neo4jStore) ListTasks(ctx context.Context, companyID string, filter TaskFilter) ([]*models.Task, error) {
	result, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MATCH (t:Task {company_id: $companyID}) "+
				"OPTIONAL MATCH (t)-[:HAS_PARENT]->(p:Task) "+
				"WITH t, p "+
				"WHERE ($deliverableID = '' OR t.deliverable_id = $deliverableID) "+
				"AND ($parentID = '' OR p.id = $parentID) "+
				taskReturn+" ORDER BY t.created_at, t.id",
			map[string]any{
				"companyID":     companyID,
				"deliverableID": filter.DeliverableID,
				"parentID":      filter.ParentTaskID,
			},
		)
		if err != nil {
			return nil, err
		}
		return collectTasks(ctx, res)
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return result.([]*models.Task), nil
}

func getTaskTx(ctx context.Context, tx neo4j.ManagedTransaction, companyID, taskID string) (*models.Task, error) {
	res, err := tx.Run(ctx,
		"MATCH (t:Task {id: $id, company_id: $companyID}) "+
			"OPTIONAL MATCH (t)-[:HAS_PARENT]->(p:Task) "+
			taskReturn,
		map[string]any{"id": taskID, "companyID": companyID},
	)
	if err != nil {
		return nil, err
	}
	tasks, err := collectTasks(ctx, res)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, ErrNotFound
	}
	return tasks[0], nil
}

// GetTask retrieves a single task by its ID.
func (s *Neo4jStore) GetTask(ctx context.Context, companyID, taskID string) (*models.Task, error) {
	result, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return getTaskTx(ctx, tx, companyID, taskID)
	})
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", taskID, err)
	}
	return result.(*models.Task), nil
}

// CreateTask adds a new task and, when a parent is set, links it in the
// same transaction.
func (s *Neo4jStore) CreateTask(ctx context.Context, task *models.Task) (*models.Task, error) {
	prepareTask(task, s.now())

	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		props := map[string]any{
			"id":                models.IDValue(task.ID),
			"company_id":        task.CompanyID,
			"title":             task.Title,
			"completed":         task.Completed,
			"is_auto_generated": task.IsAutoGenerated,
			"created_at":        task.CreatedAt,
		}
		if task.DeliverableID != nil {
			props["deliverable_id"] = models.IDValue(task.DeliverableID)
		}
		if _, err := tx.Run(ctx, "CREATE (t:Task) SET t = $props", map[string]any{"props": props}); err != nil {
			return nil, err
		}

		if parentID := models.IDValue(task.ParentTaskID); parentID != "" {
			res, err := tx.Run(ctx,
				"MATCH (child:Task {id: $childID}), (parent:Task {id: $parentID, company_id: $companyID}) "+
					"CREATE (child)-[:HAS_PARENT]->(parent)",
				map[string]any{
					"childID":   models.IDValue(task.ID),
					"parentID":  parentID,
					"companyID": task.CompanyID,
				},
			)
			if err != nil {
				return nil, err
			}
			summary, err := res.Consume(ctx)
			if err != nil {
				return nil, err
			}
			if summary.Counters().RelationshipsCreated() == 0 {
				return nil, fmt.Errorf("parent task %s: %w", parentID, ErrNotFound)
			}
		}
		return nil, nil
	})
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// UpdateTask applies a partial update and returns the stored task.
func (s *Neo4jStore) UpdateTask(ctx context.Context, companyID, taskID string, update models.TaskUpdate) (*models.Task, error) {
	result, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		task, err := getTaskTx(ctx, tx, companyID, taskID)
		if err != nil {
			return nil, err
		}
		applyUpdate(task, update)

		_, err = tx.Run(ctx,
			"MATCH (t:Task {id: $id, company_id: $companyID}) "+
				"SET t.title = $title, t.completed = $completed, t.is_auto_generated = $auto",
			map[string]any{
				"id":        taskID,
				"companyID": companyID,
				"title":     task.Title,
				"completed": task.Completed,
				"auto":      task.IsAutoGenerated,
			},
		)
		if err != nil {
			return nil, err
		}
		return task, nil
	})
	if err != nil {
		return nil, fmt.Errorf("update task %s: %w", taskID, err)
	}
	return result.(*models.Task), nil
}

// DeleteTask deletes a task, its descendants and their relationships.
func (s *Neo4jStore) DeleteTask(ctx context.Context, companyID, taskID string) error {
	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MATCH (t:Task {id: $id, company_id: $companyID}) "+
				"OPTIONAL MATCH (child:Task)-[:HAS_PARENT*1..]->(t) "+
				"WITH t, collect(DISTINCT child) AS children "+
				"FOREACH (c IN children | DETACH DELETE c) "+
				"DETACH DELETE t",
			map[string]any{"id": taskID, "companyID": companyID},
		)
		if err != nil {
			return nil, err
		}
		summary, err := res.Consume(ctx)
		if err != nil {
			return nil, err
		}
		if summary.Counters().NodesDeleted() == 0 {
			return nil, ErrNotFound
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("delete task %s: %w", taskID, err)
	}
	return nil
}

func attendanceFromRecord(record *neo4j.Record) *models.Attendance {
	a := &models.Attendance{
		ID:         stringValue(record, "id"),
		CompanyID:  stringValue(record, "company_id"),
		EmployeeID: stringValue(record, "employee_id"),
		Date:       stringValue(record, "date"),
		CheckOut:   timeValue(record, "check_out"),
	}
	if in := timeValue(record, "check_in"); in != nil {
		a.CheckIn = *in
	}
	return a
}

func collectAttendance(ctx context.Context, res neo4j.ResultWithContext) ([]*models.Attendance, error) {
	records := []*models.Attendance{}
	for res.Next(ctx) {
		records = append(records, attendanceFromRecord(res.Record()))
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// GetAttendance returns the record for one employee and day.
func (s *Neo4jStore) GetAttendance(ctx context.Context, companyID, employeeID, date string) (*models.Attendance, error) {
	result, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MATCH (a:Attendance {company_id: $companyID, employee_id: $employeeID, date: $date}) "+attendanceReturn,
			map[string]any{"companyID": companyID, "employeeID": employeeID, "date": date},
		)
		if err != nil {
			return nil, err
		}
		records, err := collectAttendance(ctx, res)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, ErrNotFound
		}
		return records[0], nil
	})
	if err != nil {
		return nil, fmt.Errorf("get attendance: %w", err)
	}
	return result.(*models.Attendance), nil
}

// UpsertAttendance merges the record on (company, employee, date).
func (s *Neo4jStore) UpsertAttendance(ctx context.Context, record *models.Attendance) (*models.Attendance, error) {
	result, err := s.mergeAttendance(ctx, "ON CREATE SET a.id = $id "+
		"SET a.check_in = $checkIn, a.check_out = $checkOut ", record)
	if err != nil {
		return nil, fmt.Errorf("upsert attendance: %w", err)
	}
	return result, nil
}

// InsertAttendance creates the record unless one exists for the same
// employee and day, and returns the stored record either way.
func (s *Neo4jStore) InsertAttendance(ctx context.Context, record *models.Attendance) (*models.Attendance, error) {
	result, err := s.mergeAttendance(ctx, "ON CREATE SET a.id = $id, a.check_in = $checkIn, a.check_out = $checkOut ", record)
	if err != nil {
		return nil, fmt.Errorf("insert attendance: %w", err)
	}
	return result, nil
}

// mergeAttendance runs MERGE on the day key followed by the given SET
// clauses. The attendance_day constraint serializes concurrent merges.
func (s *Neo4jStore) mergeAttendance(ctx context.Context, set string, record *models.Attendance) (*models.Attendance, error) {
	prepareAttendance(record)
	var checkOut any
	if record.CheckOut != nil {
		checkOut = *record.CheckOut
	}

	result, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MERGE (a:Attendance {company_id: $companyID, employee_id: $employeeID, date: $date}) "+
				set+attendanceReturn,
			map[string]any{
				"id":         record.ID,
				"companyID":  record.CompanyID,
				"employeeID": record.EmployeeID,
				"date":       record.Date,
				"checkIn":    record.CheckIn,
				"checkOut":   checkOut,
			},
		)
		if err != nil {
			return nil, err
		}
		records, err := collectAttendance(ctx, res)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, ErrNotFound
		}
		return records[0], nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Attendance), nil
}

// ListAttendance returns matching records ordered by date, then employee.
func (s *Neo4jStore) ListAttendance(ctx context.Context, companyID string, filter AttendanceFilter) ([]*models.Attendance, error) {
	result, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MATCH (a:Attendance {company_id: $companyID}) "+
				"WHERE ($employeeID = '' OR a.employee_id = $employeeID) "+
				"AND ($from = '' OR a.date >= $from) "+
				"AND ($to = '' OR a.date <= $to) "+
				attendanceReturn+" ORDER BY a.date, a.employee_id",
			map[string]any{
				"companyID":  companyID,
				"employeeID": filter.EmployeeID,
				"from":       filter.From,
				"to":         filter.To,
			},
		)
		if err != nil {
			return nil, err
		}
		return collectAttendance(ctx, res)
	})
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return result.([]*models.Attendance), nil
}
