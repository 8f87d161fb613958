package store

import (
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio-go/app/models"
)

func record(kv ...any) *neo4j.Record {
	r := &neo4j.Record{}
	for i := 0; i+1 < len(kv); i += 2 {
		r.Keys = append(r.Keys, kv[i].(string))
		r.Values = append(r.Values, kv[i+1])
	}
	return r
}

func TestTaskFromRecord(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	created := time.Date(2024, 3, 5, 18, 0, 0, 0, tokyo)

	tests := []struct {
		name   string
		record *neo4j.Record
		want   *models.Task
	}{
		{
			name: "all fields",
			record: record(
				"id", "t1", "company_id", "c1", "deliverable_id", "d1", "parent_task_id", "t0",
				"title", "Edit", "completed", true, "is_auto_generated", true, "created_at", created,
			),
			want: &models.Task{
				ID:              models.IDPtr("t1"),
				CompanyID:       "c1",
				DeliverableID:   models.IDPtr("d1"),
				ParentTaskID:    models.IDPtr("t0"),
				Title:           "Edit",
				Completed:       true,
				IsAutoGenerated: true,
				CreatedAt:       created.UTC(),
			},
		},
		{
			name: "null optionals",
			record: record(
				"id", "t1", "company_id", "c1", "deliverable_id", nil, "parent_task_id", nil,
				"title", "Edit", "completed", false, "is_auto_generated", false, "created_at", nil,
			),
			want: &models.Task{ID: models.IDPtr("t1"), CompanyID: "c1", Title: "Edit"},
		},
		{
			name:   "missing columns",
			record: record("id", "t1"),
			want:   &models.Task{ID: models.IDPtr("t1")},
		},
		{
			name: "unexpected types",
			record: record(
				"id", int64(7), "title", 42, "completed", "yes", "created_at", "2024-03-05",
			),
			want: &models.Task{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := taskFromRecord(tt.record)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTaskFromRecord_CreatedAtIsUTC(t *testing.T) {
	created := time.Date(2024, 3, 5, 18, 0, 0, 0, time.FixedZone("JST", 9*60*60))
	got := taskFromRecord(record("id", "t1", "created_at", created))
	assert.Equal(t, time.UTC, got.CreatedAt.Location())
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestAttendanceFromRecord(t *testing.T) {
	in := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	out := in.Add(8 * time.Hour)

	open := attendanceFromRecord(record(
		"id", "a1", "company_id", "c1", "employee_id", "e1", "date", "2024-03-05",
		"check_in", in, "check_out", nil,
	))
	assert.Equal(t, &models.Attendance{
		ID: "a1", CompanyID: "c1", EmployeeID: "e1", Date: "2024-03-05", CheckIn: in,
	}, open)

	closed := attendanceFromRecord(record(
		"id", "a1", "company_id", "c1", "employee_id", "e1", "date", "2024-03-05",
		"check_in", in, "check_out", out,
	))
	require.NotNil(t, closed.CheckOut)
	assert.True(t, out.Equal(*closed.CheckOut))

	blank := attendanceFromRecord(record("id", "a2", "check_in", nil))
	assert.True(t, blank.CheckIn.IsZero())
	assert.Nil(t, blank.CheckOut)
}
