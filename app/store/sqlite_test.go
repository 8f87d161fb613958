package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio-go/app/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	base := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	var tick int
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return s
}

func mustCreate(t *testing.T, s Store, task *models.Task) *models.Task {
	t.Helper()
	created, err := s.CreateTask(context.Background(), task)
	require.NoError(t, err)
	return created
}

func TestSQLiteStore_CreateAndGetTask(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created := mustCreate(t, s, &models.Task{
		CompanyID:     "c1",
		DeliverableID: models.IDPtr("d1"),
		Title:         "Edit",
	})
	require.True(t, created.HasID())
	assert.False(t, created.CreatedAt.IsZero())

	got, err := s.GetTask(ctx, "c1", models.IDValue(created.ID))
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = s.GetTask(ctx, "other-company", models.IDValue(created.ID))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_ListTasks(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	parent := mustCreate(t, s, &models.Task{CompanyID: "c1", DeliverableID: models.IDPtr("d1"), Title: "Edit"})
	child := mustCreate(t, s, &models.Task{CompanyID: "c1", DeliverableID: models.IDPtr("d1"), ParentTaskID: parent.ID, Title: "Cut"})
	other := mustCreate(t, s, &models.Task{CompanyID: "c1", DeliverableID: models.IDPtr("d2"), Title: "Grade", IsAutoGenerated: true})
	mustCreate(t, s, &models.Task{CompanyID: "c2", Title: "Hidden"})

	all, err := s.ListTasks(ctx, "c1", TaskFilter{})
	require.NoError(t, err)
	assert.Equal(t, []*models.Task{parent, child, other}, all)

	byDeliverable, err := s.ListTasks(ctx, "c1", TaskFilter{DeliverableID: "d2"})
	require.NoError(t, err)
	assert.Equal(t, []*models.Task{other}, byDeliverable)

	byParent, err := s.ListTasks(ctx, "c1", TaskFilter{ParentTaskID: models.IDValue(parent.ID)})
	require.NoError(t, err)
	assert.Equal(t, []*models.Task{child}, byParent)

	empty, err := s.ListTasks(ctx, "nobody", TaskFilter{})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestSQLiteStore_UpdateTask(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	placeholder := mustCreate(t, s, &models.Task{CompanyID: "c1", Title: "Edit", IsAutoGenerated: true})
	id := models.IDValue(placeholder.ID)

	done := true
	updated, err := s.UpdateTask(ctx, "c1", id, models.TaskUpdate{Completed: &done})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.True(t, updated.IsAutoGenerated, "completing keeps the placeholder flag")

	title := "Edit v2"
	updated, err = s.UpdateTask(ctx, "c1", id, models.TaskUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Edit v2", updated.Title)
	assert.False(t, updated.IsAutoGenerated, "renaming turns the placeholder into a manual task")

	got, err := s.GetTask(ctx, "c1", id)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	_, err = s.UpdateTask(ctx, "c1", "missing", models.TaskUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_DeleteTaskRemovesDescendants(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	root := mustCreate(t, s, &models.Task{CompanyID: "c1", Title: "Edit"})
	child := mustCreate(t, s, &models.Task{CompanyID: "c1", ParentTaskID: root.ID, Title: "Cut"})
	mustCreate(t, s, &models.Task{CompanyID: "c1", ParentTaskID: child.ID, Title: "Trim"})
	keep := mustCreate(t, s, &models.Task{CompanyID: "c1", Title: "Grade"})

	require.NoError(t, s.DeleteTask(ctx, "c1", models.IDValue(root.ID)))

	left, err := s.ListTasks(ctx, "c1", TaskFilter{})
	require.NoError(t, err)
	assert.Equal(t, []*models.Task{keep}, left)

	assert.ErrorIs(t, s.DeleteTask(ctx, "c1", models.IDValue(root.ID)), ErrNotFound)
	assert.ErrorIs(t, s.DeleteTask(ctx, "c2", models.IDValue(keep.ID)), ErrNotFound)
}

func TestSQLiteStore_Attendance(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	checkIn := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

	first, err := s.UpsertAttendance(ctx, &models.Attendance{
		CompanyID: "c1", EmployeeID: "e1", Date: "2024-03-05", CheckIn: checkIn,
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	assert.Nil(t, first.CheckOut)

	checkOut := checkIn.Add(8 * time.Hour)
	second, err := s.UpsertAttendance(ctx, &models.Attendance{
		CompanyID: "c1", EmployeeID: "e1", Date: "2024-03-05", CheckIn: checkIn, CheckOut: &checkOut,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "same day keeps the original record")
	require.NotNil(t, second.CheckOut)
	assert.True(t, checkOut.Equal(*second.CheckOut))

	_, err = s.UpsertAttendance(ctx, &models.Attendance{CompanyID: "c1", EmployeeID: "e2", Date: "2024-03-04", CheckIn: checkIn})
	require.NoError(t, err)
	_, err = s.UpsertAttendance(ctx, &models.Attendance{CompanyID: "c1", EmployeeID: "e1", Date: "2024-03-07", CheckIn: checkIn})
	require.NoError(t, err)

	all, err := s.ListAttendance(ctx, "c1", AttendanceFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"2024-03-04", "2024-03-05", "2024-03-07"}, []string{all[0].Date, all[1].Date, all[2].Date})

	ranged, err := s.ListAttendance(ctx, "c1", AttendanceFilter{EmployeeID: "e1", From: "2024-03-05", To: "2024-03-06"})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, second.ID, ranged[0].ID)

	_, err = s.GetAttendance(ctx, "c1", "e9", "2024-03-05")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_InsertAttendanceKeepsExisting(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	first := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

	created, err := s.InsertAttendance(ctx, &models.Attendance{
		CompanyID: "c1", EmployeeID: "e1", Date: "2024-03-05", CheckIn: first,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.True(t, first.Equal(created.CheckIn))

	later := &models.Attendance{CompanyID: "c1", EmployeeID: "e1", Date: "2024-03-05", CheckIn: first.Add(time.Hour)}
	kept, err := s.InsertAttendance(ctx, later)
	require.NoError(t, err)
	assert.Equal(t, created.ID, kept.ID)
	assert.NotEqual(t, later.ID, kept.ID)
	assert.True(t, first.Equal(kept.CheckIn), "existing check-in is not overwritten")

	all, err := s.ListAttendance(ctx, "c1", AttendanceFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
