package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"studio-go/app/store"
)

func newAttendanceService(t *testing.T, now time.Time) *AttendanceService {
	t.Helper()
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	svc := NewAttendanceService(newSQLite(t), tokyo, zap.NewNop())
	svc.now = func() time.Time { return now }
	return svc
}

func TestAttendanceService_CheckInOut(t *testing.T) {
	ctx := context.Background()
	// 23:30 UTC is already the next day in Tokyo.
	now := time.Date(2024, 3, 5, 23, 30, 0, 0, time.UTC)
	svc := newAttendanceService(t, now)

	in, err := svc.CheckIn(ctx, "c1", "e1", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-06", in.Date)
	assert.True(t, now.Equal(in.CheckIn))

	svc.now = func() time.Time { return now.Add(time.Hour) }
	again, err := svc.CheckIn(ctx, "c1", "e1", "2024-3-6")
	require.NoError(t, err)
	assert.Equal(t, in.ID, again.ID)
	assert.True(t, now.Equal(again.CheckIn), "second check-in keeps the first time")

	out, err := svc.CheckOut(ctx, "c1", "e1", "2024/03/06")
	require.NoError(t, err)
	require.NotNil(t, out.CheckOut)
	assert.True(t, now.Add(time.Hour).Equal(*out.CheckOut))
	assert.Equal(t, in.ID, out.ID)
}

func TestAttendanceService_Errors(t *testing.T) {
	ctx := context.Background()
	svc := newAttendanceService(t, time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC))

	_, err := svc.CheckOut(ctx, "c1", "e1", "")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.CheckIn(ctx, "c1", "e1", "someday")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.List(ctx, "c1", store.AttendanceFilter{From: "2024-13-01"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAttendanceService_List(t *testing.T) {
	ctx := context.Background()
	svc := newAttendanceService(t, time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC))

	for _, day := range []string{"2024-03-01", "2024-03-03", "2024-03-05"} {
		_, err := svc.CheckIn(ctx, "c1", "e1", day)
		require.NoError(t, err)
	}
	_, err := svc.CheckIn(ctx, "c1", "e2", "2024-03-03")
	require.NoError(t, err)

	got, err := svc.List(ctx, "c1", store.AttendanceFilter{EmployeeID: "e1", From: "2024-3-2", To: "2024/3/5"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-03-03", got[0].Date)
	assert.Equal(t, "2024-03-05", got[1].Date)
}

func TestAttendanceService_ConcurrentCheckInKeepsOneRecord(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	svc := newAttendanceService(t, base)
	var tick atomic.Int64
	svc.now = func() time.Time { return base.Add(time.Duration(tick.Add(1)) * time.Minute) }

	const workers = 8
	results := make([]string, workers)
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			rec, err := svc.CheckIn(ctx, "c1", "e1", "2024-03-05")
			if err != nil {
				return err
			}
			results[i] = rec.ID + "@" + rec.CheckIn.Format(time.RFC3339Nano)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for _, r := range results[1:] {
		assert.Equal(t, results[0], r, "every caller sees the first check-in")
	}
	all, err := svc.List(ctx, "c1", store.AttendanceFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
