package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"studio-go/app/attendance"
	"studio-go/app/models"
	"studio-go/app/store"
)

// AttendanceService records daily check-ins and check-outs.
type AttendanceService struct {
	store  store.Store
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewAttendanceService creates an attendance service keyed in loc.
func NewAttendanceService(s store.Store, loc *time.Location, logger *zap.Logger) *AttendanceService {
	return &AttendanceService{store: s, loc: loc, now: time.Now, logger: logger}
}

func (s *AttendanceService) dateKey(input string) (string, error) {
	key, err := attendance.DateKey(input, s.loc, s.now())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return key, nil
}

// CheckIn records the employee's arrival for the day. Checking in twice
// returns the existing record unchanged.
func (s *AttendanceService) CheckIn(ctx context.Context, companyID, employeeID, date string) (*models.Attendance, error) {
	key, err := s.dateKey(date)
	if err != nil {
		return nil, err
	}

	candidate := &models.Attendance{
		CompanyID:  companyID,
		EmployeeID: employeeID,
		Date:       key,
		CheckIn:    s.now().UTC(),
	}
	record, err := s.store.InsertAttendance(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if record.ID != candidate.ID {
		return record, nil
	}
	s.logger.Info("checked in",
		zap.String("company_id", companyID),
		zap.String("employee_id", employeeID),
		zap.String("date", key))
	return record, nil
}

// CheckOut records the employee's departure. The day must have a check-in.
func (s *AttendanceService) CheckOut(ctx context.Context, companyID, employeeID, date string) (*models.Attendance, error) {
	key, err := s.dateKey(date)
	if err != nil {
		return nil, err
	}

	record, err := s.store.GetAttendance(ctx, companyID, employeeID, key)
	if err != nil {
		return nil, err
	}
	out := s.now().UTC()
	record.CheckOut = &out
	return s.store.UpsertAttendance(ctx, record)
}

// List returns attendance records. From and To accept any date form
// DateKey understands.
func (s *AttendanceService) List(ctx context.Context, companyID string, filter store.AttendanceFilter) ([]*models.Attendance, error) {
	var err error
	if filter.From != "" {
		if filter.From, err = s.dateKey(filter.From); err != nil {
			return nil, err
		}
	}
	if filter.To != "" {
		if filter.To, err = s.dateKey(filter.To); err != nil {
			return nil, err
		}
	}
	return s.store.ListAttendance(ctx, companyID, filter)
}
