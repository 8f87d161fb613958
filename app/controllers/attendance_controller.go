package controllers

import (
	"net/http"

	"go.uber.org/zap"

	"studio-go/app/services"
	"studio-go/app/session"
	"studio-go/app/store"
)

// AttendanceController handles HTTP requests for attendance.
type AttendanceController struct {
	Service *services.AttendanceService
	logger  *zap.Logger
}

// NewAttendanceController creates a new AttendanceController.
func NewAttendanceController(service *services.AttendanceService, logger *zap.Logger) *AttendanceController {
	return &AttendanceController{Service: service, logger: logger}
}

type attendanceRequest struct {
	Date string `json:"date"`
}

// CheckIn handles POST /attendance/check-in for the session's user.
func (c *AttendanceController) CheckIn(w http.ResponseWriter, r *http.Request) {
	s, err := session.FromContext(r.Context())
	if err != nil {
		writeError(w, c.logger, err)
		return
	}
	var req attendanceRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadPayload(w)
		return
	}

	record, err := c.Service.CheckIn(r.Context(), s.CompanyID, s.UserID, req.Date)
	if err != nil {
		writeError(w, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// CheckOut handles POST /attendance/check-out for the session's user.
func (c *AttendanceController) CheckOut(w http.ResponseWriter, r *http.Request) {
	s, err := session.FromContext(r.Context())
	if err != nil {
		writeError(w, c.logger, err)
		return
	}
	var req attendanceRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadPayload(w)
		return
	}

	record, err := c.Service.CheckOut(r.Context(), s.CompanyID, s.UserID, req.Date)
	if err != nil {
		writeError(w, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// ListAttendance handles GET /attendance. Employees only see their own records.
func (c *AttendanceController) ListAttendance(w http.ResponseWriter, r *http.Request) {
	s, err := session.FromContext(r.Context())
	if err != nil {
		writeError(w, c.logger, err)
		return
	}

	query := r.URL.Query()
	filter := store.AttendanceFilter{
		EmployeeID: query.Get("employee_id"),
		From:       query.Get("from"),
		To:         query.Get("to"),
	}
	if s.Role == session.RoleEmployee {
		filter.EmployeeID = s.UserID
	}

	records, err := c.Service.List(r.Context(), s.CompanyID, filter)
	if err != nil {
		writeError(w, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}
