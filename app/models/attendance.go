package models

import "time"

// Attendance is one employee's presence record for a single day.
type Attendance struct {
	ID         string     `json:"id"`
	CompanyID  string     `json:"company_id"`
	EmployeeID string     `json:"employee_id"`
	Date       string     `json:"date"`
	CheckIn    time.Time  `json:"check_in"`
	CheckOut   *time.Time `json:"check_out,omitempty"`
}
