package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"studio-go/app/controllers"
	"studio-go/app/logging"
	"studio-go/app/session"
)

// Controllers groups the handlers the router dispatches to.
type Controllers struct {
	Tasks      *controllers.TaskController
	Attendance *controllers.AttendanceController
	Billing    *controllers.BillingController
}

// RegisterRoutes sets up all routes for the application. Everything except
// the health check and the stateless reconcile endpoint needs a session.
func RegisterRoutes(router *mux.Router, c Controllers, issuer *session.Issuer, logger *zap.Logger) {
	router.Use(logging.Middleware(logger))

	router.HandleFunc("/healthz", controllers.Health).Methods(http.MethodGet)
	router.HandleFunc("/tasks/reconcile", c.Tasks.ReconcileTasks).Methods(http.MethodPost)

	api := router.NewRoute().Subrouter()
	api.Use(controllers.Authenticate(issuer, logger))
	managers := controllers.RequireRole(logger, session.RoleAdmin, session.RoleManager)
	admins := controllers.RequireRole(logger, session.RoleAdmin)

	api.HandleFunc("/tasks", c.Tasks.GetTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks", c.Tasks.CreateTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{taskID}", c.Tasks.GetTaskByID).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{taskID}", c.Tasks.UpdateTask).Methods(http.MethodPut)
	api.HandleFunc("/tasks/{taskID}", managers(c.Tasks.DeleteTask)).Methods(http.MethodDelete)
	api.HandleFunc("/deliverables/{deliverableID}/templates/{template}", managers(c.Tasks.ApplyTemplate)).Methods(http.MethodPost)

	api.HandleFunc("/attendance/check-in", c.Attendance.CheckIn).Methods(http.MethodPost)
	api.HandleFunc("/attendance/check-out", c.Attendance.CheckOut).Methods(http.MethodPost)
	api.HandleFunc("/attendance", c.Attendance.ListAttendance).Methods(http.MethodGet)

	api.HandleFunc("/billing/quote", admins(c.Billing.Quote)).Methods(http.MethodPost)
}
