package controllers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"studio-go/app/models"
	"studio-go/app/reconcile"
	"studio-go/app/services"
	"studio-go/app/session"
	"studio-go/app/store"
)

// TaskController handles HTTP requests for tasks.
type TaskController struct {
	Service *services.TaskService
	logger  *zap.Logger
}

// NewTaskController creates a new TaskController.
func NewTaskController(service *services.TaskService, logger *zap.Logger) *TaskController {
	return &TaskController{Service: service, logger: logger}
}

// GetTasks handles GET /tasks.
func (c *TaskController) GetTasks(w http.ResponseWriter, r *http.Request) {
	s, err := session.FromContext(r.Context())
	if err != nil {
		writeError(w, c.logger, err)
		return
	}

	query := r.URL.Query()
	raw := false
	if v := query.Get("raw"); v != "" {
		if raw, err = strconv.ParseBool(v); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "raw must be a boolean"})
			return
		}
	}
	filter := store.TaskFilter{
		DeliverableID: query.Get("deliverable_id"),
		ParentTaskID:  query.Get("parent_task_id"),
	}

	tasks, err := c.Service.List(r.Context(), s.CompanyID, filter, raw)
	if err != nil {
		writeError(w, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// CreateTask handles POST /tasks.
func (c *TaskController) CreateTask(w http.ResponseWriter, r *http.Request) {
	s, err := session.FromContext(r.Context())
	if err != nil {
		writeError(w, c.logger, err)
		return
	}

	var task models.Task
	if err := decodeBody(r, &task); err != nil {
		writeBadPayload(w)
		return
	}

	newTask, err := c.Service.Create(r.Context(), s.CompanyID, &task)
	if err != nil {
		writeError(w, c.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTask)
}

// GetTaskByID handles GET /tasks/{taskID}.
func (c *TaskController) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	s, err := session.FromContext(r.Context())
	if err != nil {
		writeError(w, c.logger, err)
		return
	}

	task, err := c.Service.Get(r.Context(), s.CompanyID, mux.Vars(r)["taskID"])
	if err != nil {
		writeError(w, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// UpdateTask handles PUT /tasks/{taskID}.
func (c *TaskController) UpdateTask(w http.ResponseWriter, r *http.Request) {
	s, err := session.FromContext(r.Context())
	if err != nil {
		writeError(w, c.logger, err)
		return
	}

	var update models.TaskUpdate
	if err := decodeBody(r, &update); err != nil {
		writeBadPayload(w)
		return
	}

	task, err := c.Service.Update(r.Context(), s.CompanyID, mux.Vars(r)["taskID"], update)
	if err != nil {
		writeError(w, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// DeleteTask handles DELETE /tasks/{taskID}.
func (c *TaskController) DeleteTask(w http.ResponseWriter, r *http.Request) {
	s, err := session.FromContext(r.Context())
	if err != nil {
		writeError(w, c.logger, err)
		return
	}

	if err := c.Service.Delete(r.Context(), s.CompanyID, mux.Vars(r)["taskID"]); err != nil {
		writeError(w, c.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyTemplate handles POST /deliverables/{deliverableID}/templates/{template}.
func (c *TaskController) ApplyTemplate(w http.ResponseWriter, r *http.Request) {
	s, err := session.FromContext(r.Context())
	if err != nil {
		writeError(w, c.logger, err)
		return
	}

	vars := mux.Vars(r)
	tasks, err := c.Service.ApplyTemplate(r.Context(), s.CompanyID, vars["deliverableID"], vars["template"])
	if err != nil {
		writeError(w, c.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, tasks)
}

// ReconcileTasks handles POST /tasks/reconcile. The body is a task array
// (or null); the response is the reconciled array.
func (c *TaskController) ReconcileTasks(w http.ResponseWriter, r *http.Request) {
	var tasks []*models.Task
	if err := decodeBody(r, &tasks); err != nil {
		writeBadPayload(w)
		return
	}
	writeJSON(w, http.StatusOK, reconcile.DedupeTasks(tasks))
}
