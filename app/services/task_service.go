package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"studio-go/app/config"
	"studio-go/app/models"
	"studio-go/app/reconcile"
	"studio-go/app/store"
)

var (
	// ErrValidation indicates the request content is unacceptable.
	ErrValidation = errors.New("validation failed")

	// ErrTemplateNotFound indicates the template name is not configured.
	ErrTemplateNotFound = fmt.Errorf("template %w", store.ErrNotFound)
)

// TaskService handles task-related operations for a company.
type TaskService struct {
	store     store.Store
	templates map[string][]config.TemplateTask
	logger    *zap.Logger
}

// NewTaskService creates a new instance of TaskService.
func NewTaskService(s store.Store, templates map[string][]config.TemplateTask, logger *zap.Logger) *TaskService {
	return &TaskService{store: s, templates: templates, logger: logger}
}

// List returns the company's tasks. Unless raw is set, auto-generated
// duplicates are removed by the reconciler.
func (s *TaskService) List(ctx context.Context, companyID string, filter store.TaskFilter, raw bool) ([]*models.Task, error) {
	tasks, err := s.store.ListTasks(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}
	if raw {
		return tasks, nil
	}
	reconciled := reconcile.DedupeTasks(tasks)
	if dropped := len(tasks) - len(reconciled); dropped > 0 {
		s.logger.Debug("reconciled task list",
			zap.String("company_id", companyID),
			zap.Int("tasks", len(tasks)),
			zap.Int("dropped", dropped))
	}
	return reconciled, nil
}

// Get retrieves a single task.
func (s *TaskService) Get(ctx context.Context, companyID, taskID string) (*models.Task, error) {
	return s.store.GetTask(ctx, companyID, taskID)
}

// Create stores a new manual task. A subtask must reference a parent in the
// same company and inherits the parent's deliverable when it has none.
func (s *TaskService) Create(ctx context.Context, companyID string, task *models.Task) (*models.Task, error) {
	if strings.TrimSpace(task.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	task.ID = nil
	task.CompanyID = companyID
	task.IsAutoGenerated = false

	if parentID := models.IDValue(task.ParentTaskID); parentID != "" {
		parent, err := s.store.GetTask(ctx, companyID, parentID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: parent task %s not found", ErrValidation, parentID)
		}
		if err != nil {
			return nil, err
		}
		if task.DeliverableID == nil {
			task.DeliverableID = parent.DeliverableID
		}
	}

	created, err := s.store.CreateTask(ctx, task)
	if err != nil {
		return nil, err
	}
	s.logger.Info("task created",
		zap.String("company_id", companyID),
		zap.String("task_id", models.IDValue(created.ID)))
	return created, nil
}

// Update applies a partial update to a task.
func (s *TaskService) Update(ctx context.Context, companyID, taskID string, update models.TaskUpdate) (*models.Task, error) {
	if update.Title != nil && strings.TrimSpace(*update.Title) == "" {
		return nil, fmt.Errorf("%w: title cannot be blank", ErrValidation)
	}
	return s.store.UpdateTask(ctx, companyID, taskID, update)
}

// Delete removes a task and its subtasks.
func (s *TaskService) Delete(ctx context.Context, companyID, taskID string) error {
	if err := s.store.DeleteTask(ctx, companyID, taskID); err != nil {
		return err
	}
	s.logger.Info("task deleted",
		zap.String("company_id", companyID),
		zap.String("task_id", taskID))
	return nil
}

// ApplyTemplate creates the template's tasks for a deliverable as
// auto-generated placeholders and returns the deliverable's reconciled
// task list. Entries whose key already exists on the deliverable are not
// created again; their subtasks attach to the existing task.
func (s *TaskService) ApplyTemplate(ctx context.Context, companyID, deliverableID, name string) ([]*models.Task, error) {
	entries, ok := s.templates[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	if strings.TrimSpace(deliverableID) == "" {
		return nil, fmt.Errorf("%w: deliverable is required", ErrValidation)
	}

	filter := store.TaskFilter{DeliverableID: deliverableID}
	existing, err := s.store.ListTasks(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]*models.Task, len(existing))
	// A manual task hides auto-generated ones with the same key, so subtasks
	// must attach to it rather than to the hidden placeholder.
	for _, t := range existing {
		k := reconcile.Key(t)
		if prev, seen := byKey[k]; !seen || (prev.IsAutoGenerated && !t.IsAutoGenerated) {
			byKey[k] = t
		}
	}

	ensure := func(title string, parent *models.ID) (*models.Task, error) {
		candidate := &models.Task{
			CompanyID:       companyID,
			DeliverableID:   models.IDPtr(deliverableID),
			ParentTaskID:    parent,
			Title:           title,
			IsAutoGenerated: true,
		}
		key := reconcile.Key(candidate)
		if t, ok := byKey[key]; ok {
			return t, nil
		}
		created, err := s.store.CreateTask(ctx, candidate)
		if err != nil {
			return nil, err
		}
		byKey[key] = created
		return created, nil
	}

	var created int
	for _, entry := range entries {
		before := len(byKey)
		root, err := ensure(entry.Title, nil)
		if err != nil {
			return nil, err
		}
		for _, sub := range entry.Subtasks {
			if _, err := ensure(sub, root.ID); err != nil {
				return nil, err
			}
		}
		created += len(byKey) - before
	}
	s.logger.Info("template applied",
		zap.String("company_id", companyID),
		zap.String("deliverable_id", deliverableID),
		zap.String("template", name),
		zap.Int("created", created))

	return s.List(ctx, companyID, filter, false)
}
