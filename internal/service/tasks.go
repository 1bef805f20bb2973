// Package service holds the owner-scoped task rules and the account rules
// that sit between the HTTP handlers and the stores.
package service

import (
	"context"
	"time"

	"taskboard/internal/domain/errors"
	"taskboard/internal/domain/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// TaskStore is the persistence contract for tasks. GetTaskByID is not owner
// scoped so that a foreign task can be reported as forbidden rather than
// missing; UpdateTask and DeleteTask are keyed by id and owner.
type TaskStore interface {
	ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	GetTaskByID(ctx context.Context, id string) (*models.Task, error)
	CreateTask(ctx context.Context, task *models.Task) error
	UpdateTask(ctx context.Context, id, ownerID string, patch models.TaskPatch) (*models.Task, error)
	DeleteTask(ctx context.Context, id, ownerID string) error
}

type TaskService struct {
	store TaskStore
	now   func() time.Time
}

func NewTaskService(store TaskStore) *TaskService {
	return &TaskService{store: store, now: time.Now}
}

// List returns the caller's tasks, newest first. A status that is not one of
// the known values is ignored and the full list is returned.
func (s *TaskService) List(ctx context.Context, ownerID, status string) ([]models.Task, error) {
	filter := models.TaskFilter{OwnerID: ownerID}
	if st, ok := models.ParseStatus(status); ok {
		filter.Status = &st
	} else if status != "" {
		log.WithFields(log.Fields{"owner": ownerID, "status": status}).Debug("ignoring unknown status filter")
	}
	tasks, err := s.store.ListTasks(ctx, filter)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, ownerID, id string) (*models.Task, error) {
	return s.owned(ctx, ownerID, id)
}

func (s *TaskService) Create(ctx context.Context, ownerID string, req models.CreateTaskRequest) (*models.Task, error) {
	if err := models.Validator().Struct(req); err != nil {
		return nil, models.ValidationError(err)
	}
	status := models.StatusPending
	if req.Status != nil {
		status = *req.Status
	}

	now := s.now().UTC()
	task := &models.Task{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		DueDate:     req.DueDate.UTC(),
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	task.Normalize()
	if err := task.Validate(); err != nil {
		return nil, err
	}
	if models.DueDateInPast(task.DueDate, now) {
		return nil, errors.ErrDueDateInPast
	}

	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"task": task.ID, "owner": ownerID}).Info("task created")
	return task, nil
}

// Update applies a partial change after the ownership check. A patch that
// fails validation never reaches the store, and a patch with no fields
// returns the task as stored without writing.
func (s *TaskService) Update(ctx context.Context, ownerID, id string, patch models.TaskPatch) (*models.Task, error) {
	current, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	patch.Normalize()
	if patch.Empty() {
		return current, nil
	}
	if err := patch.Validate(s.now()); err != nil {
		return nil, err
	}
	if patch.DueDate != nil {
		due := patch.DueDate.UTC()
		patch.DueDate = &due
	}
	task, err := s.store.UpdateTask(ctx, id, ownerID, patch)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"task": id, "owner": ownerID}).Info("task updated")
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.owned(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.store.DeleteTask(ctx, id, ownerID); err != nil {
		return err
	}
	log.WithFields(log.Fields{"task": id, "owner": ownerID}).Info("task deleted")
	return nil
}

func (s *TaskService) owned(ctx context.Context, ownerID, id string) (*models.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.ErrTaskNotFound
	}
	task, err := s.store.GetTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.OwnerID != ownerID {
		return nil, errors.ErrForbidden
	}
	return task, nil
}
