package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aidar/task-tracker/internal/domain"
	"github.com/aidar/task-tracker/internal/query"
	"github.com/aidar/task-tracker/internal/repository"
)

// TaskInput carries the mutable fields of a task mutation request
type TaskInput struct {
	Name         string
	Description  string
	Deadline     time.Time
	Completed    bool
	AssignedUser string
}

// TaskService handles business logic for tasks. Every mutation runs inside
// one store transaction together with the membership writes that keep the
// pendingTasks invariant.
type TaskService struct {
	store repository.Store
	refs  *ReferenceValidator
}

// NewTaskService creates a new TaskService
func NewTaskService(store repository.Store, refs *ReferenceValidator) *TaskService {
	return &TaskService{
		store: store,
		refs:  refs,
	}
}

// Create creates a task and, when it is assigned and not completed, adds it
// to the assignee's pending set in the same transaction.
func (s *TaskService) Create(ctx context.Context, in TaskInput) (*domain.Task, error) {
	var created *domain.Task

	err := s.store.InTx(ctx, func(ctx context.Context, users repository.UserRepository, tasks repository.TaskRepository) error {
		assignee, assigneeName, err := s.refs.Resolve(ctx, users, in.AssignedUser)
		if err != nil {
			return err
		}

		task := &domain.Task{
			ID:               uuid.New(),
			Name:             in.Name,
			Description:      in.Description,
			Deadline:         in.Deadline,
			Completed:        in.Completed,
			AssignedUser:     assignee,
			AssignedUserName: assigneeName,
			CreatedAt:        time.Now().UTC(),
			Revision:         1,
		}

		if err := tasks.Create(ctx, task); err != nil {
			return err
		}
		if err := applyMembershipOps(ctx, users, domain.TaskMembershipDelta(nil, task)); err != nil {
			return err
		}

		created = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Replace overwrites a task and applies the membership delta between its
// previous and next state.
func (s *TaskService) Replace(ctx context.Context, taskID uuid.UUID, in TaskInput) (*domain.Task, error) {
	var updated *domain.Task

	err := s.store.InTx(ctx, func(ctx context.Context, users repository.UserRepository, tasks repository.TaskRepository) error {
		prev, err := tasks.GetByID(ctx, taskID)
		if err != nil {
			return err
		}

		assignee, assigneeName, err := s.refs.Resolve(ctx, users, in.AssignedUser)
		if err != nil {
			return err
		}

		next := &domain.Task{
			ID:               prev.ID,
			Name:             in.Name,
			Description:      in.Description,
			Deadline:         in.Deadline,
			Completed:        in.Completed,
			AssignedUser:     assignee,
			AssignedUserName: assigneeName,
			CreatedAt:        prev.CreatedAt,
			Revision:         prev.Revision + 1,
		}

		if err := tasks.Update(ctx, next); err != nil {
			return err
		}
		if err := applyMembershipOps(ctx, users, domain.TaskMembershipDelta(prev, next)); err != nil {
			return err
		}

		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a task and, when it was pending, removes it from its
// assignee's pending set.
func (s *TaskService) Delete(ctx context.Context, taskID uuid.UUID) error {
	return s.store.InTx(ctx, func(ctx context.Context, users repository.UserRepository, tasks repository.TaskRepository) error {
		prev, err := tasks.GetByID(ctx, taskID)
		if err != nil {
			return err
		}

		// Membership rows reference the task, drop them first
		if err := applyMembershipOps(ctx, users, domain.TaskMembershipDelta(prev, nil)); err != nil {
			return err
		}
		return tasks.Delete(ctx, taskID)
	})
}

// GetByID retrieves a task by ID
func (s *TaskService) GetByID(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	return s.store.Tasks().GetByID(ctx, taskID)
}

// List runs a read-only list query outside of any transaction
func (s *TaskService) List(ctx context.Context, q *query.Descriptor) ([]map[string]any, error) {
	return s.store.Tasks().List(ctx, q)
}

// Count returns the number of tasks matching the filter
func (s *TaskService) Count(ctx context.Context, filter map[string]any) (int64, error) {
	return s.store.Tasks().Count(ctx, filter)
}

// applyMembershipOps executes coordinator ops against the pending sets.
// Adds and removes are idempotent, so replayed ops are harmless.
func applyMembershipOps(ctx context.Context, users repository.UserRepository, ops []domain.MembershipOp) error {
	for _, op := range ops {
		var err error
		if op.Add {
			err = users.AddPending(ctx, op.UserID, op.TaskID)
		} else {
			err = users.RemovePending(ctx, op.UserID, op.TaskID)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
