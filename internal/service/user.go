package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/aidar/task-tracker/internal/domain"
	"github.com/aidar/task-tracker/internal/query"
	"github.com/aidar/task-tracker/internal/repository"
)

// UserInput carries the mutable fields of a user mutation request.
// PendingTasks is nil when the request did not supply the field.
type UserInput struct {
	Name         string
	Email        string
	PendingTasks []string
}

// UserService handles business logic for users, including the cascading
// effects of pendingTasks replacement and user deletion.
type UserService struct {
	store repository.Store
}

// NewUserService creates a new UserService
func NewUserService(store repository.Store) *UserService {
	return &UserService{store: store}
}

// Create creates a user with an empty pending set. A supplied pendingTasks
// value is ignored: membership only changes through task mutations or a
// pendingTasks replacement.
func (s *UserService) Create(ctx context.Context, in UserInput) (*domain.User, error) {
	user := &domain.User{
		ID:           uuid.New(),
		Name:         in.Name,
		Email:        in.Email,
		PendingTasks: []uuid.UUID{},
		CreatedAt:    time.Now().UTC(),
		Revision:     1,
	}

	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Replace overwrites a user's name and email and, when pendingTasks is
// supplied, reconciles task assignments with the new set. An added task is
// claimed for this user even if it currently belongs to someone else.
func (s *UserService) Replace(ctx context.Context, userID uuid.UUID, in UserInput) (*domain.User, error) {
	var updated *domain.User

	err := s.store.InTx(ctx, func(ctx context.Context, users repository.UserRepository, tasks repository.TaskRepository) error {
		prev, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		next := &domain.User{
			ID:           prev.ID,
			Name:         in.Name,
			Email:        in.Email,
			PendingTasks: prev.PendingTasks,
			CreatedAt:    prev.CreatedAt,
			Revision:     prev.Revision + 1,
		}
		if err := users.Update(ctx, next); err != nil {
			return err
		}

		if in.PendingTasks != nil {
			nextSet, err := parseTaskIDs(in.PendingTasks)
			if err != nil {
				return err
			}
			resulting, err := s.reconcilePending(ctx, users, tasks, next, nextSet)
			if err != nil {
				return err
			}
			next.PendingTasks = resulting
		}

		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// reconcilePending applies the symmetric difference between the previous and
// proposed pending sets and returns the membership set that actually results.
func (s *UserService) reconcilePending(
	ctx context.Context,
	users repository.UserRepository,
	tasks repository.TaskRepository,
	user *domain.User,
	nextSet []uuid.UUID,
) ([]uuid.UUID, error) {
	added, removed := domain.PendingSetDelta(user.PendingTasks, nextSet)

	for _, taskID := range removed {
		task, err := tasks.GetByID(ctx, taskID)
		if err != nil {
			if errors.Is(err, domain.ErrTaskNotFound) {
				// Stale membership row, just drop it
				if err := users.RemovePending(ctx, user.ID, taskID); err != nil {
					return nil, err
				}
				continue
			}
			return nil, err
		}
		if task.IsAssignedTo(user.ID) {
			if err := tasks.SetAssignee(ctx, taskID, nil, domain.UnassignedName); err != nil {
				return nil, err
			}
		}
		if err := users.RemovePending(ctx, user.ID, taskID); err != nil {
			return nil, err
		}
	}

	// A completed task is still claimed, but never enters the pending set
	claimedCompleted := map[uuid.UUID]bool{}
	for _, taskID := range added {
		task, err := tasks.GetByID(ctx, taskID)
		if err != nil {
			if errors.Is(err, domain.ErrTaskNotFound) {
				return nil, domain.ErrReferenceNotFound
			}
			return nil, err
		}
		// The claim overrides any previous assignee
		if err := tasks.SetAssignee(ctx, taskID, &user.ID, user.Name); err != nil {
			return nil, err
		}
		if task.Completed {
			claimedCompleted[taskID] = true
			continue
		}
		if err := users.AddPending(ctx, user.ID, taskID); err != nil {
			return nil, err
		}
	}

	resulting := make([]uuid.UUID, 0, len(nextSet))
	for _, taskID := range nextSet {
		if !claimedCompleted[taskID] {
			resulting = append(resulting, taskID)
		}
	}
	return resulting, nil
}

// Delete removes a user and unassigns every task that references them,
// regardless of completed status.
func (s *UserService) Delete(ctx context.Context, userID uuid.UUID) error {
	return s.store.InTx(ctx, func(ctx context.Context, users repository.UserRepository, tasks repository.TaskRepository) error {
		if _, err := users.GetByID(ctx, userID); err != nil {
			return err
		}

		if _, err := tasks.ClearAssigneeFor(ctx, userID); err != nil {
			return err
		}
		if err := users.ClearPending(ctx, userID); err != nil {
			return err
		}
		return users.Delete(ctx, userID)
	})
}

// GetByID retrieves a user by ID
func (s *UserService) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.store.Users().GetByID(ctx, userID)
}

// List runs a read-only list query outside of any transaction
func (s *UserService) List(ctx context.Context, q *query.Descriptor) ([]map[string]any, error) {
	return s.store.Users().List(ctx, q)
}

// Count returns the number of users matching the filter
func (s *UserService) Count(ctx context.Context, filter map[string]any) (int64, error) {
	return s.store.Users().Count(ctx, filter)
}

func parseTaskIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, domain.ErrInvalidReference
		}
		ids = append(ids, id)
	}
	return ids, nil
}
