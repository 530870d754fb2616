package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/aidar/task-tracker/internal/domain"
	"github.com/aidar/task-tracker/internal/repository"
)

// ReferenceValidator resolves candidate assignee identifiers against the store
type ReferenceValidator struct{}

// NewReferenceValidator creates a new ReferenceValidator
func NewReferenceValidator() *ReferenceValidator {
	return &ReferenceValidator{}
}

// Resolve validates a candidate assignee identifier. An empty identifier
// resolves to "no assignee". The display name is always read fresh from the
// store so the assignedUserName snapshot is accurate at write time.
func (v *ReferenceValidator) Resolve(ctx context.Context, users repository.UserRepository, raw string) (*uuid.UUID, string, error) {
	if raw == "" {
		return nil, domain.UnassignedName, nil
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, "", domain.ErrInvalidReference
	}

	user, err := users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, "", domain.ErrReferenceNotFound
		}
		return nil, "", err
	}

	return &id, user.Name, nil
}
