package domain

import (
	"time"

	"github.com/google/uuid"
)

// User представляет пользователя (возможного исполнителя задач)
type User struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PendingTasks []uuid.UUID `json:"pendingTasks"`
	CreatedAt    time.Time   `json:"createdAt"`
	Revision     int64       `json:"revision"`
}

// Document возвращает пользователя в виде документа для API ответов.
// pendingTasks — производное множество, поддерживаемое координатором.
func (u *User) Document() map[string]any {
	pending := u.PendingTasks
	if pending == nil {
		pending = []uuid.UUID{}
	}
	return map[string]any{
		"id":           u.ID,
		"name":         u.Name,
		"email":        u.Email,
		"pendingTasks": pending,
		"createdAt":    u.CreatedAt,
		"revision":     u.Revision,
	}
}
