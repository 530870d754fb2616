package domain

import (
	"time"

	"github.com/google/uuid"
)

// UnassignedName — значение assignedUserName для задачи без исполнителя
const UnassignedName = "unassigned"

// Task представляет задачу с опциональным исполнителем
type Task struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Deadline         time.Time  `json:"deadline"`
	Completed        bool       `json:"completed"`
	AssignedUser     *uuid.UUID `json:"assignedUser,omitempty"`
	AssignedUserName string     `json:"assignedUserName"`
	CreatedAt        time.Time  `json:"createdAt"`
	Revision         int64      `json:"revision"`
}

// IsAssigned возвращает true если у задачи есть исполнитель
func (t *Task) IsAssigned() bool {
	return t.AssignedUser != nil
}

// IsAssignedTo проверяет, назначена ли задача указанному пользователю
func (t *Task) IsAssignedTo(userID uuid.UUID) bool {
	return t.AssignedUser != nil && *t.AssignedUser == userID
}

// Document возвращает задачу в виде документа для API ответов.
// Пустая строка в assignedUser означает отсутствие исполнителя.
func (t *Task) Document() map[string]any {
	assigned := ""
	if t.AssignedUser != nil {
		assigned = t.AssignedUser.String()
	}
	return map[string]any{
		"id":               t.ID,
		"name":             t.Name,
		"description":      t.Description,
		"deadline":         t.Deadline,
		"completed":        t.Completed,
		"assignedUser":     assigned,
		"assignedUserName": t.AssignedUserName,
		"createdAt":        t.CreatedAt,
		"revision":         t.Revision,
	}
}
