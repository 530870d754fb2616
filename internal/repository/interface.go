package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/aidar/task-tracker/internal/domain"
	"github.com/aidar/task-tracker/internal/query"
)

// UserRepository определяет методы для работы с данными пользователей
type UserRepository interface {
	// Create создает нового пользователя
	Create(ctx context.Context, user *domain.User) error

	// GetByID получает пользователя вместе с его множеством pendingTasks
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// Update заменяет имя и email пользователя, увеличивая revision
	Update(ctx context.Context, user *domain.User) error

	// Delete удаляет пользователя
	Delete(ctx context.Context, userID uuid.UUID) error

	// List выполняет списочный запрос и возвращает спроецированные документы
	List(ctx context.Context, q *query.Descriptor) ([]map[string]any, error)

	// Count возвращает количество пользователей, подходящих под фильтр
	Count(ctx context.Context, filter map[string]any) (int64, error)

	// AddPending помещает задачу в pendingTasks пользователя. Задача может
	// состоять не более чем в одном множестве, повторное добавление идемпотентно.
	AddPending(ctx context.Context, userID, taskID uuid.UUID) error

	// RemovePending убирает задачу из pendingTasks пользователя (идемпотентно)
	RemovePending(ctx context.Context, userID, taskID uuid.UUID) error

	// ClearPending убирает все задачи из pendingTasks пользователя
	ClearPending(ctx context.Context, userID uuid.UUID) error
}

// TaskRepository определяет методы для работы с данными задач
type TaskRepository interface {
	// Create создает новую задачу
	Create(ctx context.Context, task *domain.Task) error

	// GetByID получает задачу по ID
	GetByID(ctx context.Context, taskID uuid.UUID) (*domain.Task, error)

	// Update заменяет все изменяемые поля задачи, увеличивая revision
	Update(ctx context.Context, task *domain.Task) error

	// Delete удаляет задачу
	Delete(ctx context.Context, taskID uuid.UUID) error

	// List выполняет списочный запрос и возвращает спроецированные документы
	List(ctx context.Context, q *query.Descriptor) ([]map[string]any, error)

	// Count возвращает количество задач, подходящих под фильтр
	Count(ctx context.Context, filter map[string]any) (int64, error)

	// SetAssignee записывает исполнителя и снимок его имени. userID == nil
	// снимает исполнителя, userName при этом должен быть domain.UnassignedName.
	SetAssignee(ctx context.Context, taskID uuid.UUID, userID *uuid.UUID, userName string) error

	// ClearAssigneeFor снимает указанного исполнителя со всех его задач
	// и возвращает число затронутых задач
	ClearAssigneeFor(ctx context.Context, userID uuid.UUID) (int64, error)
}

// TxFunc выполняется внутри одной транзакции хранилища с привязанными к ней
// репозиториями
type TxFunc func(ctx context.Context, users UserRepository, tasks TaskRepository) error

// Store объединяет репозитории и транзакционную границу хранилища
type Store interface {
	// Users возвращает репозиторий пользователей вне транзакции
	Users() UserRepository

	// Tasks возвращает репозиторий задач вне транзакции
	Tasks() TaskRepository

	// InTx выполняет fn в одной атомарной транзакции: либо фиксируются все
	// записи, либо ни одна
	InTx(ctx context.Context, fn TxFunc) error
}
