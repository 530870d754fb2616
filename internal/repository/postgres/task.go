package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aidar/task-tracker/internal/domain"
	"github.com/aidar/task-tracker/internal/query"
)

const taskColumns = "t.id, t.name, t.description, t.deadline, t.completed, t.assigned_user, t.assigned_user_name, t.created_at, t.revision"

// TaskRepository реализует repository.TaskRepository для PostgreSQL
type TaskRepository struct {
	db DB
}

// NewTaskRepository создает новый экземпляр TaskRepository
func NewTaskRepository(db DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create создает новую задачу
func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	query := `
		INSERT INTO tasks (id, name, description, deadline, completed, assigned_user, assigned_user_name, created_at, revision)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		task.ID,
		task.Name,
		task.Description,
		task.Deadline,
		task.Completed,
		task.AssignedUser,
		task.AssignedUserName,
		task.CreatedAt,
		task.Revision,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
			return domain.ErrReferenceNotFound
		}
		return err
	}
	return nil
}

// GetByID получает задачу по ID
func (r *TaskRepository) GetByID(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.id = $1`

	task, err := scanTask(r.db.QueryRow(ctx, query, taskID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

// Update заменяет все изменяемые поля задачи
func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	query := `
		UPDATE tasks
		SET name = $1,
		    description = $2,
		    deadline = $3,
		    completed = $4,
		    assigned_user = $5,
		    assigned_user_name = $6,
		    revision = $7
		WHERE id = $8
	`

	result, err := r.db.Exec(ctx, query,
		task.Name,
		task.Description,
		task.Deadline,
		task.Completed,
		task.AssignedUser,
		task.AssignedUserName,
		task.Revision,
		task.ID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return domain.ErrReferenceNotFound
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// Delete удаляет задачу. Строки pending_tasks должны быть убраны до вызова.
func (r *TaskRepository) Delete(ctx context.Context, taskID uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, taskID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// List выполняет списочный запрос и возвращает спроецированные документы
func (r *TaskRepository) List(ctx context.Context, q *query.Descriptor) ([]map[string]any, error) {
	cond, args, err := buildWhere(q.Filter, taskFields)
	if err != nil {
		return nil, err
	}
	orderBy, err := buildOrderBy(q.Sort, taskFields)
	if err != nil {
		return nil, err
	}
	if orderBy == "" {
		orderBy = " ORDER BY t.created_at, t.id"
	}

	sql := `SELECT ` + taskColumns + ` FROM tasks t WHERE ` + cond + orderBy
	if q.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", q.Limit)
	}
	if q.Skip > 0 {
		sql += fmt.Sprintf(" OFFSET %d", q.Skip)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []map[string]any{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, q.Projection.Apply(task.Document()))
	}
	return docs, rows.Err()
}

// Count возвращает количество задач, подходящих под фильтр
func (r *TaskRepository) Count(ctx context.Context, filter map[string]any) (int64, error) {
	cond, args, err := buildWhere(filter, taskFields)
	if err != nil {
		return 0, err
	}

	var count int64
	err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tasks t WHERE `+cond, args...).Scan(&count)
	return count, err
}

// SetAssignee записывает исполнителя и снимок его имени
func (r *TaskRepository) SetAssignee(ctx context.Context, taskID uuid.UUID, userID *uuid.UUID, userName string) error {
	query := `
		UPDATE tasks
		SET assigned_user = $1, assigned_user_name = $2, revision = revision + 1
		WHERE id = $3
	`

	result, err := r.db.Exec(ctx, query, userID, userName, taskID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// ClearAssigneeFor снимает исполнителя со всех его задач (каскад при удалении
// пользователя), независимо от completed
func (r *TaskRepository) ClearAssigneeFor(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `
		UPDATE tasks
		SET assigned_user = NULL, assigned_user_name = $1, revision = revision + 1
		WHERE assigned_user = $2
	`

	result, err := r.db.Exec(ctx, query, domain.UnassignedName, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var task domain.Task
	err := row.Scan(
		&task.ID,
		&task.Name,
		&task.Description,
		&task.Deadline,
		&task.Completed,
		&task.AssignedUser,
		&task.AssignedUserName,
		&task.CreatedAt,
		&task.Revision,
	)
	if err != nil {
		return nil, err
	}
	return &task, nil
}
