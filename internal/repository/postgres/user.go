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

// UserRepository реализует repository.UserRepository для PostgreSQL
type UserRepository struct {
	db DB
}

// NewUserRepository создает новый экземпляр UserRepository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create создает нового пользователя
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, name, email, created_at, revision)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(ctx, query, user.ID, user.Name, user.Email, user.CreatedAt, user.Revision)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return domain.ErrEmailTaken
		}
		return err
	}
	return nil
}

// GetByID получает пользователя вместе с его множеством pendingTasks
func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	query := `
		SELECT id, name, email, created_at, revision
		FROM users
		WHERE id = $1
	`

	var user domain.User
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.CreatedAt,
		&user.Revision,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	pending, err := r.pendingTaskIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PendingTasks = pending

	return &user, nil
}

// Update заменяет имя и email пользователя
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET name = $1, email = $2, revision = $3
		WHERE id = $4
	`

	result, err := r.db.Exec(ctx, query, user.Name, user.Email, user.Revision, user.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrEmailTaken
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Delete удаляет пользователя. Каскадное снятие исполнителя с задач и
// очистка pending_tasks выполняются сервисом в той же транзакции.
func (r *UserRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// List выполняет списочный запрос и возвращает спроецированные документы
func (r *UserRepository) List(ctx context.Context, q *query.Descriptor) ([]map[string]any, error) {
	cond, args, err := buildWhere(q.Filter, userFields)
	if err != nil {
		return nil, err
	}
	orderBy, err := buildOrderBy(q.Sort, userFields)
	if err != nil {
		return nil, err
	}
	if orderBy == "" {
		orderBy = " ORDER BY u.created_at, u.id"
	}

	sql := `
		SELECT u.id, u.name, u.email, u.created_at, u.revision,
		       COALESCE(array_agg(pt.task_id ORDER BY pt.task_id) FILTER (WHERE pt.task_id IS NOT NULL), '{}')
		FROM users u
		LEFT JOIN pending_tasks pt ON pt.user_id = u.id
		WHERE ` + cond + `
		GROUP BY u.id` + orderBy
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
		var user domain.User
		err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.CreatedAt,
			&user.Revision,
			&user.PendingTasks,
		)
		if err != nil {
			return nil, err
		}
		docs = append(docs, q.Projection.Apply(user.Document()))
	}
	return docs, rows.Err()
}

// Count возвращает количество пользователей, подходящих под фильтр
func (r *UserRepository) Count(ctx context.Context, filter map[string]any) (int64, error) {
	cond, args, err := buildWhere(filter, userFields)
	if err != nil {
		return 0, err
	}

	var count int64
	err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users u WHERE `+cond, args...).Scan(&count)
	return count, err
}

// AddPending помещает задачу в pendingTasks пользователя. Первичный ключ
// pending_tasks — task_id, поэтому upsert одновременно убирает задачу из
// множества предыдущего владельца.
func (r *UserRepository) AddPending(ctx context.Context, userID, taskID uuid.UUID) error {
	query := `
		INSERT INTO pending_tasks (task_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (task_id) DO UPDATE SET user_id = EXCLUDED.user_id
	`

	_, err := r.db.Exec(ctx, query, taskID, userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return domain.ErrReferenceNotFound
		}
		return err
	}
	return nil
}

// RemovePending убирает задачу из pendingTasks пользователя (идемпотентно)
func (r *UserRepository) RemovePending(ctx context.Context, userID, taskID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM pending_tasks WHERE task_id = $1 AND user_id = $2`, taskID, userID)
	return err
}

// ClearPending убирает все задачи из pendingTasks пользователя
func (r *UserRepository) ClearPending(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM pending_tasks WHERE user_id = $1`, userID)
	return err
}

func (r *UserRepository) pendingTaskIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT task_id FROM pending_tasks WHERE user_id = $1 ORDER BY task_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
