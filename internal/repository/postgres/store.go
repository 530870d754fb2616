package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidar/task-tracker/internal/repository"
)

// DB объединяет методы *pgxpool.Pool и pgx.Tx, нужные репозиториям,
// чтобы один и тот же код работал внутри и вне транзакции
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store реализует repository.Store поверх PostgreSQL
type Store struct {
	pool  *pgxpool.Pool
	users *UserRepository
	tasks *TaskRepository
}

// NewStore создает новый экземпляр Store
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:  pool,
		users: NewUserRepository(pool),
		tasks: NewTaskRepository(pool),
	}
}

// Users возвращает репозиторий пользователей вне транзакции
func (s *Store) Users() repository.UserRepository {
	return s.users
}

// Tasks возвращает репозиторий задач вне транзакции
func (s *Store) Tasks() repository.TaskRepository {
	return s.tasks
}

// InTx выполняет fn в одной транзакции. Откат при любой ошибке на любом
// шаге, включая ошибки валидации, возникшие внутри fn.
func (s *Store) InTx(ctx context.Context, fn repository.TxFunc) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx) // Ignore error as it will fail if transaction was committed
	}()

	if err := fn(ctx, NewUserRepository(tx), NewTaskRepository(tx)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
