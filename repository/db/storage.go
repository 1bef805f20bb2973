package db

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"taskboard/internal/domain/errors"
	"taskboard/internal/domain/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

const (
	queryTimeout = 15 * time.Second

	// SQLSTATE codes raised by the schema constraints.
	codeUniqueViolation = "23505"
	codeCheckViolation  = "23514"
)

const taskColumns = `id, title, description, status, due_date, owner_id, created_at, updated_at`

// Named statements prepared on every pooled connection.
const (
	stmtCreateTask        = "create_task"
	stmtGetTaskByID       = "get_task_by_id"
	stmtDeleteTask        = "delete_task"
	stmtCreateUser        = "create_user"
	stmtGetUserByID       = "get_user_by_id"
	stmtGetUserByUsername = "get_user_by_username"
	stmtUpdateUser        = "update_user"
	stmtDeleteUser        = "delete_user"
)

var statements = map[string]string{
	stmtCreateTask:        `INSERT INTO tasks (` + taskColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
	stmtGetTaskByID:       `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`,
	stmtDeleteTask:        `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`,
	stmtCreateUser:        `INSERT INTO users (id, username, email, password, created_at) VALUES ($1, $2, $3, $4, $5)`,
	stmtGetUserByID:       `SELECT id, username, email, password, created_at FROM users WHERE id = $1`,
	stmtGetUserByUsername: `SELECT id, username, email, password, created_at FROM users WHERE username = $1`,
	stmtUpdateUser:        `UPDATE users SET username = $1, email = $2, password = $3 WHERE id = $4`,
	stmtDeleteUser:        `DELETE FROM users WHERE id = $1`,
}

type Storage struct {
	pool *pgxpool.Pool
}

// NewStorage opens a pool whose connections prepare the named statements
// as they are established. The schema must already be migrated.
func NewStorage(ctx context.Context, connStr string) (*Storage, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	cfg.AfterConnect = prepareStatements

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Info("database connection established")
	return &Storage{pool: pool}, nil
}

func prepareStatements(ctx context.Context, conn *pgx.Conn) error {
	for name, sql := range statements {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %s: %w", name, err)
		}
	}
	return nil
}

func (s *Storage) Close() {
	s.pool.Close()
}

func (s *Storage) CreateTask(ctx context.Context, task *models.Task) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := s.pool.Exec(ctx, stmtCreateTask,
		task.ID, task.Title, task.Description, string(task.Status), task.DueDate, task.OwnerID, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		log.WithError(err).WithField("task", task.ID).Error("create task failed")
		return translate(err, errors.ErrConflict)
	}
	return nil
}

func (s *Storage) GetTaskByID(ctx context.Context, id string) (*models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	task, err := scanTask(s.pool.QueryRow(ctx, stmtGetTaskByID, id))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrTaskNotFound
		}
		log.WithError(err).WithField("task", id).Error("get task failed")
		return nil, err
	}
	return task, nil
}

func (s *Storage) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1`
	args := []any{filter.OwnerID}
	if filter.Status != nil {
		query += ` AND status = $2`
		args = append(args, string(*filter.Status))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		log.WithError(err).Error("list tasks failed")
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// UpdateTask writes only the columns present in the patch.
func (s *Storage) UpdateTask(ctx context.Context, id, ownerID string, patch models.TaskPatch) (*models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query, args := buildTaskUpdate(id, ownerID, patch, time.Now().UTC())
	task, err := scanTask(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrTaskNotFound
		}
		log.WithError(err).WithField("task", id).Error("update task failed")
		return nil, translate(err, err)
	}
	return task, nil
}

func buildTaskUpdate(id, ownerID string, patch models.TaskPatch, now time.Time) (string, []any) {
	sets := []string{}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.DueDate != nil {
		add("due_date", *patch.DueDate)
	}
	add("updated_at", now)

	args = append(args, id, ownerID)
	query := `UPDATE tasks SET ` + strings.Join(sets, ", ") +
		` WHERE id = $` + strconv.Itoa(len(args)-1) +
		` AND owner_id = $` + strconv.Itoa(len(args)) +
		` RETURNING ` + taskColumns
	return query, args
}

func (s *Storage) DeleteTask(ctx context.Context, id, ownerID string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	ct, err := s.pool.Exec(ctx, stmtDeleteTask, id, ownerID)
	if err != nil {
		log.WithError(err).WithField("task", id).Error("delete task failed")
		return err
	}
	if ct.RowsAffected() == 0 {
		return errors.ErrTaskNotFound
	}
	return nil
}

func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := s.pool.Exec(ctx, stmtCreateUser, user.ID, user.Username, user.Email, user.Password, user.CreatedAt)
	if err != nil {
		log.WithError(err).WithField("user", user.ID).Error("create user failed")
		return translate(err, err)
	}
	return nil
}

func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, stmtGetUserByID, id)
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, stmtGetUserByUsername, username)
}

func (s *Storage) getUser(ctx context.Context, query, arg string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	user := &models.User{}
	err := s.pool.QueryRow(ctx, query, arg).Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.CreatedAt)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrUserNotFound
		}
		log.WithError(err).Error("get user failed")
		return nil, err
	}
	return user, nil
}

func (s *Storage) UpdateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	ct, err := s.pool.Exec(ctx, stmtUpdateUser, user.Username, user.Email, user.Password, user.ID)
	if err != nil {
		log.WithError(err).WithField("user", user.ID).Error("update user failed")
		return translate(err, err)
	}
	if ct.RowsAffected() == 0 {
		return errors.ErrUserNotFound
	}
	return nil
}

// DeleteUser relies on ON DELETE CASCADE to remove the user's tasks.
func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	ct, err := s.pool.Exec(ctx, stmtDeleteUser, id)
	if err != nil {
		log.WithError(err).WithField("user", id).Error("delete user failed")
		return err
	}
	if ct.RowsAffected() == 0 {
		return errors.ErrUserNotFound
	}
	return nil
}

func scanTask(row pgx.Row) (*models.Task, error) {
	task := &models.Task{}
	var status string
	if err := row.Scan(&task.ID, &task.Title, &task.Description, &status, &task.DueDate,
		&task.OwnerID, &task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, err
	}
	task.Status = models.Status(status)
	return task, nil
}

// translate maps constraint violations onto domain errors and returns
// fallback for anything else.
func translate(err, fallback error) error {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			if strings.HasPrefix(pgErr.TableName, "users") {
				return errors.ErrUserAlreadyExists
			}
			return errors.ErrConflict
		case codeCheckViolation:
			return errors.ErrValidationFailed
		}
	}
	return fallback
}
