// Package database contains pgx implementations of the repository ports.
package database

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/errors"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/models"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/repository"
)

const uniqueViolationCode = "23505"

// UserPostgresRepository is the pgx implementation of UserRepository.
type UserPostgresRepository struct {
	pool *pgxpool.Pool
}

var _ repository.UserRepository = (*UserPostgresRepository)(nil)

// NewUserPostgresRepository returns a repository backed by pool.
func NewUserPostgresRepository(pool *pgxpool.Pool) *UserPostgresRepository {
	return &UserPostgresRepository{pool: pool}
}

const userColumns = `id, username, email, password_hash, role, status,
	email_verified_at, last_login_at, created_at, updated_at, deleted_at`

// Create inserts a new user. Unique violations on email or username map to
// the corresponding conflict sentinels.
func (r *UserPostgresRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.Role, user.Status, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			if strings.Contains(pgErr.ConstraintName, "email") {
				return errors.ErrEmailExists
			}
			if strings.Contains(pgErr.ConstraintName, "username") {
				return errors.ErrUsernameExists
			}
			return errors.ErrConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByID fetches a user by primary key, excluding soft-deleted rows.
func (r *UserPostgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1 AND deleted_at IS NULL`, userColumns)
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// FindByEmail fetches a user by email, case insensitive.
func (r *UserPostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE lower(email) = lower($1) AND deleted_at IS NULL`, userColumns)
	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

// FindByUsername fetches a user by username, case insensitive.
func (r *UserPostgresRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE lower(username) = lower($1) AND deleted_at IS NULL`, userColumns)
	return r.scanOne(r.pool.QueryRow(ctx, query, username))
}

// UpdateStatus sets the account status.
func (r *UserPostgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.UserStatus) error {
	query := `UPDATE users SET status = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrUserNotFound
	}
	return nil
}

// UpdatePasswordHash replaces the stored password hash.
func (r *UserPostgresRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrUserNotFound
	}
	return nil
}

// MarkEmailVerified records verification time and activates pending accounts.
func (r *UserPostgresRepository) MarkEmailVerified(ctx context.Context, id uuid.UUID, verifiedAt time.Time) error {
	query := `
		UPDATE users
		SET email_verified_at = $2,
		    status = CASE WHEN status = $3 THEN $4 ELSE status END,
		    updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.pool.Exec(ctx, query, id, verifiedAt,
		models.UserStatusPendingVerification, models.UserStatusActive)
	if err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrUserNotFound
	}
	return nil
}

// UpdateLastLogin records the last successful login time.
func (r *UserPostgresRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, loginAt time.Time) error {
	query := `UPDATE users SET last_login_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.pool.Exec(ctx, query, id, loginAt)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrUserNotFound
	}
	return nil
}

// List returns one page of users plus the total count matching the filter.
func (r *UserPostgresRepository) List(ctx context.Context, params models.ListUsersParams) ([]*models.User, int64, error) {
	conditions := []string{"deleted_at IS NULL"}
	args := []any{}
	idx := 1

	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", idx))
		args = append(args, params.Status)
		idx++
	}
	if params.UsernameContains != "" {
		conditions = append(conditions, fmt.Sprintf("username ILIKE $%d", idx))
		args = append(args, "%"+params.UsernameContains+"%")
		idx++
	}
	if params.EmailContains != "" {
		conditions = append(conditions, fmt.Sprintf("email ILIKE $%d", idx))
		args = append(args, "%"+params.EmailContains+"%")
		idx++
	}
	where := strings.Join(conditions, " AND ")

	var total int64
	countQuery := fmt.Sprintf(`SELECT count(*) FROM users WHERE %s`, where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	offset := (params.Page - 1) * params.PageSize

	listQuery := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		userColumns, where, idx, idx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, total, nil
}

func (r *UserPostgresRepository) scanOne(row pgx.Row) (*models.User, error) {
	user, err := scanUser(row)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.Role, &user.Status, &user.EmailVerifiedAt, &user.LastLoginAt,
		&user.CreatedAt, &user.UpdatedAt, &user.DeletedAt,
	)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &user, nil
}
