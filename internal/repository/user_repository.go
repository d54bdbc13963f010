package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/account-service/internal/domain"
)

const userColumns = `id, user_name, first_name, last_name, email, mobile_no, password_hash,
        role, status, is_logged_in, is_logged_out, otp, otp_expiration, otp_type, created_at, updated_at`

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateFields(ctx context.Context, id string, fields map[string]any) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
	ClearExpiredOtps(ctx context.Context, before time.Time) (int64, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	const query = `
        INSERT INTO users (id, user_name, first_name, last_name, email, mobile_no, password_hash,
            role, status, is_logged_in, is_logged_out, otp, otp_expiration, otp_type)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.ID,
		user.UserName,
		user.FirstName,
		user.LastName,
		user.Email,
		user.MobileNo,
		user.PasswordHash,
		user.Role,
		user.Status,
		user.IsLoggedIn,
		user.IsLoggedOut,
		user.Otp,
		user.OtpExpiration,
		user.OtpType,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users
        SET user_name=$1, first_name=$2, last_name=$3, email=$4, mobile_no=$5, password_hash=$6,
            role=$7, status=$8, is_logged_in=$9, is_logged_out=$10, otp=$11, otp_expiration=$12,
            otp_type=$13, updated_at=NOW()
        WHERE id=$14`

	cmd, err := r.pool.Exec(ctx, query,
		user.UserName,
		user.FirstName,
		user.LastName,
		user.Email,
		user.MobileNo,
		user.PasswordHash,
		user.Role,
		user.Status,
		user.IsLoggedIn,
		user.IsLoggedOut,
		user.Otp,
		user.OtpExpiration,
		user.OtpType,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id=$1", userColumns)
	return r.queryOne(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE email=$1", userColumns)
	return r.queryOne(ctx, query, email)
}

// UpdateFields applies a partial update. Keys are column names; iteration
// order is fixed so the generated SQL is deterministic.
func (r *userRepository) UpdateFields(ctx context.Context, id string, fields map[string]any) (int64, error) {
	if len(fields) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := []any{}
	clauses := []string{}
	for _, k := range keys {
		args = append(args, fields[k])
		clauses = append(clauses, fmt.Sprintf("%s=$%d", k, len(args)))
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE users SET %s, updated_at=NOW() WHERE id=$%d",
		strings.Join(clauses, ", "), len(args))

	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *userRepository) Delete(ctx context.Context, id string) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf("SELECT %s FROM users ORDER BY created_at DESC LIMIT %d OFFSET %d",
		userColumns, limit, offset)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

// ClearExpiredOtps bulk-clears every OTP triple whose expiration is
// before the given instant.
func (r *userRepository) ClearExpiredOtps(ctx context.Context, before time.Time) (int64, error) {
	const query = `
        UPDATE users
        SET otp=NULL, otp_expiration=NULL, otp_type=NULL, updated_at=NOW()
        WHERE otp_expiration IS NOT NULL AND otp_expiration < $1`

	cmd, err := r.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *userRepository) queryOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	return scanUser(r.pool.QueryRow(ctx, query, arg))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.UserName,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.MobileNo,
		&user.PasswordHash,
		&user.Role,
		&user.Status,
		&user.IsLoggedIn,
		&user.IsLoggedOut,
		&user.Otp,
		&user.OtpExpiration,
		&user.OtpType,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
