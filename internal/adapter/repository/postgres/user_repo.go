package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

const userColumns = `id, username, email, phone, hashed_password, role, status, created_at, updated_at`

// UserRepository implements usecase.UserRepository.
type UserRepository struct {
	db querier
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, tx usecase.Transaction, user *domain.User) error {
	q, err := mustTx(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO users (id, username, email, phone, hashed_password, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = q.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.Phone,
		user.HashedPassword,
		user.Role,
		user.Status,
		user.CreatedAt,
		user.UpdatedAt,
	)

	return mapError(err, nil)
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, tx usecase.Transaction, id string) (*domain.User, error) {
	return r.getOne(ctx, tx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves a user by ID and locks the row.
func (r *UserRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.User, error) {
	if _, err := mustTx(tx); err != nil {
		return nil, err
	}
	return r.getOne(ctx, tx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
}

// GetByIdentifier resolves an email or username; an email match wins.
func (r *UserRepository) GetByIdentifier(ctx context.Context, tx usecase.Transaction, identifier string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1 OR username = $1
		ORDER BY (email = $1) DESC
		LIMIT 1
	`
	return r.getOne(ctx, tx, query, identifier)
}

// List lists users ordered by creation time.
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at, id LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// UpdateStatus updates the lifecycle status of a user.
func (r *UserRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.UserStatus, updatedAt time.Time) error {
	return r.update(ctx, tx, `UPDATE users SET status = $2, updated_at = $3 WHERE id = $1`, id, status, updatedAt)
}

// UpdateRole updates the role of a user.
func (r *UserRepository) UpdateRole(ctx context.Context, tx usecase.Transaction, id string, role domain.Role, updatedAt time.Time) error {
	return r.update(ctx, tx, `UPDATE users SET role = $2, updated_at = $3 WHERE id = $1`, id, role, updatedAt)
}

func (r *UserRepository) update(ctx context.Context, tx usecase.Transaction, query string, args ...any) error {
	q, err := mustTx(tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return mapError(err, nil)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, tx usecase.Transaction, query string, args ...any) (*domain.User, error) {
	q, err := conn(r.db, tx)
	if err != nil {
		return nil, err
	}

	user, err := scanUser(q.QueryRow(ctx, query, args...))
	return user, mapError(err, domain.ErrUserNotFound)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.Phone,
		&u.HashedPassword,
		&u.Role,
		&u.Status,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
