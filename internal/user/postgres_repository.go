package user

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint failures.
const uniqueViolation = "23505"

// PostgresRepository is a PostgreSQL implementation of Repository.
// History collections are stored as JSONB columns on the users row.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL user repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const selectUserColumns = `
	SELECT
		user_id, name, email, password_hash, picture, provider, provider_id,
		eco_points, level,
		badges, waste_classifications, game_history, redemptions, streak,
		created_at, updated_at, last_login_at
	FROM users
`

// Get retrieves a user by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*User, error) {
	return r.queryOne(ctx, selectUserColumns+` WHERE user_id = $1`, id)
}

// GetByEmail retrieves a user by email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.queryOne(ctx, selectUserColumns+` WHERE email = $1`, NormalizeEmail(email))
}

// List returns all users ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context) ([]*User, error) {
	rows, err := r.pool.Query(ctx, selectUserColumns+` ORDER BY created_at, user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

// Create inserts a new user.
func (r *PostgresRepository) Create(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (
			user_id, name, email, password_hash, picture, provider, provider_id,
			eco_points, level,
			badges, waste_classifications, game_history, redemptions, streak,
			created_at, updated_at, last_login_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.pool.Exec(ctx, query,
		u.ID,
		u.Name,
		NormalizeEmail(u.Email),
		u.PasswordHash,
		u.Picture,
		string(u.Provider),
		u.ProviderID,
		u.EcoPoints,
		u.Level,
		nonNil(u.Badges),
		nonNil(u.WasteClassifications),
		nonNil(u.GameHistory),
		nonNil(u.Redemptions),
		u.Streak,
		u.CreatedAt,
		u.UpdatedAt,
		u.LastLoginAt,
	)
	return mapWriteError(err)
}

// Update replaces an existing user row.
func (r *PostgresRepository) Update(ctx context.Context, u *User) error {
	query := `
		UPDATE users SET
			name = $2,
			email = $3,
			password_hash = $4,
			picture = $5,
			provider = $6,
			provider_id = $7,
			eco_points = $8,
			level = $9,
			badges = $10,
			waste_classifications = $11,
			game_history = $12,
			redemptions = $13,
			streak = $14,
			updated_at = $15,
			last_login_at = $16
		WHERE user_id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		u.ID,
		u.Name,
		NormalizeEmail(u.Email),
		u.PasswordHash,
		u.Picture,
		string(u.Provider),
		u.ProviderID,
		u.EcoPoints,
		u.Level,
		nonNil(u.Badges),
		nonNil(u.WasteClassifications),
		nonNil(u.GameHistory),
		nonNil(u.Redemptions),
		u.Streak,
		u.UpdatedAt,
		u.LastLoginAt,
	)
	if err != nil {
		return mapWriteError(err)
	}

	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// Ping checks database connectivity.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PostgresRepository) queryOne(ctx context.Context, query string, arg any) (*User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var (
		u           User
		provider    string
		lastLoginAt *time.Time
	)

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Picture,
		&provider,
		&u.ProviderID,
		&u.EcoPoints,
		&u.Level,
		&u.Badges,
		&u.WasteClassifications,
		&u.GameHistory,
		&u.Redemptions,
		&u.Streak,
		&u.CreatedAt,
		&u.UpdatedAt,
		&lastLoginAt,
	)
	if err != nil {
		return nil, err
	}

	u.Provider = Provider(provider)
	u.LastLoginAt = lastLoginAt
	return &u, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrEmailTaken
	}
	return err
}

// nonNil keeps JSONB columns as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
