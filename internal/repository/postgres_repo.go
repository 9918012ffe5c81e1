package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-auth-service/internal/model"
)

const uniqueViolation = "23505"

type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

func (r *PostgresUserRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	if u.Role == "" {
		u.Role = model.RoleUser
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, mobile, password_hash, role)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id::text, created_at, updated_at`,
		u.Name, u.Email, u.Mobile, u.PasswordHash, string(u.Role)).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return model.User{}, model.ErrUserAlreadyExists
	}
	if err != nil {
		return model.User{}, fmt.Errorf("create user: %w", err)
	}

	return u, nil
}

func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT id::text, name, email, mobile, password_hash, role, created_at, updated_at
		 FROM users WHERE lower(email) = lower($1)`, strings.TrimSpace(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by email: %w", err)
	}

	return u, nil
}

func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	// Ids are UUIDs; anything else can never match a row.
	if _, err := uuid.Parse(id); err != nil {
		return model.User{}, model.ErrUserNotFound
	}

	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT id::text, name, email, mobile, password_hash, role, created_at, updated_at
		 FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}

	return u, nil
}

func (r *PostgresUserRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanUser(row pgx.Row) (model.User, error) {
	var (
		u    model.User
		role string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Mobile, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt)
	u.Role = model.Role(role)
	return u, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
