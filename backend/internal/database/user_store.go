package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/user/cryptodesk/backend/internal/models"
)

// CreateUser inserts a new user and returns the stored record.
func (s *Store) CreateUser(ctx context.Context, username string, passwordHash string) (*models.User, error) {
	user := &models.User{
		Username: username,
		Password: passwordHash, // This is the hash
	}

	query := `INSERT INTO users (username, password_hash) VALUES ($1, $2)
			  RETURNING id, created_at`

	err := s.pool.QueryRow(ctx, query, username, passwordHash).
		Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetUserByUsername retrieves a user by their username.
// Returns nil, nil if no such user exists.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, username, password_hash, created_at FROM users WHERE username = $1`

	err := s.pool.QueryRow(ctx, query, username).
		Scan(&user.ID, &user.Username, &user.Password, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // User not found, return nil without error
		}
		return nil, err // Other database error
	}

	return user, nil
}

// GetUserByID retrieves a user by their ID. Returns nil, nil if absent.
func (s *Store) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, username, password_hash, created_at FROM users WHERE id = $1`

	err := s.pool.QueryRow(ctx, query, userID).
		Scan(&user.ID, &user.Username, &user.Password, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return user, nil
}
