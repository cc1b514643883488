package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/gradually/internal/constants"
	"github.com/julianstephens/gradually/internal/models"
	"github.com/julianstephens/gradually/internal/storage"
)

func (s *Store) AddUser(ctx context.Context, user models.User) (models.User, error) {
	user.Username = strings.TrimSpace(user.Username)
	if user.Username == "" {
		return models.User{}, fmt.Errorf("username cannot be empty")
	}
	if user.Timezone == "" {
		user.Timezone = constants.DefaultTimezone
	}

	createdAt := s.stamp()
	err := s.db.QueryRowContext(ctx,
		s.q("INSERT INTO users (username, timezone, created_at) VALUES (?, ?, ?) RETURNING id"),
		user.Username, user.Timezone, createdAt,
	).Scan(&user.ID)
	if err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return models.User{}, fmt.Errorf("user %q: %w", user.Username, storage.ErrConflict)
		}
		return models.User{}, fmt.Errorf("failed to add user: %w", err)
	}
	user.CreatedAt = parseStamp(createdAt)

	return user, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	row := s.db.QueryRowContext(ctx, s.q("SELECT id, username, timezone, created_at FROM users WHERE id = ?"), id)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %d: %w", id, storage.ErrNotFound)
	}
	return user, err
}

func (s *Store) GetUserByName(ctx context.Context, username string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, s.q("SELECT id, username, timezone, created_at FROM users WHERE username = ?"), username)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %q: %w", username, storage.ErrNotFound)
	}
	return user, err
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, username, timezone, created_at FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func scanUser(row scanner) (models.User, error) {
	var user models.User
	var createdAt string
	if err := row.Scan(&user.ID, &user.Username, &user.Timezone, &createdAt); err != nil {
		return models.User{}, err
	}
	user.CreatedAt = parseStamp(createdAt)
	return user, nil
}
