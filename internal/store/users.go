package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/okothdev/device-order-store/internal/database"
	"github.com/okothdev/device-order-store/internal/models"
)

func CreateUser(ctx context.Context, db *sql.DB, username, email, role, address string) (*models.User, error) {
	if role != models.RoleAdmin && role != models.RoleStaff {
		return nil, fmt.Errorf("invalid role %q", role)
	}

	user := &models.User{}
	err := db.QueryRowContext(ctx,
		`INSERT INTO users (username, email, role, address, is_active, created_at, updated_at, version)
		 VALUES ($1, $2, $3, $4, TRUE, NOW(), NOW(), 1)
		 RETURNING id, username, email, role, address, is_active, created_at, updated_at, version`,
		username, email, role, address).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Role,
		&user.Address,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

func GetUser(ctx context.Context, db *sql.DB, id int64) (*models.User, error) {
	user := &models.User{}
	err := db.QueryRowContext(ctx,
		`SELECT id, username, email, role, address, is_active, created_at, updated_at, version
		 FROM users
		 WHERE id = $1`,
		id).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Role,
		&user.Address,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.Version,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

func ListUsers(ctx context.Context, db *sql.DB, page, pageSize int) (*OffsetPage, error) {
	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	offset := (page - 1) * pageSize
	rows, err := db.QueryContext(ctx,
		`SELECT id, username, email, role, address, is_active, created_at, updated_at, version
		 FROM users
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.Role,
			&user.Address,
			&user.IsActive,
			&user.CreatedAt,
			&user.UpdatedAt,
			&user.Version,
		)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &OffsetPage{
		Items:      users,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}
