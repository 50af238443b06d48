package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"medlink-data/internal/domain"
)

type PostgresUsersRepo struct {
	db *sql.DB
}

func NewPostgresUsersRepo(db *sql.DB) *PostgresUsersRepo {
	return &PostgresUsersRepo{db: db}
}

func (r *PostgresUsersRepo) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id::text, email, full_name, role, status FROM users ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.User, 0)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.Status); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}

func (r *PostgresUsersRepo) Create(ctx context.Context, u *domain.User) (string, error) {
	if u == nil {
		return "", fmt.Errorf("user is required")
	}
	if u.Email == "" || u.FullName == "" {
		return "", fmt.Errorf("email and full_name are required")
	}
	role := u.Role
	if role == "" {
		role = domain.RoleViewer
	}

	var id string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (email, full_name, role, status)
		 VALUES ($1, $2, $3, 'active')
		 RETURNING id::text`,
		u.Email, u.FullName, role,
	).Scan(&id)
	if err != nil {
		if strings.Contains(err.Error(), "users_email_key") {
			return "", fmt.Errorf("user already exists: email=%s", u.Email)
		}
		return "", fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

func (r *PostgresUsersRepo) UpdateRole(ctx context.Context, id, role string) error {
	if id == "" || role == "" {
		return fmt.Errorf("id and role are required")
	}
	switch role {
	case domain.RoleAdmin, domain.RoleEditor, domain.RoleViewer:
	default:
		return fmt.Errorf("unknown role: %s", role)
	}

	res, err := r.db.ExecContext(ctx, `UPDATE users SET role = $2 WHERE id = $1`, id, role)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user not found: id=%s", id)
	}
	return nil
}

func (r *PostgresUsersRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	return err
}
