package users

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/petfolio/petfolio/internal/apperror"
)

// UserRepository defines data access for users and their role assignments.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, user *User) error
	EmailExists(ctx context.Context, email string) (bool, error)

	// EncryptedPasswordByEmail returns the stored cipher payload for the
	// user's password without loading the rest of the row.
	EncryptedPasswordByEmail(ctx context.Context, email string) (string, error)

	// RolesByEmail returns the union of the primary role column and the
	// user_roles join table.
	RolesByEmail(ctx context.Context, email string) ([]string, error)

	HasRole(ctx context.Context, email, role string) (bool, error)
	AssignRole(ctx context.Context, email, role string) error
	RemoveRole(ctx context.Context, email, role string) error
}

type mysqlUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a MariaDB-backed user repository.
func NewMySQLUserRepository(db *sql.DB) UserRepository {
	return &mysqlUserRepository{db: db}
}

func (r *mysqlUserRepository) Create(ctx context.Context, user *User) error {
	query := `INSERT INTO users (id, name, lastname, email, rut, password_encrypted, role, active, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Lastname, user.Email, user.Rut,
		user.PasswordEncrypted, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (r *mysqlUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT id, name, lastname, email, rut, password_encrypted, role, active, created_at
	          FROM users WHERE email = ?`

	var user User
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Name, &user.Lastname, &user.Email, &user.Rut,
		&user.PasswordEncrypted, &user.Role, &user.Active, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by email: %w", err)
	}

	roles, err := r.extraRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Roles = mergeRoles(user.Role, roles)
	return &user, nil
}

func (r *mysqlUserRepository) List(ctx context.Context) ([]User, error) {
	query := `SELECT id, name, lastname, email, rut, role, active, created_at
	          FROM users ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Name, &user.Lastname, &user.Email,
			&user.Rut, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *mysqlUserRepository) Update(ctx context.Context, user *User) error {
	query := `UPDATE users SET name = ?, lastname = ?, rut = ?, role = ?, active = ?
	          WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		user.Name, user.Lastname, user.Rut, user.Role, user.Active, user.ID)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFound("user not found")
	}
	return nil
}

func (r *mysqlUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking email existence: %w", err)
	}
	return count > 0, nil
}

func (r *mysqlUserRepository) EncryptedPasswordByEmail(ctx context.Context, email string) (string, error) {
	var encrypted string
	err := r.db.QueryRowContext(ctx,
		`SELECT password_encrypted FROM users WHERE email = ?`, email).Scan(&encrypted)
	if err == sql.ErrNoRows {
		return "", apperror.NewNotFound("user not found")
	}
	if err != nil {
		return "", fmt.Errorf("querying password by email: %w", err)
	}
	return encrypted, nil
}

func (r *mysqlUserRepository) RolesByEmail(ctx context.Context, email string) ([]string, error) {
	var id, role string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, role FROM users WHERE email = ?`, email).Scan(&id, &role)
	if err == sql.ErrNoRows {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user roles: %w", err)
	}

	extra, err := r.extraRoles(ctx, id)
	if err != nil {
		return nil, err
	}
	return mergeRoles(role, extra), nil
}

func (r *mysqlUserRepository) HasRole(ctx context.Context, email, role string) (bool, error) {
	roles, err := r.RolesByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	for _, have := range roles {
		if have == role {
			return true, nil
		}
	}
	return false, nil
}

func (r *mysqlUserRepository) AssignRole(ctx context.Context, email, role string) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role)
		 SELECT id, ? FROM users WHERE email = ?`, role, email)
	if err != nil {
		return fmt.Errorf("assigning role: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFound("user not found")
	}
	return nil
}

func (r *mysqlUserRepository) RemoveRole(ctx context.Context, email, role string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE ur FROM user_roles ur
		 JOIN users u ON u.id = ur.user_id
		 WHERE u.email = ? AND ur.role = ?`, email, role)
	if err != nil {
		return fmt.Errorf("removing role: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFound("role assignment not found")
	}
	return nil
}

// extraRoles returns the user_roles rows for a user id.
func (r *mysqlUserRepository) extraRoles(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT role FROM user_roles WHERE user_id = ? ORDER BY role`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying user_roles: %w", err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("scanning role row: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// mergeRoles unions the primary role column with the join-table roles,
// dropping empties and duplicates. Order is primary first.
func mergeRoles(primary string, extra []string) []string {
	seen := make(map[string]bool, len(extra)+1)
	var merged []string
	for _, role := range append([]string{primary}, extra...) {
		if role == "" || seen[role] {
			continue
		}
		seen[role] = true
		merged = append(merged, role)
	}
	return merged
}
