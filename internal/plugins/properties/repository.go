package properties

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/petfolio/petfolio/internal/apperror"
)

// PropertyRepository defines the data access contract for configuration
// properties. All SQL lives in the concrete implementation.
type PropertyRepository interface {
	// Get retrieves a property by key. Returns NotFound if the key does
	// not exist -- callers must treat absence as an error, not a default.
	Get(ctx context.Context, key string) (*Property, error)

	// Set upserts a property value. Creates the key if it does not exist.
	Set(ctx context.Context, key, value string) error

	// GetAll returns every property ordered by key.
	GetAll(ctx context.Context) ([]Property, error)
}

// propertyRepository implements PropertyRepository with MariaDB.
type propertyRepository struct {
	db *sql.DB
}

// NewPropertyRepository creates a new property repository backed by the given DB pool.
func NewPropertyRepository(db *sql.DB) PropertyRepository {
	return &propertyRepository{db: db}
}

// Get retrieves a single property by its key.
func (r *propertyRepository) Get(ctx context.Context, key string) (*Property, error) {
	query := `SELECT prop_key, prop_value, updated_at FROM properties WHERE prop_key = ?`

	prop := &Property{}
	err := r.db.QueryRowContext(ctx, query, key).Scan(&prop.Key, &prop.Value, &prop.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound(fmt.Sprintf("property %q not found", key))
	}
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("querying property %q: %w", key, err))
	}
	return prop, nil
}

// Set upserts a property value using INSERT ... ON DUPLICATE KEY UPDATE.
func (r *propertyRepository) Set(ctx context.Context, key, value string) error {
	query := `INSERT INTO properties (prop_key, prop_value)
	          VALUES (?, ?)
	          ON DUPLICATE KEY UPDATE prop_value = VALUES(prop_value)`

	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return apperror.NewInternal(fmt.Errorf("upserting property %q: %w", key, err))
	}
	return nil
}

// GetAll returns all properties ordered by key.
func (r *propertyRepository) GetAll(ctx context.Context) ([]Property, error) {
	query := `SELECT prop_key, prop_value, updated_at FROM properties ORDER BY prop_key`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("querying properties: %w", err))
	}
	defer rows.Close()

	var props []Property
	for rows.Next() {
		var p Property
		if err := rows.Scan(&p.Key, &p.Value, &p.UpdatedAt); err != nil {
			return nil, apperror.NewInternal(fmt.Errorf("scanning property row: %w", err))
		}
		props = append(props, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("iterating properties: %w", err))
	}
	return props, nil
}
