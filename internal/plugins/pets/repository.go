package pets

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/petfolio/petfolio/internal/apperror"
)

// PetRepository defines data access for pets and their weight history.
type PetRepository interface {
	Create(ctx context.Context, pet *Pet) error
	FindByID(ctx context.Context, id string) (*Pet, error)
	ListByOwner(ctx context.Context, ownerEmail string) ([]Pet, error)
	ListAll(ctx context.Context) ([]Pet, error)
	Update(ctx context.Context, pet *Pet) error
	Delete(ctx context.Context, id string) error

	AddWeight(ctx context.Context, entry *WeightEntry) error
	WeightHistory(ctx context.Context, petID string) ([]WeightEntry, error)
}

type mysqlPetRepository struct {
	db *sql.DB
}

// NewMySQLPetRepository creates a MariaDB-backed pet repository.
func NewMySQLPetRepository(db *sql.DB) PetRepository {
	return &mysqlPetRepository{db: db}
}

const petColumns = `id, name, specie, breed, born_month, born_year, weight, weight_unit, deceased, owner_email, created_at`

func scanPet(row interface{ Scan(...any) error }) (*Pet, error) {
	var pet Pet
	err := row.Scan(&pet.ID, &pet.Name, &pet.Specie, &pet.Breed,
		&pet.BornMonth, &pet.BornYear, &pet.Weight, &pet.WeightUnit,
		&pet.Deceased, &pet.OwnerEmail, &pet.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &pet, nil
}

func (r *mysqlPetRepository) Create(ctx context.Context, pet *Pet) error {
	query := `INSERT INTO pets (` + petColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		pet.ID, pet.Name, pet.Specie, pet.Breed, pet.BornMonth, pet.BornYear,
		pet.Weight, pet.WeightUnit, pet.Deceased, pet.OwnerEmail, pet.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting pet: %w", err)
	}
	return nil
}

func (r *mysqlPetRepository) FindByID(ctx context.Context, id string) (*Pet, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+petColumns+` FROM pets WHERE id = ?`, id)

	pet, err := scanPet(row)
	if err == sql.ErrNoRows {
		return nil, apperror.NewNotFound("pet not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying pet: %w", err)
	}
	return pet, nil
}

func (r *mysqlPetRepository) ListByOwner(ctx context.Context, ownerEmail string) ([]Pet, error) {
	return r.list(ctx, `SELECT `+petColumns+` FROM pets WHERE owner_email = ? ORDER BY created_at DESC`, ownerEmail)
}

func (r *mysqlPetRepository) ListAll(ctx context.Context) ([]Pet, error) {
	return r.list(ctx, `SELECT `+petColumns+` FROM pets ORDER BY created_at DESC`)
}

func (r *mysqlPetRepository) list(ctx context.Context, query string, args ...any) ([]Pet, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing pets: %w", err)
	}
	defer rows.Close()

	var pets []Pet
	for rows.Next() {
		pet, err := scanPet(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning pet row: %w", err)
		}
		pets = append(pets, *pet)
	}
	return pets, rows.Err()
}

func (r *mysqlPetRepository) Update(ctx context.Context, pet *Pet) error {
	query := `UPDATE pets SET name = ?, specie = ?, breed = ?, born_month = ?,
	          born_year = ?, weight = ?, weight_unit = ?, deceased = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		pet.Name, pet.Specie, pet.Breed, pet.BornMonth, pet.BornYear,
		pet.Weight, pet.WeightUnit, pet.Deceased, pet.ID)
	if err != nil {
		return fmt.Errorf("updating pet: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFound("pet not found")
	}
	return nil
}

func (r *mysqlPetRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM pets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting pet: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFound("pet not found")
	}
	return nil
}

func (r *mysqlPetRepository) AddWeight(ctx context.Context, entry *WeightEntry) error {
	query := `INSERT INTO pet_weights (pet_id, weight, weight_unit, recorded_at) VALUES (?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		entry.PetID, entry.Weight, entry.WeightUnit, entry.RecordedAt)
	if err != nil {
		return fmt.Errorf("inserting weight entry: %w", err)
	}
	entry.ID, _ = result.LastInsertId()
	return nil
}

func (r *mysqlPetRepository) WeightHistory(ctx context.Context, petID string) ([]WeightEntry, error) {
	query := `SELECT id, pet_id, weight, weight_unit, recorded_at
	          FROM pet_weights WHERE pet_id = ? ORDER BY recorded_at DESC`

	rows, err := r.db.QueryContext(ctx, query, petID)
	if err != nil {
		return nil, fmt.Errorf("querying weight history: %w", err)
	}
	defer rows.Close()

	var entries []WeightEntry
	for rows.Next() {
		var entry WeightEntry
		if err := rows.Scan(&entry.ID, &entry.PetID, &entry.Weight,
			&entry.WeightUnit, &entry.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning weight row: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
