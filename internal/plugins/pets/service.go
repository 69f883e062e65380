package pets

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/petfolio/petfolio/internal/apperror"
	"github.com/petfolio/petfolio/internal/sanitize"
)

// Actor identifies who is performing an operation. Admin actors bypass
// ownership checks.
type Actor struct {
	Email string
	Admin bool
}

// PetService defines business logic for pet records.
type PetService interface {
	List(ctx context.Context, actor Actor) ([]Pet, error)
	FindByID(ctx context.Context, actor Actor, id string) (*Pet, error)
	Create(ctx context.Context, actor Actor, req CreatePetRequest) (*Pet, error)
	Update(ctx context.Context, actor Actor, id string, req UpdatePetRequest) (*Pet, error)
	Delete(ctx context.Context, actor Actor, id string) error

	AddWeight(ctx context.Context, actor Actor, id string, req AddWeightRequest) (*WeightEntry, error)
	WeightHistory(ctx context.Context, actor Actor, id string) ([]WeightEntry, error)
}

type petService struct {
	repo PetRepository
}

// NewPetService creates a pet service.
func NewPetService(repo PetRepository) PetService {
	return &petService{repo: repo}
}

func (s *petService) List(ctx context.Context, actor Actor) ([]Pet, error) {
	var (
		pets []Pet
		err  error
	)
	if actor.Admin {
		pets, err = s.repo.ListAll(ctx)
	} else {
		pets, err = s.repo.ListByOwner(ctx, actor.Email)
	}
	if err != nil {
		return nil, err
	}
	for i := range pets {
		pets[i].Age = ageOf(pets[i].BornYear, pets[i].BornMonth)
	}
	return pets, nil
}

func (s *petService) FindByID(ctx context.Context, actor Actor, id string) (*Pet, error) {
	pet, err := s.ownedPet(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	pet.Age = ageOf(pet.BornYear, pet.BornMonth)
	return pet, nil
}

func (s *petService) Create(ctx context.Context, actor Actor, req CreatePetRequest) (*Pet, error) {
	req.Name = sanitize.Text(req.Name)
	req.Specie = sanitize.Text(req.Specie)
	req.Breed = sanitize.Text(req.Breed)
	if req.Name == "" {
		return nil, apperror.NewValidation("name is required")
	}
	if req.Specie == "" {
		return nil, apperror.NewValidation("specie is required")
	}
	if err := validateBirth(req.BornMonth, req.BornYear); err != nil {
		return nil, err
	}

	unit, err := normalizeUnit(req.WeightUnit, req.Weight)
	if err != nil {
		return nil, err
	}

	pet := &Pet{
		ID:         generatePetID(),
		Name:       req.Name,
		Specie:     req.Specie,
		Breed:      req.Breed,
		BornMonth:  req.BornMonth,
		BornYear:   req.BornYear,
		Weight:     req.Weight,
		WeightUnit: unit,
		OwnerEmail: actor.Email,
		CreatedAt:  time.Now(),
	}

	if err := s.repo.Create(ctx, pet); err != nil {
		return nil, err
	}
	if pet.Weight > 0 {
		entry := &WeightEntry{PetID: pet.ID, Weight: pet.Weight, WeightUnit: unit, RecordedAt: pet.CreatedAt}
		if err := s.repo.AddWeight(ctx, entry); err != nil {
			slog.Warn("Failed to record initial weight", "pet_id", pet.ID, "error", err)
		}
	}

	slog.Info("Pet created", "pet_id", pet.ID, "owner", pet.OwnerEmail)
	pet.Age = ageOf(pet.BornYear, pet.BornMonth)
	return pet, nil
}

func (s *petService) Update(ctx context.Context, actor Actor, id string, req UpdatePetRequest) (*Pet, error) {
	pet, err := s.ownedPet(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		pet.Name = sanitize.Text(*req.Name)
	}
	if req.Specie != nil {
		pet.Specie = sanitize.Text(*req.Specie)
	}
	if req.Breed != nil {
		pet.Breed = sanitize.Text(*req.Breed)
	}
	if req.BornMonth != nil {
		pet.BornMonth = *req.BornMonth
	}
	if req.BornYear != nil {
		pet.BornYear = *req.BornYear
	}
	if req.Deceased != nil {
		pet.Deceased = *req.Deceased
	}

	if pet.Name == "" {
		return nil, apperror.NewValidation("name cannot be empty")
	}
	if err := validateBirth(pet.BornMonth, pet.BornYear); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, pet); err != nil {
		return nil, err
	}
	pet.Age = ageOf(pet.BornYear, pet.BornMonth)
	return pet, nil
}

func (s *petService) Delete(ctx context.Context, actor Actor, id string) error {
	if _, err := s.ownedPet(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("Pet deleted", "pet_id", id, "by", actor.Email)
	return nil
}

func (s *petService) AddWeight(ctx context.Context, actor Actor, id string, req AddWeightRequest) (*WeightEntry, error) {
	pet, err := s.ownedPet(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.Weight <= 0 {
		return nil, apperror.NewValidation("weight must be positive")
	}
	unit, err := normalizeUnit(req.WeightUnit, req.Weight)
	if err != nil {
		return nil, err
	}

	entry := &WeightEntry{
		PetID:      pet.ID,
		Weight:     req.Weight,
		WeightUnit: unit,
		RecordedAt: time.Now(),
	}
	if err := s.repo.AddWeight(ctx, entry); err != nil {
		return nil, err
	}

	// Keep the denormalized latest weight on the pet row current.
	pet.Weight = req.Weight
	pet.WeightUnit = unit
	if err := s.repo.Update(ctx, pet); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *petService) WeightHistory(ctx context.Context, actor Actor, id string) ([]WeightEntry, error) {
	if _, err := s.ownedPet(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.repo.WeightHistory(ctx, id)
}

// ownedPet loads a pet and enforces ownership. Non-owners get a 403 rather
// than a 404 so admins can still diagnose access complaints from logs.
func (s *petService) ownedPet(ctx context.Context, actor Actor, id string) (*Pet, error) {
	pet, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Admin && !strings.EqualFold(pet.OwnerEmail, actor.Email) {
		return nil, apperror.NewForbidden("you do not own this pet")
	}
	return pet, nil
}

// validateBirth checks the optional birth fields. Zero means unknown for
// both month and year.
func validateBirth(month, year int) error {
	if month < 0 || month > 12 {
		return apperror.NewValidation("born_month must be between 1 and 12, or 0 when unknown")
	}
	if year != 0 && (year < 1980 || year > time.Now().Year()) {
		return apperror.NewValidation("born_year is out of range")
	}
	return nil
}

// ageOf returns whole years since birth, or 0 when the birth date is unknown.
func ageOf(year, month int) int {
	if year == 0 {
		return 0
	}
	now := time.Now()
	age := now.Year() - year
	if month > 0 && int(now.Month()) < month {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

func normalizeUnit(unit string, weight float64) (string, error) {
	if weight < 0 {
		return "", apperror.NewValidation("weight cannot be negative")
	}
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "", "kg":
		return "kg", nil
	case "lb", "lbs":
		return "lb", nil
	default:
		return "", apperror.NewValidation("weight_unit must be kg or lb")
	}
}

// generatePetID returns a random v4 UUID string.
func generatePetID() string {
	b := make([]byte, 16)
	rand.Read(b)
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}
