// Package pets manages pet records and their weight history. Pets belong to
// the user who created them; admins may operate on any pet.
package pets

import "time"

// Pet is the domain model for a pet record.
type Pet struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Specie     string    `json:"specie"`
	Breed      string    `json:"breed,omitempty"`
	BornMonth  int       `json:"born_month,omitempty"` // 1-12, zero when unknown.
	BornYear   int       `json:"born_year,omitempty"`
	Age        int       `json:"age"` // Derived from BornYear, never stored.
	Weight     float64   `json:"weight,omitempty"`
	WeightUnit string    `json:"weight_unit,omitempty"` // "kg" or "lb".
	Deceased   bool      `json:"deceased"`
	OwnerEmail string    `json:"owner_email"`
	CreatedAt  time.Time `json:"created_at"`
}

// WeightEntry is one historical weight measurement.
type WeightEntry struct {
	ID         int64     `json:"id"`
	PetID      string    `json:"pet_id"`
	Weight     float64   `json:"weight"`
	WeightUnit string    `json:"weight_unit"`
	RecordedAt time.Time `json:"recorded_at"`
}

// CreatePetRequest holds the body for pet creation.
type CreatePetRequest struct {
	Name       string  `json:"name" form:"name"`
	Specie     string  `json:"specie" form:"specie"`
	Breed      string  `json:"breed" form:"breed"`
	BornMonth  int     `json:"born_month" form:"born_month"`
	BornYear   int     `json:"born_year" form:"born_year"`
	Weight     float64 `json:"weight" form:"weight"`
	WeightUnit string  `json:"weight_unit" form:"weight_unit"`
}

// UpdatePetRequest holds the body for pet updates. Nil pointers mean "leave
// unchanged".
type UpdatePetRequest struct {
	Name      *string `json:"name" form:"name"`
	Specie    *string `json:"specie" form:"specie"`
	Breed     *string `json:"breed" form:"breed"`
	BornMonth *int    `json:"born_month" form:"born_month"`
	BornYear  *int    `json:"born_year" form:"born_year"`
	Deceased  *bool   `json:"deceased" form:"deceased"`
}

// AddWeightRequest holds the body for recording a weight measurement.
type AddWeightRequest struct {
	Weight     float64 `json:"weight" form:"weight"`
	WeightUnit string  `json:"weight_unit" form:"weight_unit"`
}
