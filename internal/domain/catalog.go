package domain

import "time"

// Catalog entities: thin records managed by CRUD handlers. All are
// soft-deleted via the Active flag.

type Specialty struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"created_at"`
	ModifiedAt  *time.Time `json:"modified_at,omitempty"`
}

type Institution struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Address    string     `json:"address,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"created_at"`
	ModifiedAt *time.Time `json:"modified_at,omitempty"`
}

type Doctor struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email,omitempty"`
	Phone           string     `json:"phone,omitempty"`
	SpecialtyID     int64      `json:"specialty_id"`
	SpecialtyName   string     `json:"specialty,omitempty"`
	InstitutionID   int64      `json:"institution_id"`
	InstitutionName string     `json:"institution,omitempty"`
	Active          bool       `json:"active"`
	CreatedAt       time.Time  `json:"created_at"`
	ModifiedAt      *time.Time `json:"modified_at,omitempty"`
}

type Patient struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Document   string     `json:"document"`
	Email      string     `json:"email,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"created_at"`
	ModifiedAt *time.Time `json:"modified_at,omitempty"`
}

type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
}

type Permission struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
