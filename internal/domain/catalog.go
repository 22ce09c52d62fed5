package domain

import (
	"time"

	"github.com/google/uuid"
)

// Brand owns many products
type Brand struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	ImagePath   string    `json:"image_path" db:"image_path"`
	CreatedBy   string    `json:"created_by" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Color can only be deleted while no variant references it
type Color struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedBy string    `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Size values range from MinSizeValue to MaxSizeValue
type Size struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Value     int       `json:"value" db:"value"`
	CreatedBy string    `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

const (
	MinSizeValue = 1
	MaxSizeValue = 100
)

type NameTag struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Tag       string    `json:"tag" db:"tag"`
	CreatedBy string    `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// BrandSpec is the input for creating a brand
type BrandSpec struct {
	Name        string       `json:"name" validate:"required,max=255"`
	Description string       `json:"description"`
	Image       ImagePayload `json:"image"`
}

type ColorSpec struct {
	Name string `json:"name" validate:"required,max=100"`
}

type SizeSpec struct {
	Value int `json:"value" validate:"gte=1,lte=100"`
}

type NameTagSpec struct {
	Tag string `json:"tag" validate:"required,max=100"`
}
