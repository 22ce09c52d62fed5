package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStatus is the visibility flag of a product
type ProductStatus string

const (
	ProductActive   ProductStatus = "active"
	ProductInactive ProductStatus = "inactive"
)

// Toggle returns the opposite status
func (s ProductStatus) Toggle() ProductStatus {
	if s == ProductActive {
		return ProductInactive
	}
	return ProductActive
}

// Product represents a product in the catalog
type Product struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	Name        string        `json:"name" db:"name"`
	Description string        `json:"description" db:"description"`
	Status      ProductStatus `json:"status" db:"status"`
	BrandID     uuid.UUID     `json:"brand_id" db:"brand_id"`
	CreatedBy   string        `json:"created_by" db:"created_by"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// ProductColor is a variant of a product in one color
type ProductColor struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	ProductID uuid.UUID       `json:"product_id" db:"product_id"`
	ColorID   uuid.UUID       `json:"color_id" db:"color_id"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Images    []string        `json:"images" db:"image_paths"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// ProductColorSize is the stock allocation of a variant in one size
type ProductColorSize struct {
	ID             uuid.UUID `json:"id" db:"id"`
	ProductColorID uuid.UUID `json:"product_color_id" db:"product_color_id"`
	SizeID         uuid.UUID `json:"size_id" db:"size_id"`
	Quantity       int       `json:"quantity" db:"quantity"`
}

// ProductNameTag links a product to a name tag
type ProductNameTag struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	NameTagID uuid.UUID `json:"name_tag_id" db:"name_tag_id"`
	CreatedBy string    `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Variant is a ProductColor with its allocations
type Variant struct {
	ProductColor
	Sizes []ProductColorSize `json:"sizes"`
}

// Aggregate is a product with its name tag links, variants and allocations
type Aggregate struct {
	Product  Product          `json:"product"`
	NameTags []ProductNameTag `json:"name_tags"`
	Variants []Variant        `json:"variants"`
}

// NameTagIDs returns the ids of the linked name tags
func (a *Aggregate) NameTagIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(a.NameTags))
	for _, link := range a.NameTags {
		ids = append(ids, link.NameTagID)
	}
	return ids
}

// Variant finds a variant by id
func (a *Aggregate) Variant(id uuid.UUID) (*Variant, bool) {
	for i := range a.Variants {
		if a.Variants[i].ID == id {
			return &a.Variants[i], true
		}
	}
	return nil, false
}

// ImageSeparator joins variant image paths in storage
const ImageSeparator = ";"

// JoinImages encodes an image list for storage
func JoinImages(images []string) string {
	return strings.Join(images, ImageSeparator)
}

// SplitImages decodes a stored image list
func SplitImages(joined string) []string {
	if joined == "" {
		return []string{}
	}
	return strings.Split(joined, ImageSeparator)
}

// ProductFilter narrows product listings
type ProductFilter struct {
	Name     string
	BrandID  *uuid.UUID
	Status   *ProductStatus
	Page     int
	PageSize int
}

// Normalize clamps paging to sane defaults
func (f ProductFilter) Normalize() ProductFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
	return f
}

// Offset of the first row of the page
func (f ProductFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}
