package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ImagePayload is a raw image, either file bytes with a name or a base64 string.
// Base64 may be a data URI.
type ImagePayload struct {
	Filename string `json:"filename,omitempty"`
	Data     []byte `json:"-"`
	Base64   string `json:"base64,omitempty"`
}

// Empty reports whether the payload carries no image at all
func (p ImagePayload) Empty() bool {
	return len(p.Data) == 0 && p.Base64 == ""
}

// SizeAllocationSpec is the desired stock of one size
type SizeAllocationSpec struct {
	SizeID   uuid.UUID `json:"size_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"gte=0,lte=2147483647"`
}

// VariantSpec is the desired shape of one variant. ID is set only when an
// existing variant is targeted on update.
type VariantSpec struct {
	ID      *uuid.UUID           `json:"id,omitempty"`
	ColorID uuid.UUID            `json:"color_id" validate:"required"`
	Price   decimal.Decimal      `json:"price"`
	Images  []ImagePayload       `json:"images"`
	Sizes   []SizeAllocationSpec `json:"sizes" validate:"dive"`
}

// ProductSpec is the desired shape of a whole aggregate
type ProductSpec struct {
	Name        string        `json:"name" validate:"required,max=255"`
	Description string        `json:"description"`
	Status      ProductStatus `json:"status" validate:"omitempty,oneof=active inactive"`
	BrandID     uuid.UUID     `json:"brand_id" validate:"required"`
	NameTagIDs  []uuid.UUID   `json:"name_tag_ids"`
	Variants    []VariantSpec `json:"variants" validate:"dive"`
}

// ColorIDs returns the color ids of all variants, in order
func (s *ProductSpec) ColorIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.Variants))
	for _, v := range s.Variants {
		ids = append(ids, v.ColorID)
	}
	return ids
}

// SizeIDs returns the size ids of all allocations, in order
func (s *ProductSpec) SizeIDs() []uuid.UUID {
	var ids []uuid.UUID
	for _, v := range s.Variants {
		for _, a := range v.Sizes {
			ids = append(ids, a.SizeID)
		}
	}
	return ids
}
