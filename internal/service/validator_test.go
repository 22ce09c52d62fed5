package service

import (
	"context"
	"errors"
	"testing"

	"catalog-admin/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func newTestValidator(store *memStore) *Validator {
	return NewValidator(store, NewImageResolver(newMemDisk(), "images", zap.NewNop()))
}

func violationsOf(t *testing.T, err error) domain.Violations {
	t.Helper()
	var violations domain.Violations
	if !errors.As(err, &violations) {
		t.Fatalf("Expected violations, got %T: %v", err, err)
	}
	return violations
}

func TestValidateCreate_CollectsAllViolations(t *testing.T) {
	store := newMemStore()
	h := &harness{store: store}
	s := seedCatalog(h)
	v := newTestValidator(store)

	spec := airX(s)
	spec.BrandID = uuid.New()
	spec.NameTagIDs = []uuid.UUID{uuid.New()}
	spec.Variants[1].ColorID = uuid.New()

	violations := violationsOf(t, v.ValidateCreate(context.Background(), &spec))
	if len(violations) != 3 {
		t.Fatalf("Expected 3 violations, got %d: %v", len(violations), violations)
	}

	fields := map[string]bool{}
	for _, e := range violations {
		fields[e.Field] = true
		if e.Code != domain.CodeInvalidReference {
			t.Errorf("Expected INVALID_REFERENCE for %s, got %s", e.Field, e.Code)
		}
	}
	for _, field := range []string{"brand_id", "name_tag_ids", "variants[1].color_id"} {
		if !fields[field] {
			t.Errorf("Missing violation for %s in %v", field, violations)
		}
	}
}

func TestValidateCreate_StructuralErrorsStopEarly(t *testing.T) {
	store := newMemStore()
	v := newTestValidator(store)

	spec := domain.ProductSpec{
		Name:    "",
		BrandID: uuid.New(),
		Variants: []domain.VariantSpec{
			{ColorID: uuid.New(), Sizes: []domain.SizeAllocationSpec{{SizeID: uuid.New(), Quantity: -1}}},
		},
	}

	violations := violationsOf(t, v.ValidateCreate(context.Background(), &spec))
	fields := map[string]bool{}
	for _, e := range violations {
		fields[e.Field] = true
		if e.Code != domain.CodeInvalidInput {
			t.Errorf("Expected only INVALID_INPUT, got %s for %s", e.Code, e.Field)
		}
	}
	if !fields["name"] || !fields["variants[0].sizes[0].quantity"] {
		t.Errorf("Expected json field paths, got %v", violations)
	}
	if store.calls["exists"]+store.calls["count"] != 0 {
		t.Error("Expected no store reads after structural failures")
	}
}

func TestValidateUpdate_NameExcludesSelf(t *testing.T) {
	store := newMemStore()
	h := &harness{store: store}
	s := seedCatalog(h)
	v := newTestValidator(store)

	productID := uuid.New()
	store.committed.products[productID] = domain.Product{ID: productID, Name: "Air X", BrandID: s.nike}

	spec := airX(s)
	if err := v.ValidateUpdate(context.Background(), productID, &spec); err != nil {
		t.Errorf("Expected own name to be accepted, got %v", err)
	}

	err := v.ValidateCreate(context.Background(), &spec)
	if domain.CodeOf(err) != domain.CodeDuplicateName {
		t.Errorf("Expected DUPLICATE_NAME on create, got %v", err)
	}
}

func TestValidateUpdate_VariantRules(t *testing.T) {
	store := newMemStore()
	h := &harness{store: store}
	s := seedCatalog(h)
	v := newTestValidator(store)
	ctx := context.Background()

	id := uuid.New()
	spec := airX(s)
	spec.Variants[0].ID = &id
	spec.Variants[1].ID = &id

	violations := violationsOf(t, v.ValidateUpdate(ctx, uuid.New(), &spec))
	if len(violations) != 1 || violations[0].Field != "variants[1].id" {
		t.Errorf("Expected repeated variant id violation, got %v", violations)
	}

	// Repeated sizes are only rejected on update.
	spec = airX(s)
	spec.Variants[0].Sizes[1].SizeID = s.s40
	if err := v.ValidateCreate(ctx, &spec); err != nil {
		t.Errorf("Expected create to defer repeated sizes to storage, got %v", err)
	}
	violations = violationsOf(t, v.ValidateUpdate(ctx, uuid.New(), &spec))
	if violations[0].Field != "variants[0].sizes[1].size_id" {
		t.Errorf("Unexpected violation %v", violations)
	}
}

func TestValidateCreate_StorageBounds(t *testing.T) {
	store := newMemStore()
	h := &harness{store: store}
	s := seedCatalog(h)
	v := newTestValidator(store)

	tests := []struct {
		name  string
		edit  func(*domain.ProductSpec)
		field string
	}{
		{"quantity above int32", func(p *domain.ProductSpec) { p.Variants[0].Sizes[0].Quantity = 3_000_000_000 }, "variants[0].sizes[0].quantity"},
		{"price at the column limit", func(p *domain.ProductSpec) { p.Variants[1].Price = decimal.New(1, 10) }, "variants[1].price"},
		{"price with three decimals", func(p *domain.ProductSpec) { p.Variants[0].Price = decimal.RequireFromString("19.999") }, "variants[0].price"},
		{"trailing zeros are fine", func(p *domain.ProductSpec) { p.Variants[0].Price = decimal.RequireFromString("19.900") }, ""},
		{"largest storable price", func(p *domain.ProductSpec) { p.Variants[0].Price = decimal.RequireFromString("9999999999.99") }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := airX(s)
			tt.edit(&spec)
			err := v.ValidateCreate(context.Background(), &spec)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Expected spec to pass, got %v", err)
				}
				return
			}
			violations := violationsOf(t, err)
			if len(violations) != 1 || violations[0].Field != tt.field || violations[0].Code != domain.CodeInvalidInput {
				t.Errorf("Expected INVALID_INPUT on %s, got %v", tt.field, violations)
			}
		})
	}
}

func TestValidator_Struct(t *testing.T) {
	v := newTestValidator(newMemStore())

	if err := v.Struct(&domain.SizeSpec{Value: 50}).Err(); err != nil {
		t.Errorf("Expected valid size, got %v", err)
	}

	violations := v.Struct(&domain.SizeSpec{Value: 101})
	if len(violations) != 1 || violations[0].Field != "value" {
		t.Fatalf("Expected one value violation, got %v", violations)
	}
	if violations[0].Message != "Value must be less than or equal to 100" {
		t.Errorf("Unexpected message %q", violations[0].Message)
	}

	violations = v.Struct(&domain.ProductSpec{Name: "x", BrandID: uuid.New(), Status: "archived"})
	if len(violations) != 1 || violations[0].Field != "status" {
		t.Errorf("Expected status violation, got %v", violations)
	}
}
