package service

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Validator runs read-only checks against a store snapshot. The zero
// transaction form reads committed state; WithChecker binds it to an open Tx.
type Validator struct {
	checker  repository.Checker
	images   ImageResolver
	validate *validator.Validate
}

func NewValidator(checker repository.Checker, images ImageResolver) *Validator {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &Validator{checker: checker, images: images, validate: validate}
}

// WithChecker returns a validator that reads through checker
func (v *Validator) WithChecker(checker repository.Checker) *Validator {
	return &Validator{checker: checker, images: v.images, validate: v.validate}
}

func (v *Validator) NameTaken(ctx context.Context, name string) (bool, error) {
	return repository.Exists(ctx, v.checker, repository.ProductName, name)
}

func (v *Validator) NameTakenByOther(ctx context.Context, name string, productID uuid.UUID) (bool, error) {
	return repository.ExistsExcept(ctx, v.checker, repository.ProductName, name, productID)
}

func (v *Validator) BrandExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return repository.Exists(ctx, v.checker, repository.BrandID, id)
}

func (v *Validator) ColorExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return repository.Exists(ctx, v.checker, repository.ColorID, id)
}

// SizeExistsAll is false if any id is missing
func (v *Validator) SizeExistsAll(ctx context.Context, ids []uuid.UUID) (bool, error) {
	return repository.ExistAll(ctx, v.checker, repository.SizeID, ids)
}

// NameTagsExistAll is false if any id is missing
func (v *Validator) NameTagsExistAll(ctx context.Context, ids []uuid.UUID) (bool, error) {
	return repository.ExistAll(ctx, v.checker, repository.NameTagID, ids)
}

// CheckImage accepts jpg, jpeg and png payloads only
func (v *Validator) CheckImage(field string, payload domain.ImagePayload) error {
	_, err := v.images.Check(field, payload)
	return err
}

// Struct runs tag validation and converts failures to InvalidInput violations
func (v *Validator) Struct(s any) domain.Violations {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return domain.Violations{domain.NewInvalidInput("", nil, err.Error())}
	}

	violations := make(domain.Violations, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		violations = append(violations, domain.NewInvalidInput(fieldPath(fe.Namespace()), fe.Value(), tagMessage(fe)))
	}
	return violations
}

// ValidateCreate checks a new aggregate before any transaction opens
func (v *Validator) ValidateCreate(ctx context.Context, spec *domain.ProductSpec) error {
	if violations := v.structure(spec, false); len(violations) > 0 {
		return violations
	}

	var violations domain.Violations

	taken, err := v.NameTaken(ctx, spec.Name)
	if err != nil {
		return err
	}
	if taken {
		violations = append(violations, domain.NewDuplicateName("name", spec.Name))
	}

	if err := v.references(ctx, spec, &violations); err != nil {
		return err
	}

	v.variantImages(spec, &violations)

	return violations.Err()
}

// ValidateUpdate checks a desired aggregate for an existing product
func (v *Validator) ValidateUpdate(ctx context.Context, productID uuid.UUID, spec *domain.ProductSpec) error {
	if violations := v.structure(spec, true); len(violations) > 0 {
		return violations
	}

	var violations domain.Violations

	taken, err := v.NameTakenByOther(ctx, spec.Name, productID)
	if err != nil {
		return err
	}
	if taken {
		violations = append(violations, domain.NewDuplicateName("name", spec.Name))
	}

	if err := v.references(ctx, spec, &violations); err != nil {
		return err
	}

	v.variantImages(spec, &violations)

	return violations.Err()
}

// Prices are stored as NUMERIC(12, 2).
const priceScale = 2

var maxPrice = decimal.New(1, 10)

func (v *Validator) structure(spec *domain.ProductSpec, update bool) domain.Violations {
	violations := v.Struct(spec)

	if strings.TrimSpace(spec.Name) == "" && len(violations) == 0 {
		violations = append(violations, domain.NewInvalidInput("name", spec.Name, "name must not be blank"))
	}

	colors := make(map[uuid.UUID]int, len(spec.Variants))
	variantIDs := make(map[uuid.UUID]int, len(spec.Variants))
	for i, variant := range spec.Variants {
		priceField := fmt.Sprintf("variants[%d].price", i)
		switch {
		case variant.Price.IsNegative():
			violations = append(violations, domain.NewInvalidInput(priceField, variant.Price.String(), "price must not be negative"))
		case variant.Price.GreaterThanOrEqual(maxPrice):
			violations = append(violations, domain.NewInvalidInput(priceField, variant.Price.String(), "price must be below "+maxPrice.String()))
		case !variant.Price.Equal(variant.Price.Round(priceScale)):
			violations = append(violations, domain.NewInvalidInput(priceField, variant.Price.String(), "price has more than 2 decimal places"))
		}
		if first, dup := colors[variant.ColorID]; dup {
			violations = append(violations, domain.NewInvalidInput(fmt.Sprintf("variants[%d].color_id", i), variant.ColorID,
				fmt.Sprintf("color already used by variants[%d]", first)))
		} else {
			colors[variant.ColorID] = i
		}

		if variant.ID != nil {
			if !update {
				violations = append(violations, domain.NewInvalidInput(fmt.Sprintf("variants[%d].id", i), *variant.ID, "new products cannot reference existing variants"))
			} else if first, dup := variantIDs[*variant.ID]; dup {
				violations = append(violations, domain.NewInvalidInput(fmt.Sprintf("variants[%d].id", i), *variant.ID,
					fmt.Sprintf("variant already targeted by variants[%d]", first)))
			} else {
				variantIDs[*variant.ID] = i
			}
		}

		// Allocations are keyed by size when reconciling, so an update may not repeat one.
		if update {
			sizes := make(map[uuid.UUID]struct{}, len(variant.Sizes))
			for j, a := range variant.Sizes {
				if _, dup := sizes[a.SizeID]; dup {
					violations = append(violations, domain.NewInvalidInput(fmt.Sprintf("variants[%d].sizes[%d].size_id", i, j), a.SizeID, "size repeated in variant"))
				}
				sizes[a.SizeID] = struct{}{}
			}
		}
	}

	return violations
}

func (v *Validator) references(ctx context.Context, spec *domain.ProductSpec, violations *domain.Violations) error {
	ok, err := v.BrandExists(ctx, spec.BrandID)
	if err != nil {
		return err
	}
	if !ok {
		*violations = append(*violations, domain.NewInvalidReference("brand_id", spec.BrandID))
	}

	ok, err = v.NameTagsExistAll(ctx, spec.NameTagIDs)
	if err != nil {
		return err
	}
	if !ok {
		*violations = append(*violations, domain.NewInvalidReference("name_tag_ids", spec.NameTagIDs))
	}

	for i, variant := range spec.Variants {
		ok, err := v.ColorExists(ctx, variant.ColorID)
		if err != nil {
			return err
		}
		if !ok {
			*violations = append(*violations, domain.NewInvalidReference(fmt.Sprintf("variants[%d].color_id", i), variant.ColorID))
		}

		sizeIDs := make([]uuid.UUID, 0, len(variant.Sizes))
		for _, a := range variant.Sizes {
			sizeIDs = append(sizeIDs, a.SizeID)
		}
		ok, err = v.SizeExistsAll(ctx, sizeIDs)
		if err != nil {
			return err
		}
		if !ok {
			*violations = append(*violations, domain.NewInvalidReference(fmt.Sprintf("variants[%d].sizes", i), sizeIDs))
		}
	}

	return nil
}

func (v *Validator) variantImages(spec *domain.ProductSpec, violations *domain.Violations) {
	for i, variant := range spec.Variants {
		for j, img := range variant.Images {
			if err := v.CheckImage(imageField(i, j), img); err != nil {
				if e, ok := err.(*domain.Error); ok {
					*violations = append(*violations, e)
				}
			}
		}
	}
}

func imageField(variant, image int) string {
	return fmt.Sprintf("variants[%d].images[%d]", variant, image)
}

// fieldPath drops the struct name: "ProductSpec.variants[0].price" becomes "variants[0].price"
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "max":
		return "Value is too long"
	case "gte":
		return "Value must be greater than or equal to " + fe.Param()
	case "lte":
		return "Value must be less than or equal to " + fe.Param()
	case "oneof":
		return "Value must be one of " + fe.Param()
	default:
		return "Invalid value"
	}
}
