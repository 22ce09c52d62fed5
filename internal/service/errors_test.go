package service

import (
	"errors"
	"testing"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/repository"

	"github.com/google/uuid"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		code  domain.ErrorCode
		field string
	}{
		{"nil", nil, "", ""},
		{"catalog error passes through", domain.NewInvalidReference("brand_id", "x"), domain.CodeInvalidReference, "brand_id"},
		{"violations pass through", domain.Violations{domain.NewDuplicateName("name", "Air X")}, domain.CodeDuplicateName, ""},
		{"not found", missing("product"), domain.CodeNotFound, ""},
		{"product name", violation(repository.SQLStateUniqueViolation, "products_name_key"), domain.CodeDuplicateName, "name"},
		{"name tag", violation(repository.SQLStateUniqueViolation, "name_tags_tag_key"), domain.CodeDuplicateName, "tag"},
		{"variant color", violation(repository.SQLStateUniqueViolation, "product_colors_product_id_color_id_key"), domain.CodeConflict, "color_id"},
		{"allocation size", violation(repository.SQLStateUniqueViolation, "product_color_sizes_product_color_id_size_id_key"), domain.CodeConflict, "size_id"},
		{"unknown unique", violation(repository.SQLStateUniqueViolation, "something_key"), domain.CodeConflict, "something_key"},
		{"foreign key", violation(repository.SQLStateForeignKeyViolation, "products_brand_id_fkey"), domain.CodeInvalidReference, "products_brand_id_fkey"},
		{"check", violation(repository.SQLStateCheckViolation, "sizes_value_check"), domain.CodeInvalidInput, "sizes_value_check"},
		{"numeric overflow", violation(repository.SQLStateNumericOutOfRange, ""), domain.CodeInvalidInput, ""},
		{"string too long", violation(repository.SQLStateStringTooLong, ""), domain.CodeInvalidInput, ""},
		{"connection", &repository.StoreError{Kind: repository.KindConnection, Err: errConnectionReset}, domain.CodeStorageFailure, ""},
		{"untyped", errors.New("boom"), domain.CodeStorageFailure, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.err)
			if code := domain.CodeOf(got); code != tt.code {
				t.Fatalf("Expected %q, got %q (%v)", tt.code, code, got)
			}
			if tt.field == "" {
				return
			}
			var e *domain.Error
			if !errors.As(got, &e) || e.Field != tt.field {
				t.Errorf("Expected field %q, got %+v", tt.field, got)
			}
		})
	}
}

func TestTranslateError_KeepsCause(t *testing.T) {
	got := translateError(&repository.StoreError{Kind: repository.KindConnection, Err: errConnectionReset})
	if !errors.Is(got, errConnectionReset) {
		t.Errorf("Expected cause to be preserved, got %v", got)
	}
}

func TestNotFoundAs(t *testing.T) {
	id := uuid.New()

	err := notFoundAs(missing("row"), domain.EntityProductColor, id)
	var e *domain.Error
	if !errors.As(err, &e) || e.Code != domain.CodeNotFound || e.Field != string(domain.EntityProductColor) || e.Value != id.String() {
		t.Errorf("Unexpected narrowed error %+v", err)
	}

	other := violation(repository.SQLStateCheckViolation, "x")
	if got := notFoundAs(other, domain.EntityProduct, id); got != other {
		t.Errorf("Expected non NotFound errors untouched, got %v", got)
	}
}
