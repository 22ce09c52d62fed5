package service

import (
	"errors"
	"fmt"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/repository"
)

// uniqueConstraints maps unique indexes to the error they surface as
var uniqueConstraints = map[string]struct {
	code  domain.ErrorCode
	field string
}{
	"products_name_key":                                {domain.CodeDuplicateName, "name"},
	"brands_name_key":                                  {domain.CodeDuplicateName, "name"},
	"colors_name_key":                                  {domain.CodeDuplicateName, "name"},
	"name_tags_tag_key":                                {domain.CodeDuplicateName, "tag"},
	"product_colors_product_id_color_id_key":           {domain.CodeConflict, "color_id"},
	"product_color_sizes_product_color_id_size_id_key": {domain.CodeConflict, "size_id"},
	"product_name_tags_product_id_name_tag_id_key":     {domain.CodeConflict, "name_tag_id"},
}

// translateError turns store errors into catalog errors. Catalog errors pass through.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var violations domain.Violations
	var catalogErr *domain.Error
	if errors.As(err, &violations) || errors.As(err, &catalogErr) {
		return err
	}

	se, ok := repository.AsStoreError(err)
	if !ok {
		return domain.NewStorageFailure(err)
	}

	switch se.Kind {
	case repository.KindNotFound:
		return &domain.Error{Code: domain.CodeNotFound, Message: "record not found", Err: err}
	case repository.KindConstraintViolation:
		switch se.SQLState {
		case repository.SQLStateUniqueViolation:
			if c, ok := uniqueConstraints[se.Constraint]; ok {
				return &domain.Error{Code: c.code, Field: c.field, Message: "already exists", Err: err}
			}
			return &domain.Error{Code: domain.CodeConflict, Field: se.Constraint, Message: "already exists", Err: err}
		case repository.SQLStateForeignKeyViolation:
			return &domain.Error{Code: domain.CodeInvalidReference, Field: se.Constraint, Message: "referenced record does not exist", Err: err}
		default:
			return &domain.Error{Code: domain.CodeInvalidInput, Field: se.Constraint, Message: "value rejected by storage", Err: err}
		}
	default:
		return domain.NewStorageFailure(err)
	}
}

// notFoundAs narrows a store NotFound to the entity being looked up
func notFoundAs(err error, entity domain.EntityType, id fmt.Stringer) error {
	if repository.IsNotFound(err) {
		return domain.NewNotFound(entity, id.String())
	}
	return err
}
