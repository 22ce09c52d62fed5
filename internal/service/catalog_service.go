package service

import (
	"context"
	"fmt"
	"strings"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/repository"

	"github.com/google/uuid"
)

// CatalogService manages the reference data products point at
type CatalogService interface {
	CreateBrand(ctx context.Context, spec domain.BrandSpec, actor domain.Actor) (*domain.Brand, error)
	ListBrands(ctx context.Context) ([]*domain.Brand, error)
	GetBrand(ctx context.Context, id uuid.UUID) (*domain.Brand, error)

	CreateColor(ctx context.Context, spec domain.ColorSpec, actor domain.Actor) (*domain.Color, error)
	ListColors(ctx context.Context) ([]*domain.Color, error)
	GetColor(ctx context.Context, id uuid.UUID) (*domain.Color, error)
	DeleteColor(ctx context.Context, id uuid.UUID, actor domain.Actor) error

	CreateSize(ctx context.Context, spec domain.SizeSpec, actor domain.Actor) (*domain.Size, error)
	ListSizes(ctx context.Context) ([]*domain.Size, error)
	GetSize(ctx context.Context, id uuid.UUID) (*domain.Size, error)

	CreateNameTag(ctx context.Context, spec domain.NameTagSpec, actor domain.Actor) (*domain.NameTag, error)
	ListNameTags(ctx context.Context) ([]*domain.NameTag, error)
	GetNameTag(ctx context.Context, id uuid.UUID) (*domain.NameTag, error)
}

type catalogService struct {
	pipeline
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(deps Deps) CatalogService {
	return &catalogService{pipeline: newPipeline(deps)}
}

// write runs fn in one audited transaction and records a single entity
// change for *id when it succeeds.
func (s *catalogService) write(ctx context.Context, op string, action domain.Action, entity domain.EntityType, actor domain.Actor, id *uuid.UUID, fn func(tx repository.Tx) error) error {
	batch := s.audit.Begin(actor, action, entity)
	return s.run(ctx, op, batch, entityID(id), func() error {
		return s.inTx(ctx, func(tx repository.Tx) error {
			if err := fn(tx); err != nil {
				return err
			}
			batch.Add(action, entity, *id)
			return nil
		})
	})
}

func notBlank(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.Violations{domain.NewInvalidInput(field, value, field+" must not be blank")}
	}
	return nil
}

// CreateBrand requires a unique name and a jpg, jpeg or png image
func (s *catalogService) CreateBrand(ctx context.Context, spec domain.BrandSpec, actor domain.Actor) (*domain.Brand, error) {
	brand := &domain.Brand{
		Name:        strings.TrimSpace(spec.Name),
		Description: spec.Description,
		CreatedBy:   actor.ID,
	}
	up := &uploads{images: s.images}

	err := s.write(ctx, "create_brand", domain.ActionCreate, domain.EntityBrand, actor, &brand.ID, func(tx repository.Tx) error {
		if err := s.validator.Struct(&spec).Err(); err != nil {
			return err
		}
		if err := notBlank("name", spec.Name); err != nil {
			return err
		}
		if spec.Image.Empty() {
			return domain.Violations{domain.NewInvalidInput("image", nil, "image is required")}
		}
		if err := s.validator.CheckImage("image", spec.Image); err != nil {
			return err
		}

		taken, err := repository.Exists(ctx, tx, repository.BrandName, brand.Name)
		if err != nil {
			return err
		}
		if taken {
			return domain.NewDuplicateName("name", brand.Name)
		}

		brand.ImagePath, err = up.resolve(ctx, "image", spec.Image)
		if err != nil {
			return err
		}

		brand.ID = uuid.New()
		brand.CreatedAt = s.now()
		return tx.Brands().Create(ctx, brand)
	})
	up.discardIf(ctx, err)
	if err != nil {
		return nil, err
	}

	return brand, nil
}

func (s *catalogService) ListBrands(ctx context.Context) ([]*domain.Brand, error) {
	brands, err := s.store.Brands().List(ctx)
	return brands, translateError(err)
}

func (s *catalogService) GetBrand(ctx context.Context, id uuid.UUID) (*domain.Brand, error) {
	brand, err := s.store.Brands().FindByID(ctx, id)
	if err != nil {
		return nil, translateError(notFoundAs(err, domain.EntityBrand, id))
	}
	return brand, nil
}

func (s *catalogService) CreateColor(ctx context.Context, spec domain.ColorSpec, actor domain.Actor) (*domain.Color, error) {
	color := &domain.Color{Name: strings.TrimSpace(spec.Name), CreatedBy: actor.ID}

	err := s.write(ctx, "create_color", domain.ActionCreate, domain.EntityColor, actor, &color.ID, func(tx repository.Tx) error {
		if err := s.validator.Struct(&spec).Err(); err != nil {
			return err
		}
		if err := notBlank("name", spec.Name); err != nil {
			return err
		}

		taken, err := repository.Exists(ctx, tx, repository.ColorName, color.Name)
		if err != nil {
			return err
		}
		if taken {
			return domain.NewDuplicateName("name", color.Name)
		}

		color.ID = uuid.New()
		color.CreatedAt = s.now()
		return tx.Colors().Create(ctx, color)
	})
	if err != nil {
		return nil, err
	}

	return color, nil
}

func (s *catalogService) ListColors(ctx context.Context) ([]*domain.Color, error) {
	colors, err := s.store.Colors().List(ctx)
	return colors, translateError(err)
}

func (s *catalogService) GetColor(ctx context.Context, id uuid.UUID) (*domain.Color, error) {
	color, err := s.store.Colors().FindByID(ctx, id)
	if err != nil {
		return nil, translateError(notFoundAs(err, domain.EntityColor, id))
	}
	return color, nil
}

// DeleteColor refuses while any variant still uses the color
func (s *catalogService) DeleteColor(ctx context.Context, id uuid.UUID, actor domain.Actor) error {
	colorID := id

	return s.write(ctx, "delete_color", domain.ActionDelete, domain.EntityColor, actor, &colorID, func(tx repository.Tx) error {
		if _, err := tx.Colors().FindByID(ctx, id); err != nil {
			return notFoundAs(err, domain.EntityColor, id)
		}

		n, err := tx.Colors().CountVariants(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.NewConflict(domain.EntityColor, id.String(), fmt.Sprintf("color is used by %d variants", n))
		}

		if err := tx.Colors().Delete(ctx, id); err != nil {
			// A variant inserted after the count still trips the foreign key.
			if se, ok := repository.AsStoreError(err); ok && se.SQLState == repository.SQLStateForeignKeyViolation {
				return domain.NewConflict(domain.EntityColor, id.String(), "color is used by variants")
			}
			return notFoundAs(err, domain.EntityColor, id)
		}
		return nil
	})
}

func (s *catalogService) CreateSize(ctx context.Context, spec domain.SizeSpec, actor domain.Actor) (*domain.Size, error) {
	size := &domain.Size{Value: spec.Value, CreatedBy: actor.ID}

	err := s.write(ctx, "create_size", domain.ActionCreate, domain.EntitySize, actor, &size.ID, func(tx repository.Tx) error {
		if err := s.validator.Struct(&spec).Err(); err != nil {
			return err
		}

		size.ID = uuid.New()
		size.CreatedAt = s.now()
		return tx.Sizes().Create(ctx, size)
	})
	if err != nil {
		return nil, err
	}

	return size, nil
}

func (s *catalogService) ListSizes(ctx context.Context) ([]*domain.Size, error) {
	sizes, err := s.store.Sizes().List(ctx)
	return sizes, translateError(err)
}

func (s *catalogService) GetSize(ctx context.Context, id uuid.UUID) (*domain.Size, error) {
	size, err := s.store.Sizes().FindByID(ctx, id)
	if err != nil {
		return nil, translateError(notFoundAs(err, domain.EntitySize, id))
	}
	return size, nil
}

func (s *catalogService) CreateNameTag(ctx context.Context, spec domain.NameTagSpec, actor domain.Actor) (*domain.NameTag, error) {
	tag := &domain.NameTag{Tag: strings.TrimSpace(spec.Tag), CreatedBy: actor.ID}

	err := s.write(ctx, "create_name_tag", domain.ActionCreate, domain.EntityNameTag, actor, &tag.ID, func(tx repository.Tx) error {
		if err := s.validator.Struct(&spec).Err(); err != nil {
			return err
		}
		if err := notBlank("tag", spec.Tag); err != nil {
			return err
		}

		taken, err := repository.Exists(ctx, tx, repository.NameTagTag, tag.Tag)
		if err != nil {
			return err
		}
		if taken {
			return domain.NewDuplicateName("tag", tag.Tag)
		}

		tag.ID = uuid.New()
		tag.CreatedAt = s.now()
		return tx.NameTags().Create(ctx, tag)
	})
	if err != nil {
		return nil, err
	}

	return tag, nil
}

func (s *catalogService) ListNameTags(ctx context.Context) ([]*domain.NameTag, error) {
	tags, err := s.store.NameTags().List(ctx)
	return tags, translateError(err)
}

func (s *catalogService) GetNameTag(ctx context.Context, id uuid.UUID) (*domain.NameTag, error) {
	tag, err := s.store.NameTags().FindByID(ctx, id)
	if err != nil {
		return nil, translateError(notFoundAs(err, domain.EntityNameTag, id))
	}
	return tag, nil
}
