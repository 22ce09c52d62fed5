package service

import (
	"context"
	"errors"
	"fmt"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/repository"

	"github.com/google/uuid"
)

// ProductService runs the product aggregate pipelines. Every write is one
// transaction and produces one audit batch.
type ProductService interface {
	CreateAggregate(ctx context.Context, spec domain.ProductSpec, actor domain.Actor) (*domain.Aggregate, []domain.AuditRecord, error)
	UpdateAggregate(ctx context.Context, productID uuid.UUID, spec domain.ProductSpec, actor domain.Actor) (*domain.Aggregate, []domain.AuditRecord, error)
	UpdateNameTags(ctx context.Context, productID uuid.UUID, nameTagIDs []uuid.UUID, actor domain.Actor) (*domain.Aggregate, []domain.AuditRecord, error)
	UpdateVariantImages(ctx context.Context, variantID uuid.UUID, images []domain.ImagePayload, actor domain.Actor) (*domain.Variant, error)
	ChangeStatus(ctx context.Context, productID uuid.UUID, actor domain.Actor) (*domain.Product, error)

	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Aggregate, error)
	GetVariant(ctx context.Context, id uuid.UUID) (*domain.Variant, error)
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int, error)
}

type productService struct {
	pipeline
}

// NewProductService creates a new ProductService
func NewProductService(deps Deps) ProductService {
	return &productService{pipeline: newPipeline(deps)}
}

// CreateAggregate validates spec, then inserts the product, its name tag
// links, its variants and their allocations in caller order.
func (s *productService) CreateAggregate(ctx context.Context, spec domain.ProductSpec, actor domain.Actor) (*domain.Aggregate, []domain.AuditRecord, error) {
	batch := s.audit.Begin(actor, domain.ActionCreate, domain.EntityProduct)
	up := &uploads{images: s.images}

	var productID uuid.UUID
	var agg *domain.Aggregate

	err := s.run(ctx, "create_product", batch, entityID(&productID), func() error {
		if err := s.validator.ValidateCreate(ctx, &spec); err != nil {
			return err
		}

		return s.inTx(ctx, func(tx repository.Tx) error {
			images, err := s.resolveVariantImages(ctx, up, spec.Variants)
			if err != nil {
				return err
			}

			productID = uuid.New()
			agg, err = s.build(ctx, tx, productID, &spec, images, actor, batch)
			return err
		})
	})
	up.discardIf(ctx, err)
	if err != nil {
		return nil, nil, err
	}

	return agg, batch.Records(), nil
}

// UpdateAggregate overwrites base fields and reconciles name tags, variants
// and allocations against the locked current state.
func (s *productService) UpdateAggregate(ctx context.Context, productID uuid.UUID, spec domain.ProductSpec, actor domain.Actor) (*domain.Aggregate, []domain.AuditRecord, error) {
	batch := s.audit.Begin(actor, domain.ActionUpdate, domain.EntityProduct)
	up := &uploads{images: s.images}
	id := productID

	var agg *domain.Aggregate

	err := s.run(ctx, "update_product", batch, entityID(&id), func() error {
		if err := s.validator.ValidateUpdate(ctx, productID, &spec); err != nil {
			return err
		}

		return s.inTx(ctx, func(tx repository.Tx) error {
			existing, err := tx.Products().LoadAggregate(ctx, productID, true)
			if err != nil {
				return notFoundAs(err, domain.EntityProduct, productID)
			}

			for _, vs := range spec.Variants {
				if vs.ID == nil {
					continue
				}
				if _, ok := existing.Variant(*vs.ID); !ok {
					return domain.NewNotFound(domain.EntityProductColor, vs.ID.String())
				}
			}

			checker := s.validator.WithChecker(tx)

			if err := s.updateBase(ctx, tx, checker, existing.Product, &spec, batch); err != nil {
				return err
			}

			if err := s.reconcileNameTags(ctx, tx, checker, existing, spec.NameTagIDs, actor, batch); err != nil {
				return err
			}

			images, err := s.resolveVariantImages(ctx, up, spec.Variants)
			if err != nil {
				return err
			}

			for i := range spec.Variants {
				vs := &spec.Variants[i]
				if vs.ID == nil {
					if _, err := s.insertVariant(ctx, tx, checker, productID, i, vs, images[i], batch); err != nil {
						return err
					}
					continue
				}
				current, _ := existing.Variant(*vs.ID)
				if err := s.reconcileVariant(ctx, tx, checker, current, i, vs, images[i], batch); err != nil {
					return err
				}
			}

			agg, err = tx.Products().LoadAggregate(ctx, productID, false)
			return err
		})
	})
	up.discardIf(ctx, err)
	if err != nil {
		return nil, nil, err
	}

	return agg, batch.Records(), nil
}

// UpdateNameTags reconciles only the name tag links of a product
func (s *productService) UpdateNameTags(ctx context.Context, productID uuid.UUID, nameTagIDs []uuid.UUID, actor domain.Actor) (*domain.Aggregate, []domain.AuditRecord, error) {
	batch := s.audit.Begin(actor, domain.ActionUpdate, domain.EntityProductNameTag)
	id := productID

	var agg *domain.Aggregate

	err := s.run(ctx, "update_product_name_tags", batch, entityID(&id), func() error {
		ok, err := s.validator.NameTagsExistAll(ctx, nameTagIDs)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Violations{domain.NewInvalidReference("name_tag_ids", nameTagIDs)}
		}

		return s.inTx(ctx, func(tx repository.Tx) error {
			existing, err := tx.Products().LoadAggregate(ctx, productID, true)
			if err != nil {
				return notFoundAs(err, domain.EntityProduct, productID)
			}

			if err := s.reconcileNameTags(ctx, tx, s.validator.WithChecker(tx), existing, nameTagIDs, actor, batch); err != nil {
				return err
			}

			agg, err = tx.Products().LoadAggregate(ctx, productID, false)
			return err
		})
	})
	if err != nil {
		return nil, nil, err
	}

	return agg, batch.Records(), nil
}

// UpdateVariantImages replaces the whole image list of a variant
func (s *productService) UpdateVariantImages(ctx context.Context, variantID uuid.UUID, images []domain.ImagePayload, actor domain.Actor) (*domain.Variant, error) {
	batch := s.audit.Begin(actor, domain.ActionUpdate, domain.EntityProductColor)
	up := &uploads{images: s.images}
	id := variantID

	var result *domain.Variant

	err := s.run(ctx, "update_variant_images", batch, entityID(&id), func() error {
		if len(images) == 0 {
			return domain.Violations{domain.NewInvalidInput("images", nil, "at least one image is required")}
		}

		var violations domain.Violations
		for j, img := range images {
			if err := s.validator.CheckImage(fmt.Sprintf("images[%d]", j), img); err != nil {
				var e *domain.Error
				if !errors.As(err, &e) {
					return err
				}
				violations = append(violations, e)
			}
		}
		if err := violations.Err(); err != nil {
			return err
		}

		return s.inTx(ctx, func(tx repository.Tx) error {
			current, err := tx.Variants().FindByID(ctx, variantID)
			if err != nil {
				return notFoundAs(err, domain.EntityProductColor, variantID)
			}

			paths := make([]string, 0, len(images))
			for j, img := range images {
				p, err := up.resolve(ctx, fmt.Sprintf("images[%d]", j), img)
				if err != nil {
					return err
				}
				paths = append(paths, p)
			}

			current.Images = paths
			if err := tx.Variants().Update(ctx, &current.ProductColor); err != nil {
				return err
			}
			batch.Add(domain.ActionUpdate, domain.EntityProductColor, current.ID)

			result = current
			return nil
		})
	})
	up.discardIf(ctx, err)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ChangeStatus toggles a product between active and inactive
func (s *productService) ChangeStatus(ctx context.Context, productID uuid.UUID, actor domain.Actor) (*domain.Product, error) {
	batch := s.audit.Begin(actor, domain.ActionUpdate, domain.EntityProduct)
	id := productID

	var result *domain.Product

	err := s.run(ctx, "change_product_status", batch, entityID(&id), func() error {
		return s.inTx(ctx, func(tx repository.Tx) error {
			agg, err := tx.Products().LoadAggregate(ctx, productID, true)
			if err != nil {
				return notFoundAs(err, domain.EntityProduct, productID)
			}

			product := agg.Product
			product.Status = product.Status.Toggle()
			product.UpdatedAt = s.now()
			if err := tx.Products().SetStatus(ctx, product.ID, product.Status, product.UpdatedAt); err != nil {
				return err
			}
			batch.Add(domain.ActionUpdate, domain.EntityProduct, product.ID)

			result = &product
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Aggregate, error) {
	agg, err := s.store.Products().LoadAggregate(ctx, id, false)
	if err != nil {
		return nil, translateError(notFoundAs(err, domain.EntityProduct, id))
	}
	return agg, nil
}

func (s *productService) GetVariant(ctx context.Context, id uuid.UUID) (*domain.Variant, error) {
	variant, err := s.store.Variants().FindByID(ctx, id)
	if err != nil {
		return nil, translateError(notFoundAs(err, domain.EntityProductColor, id))
	}
	return variant, nil
}

func (s *productService) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int, error) {
	products, total, err := s.store.Products().List(ctx, filter)
	if err != nil {
		return nil, 0, translateError(err)
	}
	return products, total, nil
}

// resolveVariantImages stores every variant image. The result is indexed
// like variants; a variant without images gets a nil entry.
func (s *productService) resolveVariantImages(ctx context.Context, up *uploads, variants []domain.VariantSpec) ([][]string, error) {
	out := make([][]string, len(variants))
	for i, v := range variants {
		if len(v.Images) == 0 {
			continue
		}
		paths := make([]string, 0, len(v.Images))
		for j, img := range v.Images {
			p, err := up.resolve(ctx, imageField(i, j), img)
			if err != nil {
				return nil, err
			}
			paths = append(paths, p)
		}
		out[i] = paths
	}
	return out, nil
}

func (s *productService) build(ctx context.Context, tx repository.Tx, productID uuid.UUID, spec *domain.ProductSpec, images [][]string, actor domain.Actor, batch *AuditBatch) (*domain.Aggregate, error) {
	now := s.now()
	status := spec.Status
	if status == "" {
		status = domain.ProductActive
	}

	product := domain.Product{
		ID:          productID,
		Name:        spec.Name,
		Description: spec.Description,
		Status:      status,
		BrandID:     spec.BrandID,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.Products().Create(ctx, &product); err != nil {
		return nil, err
	}
	batch.Add(domain.ActionCreate, domain.EntityProduct, product.ID)

	agg := &domain.Aggregate{
		Product:  product,
		NameTags: []domain.ProductNameTag{},
		Variants: []domain.Variant{},
	}

	checker := s.validator.WithChecker(tx)

	for _, tagID := range repository.Unique(spec.NameTagIDs) {
		ok, err := checker.NameTagsExistAll(ctx, []uuid.UUID{tagID})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.NewInvalidReference("name_tag_ids", tagID)
		}

		link, err := s.insertLink(ctx, tx, productID, tagID, actor, batch)
		if err != nil {
			return nil, err
		}
		agg.NameTags = append(agg.NameTags, *link)
	}

	for i := range spec.Variants {
		variant, err := s.insertVariant(ctx, tx, checker, productID, i, &spec.Variants[i], images[i], batch)
		if err != nil {
			return nil, err
		}
		agg.Variants = append(agg.Variants, *variant)
	}

	return agg, nil
}

func (s *productService) insertLink(ctx context.Context, tx repository.Tx, productID, tagID uuid.UUID, actor domain.Actor, batch *AuditBatch) (*domain.ProductNameTag, error) {
	link := &domain.ProductNameTag{
		ID:        uuid.New(),
		ProductID: productID,
		NameTagID: tagID,
		CreatedBy: actor.ID,
		CreatedAt: s.now(),
	}
	if err := tx.Products().LinkNameTag(ctx, link); err != nil {
		return nil, err
	}
	batch.Add(domain.ActionCreate, domain.EntityProductNameTag, link.ID)
	return link, nil
}

func (s *productService) insertVariant(ctx context.Context, tx repository.Tx, checker *Validator, productID uuid.UUID, index int, vs *domain.VariantSpec, images []string, batch *AuditBatch) (*domain.Variant, error) {
	ok, err := checker.ColorExists(ctx, vs.ColorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NewInvalidReference(fmt.Sprintf("variants[%d].color_id", index), vs.ColorID)
	}

	if images == nil {
		images = []string{}
	}

	variant := &domain.Variant{
		ProductColor: domain.ProductColor{
			ID:        uuid.New(),
			ProductID: productID,
			ColorID:   vs.ColorID,
			Price:     vs.Price,
			Images:    images,
			CreatedAt: s.now(),
		},
		Sizes: []domain.ProductColorSize{},
	}
	if err := tx.Variants().Create(ctx, &variant.ProductColor); err != nil {
		return nil, err
	}
	batch.Add(domain.ActionCreate, domain.EntityProductColor, variant.ID)

	for j, a := range vs.Sizes {
		ok, err := checker.SizeExistsAll(ctx, []uuid.UUID{a.SizeID})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.NewInvalidReference(fmt.Sprintf("variants[%d].sizes[%d].size_id", index, j), a.SizeID)
		}

		alloc, err := s.insertAllocation(ctx, tx, variant.ID, a, batch)
		if err != nil {
			return nil, err
		}
		variant.Sizes = append(variant.Sizes, *alloc)
	}

	return variant, nil
}

func (s *productService) insertAllocation(ctx context.Context, tx repository.Tx, variantID uuid.UUID, a domain.SizeAllocationSpec, batch *AuditBatch) (*domain.ProductColorSize, error) {
	alloc := &domain.ProductColorSize{
		ID:             uuid.New(),
		ProductColorID: variantID,
		SizeID:         a.SizeID,
		Quantity:       a.Quantity,
	}
	if err := tx.Variants().CreateAllocation(ctx, alloc); err != nil {
		return nil, err
	}
	batch.Add(domain.ActionCreate, domain.EntityProductColorSize, alloc.ID)
	return alloc, nil
}

func (s *productService) updateBase(ctx context.Context, tx repository.Tx, checker *Validator, product domain.Product, spec *domain.ProductSpec, batch *AuditBatch) error {
	taken, err := checker.NameTakenByOther(ctx, spec.Name, product.ID)
	if err != nil {
		return err
	}
	if taken {
		return domain.NewDuplicateName("name", spec.Name)
	}

	ok, err := checker.BrandExists(ctx, spec.BrandID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NewInvalidReference("brand_id", spec.BrandID)
	}

	product.Name = spec.Name
	product.Description = spec.Description
	product.BrandID = spec.BrandID
	if spec.Status != "" {
		product.Status = spec.Status
	}
	product.UpdatedAt = s.now()

	if err := tx.Products().Update(ctx, &product); err != nil {
		return err
	}
	batch.Add(domain.ActionUpdate, domain.EntityProduct, product.ID)
	return nil
}

// reconcileNameTags validates the ids to add before touching any link
func (s *productService) reconcileNameTags(ctx context.Context, tx repository.Tx, checker *Validator, existing *domain.Aggregate, desired []uuid.UUID, actor domain.Actor, batch *AuditBatch) error {
	plan := diffIDs(existing.NameTagIDs(), desired)
	if plan.Empty() {
		return nil
	}

	ok, err := checker.NameTagsExistAll(ctx, plan.Add)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NewInvalidReference("name_tag_ids", plan.Add)
	}

	productID := existing.Product.ID
	for _, tagID := range plan.Remove {
		linkID, err := tx.Products().UnlinkNameTag(ctx, productID, tagID)
		if err != nil {
			return err
		}
		batch.Add(domain.ActionDelete, domain.EntityProductNameTag, linkID)
	}

	for _, tagID := range plan.Add {
		if _, err := s.insertLink(ctx, tx, productID, tagID, actor, batch); err != nil {
			return err
		}
	}

	return nil
}

func (s *productService) reconcileVariant(ctx context.Context, tx repository.Tx, checker *Validator, current *domain.Variant, index int, vs *domain.VariantSpec, images []string, batch *AuditBatch) error {
	ok, err := checker.ColorExists(ctx, vs.ColorID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NewInvalidReference(fmt.Sprintf("variants[%d].color_id", index), vs.ColorID)
	}

	updated := current.ProductColor
	updated.ColorID = vs.ColorID
	updated.Price = vs.Price
	if len(images) > 0 {
		updated.Images = images
	}
	if err := tx.Variants().Update(ctx, &updated); err != nil {
		return err
	}
	batch.Add(domain.ActionUpdate, domain.EntityProductColor, updated.ID)

	plan := planAllocations(current.Sizes, vs.Sizes)

	ok, err = checker.SizeExistsAll(ctx, plan.createSizeIDs())
	if err != nil {
		return err
	}
	if !ok {
		return domain.NewInvalidReference(fmt.Sprintf("variants[%d].sizes", index), plan.createSizeIDs())
	}

	for _, a := range plan.Delete {
		if err := tx.Variants().DeleteAllocation(ctx, a.ID); err != nil {
			return err
		}
		batch.Add(domain.ActionDelete, domain.EntityProductColorSize, a.ID)
	}

	for _, change := range plan.Update {
		if err := tx.Variants().UpdateAllocationQuantity(ctx, change.Allocation.ID, change.Quantity); err != nil {
			return err
		}
		batch.Add(domain.ActionUpdate, domain.EntityProductColorSize, change.Allocation.ID)
	}

	for _, a := range plan.Create {
		if _, err := s.insertAllocation(ctx, tx, updated.ID, a, batch); err != nil {
			return err
		}
	}

	return nil
}
