package transport

import (
	"net/http"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultPageSize = 10

// UpdateProductRequest targets an existing product with its desired shape
type UpdateProductRequest struct {
	ID uuid.UUID `json:"id"`
	domain.ProductSpec
}

// UpdateNameTagsRequest is the desired name tag set of a product
type UpdateNameTagsRequest struct {
	NameTagIDs []uuid.UUID `json:"name_tag_ids" validate:"required"`
}

// UpdateVariantImagesRequest carries the replacement images of a variant,
// each a base64 string or data URI
type UpdateVariantImagesRequest struct {
	Images []string `json:"images" validate:"required"`
}

// VariantResponse is a variant with its image URLs
type VariantResponse struct {
	domain.Variant
	ImageURLs []string `json:"image_urls"`
}

// AggregateResponse is a product aggregate and, after writes, its audit trail
type AggregateResponse struct {
	*domain.Aggregate
	Variants []VariantResponse   `json:"variants"`
	Audit    []domain.AuditRecord `json:"audit,omitempty"`
}

// ProductPage is one page of a product listing
type ProductPage struct {
	Items      []*domain.Product `json:"items"`
	TotalCount int               `json:"total_count"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
}

// ProductHandler handles HTTP requests for product aggregates
type ProductHandler struct {
	products service.ProductService
	urls     ImageURLs
	logger   *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products service.ProductService, urls ImageURLs, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		urls:     urls,
		logger:   logger,
	}
}

// RegisterRoutes registers the product routes on a management router
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/Product", func(r chi.Router) {
		r.Get("/get-products", h.ListProducts)
		r.Get("/get-product/{id}", h.GetProduct)
		r.Get("/get-product-variant/{id}", h.GetVariant)
		r.Post("/create-product", h.CreateProduct)
		r.Post("/update-product", h.UpdateProduct)
		r.Post("/change-product-status/{id}", h.ChangeStatus)
		r.Post("/update-variant-images", h.UpdateVariantImages)
		r.Post("/update-product-name-tag", h.UpdateNameTags)
	})
}

func (h *ProductHandler) variant(v domain.Variant) VariantResponse {
	urls := make([]string, 0, len(v.Images))
	for _, p := range v.Images {
		urls = append(urls, h.urls.URL(p))
	}
	return VariantResponse{Variant: v, ImageURLs: urls}
}

func (h *ProductHandler) aggregate(agg *domain.Aggregate, audit []domain.AuditRecord) AggregateResponse {
	variants := make([]VariantResponse, 0, len(agg.Variants))
	for _, v := range agg.Variants {
		variants = append(variants, h.variant(v))
	}
	return AggregateResponse{Aggregate: agg, Variants: variants, Audit: audit}
}

// ListProducts handles GET get-products?name=&brandId=&status=&pageNumber=&pageSize=
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "pageNumber", 1)
	if err != nil || page < 1 {
		badRequest(w, "pageNumber", "Invalid page number or page size")
		return
	}
	pageSize, err := queryInt(r, "pageSize", defaultPageSize)
	if err != nil || pageSize < 1 {
		badRequest(w, "pageSize", "Invalid page number or page size")
		return
	}

	filter := domain.ProductFilter{
		Name:     r.URL.Query().Get("name"),
		Page:     page,
		PageSize: pageSize,
	}
	if r.URL.Query().Get("brandId") != "" {
		brandID, ok := queryID(w, r, "brandId")
		if !ok {
			return
		}
		filter.BrandID = &brandID
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.ProductStatus(raw)
		if status != domain.ProductActive && status != domain.ProductInactive {
			badRequest(w, "status", "status must be active or inactive")
			return
		}
		filter.Status = &status
	}

	products, total, err := h.products.ListProducts(r.Context(), filter)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	filter = filter.Normalize()
	respondOK(w, "Products retrieved successfully", ProductPage{
		Items:      products,
		TotalCount: total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	})
}

// GetProduct handles GET get-product/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	agg, err := h.products.GetProduct(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondOK(w, "Product retrieved successfully", h.aggregate(agg, nil))
}

// GetVariant handles GET get-product-variant/{id}
func (h *ProductHandler) GetVariant(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	variant, err := h.products.GetVariant(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondOK(w, "Variant retrieved successfully", h.variant(*variant))
}

// CreateProduct handles POST create-product
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var spec domain.ProductSpec
	if !decodeBody(w, r, &spec) {
		return
	}

	agg, audit, err := h.products.CreateAggregate(r.Context(), spec, actor)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("Product created",
		zap.String("product_id", agg.Product.ID.String()),
		zap.String("actor_id", actor.ID),
	)
	respondCreated(w, "Product created successfully", h.aggregate(agg, audit))
}

// UpdateProduct handles POST update-product
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req UpdateProductRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ID == uuid.Nil {
		badRequest(w, "id", "Invalid product id")
		return
	}

	agg, audit, err := h.products.UpdateAggregate(r.Context(), req.ID, req.ProductSpec, actor)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondOK(w, "Product updated successfully", h.aggregate(agg, audit))
}

// ChangeStatus handles POST change-product-status/{id}
func (h *ProductHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	product, err := h.products.ChangeStatus(r.Context(), id, actor)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondOK(w, "Product status changed successfully", product)
}

// UpdateVariantImages handles POST update-variant-images?variantId=
func (h *ProductHandler) UpdateVariantImages(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	variantID, ok := queryID(w, r, "variantId")
	if !ok {
		return
	}
	var req UpdateVariantImagesRequest
	if !decodeValid(w, r, &req) {
		return
	}

	images := make([]domain.ImagePayload, 0, len(req.Images))
	for _, encoded := range req.Images {
		images = append(images, domain.ImagePayload{Base64: encoded})
	}

	variant, err := h.products.UpdateVariantImages(r.Context(), variantID, images, actor)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondOK(w, "Product images updated successfully", h.variant(*variant))
}

// UpdateNameTags handles POST update-product-name-tag?productId=
func (h *ProductHandler) UpdateNameTags(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	productID, ok := queryID(w, r, "productId")
	if !ok {
		return
	}
	var req UpdateNameTagsRequest
	if !decodeValid(w, r, &req) {
		return
	}

	agg, audit, err := h.products.UpdateNameTags(r.Context(), productID, req.NameTagIDs, actor)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondOK(w, "Product name tags updated successfully", h.aggregate(agg, audit))
}
