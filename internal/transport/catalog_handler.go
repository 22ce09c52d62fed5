package transport

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/middleware"
	"catalog-admin/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxBrandUpload bounds multipart brand forms held in memory
const maxBrandUpload = 10 << 20

// BrandResponse is a brand with its image URL
type BrandResponse struct {
	*domain.Brand
	ImageURL string `json:"image_url"`
}

// CatalogHandler handles HTTP requests for brands, colors, sizes and name tags
type CatalogHandler struct {
	catalog service.CatalogService
	urls    ImageURLs
	logger  *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalog service.CatalogService, urls ImageURLs, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		urls:    urls,
		logger:  logger,
	}
}

// RegisterRoutes registers the reference data routes on a management router
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Route("/Brand", func(r chi.Router) {
		r.Get("/get-brands", h.ListBrands)
		r.Get("/get-brand/{id}", h.GetBrand)
		r.Post("/create-brand", h.CreateBrand)
	})
	r.Route("/Color", func(r chi.Router) {
		r.Get("/get-colors", h.ListColors)
		r.Get("/get-color/{id}", h.GetColor)
		r.Post("/create-color", h.CreateColor)
		r.Post("/delete-color/{id}", h.DeleteColor)
	})
	r.Route("/Size", func(r chi.Router) {
		r.Get("/get-sizes", h.ListSizes)
		r.Get("/get-size/{id}", h.GetSize)
		r.Post("/create-size", h.CreateSize)
	})
	r.Route("/NameTag", func(r chi.Router) {
		r.Get("/get-name-tag", h.ListNameTags)
		r.Get("/get-name-tag/{id}", h.GetNameTag)
		r.Post("/create-name-tag", h.CreateNameTag)
	})
}

// RegisterPublicRoutes registers the brand reads that need no authentication
func (h *CatalogHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/get-brands", h.ListBrands)
	r.Get("/get-brand/{id}", h.GetBrand)
}

func (h *CatalogHandler) brand(b *domain.Brand) BrandResponse {
	return BrandResponse{Brand: b, ImageURL: h.urls.URL(b.ImagePath)}
}

// ListBrands handles GET get-brands
func (h *CatalogHandler) ListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.catalog.ListBrands(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	out := make([]BrandResponse, 0, len(brands))
	for _, b := range brands {
		out = append(out, h.brand(b))
	}
	respondOK(w, "Brands retrieved successfully", out)
}

// GetBrand handles GET get-brand/{id}
func (h *CatalogHandler) GetBrand(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	brand, err := h.catalog.GetBrand(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondOK(w, "Brand retrieved successfully", h.brand(brand))
}

// CreateBrand handles POST create-brand as JSON with a base64 image or as a
// multipart form with an image file
func (h *CatalogHandler) CreateBrand(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var spec domain.BrandSpec
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		var err error
		if spec, err = brandForm(r); err != nil {
			h.logger.Debug("Invalid brand form", zap.Error(err))
			if middleware.IsBodyTooLarge(err) {
				invalidBody(w, err)
			} else {
				badRequest(w, "image", "invalid multipart form")
			}
			return
		}
	} else if !decodeBody(w, r, &spec) {
		return
	}

	brand, err := h.catalog.CreateBrand(r.Context(), spec, actor)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondCreated(w, "Brand created successfully", h.brand(brand))
}

func brandForm(r *http.Request) (domain.BrandSpec, error) {
	if err := r.ParseMultipartForm(maxBrandUpload); err != nil {
		return domain.BrandSpec{}, err
	}
	spec := domain.BrandSpec{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return spec, nil
	}
	if err != nil {
		return spec, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return spec, err
	}
	spec.Image = domain.ImagePayload{Filename: header.Filename, Data: data}
	return spec, nil
}

// ListColors handles GET get-colors
func (h *CatalogHandler) ListColors(w http.ResponseWriter, r *http.Request) {
	colors, err := h.catalog.ListColors(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondOK(w, "Colors retrieved successfully", colors)
}

// GetColor handles GET get-color/{id}
func (h *CatalogHandler) GetColor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	color, err := h.catalog.GetColor(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondOK(w, "Color retrieved successfully", color)
}

// CreateColor handles POST create-color
func (h *CatalogHandler) CreateColor(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var spec domain.ColorSpec
	if !decodeBody(w, r, &spec) {
		return
	}

	color, err := h.catalog.CreateColor(r.Context(), spec, actor)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondCreated(w, "Color created successfully", color)
}

// DeleteColor handles POST delete-color/{id}
func (h *CatalogHandler) DeleteColor(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.catalog.DeleteColor(r.Context(), id, actor); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondOK(w, "Color deleted successfully", nil)
}

// ListSizes handles GET get-sizes
func (h *CatalogHandler) ListSizes(w http.ResponseWriter, r *http.Request) {
	sizes, err := h.catalog.ListSizes(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondOK(w, "Sizes retrieved successfully", sizes)
}

// GetSize handles GET get-size/{id}
func (h *CatalogHandler) GetSize(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	size, err := h.catalog.GetSize(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondOK(w, "Size retrieved successfully", size)
}

// CreateSize handles POST create-size
func (h *CatalogHandler) CreateSize(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var spec domain.SizeSpec
	if !decodeBody(w, r, &spec) {
		return
	}

	size, err := h.catalog.CreateSize(r.Context(), spec, actor)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondCreated(w, "Size created successfully", size)
}

// ListNameTags handles GET get-name-tag
func (h *CatalogHandler) ListNameTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.catalog.ListNameTags(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondOK(w, "Name tags retrieved successfully", tags)
}

// GetNameTag handles GET get-name-tag/{id}
func (h *CatalogHandler) GetNameTag(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	tag, err := h.catalog.GetNameTag(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondOK(w, "Name tag retrieved successfully", tag)
}

// CreateNameTag handles POST create-name-tag
func (h *CatalogHandler) CreateNameTag(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var spec domain.NameTagSpec
	if !decodeBody(w, r, &spec) {
		return
	}

	tag, err := h.catalog.CreateNameTag(r.Context(), spec, actor)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondCreated(w, "Name tag created successfully", tag)
}
