package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/repository"

	"github.com/google/uuid"
)

// memState is one snapshot of the catalog tables. Begin clones it and
// Commit swaps the clone in, so a rolled back transaction leaves no trace.
type memState struct {
	brands   map[uuid.UUID]domain.Brand
	colors   map[uuid.UUID]domain.Color
	sizes    map[uuid.UUID]domain.Size
	nameTags map[uuid.UUID]domain.NameTag
	products map[uuid.UUID]domain.Product
	links    map[uuid.UUID]domain.ProductNameTag
	variants map[uuid.UUID]domain.ProductColor
	allocs   map[uuid.UUID]domain.ProductColorSize
	order    map[uuid.UUID]int
	seq      int
}

func newMemState() *memState {
	return &memState{
		brands:   map[uuid.UUID]domain.Brand{},
		colors:   map[uuid.UUID]domain.Color{},
		sizes:    map[uuid.UUID]domain.Size{},
		nameTags: map[uuid.UUID]domain.NameTag{},
		products: map[uuid.UUID]domain.Product{},
		links:    map[uuid.UUID]domain.ProductNameTag{},
		variants: map[uuid.UUID]domain.ProductColor{},
		allocs:   map[uuid.UUID]domain.ProductColorSize{},
		order:    map[uuid.UUID]int{},
	}
}

func cloneMap[V any](m map[uuid.UUID]V) map[uuid.UUID]V {
	out := make(map[uuid.UUID]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memState) clone() *memState {
	variants := make(map[uuid.UUID]domain.ProductColor, len(s.variants))
	for k, v := range s.variants {
		v.Images = append([]string(nil), v.Images...)
		variants[k] = v
	}
	return &memState{
		brands:   cloneMap(s.brands),
		colors:   cloneMap(s.colors),
		sizes:    cloneMap(s.sizes),
		nameTags: cloneMap(s.nameTags),
		products: cloneMap(s.products),
		links:    cloneMap(s.links),
		variants: variants,
		allocs:   cloneMap(s.allocs),
		order:    cloneMap(s.order),
		seq:      s.seq,
	}
}

func (s *memState) touch(id uuid.UUID) {
	s.seq++
	s.order[id] = s.seq
}

// values returns id -> column value for the columns the checker may probe
func (s *memState) values(table, column string) map[uuid.UUID]any {
	out := map[uuid.UUID]any{}
	switch table + "." + column {
	case "products.id":
		for id := range s.products {
			out[id] = id
		}
	case "products.name":
		for id, p := range s.products {
			out[id] = p.Name
		}
	case "brands.id":
		for id := range s.brands {
			out[id] = id
		}
	case "brands.name":
		for id, b := range s.brands {
			out[id] = b.Name
		}
	case "colors.id":
		for id := range s.colors {
			out[id] = id
		}
	case "colors.name":
		for id, c := range s.colors {
			out[id] = c.Name
		}
	case "sizes.id":
		for id := range s.sizes {
			out[id] = id
		}
	case "name_tags.id":
		for id := range s.nameTags {
			out[id] = id
		}
	case "name_tags.tag":
		for id, t := range s.nameTags {
			out[id] = t.Tag
		}
	case "product_colors.id":
		for id := range s.variants {
			out[id] = id
		}
	default:
		panic("unexpected checker column " + table + "." + column)
	}
	return out
}

// deferredViolation checks the constraints postgres defers to commit:
// one variant per (product, color)
func (s *memState) deferredViolation() error {
	type productColor struct{ product, color uuid.UUID }
	seen := make(map[productColor]struct{}, len(s.variants))
	for _, v := range s.variants {
		key := productColor{v.ProductID, v.ColorID}
		if _, dup := seen[key]; dup {
			return violation(repository.SQLStateUniqueViolation, "product_colors_product_id_color_id_key")
		}
		seen[key] = struct{}{}
	}
	return nil
}

func violation(sqlState, constraint string) error {
	return &repository.StoreError{
		Kind:       repository.KindConstraintViolation,
		SQLState:   sqlState,
		Constraint: constraint,
		Err:        errors.New(constraint),
	}
}

func missing(what string) error {
	return &repository.StoreError{Kind: repository.KindNotFound, Err: fmt.Errorf("%s: %w", what, repository.ErrNotFound)}
}

var errConnectionReset = errors.New("connection reset by peer")

// memStore implements repository.Store over memState
type memStore struct {
	memQueries
	committed *memState
	failOn    map[string]int
	calls     map[string]int
	onBegin   func()
	begins    int
	commits   int
	rollbacks int
}

func newMemStore() *memStore {
	s := &memStore{committed: newMemState(), failOn: map[string]int{}, calls: map[string]int{}}
	s.memQueries = memQueries{store: s, state: func() *memState { return s.committed }}
	return s
}

// failAt makes the nth call (1-based) of op fail with a connection error
func (s *memStore) failAt(op string, n int) {
	s.failOn[op] = n
}

func (s *memStore) hit(op string) error {
	s.calls[op]++
	if n, ok := s.failOn[op]; ok && s.calls[op] == n {
		return &repository.StoreError{Kind: repository.KindConnection, Err: fmt.Errorf("%s: %w", op, errConnectionReset)}
	}
	return nil
}

func (s *memStore) Begin(context.Context) (repository.Tx, error) {
	if err := s.hit("begin"); err != nil {
		return nil, err
	}
	s.begins++
	if s.onBegin != nil {
		s.onBegin()
	}
	tx := &memTx{store: s, work: s.committed.clone()}
	tx.memQueries = memQueries{store: s, state: func() *memState { return tx.work }}
	return tx, nil
}

type memTx struct {
	memQueries
	store *memStore
	work  *memState
	done  bool
}

func (t *memTx) Commit() error {
	if t.done {
		return errors.New("transaction already finished")
	}
	if err := t.store.hit("commit"); err != nil {
		return err
	}
	if err := t.work.deferredViolation(); err != nil {
		t.done = true
		t.store.rollbacks++
		return err
	}
	t.done = true
	t.store.committed = t.work
	t.store.commits++
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.rollbacks++
	return nil
}

type memQueries struct {
	store *memStore
	state func() *memState
}

func (q memQueries) Brands() repository.BrandRepository     { return memBrands{q} }
func (q memQueries) Colors() repository.ColorRepository     { return memColors{q} }
func (q memQueries) Sizes() repository.SizeRepository       { return memSizes{q} }
func (q memQueries) NameTags() repository.NameTagRepository { return memNameTags{q} }
func (q memQueries) Products() repository.ProductRepository { return memProducts{q} }
func (q memQueries) Variants() repository.VariantRepository { return memVariants{q} }

func (q memQueries) Exists(_ context.Context, table, column string, value any) (bool, error) {
	if err := q.store.hit("exists"); err != nil {
		return false, err
	}
	for _, v := range q.state().values(table, column) {
		if v == value {
			return true, nil
		}
	}
	return false, nil
}

func (q memQueries) ExistsExcept(_ context.Context, table, column string, value any, exceptID uuid.UUID) (bool, error) {
	if err := q.store.hit("exists"); err != nil {
		return false, err
	}
	for id, v := range q.state().values(table, column) {
		if id != exceptID && v == value {
			return true, nil
		}
	}
	return false, nil
}

func (q memQueries) CountDistinct(_ context.Context, table, column string, values []any) (int, error) {
	if err := q.store.hit("count"); err != nil {
		return 0, err
	}
	present := map[any]struct{}{}
	for _, v := range q.state().values(table, column) {
		present[v] = struct{}{}
	}
	seen := map[any]struct{}{}
	for _, v := range values {
		if _, ok := present[v]; ok {
			seen[v] = struct{}{}
		}
	}
	return len(seen), nil
}

type memBrands struct{ q memQueries }

func (r memBrands) Create(_ context.Context, brand *domain.Brand) error {
	if err := r.q.store.hit("brands.create"); err != nil {
		return err
	}
	st := r.q.state()
	for _, b := range st.brands {
		if b.Name == brand.Name {
			return violation(repository.SQLStateUniqueViolation, "brands_name_key")
		}
	}
	st.brands[brand.ID] = *brand
	st.touch(brand.ID)
	return nil
}

func (r memBrands) List(context.Context) ([]*domain.Brand, error) {
	out := []*domain.Brand{}
	for _, b := range r.q.state().brands {
		b := b
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memBrands) FindByID(_ context.Context, id uuid.UUID) (*domain.Brand, error) {
	b, ok := r.q.state().brands[id]
	if !ok {
		return nil, missing("brand " + id.String())
	}
	return &b, nil
}

type memColors struct{ q memQueries }

func (r memColors) Create(_ context.Context, color *domain.Color) error {
	if err := r.q.store.hit("colors.create"); err != nil {
		return err
	}
	st := r.q.state()
	for _, c := range st.colors {
		if c.Name == color.Name {
			return violation(repository.SQLStateUniqueViolation, "colors_name_key")
		}
	}
	st.colors[color.ID] = *color
	st.touch(color.ID)
	return nil
}

func (r memColors) List(context.Context) ([]*domain.Color, error) {
	out := []*domain.Color{}
	for _, c := range r.q.state().colors {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memColors) FindByID(_ context.Context, id uuid.UUID) (*domain.Color, error) {
	c, ok := r.q.state().colors[id]
	if !ok {
		return nil, missing("color " + id.String())
	}
	return &c, nil
}

func (r memColors) Delete(_ context.Context, id uuid.UUID) error {
	if err := r.q.store.hit("colors.delete"); err != nil {
		return err
	}
	st := r.q.state()
	if _, ok := st.colors[id]; !ok {
		return missing("color " + id.String())
	}
	for _, v := range st.variants {
		if v.ColorID == id {
			return violation(repository.SQLStateForeignKeyViolation, "product_colors_color_id_fkey")
		}
	}
	delete(st.colors, id)
	return nil
}

func (r memColors) CountVariants(_ context.Context, id uuid.UUID) (int, error) {
	if err := r.q.store.hit("colors.count_variants"); err != nil {
		return 0, err
	}
	n := 0
	for _, v := range r.q.state().variants {
		if v.ColorID == id {
			n++
		}
	}
	return n, nil
}

type memSizes struct{ q memQueries }

func (r memSizes) Create(_ context.Context, size *domain.Size) error {
	if err := r.q.store.hit("sizes.create"); err != nil {
		return err
	}
	if size.Value < domain.MinSizeValue || size.Value > domain.MaxSizeValue {
		return violation(repository.SQLStateCheckViolation, "sizes_value_check")
	}
	st := r.q.state()
	st.sizes[size.ID] = *size
	st.touch(size.ID)
	return nil
}

func (r memSizes) List(context.Context) ([]*domain.Size, error) {
	out := []*domain.Size{}
	for _, s := range r.q.state().sizes {
		s := s
		out = append(out, &s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out, nil
}

func (r memSizes) FindByID(_ context.Context, id uuid.UUID) (*domain.Size, error) {
	s, ok := r.q.state().sizes[id]
	if !ok {
		return nil, missing("size " + id.String())
	}
	return &s, nil
}

type memNameTags struct{ q memQueries }

func (r memNameTags) Create(_ context.Context, tag *domain.NameTag) error {
	if err := r.q.store.hit("name_tags.create"); err != nil {
		return err
	}
	st := r.q.state()
	for _, t := range st.nameTags {
		if t.Tag == tag.Tag {
			return violation(repository.SQLStateUniqueViolation, "name_tags_tag_key")
		}
	}
	st.nameTags[tag.ID] = *tag
	st.touch(tag.ID)
	return nil
}

func (r memNameTags) List(context.Context) ([]*domain.NameTag, error) {
	out := []*domain.NameTag{}
	for _, t := range r.q.state().nameTags {
		t := t
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out, nil
}

func (r memNameTags) FindByID(_ context.Context, id uuid.UUID) (*domain.NameTag, error) {
	t, ok := r.q.state().nameTags[id]
	if !ok {
		return nil, missing("name tag " + id.String())
	}
	return &t, nil
}

type memProducts struct{ q memQueries }

func (r memProducts) check(st *memState, product *domain.Product) error {
	for id, p := range st.products {
		if id != product.ID && p.Name == product.Name {
			return violation(repository.SQLStateUniqueViolation, "products_name_key")
		}
	}
	if _, ok := st.brands[product.BrandID]; !ok {
		return violation(repository.SQLStateForeignKeyViolation, "products_brand_id_fkey")
	}
	return nil
}

func (r memProducts) Create(_ context.Context, product *domain.Product) error {
	if err := r.q.store.hit("products.create"); err != nil {
		return err
	}
	st := r.q.state()
	if err := r.check(st, product); err != nil {
		return err
	}
	st.products[product.ID] = *product
	st.touch(product.ID)
	return nil
}

func (r memProducts) Update(_ context.Context, product *domain.Product) error {
	if err := r.q.store.hit("products.update"); err != nil {
		return err
	}
	st := r.q.state()
	if _, ok := st.products[product.ID]; !ok {
		return missing("product " + product.ID.String())
	}
	if err := r.check(st, product); err != nil {
		return err
	}
	current := st.products[product.ID]
	current.Name = product.Name
	current.Description = product.Description
	current.Status = product.Status
	current.BrandID = product.BrandID
	current.UpdatedAt = product.UpdatedAt
	st.products[product.ID] = current
	return nil
}

func (r memProducts) SetStatus(_ context.Context, id uuid.UUID, status domain.ProductStatus, at time.Time) error {
	if err := r.q.store.hit("products.set_status"); err != nil {
		return err
	}
	st := r.q.state()
	p, ok := st.products[id]
	if !ok {
		return missing("product " + id.String())
	}
	p.Status = status
	p.UpdatedAt = at
	st.products[id] = p
	return nil
}

func (r memProducts) FindByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	p, ok := r.q.state().products[id]
	if !ok {
		return nil, missing("product " + id.String())
	}
	return &p, nil
}

func (r memProducts) List(_ context.Context, filter domain.ProductFilter) ([]*domain.Product, int, error) {
	filter = filter.Normalize()
	st := r.q.state()

	matched := []*domain.Product{}
	for _, p := range st.products {
		p := p
		if name := strings.TrimSpace(filter.Name); name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(name)) {
			continue
		}
		if filter.BrandID != nil && p.BrandID != *filter.BrandID {
			continue
		}
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		matched = append(matched, &p)
	}
	sort.Slice(matched, func(i, j int) bool { return st.order[matched[i].ID] > st.order[matched[j].ID] })

	total := len(matched)
	start := min(filter.Offset(), total)
	end := min(start+filter.PageSize, total)
	return matched[start:end], total, nil
}

func (r memProducts) LoadAggregate(ctx context.Context, id uuid.UUID, _ bool) (*domain.Aggregate, error) {
	if err := r.q.store.hit("products.load"); err != nil {
		return nil, err
	}
	p, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	links, _ := r.ListNameTagLinks(ctx, id)
	variants, _ := memVariants(r).ListByProduct(ctx, id)
	return &domain.Aggregate{Product: *p, NameTags: links, Variants: variants}, nil
}

func (r memProducts) LinkNameTag(_ context.Context, link *domain.ProductNameTag) error {
	if err := r.q.store.hit("products.link_name_tag"); err != nil {
		return err
	}
	st := r.q.state()
	if _, ok := st.nameTags[link.NameTagID]; !ok {
		return violation(repository.SQLStateForeignKeyViolation, "product_name_tags_name_tag_id_fkey")
	}
	for _, l := range st.links {
		if l.ProductID == link.ProductID && l.NameTagID == link.NameTagID {
			return violation(repository.SQLStateUniqueViolation, "product_name_tags_product_id_name_tag_id_key")
		}
	}
	st.links[link.ID] = *link
	st.touch(link.ID)
	return nil
}

func (r memProducts) UnlinkNameTag(_ context.Context, productID, nameTagID uuid.UUID) (uuid.UUID, error) {
	if err := r.q.store.hit("products.unlink_name_tag"); err != nil {
		return uuid.Nil, err
	}
	st := r.q.state()
	for id, l := range st.links {
		if l.ProductID == productID && l.NameTagID == nameTagID {
			delete(st.links, id)
			return id, nil
		}
	}
	return uuid.Nil, missing("name tag link " + nameTagID.String())
}

func (r memProducts) ListNameTagLinks(_ context.Context, productID uuid.UUID) ([]domain.ProductNameTag, error) {
	st := r.q.state()
	links := []domain.ProductNameTag{}
	for _, l := range st.links {
		if l.ProductID == productID {
			links = append(links, l)
		}
	}
	sort.Slice(links, func(i, j int) bool { return st.order[links[i].ID] < st.order[links[j].ID] })
	return links, nil
}

type memVariants struct{ q memQueries }

func (r memVariants) check(st *memState, variant *domain.ProductColor) error {
	if _, ok := st.colors[variant.ColorID]; !ok {
		return violation(repository.SQLStateForeignKeyViolation, "product_colors_color_id_fkey")
	}
	if _, ok := st.products[variant.ProductID]; !ok {
		return violation(repository.SQLStateForeignKeyViolation, "product_colors_product_id_fkey")
	}
	if variant.Price.IsNegative() {
		return violation(repository.SQLStateCheckViolation, "product_colors_price_check")
	}
	return nil
}

func (r memVariants) Create(_ context.Context, variant *domain.ProductColor) error {
	if err := r.q.store.hit("variants.create"); err != nil {
		return err
	}
	st := r.q.state()
	if err := r.check(st, variant); err != nil {
		return err
	}
	v := *variant
	v.Images = append([]string(nil), variant.Images...)
	st.variants[v.ID] = v
	st.touch(v.ID)
	return nil
}

func (r memVariants) Update(_ context.Context, variant *domain.ProductColor) error {
	if err := r.q.store.hit("variants.update"); err != nil {
		return err
	}
	st := r.q.state()
	current, ok := st.variants[variant.ID]
	if !ok {
		return missing("variant " + variant.ID.String())
	}
	if err := r.check(st, variant); err != nil {
		return err
	}
	current.ColorID = variant.ColorID
	current.Price = variant.Price
	current.Images = append([]string(nil), variant.Images...)
	st.variants[variant.ID] = current
	return nil
}

func (r memVariants) FindByID(_ context.Context, id uuid.UUID) (*domain.Variant, error) {
	st := r.q.state()
	v, ok := st.variants[id]
	if !ok {
		return nil, missing("variant " + id.String())
	}
	return &domain.Variant{ProductColor: v, Sizes: r.sizesOf(st, id)}, nil
}

func (r memVariants) sizesOf(st *memState, variantID uuid.UUID) []domain.ProductColorSize {
	sizes := []domain.ProductColorSize{}
	for _, a := range st.allocs {
		if a.ProductColorID == variantID {
			sizes = append(sizes, a)
		}
	}
	sort.Slice(sizes, func(i, j int) bool { return st.order[sizes[i].ID] < st.order[sizes[j].ID] })
	return sizes
}

func (r memVariants) ListByProduct(_ context.Context, productID uuid.UUID) ([]domain.Variant, error) {
	st := r.q.state()
	variants := []domain.Variant{}
	for _, v := range st.variants {
		if v.ProductID == productID {
			v.Images = append([]string{}, v.Images...)
			variants = append(variants, domain.Variant{ProductColor: v, Sizes: r.sizesOf(st, v.ID)})
		}
	}
	sort.Slice(variants, func(i, j int) bool { return st.order[variants[i].ID] < st.order[variants[j].ID] })
	return variants, nil
}

func (r memVariants) CreateAllocation(_ context.Context, a *domain.ProductColorSize) error {
	if err := r.q.store.hit("variants.create_allocation"); err != nil {
		return err
	}
	st := r.q.state()
	if _, ok := st.sizes[a.SizeID]; !ok {
		return violation(repository.SQLStateForeignKeyViolation, "product_color_sizes_size_id_fkey")
	}
	if a.Quantity < 0 {
		return violation(repository.SQLStateCheckViolation, "product_color_sizes_quantity_check")
	}
	for _, existing := range st.allocs {
		if existing.ProductColorID == a.ProductColorID && existing.SizeID == a.SizeID {
			return violation(repository.SQLStateUniqueViolation, "product_color_sizes_product_color_id_size_id_key")
		}
	}
	st.allocs[a.ID] = *a
	st.touch(a.ID)
	return nil
}

func (r memVariants) UpdateAllocationQuantity(_ context.Context, id uuid.UUID, quantity int) error {
	if err := r.q.store.hit("variants.update_allocation"); err != nil {
		return err
	}
	st := r.q.state()
	a, ok := st.allocs[id]
	if !ok {
		return missing("allocation " + id.String())
	}
	if quantity < 0 {
		return violation(repository.SQLStateCheckViolation, "product_color_sizes_quantity_check")
	}
	a.Quantity = quantity
	st.allocs[id] = a
	return nil
}

func (r memVariants) DeleteAllocation(_ context.Context, id uuid.UUID) error {
	if err := r.q.store.hit("variants.delete_allocation"); err != nil {
		return err
	}
	st := r.q.state()
	if _, ok := st.allocs[id]; !ok {
		return missing("allocation " + id.String())
	}
	delete(st.allocs, id)
	return nil
}

// seed helpers write straight into committed state

func (s *memStore) seedBrand(name string) uuid.UUID {
	id := uuid.New()
	s.committed.brands[id] = domain.Brand{ID: id, Name: name, CreatedBy: "seed", CreatedAt: time.Now().UTC()}
	s.committed.touch(id)
	return id
}

func (s *memStore) seedColor(name string) uuid.UUID {
	id := uuid.New()
	s.committed.colors[id] = domain.Color{ID: id, Name: name, CreatedBy: "seed", CreatedAt: time.Now().UTC()}
	s.committed.touch(id)
	return id
}

func (s *memStore) seedSize(value int) uuid.UUID {
	id := uuid.New()
	s.committed.sizes[id] = domain.Size{ID: id, Value: value, CreatedBy: "seed", CreatedAt: time.Now().UTC()}
	s.committed.touch(id)
	return id
}

func (s *memStore) seedNameTag(tag string) uuid.UUID {
	id := uuid.New()
	s.committed.nameTags[id] = domain.NameTag{ID: id, Tag: tag, CreatedBy: "seed", CreatedAt: time.Now().UTC()}
	s.committed.touch(id)
	return id
}

// rowCounts summarizes committed state for atomicity checks
func (s *memStore) rowCounts() [4]int {
	st := s.committed
	return [4]int{len(st.products), len(st.links), len(st.variants), len(st.allocs)}
}
