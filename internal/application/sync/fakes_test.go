package syncapp

import (
	"context"
	"fmt"
	"sync"

	"github.com/catalogsync/backend/internal/domain/catalog"
	"github.com/catalogsync/backend/internal/domain/shared"
)

// In-memory content store fakes shared by the tests in this package. They
// copy entities on the way in and out so tests cannot mutate stored state
// through retained pointers.

type memSupplierRepo struct {
	mu       sync.Mutex
	byCode   map[string]catalog.Supplier
	writeErr error
}

func newMemSupplierRepo() *memSupplierRepo {
	return &memSupplierRepo{byCode: make(map[string]catalog.Supplier)}
}

func (r *memSupplierRepo) FindByCode(_ context.Context, code string) (*catalog.Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byCode[code]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := s
	return &out, nil
}

func (r *memSupplierRepo) FindAll(_ context.Context) ([]catalog.Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]catalog.Supplier, 0, len(r.byCode))
	for _, s := range r.byCode {
		out = append(out, s)
	}
	return out, nil
}

func (r *memSupplierRepo) Create(_ context.Context, s *catalog.Supplier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writeErr != nil {
		return r.writeErr
	}
	if _, ok := r.byCode[s.Code]; ok {
		return shared.ErrAlreadyExists
	}
	r.byCode[s.Code] = *s
	return nil
}

func (r *memSupplierRepo) Update(_ context.Context, s *catalog.Supplier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writeErr != nil {
		return r.writeErr
	}
	if _, ok := r.byCode[s.Code]; !ok {
		return shared.ErrNotFound
	}
	r.byCode[s.Code] = *s
	return nil
}

type memCategoryRepo struct {
	mu     sync.Mutex
	byCode map[string]catalog.Category
}

func newMemCategoryRepo() *memCategoryRepo {
	return &memCategoryRepo{byCode: make(map[string]catalog.Category)}
}

func (r *memCategoryRepo) FindByCode(_ context.Context, code string) (*catalog.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byCode[code]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := c
	return &out, nil
}

func (r *memCategoryRepo) Create(_ context.Context, c *catalog.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byCode[c.Code]; ok {
		return shared.ErrAlreadyExists
	}
	r.byCode[c.Code] = *c
	return nil
}

func (r *memCategoryRepo) Update(_ context.Context, c *catalog.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byCode[c.Code]; !ok {
		return shared.ErrNotFound
	}
	r.byCode[c.Code] = *c
	return nil
}

type memProductRepo struct {
	mu    sync.Mutex
	bySKU map[string]catalog.ParentProduct
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{bySKU: make(map[string]catalog.ParentProduct)}
}

func (r *memProductRepo) FindBySKU(_ context.Context, sku string) (*catalog.ParentProduct, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.bySKU[sku]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := p
	return &out, nil
}

func (r *memProductRepo) FindHashesBySupplier(_ context.Context, supplierCode string) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string)
	for sku, p := range r.bySKU {
		if p.SupplierCode == supplierCode {
			out[sku] = p.ContentHash
		}
	}
	return out, nil
}

func (r *memProductRepo) Create(_ context.Context, p *catalog.ParentProduct) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySKU[p.SKU]; ok {
		return shared.ErrAlreadyExists
	}
	r.bySKU[p.SKU] = *p
	return nil
}

func (r *memProductRepo) Update(_ context.Context, p *catalog.ParentProduct) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySKU[p.SKU]; !ok {
		return shared.ErrNotFound
	}
	r.bySKU[p.SKU] = *p
	return nil
}

type memVariantRepo struct {
	mu    sync.Mutex
	bySKU map[string]catalog.ProductVariant
}

func newMemVariantRepo() *memVariantRepo {
	return &memVariantRepo{bySKU: make(map[string]catalog.ProductVariant)}
}

func (r *memVariantRepo) FindBySKU(_ context.Context, sku string) (*catalog.ProductVariant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.bySKU[sku]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := v
	return &out, nil
}

func (r *memVariantRepo) FindByParentSKU(_ context.Context, parentSKU string) ([]catalog.ProductVariant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []catalog.ProductVariant
	for _, v := range r.bySKU {
		if v.ParentSKU == parentSKU {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *memVariantRepo) Create(_ context.Context, v *catalog.ProductVariant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySKU[v.SKU]; ok {
		return shared.ErrAlreadyExists
	}
	r.bySKU[v.SKU] = *v
	return nil
}

func (r *memVariantRepo) Update(_ context.Context, v *catalog.ProductVariant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySKU[v.SKU]; !ok {
		return shared.ErrNotFound
	}
	r.bySKU[v.SKU] = *v
	return nil
}

type memMediaRepo struct {
	mu      sync.Mutex
	byName  map[string]catalog.MediaAsset
	creates int
	updates int
}

func newMemMediaRepo() *memMediaRepo {
	return &memMediaRepo{byName: make(map[string]catalog.MediaAsset)}
}

func (r *memMediaRepo) FindByName(_ context.Context, name string) (*catalog.MediaAsset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byName[name]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := a
	return &out, nil
}

func (r *memMediaRepo) Create(_ context.Context, a *catalog.MediaAsset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[a.Name]; ok {
		return shared.ErrAlreadyExists
	}
	r.byName[a.Name] = *a
	r.creates++
	return nil
}

func (r *memMediaRepo) Update(_ context.Context, a *catalog.MediaAsset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[a.Name]; !ok {
		return shared.ErrNotFound
	}
	r.byName[a.Name] = *a
	r.updates++
	return nil
}

// memStorage is an in-memory object storage fake. failPuts makes the first
// n Put calls fail to exercise the retry path.
type memStorage struct {
	mu       sync.Mutex
	objects  map[string][]byte
	puts     int
	failPuts int
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte)}
}

func (s *memStorage) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.puts <= s.failPuts {
		return "", fmt.Errorf("storage unavailable")
	}
	s.objects[key] = data
	return "https://cdn.example.com/" + key, nil
}
