package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/shop-api/internal/model"
	"github.com/iliyamo/shop-api/internal/repository"
)

const msgProductNotFound = "Product not found"

// maxPrice is the first value that does not fit DECIMAL(10,2).
var maxPrice = decimal.NewFromInt(100_000_000)

// ProductInput is the decoded create/update payload.  Nil means "not
// supplied".  Price is kept textual so that validation sees exactly what
// the client sent.
type ProductInput struct {
	Name        *string
	Description *string
	Price       *string
	Quantity    *int64
	Image       *string
}

// CatalogService manages products.  Reads are public, writes are
// restricted to administrators.
type CatalogService struct {
	products ProductStore
	cache    CacheInvalidator
	log      zerolog.Logger
}

// NewCatalogService wires a CatalogService.  cache may be nil.
func NewCatalogService(products ProductStore, cache CacheInvalidator, log zerolog.Logger) *CatalogService {
	return &CatalogService{products: products, cache: cache, log: log}
}

// List returns every product.
func (s *CatalogService) List(ctx context.Context) ([]model.Product, error) {
	ps, err := s.products.List(ctx)
	if err != nil {
		return nil, internal(err)
	}
	return ps, nil
}

// Paging bounds for Search.
const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxPage         = 100_000
)

// SearchInput filters a product search.  Zero Page and PageSize select
// the first page of the default size.
type SearchInput struct {
	Text     string
	InStock  bool
	Page     int
	PageSize int
}

// SearchResult is one page of search matches.
type SearchResult struct {
	Items    []model.Product `json:"items"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// Search returns the products whose name or description contains the
// search text, one page at a time.
func (s *CatalogService) Search(ctx context.Context, in SearchInput) (*SearchResult, error) {
	if in.Page < 0 || in.PageSize < 0 {
		return nil, validation("page and page_size must be positive")
	}
	if in.Page > maxPage {
		return nil, validation("page must be at most 100000")
	}
	if in.Page == 0 {
		in.Page = 1
	}
	if in.PageSize == 0 {
		in.PageSize = defaultPageSize
	}
	in.PageSize = min(in.PageSize, maxPageSize)

	items, total, err := s.products.Search(ctx, repository.ProductSearchQuery{
		Text:     strings.TrimSpace(in.Text),
		InStock:  in.InStock,
		Page:     in.Page,
		PageSize: in.PageSize,
	})
	if err != nil {
		return nil, internal(err)
	}
	return &SearchResult{Items: items, Total: total, Page: in.Page, PageSize: in.PageSize}, nil
}

// Create adds a product.  Name, description, price and quantity are
// required.
func (s *CatalogService) Create(ctx context.Context, p Principal, in ProductInput) (*model.Product, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	missing := make([]string, 0, 4)
	if in.Name == nil {
		missing = append(missing, "name")
	}
	if in.Description == nil {
		missing = append(missing, "description")
	}
	if in.Price == nil {
		missing = append(missing, "price")
	}
	if in.Quantity == nil {
		missing = append(missing, "quantity")
	}
	if len(missing) > 0 {
		return nil, validation("missing required fields: " + strings.Join(missing, ", "))
	}
	patch, err := in.patch()
	if err != nil {
		return nil, err
	}

	var prod model.Product
	patch.Apply(&prod)
	if err := s.products.Create(ctx, &prod); err != nil {
		return nil, internal(err)
	}
	s.invalidate(ctx)
	s.log.Info().Uint64("product_id", prod.ID).Uint64("by", p.UserID).Msg("product created")
	return &prod, nil
}

// Update changes only the supplied fields.
func (s *CatalogService) Update(ctx context.Context, p Principal, id uint64, in ProductInput) (*model.Product, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	patch, err := in.patch()
	if err != nil {
		return nil, err
	}
	prod, err := s.products.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(msgProductNotFound)
		}
		return nil, internal(err)
	}
	if !patch.Empty() {
		s.invalidate(ctx)
	}
	return prod, nil
}

// Delete removes a product.  Cart entries for it disappear with it;
// orders keep their snapshot.
func (s *CatalogService) Delete(ctx context.Context, p Principal, id uint64) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(msgProductNotFound)
		}
		return internal(err)
	}
	s.invalidate(ctx)
	s.log.Info().Uint64("product_id", id).Uint64("by", p.UserID).Msg("product deleted")
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("product cache invalidation failed")
	}
}

// patch validates every supplied field and converts the input.
func (in ProductInput) patch() (model.ProductPatch, error) {
	var patch model.ProductPatch
	if in.Name != nil {
		v := strings.TrimSpace(*in.Name)
		if v == "" {
			return patch, validation("name may not be blank")
		}
		if len(v) > 255 {
			return patch, validation("name must be at most 255 characters")
		}
		patch.Name = &v
	}
	if in.Description != nil {
		v := strings.TrimSpace(*in.Description)
		if v == "" {
			return patch, validation("description may not be blank")
		}
		patch.Description = &v
	}
	if in.Price != nil {
		m, err := parsePrice(*in.Price)
		if err != nil {
			return patch, err
		}
		patch.Price = &m
	}
	if in.Quantity != nil {
		q := *in.Quantity
		if q < 0 {
			return patch, validation("quantity must be zero or greater")
		}
		if q > int64(^uint32(0)) {
			return patch, validation("quantity is too large")
		}
		v := uint32(q)
		patch.Quantity = &v
	}
	if in.Image != nil {
		v := strings.TrimSpace(*in.Image)
		patch.Image = &v
	}
	return patch, nil
}

func parsePrice(s string) (model.Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return model.Money{}, validation("A valid number is required for price.")
	}
	switch {
	case d.IsNegative():
		return model.Money{}, validation("price must be zero or greater")
	case !d.Round(2).Equal(d):
		return model.Money{}, validation("price may have at most 2 decimal places")
	case d.GreaterThanOrEqual(maxPrice):
		return model.Money{}, validation("price may have at most 8 digits before the decimal point")
	}
	return model.NewMoney(d.Round(2)), nil
}
