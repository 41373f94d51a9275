package service

import (
	"errors"
	"math/rand"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/indiancoinstore/coinstore-backend/internal/app/model"
	"github.com/indiancoinstore/coinstore-backend/internal/catalog"
	"github.com/indiancoinstore/coinstore-backend/pkg/logger"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidSort     = errors.New("invalid sort option")
)

type ProductSort string

const (
	ProductSortName      ProductSort = "name"
	ProductSortPriceLow  ProductSort = "price-low"
	ProductSortPriceHigh ProductSort = "price-high"
	ProductSortNewest    ProductSort = "newest"
)

// ProductListOptions narrows and orders the catalog. An empty Category or
// "All" means every category.
type ProductListOptions struct {
	Category string
	Search   string
	Sort     ProductSort
}

type ProductService interface {
	ListProducts(opts ProductListOptions) ([]model.Product, error)
	GetProductByID(id string) (model.Product, error)
	GetCategories() []string
	GetFeaturedProducts(limit int) []model.Product
}

type productService struct {
	catalog *catalog.Catalog

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewProductService serves products from c. A nil rng seeds one from the clock.
func NewProductService(c *catalog.Catalog, rng *rand.Rand) ProductService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &productService{catalog: c, rng: rng}
}

func (s *productService) ListProducts(opts ProductListOptions) ([]model.Product, error) {
	logger.Debug("Listing products", map[string]interface{}{
		"category": opts.Category,
		"search":   opts.Search,
		"sort":     opts.Sort,
	})

	if opts.Sort == "" {
		opts.Sort = ProductSortName
	}
	switch opts.Sort {
	case ProductSortName, ProductSortPriceLow, ProductSortPriceHigh, ProductSortNewest:
	default:
		logger.Warn("Rejected product listing: unknown sort", map[string]interface{}{
			"sort": opts.Sort,
		})
		return nil, ErrInvalidSort
	}

	search := strings.ToLower(strings.TrimSpace(opts.Search))
	products := make([]model.Product, 0, s.catalog.Len())
	for _, p := range s.catalog.All() {
		if opts.Category != "" && opts.Category != model.CategoryAll && string(p.Category) != opts.Category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Period), search) &&
			!strings.Contains(strings.ToLower(p.Metal), search) {
			continue
		}
		products = append(products, p)
	}

	slices.SortStableFunc(products, func(a, b model.Product) int {
		switch opts.Sort {
		case ProductSortPriceLow:
			return compareFloat(a.Price, b.Price)
		case ProductSortPriceHigh:
			return compareFloat(b.Price, a.Price)
		case ProductSortNewest:
			return s.catalog.Position(b.ID) - s.catalog.Position(a.ID)
		default:
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	})

	logger.Info("Products listed", map[string]interface{}{
		"count": len(products),
	})
	return products, nil
}

func (s *productService) GetProductByID(id string) (model.Product, error) {
	p, ok := s.catalog.Get(id)
	if !ok {
		logger.Warn("Product not found", map[string]interface{}{
			"product_id": id,
		})
		return model.Product{}, ErrProductNotFound
	}
	return p, nil
}

func (s *productService) GetCategories() []string {
	return s.catalog.Categories()
}

// GetFeaturedProducts returns up to limit distinct products in random order
func (s *productService) GetFeaturedProducts(limit int) []model.Product {
	all := s.catalog.All()
	if limit <= 0 || limit > len(all) {
		limit = len(all)
	}

	s.rngMu.Lock()
	s.rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	s.rngMu.Unlock()

	return all[:limit]
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
