package repository

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductRepository defines the interface for catalog access
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Search(ctx context.Context, query string) ([]models.Product, error)
}

// InMemoryProductRepository is the POS catalog held in memory
type InMemoryProductRepository struct {
	mu       sync.RWMutex
	products map[string]models.Product
}

// NewInMemoryProductRepository creates a catalog with the default menu
func NewInMemoryProductRepository() *InMemoryProductRepository {
	price := decimal.RequireFromString
	return NewInMemoryProductRepositoryFrom([]models.Product{
		{ID: "1", Name: "Chicken Waffle", Price: price("12.99"), Category: "Waffle"},
		{ID: "2", Name: "Belgian Waffle", Price: price("10.99"), Category: "Waffle"},
		{ID: "3", Name: "Chocolate Waffle", Price: price("11.99"), Category: "Waffle"},
		{ID: "4", Name: "Caesar Salad", Price: price("8.99"), Category: "Salad"},
		{ID: "5", Name: "Greek Salad", Price: price("9.49"), Category: "Salad"},
		{ID: "6", Name: "Garden Salad", Price: price("7.99"), Category: "Salad"},
		{ID: "7", Name: "Margherita Pizza", Price: price("14.99"), Category: "Pizza"},
		{ID: "8", Name: "Pepperoni Pizza", Price: price("16.99"), Category: "Pizza"},
		{ID: "9", Name: "Veggie Pizza", Price: price("15.49"), Category: "Pizza"},
		{ID: "10", Name: "Classic Burger", Price: price("13.99"), Category: "Burger"},
	})
}

// NewInMemoryProductRepositoryFrom creates a catalog holding products
func NewInMemoryProductRepositoryFrom(products []models.Product) *InMemoryProductRepository {
	r := &InMemoryProductRepository{products: make(map[string]models.Product, len(products))}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

// GetAll returns all products ordered by ID
func (r *InMemoryProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]models.Product, 0, len(r.products))
	for _, product := range r.products {
		products = append(products, product)
	}
	sortByID(products)
	return products, nil
}

// GetByID returns a product by its ID
func (r *InMemoryProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, exists := r.products[id]
	if !exists {
		return nil, ErrProductNotFound
	}
	return &product, nil
}

// Search returns the products whose name or category contains query,
// ignoring case. An empty query matches everything.
func (r *InMemoryProductRepository) Search(ctx context.Context, query string) ([]models.Product, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	all, err := r.GetAll(ctx)
	if err != nil || query == "" {
		return all, err
	}

	matched := make([]models.Product, 0, len(all))
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.Name), query) || strings.Contains(strings.ToLower(p.Category), query) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// sortByID orders numeric IDs numerically and everything else lexically
func sortByID(products []models.Product) {
	sort.Slice(products, func(i, j int) bool {
		a, errA := strconv.Atoi(products[i].ID)
		b, errB := strconv.Atoi(products[j].ID)
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return products[i].ID < products[j].ID
		}
	})
}
