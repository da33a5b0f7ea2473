package service

import (
	"context"

	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/cart"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/models"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/repository"
)

// ProductService handles business logic for the POS catalog
type ProductService struct {
	repo repository.ProductRepository
}

// NewProductService creates a new product service
func NewProductService(repo repository.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// ListProducts returns the products matching query; an empty query lists
// the whole catalog
func (s *ProductService) ListProducts(ctx context.Context, query string) ([]models.Product, error) {
	return s.repo.Search(ctx, query)
}

// GetProduct returns a product by ID
func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CartItem looks up a product and returns it as something the cart can hold
func (s *ProductService) CartItem(ctx context.Context, id string) (cart.Item, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return cart.Item{}, err
	}
	return cart.Item{ID: p.ID, Name: p.Name, UnitPrice: p.Price}, nil
}
