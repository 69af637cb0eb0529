package mock

import (
	"context"

	"github.com/fwojciec/shopcrawl"
)

var _ shopcrawl.ProductService = (*ProductService)(nil)

// ProductService is a mock implementation of shopcrawl.ProductService.
type ProductService struct {
	ExistsByURLFn    func(ctx context.Context, url string) (bool, error)
	CreateProductsFn func(ctx context.Context, products []*shopcrawl.ProductURL) (int, error)
	FindProductsFn   func(ctx context.Context, filter shopcrawl.ProductFilter) ([]*shopcrawl.ProductURL, error)
	CountProductsFn  func(ctx context.Context, filter shopcrawl.ProductFilter) (int, error)
}

func (s *ProductService) ExistsByURL(ctx context.Context, url string) (bool, error) {
	return s.ExistsByURLFn(ctx, url)
}

func (s *ProductService) CreateProducts(ctx context.Context, products []*shopcrawl.ProductURL) (int, error) {
	return s.CreateProductsFn(ctx, products)
}

func (s *ProductService) FindProducts(ctx context.Context, filter shopcrawl.ProductFilter) ([]*shopcrawl.ProductURL, error) {
	return s.FindProductsFn(ctx, filter)
}

func (s *ProductService) CountProducts(ctx context.Context, filter shopcrawl.ProductFilter) (int, error) {
	return s.CountProductsFn(ctx, filter)
}
