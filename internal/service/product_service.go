package service

import (
	"context"
	"errors"
	"strings"

	"github.com/fastfire9/empire-backend/internal/model"
	"github.com/fastfire9/empire-backend/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductService interface {
	Create(ctx context.Context, name, description string, price decimal.Decimal, imageURL *string) (*model.Product, error)
	Get(ctx context.Context, id uint64) (*model.Product, error)
	List(ctx context.Context) ([]model.Product, error)
	Update(ctx context.Context, id uint64, name, description string, price decimal.Decimal, imageURL *string) (*model.Product, error)
	Delete(ctx context.Context, id uint64) error
}

type productService struct {
	repo repository.ProductRepository
}

func NewProductService(repo repository.ProductRepository) ProductService {
	return &productService{repo: repo}
}

func validateProduct(name string, price decimal.Decimal) error {
	if name == "" || len(name) > 120 {
		return errors.New("invalid name")
	}
	if price.IsNegative() {
		return errors.New("price must be >= 0")
	}
	return nil
}

func (s *productService) Create(ctx context.Context, name, description string, price decimal.Decimal, imageURL *string) (*model.Product, error) {
	name = strings.TrimSpace(name)
	if err := validateProduct(name, price); err != nil {
		return nil, err
	}
	p := &model.Product{
		Name:        name,
		Description: strings.TrimSpace(description),
		Price:       price,
		ImageURL:    imageURL,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *productService) Get(ctx context.Context, id uint64) (*model.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return p, err
}

func (s *productService) List(ctx context.Context) ([]model.Product, error) {
	return s.repo.List(ctx)
}

func (s *productService) Update(ctx context.Context, id uint64, name, description string, price decimal.Decimal, imageURL *string) (*model.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := validateProduct(name, price); err != nil {
		return nil, err
	}
	p.Name = name
	p.Description = strings.TrimSpace(description)
	p.Price = price
	p.ImageURL = imageURL
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *productService) Delete(ctx context.Context, id uint64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
