package services

import (
	"context"
	"fmt"
	"net/http"

	"floo/internal/api"
	"floo/internal/core"
)

// CategoryService performs CRUD against the /categories/ collection.
type CategoryService struct {
	client *api.Client
}

func NewCategoryService(client *api.Client) *CategoryService {
	return &CategoryService{client: client}
}

// List returns the full current server-side collection.
func (s *CategoryService) List(ctx context.Context) ([]core.Category, error) {
	var categories []core.Category
	if err := s.client.Do(ctx, http.MethodGet, "categories/", nil, &categories); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryService) Create(ctx context.Context, in core.CategoryCreate) (core.Category, error) {
	if err := in.Validate(); err != nil {
		return core.Category{}, err
	}
	var category core.Category
	if err := s.client.Do(ctx, http.MethodPost, "categories/", in, &category); err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

// Update applies a partial update: only the fields set in the input are sent,
// so updating the name alone leaves is_income untouched.
func (s *CategoryService) Update(ctx context.Context, id int64, in core.CategoryUpdate) (core.Category, error) {
	if err := in.Validate(); err != nil {
		return core.Category{}, err
	}
	var category core.Category
	if err := s.client.Do(ctx, http.MethodPatch, fmt.Sprintf("categories/%d", id), in, &category); err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	return category, nil
}

// Delete removes a category. A category still referenced by transactions
// yields a HasDependents error carrying the server's message.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if err := s.client.Do(ctx, http.MethodDelete, fmt.Sprintf("categories/%d", id), nil, nil); err != nil {
		return fmt.Errorf("delete category: %w", translateDelete(err))
	}
	return nil
}
