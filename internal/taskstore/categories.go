package taskstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/sandeepkv93/tasker/internal/model"
)

// Categories returns the stored categories, or the defaults when none were
// saved yet or the blob is unreadable.
func (s *Store) Categories(ctx context.Context) ([]model.Category, error) {
	raw, ok, err := s.kv.Get(ctx, CategoriesKey)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	if !ok {
		return model.DefaultCategories(), nil
	}
	var cats []model.Category
	if err := json.Unmarshal(raw, &cats); err != nil || cats == nil {
		s.log.Warn("stored categories unreadable, using defaults", zap.Error(err))
		return model.DefaultCategories(), nil
	}
	return cats, nil
}

func (s *Store) SaveCategories(ctx context.Context, cats []model.Category) error {
	if cats == nil {
		cats = []model.Category{}
	}
	raw, err := json.Marshal(cats)
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}
	if err := s.kv.Set(ctx, CategoriesKey, raw); err != nil {
		return fmt.Errorf("save categories: %w", err)
	}
	return nil
}

func (s *Store) AddCategory(ctx context.Context, name, color string) (model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Category{}, errors.New("taskstore: category name is required")
	}
	if strings.TrimSpace(color) == "" {
		color = model.CategoryColors[0]
	}
	cats, err := s.Categories(ctx)
	if err != nil {
		return model.Category{}, err
	}
	cat := model.Category{ID: s.newID(), Name: name, Color: color}
	if err := s.SaveCategories(ctx, append(cats, cat)); err != nil {
		return model.Category{}, err
	}
	return cat, nil
}

// DeleteCategory removes the category only; tasks keep their dangling
// reference.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	cats, err := s.Categories(ctx)
	if err != nil {
		return err
	}
	kept := slices.DeleteFunc(cats, func(c model.Category) bool { return c.ID == id })
	if len(kept) == len(cats) {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
	}
	return s.SaveCategories(ctx, kept)
}

// ResolveCategory finds a category by id, or by case-insensitive name.
func ResolveCategory(cats []model.Category, ref string) (model.Category, bool) {
	for _, c := range cats {
		if c.ID == ref {
			return c, true
		}
	}
	for _, c := range cats {
		if strings.EqualFold(c.Name, ref) {
			return c, true
		}
	}
	return model.Category{}, false
}
