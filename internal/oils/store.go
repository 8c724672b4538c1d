package oils

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"lathera/internal/soap"
	"lathera/models"
)

// Store serves oil reference data from the database.
type Store struct {
	db *gorm.DB
}

// NewStore wraps a gorm handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Resolve implements soap.Resolver using a background context.
func (s *Store) Resolve(id string) (soap.OilReference, error) {
	return s.ResolveContext(context.Background(), id)
}

// WithContext returns a resolver bound to ctx.
func (s *Store) WithContext(ctx context.Context) soap.Resolver {
	return soap.ResolverFunc(func(id string) (soap.OilReference, error) {
		return s.ResolveContext(ctx, id)
	})
}

// ResolveContext looks an oil up by slug, then by case-insensitive name.
func (s *Store) ResolveContext(ctx context.Context, id string) (soap.OilReference, error) {
	oil, err := s.Find(ctx, id)
	if err != nil {
		return soap.OilReference{}, err
	}
	return oil.Reference(), nil
}

// Find returns the stored oil for a slug or name.
func (s *Store) Find(ctx context.Context, id string) (*models.Oil, error) {
	if s == nil || s.db == nil {
		return nil, gorm.ErrInvalidDB
	}
	id = strings.TrimSpace(id)
	var oil models.Oil
	err := s.db.WithContext(ctx).
		Preload("Aliases").
		Where("slug = ? OR lower(name) = ?", id, strings.ToLower(id)).
		First(&oil).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %q", soap.ErrNotFound, id)
		}
		return nil, err
	}
	return &oil, nil
}

// List returns every stored oil ordered by name.
func (s *Store) List(ctx context.Context) ([]models.Oil, error) {
	if s == nil || s.db == nil {
		return nil, gorm.ErrInvalidDB
	}
	var result []models.Oil
	if err := s.db.WithContext(ctx).Preload("Aliases").Order("name asc").Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// Upsert inserts the oil or updates the record with the same slug. It
// reports whether a new row was created.
func (s *Store) Upsert(ctx context.Context, oil models.Oil, aliases []string) (*models.Oil, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, gorm.ErrInvalidDB
	}
	oil.Slug = strings.TrimSpace(oil.Slug)
	oil.Name = strings.TrimSpace(oil.Name)
	if oil.Slug == "" || oil.Name == "" {
		return nil, false, errors.New("oil slug and name are required")
	}

	var result models.Oil
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Oil
		err := tx.Where("slug = ?", oil.Slug).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			oil.Aliases = nil
			if err := tx.Create(&oil).Error; err != nil {
				return fmt.Errorf("create oil %q: %w", oil.Slug, err)
			}
			result = oil
			created = true
		case err != nil:
			return fmt.Errorf("find oil %q: %w", oil.Slug, err)
		default:
			updates := map[string]any{
				"name":       oil.Name,
				"category":   oil.Category,
				"sap_naoh":   oil.SapNaOH,
				"sap_koh":    oil.SapKOH,
				"lauric":     oil.Lauric,
				"myristic":   oil.Myristic,
				"palmitic":   oil.Palmitic,
				"stearic":    oil.Stearic,
				"ricinoleic": oil.Ricinoleic,
				"oleic":      oil.Oleic,
				"linoleic":   oil.Linoleic,
				"linolenic":  oil.Linolenic,
				"iodine":     oil.Iodine,
				"ins":        oil.INS,
			}
			if err := tx.Model(&existing).Updates(updates).Error; err != nil {
				return fmt.Errorf("update oil %q: %w", oil.Slug, err)
			}
			result = existing
		}
		return replaceAliases(tx, result.ID, result.Name, aliases)
	})
	if err != nil {
		return nil, false, err
	}

	if err := s.db.WithContext(ctx).Preload("Aliases").First(&result, result.ID).Error; err != nil {
		return nil, false, err
	}
	return &result, created, nil
}

// Seed copies every library entry into the database and returns the number
// of rows created.
func (s *Store) Seed(ctx context.Context, lib *Library) (int, error) {
	created := 0
	for _, entry := range lib.List() {
		_, isNew, err := s.Upsert(ctx, ModelFromEntry(entry), entry.Aliases)
		if err != nil {
			return created, fmt.Errorf("seed %q: %w", entry.ID, err)
		}
		if isNew {
			created++
		}
	}
	return created, nil
}

// ModelFromEntry converts a library entry to its database form.
func ModelFromEntry(entry Entry) models.Oil {
	oil := models.Oil{
		Slug:     entry.ID,
		Name:     entry.Name,
		Category: entry.Category,
		SapNaOH:  entry.SapNaOH,
		SapKOH:   entry.SapKOH,
		Iodine:   entry.Iodine,
		INS:      entry.INS,
	}
	oil.SetFattyAcids(entry.FattyAcids)
	return oil
}

func replaceAliases(tx *gorm.DB, oilID uint, canonical string, names []string) error {
	if err := tx.Where("oil_id = ?", oilID).Delete(&models.OilAlias{}).Error; err != nil {
		return err
	}

	entries := make([]models.OilAlias, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" || strings.EqualFold(trimmed, canonical) {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		entries = append(entries, models.OilAlias{Name: trimmed, OilID: oilID})
	}
	if len(entries) == 0 {
		return nil
	}
	return tx.Create(&entries).Error
}

// Chain resolves through several resolvers in order, returning the first hit.
type Chain []soap.Resolver

// Resolve implements soap.Resolver.
func (c Chain) Resolve(id string) (soap.OilReference, error) {
	for _, r := range c {
		if r == nil {
			continue
		}
		oil, err := r.Resolve(id)
		if err == nil {
			return oil, nil
		}
		if !errors.Is(err, soap.ErrNotFound) {
			return soap.OilReference{}, err
		}
	}
	return soap.OilReference{}, fmt.Errorf("%w: %q", soap.ErrNotFound, id)
}
