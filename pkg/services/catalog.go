package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mamacare/models"
)

type CatalogService struct {
	data *models.CatalogData
}

func NewCatalogService() (*CatalogService, error) {
	service := &CatalogService{}
	if err := service.loadCatalogData(); err != nil {
		return nil, fmt.Errorf("failed to load catalog data: %w", err)
	}
	return service, nil
}

// NewCatalogServiceWith builds a service over in-memory data, for tests.
func NewCatalogServiceWith(data *models.CatalogData) *CatalogService {
	return &CatalogService{data: data}
}

func (s *CatalogService) loadCatalogData() error {
	dataPath := filepath.Join("data", "catalog.json")

	raw, err := os.ReadFile(dataPath)
	if err != nil {
		return fmt.Errorf("error reading catalog file: %w", err)
	}

	s.data = &models.CatalogData{}
	if err := json.Unmarshal(raw, s.data); err != nil {
		return fmt.Errorf("error parsing catalog JSON: %w", err)
	}
	return nil
}

// Marketplace returns items, optionally filtered by category.
func (s *CatalogService) Marketplace(category string) []models.MarketplaceItem {
	if category == "" {
		return s.data.Marketplace
	}
	var out []models.MarketplaceItem
	for _, item := range s.data.Marketplace {
		if strings.EqualFold(item.Category, category) {
			out = append(out, item)
		}
	}
	return out
}

// Articles returns articles; non-premium users get teaser-only access to
// premium articles, handled at the controller.
func (s *CatalogService) Articles(category string) []models.Article {
	if category == "" {
		return s.data.Articles
	}
	var out []models.Article
	for _, a := range s.data.Articles {
		if strings.EqualFold(a.Category, category) {
			out = append(out, a)
		}
	}
	return out
}

// MedicalCenters returns centers, optionally filtered by state.
func (s *CatalogService) MedicalCenters(state string) []models.MedicalCenter {
	if state == "" {
		return s.data.MedicalCenters
	}
	var out []models.MedicalCenter
	for _, m := range s.data.MedicalCenters {
		if strings.EqualFold(m.State, state) {
			out = append(out, m)
		}
	}
	return out
}

func (s *CatalogService) ForumTopics() []models.ForumTopic {
	return s.data.ForumTopics
}

// SearchMarketplace matches name or category, case-insensitive.
func (s *CatalogService) SearchMarketplace(q string) []models.MarketplaceItem {
	p := strings.ToLower(strings.TrimSpace(q))
	if p == "" {
		return s.data.Marketplace
	}
	var out []models.MarketplaceItem
	for _, item := range s.data.Marketplace {
		if strings.Contains(strings.ToLower(item.Name), p) || strings.Contains(strings.ToLower(item.Category), p) {
			out = append(out, item)
		}
	}
	return out
}
