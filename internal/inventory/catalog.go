package inventory

import (
	"fmt"
	"os"

	"github.com/SofiaPH25/Quick-Shop/internal/domain"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DefaultCatalog returns the built-in seed catalog.
func DefaultCatalog() []domain.Product {
	return []domain.Product{
		{
			ID:          "1",
			Name:        "Modern Smartphone X",
			Description: "Latest generation smartphone with AI capabilities and a stunning display.",
			Price:       decimal.RequireFromString("799.99"),
			ImageURL:    "https://picsum.photos/seed/smartphone/400/300",
			Stock:       15,
			Category:    "Electronics",
		},
		{
			ID:          "2",
			Name:        "Wireless Noise-Cancelling Headphones",
			Description: "Immerse yourself in sound with these premium over-ear headphones.",
			Price:       decimal.RequireFromString("249.50"),
			ImageURL:    "https://picsum.photos/seed/headphones/400/300",
			Stock:       25,
			Category:    "Electronics",
		},
		{
			ID:          "3",
			Name:        "Organic Cotton T-Shirt",
			Description: "Comfortable and stylish t-shirt made from 100% organic cotton.",
			Price:       decimal.RequireFromString("29.99"),
			ImageURL:    "https://picsum.photos/seed/tshirt/400/300",
			Stock:       50,
			Category:    "Apparel",
		},
		{
			ID:          "4",
			Name:        "Artisan Coffee Beans",
			Description: "Freshly roasted, single-origin coffee beans for the perfect brew.",
			Price:       decimal.RequireFromString("18.75"),
			ImageURL:    "https://picsum.photos/seed/coffee/400/300",
			Stock:       30,
			Category:    "Groceries",
		},
		{
			ID:          "5",
			Name:        "Smart Fitness Tracker",
			Description: "Monitor your activity, sleep, and health with this sleek fitness tracker.",
			Price:       decimal.RequireFromString("120.00"),
			ImageURL:    "https://picsum.photos/seed/tracker/400/300",
			Stock:       20,
			Category:    "Electronics",
		},
		{
			ID:          "6",
			Name:        "Leather Messenger Bag",
			Description: "Durable and stylish leather bag for work or travel.",
			Price:       decimal.RequireFromString("150.00"),
			ImageURL:    "https://picsum.photos/seed/bag/400/300",
			Stock:       10,
			Category:    "Accessories",
		},
	}
}

type catalogFile struct {
	Products []catalogEntry `yaml:"products"`
}

type catalogEntry struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
	ImageURL    string `yaml:"imageUrl"`
	Stock       int    `yaml:"stock"`
	Category    string `yaml:"category"`
}

// ParseCatalog decodes a YAML catalog document:
//
//	products:
//	  - id: "1"
//	    name: Modern Smartphone X
//	    price: "799.99"
//	    stock: 15
func ParseCatalog(data []byte) ([]domain.Product, error) {
	var doc catalogFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	products := make([]domain.Product, 0, len(doc.Products))
	for _, e := range doc.Products {
		price, err := decimal.NewFromString(e.Price)
		if err != nil {
			return nil, fmt.Errorf("catalog product %q: invalid price %q: %w", e.ID, e.Price, err)
		}
		products = append(products, domain.Product{
			ID:          e.ID,
			Name:        e.Name,
			Description: e.Description,
			Price:       price,
			ImageURL:    e.ImageURL,
			Stock:       e.Stock,
			Category:    e.Category,
		})
	}

	if err := validateCatalog(products); err != nil {
		return nil, err
	}
	return products, nil
}

// LoadCatalogFile reads a YAML catalog from path. An empty path yields DefaultCatalog.
func LoadCatalogFile(path string) ([]domain.Product, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}
