package domain

import (
	"time"
)

// Product categories.
const (
	CategoryRunning   = "Running"
	CategoryCasual    = "Casual"
	CategorySports    = "Sports"
	CategoryLifestyle = "Lifestyle"
)

// MaxImagesPerProduct caps the number of images a product may carry.
const MaxImagesPerProduct = 3

// MaxImageSize is the largest accepted image upload in bytes (2 MiB).
const MaxImageSize = 2 << 20

// Product represents a shoe in the catalog together with its per-size
// stock levels and images.
type Product struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	Category    string         `json:"category"`
	Sizes       []SizeStock    `json:"sizes"`
	Images      []ProductImage `json:"images"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TotalStock returns the stock summed across all sizes.
func (p *Product) TotalStock() int {
	total := 0
	for _, s := range p.Sizes {
		total += s.Inventory
	}
	return total
}

// InStock reports whether any size has inventory available.
func (p *Product) InStock() bool {
	return p.TotalStock() > 0
}

// SizeStock is the inventory row for one size of a product.
type SizeStock struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Size      string    `json:"size"`
	Inventory int       `json:"inventory"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SizeEntry is a size/inventory pair as submitted by the admin form,
// before it is persisted as a SizeStock row.
type SizeEntry struct {
	Size      string `json:"size" validate:"required,max=16"`
	Inventory int    `json:"inventory" validate:"gte=0"`
}

// ProductImage represents one stored image of a product.
type ProductImage struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Path      string    `json:"-"`
	URL       string    `json:"url"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidCategories returns the set of valid product categories.
func ValidCategories() []string {
	return []string{CategoryRunning, CategoryCasual, CategorySports, CategoryLifestyle}
}

// IsValidCategory checks whether the given string is a valid product category.
func IsValidCategory(category string) bool {
	for _, c := range ValidCategories() {
		if c == category {
			return true
		}
	}
	return false
}

// AllowedImageTypes maps accepted image MIME types to their file extensions.
var AllowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// IsAllowedImageType checks whether the given MIME type is accepted for upload.
func IsAllowedImageType(contentType string) bool {
	_, ok := AllowedImageTypes[contentType]
	return ok
}
