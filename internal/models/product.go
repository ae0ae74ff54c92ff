package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product catalog models
type Brand struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:25;not null;unique" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Description string    `gorm:"size:50;not null;unique" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AllowedTaxRates is the closed set of VAT percentages a product may carry.
var AllowedTaxRates = []decimal.Decimal{
	decimal.NewFromFloat(21.00),
	decimal.NewFromFloat(10.50),
	decimal.NewFromFloat(27.00),
	decimal.NewFromFloat(0.00),
}

// ValidTaxRate reports whether rate belongs to AllowedTaxRates.
func ValidTaxRate(rate decimal.Decimal) bool {
	for _, r := range AllowedTaxRates {
		if r.Equal(rate) {
			return true
		}
	}
	return false
}

type Product struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Code        string `gorm:"size:10;not null;index" json:"code"`
	Name        string `gorm:"size:150;not null" json:"name"`
	Description string `json:"description"`
	ImageURL    string `gorm:"size:500" json:"image_url"`
	// UnitPrice is the current catalog price; order items pin their own copy.
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"unit_price"`
	// TaxRate is a percentage from AllowedTaxRates (e.g. 21.00).
	TaxRate    decimal.Decimal `gorm:"type:decimal(4,2);not null" json:"tax_rate"`
	BrandID    uint            `gorm:"index" json:"brand_id"`
	Brand      Brand           `gorm:"foreignKey:BrandID" json:"-"`
	CategoryID uint            `gorm:"index" json:"category_id"`
	Category   Category        `gorm:"foreignKey:CategoryID" json:"-"`
	// Stock is quantity on hand; mutated only by order confirmation/reversal.
	Stock     int            `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	Active    bool           `gorm:"not null;default:true" json:"active"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
