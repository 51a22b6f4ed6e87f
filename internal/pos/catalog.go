// Package pos holds the point-of-sale register: the catalog view used for
// ordering, the cart being composed and the per-register checkout state.
package pos

import (
	"fmt"

	"github.com/sahar-erp/api/internal/database"
	"github.com/shopspring/decimal"
)

// CatalogItem is a menu entry as the register sees it.
type CatalogItem struct {
	ID            int64               `json:"id"`
	NameLocal     string              `json:"name_local"`
	NameAlt       string              `json:"name_alt,omitempty"`
	Category      string              `json:"category"`
	Price         decimal.Decimal     `json:"price"`
	DiscountPrice decimal.NullDecimal `json:"discount_price"`
	CostPerUnit   decimal.Decimal     `json:"cost_per_unit"`
	IsAvailable   bool                `json:"is_available"`
	IsFeatured    bool                `json:"is_featured"`
	ImageRef      string              `json:"image_ref,omitempty"`
}

// EffectivePrice is the discount price when it is set, positive and below the
// list price; otherwise the list price.
func (c CatalogItem) EffectivePrice() decimal.Decimal {
	if c.DiscountPrice.Valid &&
		c.DiscountPrice.Decimal.IsPositive() &&
		c.DiscountPrice.Decimal.LessThan(c.Price) {
		return c.DiscountPrice.Decimal
	}
	return c.Price
}

// CatalogItemFromMenu converts a menu row.
func CatalogItemFromMenu(m database.MenuItem) (CatalogItem, error) {
	price, err := database.NumericToDecimal(m.Price)
	if err != nil {
		return CatalogItem{}, fmt.Errorf("menu %d price: %w", m.ID, err)
	}
	cost, err := database.NumericToDecimal(m.Cost)
	if err != nil {
		return CatalogItem{}, fmt.Errorf("menu %d cost: %w", m.ID, err)
	}

	item := CatalogItem{
		ID:          m.ID,
		NameLocal:   m.NameLocal,
		NameAlt:     m.NameAlt.String,
		Category:    m.Category,
		Price:       price,
		CostPerUnit: cost,
		IsAvailable: m.IsAvailable,
		IsFeatured:  m.IsFeatured,
		ImageRef:    m.ImageRef.String,
	}
	if m.DiscountPrice.Valid {
		d, err := database.NumericToDecimal(m.DiscountPrice)
		if err != nil {
			return CatalogItem{}, fmt.Errorf("menu %d discount price: %w", m.ID, err)
		}
		item.DiscountPrice = decimal.NewNullDecimal(d)
	}
	return item, nil
}
