package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product represents a catalog part listing.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU         string          `gorm:"column:sku;not null;uniqueIndex"`
	Name        string          `gorm:"column:name;not null"`
	Description *string         `gorm:"column:description"`
	Brand       string          `gorm:"column:brand;not null"`
	Category    string          `gorm:"column:category;not null"`
	Fitment     pq.StringArray  `gorm:"column:fitment;type:text[];not null;default:ARRAY[]::text[]"`
	ListPrice   decimal.Decimal `gorm:"column:list_price;type:numeric(12,2);not null"`
	BuyPrice    decimal.Decimal `gorm:"column:buy_price;type:numeric(12,2);not null"`
	ImagePath   *string         `gorm:"column:image_path"`
	StockQty    int             `gorm:"column:stock_qty;not null;default:0"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
