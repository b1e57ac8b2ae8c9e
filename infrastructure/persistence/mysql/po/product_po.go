package po

import (
	"time"

	"storefront/domain/catalog"
	"storefront/domain/shared"
)

// ProductPO catalog row; only the fields the order flow reads.
type ProductPO struct {
	ID        string `gorm:"primaryKey;size:64"`
	Name      string `gorm:"size:255;not null"`
	Price     int64  `gorm:"not null"`
	Currency  string `gorm:"size:3;not null"`
	Image     string `gorm:"size:512"`
	Stock     int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ProductPO) TableName() string {
	return "products"
}

func FromProduct(p catalog.Product) *ProductPO {
	return &ProductPO{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price.Amount(),
		Currency: p.Price.Currency(),
		Image:    p.Image,
		Stock:    p.Stock,
	}
}

func (po *ProductPO) ToDomain() *catalog.Product {
	return &catalog.Product{
		ID:    po.ID,
		Name:  po.Name,
		Price: *shared.NewMoney(po.Price, po.Currency),
		Image: po.Image,
		Stock: po.Stock,
	}
}
