package mysql

import (
	"context"
	"errors"

	"storefront/domain/catalog"
	"storefront/infrastructure/persistence/mysql/po"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository catalog.Catalog on the products table
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) GetByID(ctx context.Context, productID string) (*catalog.Product, error) {
	var productPO po.ProductPO
	if err := conn(ctx, r.db).First(&productPO, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.NewProductNotFoundError(productID)
		}
		return nil, err
	}
	return productPO.ToDomain(), nil
}

// AdjustStock single conditional UPDATE; stock never goes below zero.
func (r *ProductRepository) AdjustStock(ctx context.Context, productID string, delta int) error {
	db := conn(ctx, r.db)
	result := db.Model(&po.ProductPO{}).
		Where("id = ? AND stock + ? >= 0", productID, delta).
		UpdateColumn("stock", gorm.Expr("stock + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	product, err := r.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	// delta 为 0 且行未变化时 MySQL 也返回 0 行
	if delta == 0 {
		return nil
	}
	return catalog.NewInsufficientStockError(product.Name)
}

// Seed upserts products (development fixtures).
func (r *ProductRepository) Seed(ctx context.Context, products ...catalog.Product) error {
	if len(products) == 0 {
		return nil
	}
	rows := make([]*po.ProductPO, len(products))
	for i, p := range products {
		rows[i] = po.FromProduct(p)
	}
	return conn(ctx, r.db).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
}

var _ catalog.Catalog = (*ProductRepository)(nil)
