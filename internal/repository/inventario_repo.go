package repository

import (
	"context"

	"cierrecaja/internal/model"

	"gorm.io/gorm"
)

// InventarioRepository reads stock levels. It never writes.
//
//go:generate mockgen -destination=mocks/mock_inventario_repo.go -package=mock_repository -source=inventario_repo.go InventarioRepository
type InventarioRepository interface {
	// ProductosStockNegativo lists active products whose stock_actual < 0.
	ProductosStockNegativo(ctx context.Context) ([]model.Producto, error)
}

type inventarioRepo struct{ db *gorm.DB }

func NewInventarioRepository(db *gorm.DB) InventarioRepository { return &inventarioRepo{db: db} }

func (r *inventarioRepo) ProductosStockNegativo(ctx context.Context) ([]model.Producto, error) {
	var productos []model.Producto
	err := r.db.WithContext(ctx).
		Where("activo = ? AND stock_actual < 0", true).
		Order("nombre ASC").
		Find(&productos).Error
	return productos, err
}
