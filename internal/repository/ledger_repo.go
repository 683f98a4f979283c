package repository

import (
	"context"
	"time"

	"cierrecaja/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerFiltro selects completed ledger rows in [Inicio, Fin), optionally for one cashier.
type LedgerFiltro struct {
	Inicio    time.Time
	Fin       time.Time
	UsuarioID *uuid.UUID
}

// TotalesVentas are the sale-side aggregates of a period.
type TotalesVentas struct {
	Total         decimal.Decimal
	Transacciones int64
	Clientes      int64
}

// MontoPorMetodo is a per payment method sum. Cantidad counts distinct sales.
type MontoPorMetodo struct {
	MetodoPagoID string
	Monto        decimal.Decimal
	Cantidad     int64
}

// LedgerRepository reads the sales ledger. It never writes.
//
//go:generate mockgen -destination=mocks/mock_ledger_repo.go -package=mock_repository -source=ledger_repo.go LedgerRepository
type LedgerRepository interface {
	TotalesVentas(ctx context.Context, f LedgerFiltro) (TotalesVentas, error)
	TotalDevoluciones(ctx context.Context, f LedgerFiltro) (decimal.Decimal, error)
	VentasPorMetodo(ctx context.Context, f LedgerFiltro) ([]MontoPorMetodo, error)
	DevolucionesPorMetodo(ctx context.Context, f LedgerFiltro) ([]MontoPorMetodo, error)
}

type ledgerRepo struct{ db *gorm.DB }

func NewLedgerRepository(db *gorm.DB) LedgerRepository { return &ledgerRepo{db: db} }

func (r *ledgerRepo) ventas(ctx context.Context, f LedgerFiltro) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Venta{}).
		Where("ventas.estado = ? AND ventas.created_at >= ? AND ventas.created_at < ?",
			model.VentaCompletada, f.Inicio.UTC(), f.Fin.UTC())
	if f.UsuarioID != nil {
		q = q.Where("ventas.usuario_id = ?", *f.UsuarioID)
	}
	return q
}

func (r *ledgerRepo) devoluciones(ctx context.Context, f LedgerFiltro) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Devolucion{}).
		Where("estado = ? AND created_at >= ? AND created_at < ?",
			model.VentaCompletada, f.Inicio.UTC(), f.Fin.UTC())
	if f.UsuarioID != nil {
		q = q.Where("usuario_id = ?", *f.UsuarioID)
	}
	return q
}

func (r *ledgerRepo) TotalesVentas(ctx context.Context, f LedgerFiltro) (TotalesVentas, error) {
	var row struct {
		Total         decimal.Decimal
		Transacciones int64
		Clientes      int64
	}
	err := r.ventas(ctx, f).
		Select("COALESCE(SUM(ventas.total), 0) AS total, COUNT(*) AS transacciones, COUNT(DISTINCT ventas.cliente_id) AS clientes").
		Scan(&row).Error
	return TotalesVentas{Total: row.Total, Transacciones: row.Transacciones, Clientes: row.Clientes}, err
}

func (r *ledgerRepo) TotalDevoluciones(ctx context.Context, f LedgerFiltro) (decimal.Decimal, error) {
	var row struct{ Total decimal.Decimal }
	err := r.devoluciones(ctx, f).
		Select("COALESCE(SUM(monto), 0) AS total").
		Scan(&row).Error
	return row.Total, err
}

func (r *ledgerRepo) VentasPorMetodo(ctx context.Context, f LedgerFiltro) ([]MontoPorMetodo, error) {
	var rows []MontoPorMetodo
	err := r.ventas(ctx, f).
		Joins("JOIN venta_pagos ON venta_pagos.venta_id = ventas.id").
		Select("venta_pagos.metodo_pago_id AS metodo_pago_id, COALESCE(SUM(venta_pagos.monto), 0) AS monto, COUNT(DISTINCT ventas.id) AS cantidad").
		Group("venta_pagos.metodo_pago_id").
		Order("venta_pagos.metodo_pago_id").
		Scan(&rows).Error
	return rows, err
}

func (r *ledgerRepo) DevolucionesPorMetodo(ctx context.Context, f LedgerFiltro) ([]MontoPorMetodo, error) {
	var rows []MontoPorMetodo
	err := r.devoluciones(ctx, f).
		Select("metodo_pago_id, COALESCE(SUM(monto), 0) AS monto, COUNT(*) AS cantidad").
		Group("metodo_pago_id").
		Order("metodo_pago_id").
		Scan(&rows).Error
	return rows, err
}
