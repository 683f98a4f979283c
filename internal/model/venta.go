package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Estado de venta y devolución: "completada" | "pendiente" | "anulada"
const (
	VentaCompletada = "completada"
	VentaPendiente  = "pendiente"
	VentaAnulada    = "anulada"
)

// Venta is a ledger row owned by the sales system. This service only reads it.
type Venta struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	NumeroTicket int64           `gorm:"not null"`
	UsuarioID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ClienteID    *uuid.UUID      `gorm:"type:uuid"`
	Total        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Estado       string          `gorm:"type:varchar(20);not null;index"`
	CreatedAt    time.Time       `gorm:"index"`

	Pagos []VentaPago `gorm:"foreignKey:VentaID"`
}

// VentaPago is the amount applied to a sale by one payment method, change excluded.
type VentaPago struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	VentaID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	MetodoPagoID string          `gorm:"type:varchar(30);not null"`
	Monto        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// Devolucion refunds part of a sale through a payment method.
type Devolucion struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	VentaID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	UsuarioID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	MetodoPagoID string          `gorm:"type:varchar(30);not null"`
	Monto        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Estado       string          `gorm:"type:varchar(20);not null"`
	CreatedAt    time.Time       `gorm:"index"`
}

func (Devolucion) TableName() string { return "devoluciones" }

func (v *Venta) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

func (p *VentaPago) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (d *Devolucion) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
