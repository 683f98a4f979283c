package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Estado del cierre: "pendiente" | "aprobado" | "rechazado"
const (
	EstadoPendiente = "pendiente"
	EstadoAprobado  = "aprobado"
	EstadoRechazado = "rechazado"
)

// CierreCaja is the persisted reconciliation of one scope over one period.
// The theoretical fields are a snapshot taken at submission and never recomputed.
// Once the record leaves "pendiente" only the review fields are ever written.
type CierreCaja struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`
	// NumeroCierre is store-wide, sequential and never reused, rejected closures included.
	NumeroCierre int64     `gorm:"uniqueIndex;not null"`
	Alcance      Alcance   `gorm:"embedded;embeddedPrefix:alcance_"`
	FechaInicio  time.Time `gorm:"not null;index"`
	FechaFin     time.Time `gorm:"not null;index"`

	CajeroNombre string     `gorm:"not null"`
	CajeroID     *uuid.UUID `gorm:"type:uuid"`

	TotalTeorico         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	VentasTeoricas       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DevolucionesTeoricas decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalTransacciones   int64           `gorm:"not null"`
	TotalClientes        int64           `gorm:"not null"`
	TicketPromedio       decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	TotalDeclarado decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Diferencia     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiferenciaPct  decimal.Decimal `gorm:"type:decimal(7,2);not null"`
	// DiferenciaSignificativa was acknowledged by the operator at submission.
	DiferenciaSignificativa bool `gorm:"not null;default:false;index"`

	Observaciones *string
	Estado        string `gorm:"type:varchar(20);not null;default:'pendiente';index"`

	SupervisorNombre     *string
	SupervisorValidadoAt *time.Time
	MotivoRechazo        *string

	CreatedAt time.Time
	UpdatedAt time.Time

	Pagos          []CierrePago         `gorm:"foreignKey:CierreID"`
	Denominaciones []CierreDenominacion `gorm:"foreignKey:CierreID"`
}

func (CierreCaja) TableName() string { return "cierres_caja" }

// BeforeCreate assigns the id in Go so the same models run on postgres and sqlite.
func (c *CierreCaja) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CierrePago is the declared amount of one payment method, with its snapshot theoretical.
type CierrePago struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CierreID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	MetodoPagoID      string          `gorm:"type:varchar(30);not null"`
	MontoTeorico      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CantidadTeorica   int64           `gorm:"not null;default:0"`
	MontoDeclarado    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CantidadDeclarada *int64
	Diferencia        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Notas             *string
}

func (CierrePago) TableName() string { return "cierre_pagos" }

func (p *CierrePago) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// CierreDenominacion is one counted bill or coin line. Only quantities > 0 are stored.
type CierreDenominacion struct {
	ID       uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CierreID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Valor    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Tipo     string          `gorm:"type:varchar(10);not null"` // "billete" | "moneda"
	Cantidad int64           `gorm:"not null"`
	Subtotal decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

func (CierreDenominacion) TableName() string { return "cierre_denominaciones" }

func (d *CierreDenominacion) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// Secuencia is a named counter advanced with UPDATE ... RETURNING.
type Secuencia struct {
	Nombre string `gorm:"type:varchar(50);primaryKey"`
	Valor  int64  `gorm:"not null;default:0"`
}

func (Secuencia) TableName() string { return "secuencias" }
