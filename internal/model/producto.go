package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Producto is the inventory view this service needs: identity and current stock.
// Stock is owned by the inventory system; closures only read it.
type Producto struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	CodigoBarras string    `gorm:"uniqueIndex;not null"`
	Nombre       string    `gorm:"index;not null"`
	Categoria    string    `gorm:"not null"`
	// StockActual can go negative when sales outrun receiving; that blocks closures.
	StockActual int  `gorm:"not null;default:0"`
	StockMinimo int  `gorm:"not null;default:5"`
	Activo      bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Producto) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
