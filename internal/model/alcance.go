package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Alcance is the aggregation boundary of a closure.
// Tipo: "tienda" | "cajero"
type Alcance struct {
	Tipo     string     `gorm:"type:varchar(10);not null" json:"tipo"`
	CajeroID *uuid.UUID `gorm:"type:uuid;index" json:"cajero_id,omitempty"`
	// Clave is "tienda" or "cajero:<uuid>"; the pending guard and the lock key on it.
	Clave string `gorm:"type:varchar(50);not null;index" json:"clave"`
}

const (
	AlcanceTienda = "tienda"
	AlcanceCajero = "cajero"
)

// Tienda is the store-wide scope.
func Tienda() Alcance {
	return Alcance{Tipo: AlcanceTienda, Clave: AlcanceTienda}
}

// Cajero is the scope of a single cashier's transactions.
func Cajero(id uuid.UUID) Alcance {
	return Alcance{Tipo: AlcanceCajero, CajeroID: &id, Clave: AlcanceCajero + ":" + id.String()}
}

// NuevoAlcance builds a scope from its wire form.
func NuevoAlcance(tipo string, cajeroID *uuid.UUID) (Alcance, error) {
	switch tipo {
	case AlcanceTienda:
		return Tienda(), nil
	case AlcanceCajero:
		if cajeroID == nil || *cajeroID == uuid.Nil {
			return Alcance{}, fmt.Errorf("alcance cajero requiere cajero_id")
		}
		return Cajero(*cajeroID), nil
	default:
		return Alcance{}, fmt.Errorf("alcance desconocido %q", tipo)
	}
}

func (a Alcance) EsTienda() bool { return a.Tipo == AlcanceTienda }

func (a Alcance) String() string { return a.Clave }
