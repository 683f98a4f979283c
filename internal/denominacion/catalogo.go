// Package denominacion models the physical cash count: a fixed catalog of bills
// and coins for the store currency and the quantities counted by the operator.
package denominacion

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Tipo: "billete" | "moneda"
type Tipo string

const (
	Billete Tipo = "billete"
	Moneda  Tipo = "moneda"
)

// Denominacion is one face value of the currency catalog.
type Denominacion struct {
	Valor decimal.Decimal `json:"valor"`
	Tipo  Tipo            `json:"tipo"`
}

// Catalogo is the ordered (largest first) list of denominations of a currency.
type Catalogo struct {
	Moneda         string         `json:"moneda"`
	Simbolo        string         `json:"simbolo"`
	Denominaciones []Denominacion `json:"denominaciones"`
}

func d(s string, t Tipo) Denominacion {
	return Denominacion{Valor: decimal.RequireFromString(s), Tipo: t}
}

// quetzal is the Guatemalan Quetzal set in circulation.
var quetzal = Catalogo{
	Moneda:  "GTQ",
	Simbolo: "Q",
	Denominaciones: []Denominacion{
		d("200", Billete),
		d("100", Billete),
		d("50", Billete),
		d("20", Billete),
		d("10", Billete),
		d("5", Billete),
		d("1", Billete),
		d("1", Moneda),
		d("0.50", Moneda),
		d("0.25", Moneda),
		d("0.10", Moneda),
		d("0.05", Moneda),
		d("0.01", Moneda),
	},
}

var catalogos = map[string]Catalogo{
	quetzal.Moneda: quetzal,
}

// CatalogoPara returns the catalog registered for an ISO currency code.
func CatalogoPara(moneda string) (Catalogo, error) {
	c, ok := catalogos[moneda]
	if !ok {
		return Catalogo{}, fmt.Errorf("denominacion: moneda %q sin catálogo", moneda)
	}
	out := c
	out.Denominaciones = append([]Denominacion(nil), c.Denominaciones...)
	return out, nil
}

// Buscar returns the catalog entry matching a face value and kind.
func (c Catalogo) Buscar(valor decimal.Decimal, tipo Tipo) (Denominacion, bool) {
	for _, den := range c.Denominaciones {
		if den.Tipo == tipo && den.Valor.Equal(valor) {
			return den, true
		}
	}
	return Denominacion{}, false
}
