package denominacion

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrCantidadInvalida = errors.New("la cantidad debe ser un entero no negativo")
	ErrIndiceInvalido   = errors.New("línea de denominación inexistente")
	ErrNoEnCatalogo     = errors.New("denominación fuera del catálogo")
)

// Linea is one counted denomination. Subtotal = Valor × Cantidad.
type Linea struct {
	Valor    decimal.Decimal `json:"valor"`
	Tipo     Tipo            `json:"tipo"`
	Cantidad int64           `json:"cantidad"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Contador stages the denomination count of one closure in memory.
// It is not safe for concurrent use.
type Contador struct {
	lineas []Linea
}

// NewContador seeds one line per catalog entry with quantity 0.
func NewContador(c Catalogo) *Contador {
	lineas := make([]Linea, len(c.Denominaciones))
	for i, den := range c.Denominaciones {
		lineas[i] = Linea{Valor: den.Valor, Tipo: den.Tipo, Subtotal: decimal.Zero}
	}
	return &Contador{lineas: lineas}
}

// ParseCantidad validates a quantity received at the boundary. Negative or
// fractional values are rejected, never clamped.
func ParseCantidad(v decimal.Decimal) (int64, error) {
	if v.IsNegative() || !v.Equal(v.Truncate(0)) {
		return 0, fmt.Errorf("%w: %s", ErrCantidadInvalida, v.String())
	}
	return v.IntPart(), nil
}

// Actualizar sets the quantity of line i and returns the updated line together
// with the recomputed cash total.
func (c *Contador) Actualizar(i int, cantidad int64) (Linea, decimal.Decimal, error) {
	if i < 0 || i >= len(c.lineas) {
		return Linea{}, decimal.Zero, fmt.Errorf("%w: %d", ErrIndiceInvalido, i)
	}
	if cantidad < 0 {
		return Linea{}, decimal.Zero, fmt.Errorf("%w: %d", ErrCantidadInvalida, cantidad)
	}
	l := &c.lineas[i]
	l.Cantidad = cantidad
	l.Subtotal = l.Valor.Mul(decimal.NewFromInt(cantidad))
	return *l, c.TotalEfectivo(), nil
}

// Registrar sets the quantity of the line matching valor/tipo.
func (c *Contador) Registrar(valor decimal.Decimal, tipo Tipo, cantidad int64) error {
	for i, l := range c.lineas {
		if l.Tipo == tipo && l.Valor.Equal(valor) {
			_, _, err := c.Actualizar(i, cantidad)
			return err
		}
	}
	return fmt.Errorf("%w: %s %s", ErrNoEnCatalogo, tipo, valor.String())
}

// TotalEfectivo is the sum of all line subtotals.
func (c *Contador) TotalEfectivo() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lineas {
		total = total.Add(l.Subtotal)
	}
	return total
}

// Lineas returns a copy of every line, counted or not.
func (c *Contador) Lineas() []Linea {
	return append([]Linea(nil), c.lineas...)
}

// Contadas returns only the lines with quantity > 0, the ones that get persisted.
func (c *Contador) Contadas() []Linea {
	out := make([]Linea, 0, len(c.lineas))
	for _, l := range c.lineas {
		if l.Cantidad > 0 {
			out = append(out, l)
		}
	}
	return out
}

// HayConteo reports whether at least one denomination was counted.
func (c *Contador) HayConteo() bool {
	for _, l := range c.lineas {
		if l.Cantidad > 0 {
			return true
		}
	}
	return false
}
