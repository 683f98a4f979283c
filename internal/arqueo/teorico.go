// Package arqueo compares what was counted against what the sales ledger says the
// register should hold. It is pure: no I/O, no clock.
package arqueo

import (
	"time"

	"cierrecaja/internal/money"

	"github.com/shopspring/decimal"
)

// Periodo is a half-open interval [Inicio, Fin).
type Periodo struct {
	Inicio time.Time `json:"inicio"`
	Fin    time.Time `json:"fin"`
}

// Valido reports whether Inicio < Fin.
func (p Periodo) Valido() bool { return p.Inicio.Before(p.Fin) }

// Contiene reports whether t falls in [Inicio, Fin).
func (p Periodo) Contiene(t time.Time) bool {
	return !t.Before(p.Inicio) && t.Before(p.Fin)
}

// DesgloseTeorico is the theoretical amount and transaction count of one payment method.
type DesgloseTeorico struct {
	MetodoPagoID    string          `json:"metodo_pago_id"`
	MontoTeorico    decimal.Decimal `json:"monto_teorico"`
	CantidadTeorica int64           `json:"cantidad_teorica"`
}

// ResumenTeorico is the ledger view of a scope over a period.
type ResumenTeorico struct {
	Periodo            Periodo           `json:"periodo"`
	TotalVentas        decimal.Decimal   `json:"total_ventas"`
	TotalDevoluciones  decimal.Decimal   `json:"total_devoluciones"`
	TotalNeto          decimal.Decimal   `json:"total_neto"`
	TotalTransacciones int64             `json:"total_transacciones"`
	TotalClientes      int64             `json:"total_clientes"`
	TicketPromedio     decimal.Decimal   `json:"ticket_promedio"`
	Desglose           []DesgloseTeorico `json:"desglose"`
	// SinTransacciones flags an empty period: valid, but worth a notice to the operator.
	SinTransacciones bool `json:"sin_transacciones"`
}

// NuevoResumen derives the totals of a summary from its raw sums so that
// TotalNeto and TicketPromedio are always computed the same way.
func NuevoResumen(p Periodo, ventas, devoluciones decimal.Decimal, transacciones, clientes int64, desglose []DesgloseTeorico) ResumenTeorico {
	ventas = money.Round(ventas)
	devoluciones = money.Round(devoluciones)
	neto := ventas.Sub(devoluciones)
	if desglose == nil {
		desglose = []DesgloseTeorico{}
	}
	return ResumenTeorico{
		Periodo:            p,
		TotalVentas:        ventas,
		TotalDevoluciones:  devoluciones,
		TotalNeto:          neto,
		TotalTransacciones: transacciones,
		TotalClientes:      clientes,
		TicketPromedio:     money.Average(neto, transacciones),
		Desglose:           desglose,
		SinTransacciones:   transacciones == 0,
	}
}

// SumaDesglose is Σ MontoTeorico over the breakdown.
func (r ResumenTeorico) SumaDesglose() decimal.Decimal {
	total := decimal.Zero
	for _, d := range r.Desglose {
		total = total.Add(d.MontoTeorico)
	}
	return total
}

// Conserva reports whether the breakdown adds up to TotalNeto within one minor unit.
func (r ResumenTeorico) Conserva() bool {
	return money.WithinTolerance(r.SumaDesglose(), r.TotalNeto)
}

// Teorico returns the breakdown line of a method, if any.
func (r ResumenTeorico) Teorico(metodo string) (DesgloseTeorico, bool) {
	for _, d := range r.Desglose {
		if d.MetodoPagoID == metodo {
			return d, true
		}
	}
	return DesgloseTeorico{}, false
}
