package arqueo

import (
	"cierrecaja/internal/money"

	"github.com/shopspring/decimal"
)

// Umbrales decide when a difference is significant. Both limits are exclusive:
// exactly 5.00% or exactly Q100.00 is not significant.
type Umbrales struct {
	Porcentaje decimal.Decimal
	Monto      decimal.Decimal
}

// UmbralesPorDefecto are the limits used when the deployment does not override them.
func UmbralesPorDefecto() Umbrales {
	return Umbrales{
		Porcentaje: decimal.NewFromInt(5),
		Monto:      decimal.NewFromInt(100),
	}
}

// PagoDeclarado is the amount counted by the operator for one payment method.
type PagoDeclarado struct {
	MetodoPagoID      string          `json:"metodo_pago_id"`
	MontoDeclarado    decimal.Decimal `json:"monto_declarado"`
	CantidadDeclarada *int64          `json:"cantidad_declarada,omitempty"`
	Notas             *string         `json:"notas,omitempty"`
}

// LineaArqueo is one payment method after reconciliation.
type LineaArqueo struct {
	MetodoPagoID      string          `json:"metodo_pago_id"`
	MontoTeorico      decimal.Decimal `json:"monto_teorico"`
	CantidadTeorica   int64           `json:"cantidad_teorica"`
	MontoDeclarado    decimal.Decimal `json:"monto_declarado"`
	CantidadDeclarada *int64          `json:"cantidad_declarada,omitempty"`
	Notas             *string         `json:"notas,omitempty"`
	Diferencia        decimal.Decimal `json:"diferencia"`
	DiferenciaPct     decimal.Decimal `json:"diferencia_pct"`
}

// Resultado is the outcome of comparing a count against a theoretical summary.
type Resultado struct {
	Lineas         []LineaArqueo   `json:"lineas"`
	TotalTeorico   decimal.Decimal `json:"total_teorico"`
	TotalDeclarado decimal.Decimal `json:"total_declarado"`
	Diferencia     decimal.Decimal `json:"diferencia"`
	DiferenciaPct  decimal.Decimal `json:"diferencia_pct"`
	Significativa  bool            `json:"significativa"`
}

// Entrada is the input of Calcular. When Efectivo is set, the declared amount of
// MetodoEfectivo is replaced by the denomination count.
type Entrada struct {
	Resumen        ResumenTeorico
	Pagos          []PagoDeclarado
	Umbrales       Umbrales
	MetodoEfectivo string
	Efectivo       *decimal.Decimal
}

// SembrarPagos returns one declared line per breakdown method, every amount at 0.
func SembrarPagos(r ResumenTeorico) []PagoDeclarado {
	out := make([]PagoDeclarado, len(r.Desglose))
	for i, d := range r.Desglose {
		out[i] = PagoDeclarado{MetodoPagoID: d.MetodoPagoID, MontoDeclarado: decimal.Zero}
	}
	return out
}

// Calcular reconciles the declared payments against the summary.
// Methods declared but absent from the breakdown are kept with a theoretical 0;
// breakdown methods left undeclared count as declared 0.
func Calcular(in Entrada) Resultado {
	pagos := aplicarEfectivo(in.Resumen, in.Pagos, in.MetodoEfectivo, in.Efectivo)

	lineas := make([]LineaArqueo, 0, len(in.Resumen.Desglose)+len(pagos))
	vistos := make(map[string]int, len(pagos))

	for _, d := range in.Resumen.Desglose {
		vistos[d.MetodoPagoID] = len(lineas)
		lineas = append(lineas, LineaArqueo{
			MetodoPagoID:    d.MetodoPagoID,
			MontoTeorico:    d.MontoTeorico,
			CantidadTeorica: d.CantidadTeorica,
			MontoDeclarado:  decimal.Zero,
		})
	}
	for _, p := range pagos {
		i, ok := vistos[p.MetodoPagoID]
		if !ok {
			i = len(lineas)
			vistos[p.MetodoPagoID] = i
			lineas = append(lineas, LineaArqueo{MetodoPagoID: p.MetodoPagoID, MontoTeorico: decimal.Zero})
		}
		l := &lineas[i]
		l.MontoDeclarado = l.MontoDeclarado.Add(p.MontoDeclarado)
		l.CantidadDeclarada = p.CantidadDeclarada
		l.Notas = p.Notas
	}

	declarado := decimal.Zero
	for i := range lineas {
		l := &lineas[i]
		l.MontoDeclarado = money.Round(l.MontoDeclarado)
		l.Diferencia = l.MontoDeclarado.Sub(l.MontoTeorico)
		l.DiferenciaPct = money.Percent(l.Diferencia, l.MontoTeorico)
		declarado = declarado.Add(l.MontoDeclarado)
	}

	teorico := in.Resumen.TotalNeto
	diferencia := declarado.Sub(teorico)
	pct := money.Percent(diferencia, teorico)

	return Resultado{
		Lineas:         lineas,
		TotalTeorico:   teorico,
		TotalDeclarado: declarado,
		Diferencia:     diferencia,
		DiferenciaPct:  pct,
		Significativa:  EsSignificativa(teorico, diferencia, in.Umbrales),
	}
}

// EsSignificativa applies the thresholds to the unrounded percentage. An empty
// theoretical total is never significant: there is nothing to measure the
// difference against.
func EsSignificativa(teorico, diferencia decimal.Decimal, u Umbrales) bool {
	if !teorico.IsPositive() {
		return false
	}
	pct := diferencia.Div(teorico).Mul(decimal.NewFromInt(100))
	return pct.Abs().GreaterThan(u.Porcentaje) || diferencia.Abs().GreaterThan(u.Monto)
}

// aplicarEfectivo replaces the declared cash amount with the counted total. When
// the operator left the cash line out but the ledger has one, the count is added.
func aplicarEfectivo(r ResumenTeorico, pagos []PagoDeclarado, metodo string, efectivo *decimal.Decimal) []PagoDeclarado {
	out := append([]PagoDeclarado(nil), pagos...)
	if efectivo == nil || metodo == "" {
		return out
	}
	found := false
	for i := range out {
		if out[i].MetodoPagoID == metodo {
			out[i].MontoDeclarado = *efectivo
			found = true
		}
	}
	if _, ok := r.Teorico(metodo); ok && !found {
		out = append(out, PagoDeclarado{MetodoPagoID: metodo, MontoDeclarado: *efectivo})
	}
	return out
}
