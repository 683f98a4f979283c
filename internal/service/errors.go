package service

import (
	"errors"
	"fmt"
	"strings"

	"cierrecaja/internal/arqueo"
	"cierrecaja/internal/model"
)

// Sentinel errors of the closure engine. Handlers match them with errors.Is and
// show the message to the operator as-is.
var (
	ErrPeriodoInvalido       = errors.New("período inválido")
	ErrLedgerNoDisponible    = errors.New("el registro de ventas no está disponible")
	ErrStockNegativo         = errors.New("hay productos con stock negativo")
	ErrCierrePendiente       = errors.New("ya existe un cierre pendiente para este alcance")
	ErrCierreNoEncontrado    = errors.New("cierre no encontrado")
	ErrTransicionInvalida    = errors.New("el cierre ya fue revisado")
	ErrMotivoRequerido       = errors.New("el motivo de rechazo es obligatorio")
	ErrPermisoDenegado       = errors.New("permiso denegado")
	ErrSinMetodosPago        = errors.New("el cierre debe incluir al menos un método de pago")
	ErrMontoInvalido         = errors.New("los montos declarados no pueden ser negativos")
	ErrConfirmacionRequerida = errors.New("la diferencia es significativa y requiere confirmación")
	ErrTeoricoDesactualizado = errors.New("el resumen teórico no coincide con el registro de ventas")
)

// ProductoStock is one offending product of a NegativeStock failure.
type ProductoStock struct {
	ID           string `json:"id"`
	CodigoBarras string `json:"codigo_barras"`
	Nombre       string `json:"nombre"`
	StockActual  int    `json:"stock_actual"`
}

func productosStock(ps []model.Producto) []ProductoStock {
	out := make([]ProductoStock, len(ps))
	for i, p := range ps {
		out[i] = ProductoStock{ID: p.ID.String(), CodigoBarras: p.CodigoBarras, Nombre: p.Nombre, StockActual: p.StockActual}
	}
	return out
}

// StockNegativoError carries the products the operator must fix before closing.
type StockNegativoError struct {
	Productos []ProductoStock
}

func (e *StockNegativoError) Error() string {
	nombres := make([]string, len(e.Productos))
	for i, p := range e.Productos {
		nombres[i] = p.Nombre
	}
	return fmt.Sprintf("%s: %s", ErrStockNegativo, strings.Join(nombres, ", "))
}

func (e *StockNegativoError) Unwrap() error { return ErrStockNegativo }

// ConfirmacionRequeridaError carries the reconciliation the operator must acknowledge.
type ConfirmacionRequeridaError struct {
	Resultado arqueo.Resultado
}

func (e *ConfirmacionRequeridaError) Error() string {
	return fmt.Sprintf("%s (diferencia %s, %s%%)", ErrConfirmacionRequerida,
		e.Resultado.Diferencia.StringFixed(2), e.Resultado.DiferenciaPct.StringFixed(2))
}

func (e *ConfirmacionRequeridaError) Unwrap() error { return ErrConfirmacionRequerida }
