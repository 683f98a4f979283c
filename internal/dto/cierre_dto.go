package dto

import (
	"time"

	"cierrecaja/internal/arqueo"
	"cierrecaja/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ─── Query DTOs ──────────────────────────────────────────────────────────────

// AlcanceQuery is bound from ?alcance=tienda|cajero&cajero_id=<uuid>.
type AlcanceQuery struct {
	Alcance  string `form:"alcance,default=tienda" validate:"oneof=tienda cajero"`
	CajeroID string `form:"cajero_id"              validate:"omitempty,uuid"`
}

// TeoricoQuery is bound from the query string of GET /v1/cierres/teorico.
// Dates are RFC 3339; the period is [fecha_inicio, fecha_fin).
type TeoricoQuery struct {
	AlcanceQuery
	FechaInicio string `form:"fecha_inicio" validate:"required"`
	FechaFin    string `form:"fecha_fin"    validate:"required"`
}

// CierreFilter is bound from the query string of GET /v1/cierres.
// fecha_inicio / fecha_fin accept RFC 3339 or YYYY-MM-DD.
type CierreFilter struct {
	Estado        string `form:"estado"         validate:"omitempty,oneof=pendiente aprobado rechazado"`
	FechaInicio   string `form:"fecha_inicio"`
	FechaFin      string `form:"fecha_fin"`
	Alcance       string `form:"alcance"        validate:"omitempty,oneof=tienda cajero"`
	CajeroID      string `form:"cajero_id"      validate:"omitempty,uuid"`
	Significativa *bool  `form:"significativa"`
	Page          int    `form:"page,default=1"       validate:"min=1"`
	PageSize      int    `form:"page_size,default=20" validate:"min=1,max=100"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AlcanceRequest struct {
	Tipo     string     `json:"tipo"      validate:"required,oneof=tienda cajero"`
	CajeroID *uuid.UUID `json:"cajero_id"`
}

type PagoDeclaradoRequest struct {
	MetodoPagoID      string          `json:"metodo_pago_id"     validate:"required,max=30"`
	MontoDeclarado    decimal.Decimal `json:"monto_declarado"    validate:"min=0"`
	CantidadDeclarada *int64          `json:"cantidad_declarada" validate:"omitempty,min=0"`
	Notas             *string         `json:"notas"              validate:"omitempty,max=500"`
}

// DenominacionRequest carries the quantity as a number so that 2.5 bills are
// rejected by the counter instead of silently truncated by the decoder.
type DenominacionRequest struct {
	Valor    decimal.Decimal `json:"valor"    validate:"gt=0"`
	Tipo     string          `json:"tipo"     validate:"required,oneof=billete moneda"`
	Cantidad decimal.Decimal `json:"cantidad"`
}

type PrepararCierreRequest struct {
	Alcance AlcanceRequest `json:"alcance"`
}

type CalcularCierreRequest struct {
	Teorico        arqueo.ResumenTeorico  `json:"teorico"`
	Pagos          []PagoDeclaradoRequest `json:"pagos"          validate:"dive"`
	Denominaciones []DenominacionRequest  `json:"denominaciones" validate:"dive"`
}

type RegistrarCierreRequest struct {
	Alcance     AlcanceRequest `json:"alcance"`
	FechaInicio time.Time      `json:"fecha_inicio" validate:"required"`
	FechaFin    time.Time      `json:"fecha_fin"    validate:"required"`
	// Teorico is the summary shown to the operator. The ledger is always read
	// again and a snapshot that no longer matches it is refused.
	Teorico             *arqueo.ResumenTeorico `json:"teorico"`
	Pagos               []PagoDeclaradoRequest `json:"pagos"          validate:"dive"`
	Denominaciones      []DenominacionRequest  `json:"denominaciones" validate:"dive"`
	Observaciones       *string                `json:"observaciones"  validate:"omitempty,max=1000"`
	ConfirmarDiferencia bool                   `json:"confirmar_diferencia"`
}

type RechazarCierreRequest struct {
	Motivo string `json:"motivo" validate:"max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PeriodoResponse struct {
	FechaInicio time.Time `json:"fecha_inicio"`
	FechaFin    time.Time `json:"fecha_fin"`
}

type CierrePagoResponse struct {
	MetodoPagoID      string          `json:"metodo_pago_id"`
	MontoTeorico      decimal.Decimal `json:"monto_teorico"`
	CantidadTeorica   int64           `json:"cantidad_teorica"`
	MontoDeclarado    decimal.Decimal `json:"monto_declarado"`
	CantidadDeclarada *int64          `json:"cantidad_declarada,omitempty"`
	Diferencia        decimal.Decimal `json:"diferencia"`
	Notas             *string         `json:"notas,omitempty"`
}

type CierreDenominacionResponse struct {
	Valor    decimal.Decimal `json:"valor"`
	Tipo     string          `json:"tipo"`
	Cantidad int64           `json:"cantidad"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type CierreResponse struct {
	ID                      string                       `json:"id"`
	NumeroCierre            int64                        `json:"numero_cierre"`
	Alcance                 model.Alcance                `json:"alcance"`
	FechaInicio             time.Time                    `json:"fecha_inicio"`
	FechaFin                time.Time                    `json:"fecha_fin"`
	CajeroNombre            string                       `json:"cajero_nombre"`
	CajeroID                *string                      `json:"cajero_id,omitempty"`
	TotalTeorico            decimal.Decimal              `json:"total_teorico"`
	VentasTeoricas          decimal.Decimal              `json:"ventas_teoricas"`
	DevolucionesTeoricas    decimal.Decimal              `json:"devoluciones_teoricas"`
	TotalTransacciones      int64                        `json:"total_transacciones"`
	TotalClientes           int64                        `json:"total_clientes"`
	TicketPromedio          decimal.Decimal              `json:"ticket_promedio"`
	TotalDeclarado          decimal.Decimal              `json:"total_declarado"`
	Diferencia              decimal.Decimal              `json:"diferencia"`
	DiferenciaPct           decimal.Decimal              `json:"diferencia_pct"`
	DiferenciaSignificativa bool                         `json:"diferencia_significativa"`
	Observaciones           *string                      `json:"observaciones,omitempty"`
	Estado                  string                       `json:"estado"`
	SupervisorNombre        *string                      `json:"supervisor_nombre,omitempty"`
	SupervisorValidadoAt    *time.Time                   `json:"supervisor_validado_at,omitempty"`
	MotivoRechazo           *string                      `json:"motivo_rechazo,omitempty"`
	CreatedAt               time.Time                    `json:"created_at"`
	UpdatedAt               time.Time                    `json:"updated_at"`
	Pagos                   []CierrePagoResponse         `json:"pagos,omitempty"`
	Denominaciones          []CierreDenominacionResponse `json:"denominaciones,omitempty"`
}

type CierreListResponse struct {
	Data       []CierreResponse `json:"data"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
	TotalItems int64            `json:"total_items"`
}

type CalculoResponse struct {
	Resultado      arqueo.Resultado             `json:"resultado"`
	TotalEfectivo  decimal.Decimal              `json:"total_efectivo"`
	Denominaciones []CierreDenominacionResponse `json:"denominaciones"`
}

// NewCierreResponse maps a record, lines included when they were loaded.
func NewCierreResponse(c *model.CierreCaja) CierreResponse {
	r := CierreResponse{
		ID:                      c.ID.String(),
		NumeroCierre:            c.NumeroCierre,
		Alcance:                 c.Alcance,
		FechaInicio:             c.FechaInicio,
		FechaFin:                c.FechaFin,
		CajeroNombre:            c.CajeroNombre,
		TotalTeorico:            c.TotalTeorico,
		VentasTeoricas:          c.VentasTeoricas,
		DevolucionesTeoricas:    c.DevolucionesTeoricas,
		TotalTransacciones:      c.TotalTransacciones,
		TotalClientes:           c.TotalClientes,
		TicketPromedio:          c.TicketPromedio,
		TotalDeclarado:          c.TotalDeclarado,
		Diferencia:              c.Diferencia,
		DiferenciaPct:           c.DiferenciaPct,
		DiferenciaSignificativa: c.DiferenciaSignificativa,
		Observaciones:           c.Observaciones,
		Estado:                  c.Estado,
		SupervisorNombre:        c.SupervisorNombre,
		SupervisorValidadoAt:    c.SupervisorValidadoAt,
		MotivoRechazo:           c.MotivoRechazo,
		CreatedAt:               c.CreatedAt,
		UpdatedAt:               c.UpdatedAt,
	}
	if c.CajeroID != nil {
		s := c.CajeroID.String()
		r.CajeroID = &s
	}
	for _, p := range c.Pagos {
		r.Pagos = append(r.Pagos, CierrePagoResponse{
			MetodoPagoID:      p.MetodoPagoID,
			MontoTeorico:      p.MontoTeorico,
			CantidadTeorica:   p.CantidadTeorica,
			MontoDeclarado:    p.MontoDeclarado,
			CantidadDeclarada: p.CantidadDeclarada,
			Diferencia:        p.Diferencia,
			Notas:             p.Notas,
		})
	}
	for _, d := range c.Denominaciones {
		r.Denominaciones = append(r.Denominaciones, CierreDenominacionResponse{
			Valor: d.Valor, Tipo: d.Tipo, Cantidad: d.Cantidad, Subtotal: d.Subtotal,
		})
	}
	return r
}
