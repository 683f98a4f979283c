package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"cierrecaja/internal/arqueo"
	"cierrecaja/internal/infra"
	"cierrecaja/internal/model"
	"cierrecaja/internal/money"
	"cierrecaja/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// TeoricoService computes what the register should hold according to the ledger.
type TeoricoService interface {
	Calcular(ctx context.Context, alcance model.Alcance, periodo arqueo.Periodo) (arqueo.ResumenTeorico, error)
	// EstadoLedger reports the breaker state for /health.
	EstadoLedger() infra.CBState
}

type teoricoService struct {
	ledger repository.LedgerRepository
	cb     *infra.CircuitBreaker
}

func NewTeoricoService(ledger repository.LedgerRepository, cb *infra.CircuitBreaker) TeoricoService {
	if cb == nil {
		cb = infra.NewCircuitBreaker(infra.DefaultCBConfig())
	}
	return &teoricoService{ledger: ledger, cb: cb}
}

func (s *teoricoService) EstadoLedger() infra.CBState { return s.cb.State() }

// ── Calcular ──────────────────────────────────────────────────────────────────
// Only completed sales and returns with timestamp in [Inicio, Fin) count.
// Any read failure is LedgerUnavailable; an empty period is a valid zero summary.

func (s *teoricoService) Calcular(ctx context.Context, alcance model.Alcance, periodo arqueo.Periodo) (arqueo.ResumenTeorico, error) {
	if !periodo.Valido() {
		return arqueo.ResumenTeorico{}, fmt.Errorf("%w: el inicio debe ser anterior al fin", ErrPeriodoInvalido)
	}

	f := repository.LedgerFiltro{Inicio: periodo.Inicio, Fin: periodo.Fin}
	if !alcance.EsTienda() {
		f.UsuarioID = alcance.CajeroID
	}

	var (
		ventas       repository.TotalesVentas
		devoluciones decimal.Decimal
		porMetodo    []repository.MontoPorMetodo
		devMetodo    []repository.MontoPorMetodo
	)
	err := s.cb.Execute(func() error {
		var err error
		if ventas, err = s.ledger.TotalesVentas(ctx, f); err != nil {
			return err
		}
		if devoluciones, err = s.ledger.TotalDevoluciones(ctx, f); err != nil {
			return err
		}
		if porMetodo, err = s.ledger.VentasPorMetodo(ctx, f); err != nil {
			return err
		}
		devMetodo, err = s.ledger.DevolucionesPorMetodo(ctx, f)
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return arqueo.ResumenTeorico{}, ctx.Err()
		}
		if !errors.Is(err, infra.ErrCircuitOpen) {
			log.Error().Err(err).Str("alcance", alcance.Clave).Msg("teorico: ledger read failed")
		}
		return arqueo.ResumenTeorico{}, fmt.Errorf("%w: %v", ErrLedgerNoDisponible, err)
	}

	resumen := arqueo.NuevoResumen(periodo, ventas.Total, devoluciones,
		ventas.Transacciones, ventas.Clientes, desglose(porMetodo, devMetodo))

	if !resumen.SinTransacciones && !resumen.Conserva() {
		log.Warn().
			Str("alcance", alcance.Clave).
			Str("total_neto", resumen.TotalNeto.String()).
			Str("suma_desglose", resumen.SumaDesglose().String()).
			Msg("teorico: payment breakdown does not add up to net total")
	}
	return resumen, nil
}

// desglose nets returns out of each method's sales. Methods with only returns
// appear with a negative amount and zero transactions. Ordered by amount, largest first.
func desglose(ventas, devoluciones []repository.MontoPorMetodo) []arqueo.DesgloseTeorico {
	idx := map[string]int{}
	out := make([]arqueo.DesgloseTeorico, 0, len(ventas))
	for _, v := range ventas {
		idx[v.MetodoPagoID] = len(out)
		out = append(out, arqueo.DesgloseTeorico{
			MetodoPagoID:    v.MetodoPagoID,
			MontoTeorico:    v.Monto,
			CantidadTeorica: v.Cantidad,
		})
	}
	for _, d := range devoluciones {
		i, ok := idx[d.MetodoPagoID]
		if !ok {
			i = len(out)
			idx[d.MetodoPagoID] = i
			out = append(out, arqueo.DesgloseTeorico{MetodoPagoID: d.MetodoPagoID, MontoTeorico: decimal.Zero})
		}
		out[i].MontoTeorico = out[i].MontoTeorico.Sub(d.Monto)
	}
	for i := range out {
		out[i].MontoTeorico = money.Round(out[i].MontoTeorico)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].MontoTeorico.Cmp(out[j].MontoTeorico); c != 0 {
			return c > 0
		}
		return out[i].MetodoPagoID < out[j].MetodoPagoID
	})
	return out
}
