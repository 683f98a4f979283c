package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"cierrecaja/internal/arqueo"
	"cierrecaja/internal/denominacion"
	"cierrecaja/internal/infra"
	"cierrecaja/internal/model"
	"cierrecaja/internal/money"
	"cierrecaja/internal/repository"
	"cierrecaja/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Locker serializes submissions per scope. Implemented by infra.RedisLocker.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// ReporteEncolador schedules the closure report. Implemented by worker.Dispatcher.
type ReporteEncolador interface {
	EnqueueCierreReporte(ctx context.Context, payload worker.CierreReportePayload) error
}

// CierreConfig holds the deployment knobs of the workflow.
type CierreConfig struct {
	Umbrales       arqueo.Umbrales
	MetodoEfectivo string
	Moneda         string
	ValidarStock   bool
	Zona           *time.Location
	Reloj          func() time.Time
}

// CierreDeps are the collaborators of the workflow. Locker and Reportes may be nil.
type CierreDeps struct {
	Cierres     repository.CierreRepository
	Inventario  repository.InventarioRepository
	Teorico     TeoricoService
	Periodos    PeriodoService
	Locker      Locker
	Reportes    ReporteEncolador
	Autorizador Autorizador
}

// DenominacionContada is one counted line as received from the operator.
type DenominacionContada struct {
	Valor    decimal.Decimal
	Tipo     denominacion.Tipo
	Cantidad int64
}

// RegistroCierre is the submission of one closure. Teorico is the snapshot the
// operator worked with; when its period is zero the ledger is read again.
type RegistroCierre struct {
	Alcance             model.Alcance
	Periodo             arqueo.Periodo
	Teorico             arqueo.ResumenTeorico
	Pagos               []arqueo.PagoDeclarado
	Denominaciones      []DenominacionContada
	Observaciones       *string
	ConfirmarDiferencia bool
}

// CalculoCierre is a reconciliation preview request.
type CalculoCierre struct {
	Teorico        arqueo.ResumenTeorico
	Pagos          []arqueo.PagoDeclarado
	Denominaciones []DenominacionContada
}

// Calculo is the preview result with the denomination lines that fed it.
type Calculo struct {
	Resultado      arqueo.Resultado
	Denominaciones []denominacion.Linea
	TotalEfectivo  decimal.Decimal
}

// ValidacionStock is the outcome of the stock precondition.
type ValidacionStock struct {
	Valido    bool            `json:"valido"`
	Productos []ProductoStock `json:"productos"`
}

// Preparacion is everything the "new closure" screen needs in one call.
type Preparacion struct {
	Alcance        model.Alcance          `json:"alcance"`
	Periodo        arqueo.Periodo         `json:"periodo"`
	Teorico        arqueo.ResumenTeorico  `json:"teorico"`
	Pagos          []arqueo.PagoDeclarado `json:"pagos"`
	Denominaciones []denominacion.Linea   `json:"denominaciones"`
}

// FiltroCierres is the list filter. Nil/empty fields are ignored.
type FiltroCierres struct {
	Estado        string
	Desde         *time.Time
	Hasta         *time.Time
	Alcance       *model.Alcance
	Significativa *bool
	Page          int
	PageSize      int
}

// Pagina is one page of closures.
type Pagina struct {
	Data       []model.CierreCaja
	Page       int
	PageSize   int
	TotalPages int
	TotalItems int64
}

const (
	pageSizeDefault = 20
	pageSizeMax     = 100
)

type CierreService interface {
	Catalogo() denominacion.Catalogo
	ValidarStock(ctx context.Context, alcance model.Alcance) (ValidacionStock, error)
	Preparar(ctx context.Context, actor Actor, alcance model.Alcance) (*Preparacion, error)
	Calcular(ctx context.Context, req CalculoCierre) (*Calculo, error)
	Registrar(ctx context.Context, actor Actor, req RegistroCierre) (*model.CierreCaja, error)
	Teorico(ctx context.Context, actor Actor, alcance model.Alcance, periodo arqueo.Periodo) (arqueo.ResumenTeorico, error)
	Listar(ctx context.Context, actor Actor, f FiltroCierres) (*Pagina, error)
	Obtener(ctx context.Context, actor Actor, id uuid.UUID) (*model.CierreCaja, error)
	Aprobar(ctx context.Context, actor Actor, id uuid.UUID) (*model.CierreCaja, error)
	Rechazar(ctx context.Context, actor Actor, id uuid.UUID, motivo string) (*model.CierreCaja, error)
}

type cierreService struct {
	deps     CierreDeps
	cfg      CierreConfig
	catalogo denominacion.Catalogo
}

func NewCierreService(deps CierreDeps, cfg CierreConfig) (CierreService, error) {
	catalogo, err := denominacion.CatalogoPara(cfg.Moneda)
	if err != nil {
		return nil, err
	}
	if deps.Autorizador == nil {
		deps.Autorizador = AutorizadorPorRol{}
	}
	if cfg.Zona == nil {
		cfg.Zona = time.UTC
	}
	if cfg.Reloj == nil {
		cfg.Reloj = time.Now
	}
	if cfg.Umbrales.Porcentaje.IsZero() && cfg.Umbrales.Monto.IsZero() {
		cfg.Umbrales = arqueo.UmbralesPorDefecto()
	}
	return &cierreService{deps: deps, cfg: cfg, catalogo: catalogo}, nil
}

func (s *cierreService) Catalogo() denominacion.Catalogo {
	c, _ := denominacion.CatalogoPara(s.cfg.Moneda)
	return c
}

// ── ValidarStock ──────────────────────────────────────────────────────────────
// Store-wide: a negative stock blocks every scope.

func (s *cierreService) ValidarStock(ctx context.Context, _ model.Alcance) (ValidacionStock, error) {
	if !s.cfg.ValidarStock || s.deps.Inventario == nil {
		return ValidacionStock{Valido: true, Productos: []ProductoStock{}}, nil
	}
	ps, err := s.deps.Inventario.ProductosStockNegativo(ctx)
	if err != nil {
		return ValidacionStock{}, fmt.Errorf("validar stock: %w", err)
	}
	return ValidacionStock{Valido: len(ps) == 0, Productos: productosStock(ps)}, nil
}

func (s *cierreService) exigirStock(ctx context.Context, alcance model.Alcance) error {
	v, err := s.ValidarStock(ctx, alcance)
	if err != nil {
		return err
	}
	if !v.Valido {
		return &StockNegativoError{Productos: v.Productos}
	}
	return nil
}

// ── Preparar ──────────────────────────────────────────────────────────────────
// stock → suggested period → theoretical summary → seeded lines

func (s *cierreService) Preparar(ctx context.Context, actor Actor, alcance model.Alcance) (*Preparacion, error) {
	if !s.deps.Autorizador.PuedeRegistrar(alcance, actor) {
		return nil, ErrPermisoDenegado
	}
	if err := s.exigirStock(ctx, alcance); err != nil {
		return nil, err
	}
	periodo, err := s.deps.Periodos.Sugerir(ctx, alcance)
	if err != nil {
		return nil, err
	}
	resumen, err := s.deps.Teorico.Calcular(ctx, alcance, periodo)
	if err != nil {
		return nil, err
	}
	return &Preparacion{
		Alcance:        alcance,
		Periodo:        periodo,
		Teorico:        resumen,
		Pagos:          arqueo.SembrarPagos(resumen),
		Denominaciones: denominacion.NewContador(s.catalogo).Lineas(),
	}, nil
}

// ── Calcular ──────────────────────────────────────────────────────────────────

func (s *cierreService) Calcular(_ context.Context, req CalculoCierre) (*Calculo, error) {
	if err := validarPagos(req.Pagos); err != nil {
		return nil, err
	}
	contador, err := s.contar(req.Denominaciones)
	if err != nil {
		return nil, err
	}
	return &Calculo{
		Resultado:      s.conciliar(req.Teorico, req.Pagos, contador),
		Denominaciones: contador.Contadas(),
		TotalEfectivo:  contador.TotalEfectivo(),
	}, nil
}

func (s *cierreService) contar(lineas []DenominacionContada) (*denominacion.Contador, error) {
	contador := denominacion.NewContador(s.catalogo)
	for _, l := range lineas {
		if err := contador.Registrar(l.Valor, l.Tipo, l.Cantidad); err != nil {
			return nil, err
		}
	}
	return contador, nil
}

func (s *cierreService) conciliar(resumen arqueo.ResumenTeorico, pagos []arqueo.PagoDeclarado, contador *denominacion.Contador) arqueo.Resultado {
	in := arqueo.Entrada{
		Resumen:        resumen,
		Pagos:          pagos,
		Umbrales:       s.cfg.Umbrales,
		MetodoEfectivo: s.cfg.MetodoEfectivo,
	}
	if contador.HayConteo() {
		total := contador.TotalEfectivo()
		in.Efectivo = &total
	}
	return arqueo.Calcular(in)
}

func validarPagos(pagos []arqueo.PagoDeclarado) error {
	if len(pagos) == 0 {
		return ErrSinMetodosPago
	}
	for _, p := range pagos {
		if strings.TrimSpace(p.MetodoPagoID) == "" {
			return ErrSinMetodosPago
		}
		if p.MontoDeclarado.IsNegative() {
			return fmt.Errorf("%w: %s %s", ErrMontoInvalido, p.MetodoPagoID, p.MontoDeclarado.String())
		}
		if p.CantidadDeclarada != nil && *p.CantidadDeclarada < 0 {
			return fmt.Errorf("%w: cantidad de %s", ErrMontoInvalido, p.MetodoPagoID)
		}
	}
	return nil
}

// ── Registrar ─────────────────────────────────────────────────────────────────
// Pure checks first, then the stock precondition, then the per-scope lock.
// Under the lock: pending guard → reconciliation → insert with the next number.

func (s *cierreService) Registrar(ctx context.Context, actor Actor, req RegistroCierre) (*model.CierreCaja, error) {
	if !s.deps.Autorizador.PuedeRegistrar(req.Alcance, actor) {
		return nil, ErrPermisoDenegado
	}
	if err := validarPagos(req.Pagos); err != nil {
		return nil, err
	}
	contador, err := s.contar(req.Denominaciones)
	if err != nil {
		return nil, err
	}
	if err := s.validarPeriodo(ctx, req); err != nil {
		return nil, err
	}
	if err := s.exigirStock(ctx, req.Alcance); err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, req.Alcance)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.sinPendiente(ctx, req.Alcance); err != nil {
		return nil, err
	}

	resumen, err := s.deps.Teorico.Calcular(ctx, req.Alcance, req.Periodo)
	if err != nil {
		return nil, err
	}
	if err := snapshotVigente(req.Teorico, resumen); err != nil {
		return nil, err
	}

	res := s.conciliar(resumen, req.Pagos, contador)
	if res.Significativa && !req.ConfirmarDiferencia {
		return nil, &ConfirmacionRequeridaError{Resultado: res}
	}

	cierre := nuevoCierre(actor, req, resumen, res, contador.Contadas())
	if err := s.deps.Cierres.Create(ctx, cierre); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCierrePendiente
		}
		return nil, fmt.Errorf("registrar cierre: %w", err)
	}

	log.Info().
		Str("cierre_id", cierre.ID.String()).
		Int64("numero_cierre", cierre.NumeroCierre).
		Str("alcance", cierre.Alcance.Clave).
		Str("diferencia", cierre.Diferencia.StringFixed(2)).
		Bool("significativa", cierre.DiferenciaSignificativa).
		Msg("cierre registrado")

	s.encolarReporte(ctx, cierre.ID, worker.EventoRegistrado)
	return cierre, nil
}

// snapshotVigente checks the summary the operator reconciled against the ledger
// read under the lock. An empty snapshot means the operator did not send one.
func snapshotVigente(snap, ledger arqueo.ResumenTeorico) error {
	if snap.Periodo.Inicio.IsZero() {
		return nil
	}
	if !snap.Conserva() || !money.WithinTolerance(snap.TotalNeto, snap.TotalVentas.Sub(snap.TotalDevoluciones)) {
		return fmt.Errorf("%w: el desglose no suma el total neto", ErrTeoricoDesactualizado)
	}
	if !money.WithinTolerance(snap.TotalNeto, ledger.TotalNeto) {
		return fmt.Errorf("%w: total neto %s, registro %s", ErrTeoricoDesactualizado,
			snap.TotalNeto.StringFixed(2), ledger.TotalNeto.StringFixed(2))
	}
	metodos := make(map[string]bool, len(ledger.Desglose))
	for _, d := range ledger.Desglose {
		metodos[d.MetodoPagoID] = true
		var monto decimal.Decimal
		if sd, ok := snap.Teorico(d.MetodoPagoID); ok {
			monto = sd.MontoTeorico
		}
		if !money.WithinTolerance(monto, d.MontoTeorico) {
			return fmt.Errorf("%w: %s", ErrTeoricoDesactualizado, d.MetodoPagoID)
		}
	}
	for _, sd := range snap.Desglose {
		if !metodos[sd.MetodoPagoID] && !money.WithinTolerance(sd.MontoTeorico, decimal.Zero) {
			return fmt.Errorf("%w: %s", ErrTeoricoDesactualizado, sd.MetodoPagoID)
		}
	}
	return nil
}

func (s *cierreService) validarPeriodo(ctx context.Context, req RegistroCierre) error {
	if !req.Periodo.Valido() {
		return fmt.Errorf("%w: la fecha de fin debe ser posterior a la de inicio", ErrPeriodoInvalido)
	}
	// The period may reach the end of the current store day, never beyond.
	if limite := inicioDelDia(s.cfg.Reloj().In(s.cfg.Zona)).AddDate(0, 0, 1); req.Periodo.Fin.After(limite) {
		return fmt.Errorf("%w: la fecha de fin no puede pasar del %s", ErrPeriodoInvalido,
			limite.Add(-time.Second).Format("02/01/2006 15:04:05"))
	}
	snap := req.Teorico.Periodo
	if !snap.Inicio.IsZero() && (!snap.Inicio.Equal(req.Periodo.Inicio) || !snap.Fin.Equal(req.Periodo.Fin)) {
		return fmt.Errorf("%w: el resumen teórico no corresponde al período", ErrPeriodoInvalido)
	}
	ultimo, err := s.deps.Periodos.UltimoAprobado(ctx, req.Alcance)
	if err != nil {
		return err
	}
	if ultimo != nil && req.Periodo.Inicio.Before(ultimo.FechaFin) {
		return fmt.Errorf("%w: se superpone con el cierre #%d aprobado hasta %s", ErrPeriodoInvalido,
			ultimo.NumeroCierre, ultimo.FechaFin.In(s.cfg.Zona).Format("02/01/2006 15:04:05"))
	}
	return nil
}

// lock takes the scope lock. Contention is an in-flight submission of the same
// scope; any other Redis failure falls back to the pending index.
func (s *cierreService) lock(ctx context.Context, alcance model.Alcance) (func(), error) {
	noop := func() {}
	if s.deps.Locker == nil {
		return noop, nil
	}
	unlock, err := s.deps.Locker.Lock(ctx, alcance.Clave)
	switch {
	case err == nil:
		return unlock, nil
	case errors.Is(err, infra.ErrLocked):
		log.Warn().Str("alcance", alcance.Clave).Msg("cierre: submission already in progress")
		return nil, fmt.Errorf("%w: hay un registro en proceso", ErrCierrePendiente)
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		log.Warn().Err(err).Str("alcance", alcance.Clave).Msg("cierre: scope lock unavailable")
		return noop, nil
	}
}

func (s *cierreService) sinPendiente(ctx context.Context, alcance model.Alcance) error {
	p, err := s.deps.Cierres.FindPendiente(ctx, alcance.Clave)
	if err == nil {
		return fmt.Errorf("%w (#%d)", ErrCierrePendiente, p.NumeroCierre)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return fmt.Errorf("buscar cierre pendiente: %w", err)
}

func nuevoCierre(actor Actor, req RegistroCierre, resumen arqueo.ResumenTeorico, res arqueo.Resultado, contadas []denominacion.Linea) *model.CierreCaja {
	c := &model.CierreCaja{
		Alcance:                 req.Alcance,
		FechaInicio:             req.Periodo.Inicio,
		FechaFin:                req.Periodo.Fin,
		CajeroNombre:            actor.Nombre,
		TotalTeorico:            res.TotalTeorico,
		VentasTeoricas:          resumen.TotalVentas,
		DevolucionesTeoricas:    resumen.TotalDevoluciones,
		TotalTransacciones:      resumen.TotalTransacciones,
		TotalClientes:           resumen.TotalClientes,
		TicketPromedio:          resumen.TicketPromedio,
		TotalDeclarado:          res.TotalDeclarado,
		Diferencia:              res.Diferencia,
		DiferenciaPct:           res.DiferenciaPct,
		DiferenciaSignificativa: res.Significativa,
		Observaciones:           textoOpcional(req.Observaciones),
		Estado:                  model.EstadoPendiente,
	}
	if actor.ID != uuid.Nil {
		id := actor.ID
		c.CajeroID = &id
	}
	for _, l := range res.Lineas {
		c.Pagos = append(c.Pagos, model.CierrePago{
			MetodoPagoID:      l.MetodoPagoID,
			MontoTeorico:      l.MontoTeorico,
			CantidadTeorica:   l.CantidadTeorica,
			MontoDeclarado:    l.MontoDeclarado,
			CantidadDeclarada: l.CantidadDeclarada,
			Diferencia:        l.Diferencia,
			Notas:             textoOpcional(l.Notas),
		})
	}
	for _, d := range contadas {
		c.Denominaciones = append(c.Denominaciones, model.CierreDenominacion{
			Valor:    d.Valor,
			Tipo:     string(d.Tipo),
			Cantidad: d.Cantidad,
			Subtotal: d.Subtotal,
		})
	}
	return c
}

func textoOpcional(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func (s *cierreService) encolarReporte(ctx context.Context, id uuid.UUID, evento string) {
	if s.deps.Reportes == nil {
		return
	}
	payload := worker.CierreReportePayload{CierreID: id.String(), Evento: evento}
	if err := s.deps.Reportes.EnqueueCierreReporte(ctx, payload); err != nil {
		log.Warn().Err(err).Str("cierre_id", payload.CierreID).Msg("cierre: report not enqueued")
	}
}

// ── Listar / Obtener ──────────────────────────────────────────────────────────

// Teorico is the ledger summary of a scope the actor may read.
func (s *cierreService) Teorico(ctx context.Context, actor Actor, alcance model.Alcance, periodo arqueo.Periodo) (arqueo.ResumenTeorico, error) {
	if !s.deps.Autorizador.PuedeConsultar(alcance, actor) {
		return arqueo.ResumenTeorico{}, ErrPermisoDenegado
	}
	return s.deps.Teorico.Calcular(ctx, alcance, periodo)
}

// Listar pages closures. Actors who cannot review only see their own cashier
// scope, whatever the filter asks for.
func (s *cierreService) Listar(ctx context.Context, actor Actor, f FiltroCierres) (*Pagina, error) {
	if !s.deps.Autorizador.PuedeRevisar(actor) {
		propio := model.Cajero(actor.ID)
		if f.Alcance != nil && !s.deps.Autorizador.PuedeConsultar(*f.Alcance, actor) {
			return nil, ErrPermisoDenegado
		}
		f.Alcance = &propio
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = pageSizeDefault
	}
	if f.PageSize > pageSizeMax {
		f.PageSize = pageSizeMax
	}
	if f.Desde != nil && f.Hasta != nil && f.Hasta.Before(*f.Desde) {
		return nil, fmt.Errorf("%w: fecha_fin anterior a fecha_inicio", ErrPeriodoInvalido)
	}

	rf := repository.CierreFilter{
		Estado:        f.Estado,
		Desde:         f.Desde,
		Hasta:         f.Hasta,
		Significativa: f.Significativa,
		Page:          f.Page,
		PageSize:      f.PageSize,
	}
	if f.Alcance != nil {
		rf.AlcanceClave = f.Alcance.Clave
	}
	cierres, total, err := s.deps.Cierres.List(ctx, rf)
	if err != nil {
		return nil, fmt.Errorf("listar cierres: %w", err)
	}
	if cierres == nil {
		cierres = []model.CierreCaja{}
	}
	return &Pagina{
		Data:       cierres,
		Page:       f.Page,
		PageSize:   f.PageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(f.PageSize))),
		TotalItems: total,
	}, nil
}

func (s *cierreService) Obtener(ctx context.Context, actor Actor, id uuid.UUID) (*model.CierreCaja, error) {
	c, err := s.buscar(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.deps.Autorizador.PuedeConsultar(c.Alcance, actor) {
		return nil, ErrPermisoDenegado
	}
	return c, nil
}

func (s *cierreService) buscar(ctx context.Context, id uuid.UUID) (*model.CierreCaja, error) {
	c, err := s.deps.Cierres.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCierreNoEncontrado
	}
	if err != nil {
		return nil, fmt.Errorf("obtener cierre: %w", err)
	}
	return c, nil
}

// ── Aprobar / Rechazar ────────────────────────────────────────────────────────
// Only pendiente → aprobado | rechazado. Neither touches stock or sales.

func (s *cierreService) Aprobar(ctx context.Context, actor Actor, id uuid.UUID) (*model.CierreCaja, error) {
	return s.revisar(ctx, actor, id, model.EstadoAprobado, nil)
}

func (s *cierreService) Rechazar(ctx context.Context, actor Actor, id uuid.UUID, motivo string) (*model.CierreCaja, error) {
	motivo = strings.TrimSpace(motivo)
	if !s.deps.Autorizador.PuedeRevisar(actor) {
		return nil, ErrPermisoDenegado
	}
	if motivo == "" {
		return nil, ErrMotivoRequerido
	}
	return s.revisar(ctx, actor, id, model.EstadoRechazado, &motivo)
}

func (s *cierreService) revisar(ctx context.Context, actor Actor, id uuid.UUID, estado string, motivo *string) (*model.CierreCaja, error) {
	if !s.deps.Autorizador.PuedeRevisar(actor) {
		return nil, ErrPermisoDenegado
	}

	ok, err := s.deps.Cierres.Revisar(ctx, id, repository.Revision{
		Estado:           estado,
		SupervisorNombre: actor.Nombre,
		ValidadoAt:       s.cfg.Reloj(),
		MotivoRechazo:    motivo,
	})
	if err != nil {
		return nil, fmt.Errorf("revisar cierre: %w", err)
	}

	cierre, err := s.buscar(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: cierre #%d está %s", ErrTransicionInvalida, cierre.NumeroCierre, cierre.Estado)
	}

	log.Info().
		Str("cierre_id", cierre.ID.String()).
		Int64("numero_cierre", cierre.NumeroCierre).
		Str("alcance", cierre.Alcance.Clave).
		Str("estado", cierre.Estado).
		Str("supervisor", actor.Nombre).
		Msg("cierre revisado")

	evento := worker.EventoAprobado
	if estado == model.EstadoRechazado {
		evento = worker.EventoRechazado
	}
	s.encolarReporte(ctx, cierre.ID, evento)
	return cierre, nil
}
