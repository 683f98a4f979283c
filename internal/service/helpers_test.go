package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"cierrecaja/internal/arqueo"
	"cierrecaja/internal/model"
	"cierrecaja/internal/repository"
	"cierrecaja/internal/service"
	"cierrecaja/internal/testutil"
	"cierrecaja/internal/worker"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	cajeroID   = uuid.New()
	supervisor = service.Actor{ID: uuid.New(), Nombre: "Sofía Méndez", Rol: service.RolSupervisor}
	cajera     = service.Actor{ID: cajeroID, Nombre: "Ana López", Rol: service.RolCajero}
)

// ── Fakes ─────────────────────────────────────────────────────────────────────

type fakeReportes struct {
	mu      sync.Mutex
	eventos []worker.CierreReportePayload
}

func (f *fakeReportes) EnqueueCierreReporte(_ context.Context, p worker.CierreReportePayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.eventos = append(f.eventos, p)
	return nil
}

func (f *fakeReportes) Eventos() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.eventos))
	for i, e := range f.eventos {
		out[i] = e.Evento
	}
	return out
}

type fakeLocker struct {
	err      error
	tomados  []string
	liberado int
}

func (f *fakeLocker) Lock(_ context.Context, key string) (func(), error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tomados = append(f.tomados, key)
	return func() { f.liberado++ }, nil
}

// ── Entorno ───────────────────────────────────────────────────────────────────

type entorno struct {
	db       *gorm.DB
	ledger   *testutil.Ledger
	cierres  repository.CierreRepository
	periodos service.PeriodoService
	svc      service.CierreService
	reportes *fakeReportes
	locker   *fakeLocker
	ahora    time.Time
}

// nuevoEntorno wires the workflow over a fresh sqlite database. The clock is
// fixed at 2024-01-01 20:00 UTC.
func nuevoEntorno(t *testing.T, ajustes ...func(*service.CierreConfig)) *entorno {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	e := &entorno{
		db:       db,
		ledger:   testutil.NewLedger(t, db),
		cierres:  repository.NewCierreRepository(db),
		reportes: &fakeReportes{},
		locker:   &fakeLocker{},
		ahora:    time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC),
	}
	reloj := func() time.Time { return e.ahora }
	e.periodos = service.NewPeriodoService(e.cierres, time.UTC, reloj)

	cfg := service.CierreConfig{
		Umbrales:       arqueo.UmbralesPorDefecto(),
		MetodoEfectivo: "efectivo",
		Moneda:         "GTQ",
		ValidarStock:   true,
		Zona:           time.UTC,
		Reloj:          reloj,
	}
	for _, a := range ajustes {
		a(&cfg)
	}

	svc, err := service.NewCierreService(service.CierreDeps{
		Cierres:    e.cierres,
		Inventario: repository.NewInventarioRepository(db),
		Teorico:    service.NewTeoricoService(repository.NewLedgerRepository(db), nil),
		Periodos:   e.periodos,
		Locker:     e.locker,
		Reportes:   e.reportes,
	}, cfg)
	require.NoError(t, err)
	e.svc = svc
	return e
}

// sembrarDia seeds Q1,000.00 of sales on 2024-01-01 (6 cash for Q650.00, 4 card
// for Q350.00) and one Q50.00 cash return: net Q950.00, ten transactions.
func (e *entorno) sembrarDia(usuario uuid.UUID) {
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	var primera *model.Venta
	for i, m := range []string{"100.00", "100.00", "100.00", "100.00", "100.00", "150.00"} {
		v := e.ledger.Venta(usuario, nil, model.VentaCompletada, base.Add(time.Duration(i)*time.Minute), testutil.Pago{Metodo: "efectivo", Monto: m})
		if primera == nil {
			primera = v
		}
	}
	for i, m := range []string{"100.00", "100.00", "100.00", "50.00"} {
		e.ledger.Venta(usuario, nil, model.VentaCompletada, base.Add(time.Hour+time.Duration(i)*time.Minute), testutil.Pago{Metodo: "tarjeta", Monto: m})
	}
	e.ledger.Devolucion(primera, usuario, "efectivo", "50.00", model.VentaCompletada, base.Add(2*time.Hour))
}

func pagos(efectivo, tarjeta string) []arqueo.PagoDeclarado {
	return []arqueo.PagoDeclarado{
		{MetodoPagoID: "efectivo", MontoDeclarado: dec(efectivo)},
		{MetodoPagoID: "tarjeta", MontoDeclarado: dec(tarjeta)},
	}
}

func registro(alcance model.Alcance, p []arqueo.PagoDeclarado) service.RegistroCierre {
	return service.RegistroCierre{Alcance: alcance, Periodo: periodoEnero, Pagos: p}
}
