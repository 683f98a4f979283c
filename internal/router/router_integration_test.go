//go:build integration

package router_test

// router_integration_test.go
// End-to-end tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"cierrecaja/internal/config"
	"cierrecaja/internal/infra"
	"cierrecaja/internal/repository"
	"cierrecaja/internal/router"
	"cierrecaja/internal/testutil"
	"cierrecaja/internal/worker"
	"cierrecaja/migrations"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

type integrationEnv struct {
	*testEnv
	pdfDir string
}

func setupIntegrationEnv(t *testing.T) *integrationEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.Run(ctx, "postgres:15-alpine",
		tcPostgres.WithDatabase("cierrecaja_test"),
		tcPostgres.WithUsername("cierrecaja"),
		tcPostgres.WithPassword("cierrecaja"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	require.NoError(t, migrations.Up(pgURL))

	db, err := infra.NewDatabase(pgURL)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(rdURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		Env:                 "test",
		JWTSecret:           testSecret,
		DatabaseURL:         pgURL,
		RedisURL:            rdURL,
		ScopeLockTTL:        15 * time.Second,
		PDFStoragePath:      t.TempDir(),
		StoreName:           "Tienda Centro",
		StoreTimezone:       "America/Guatemala",
		Currency:            "GTQ",
		CashMethodID:        "efectivo",
		DiffThresholdPct:    "5",
		DiffThresholdAmount: "100",
		StockCheckEnabled:   true,
		LedgerCBFailures:    5,
		LedgerCBOpenTimeout: 30 * time.Second,
		WorkerPoolSize:      1,
	}
	r, err := router.New(cfg, db, rdb)
	require.NoError(t, err)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	zona, err := cfg.Location()
	require.NoError(t, err)
	poolCtx, cancel := context.WithCancel(ctx)
	pool := worker.NewPool(rdb, cfg.WorkerPoolSize)
	pool.Register(worker.QueueCierreReporte, worker.JobCierreReporte, worker.NewCierreReporteWorker(
		repository.NewCierreRepository(db), worker.NewDispatcher(rdb),
		infra.ReporteMeta{Tienda: cfg.StoreName, Simbolo: "Q", Zona: zona}, cfg.PDFStoragePath, ""))
	pool.Start(poolCtx)
	t.Cleanup(func() {
		cancel()
		pool.Wait()
	})

	cajeroID := uuid.New()
	return &integrationEnv{
		testEnv: &testEnv{
			server:     srv,
			ledger:     testutil.NewLedger(t, db),
			cajeroID:   cajeroID,
			cajero:     signToken(t, cajeroID, "Ana López", "cajero"),
			supervisor: signToken(t, uuid.New(), "Sofía Méndez", "supervisor"),
		},
		pdfDir: cfg.PDFStoragePath,
	}
}

func TestIntegration_CierreLifecycle(t *testing.T) {
	env := setupIntegrationEnv(t)
	env.seedDay()

	cierre := env.registrar(t, env.registro("590.00", "350.00", nil))
	assert.True(t, cierre.TotalTeorico.Equal(decimal.NewFromInt(950)), cierre.TotalTeorico.String())
	assert.True(t, cierre.Diferencia.Equal(decimal.NewFromInt(-10)))

	resp := do(t, env.server, "POST", "/v1/cierres/"+cierre.ID+"/aprobar", nil, env.supervisor)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// The report worker renders the PDF asynchronously
	pdfPath := filepath.Join(env.pdfDir, infra.CierrePDFName(cierre.NumeroCierre))
	assert.Eventually(t, func() bool {
		_, err := os.Stat(pdfPath)
		return err == nil
	}, 10*time.Second, 100*time.Millisecond)

	resp = do(t, env.server, "GET", "/health", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestIntegration_ConcurrentSubmissionsKeepOnePending(t *testing.T) {
	env := setupIntegrationEnv(t)
	env.seedDay()

	const n = 8
	bodies := make([][]byte, n)
	for i := range bodies {
		bodies[i] = jsonBody(t, env.registro("600.00", "350.00", nil)).Bytes()
	}

	var wg sync.WaitGroup
	statuses := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req, _ := http.NewRequest("POST", env.server.URL+"/v1/cierres", bytes.NewReader(bodies[i]))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+env.cajero)
			resp, err := env.server.Client().Do(req)
			if err != nil {
				return
			}
			statuses[i] = resp.StatusCode
			resp.Body.Close()
		}(i)
	}
	wg.Wait()

	created := 0
	for _, s := range statuses {
		switch s {
		case http.StatusCreated:
			created++
		default:
			assert.Equal(t, http.StatusConflict, s)
		}
	}
	assert.Equal(t, 1, created)

	resp := do(t, env.server, "GET", "/v1/cierres?estado=pendiente", nil, env.supervisor)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		TotalItems int64 `json:"total_items"`
	}
	decodeJSON(t, resp, &list)
	assert.Equal(t, int64(1), list.TotalItems)
}
