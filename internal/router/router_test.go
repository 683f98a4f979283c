package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cierrecaja/internal/config"
	"cierrecaja/internal/middleware"
	"cierrecaja/internal/model"
	"cierrecaja/internal/router"
	"cierrecaja/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = body
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func signToken(t *testing.T, id uuid.UUID, nombre, rol string) string {
	t.Helper()
	tok, err := middleware.SignToken(testSecret, middleware.JWTClaims{
		UserID: id.String(),
		Nombre: nombre,
		Rol:    rol,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	require.NoError(t, err)
	return tok
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server     *httptest.Server
	ledger     *testutil.Ledger
	redis      *miniredis.Miniredis
	cajeroID   uuid.UUID
	cajero     string // cajero JWT
	supervisor string // supervisor JWT
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewSQLiteDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		Env:                 "test",
		JWTSecret:           testSecret,
		ScopeLockTTL:        15 * time.Second,
		StoreName:           "Tienda Centro",
		StoreTimezone:       "UTC",
		Currency:            "GTQ",
		CashMethodID:        "efectivo",
		DiffThresholdPct:    "5",
		DiffThresholdAmount: "100",
		StockCheckEnabled:   true,
		LedgerCBFailures:    5,
		LedgerCBOpenTimeout: 30 * time.Second,
	}
	r, err := router.New(cfg, db, rdb)
	require.NoError(t, err)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	cajeroID := uuid.New()
	return &testEnv{
		server:     srv,
		ledger:     testutil.NewLedger(t, db),
		redis:      mr,
		cajeroID:   cajeroID,
		cajero:     signToken(t, cajeroID, "Ana López", "cajero"),
		supervisor: signToken(t, uuid.New(), "Sofía Méndez", "supervisor"),
	}
}

// seedDay records Q1,000.00 of sales on 2024-01-01 (Q650.00 cash, Q350.00 card)
// and a Q50.00 cash return by the cajero.
func (e *testEnv) seedDay() {
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	primera := e.ledger.Venta(e.cajeroID, nil, model.VentaCompletada, base, testutil.Pago{Metodo: "efectivo", Monto: "650.00"})
	e.ledger.Venta(e.cajeroID, nil, model.VentaCompletada, base.Add(time.Hour), testutil.Pago{Metodo: "tarjeta", Monto: "350.00"})
	e.ledger.Devolucion(primera, e.cajeroID, "efectivo", "50.00", model.VentaCompletada, base.Add(2*time.Hour))
}

func (e *testEnv) registro(efectivo, tarjeta string, extra map[string]any) map[string]any {
	body := map[string]any{
		"alcance":      map[string]any{"tipo": "cajero", "cajero_id": e.cajeroID},
		"fecha_inicio": "2024-01-01T00:00:00Z",
		"fecha_fin":    "2024-01-02T00:00:00Z",
		"pagos": []map[string]any{
			{"metodo_pago_id": "efectivo", "monto_declarado": efectivo},
			{"metodo_pago_id": "tarjeta", "monto_declarado": tarjeta},
		},
	}
	for k, v := range extra {
		body[k] = v
	}
	return body
}

type cierreBody struct {
	ID                      string          `json:"id"`
	NumeroCierre            int64           `json:"numero_cierre"`
	Estado                  string          `json:"estado"`
	TotalTeorico            decimal.Decimal `json:"total_teorico"`
	TotalDeclarado          decimal.Decimal `json:"total_declarado"`
	Diferencia              decimal.Decimal `json:"diferencia"`
	DiferenciaSignificativa bool            `json:"diferencia_significativa"`
	CajeroNombre            string          `json:"cajero_nombre"`
	SupervisorNombre        *string         `json:"supervisor_nombre"`
	MotivoRechazo           *string         `json:"motivo_rechazo"`
	FechaFin                time.Time       `json:"fecha_fin"`
	Pagos                   []struct {
		MetodoPagoID string          `json:"metodo_pago_id"`
		Diferencia   decimal.Decimal `json:"diferencia"`
	} `json:"pagos"`
}

type errorBody struct {
	Detail    string          `json:"detail"`
	Code      string          `json:"code"`
	Resultado json.RawMessage `json:"resultado"`
}

func (e *testEnv) registrar(t *testing.T, body map[string]any) cierreBody {
	t.Helper()
	resp := do(t, e.server, "POST", "/v1/cierres", jsonBody(t, body), e.cajero)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var c cierreBody
	decodeJSON(t, resp, &c)
	return c
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	env := setupTestEnv(t)

	resp := do(t, env.server, "GET", "/health", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	decodeJSON(t, resp, &body)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "connected", body["redis"])
	assert.Equal(t, "closed", body["ledger"])
	assert.Equal(t, map[string]any{"jobs:cierre_reporte": float64(0), "jobs:email": float64(0)}, body["dlq"])

	env.redis.Close()
	resp = do(t, env.server, "GET", "/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()
}

func TestCierresRequireAuthentication(t *testing.T) {
	env := setupTestEnv(t)

	resp := do(t, env.server, "GET", "/v1/cierres", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, "GET", "/v1/cierres", nil, signToken(t, uuid.New(), "Intruso", "invitado"))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	forged, err := middleware.SignToken("otra-clave", middleware.JWTClaims{UserID: uuid.NewString(), Rol: "supervisor"})
	require.NoError(t, err)
	resp = do(t, env.server, "GET", "/v1/cierres", nil, forged)
	var e errorBody
	decodeJSON(t, resp, &e)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "token_invalido", e.Code)
}

func TestTeoricoAndCatalog(t *testing.T) {
	env := setupTestEnv(t)
	env.seedDay()

	path := fmt.Sprintf("/v1/cierres/teorico?alcance=cajero&cajero_id=%s&fecha_inicio=2024-01-01&fecha_fin=2024-01-01", env.cajeroID)
	resp := do(t, env.server, "GET", path, nil, env.cajero)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var teorico struct {
		TotalNeto          decimal.Decimal `json:"total_neto"`
		TotalTransacciones int64           `json:"total_transacciones"`
		Desglose           []struct {
			MetodoPagoID string          `json:"metodo_pago_id"`
			MontoTeorico decimal.Decimal `json:"monto_teorico"`
		} `json:"desglose"`
	}
	decodeJSON(t, resp, &teorico)
	assert.True(t, teorico.TotalNeto.Equal(decimal.NewFromInt(950)), teorico.TotalNeto.String())
	assert.Equal(t, int64(2), teorico.TotalTransacciones)
	require.Len(t, teorico.Desglose, 2)
	assert.Equal(t, "efectivo", teorico.Desglose[0].MetodoPagoID)
	assert.True(t, teorico.Desglose[0].MontoTeorico.Equal(decimal.NewFromInt(600)))

	resp = do(t, env.server, "GET", "/v1/cierres/teorico?fecha_inicio=2024-01-02&fecha_fin=2024-01-01", nil, env.supervisor)
	var e errorBody
	decodeJSON(t, resp, &e)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "periodo_invalido", e.Code)

	// store-wide totals are for reviewers
	resp = do(t, env.server, "GET", "/v1/cierres/teorico?alcance=tienda&fecha_inicio=2024-01-01&fecha_fin=2024-01-01", nil, env.cajero)
	decodeJSON(t, resp, &e)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "permiso_denegado", e.Code)

	resp = do(t, env.server, "GET", "/v1/cierres/denominaciones", nil, env.cajero)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var catalogo struct {
		Moneda         string `json:"moneda"`
		Simbolo        string `json:"simbolo"`
		Denominaciones []any  `json:"denominaciones"`
	}
	decodeJSON(t, resp, &catalogo)
	assert.Equal(t, "GTQ", catalogo.Moneda)
	assert.Equal(t, "Q", catalogo.Simbolo)
	assert.NotEmpty(t, catalogo.Denominaciones)
}

func TestCierreLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	env.seedDay()

	// 1. Cajero submits a minor shortfall
	cierre := env.registrar(t, env.registro("590.00", "350.00", nil))
	assert.Equal(t, int64(1), cierre.NumeroCierre)
	assert.Equal(t, "pendiente", cierre.Estado)
	assert.Equal(t, "Ana López", cierre.CajeroNombre)
	assert.True(t, cierre.Diferencia.Equal(decimal.NewFromInt(-10)), cierre.Diferencia.String())
	assert.False(t, cierre.DiferenciaSignificativa)
	require.Len(t, cierre.Pagos, 2)

	// 2. A second submission for the same scope is rejected
	resp := do(t, env.server, "POST", "/v1/cierres", jsonBody(t, env.registro("600.00", "350.00", nil)), env.cajero)
	var e errorBody
	decodeJSON(t, resp, &e)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "cierre_pendiente", e.Code)

	// 3. A cajero cannot review
	resp = do(t, env.server, "POST", "/v1/cierres/"+cierre.ID+"/aprobar", nil, env.cajero)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// 4. Supervisor lists and approves
	resp = do(t, env.server, "GET", "/v1/cierres?estado=pendiente", nil, env.supervisor)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Data       []cierreBody `json:"data"`
		TotalItems int64        `json:"total_items"`
	}
	decodeJSON(t, resp, &list)
	assert.Equal(t, int64(1), list.TotalItems)

	resp = do(t, env.server, "POST", "/v1/cierres/"+cierre.ID+"/aprobar", nil, env.supervisor)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var aprobado cierreBody
	decodeJSON(t, resp, &aprobado)
	assert.Equal(t, "aprobado", aprobado.Estado)
	require.NotNil(t, aprobado.SupervisorNombre)
	assert.Equal(t, "Sofía Méndez", *aprobado.SupervisorNombre)

	// 5. Approving twice is an invalid transition
	resp = do(t, env.server, "POST", "/v1/cierres/"+cierre.ID+"/aprobar", nil, env.supervisor)
	decodeJSON(t, resp, &e)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "transicion_invalida", e.Code)

	// 6. The next period starts where the approved one ended
	resp = do(t, env.server, "GET", "/v1/cierres/periodo-sugerido?alcance=cajero&cajero_id="+env.cajeroID.String(), nil, env.cajero)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var periodo struct {
		FechaInicio time.Time `json:"fecha_inicio"`
	}
	decodeJSON(t, resp, &periodo)
	assert.True(t, periodo.FechaInicio.Equal(aprobado.FechaFin))

	// 7. The report downloads as PDF
	resp = do(t, env.server, "GET", "/v1/cierres/"+cierre.ID+"/pdf", nil, env.supervisor)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "cierre_1.pdf")
	pdf, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func TestRegistrarSignificantDifferenceNeedsConfirmation(t *testing.T) {
	env := setupTestEnv(t)
	env.seedDay()

	resp := do(t, env.server, "POST", "/v1/cierres", jsonBody(t, env.registro("450.00", "350.00", nil)), env.cajero)
	var e errorBody
	decodeJSON(t, resp, &e)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "confirmacion_requerida", e.Code)
	var resultado struct {
		Diferencia    decimal.Decimal `json:"diferencia"`
		Significativa bool            `json:"significativa"`
	}
	require.NoError(t, json.Unmarshal(e.Resultado, &resultado))
	assert.True(t, resultado.Significativa)
	assert.True(t, resultado.Diferencia.Equal(decimal.NewFromInt(-150)))

	cierre := env.registrar(t, env.registro("450.00", "350.00", map[string]any{"confirmar_diferencia": true}))
	assert.True(t, cierre.DiferenciaSignificativa)
	assert.Equal(t, int64(1), cierre.NumeroCierre)
}

func TestRegistrarRejectsForgedTeorico(t *testing.T) {
	env := setupTestEnv(t)
	env.seedDay()

	forged := map[string]any{
		"periodo":             map[string]any{"inicio": "2024-01-01T00:00:00Z", "fin": "2024-01-02T00:00:00Z"},
		"total_ventas":        "100.00",
		"total_devoluciones":  "0.00",
		"total_neto":          "100.00",
		"total_transacciones": 1,
		"desglose":            []map[string]any{{"metodo_pago_id": "efectivo", "monto_teorico": "100.00", "cantidad_teorica": 1}},
	}
	resp := do(t, env.server, "POST", "/v1/cierres", jsonBody(t, env.registro("100.00", "0.00", map[string]any{"teorico": forged})), env.cajero)
	var e errorBody
	decodeJSON(t, resp, &e)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "teorico_desactualizado", e.Code)

	resp = do(t, env.server, "GET", "/v1/cierres?estado=pendiente", nil, env.supervisor)
	var list struct {
		TotalItems int64 `json:"total_items"`
	}
	decodeJSON(t, resp, &list)
	assert.Equal(t, int64(0), list.TotalItems)
}

func TestRegistrarWithDenominationCount(t *testing.T) {
	env := setupTestEnv(t)
	env.seedDay()

	cierre := env.registrar(t, env.registro("0", "350.00", map[string]any{
		"denominaciones": []map[string]any{
			{"valor": "200", "tipo": "billete", "cantidad": 2},
			{"valor": "100", "tipo": "billete", "cantidad": 2},
		},
	}))
	assert.True(t, cierre.TotalDeclarado.Equal(decimal.NewFromInt(950)), cierre.TotalDeclarado.String())
	assert.True(t, cierre.Diferencia.IsZero())

	resp := do(t, env.server, "POST", "/v1/cierres/calcular", jsonBody(t, map[string]any{
		"pagos":          []map[string]any{{"metodo_pago_id": "efectivo", "monto_declarado": "0"}},
		"denominaciones": []map[string]any{{"valor": "200", "tipo": "billete", "cantidad": 2.5}},
	}), env.cajero)
	var e errorBody
	decodeJSON(t, resp, &e)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "cantidad_invalida", e.Code)
}

func TestRegistrarValidation(t *testing.T) {
	env := setupTestEnv(t)
	env.seedDay()

	cases := []struct {
		name   string
		token  string
		body   map[string]any
		status int
		code   string
	}{
		{
			name:   "no payment methods",
			token:  env.cajero,
			body:   env.registro("0", "0", map[string]any{"pagos": []any{}}),
			status: http.StatusUnprocessableEntity,
			code:   "sin_metodos_pago",
		},
		{
			name:   "negative amount",
			token:  env.cajero,
			body:   env.registro("-1", "0", nil),
			status: http.StatusUnprocessableEntity,
			code:   "validacion",
		},
		{
			name:   "end before start",
			token:  env.cajero,
			body:   env.registro("600", "350", map[string]any{"fecha_fin": "2023-12-31T00:00:00Z"}),
			status: http.StatusBadRequest,
			code:   "periodo_invalido",
		},
		{
			name:   "cajero submitting the store scope",
			token:  env.cajero,
			body:   env.registro("600", "350", map[string]any{"alcance": map[string]any{"tipo": "tienda"}}),
			status: http.StatusForbidden,
			code:   "permiso_denegado",
		},
		{
			name:   "cashier scope without cashier",
			token:  env.supervisor,
			body:   env.registro("600", "350", map[string]any{"alcance": map[string]any{"tipo": "cajero"}}),
			status: http.StatusBadRequest,
			code:   "alcance_invalido",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := do(t, env.server, "POST", "/v1/cierres", jsonBody(t, tc.body), tc.token)
			var e errorBody
			decodeJSON(t, resp, &e)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.code, e.Code)
		})
	}
}

func TestRechazarRequiresMotivo(t *testing.T) {
	env := setupTestEnv(t)
	env.seedDay()
	cierre := env.registrar(t, env.registro("600.00", "350.00", nil))

	resp := do(t, env.server, "POST", "/v1/cierres/"+cierre.ID+"/rechazar", jsonBody(t, map[string]any{"motivo": "   "}), env.supervisor)
	var e errorBody
	decodeJSON(t, resp, &e)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "motivo_requerido", e.Code)

	resp = do(t, env.server, "POST", "/v1/cierres/"+cierre.ID+"/rechazar", jsonBody(t, map[string]any{"motivo": "Falta el voucher de tarjeta"}), env.supervisor)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rechazado cierreBody
	decodeJSON(t, resp, &rechazado)
	assert.Equal(t, "rechazado", rechazado.Estado)
	require.NotNil(t, rechazado.MotivoRechazo)
	assert.Equal(t, "Falta el voucher de tarjeta", *rechazado.MotivoRechazo)

	// The scope is free again
	again := env.registrar(t, env.registro("600.00", "350.00", nil))
	assert.Equal(t, int64(2), again.NumeroCierre)
}

func TestObtenerUnknownCierre(t *testing.T) {
	env := setupTestEnv(t)

	resp := do(t, env.server, "GET", "/v1/cierres/"+uuid.NewString(), nil, env.supervisor)
	var e errorBody
	decodeJSON(t, resp, &e)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "cierre_no_encontrado", e.Code)

	resp = do(t, env.server, "GET", "/v1/cierres/no-es-uuid", nil, env.supervisor)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}
