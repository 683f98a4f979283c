package router

import (
	"time"

	"cierrecaja/internal/config"
	"cierrecaja/internal/handler"
	"cierrecaja/internal/infra"
	"cierrecaja/internal/middleware"
	"cierrecaja/internal/repository"
	"cierrecaja/internal/service"
	"cierrecaja/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	umbrales, err := cfg.Umbrales()
	if err != nil {
		return nil, err
	}
	zona, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.Origins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	ledgerCB := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		FailureThreshold: cfg.LedgerCBFailures,
		OpenTimeout:      cfg.LedgerCBOpenTimeout,
	})
	locker := infra.NewRedisLocker(rdb, cfg.ScopeLockTTL)
	dispatcher := worker.NewDispatcher(rdb)

	// ── Repositories ─────────────────────────────────────────────────────────
	cierreRepo := repository.NewCierreRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	inventarioRepo := repository.NewInventarioRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	teoricoSvc := service.NewTeoricoService(ledgerRepo, ledgerCB)
	periodoSvc := service.NewPeriodoService(cierreRepo, zona, nil)
	cierreSvc, err := service.NewCierreService(service.CierreDeps{
		Cierres:    cierreRepo,
		Inventario: inventarioRepo,
		Teorico:    teoricoSvc,
		Periodos:   periodoSvc,
		Locker:     locker,
		Reportes:   dispatcher,
	}, service.CierreConfig{
		Umbrales:       umbrales,
		MetodoEfectivo: cfg.CashMethodID,
		Moneda:         cfg.Currency,
		ValidarStock:   cfg.StockCheckEnabled,
		Zona:           zona,
	})
	if err != nil {
		return nil, err
	}

	// ── Handlers ─────────────────────────────────────────────────────────────
	cierresH := handler.NewCierresHandler(cierreSvc, periodoSvc, infra.ReporteMeta{
		Tienda:  cfg.StoreName,
		Simbolo: cierreSvc.Catalogo().Simbolo,
		Zona:    zona,
	})

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, teoricoSvc))

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	todos := middleware.RequireRole("cajero", "supervisor", "administrador")
	revisores := middleware.RequireRole("supervisor", "administrador")

	cierres := r.Group("/v1/cierres", jwtMW)
	{
		cierres.GET("/denominaciones", todos, cierresH.Denominaciones)
		cierres.GET("/periodo-sugerido", todos, cierresH.PeriodoSugerido)
		cierres.GET("/teorico", todos, cierresH.Teorico)
		cierres.GET("/validar-stock", todos, cierresH.ValidarStock)
		cierres.POST("/preparar", todos, cierresH.Preparar)
		cierres.POST("/calcular", todos, cierresH.Calcular)

		// Scope ownership for cajeros is enforced by the service, reads included
		cierres.POST("", todos, cierresH.Registrar)
		cierres.GET("", todos, cierresH.Listar)
		cierres.GET("/:id", todos, cierresH.Obtener)
		cierres.GET("/:id/pdf", todos, cierresH.DescargarPDF)

		cierres.POST("/:id/aprobar", revisores, cierresH.Aprobar)
		cierres.POST("/:id/rechazar", revisores, cierresH.Rechazar)
	}

	// Swagger UI, only outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r, nil
}
