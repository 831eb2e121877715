package router

import (
	"time"

	"github.com/Disi3664/sistema-multas/internal/config"
	"github.com/Disi3664/sistema-multas/internal/handler"
	"github.com/Disi3664/sistema-multas/internal/infra"
	"github.com/Disi3664/sistema-multas/internal/middleware"
	"github.com/Disi3664/sistema-multas/internal/repository"
	"github.com/Disi3664/sistema-multas/internal/service"
	"github.com/Disi3664/sistema-multas/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the long-lived pieces built in main and shared with the worker pool.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	RDB    *redis.Client
	Cache  *infra.Cache
	CB     *infra.CircuitBreaker
}

// New wires all dependencies and returns the configured Gin engine plus the
// worker handlers for the pool started in main.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(d Deps) (*gin.Engine, worker.Handlers) {
	cfg := d.Config
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	microservicio := infra.NewMicroservicioClient()

	// ── Repositories ─────────────────────────────────────────────────────────
	empresaRepo := repository.NewEmpresaRepository(d.DB)
	vehiculoRepo := repository.NewVehiculoRepository(d.DB)
	multaRepo := repository.NewMultaRepository(d.DB)
	facturaRepo := repository.NewFacturaRepository(d.DB)

	// ── Services ─────────────────────────────────────────────────────────────
	cacheTTL := time.Duration(cfg.ConductorCacheTTLSeconds) * time.Second
	conductorSvc := service.NewConductorService(empresaRepo, microservicio, d.Cache, cacheTTL)
	empresaSvc := service.NewEmpresaService(empresaRepo, vehiculoRepo, conductorSvc, d.Cache)
	facturaSvc := service.NewFacturaService(facturaRepo, multaRepo)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(d.RDB)
	multaSvc := service.NewMultaService(multaRepo, empresaRepo, dispatcher)

	workerHandlers := worker.Handlers{
		Identificacion: worker.NewIdentificacionWorker(multaRepo, conductorSvc, d.CB, d.RDB),
	}

	// ── Handlers ─────────────────────────────────────────────────────────────
	multasH := handler.NewMultasHandler(multaSvc)
	empresasH := handler.NewEmpresasHandler(empresaSvc)
	facturasH := handler.NewFacturasHandler(facturaSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(d.DB, d.RDB, d.CB))

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Multas — gestores operate the day-to-day pipeline
		multas := v1.Group("/multas", middleware.RequireRole(middleware.RolGestor, middleware.RolAdmin))
		{
			multas.POST("", multasH.Crear)
			multas.GET("", multasH.Listar)
			multas.GET("/stats/general", multasH.Estadisticas)
			multas.GET("/:id", multasH.ObtenerPorID)
			multas.PUT("/:id/estado", multasH.ActualizarEstado)
			multas.POST("/:id/comunicar", multasH.ComunicarOrganismo)
		}

		// Empresas — reads for all authenticated roles, writes admin-only
		v1.GET("/empresas", middleware.RequireRole(middleware.RolGestor, middleware.RolAdmin), empresasH.Listar)
		v1.GET("/empresas/:id", middleware.RequireRole(middleware.RolGestor, middleware.RolAdmin), empresasH.ObtenerPorID)
		v1.GET("/empresas/:id/vehiculos", middleware.RequireRole(middleware.RolGestor, middleware.RolAdmin), empresasH.ListarVehiculos)
		empresas := v1.Group("/empresas", middleware.RequireRole(middleware.RolAdmin))
		{
			empresas.POST("", empresasH.Crear)
			empresas.PUT("/:id", empresasH.Actualizar)
			empresas.POST("/:id/vehiculos", empresasH.CrearVehiculo)
			empresas.POST("/:id/verificar-conexion", empresasH.VerificarConexion)
		}

		// Facturas — billing is admin territory
		facturas := v1.Group("/facturas", middleware.RequireRole(middleware.RolAdmin))
		{
			facturas.GET("", facturasH.Listar)
			facturas.GET("/:id", facturasH.ObtenerPorID)
			facturas.POST("/generar", facturasH.Generar)
			facturas.PUT("/:id/estado", facturasH.ActualizarEstado)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r, workerHandlers
}
