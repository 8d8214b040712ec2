package routes

import (
	"kredit-api/handlers"
	"kredit-api/middleware"

	"github.com/gin-gonic/gin"
)

// Deps carries the handlers and the token verifier the router wires.
type Deps struct {
	Auth         *handlers.AuthHandler
	Applications *handlers.ApplicationHandler
	Public       *handlers.PublicHandler
	Verifier     middleware.TokenVerifier
}

func SetupRoutes(r *gin.Engine, d Deps) {
	r.GET("/", d.Public.Welcome)
	r.GET("/health", d.Public.Health)

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/auth/register", d.Auth.Register)
		public.POST("/auth/login", d.Auth.Login)

		// Status pipeline and transition table
		public.GET("/workflow", d.Public.GetWorkflowInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(middleware.AuthRequired(d.Verifier))
	{
		auth.GET("/profile", d.Auth.GetProfile)

		auth.POST("/applications", d.Applications.Create)
		auth.GET("/applications", d.Applications.List)
		auth.GET("/applications/:id", d.Applications.Get)
		auth.PUT("/applications/:id/status", d.Applications.UpdateStatus)

		auth.GET("/stats", d.Applications.Stats)
	}

	r.NoRoute(handlers.NotFound)
}

// NewRouter builds the engine with the global middleware and every route.
func NewRouter(d Deps, corsOrigins string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(corsOrigins))
	SetupRoutes(r, d)
	return r
}
