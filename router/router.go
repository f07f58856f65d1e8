package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/tablehub/controllers"
	"github.com/yeremiapane/tablehub/middlewares"
	"github.com/yeremiapane/tablehub/models"
	"github.com/yeremiapane/tablehub/realtime"
	"github.com/yeremiapane/tablehub/repository"
	"github.com/yeremiapane/tablehub/services"
	"github.com/yeremiapane/tablehub/utils"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Registry *services.TableRegistry
	Queue    *services.MoveQueue
	Sessions *services.SessionService
	Auth     *services.AuthService
	Audit    repository.AuditRepository
	Hub      *realtime.Hub
	Tokens   *utils.TokenIssuer
	Log      logrus.FieldLogger

	CORSOrigins []string
	// Limiter guards every route; LoginLimiter additionally guards /login.
	Limiter      *middlewares.RateLimiter
	LoginLimiter *middlewares.RateLimiter
}

func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(deps.CORSOrigins))
	r.Use(middlewares.LoggerMiddleware(deps.Log))
	if deps.Limiter != nil {
		r.Use(deps.Limiter.RateLimit())
	}

	tableCtrl := controllers.NewTableController(deps.Registry)
	moveCtrl := controllers.NewMoveController(deps.Queue)
	sessionCtrl := controllers.NewSessionController(deps.Sessions)
	authCtrl := controllers.NewAuthController(deps.Auth)
	auditCtrl := controllers.NewAuditController(deps.Audit)
	realtimeCtrl := controllers.NewRealtimeController(deps.Hub, deps.CORSOrigins, deps.Log)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	public := r.Group("/")
	if deps.LoginLimiter != nil {
		public.Use(deps.LoginLimiter.RateLimit())
	}
	{
		public.POST("/login", authCtrl.Login)
	}

	r.GET("/ws", middlewares.WebSocketAuthMiddleware(deps.Tokens), realtimeCtrl.Handle)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware(deps.Tokens))
	auth.Use(middlewares.RequireRole(models.RoleAdmin, models.RoleStaff))

	// TABLES
	auth.GET("/tables", tableCtrl.GetAllTables)
	auth.GET("/tables/:id", tableCtrl.GetTable)
	auth.POST("/tables/:id/start", tableCtrl.StartTable)
	auth.POST("/tables/:id/stop", tableCtrl.StopTable)
	auth.POST("/tables/:id/pause", tableCtrl.PauseTable)
	auth.POST("/tables/:id/resume", tableCtrl.ResumeTable)
	auth.POST("/tables/:id/cleaning", tableCtrl.EnterCleaning)
	auth.POST("/tables/:id/light", tableCtrl.SetLight)
	auth.POST("/tables/:id/settle", tableCtrl.SettleTable)
	auth.POST("/tables/:id/charges", tableCtrl.AddCharge)

	// SESSIONS & ITEMS
	auth.GET("/tables/:id/session", sessionCtrl.GetTableSession)
	auth.POST("/tables/:id/items", sessionCtrl.AddItem)
	auth.GET("/sessions/:id/items", sessionCtrl.GetSessionItems)

	// MOVES
	auth.POST("/moves", moveCtrl.RequestMove)
	auth.GET("/moves", moveCtrl.ListMoves)
	auth.GET("/moves/:id", moveCtrl.GetMove)

	// ----------------------------------------------------------------
	//                      ADMIN ROUTES
	// ----------------------------------------------------------------
	admin := r.Group("/admin")
	admin.Use(middlewares.AuthMiddleware(deps.Tokens))
	admin.Use(middlewares.RequireRole(models.RoleAdmin))
	{
		admin.POST("/tables", tableCtrl.CreateTable)
		admin.POST("/employees", authCtrl.CreateEmployee)
		admin.GET("/audit", auditCtrl.ListAudit)
	}

	return r
}
