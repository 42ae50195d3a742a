// Package server assembles the services, handlers and middleware into the
// HTTP API.
package server

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/dvsilva/tech-challenge-2/internal/config"
	_ "github.com/dvsilva/tech-challenge-2/internal/docs" // swagger document
	"github.com/dvsilva/tech-challenge-2/internal/events"
	"github.com/dvsilva/tech-challenge-2/internal/handlers"
	"github.com/dvsilva/tech-challenge-2/internal/middleware"
	"github.com/dvsilva/tech-challenge-2/internal/services"
)

// Services is everything the HTTP layer calls into.
type Services struct {
	Users        services.UserServicer
	Accounts     services.AccountServicer
	Cards        services.CardServicer
	Transactions services.TransactionServicer
	Investments  services.InvestmentServicer
	Audit        services.AuditServicer
	Seed         services.SeedServicer
}

// NewServices wires the GORM-backed services around one connection pool.
// Ledger events go to publisher on topic.
func NewServices(db *gorm.DB, publisher events.Publisher, topic string) *Services {
	ledgerEvents := services.NewLedgerEvents(publisher, topic)
	accountService := services.NewAccountService(db)
	return &Services{
		Users:        services.NewUserService(db),
		Accounts:     accountService,
		Cards:        services.NewCardService(db),
		Transactions: services.NewTransactionService(db, ledgerEvents),
		Investments:  services.NewInvestmentService(db, accountService, ledgerEvents),
		Audit:        services.NewAuditService(db),
		Seed:         services.NewSeedService(db),
	}
}

// NewRouter builds the gin engine serving /api/v1, the health check and the
// swagger UI.
func NewRouter(cfg *config.Config, svc *Services) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.Users, svc.Accounts, svc.Audit, cfg.JWTSecret, cfg.JWTExpirationDur)
	userHandler := handlers.NewUserHandler(svc.Users, svc.Audit)
	accountHandler := handlers.NewAccountHandler(svc.Accounts)
	cardHandler := handlers.NewCardHandler(svc.Cards, svc.Audit)
	transactionHandler := handlers.NewTransactionHandler(svc.Transactions, svc.Audit)
	investmentHandler := handlers.NewInvestmentHandler(svc.Investments, svc.Audit)
	adminHandler := handlers.NewAdminHandler(svc.Seed)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(corsMiddleware(cfg.CORSOrigins))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	database := v1.Group("/database")
	database.Use(middleware.AdminAuthMiddleware(cfg.AdminAPIKey))
	database.POST("/initialize", adminHandler.Initialize)
	database.GET("/stats", adminHandler.Stats)
	database.DELETE("/clear", adminHandler.Clear)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	protected.GET("/account", accountHandler.GetAccount)
	protected.GET("/accounts/:accountId/statement", transactionHandler.GetStatement)

	users := protected.Group("/users/me")
	users.GET("", userHandler.GetProfile)
	users.PUT("", userHandler.UpdateProfile)
	users.DELETE("", userHandler.DeleteProfile)
	users.PUT("/password", userHandler.ChangePassword)
	users.GET("/settings", userHandler.GetSettings)
	users.PUT("/settings", userHandler.UpdateSettings)

	cards := protected.Group("/cards")
	cards.POST("", cardHandler.CreateCard)
	cards.GET("", cardHandler.GetCards)
	cards.GET("/:id", cardHandler.GetCard)
	cards.PUT("/:id", cardHandler.UpdateCard)
	cards.DELETE("/:id", cardHandler.DeleteCard)
	cards.PATCH("/:id/toggle-block", cardHandler.ToggleBlock)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	investments := protected.Group("/investments")
	investments.POST("", investmentHandler.CreateInvestment)
	investments.GET("", investmentHandler.GetInvestments)
	investments.GET("/types", investmentHandler.GetInvestmentTypes)
	investments.POST("/transfer", investmentHandler.TransferToInvestment)
	investments.POST("/redeem", investmentHandler.RedeemInvestment)
	investments.GET("/:id", investmentHandler.GetInvestment)
	investments.PUT("/:id", investmentHandler.UpdateInvestment)
	investments.DELETE("/:id", investmentHandler.DeleteInvestment)

	return router
}

// corsMiddleware allows the configured origins. A "*" entry allows any origin.
func corsMiddleware(origins []string) gin.HandlerFunc {
	allowAll := slices.Contains(origins, "*")
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(origins, origin):
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Add("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", strings.Join([]string{
			"Content-Type", "Authorization", "X-API-Key", "X-Request-ID",
		}, ", "))

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
