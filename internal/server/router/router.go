package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/server/handlers"
	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/server/middleware"
)

// New wires the Gin engine with required routes and middlewares.
func New(invoices *handlers.InvoiceHandler, admin *handlers.AdminHandler, auth middleware.Authenticator, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api", middleware.RequireAuth(auth, logger))
	{
		api.POST("/invoices", invoices.CreateOrGet)
		api.GET("/invoices", invoices.List)
		api.POST("/invoices/:invoiceId/items", invoices.AddItem)
		api.DELETE("/invoices/:invoiceId/items/:itemId", invoices.RemoveItem)
		api.POST("/invoices/:invoiceId/complete", invoices.Complete)
		api.GET("/invoices/:invoiceId/pdf", invoices.PDF)

		adminAPI := api.Group("/admin", middleware.RequireAdmin())
		{
			adminAPI.GET("/invoices", admin.ListAll)
			adminAPI.GET("/invoices/pending", admin.ListPending)
			adminAPI.POST("/invoices/:invoiceId/verify", admin.Verify)
		}
	}

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
