// Package admin registers the administrative API surface.
package admin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tigearis/payroll-billing/internal/config"
	"github.com/tigearis/payroll-billing/internal/http/api/admin/handlers"
	"github.com/tigearis/payroll-billing/internal/quotelog"
	"github.com/tigearis/payroll-billing/internal/refresh"
	"github.com/tigearis/payroll-billing/internal/security"
)

// RegisterAdminRoutes wires the /v0/admin route group.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, rules *refresh.Manager, quotes *quotelog.Recorder) {
	if r == nil || db == nil {
		return
	}

	group := r.Group("/v0/admin")

	healthHandler := handlers.NewHealthHandler(db)
	group.GET("/healthz", healthHandler.Healthz)
	group.GET("/version", handlers.NewVersionHandler().GetVersion)

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	group.POST("/login", authHandler.Login)

	authed := group.Group("")
	authed.Use(adminAuthMiddleware(jwtCfg))
	authed.GET("/me", authHandler.Me)
	authed.PUT("/me/password", authHandler.ChangePassword)

	guarded := authed.Group("")
	guarded.Use(adminPermissionMiddleware(db))

	ruleHandler := handlers.NewPricingRuleHandler(db, rules)
	guarded.GET("/pricing-rules", ruleHandler.List)
	guarded.GET("/pricing-rules/:id", ruleHandler.Get)
	guarded.POST("/pricing-rules", ruleHandler.Create)
	guarded.PUT("/pricing-rules/:id", ruleHandler.Update)
	guarded.DELETE("/pricing-rules/:id", ruleHandler.Delete)
	guarded.PUT("/pricing-rules/:id/enabled", ruleHandler.SetEnabled)

	serviceHandler := handlers.NewServiceHandler(db)
	guarded.GET("/services", serviceHandler.List)
	guarded.GET("/services/:id", serviceHandler.Get)
	guarded.POST("/services", serviceHandler.Create)
	guarded.PUT("/services/:id", serviceHandler.Update)
	guarded.DELETE("/services/:id", serviceHandler.Delete)

	clientHandler := handlers.NewClientHandler(db)
	guarded.GET("/clients", clientHandler.List)
	guarded.GET("/clients/:id", clientHandler.Get)
	guarded.POST("/clients", clientHandler.Create)
	guarded.PUT("/clients/:id", clientHandler.Update)
	guarded.DELETE("/clients/:id", clientHandler.Delete)

	quoteHandler := handlers.NewQuoteHandler(db, rules, quotes)
	guarded.POST("/quotes", quoteHandler.Calculate)
	guarded.POST("/quotes/bundle", quoteHandler.CalculateBundle)
	guarded.GET("/recommendations", quoteHandler.Recommendations)

	quoteLogHandler := handlers.NewQuoteLogHandler(db)
	guarded.GET("/quote-logs", quoteLogHandler.List)

	settingsHandler := handlers.NewSettingsHandler(db)
	guarded.GET("/settings", settingsHandler.List)
	guarded.PUT("/settings", settingsHandler.Update)

	adminHandler := handlers.NewAdminHandler(db)
	guarded.GET("/admins", adminHandler.List)
	guarded.GET("/admins/:id", adminHandler.Get)
	guarded.POST("/admins", adminHandler.Create)
	guarded.PUT("/admins/:id", adminHandler.Update)
	guarded.DELETE("/admins/:id", adminHandler.Delete)
	guarded.PUT("/admins/:id/active", adminHandler.SetActive)
	guarded.PUT("/admins/:id/password", adminHandler.SetPassword)
	guarded.GET("/permissions", handlers.NewPermissionHandler().List)
}

// adminAuthMiddleware validates admin JWTs and loads the admin into context.
func adminAuthMiddleware(jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseAdminToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("adminID", claims.AdminID)
		c.Set("adminUsername", claims.Username)
		c.Next()
	}
}
