// Package portal registers the client self-service API surface.
package portal

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tigearis/payroll-billing/internal/config"
	"github.com/tigearis/payroll-billing/internal/http/api/portal/handlers"
	"github.com/tigearis/payroll-billing/internal/models"
	"github.com/tigearis/payroll-billing/internal/quotecache"
	"github.com/tigearis/payroll-billing/internal/quotelog"
	"github.com/tigearis/payroll-billing/internal/refresh"
	"github.com/tigearis/payroll-billing/internal/security"
)

// RegisterPortalRoutes registers public and authenticated portal routes.
func RegisterPortalRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, rules *refresh.Manager, cache *quotecache.Cache, quotes *quotelog.Recorder) {
	if r == nil || db == nil {
		return
	}

	portal := r.Group("/v0/portal")

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	portal.POST("/login", authHandler.Login)
	portal.GET("/config", handlers.GetPublicConfig)

	authed := portal.Group("")
	authed.Use(clientAuthMiddleware(db, jwtCfg))

	profileHandler := handlers.NewProfileHandler(db)
	authed.GET("/profile", profileHandler.Get)
	authed.PUT("/profile/password", profileHandler.ChangePassword)

	serviceHandler := handlers.NewServiceHandler(db, rules)
	authed.GET("/services", serviceHandler.List)

	quoteHandler := handlers.NewQuoteHandler(db, rules, cache, quotes)
	authed.POST("/quote", quoteHandler.Calculate)
	authed.POST("/quote/bundle", quoteHandler.CalculateBundle)
}

// clientAuthMiddleware validates client JWTs and loads the client into context.
func clientAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
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

		claims, errJWT := security.ParseClientToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var client models.Client
		if errFind := db.WithContext(c.Request.Context()).Where("client_id = ?", claims.ClientID).First(&client).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "client not found"})
			return
		}
		if client.Disabled {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "client disabled"})
			return
		}

		c.Set("clientID", client.ClientID)
		c.Set("client", client)
		c.Next()
	}
}
