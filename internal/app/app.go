// Package app wires configuration, storage and the HTTP surface together.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tigearis/payroll-billing/internal/config"
	"github.com/tigearis/payroll-billing/internal/db"
	adminapi "github.com/tigearis/payroll-billing/internal/http/api/admin"
	portalapi "github.com/tigearis/payroll-billing/internal/http/api/portal"
	"github.com/tigearis/payroll-billing/internal/logging"
	"github.com/tigearis/payroll-billing/internal/models"
	"github.com/tigearis/payroll-billing/internal/quotecache"
	"github.com/tigearis/payroll-billing/internal/quotelog"
	"github.com/tigearis/payroll-billing/internal/refresh"
	"github.com/tigearis/payroll-billing/internal/security"
	"github.com/tigearis/payroll-billing/internal/settings"
)

// settingsRefreshInterval is how often the settings snapshot is re-read from
// the database so operator edits made on other instances take effect.
const settingsRefreshInterval = time.Minute

// Migrate opens the database and runs migrations plus default seeding.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	conn, _, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	return db.Migrate(conn.WithContext(ctx))
}

// CreateAdminParams holds inputs for admin account creation.
type CreateAdminParams struct {
	Username   string
	Password   string
	SuperAdmin bool
}

// CreateAdmin creates an admin account, or resets the password when the
// username already exists.
func CreateAdmin(ctx context.Context, cfg config.AppConfig, params CreateAdminParams) error {
	username := strings.TrimSpace(params.Username)
	if username == "" {
		return errors.New("app: username is required")
	}
	if len(strings.TrimSpace(params.Password)) < 8 {
		return errors.New("app: password must be at least 8 characters")
	}

	conn, _, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn.WithContext(ctx)); errMigrate != nil {
		return errMigrate
	}

	hashed, errHash := security.HashPassword(strings.TrimSpace(params.Password))
	if errHash != nil {
		return fmt.Errorf("app: hash password: %w", errHash)
	}

	var existing models.Admin
	errFind := conn.WithContext(ctx).Where("username = ?", username).First(&existing).Error
	switch {
	case errFind == nil:
		updates := map[string]any{"password": hashed, "active": true}
		if params.SuperAdmin {
			updates["is_super_admin"] = true
		}
		if errUpdate := conn.WithContext(ctx).Model(&models.Admin{}).
			Where("id = ?", existing.ID).
			Updates(updates).Error; errUpdate != nil {
			return fmt.Errorf("app: update admin: %w", errUpdate)
		}
		log.Infof("reset password for admin %s", username)
		return nil
	case errors.Is(errFind, gorm.ErrRecordNotFound):
		admin := models.Admin{
			Username:     username,
			Password:     hashed,
			Active:       true,
			IsSuperAdmin: params.SuperAdmin,
		}
		if errCreate := conn.WithContext(ctx).Create(&admin).Error; errCreate != nil {
			return fmt.Errorf("app: create admin: %w", errCreate)
		}
		log.Infof("created admin %s", username)
		return nil
	default:
		return fmt.Errorf("app: find admin: %w", errFind)
	}
}

// RunServer boots the billing API server with database-backed components.
func RunServer(ctx context.Context, cfg config.AppConfig) error {
	conn, fullCfg, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	logging.Setup(fullCfg.Logging)

	if errMigrate := db.Migrate(conn.WithContext(ctx)); errMigrate != nil {
		return errMigrate
	}
	if errRefresh := settings.RefreshDBConfigSnapshot(ctx, conn); errRefresh != nil {
		log.WithError(errRefresh).Warn("initial settings refresh failed")
	}

	rules := refresh.NewManager(conn)
	if errReload := rules.Reload(ctx); errReload != nil {
		return fmt.Errorf("app: load pricing rules: %w", errReload)
	}
	rules.Start(ctx)
	go refreshSettingsLoop(ctx, conn)

	cacheTTL := time.Duration(settings.IntValue(settings.QuoteCacheTTLSecondsKey, settings.DefaultQuoteCacheTTLSeconds)) * time.Second
	cache, errCache := quotecache.New(ctx, fullCfg.Redis, cacheTTL)
	if errCache != nil {
		return fmt.Errorf("app: connect quote cache: %w", errCache)
	}
	if cache != nil {
		defer func() { _ = cache.Close() }()
	}

	recorder := quotelog.NewRecorder(conn)

	if !strings.EqualFold(fullCfg.Logging.Level, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	adminapi.RegisterAdminRoutes(engine, conn, fullCfg.JWT, rules, recorder)
	portalapi.RegisterPortalRoutes(engine, conn, fullCfg.JWT, rules, cache, recorder)

	server := &http.Server{
		Addr:              fullCfg.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return fmt.Errorf("app: shutdown: %w", errShutdown)
		}
		return nil
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	}
}

// openDatabase resolves configuration and opens the database connection.
func openDatabase(cfg config.AppConfig) (*gorm.DB, config.Config, error) {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	fullCfg, errLoad := config.LoadConfig(configPath)
	if errLoad != nil {
		return nil, config.Config{}, errLoad
	}
	conn, errOpen := db.Open(fullCfg.Database.DSN)
	if errOpen != nil {
		return nil, config.Config{}, errOpen
	}
	return conn, fullCfg, nil
}

// refreshSettingsLoop periodically re-reads the settings table so snapshot
// readers pick up edits without a restart.
func refreshSettingsLoop(ctx context.Context, conn *gorm.DB) {
	timer := time.NewTimer(settingsRefreshInterval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if errRefresh := settings.RefreshDBConfigSnapshot(ctx, conn); errRefresh != nil {
			log.WithError(errRefresh).Warn("settings refresh failed")
		}
		timer.Reset(settingsRefreshInterval)
	}
}
