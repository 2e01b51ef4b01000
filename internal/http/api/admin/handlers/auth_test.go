package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/tigearis/payroll-billing/internal/config"
	"github.com/tigearis/payroll-billing/internal/models"
	"github.com/tigearis/payroll-billing/internal/security"
)

func setupAuthDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:adminauth_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := db.AutoMigrate(&models.Admin{}); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return db
}

func seedAdmin(t *testing.T, db *gorm.DB, username, password string, active bool) models.Admin {
	t.Helper()
	hashed, errHash := security.HashPassword(password)
	if errHash != nil {
		t.Fatalf("hash password: %v", errHash)
	}
	admin := models.Admin{Username: username, Password: hashed, Active: active}
	if errCreate := db.Create(&admin).Error; errCreate != nil {
		t.Fatalf("create admin: %v", errCreate)
	}
	return admin
}

func TestAdminLoginIssuesToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupAuthDB(t)
	seedAdmin(t, db, "ops", "correct-horse", true)

	jwtCfg := config.JWTConfig{Secret: "test-secret"}
	handler := NewAuthHandler(db, jwtCfg)
	router := gin.New()
	router.POST("/v0/admin/login", handler.Login)

	payload := `{"username":"ops","password":"correct-horse"}`
	req := httptest.NewRequest(http.MethodPost, "/v0/admin/login", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
		Admin struct {
			Username string `json:"username"`
		} `json:"admin"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if resp.Token == "" {
		t.Fatalf("expected a token in the response")
	}
	if resp.Admin.Username != "ops" {
		t.Fatalf("expected username=ops, got %q", resp.Admin.Username)
	}

	claims, errParse := security.ParseAdminToken(jwtCfg.Secret, resp.Token)
	if errParse != nil {
		t.Fatalf("parse issued token: %v", errParse)
	}
	if claims.Username != "ops" {
		t.Fatalf("expected token username=ops, got %q", claims.Username)
	}
}

func TestAdminLoginRejectsBadCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupAuthDB(t)
	seedAdmin(t, db, "ops", "correct-horse", true)
	seedAdmin(t, db, "retired", "correct-horse", false)

	handler := NewAuthHandler(db, config.JWTConfig{Secret: "test-secret"})
	router := gin.New()
	router.POST("/v0/admin/login", handler.Login)

	cases := []struct {
		name    string
		payload string
		status  int
	}{
		{name: "wrong password", payload: `{"username":"ops","password":"nope"}`, status: http.StatusUnauthorized},
		{name: "unknown user", payload: `{"username":"ghost","password":"nope"}`, status: http.StatusUnauthorized},
		{name: "disabled account", payload: `{"username":"retired","password":"correct-horse"}`, status: http.StatusForbidden},
		{name: "empty body", payload: `{}`, status: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v0/admin/login", bytes.NewBufferString(tc.payload))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, w.Code)
			}
		})
	}
}

func TestAdminChangePassword(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupAuthDB(t)
	admin := seedAdmin(t, db, "ops", "correct-horse", true)

	handler := NewAuthHandler(db, config.JWTConfig{Secret: "test-secret"})
	router := gin.New()
	router.PUT("/v0/admin/me/password", func(c *gin.Context) {
		c.Set("adminID", admin.ID)
		handler.ChangePassword(c)
	})

	payload := `{"old_password":"correct-horse","new_password":"longer-passphrase"}`
	req := httptest.NewRequest(http.MethodPut, "/v0/admin/me/password", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var updated models.Admin
	if errFind := db.First(&updated, admin.ID).Error; errFind != nil {
		t.Fatalf("find admin: %v", errFind)
	}
	if !security.CheckPassword(updated.Password, "longer-passphrase") {
		t.Fatalf("expected new password to verify")
	}
	if security.CheckPassword(updated.Password, "correct-horse") {
		t.Fatalf("expected old password to stop verifying")
	}
}
