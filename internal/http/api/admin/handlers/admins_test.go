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

	"github.com/tigearis/payroll-billing/internal/models"
	"github.com/tigearis/payroll-billing/internal/security"
)

func setupAdminDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:admins_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := db.AutoMigrate(&models.Admin{}); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return db
}

func newAdminRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	handler := NewAdminHandler(db)
	router := gin.New()
	router.POST("/v0/admin/admins", handler.Create)
	router.GET("/v0/admin/admins", handler.List)
	router.GET("/v0/admin/admins/:id", handler.Get)
	router.PUT("/v0/admin/admins/:id", handler.Update)
	router.DELETE("/v0/admin/admins/:id", handler.Delete)
	router.PUT("/v0/admin/admins/:id/active", handler.SetActive)
	router.PUT("/v0/admin/admins/:id/password", handler.SetPassword)
	return router
}

func TestAdminCreateListAndGet(t *testing.T) {
	db := setupAdminDB(t)
	router := newAdminRouter(t, db)

	payload := `{
		"username": "ops-lead",
		"password": "long-enough-secret",
		"permissions": ["GET /v0/admin/clients", "GET /v0/admin/clients", "GET /v0/admin/services"]
	}`
	req := httptest.NewRequest(http.MethodPost, "/v0/admin/admins", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID          uint64   `json:"id"`
		Username    string   `json:"username"`
		Active      bool     `json:"active"`
		Permissions []string `json:"permissions"`
	}
	if errDecode := json.Unmarshal(rec.Body.Bytes(), &created); errDecode != nil {
		t.Fatalf("decode create response: %v", errDecode)
	}
	if created.Username != "ops-lead" || !created.Active {
		t.Fatalf("unexpected create response: %+v", created)
	}
	if len(created.Permissions) != 2 {
		t.Fatalf("expected deduplicated permissions, got %v", created.Permissions)
	}
	var row models.Admin
	if errFind := db.First(&row, created.ID).Error; errFind != nil {
		t.Fatalf("find admin: %v", errFind)
	}
	if row.Password == "long-enough-secret" || !security.CheckPassword(row.Password, "long-enough-secret") {
		t.Fatalf("password not stored as a matching hash")
	}

	req = httptest.NewRequest(http.MethodGet, "/v0/admin/admins?username=OPS", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var list struct {
		Admins []struct {
			Username string `json:"username"`
			Password string `json:"password"`
		} `json:"admins"`
	}
	if errDecode := json.Unmarshal(rec.Body.Bytes(), &list); errDecode != nil {
		t.Fatalf("decode list response: %v", errDecode)
	}
	if len(list.Admins) != 1 || list.Admins[0].Username != "ops-lead" {
		t.Fatalf("case-insensitive username filter failed: %+v", list.Admins)
	}
	if list.Admins[0].Password != "" {
		t.Fatalf("password hash leaked in list response")
	}

	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/v0/admin/admins/%d", created.ID), nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}
}

func TestAdminCreateRejectsBadInput(t *testing.T) {
	db := setupAdminDB(t)
	router := newAdminRouter(t, db)

	cases := []struct {
		name    string
		payload string
		want    int
	}{
		{"missing username", `{"password": "long-enough-secret"}`, http.StatusBadRequest},
		{"short password", `{"username": "x", "password": "short"}`, http.StatusBadRequest},
		{"unknown permission", `{"username": "x", "password": "long-enough-secret", "permissions": ["GET /nope"]}`, http.StatusBadRequest},
		{"not json", `not-json`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/v0/admin/admins", bytes.NewBufferString(tc.payload))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d: %s", tc.name, tc.want, rec.Code, rec.Body.String())
		}
	}

	// Duplicate usernames conflict.
	payload := `{"username": "dup", "password": "long-enough-secret"}`
	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		req := httptest.NewRequest(http.MethodPost, "/v0/admin/admins", bytes.NewBufferString(payload))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("attempt %d: expected %d, got %d", i, want, rec.Code)
		}
	}
}

func TestAdminUpdateSetActiveAndPassword(t *testing.T) {
	db := setupAdminDB(t)
	router := newAdminRouter(t, db)
	admin := seedAdmin(t, db, "auditor", "initial-secret-pw", true)

	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/v0/admin/admins/%d", admin.ID),
		bytes.NewBufferString(`{"permissions": ["GET /v0/admin/quote-logs"], "is_super_admin": true}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPut, fmt.Sprintf("/v0/admin/admins/%d/active", admin.ID),
		bytes.NewBufferString(`{"active": false}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("set active: expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPut, fmt.Sprintf("/v0/admin/admins/%d/password", admin.ID),
		bytes.NewBufferString(`{"password": "replaced-secret-pw"}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("set password: expected 200, got %d", rec.Code)
	}

	var row models.Admin
	if errFind := db.First(&row, admin.ID).Error; errFind != nil {
		t.Fatalf("find admin: %v", errFind)
	}
	if row.Active {
		t.Fatalf("expected deactivated account")
	}
	if !row.IsSuperAdmin {
		t.Fatalf("expected super admin flag set")
	}
	if !security.CheckPassword(row.Password, "replaced-secret-pw") {
		t.Fatalf("replacement password not persisted")
	}

	// Missing body field on the active toggle is rejected.
	req = httptest.NewRequest(http.MethodPut, fmt.Sprintf("/v0/admin/admins/%d/active", admin.ID),
		bytes.NewBufferString(`{}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("set active without flag: expected 400, got %d", rec.Code)
	}
}

func TestAdminDeleteAndMissingIDs(t *testing.T) {
	db := setupAdminDB(t)
	router := newAdminRouter(t, db)
	admin := seedAdmin(t, db, "temp", "initial-secret-pw", true)

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/v0/admin/admins/%d", admin.ID), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}

	for _, tc := range []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, fmt.Sprintf("/v0/admin/admins/%d", admin.ID), ""},
		{http.MethodDelete, fmt.Sprintf("/v0/admin/admins/%d", admin.ID), ""},
		{http.MethodPut, fmt.Sprintf("/v0/admin/admins/%d/active", admin.ID), `{"active": true}`},
		{http.MethodPut, fmt.Sprintf("/v0/admin/admins/%d/password", admin.ID), `{"password": "long-enough-secret"}`},
	} {
		var req *http.Request
		if tc.body != "" {
			req = httptest.NewRequest(tc.method, tc.path, bytes.NewBufferString(tc.body))
		} else {
			req = httptest.NewRequest(tc.method, tc.path, nil)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s %s: expected 404 after delete, got %d", tc.method, tc.path, rec.Code)
		}
	}
}
