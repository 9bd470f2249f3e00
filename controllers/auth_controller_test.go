package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/xyber-shield/api-go/middleware"
	"github.com/xyber-shield/api-go/models"
	"gorm.io/gorm"
)

func setupAuthRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")

	db := newTestDB(t)
	ac := NewAuthController(db)

	r := gin.New()
	r.POST("/api/register", ac.Register)
	r.POST("/api/login", ac.Login)
	r.POST("/api/refresh-token", ac.RefreshToken)

	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware())
	protected.POST("/logout", ac.Logout)
	protected.GET("/profile", ac.GetProfile)
	protected.PUT("/profile", ac.UpdateProfile)

	return r, db
}

func postJSON(t *testing.T, r *gin.Engine, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	req, _ := http.NewRequest("POST", path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const registerBody = `{"name":"Alice Martin","pseudo":"alice_m","email":"Alice@Example.COM","password":"s3curePass!"}`

func TestRegisterAndLogin(t *testing.T) {
	r, db := setupAuthRouter(t)

	w := postJSON(t, r, "/api/register", registerBody, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var user models.User
	if err := db.Where("pseudo = ?", "alice_m").First(&user).Error; err != nil {
		t.Fatalf("Expected user row: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("Expected lower-cased email, got %q", user.Email)
	}
	if user.Password == "s3curePass!" {
		t.Error("Password stored in plain text")
	}

	var activity models.ActivityLog
	if err := db.Where("activity = ?", models.ActivityRegister).First(&activity).Error; err != nil {
		t.Errorf("Expected a REGISTER activity row: %v", err)
	}

	// Login works with the normalized email in any case.
	w = postJSON(t, r, "/api/login", `{"email":"alice@example.com","password":"s3curePass!"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("Expected an access/refresh token pair")
	}

	// A session row tracks the refresh token by hash only.
	var session models.Session
	if err := db.Where("user_id = ?", user.ID).First(&session).Error; err != nil {
		t.Fatalf("Expected session row: %v", err)
	}
	if session.TokenHash == resp.RefreshToken {
		t.Error("Session stores the raw refresh token instead of its hash")
	}
	if !session.IsActive {
		t.Error("Expected session to be active after login")
	}

	db.First(&user, user.ID)
	if user.LastLogin == nil {
		t.Error("Expected last_login to be set after login")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r, _ := setupAuthRouter(t)

	if w := postJSON(t, r, "/api/register", registerBody, ""); w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", w.Code)
	}

	// Same email, different pseudo.
	w := postJSON(t, r, "/api/register", `{"name":"Bob","pseudo":"bob_x","email":"alice@example.com","password":"s3curePass!"}`, "")
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for duplicate email, got %d", w.Code)
	}

	// Same pseudo, different email.
	w = postJSON(t, r, "/api/register", `{"name":"Bob","pseudo":"alice_m","email":"bob@example.com","password":"s3curePass!"}`, "")
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for duplicate pseudo, got %d", w.Code)
	}
}

func TestRegisterPseudoValidation(t *testing.T) {
	r, _ := setupAuthRouter(t)

	tests := []struct {
		name   string
		pseudo string
	}{
		{"too short", "ab"},
		{"starts with digit", "1alice"},
		{"invalid characters", "alice!"},
		{"reserved word", "admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"name":"X","pseudo":"` + tt.pseudo + `","email":"x@example.com","password":"s3curePass!"}`
			w := postJSON(t, r, "/api/register", body, "")
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400 for pseudo %q, got %d", tt.pseudo, w.Code)
			}
		})
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	r, _ := setupAuthRouter(t)

	postJSON(t, r, "/api/register", registerBody, "")

	w := postJSON(t, r, "/api/login", `{"email":"alice@example.com","password":"wrong-password"}`, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 for bad password, got %d", w.Code)
	}

	w = postJSON(t, r, "/api/login", `{"email":"nobody@example.com","password":"s3curePass!"}`, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 for unknown email, got %d", w.Code)
	}
}

func TestLoginDeactivatedAccount(t *testing.T) {
	r, db := setupAuthRouter(t)

	postJSON(t, r, "/api/register", registerBody, "")
	db.Model(&models.User{}).Where("pseudo = ?", "alice_m").Update("is_active", false)

	w := postJSON(t, r, "/api/login", `{"email":"alice@example.com","password":"s3curePass!"}`, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 for deactivated account, got %d", w.Code)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	r, _ := setupAuthRouter(t)

	postJSON(t, r, "/api/register", registerBody, "")
	w := postJSON(t, r, "/api/login", `{"email":"alice@example.com","password":"s3curePass!"}`, "")

	var login struct {
		AccessToken string `json:"access_token"`
	}
	json.Unmarshal(w.Body.Bytes(), &login)

	req, _ := http.NewRequest("GET", "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var profile struct {
		User struct {
			Pseudo string `json:"pseudo"`
			Email  string `json:"email"`
		} `json:"user"`
	}
	json.Unmarshal(rec.Body.Bytes(), &profile)
	if profile.User.Pseudo != "alice_m" || profile.User.Email != "alice@example.com" {
		t.Errorf("Unexpected profile: %+v", profile.User)
	}

	// Unauthenticated profile access is rejected.
	req, _ = http.NewRequest("GET", "/api/profile", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without token, got %d", rec.Code)
	}
}

func TestRefreshTokenRotation(t *testing.T) {
	r, _ := setupAuthRouter(t)

	postJSON(t, r, "/api/register", registerBody, "")
	w := postJSON(t, r, "/api/login", `{"email":"alice@example.com","password":"s3curePass!"}`, "")

	var login struct {
		RefreshToken string `json:"refresh_token"`
	}
	json.Unmarshal(w.Body.Bytes(), &login)

	w = postJSON(t, r, "/api/refresh-token", `{"refresh_token":"`+login.RefreshToken+`"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var refreshed struct {
		RefreshToken string `json:"refresh_token"`
	}
	json.Unmarshal(w.Body.Bytes(), &refreshed)
	if refreshed.RefreshToken == "" {
		t.Fatal("Expected a new refresh token")
	}

	// The old token was revoked by the rotation.
	w = postJSON(t, r, "/api/refresh-token", `{"refresh_token":"`+login.RefreshToken+`"}`, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 for reused refresh token, got %d", w.Code)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	r, db := setupAuthRouter(t)

	postJSON(t, r, "/api/register", registerBody, "")
	w := postJSON(t, r, "/api/login", `{"email":"alice@example.com","password":"s3curePass!"}`, "")

	var login struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	json.Unmarshal(w.Body.Bytes(), &login)

	w = postJSON(t, r, "/api/logout", `{"refresh_token":"`+login.RefreshToken+`"}`, login.AccessToken)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var active int64
	db.Model(&models.Session{}).Where("is_active = ?", true).Count(&active)
	if active != 0 {
		t.Errorf("Expected no active sessions after logout, got %d", active)
	}

	// The revoked refresh token can no longer be exchanged.
	w = postJSON(t, r, "/api/refresh-token", `{"refresh_token":"`+login.RefreshToken+`"}`, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 after logout, got %d", w.Code)
	}
}
