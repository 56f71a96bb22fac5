package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/eventhorizon-app/backend/internal/middleware"
	"github.com/eventhorizon-app/backend/internal/models"
)

// authRouter exercises the real JWT middleware instead of the test header.
func authRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.DatabaseMiddleware(db))
	v1 := r.Group("/v1")
	v1.POST("/register", Register)
	v1.POST("/login", Login)
	protected := v1.Group("/users")
	protected.Use(middleware.JWTAuthMiddleware())
	protected.GET("/me", GetMe)
	protected.PATCH("/me", UpdateMe)
	return r
}

func jsonRequest(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterLoginAndFetchProfile(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := openTestDB(t)
	r := authRouter(db)

	register := RegisterRequest{Email: "ada@example.com", Password: "hunter22", Name: "Ada"}
	w := jsonRequest(t, r, http.MethodPost, "/v1/register", "", register)
	requireStatus(t, w, http.StatusCreated)

	// Duplicate email.
	w = jsonRequest(t, r, http.MethodPost, "/v1/register", "", register)
	requireStatus(t, w, http.StatusConflict)

	// Wrong password.
	w = jsonRequest(t, r, http.MethodPost, "/v1/login", "",
		LoginRequest{Email: "ada@example.com", Password: "wrong"})
	requireStatus(t, w, http.StatusUnauthorized)

	w = jsonRequest(t, r, http.MethodPost, "/v1/login", "",
		LoginRequest{Email: "ada@example.com", Password: "hunter22"})
	requireStatus(t, w, http.StatusOK)
	var login struct {
		Token string `json:"token"`
	}
	decodeBody(t, w, &login)
	if login.Token == "" {
		t.Fatal("expected a signed token")
	}

	// The token must open the protected profile endpoint.
	w = jsonRequest(t, r, http.MethodGet, "/v1/users/me", login.Token, nil)
	requireStatus(t, w, http.StatusOK)
	var profile struct {
		Email       string                   `json:"email"`
		Preferences models.PreferenceProfile `json:"preferences"`
	}
	decodeBody(t, w, &profile)
	if profile.Email != "ada@example.com" {
		t.Fatalf("email = %q", profile.Email)
	}
	if profile.Preferences.Budget != models.PreferenceDefault {
		t.Fatalf("fresh accounts should start on default preferences, got %+v", profile.Preferences)
	}

	// No token, garbage token.
	w = jsonRequest(t, r, http.MethodGet, "/v1/users/me", "", nil)
	requireStatus(t, w, http.StatusUnauthorized)
	w = jsonRequest(t, r, http.MethodGet, "/v1/users/me", "not-a-jwt", nil)
	requireStatus(t, w, http.StatusUnauthorized)
}

func TestUpdateProfileValidatesPreferences(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := openTestDB(t)
	r := authRouter(db)

	w := jsonRequest(t, r, http.MethodPost, "/v1/register", "",
		RegisterRequest{Email: "grace@example.com", Password: "hunter22", Name: "Grace"})
	requireStatus(t, w, http.StatusCreated)
	w = jsonRequest(t, r, http.MethodPost, "/v1/login", "",
		LoginRequest{Email: "grace@example.com", Password: "hunter22"})
	requireStatus(t, w, http.StatusOK)
	var login struct {
		Token string `json:"token"`
	}
	decodeBody(t, w, &login)

	bad := UpdateProfileRequest{Preferences: &models.PreferenceProfile{
		Budget: 9, TravelWillingness: 3, PhysicalEnergy: 3, SocialEnergy: 3, Adventurousness: 3,
	}}
	w = jsonRequest(t, r, http.MethodPatch, "/v1/users/me", login.Token, bad)
	requireStatus(t, w, http.StatusBadRequest)

	hobbies := []string{"climbing", "board games"}
	good := UpdateProfileRequest{
		Name: "Grace H.",
		Preferences: &models.PreferenceProfile{
			Budget: 4, TravelWillingness: 2, PhysicalEnergy: 5, SocialEnergy: 4, Adventurousness: 5,
		},
		Hobbies: &hobbies,
	}
	w = jsonRequest(t, r, http.MethodPatch, "/v1/users/me", login.Token, good)
	requireStatus(t, w, http.StatusOK)

	var user models.User
	if err := db.Where("email = ?", "grace@example.com").First(&user).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if user.Name != "Grace H." {
		t.Fatalf("name = %q", user.Name)
	}
	if user.Preferences.Data().PhysicalEnergy != 5 {
		t.Fatalf("preferences not stored: %+v", user.Preferences.Data())
	}
	if len(user.Hobbies) != 2 {
		t.Fatalf("hobbies = %v", user.Hobbies)
	}
}
