package user

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/adjoaboateng/CareerHub-server/cmd/models"
	"github.com/adjoaboateng/CareerHub-server/cmd/utils"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.StudentProfile{}))
	return db
}

func setupRouter(t *testing.T, db *gorm.DB) *mux.Router {
	t.Helper()
	t.Setenv("SECRET_KEY", "test-secret")

	router := mux.NewRouter()
	NewHandler(db).RegisterRoutes(router)
	return router
}

func createUser(t *testing.T, db *gorm.DB, email, password string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         utils.RoleStudent,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func postJSON(router *mux.Router, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestLoginIssuesTokenPair(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(t, db)
	createUser(t, db, "ama@st.ug.edu.gh", "hunter22")

	rec := postJSON(router, "/login", `{"email":"ama@st.ug.edu.gh","password":"hunter22"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		Role         string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	require.Equal(t, utils.RoleStudent, resp.Role)

	rec = postJSON(router, "/login", `{"email":"ama@st.ug.edu.gh","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshTokenIsSingleUse(t *testing.T) {
	db := setupTestDB(t)
	router := setupRouter(t, db)
	createUser(t, db, "ama@st.ug.edu.gh", "hunter22")

	rec := postJSON(router, "/login", `{"email":"ama@st.ug.edu.gh","password":"hunter22"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var login struct {
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	// First use rotates the token
	rec = postJSON(router, "/refresh", `{"refresh_token":"`+login.RefreshToken+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var refreshed struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refreshed))
	require.NotEmpty(t, refreshed.AccessToken)
	require.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// Replaying the consumed token must fail
	rec = postJSON(router, "/refresh", `{"refresh_token":"`+login.RefreshToken+`"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// The rotated token is still good
	rec = postJSON(router, "/refresh", `{"refresh_token":"`+refreshed.RefreshToken+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
}
