// meet-ai/internal/handlers/handlers_test.go

package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/maxwell-appwrk/meet-ai/config"
	"github.com/maxwell-appwrk/meet-ai/internal/routes"
	"github.com/maxwell-appwrk/meet-ai/internal/stream"
	"github.com/maxwell-appwrk/meet-ai/models"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testUserID      = "user-1"
	otherTestUserID = "user-2"
)

// setupTest поднимает тестовое окружение: sqlite в памяти вместо Postgres,
// заглушку видеопровайдера и роутер с подставной аутентификацией.
func setupTest(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Agent{},
		&models.Meeting{},
		&models.MeetingGuest{},
	))

	config.DB = db
	config.RDB = nil
	config.GeminiClient = nil

	// Заглушка API видеопровайдера: всегда отвечает успехом
	providerSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	t.Cleanup(providerSrv.Close)

	config.Stream = stream.NewClient("test-key", "test-secret")
	config.Stream.BaseURL = providerSrv.URL

	r := gin.New()
	routes.RegisterPublicRoutes(r)

	authed := r.Group("/")
	authed.Use(func(c *gin.Context) {
		c.Set("user_id", testUserID)
		c.Set("userName", "Test User")
		c.Set("userEmail", "test@example.com")
		c.Next()
	})
	routes.RegisterAPIRoutes(authed)

	return r
}

func seedUser(t *testing.T, id, name string) models.User {
	t.Helper()
	user := models.User{ID: id, Name: name, Email: name + "@example.com"}
	require.NoError(t, config.DB.Create(&user).Error)
	return user
}

func seedAgent(t *testing.T, userID, name string) models.Agent {
	t.Helper()
	agent := models.Agent{UserID: userID, Name: name, Instructions: "You are a helpful assistant."}
	require.NoError(t, config.DB.Create(&agent).Error)
	return agent
}

func seedMeeting(t *testing.T, userID, agentID, name string, mutate func(*models.Meeting)) models.Meeting {
	t.Helper()
	meeting := models.Meeting{
		UserID:  userID,
		AgentID: agentID,
		Name:    name,
		Status:  models.StatusUpcoming,
	}
	if mutate != nil {
		mutate(&meeting)
	}
	require.NoError(t, config.DB.Create(&meeting).Error)
	return meeting
}

func strPtr(s string) *string { return &s }

func timePtr(ts time.Time) *time.Time { return &ts }

// doJSON выполняет запрос с JSON-телом против тестового роутера.
func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst))
}
