package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"forumhub/internal/auth"
	"forumhub/internal/config"
	"forumhub/internal/db"
	"forumhub/internal/models"
	"forumhub/internal/router"
	"forumhub/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testApp struct {
	router *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// 内存库只允许一个连接，避免连接池各自拿到独立的空库
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(conn))

	cfg := &config.Config{
		JWTSecret:   []byte("test-secret"),
		JWTExpires:  time.Hour,
		BaseURL:     "http://localhost:3000",
		CORSOrigin:  "*",
		UploadDir:   t.TempDir(),
		MaxFileSize: 5 * 1024 * 1024,
	}

	cache, err := utils.NewCache(100)
	require.NoError(t, err)

	return &testApp{
		router: router.New(conn, cfg, cache),
		db:     conn,
		cfg:    cfg,
	}
}

func (a *testApp) createUser(t *testing.T, username, role string) (*models.User, string) {
	t.Helper()
	hash, err := utils.HashPassword("password123")
	require.NoError(t, err)

	user := models.User{Username: username, PasswordHash: hash, Role: role}
	require.NoError(t, a.db.Create(&user).Error)

	token, err := auth.MakeToken(a.cfg, user.ID)
	require.NoError(t, err)
	return &user, token
}

func (a *testApp) createPost(t *testing.T, author *models.User, title string) *models.Post {
	t.Helper()
	post := models.Post{
		AuthorID: author.ID,
		Title:    title,
		Content:  "内容 " + title,
		Tags:     models.TagList{},
	}
	require.NoError(t, a.db.Create(&post).Error)
	return &post
}

func (a *testApp) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Liked      *bool           `json:"liked"`
	IsFeatured *bool           `json:"is_featured"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	env := decode(t, w)
	require.True(t, env.Success)
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, w.Code, "unexpected status, body: %s", w.Body.String())
}
