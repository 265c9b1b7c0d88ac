package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalogsync/backend/internal/interfaces/http/dto"
	"github.com/catalogsync/backend/internal/interfaces/http/router"
)

type fakePinger struct {
	err error
}

func (p fakePinger) Ping() error {
	return p.err
}

func newSystemServer(pinger Pinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	router.NewRouter(engine).Register(NewSystemHandler(pinger)).Setup()
	return engine
}

func getJSON(t *testing.T, engine *gin.Engine, path string) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	data, _ := body.Data.(map[string]any)
	return rec.Code, data
}

func TestGetSystemInfo(t *testing.T) {
	engine := newSystemServer(fakePinger{})

	code, data := getJSON(t, engine, "/api/v1/system/info")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Catalog Sync API", data["name"])
	assert.NotEmpty(t, data["go_version"])
	assert.NotEmpty(t, data["uptime"])
}

func TestGetHealth(t *testing.T) {
	code, data := getJSON(t, newSystemServer(fakePinger{}), "/api/v1/system/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", data["status"])
	assert.Equal(t, "ok", data["database"])
}

func TestGetHealthDegraded(t *testing.T) {
	engine := newSystemServer(fakePinger{err: errors.New("connection refused")})

	code, data := getJSON(t, engine, "/api/v1/system/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "degraded", data["status"])
	assert.Equal(t, "unreachable", data["database"])
}
