package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	syncapp "github.com/catalogsync/backend/internal/application/sync"
	"github.com/catalogsync/backend/internal/domain/catalog"
	"github.com/catalogsync/backend/internal/infrastructure/feed"
	"github.com/catalogsync/backend/internal/infrastructure/persistence"
	"github.com/catalogsync/backend/internal/infrastructure/retry"
	"github.com/catalogsync/backend/internal/infrastructure/status"
	"github.com/catalogsync/backend/internal/interfaces/http/dto"
	"github.com/catalogsync/backend/internal/interfaces/http/router"
)

// nullStorage discards uploads; the handler tests exercise the HTTP surface,
// not the storage backend.
type nullStorage struct{}

func (nullStorage) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	return "https://cdn.example.com/" + key, nil
}

// upstream is the fake feed behind the API under test. manifestGate, when
// set, blocks manifest requests until released so in-flight behavior can be
// observed.
type upstream struct {
	server       *httptest.Server
	mu           sync.Mutex
	fail         bool
	manifestGate chan struct{}
	manifestHit  chan struct{}
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{manifestHit: make(chan struct{}, 16)}
	u.server = httptest.NewServer(http.HandlerFunc(u.handle))
	t.Cleanup(u.server.Close)
	return u
}

func (u *upstream) handle(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	fail, gate := u.fail, u.manifestGate
	u.mu.Unlock()

	switch {
	case r.URL.Path == "/manifest.txt":
		select {
		case u.manifestHit <- struct{}{}:
		default:
		}
		if gate != nil {
			// The gate holds only the first manifest request
			u.mu.Lock()
			u.manifestGate = nil
			u.mu.Unlock()
			<-gate
		}
		if fail {
			http.Error(w, "down", http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, "%s/categories.csv\n%s/a113/A113-100804.json|HASH-1",
			u.server.URL, u.server.URL)
	case r.URL.Path == "/categories.csv":
		fmt.Fprint(w, "code;name;parent\nCAT-1;Workwear;\n")
	case strings.HasSuffix(r.URL.Path, ".json"):
		fmt.Fprint(w, `{
			"UnstructuredInformation": {"Name": "Pilot Jacket"},
			"ChildProducts": [{"Sku": "A113-100804-990-3"}]
		}`)
	default:
		http.NotFound(w, r)
	}
}

func newAPIServer(t *testing.T, up *upstream) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(
		&catalog.Supplier{}, &catalog.Category{}, &catalog.ParentProduct{},
		&catalog.ProductVariant{}, &catalog.MediaAsset{},
	))

	policy := retry.NewPolicy(time.Millisecond, 1, nil)
	client := feed.NewClient(up.server.URL+"/manifest.txt", 5*time.Second, policy)
	suppliers := persistence.NewGormSupplierRepository(db)
	categories := persistence.NewGormCategoryRepository(db)
	products := persistence.NewGormParentProductRepository(db)
	variants := persistence.NewGormProductVariantRepository(db)
	media := persistence.NewGormMediaAssetRepository(db)
	languages := []string{"en", "nl"}

	upserter := syncapp.NewUpserter(suppliers, categories, products, variants, policy, nil)
	importer := syncapp.NewCategoryImporter(upserter, categories, languages, nil)
	ingestor := syncapp.NewImageIngestor(client, nullStorage{}, media, policy, nil)
	orchestrator := syncapp.NewOrchestrator(client, upserter, importer, ingestor,
		products, syncapp.NewProfileRegistry(suppliers), status.NewMemoryTracker(),
		languages, 2, nil)

	engine := gin.New()
	router.NewRouter(engine).Register(NewSyncHandler(orchestrator)).Setup()
	return engine
}

func doRequest(engine *gin.Engine, method, path string) (*httptest.ResponseRecorder, dto.Response) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	engine.ServeHTTP(rec, req)
	var body dto.Response
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestStartSyncSupplier(t *testing.T) {
	engine := newAPIServer(t, newUpstream(t))

	rec, body := doRequest(engine, http.MethodPost, "/api/v1/sync/a113")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, body.Success)

	data := body.Data.(map[string]any)
	// The path parameter is normalized to the canonical supplier code
	assert.Equal(t, "A113", data["supplier_code"])
	assert.Equal(t, "completed", data["state"])
	assert.NotEmpty(t, data["run_id"])
}

func TestStartSyncSupplierRejectsConcurrentRun(t *testing.T) {
	up := newUpstream(t)
	gate := make(chan struct{})
	up.manifestGate = gate
	engine := newAPIServer(t, up)

	firstDone := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		rec, _ := doRequest(engine, http.MethodPost, "/api/v1/sync/a113")
		firstDone <- rec
	}()

	// Wait until the first run is holding the manifest request
	select {
	case <-up.manifestHit:
	case <-time.After(5 * time.Second):
		t.Fatal("first run never reached the feed")
	}

	rec, body := doRequest(engine, http.MethodPost, "/api/v1/sync/a113")
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, dto.ErrCodeSyncRunning, body.Error.Code)

	// A different supplier is not blocked by the in-flight run
	recOther, _ := doRequest(engine, http.MethodPost, "/api/v1/sync/z999")
	assert.Equal(t, http.StatusOK, recOther.Code)

	close(gate)
	first := <-firstDone
	assert.Equal(t, http.StatusOK, first.Code)
}

func TestStartSyncAll(t *testing.T) {
	engine := newAPIServer(t, newUpstream(t))

	rec, body := doRequest(engine, http.MethodPost, "/api/v1/sync")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, body.Success)

	reports := body.Data.([]any)
	require.Len(t, reports, 1)
	assert.Equal(t, "A113", reports[0].(map[string]any)["supplier_code"])
}

func TestGetSyncStatus(t *testing.T) {
	engine := newAPIServer(t, newUpstream(t))

	// Before any run the status list is empty
	rec, body := doRequest(engine, http.MethodGet, "/api/v1/sync/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body.Data)

	doRequest(engine, http.MethodPost, "/api/v1/sync/a113")

	rec, body = doRequest(engine, http.MethodGet, "/api/v1/sync/status")
	require.Equal(t, http.StatusOK, rec.Code)
	statuses := body.Data.([]any)
	require.Len(t, statuses, 1)
	entry := statuses[0].(map[string]any)
	assert.Equal(t, "A113", entry["supplier_code"])
	assert.Equal(t, "completed", entry["state"])
}

func TestTestConnectionEndpoint(t *testing.T) {
	up := newUpstream(t)
	engine := newAPIServer(t, up)

	rec, body := doRequest(engine, http.MethodGet, "/api/v1/sync/connection")
	require.Equal(t, http.StatusOK, rec.Code)
	data := body.Data.(map[string]any)
	assert.Equal(t, "ok", data["status"])
	assert.Equal(t, float64(1), data["suppliers_found"])

	up.mu.Lock()
	up.fail = true
	up.mu.Unlock()
	rec, body = doRequest(engine, http.MethodGet, "/api/v1/sync/connection")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, dto.ErrCodeFeedUnavailable, body.Error.Code)
}
