package handler

import (
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	syncapp "github.com/catalogsync/backend/internal/application/sync"
	"github.com/catalogsync/backend/internal/interfaces/http/dto"
)

// SyncHandler exposes the sync engine over HTTP. Runs execute within the
// request so the report can be returned directly; a second request for a
// supplier already in flight is rejected instead of queued.
type SyncHandler struct {
	BaseHandler
	orchestrator *syncapp.Orchestrator

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(orchestrator *syncapp.Orchestrator) *SyncHandler {
	return &SyncHandler{
		orchestrator: orchestrator,
		inFlight:     make(map[string]bool),
	}
}

// RegisterRoutes registers sync endpoints on the API group
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	{
		sync.POST("", h.StartSyncAll)
		sync.POST("/:supplierCode", h.StartSyncSupplier)
		sync.GET("/status", h.GetSyncStatus)
		sync.GET("/connection", h.TestConnection)
	}
}

// acquire marks a run key as in flight; returns false when already running
func (h *SyncHandler) acquire(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.inFlight[key] {
		return false
	}
	h.inFlight[key] = true
	return true
}

func (h *SyncHandler) release(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.inFlight, key)
}

// StartSyncAll runs a sync for every supplier found in the manifest
func (h *SyncHandler) StartSyncAll(c *gin.Context) {
	const key = "*"
	if !h.acquire(key) {
		h.Conflict(c, dto.ErrCodeSyncRunning, "A full sync is already running")
		return
	}
	defer h.release(key)

	reports := h.orchestrator.SyncAll(c.Request.Context())
	h.Success(c, dto.FromRunReports(reports))
}

// StartSyncSupplier runs a sync for one supplier
func (h *SyncHandler) StartSyncSupplier(c *gin.Context) {
	code := strings.ToUpper(strings.TrimSpace(c.Param("supplierCode")))
	if code == "" {
		h.BadRequest(c, "Supplier code is required")
		return
	}
	if !h.acquire(code) {
		h.Conflict(c, dto.ErrCodeSyncRunning, "A sync for this supplier is already running")
		return
	}
	defer h.release(code)

	report := h.orchestrator.SyncSupplier(c.Request.Context(), code)
	h.Success(c, dto.FromRunReport(report))
}

// GetSyncStatus returns the latest run snapshot per supplier
func (h *SyncHandler) GetSyncStatus(c *gin.Context) {
	statuses, err := h.orchestrator.Status(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromRunStatuses(statuses))
}

// TestConnection probes the feed without starting a run
func (h *SyncHandler) TestConnection(c *gin.Context) {
	result, err := h.orchestrator.TestConnection(c.Request.Context())
	if err != nil {
		h.BadGateway(c, err.Error())
		return
	}
	h.Success(c, dto.ConnectionResponse{
		Status:         result.Status,
		SuppliersFound: result.SuppliersFound,
		Suppliers:      result.Suppliers,
	})
}
