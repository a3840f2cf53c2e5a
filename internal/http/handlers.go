package http

import (
	"net/http"

	"github.com/GriffinCanCode/MarkerTrack/backend/internal/domain/session"
	"github.com/GriffinCanCode/MarkerTrack/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/MarkerTrack/backend/internal/shared/id"
	"github.com/GriffinCanCode/MarkerTrack/backend/internal/shared/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MarkerReader exposes read-only registry access
type MarkerReader interface {
	Snapshot() []types.TrackedMarker
	Get(id uuid.UUID) (types.TrackedMarker, bool)
	Stats() types.RegistryStats
}

// SessionStatus exposes the controller lifecycle
type SessionStatus interface {
	ID() id.SessionID
	State() session.State
	Err() error
}

// PopupReader exposes the card on screen
type PopupReader interface {
	Current() (types.PopupCard, bool)
	Shown() uint64
}

// ClientCounter reports connected stream clients
type ClientCounter interface {
	Clients() int
}

// Handlers contains all HTTP handlers
type Handlers struct {
	markers MarkerReader
	session SessionStatus
	popup   PopupReader
	stream  ClientCounter
	metrics *monitoring.Metrics
}

// NewHandlers creates a new handler set
func NewHandlers(
	markers MarkerReader,
	session SessionStatus,
	popup PopupReader,
	stream ClientCounter,
	metrics *monitoring.Metrics,
) *Handlers {
	return &Handlers{
		markers: markers,
		session: session,
		popup:   popup,
		stream:  stream,
		metrics: metrics,
	}
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "MarkerTrack Service (Go)",
		"version": "0.1.0",
	})
}

// Health handles detailed health check. A failed session is reported as
// degraded; the process keeps serving without tracking.
func (h *Handlers) Health(c *gin.Context) {
	state := h.session.State()
	status := "healthy"
	if state == session.StateFailed {
		status = "degraded"
	}

	body := gin.H{
		"status":   status,
		"session":  state.String(),
		"registry": h.markers.Stats(),
		"stream":   gin.H{"clients": h.stream.Clients()},
	}
	if h.metrics != nil {
		body["metrics"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, body)
}

// ListMarkers returns a snapshot of all tracked markers
func (h *Handlers) ListMarkers(c *gin.Context) {
	markers := h.markers.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"markers": markers,
		"stats":   h.markers.Stats(),
	})
}

// GetMarker returns one tracked marker
func (h *Handlers) GetMarker(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid marker id"})
		return
	}

	marker, ok := h.markers.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "marker not tracked"})
		return
	}
	c.JSON(http.StatusOK, marker)
}

// GetPopup returns the card currently on screen
func (h *Handlers) GetPopup(c *gin.Context) {
	card, ok := h.popup.Current()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no popup shown"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"popup": card,
		"shown": h.popup.Shown(),
	})
}

// GetSession returns the controller state
func (h *Handlers) GetSession(c *gin.Context) {
	body := gin.H{
		"id":    h.session.ID().String(),
		"state": h.session.State().String(),
	}
	if err := h.session.Err(); err != nil {
		body["error"] = err.Error()
	}
	c.JSON(http.StatusOK, body)
}
