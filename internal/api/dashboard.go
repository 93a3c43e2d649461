package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"whatsapp-hub/internal/cache"
	"whatsapp-hub/internal/models"
	"whatsapp-hub/internal/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const statsCacheKey = "dashboard:stats"
const statsCacheTTL = 30 * time.Second

type DashboardHandler struct {
	Store  *store.Store
	Cache  cache.Cache // nil when no cache is configured
	Logger *slog.Logger
}

func NewDashboardHandler(st *store.Store, c cache.Cache, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		Store:  st,
		Cache:  c,
		Logger: logger.With(slog.String("component", "api")),
	}
}

// GetStats serves the headline counters, from cache when one is wired.
func (h *DashboardHandler) GetStats(c *gin.Context) {
	if h.Cache != nil {
		if cached, err := h.Cache.Get(c.Request.Context(), statsCacheKey); err == nil {
			c.Data(http.StatusOK, "application/json", []byte(cached))
			return
		}
	}

	stats, err := h.Store.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if h.Cache != nil {
		if encoded, err := json.Marshal(stats); err == nil {
			if err := h.Cache.Set(c.Request.Context(), statsCacheKey, string(encoded), statsCacheTTL); err != nil {
				h.Logger.Warn("cache stats failed", slog.Any("error", err))
			}
		}
	}

	c.JSON(http.StatusOK, stats)
}

// GetMessages lists messages, filtered by query parameters: wa_id,
// direction, type, status, since, until (RFC 3339), limit, offset.
func (h *DashboardHandler) GetMessages(c *gin.Context) {
	filter := store.MessageFilter{
		Direction: c.Query("direction"),
		Type:      c.Query("type"),
		Status:    c.Query("status"),
		Limit:     intQuery(c, "limit"),
		Offset:    intQuery(c, "offset"),
	}

	if waID := c.Query("wa_id"); waID != "" {
		contact, err := h.Store.GetContact(waID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Unknown contact simply matches nothing.
				c.JSON(http.StatusOK, gin.H{"messages": []models.Message{}, "total": 0})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		filter.ContactID = contact.ID
	}

	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since, want RFC 3339"})
			return
		}
		filter.Since = &t
	}
	if raw := c.Query("until"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid until, want RFC 3339"})
			return
		}
		filter.Until = &t
	}

	messages, total, err := h.Store.ListMessages(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages, "total": total})
}

// GetMessage serves one message by its WhatsApp id, with the selection and
// receipt history attached.
func (h *DashboardHandler) GetMessage(c *gin.Context) {
	msg, err := h.Store.GetMessage(c.Param("waMessageId"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, msg)
}

func intQuery(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
