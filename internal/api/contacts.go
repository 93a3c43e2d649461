package api

import (
	"encoding/csv"
	"errors"
	"net/http"
	"time"

	"whatsapp-hub/internal/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ContactHandler struct {
	Store *store.Store
}

func NewContactHandler(st *store.Store) *ContactHandler {
	return &ContactHandler{Store: st}
}

// GetContacts lists contacts, most recently active first.
func (h *ContactHandler) GetContacts(c *gin.Context) {
	contacts, total, err := h.Store.ListContacts(intQuery(c, "limit"), intQuery(c, "offset"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"contacts": contacts, "total": total})
}

// GetContactHistory serves one contact's messages, newest first.
func (h *ContactHandler) GetContactHistory(c *gin.Context) {
	contact, messages, err := h.Store.ContactHistory(c.Param("waId"), intQuery(c, "limit"), intQuery(c, "offset"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contact not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"contact": contact, "messages": messages})
}

func (h *ContactHandler) ExportContacts(c *gin.Context) {
	contacts, err := h.Store.AllContacts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=contacts.csv")
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	w.Write([]string{"WhatsApp ID", "Name", "First Seen", "Last Message"})
	for _, contact := range contacts {
		w.Write([]string{
			contact.WaID,
			contact.Name,
			contact.FirstSeenAt.Format(time.RFC3339),
			contact.LastMessageAt.Format(time.RFC3339),
		})
	}
	w.Flush()
}
