package api

import (
	"log/slog"
	"net/http"
	"time"

	"whatsapp-hub/internal/store"
	"whatsapp-hub/internal/whatsapp"

	"github.com/gin-gonic/gin"
)

type BroadcastHandler struct {
	Client *whatsapp.Client
	Store  *store.Store
	Logger *slog.Logger
}

func NewBroadcastHandler(client *whatsapp.Client, st *store.Store, logger *slog.Logger) *BroadcastHandler {
	return &BroadcastHandler{
		Client: client,
		Store:  st,
		Logger: logger.With(slog.String("component", "broadcast")),
	}
}

type BroadcastRequest struct {
	TemplateName string   `json:"template_name" binding:"required"`
	Language     string   `json:"language"`
	Contacts     []string `json:"contacts"` // wa_ids; empty means everyone on record
}

// SendBroadcast sends one template message to each listed contact, or to
// every known contact when the list is empty. Sends are independent: a
// rejected recipient is logged and skipped, the rest of the run goes on.
func (h *BroadcastHandler) SendBroadcast(c *gin.Context) {
	var req BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Language == "" {
		req.Language = "en_US"
	}

	targets := req.Contacts
	if len(targets) == 0 {
		contacts, err := h.Store.AllContacts()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		for _, contact := range contacts {
			targets = append(targets, contact.WaID)
		}
	}

	sent := 0
	for _, waID := range targets {
		result, err := h.Client.SendTemplateMessage(waID, req.TemplateName, req.Language)
		if err != nil {
			h.Logger.Warn("broadcast send failed",
				slog.String("wa_id", waID),
				slog.String("template", req.TemplateName),
				slog.Any("error", err))
			continue
		}
		sent++

		if _, _, err := h.Store.InsertOutgoingMessage(store.OutgoingMessage{
			WaMessageID: result.MessageID,
			To:          result.RecipientWaID,
			Type:        "template",
			Body:        "Template: " + req.TemplateName,
			Timestamp:   time.Now().UTC(),
		}); err != nil {
			h.Logger.Error("record broadcast message failed",
				slog.String("wa_message_id", result.MessageID),
				slog.Any("error", err))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "Broadcast processed",
		"sent_to": sent,
		"total":   len(targets),
	})
}
