package webhook

import (
	"log/slog"
	"net/http"

	"whatsapp-hub/internal/config"
	"whatsapp-hub/internal/store"
	"whatsapp-hub/internal/ws"
	pkgmodels "whatsapp-hub/pkg/models"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Config *config.Config
	Store  *store.Store
	Hub    *ws.Hub
	Logger *slog.Logger
}

func NewHandler(cfg *config.Config, st *store.Store, hub *ws.Hub, logger *slog.Logger) *Handler {
	return &Handler{
		Config: cfg,
		Store:  st,
		Hub:    hub,
		Logger: logger.With(slog.String("component", "webhook")),
	}
}

// VerifyWebhook answers the Meta subscription handshake.
func (h *Handler) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "" && token != "" {
		if mode == "subscribe" && token == h.Config.VerifyToken {
			h.Logger.Info("webhook verified")
			c.String(http.StatusOK, challenge)
		} else {
			c.Status(http.StatusForbidden)
		}
	} else {
		c.Status(http.StatusBadRequest)
	}
}

// HandleMessage ingests one webhook delivery. Only a payload that fails
// shape validation is rejected; once the shape is good WhatsApp gets its
// 200 no matter how individual items fare, because the platform retries
// the whole delivery otherwise and every write here is idempotent anyway.
func (h *Handler) HandleMessage(c *gin.Context) {
	var payload pkgmodels.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.Logger.Warn("reject malformed webhook payload", slog.Any("error", err))
		c.Status(http.StatusBadRequest)
		return
	}

	events, err := Normalize(&payload)
	if err != nil {
		h.Logger.Warn("reject webhook payload", slog.Any("error", err))
		c.Status(http.StatusBadRequest)
		return
	}

	// Items are independent: one bad record must not cost the rest of
	// the batch.
	for _, event := range events {
		switch ev := event.(type) {
		case IncomingMessageEvent:
			h.handleIncomingMessage(ev)
		case StatusEvent:
			h.handleStatus(ev)
		case ErrorEvent:
			h.handlePlatformError(ev)
		}
	}

	c.Status(http.StatusOK)
}

func (h *Handler) handleIncomingMessage(ev IncomingMessageEvent) {
	contact, err := h.Store.UpsertContact(ev.From, ev.ProfileName, ev.Timestamp)
	if err != nil {
		h.Logger.Error("upsert contact failed",
			slog.String("wa_id", ev.From),
			slog.Any("error", err))
		return
	}

	msg, inserted, err := h.Store.InsertIncomingMessage(contact.ID, ev.Message, ev.Timestamp)
	if err != nil {
		h.Logger.Error("store message failed",
			slog.String("wa_message_id", ev.Message.ID),
			slog.Any("error", err))
		return
	}
	if !inserted {
		h.Logger.Info("duplicate delivery ignored",
			slog.String("wa_message_id", msg.WaMessageID))
		return
	}

	h.Logger.Info("message stored",
		slog.String("wa_message_id", msg.WaMessageID),
		slog.String("from", ev.From),
		slog.String("type", msg.Type))
	if h.Hub != nil {
		h.Hub.NotifyMessage(msg)
	}
}

func (h *Handler) handleStatus(ev StatusEvent) {
	change := store.StatusChange{
		WaMessageID: ev.WaMessageID,
		Status:      ev.Status,
		Timestamp:   ev.Timestamp,
		RecipientID: ev.RecipientID,
	}
	if len(ev.Errors) > 0 {
		first := ev.Errors[0]
		change.ErrorCode = first.Code
		change.ErrorTitle = first.Title
		change.ErrorDetail = first.Message
		if first.ErrorData != nil && first.ErrorData.Details != "" {
			change.ErrorDetail = first.ErrorData.Details
		}
	}
	if ev.Conversation != nil {
		change.Conversation = &store.ConversationWindow{
			WaConversationID: ev.Conversation.ID,
			Origin:           ev.Conversation.Origin,
			ExpiresAt:        ev.Conversation.ExpiresAt,
		}
	}

	matched, err := h.Store.ApplyStatus(change)
	if err != nil {
		h.Logger.Error("apply status failed",
			slog.String("wa_message_id", ev.WaMessageID),
			slog.String("status", ev.Status),
			slog.Any("error", err))
		return
	}
	if !matched {
		h.Logger.Warn("receipt for unknown message",
			slog.String("wa_message_id", ev.WaMessageID),
			slog.String("status", ev.Status))
	}
	if h.Hub != nil {
		h.Hub.NotifyStatus(ev.WaMessageID, ev.Status)
	}
}

func (h *Handler) handlePlatformError(ev ErrorEvent) {
	h.Logger.Error("platform reported error",
		slog.Int("code", ev.Err.Code),
		slog.String("title", ev.Err.Title),
		slog.String("detail", ev.Err.Message),
		slog.String("phone_number_id", ev.Metadata.PhoneNumberID))
	if h.Hub != nil {
		h.Hub.NotifyPlatformError(ev.Err.Code, ev.Err.Title)
	}
}
