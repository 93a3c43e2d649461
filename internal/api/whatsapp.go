package api

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"whatsapp-hub/internal/store"
	"whatsapp-hub/internal/whatsapp"
	"whatsapp-hub/internal/ws"

	"github.com/gin-gonic/gin"
)

type WhatsAppHandler struct {
	Client *whatsapp.Client
	Store  *store.Store
	Hub    *ws.Hub
	Logger *slog.Logger
}

func NewWhatsAppHandler(client *whatsapp.Client, st *store.Store, hub *ws.Hub, logger *slog.Logger) *WhatsAppHandler {
	return &WhatsAppHandler{
		Client: client,
		Store:  st,
		Hub:    hub,
		Logger: logger.With(slog.String("component", "api")),
	}
}

type SendTextRequest struct {
	To      string `json:"to" binding:"required"`
	Message string `json:"message" binding:"required"`
	ReplyTo string `json:"reply_to"` // wa_message_id to quote
}

// SendText sends a plain text message.
func (h *WhatsAppHandler) SendText(c *gin.Context) {
	var req SendTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg := whatsapp.GenericMessage{
		MessagingProduct: "whatsapp",
		To:               req.To,
		Type:             "text",
		Text:             &whatsapp.TextObj{Body: req.Message},
	}
	if req.ReplyTo != "" {
		msg.Context = &whatsapp.ContextObj{MessageID: req.ReplyTo}
	}

	h.deliver(c, msg)
}

// SendMessage handles unified message sending
func (h *WhatsAppHandler) SendMessage(c *gin.Context) {
	var msg whatsapp.GenericMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Ensure messaging_product is set
	if msg.MessagingProduct == "" {
		msg.MessagingProduct = "whatsapp"
	}
	if msg.To == "" || msg.Type == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to and type are required"})
		return
	}

	h.deliver(c, msg)
}

// deliver posts the composed message and records what went out under the
// id the platform assigned, so later receipts reconcile against it.
func (h *WhatsAppHandler) deliver(c *gin.Context, msg whatsapp.GenericMessage) {
	result, err := h.Client.SendRawMessage(msg)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message: " + err.Error()})
		return
	}

	stored, _, err := h.Store.InsertOutgoingMessage(outgoingRecord(msg, result))
	if err != nil {
		// The message is already on the wire; the send succeeded even if
		// the bookkeeping did not.
		h.Logger.Error("record outgoing message failed",
			slog.String("wa_message_id", result.MessageID),
			slog.Any("error", err))
	} else if h.Hub != nil {
		h.Hub.NotifyMessage(stored)
	}

	c.JSON(http.StatusOK, gin.H{"status": "Message sent", "wa_message_id": result.MessageID})
}

func outgoingRecord(msg whatsapp.GenericMessage, result *whatsapp.SendResult) store.OutgoingMessage {
	out := store.OutgoingMessage{
		WaMessageID: result.MessageID,
		To:          result.RecipientWaID,
		Type:        msg.Type,
		Timestamp:   time.Now().UTC(),
	}
	if msg.Context != nil {
		out.ReplyToWaID = msg.Context.MessageID
	}

	switch {
	case msg.Text != nil:
		out.Body = msg.Text.Body
	case msg.Template != nil:
		out.Body = "Template: " + msg.Template.Name
	case msg.Image != nil:
		recordOutgoingMedia(&out, msg.Image)
	case msg.Video != nil:
		recordOutgoingMedia(&out, msg.Video)
	case msg.Audio != nil:
		recordOutgoingMedia(&out, msg.Audio)
	case msg.Document != nil:
		recordOutgoingMedia(&out, msg.Document)
	case msg.Sticker != nil:
		recordOutgoingMedia(&out, msg.Sticker)
	case msg.Location != nil:
		out.Body = msg.Location.Name
	case msg.Reaction != nil:
		out.Body = msg.Reaction.Emoji
		out.ReplyToWaID = msg.Reaction.MessageID
	case msg.Interactive != nil:
		out.Body = msg.Interactive.Body.Text
	}
	return out
}

func recordOutgoingMedia(out *store.OutgoingMessage, media *whatsapp.MediaObj) {
	out.MediaID = media.ID
	out.MediaCaption = media.Caption
}

// UploadMedia handles media file uploads
func (h *WhatsAppHandler) UploadMedia(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		return
	}

	mimeType := header.Header.Get("Content-Type")

	resp, err := h.Client.UploadMedia(fileBytes, mimeType, header.Filename)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RetrieveMediaURL gets the URL for a media ID
func (h *WhatsAppHandler) RetrieveMediaURL(c *gin.Context) {
	mediaID := c.Param("id")
	if mediaID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Media ID required"})
		return
	}

	url, err := h.Client.RetrieveMediaURL(mediaID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// DownloadMediaProxy proxies the media bytes so dashboard clients do not
// need the WhatsApp token.
func (h *WhatsAppHandler) DownloadMediaProxy(c *gin.Context) {
	mediaID := c.Param("id")
	if mediaID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Media ID required"})
		return
	}

	data, contentType, err := h.Client.DownloadMedia(mediaID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Data(http.StatusOK, contentType, data)
}

// DeleteMedia deletes a media object
func (h *WhatsAppHandler) DeleteMedia(c *gin.Context) {
	mediaID := c.Param("id")
	if mediaID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Media ID required"})
		return
	}

	if err := h.Client.DeleteMedia(mediaID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "Media deleted"})
}

// GetTemplates retrieves templates from Meta
func (h *WhatsAppHandler) GetTemplates(c *gin.Context) {
	templates, err := h.Client.GetTemplates()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, templates)
}
