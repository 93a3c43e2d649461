package store

import (
	"encoding/json"
	"fmt"
	"time"

	"whatsapp-hub/internal/models"
	pkgmodels "whatsapp-hub/pkg/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InsertIncomingMessage records one inbound message for the given contact.
// The unique index on wa_message_id makes redeliveries a no-op: the stored
// row keeps its original content and inserted reports false. A button or
// list reply also gets its InteractiveSelection row, written in the same
// transaction so it exists exactly when the message row does.
func (s *Store) InsertIncomingMessage(contactID uint, msg *pkgmodels.InboundMessage, ts time.Time) (record *models.Message, inserted bool, err error) {
	row := models.Message{
		WaMessageID: msg.ID,
		ContactID:   contactID,
		Direction:   models.DirectionIncoming,
		Type:        msg.Type,
		Status:      models.StatusReceived,
		Timestamp:   ts,
	}
	if msg.Context != nil {
		row.ReplyToWaID = msg.Context.ID
	}
	if err := extractContent(&row, msg); err != nil {
		return nil, false, fmt.Errorf("extract content of %s: %w", msg.ID, err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "wa_message_id"}},
			DoNothing: true,
		}).Create(&row)
		if res.Error != nil {
			return fmt.Errorf("insert message %s: %w", msg.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		inserted = true

		if sel := selectionFrom(msg); sel != nil {
			sel.MessageID = row.ID
			if err := tx.Create(sel).Error; err != nil {
				return fmt.Errorf("insert selection for %s: %w", msg.ID, err)
			}
			row.Selection = sel
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if !inserted {
		var existing models.Message
		if err := s.db.Where("wa_message_id = ?", msg.ID).First(&existing).Error; err != nil {
			return nil, false, fmt.Errorf("load message %s: %w", msg.ID, err)
		}
		return &existing, false, nil
	}
	return &row, true, nil
}

// OutgoingMessage is a message sent through the Cloud API, recorded after
// the platform assigned its id.
type OutgoingMessage struct {
	WaMessageID  string
	To           string // recipient wa_id
	Type         string
	Body         string
	MediaID      string
	MediaCaption string
	ReplyToWaID  string
	Timestamp    time.Time
}

// InsertOutgoingMessage records a message this gateway sent. The recipient
// contact is created on first send. Duplicate platform ids are a no-op,
// same as the inbound path.
func (s *Store) InsertOutgoingMessage(out OutgoingMessage) (*models.Message, bool, error) {
	contact, err := s.UpsertContact(out.To, "", out.Timestamp)
	if err != nil {
		return nil, false, err
	}

	row := models.Message{
		WaMessageID:  out.WaMessageID,
		ContactID:    contact.ID,
		Direction:    models.DirectionOutgoing,
		Type:         out.Type,
		Body:         out.Body,
		MediaID:      out.MediaID,
		MediaCaption: out.MediaCaption,
		ReplyToWaID:  out.ReplyToWaID,
		Status:       models.StatusSent,
		Timestamp:    out.Timestamp,
	}
	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wa_message_id"}},
		DoNothing: true,
	}).Create(&row)
	if res.Error != nil {
		return nil, false, fmt.Errorf("insert outgoing message %s: %w", out.WaMessageID, res.Error)
	}
	if res.RowsAffected == 0 {
		var existing models.Message
		if err := s.db.Where("wa_message_id = ?", out.WaMessageID).First(&existing).Error; err != nil {
			return nil, false, fmt.Errorf("load message %s: %w", out.WaMessageID, err)
		}
		return &existing, false, nil
	}
	return &row, true, nil
}

// extractContent maps the kind-specific part of a webhook message record
// onto the flat row. Kinds without dedicated columns keep their nested
// object in the payload column; kinds this build does not know keep the
// whole raw record there.
func extractContent(row *models.Message, msg *pkgmodels.InboundMessage) error {
	switch msg.Type {
	case "text":
		if msg.Text != nil {
			row.Body = msg.Text.Body
		}
	case "image":
		applyMedia(row, msg.Image)
	case "video":
		applyMedia(row, msg.Video)
	case "audio":
		applyMedia(row, msg.Audio)
	case "document":
		applyMedia(row, msg.Document)
	case "sticker":
		applyMedia(row, msg.Sticker)
	case "location":
		if msg.Location != nil {
			lat, lon := msg.Location.Latitude, msg.Location.Longitude
			row.Latitude = &lat
			row.Longitude = &lon
			row.LocationName = msg.Location.Name
			row.LocationAddress = msg.Location.Address
		}
	case "contacts":
		if len(msg.Contacts) > 0 {
			row.Payload = datatypes.JSON(msg.Contacts)
		}
	case "interactive":
		if msg.Interactive != nil {
			switch {
			case msg.Interactive.ButtonReply != nil:
				row.Body = msg.Interactive.ButtonReply.Title
			case msg.Interactive.ListReply != nil:
				row.Body = msg.Interactive.ListReply.Title
			case msg.Interactive.NfmReply != nil:
				row.Body = msg.Interactive.NfmReply.Body
			}
			return setPayload(row, msg.Interactive)
		}
	case "button":
		if msg.Button != nil {
			row.Body = msg.Button.Text
			return setPayload(row, msg.Button)
		}
	case "reaction":
		if msg.Reaction != nil {
			row.Body = msg.Reaction.Emoji
			return setPayload(row, msg.Reaction)
		}
	case "system":
		if len(msg.System) > 0 {
			row.Payload = datatypes.JSON(msg.System)
		}
	default:
		if len(msg.Raw) > 0 {
			row.Payload = datatypes.JSON(msg.Raw)
		}
	}
	return nil
}

func applyMedia(row *models.Message, media *pkgmodels.MediaMessage) {
	if media == nil {
		return
	}
	row.MediaID = media.ID
	row.MediaMimeType = media.MimeType
	row.MediaFilename = media.Filename
	row.MediaCaption = media.Caption
}

func setPayload(row *models.Message, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	row.Payload = datatypes.JSON(b)
	return nil
}

// selectionFrom returns the interactive selection carried by msg, or nil
// for everything that is not a button or list reply.
func selectionFrom(msg *pkgmodels.InboundMessage) *models.InteractiveSelection {
	if msg.Interactive == nil {
		return nil
	}
	switch {
	case msg.Interactive.ButtonReply != nil:
		reply := msg.Interactive.ButtonReply
		return &models.InteractiveSelection{
			Kind:        models.SelectionKindButton,
			SelectionID: reply.ID,
			Title:       reply.Title,
		}
	case msg.Interactive.ListReply != nil:
		reply := msg.Interactive.ListReply
		return &models.InteractiveSelection{
			Kind:        models.SelectionKindList,
			SelectionID: reply.ID,
			Title:       reply.Title,
			Description: reply.Description,
		}
	}
	return nil
}
