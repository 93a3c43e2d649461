package webhook

import (
	"fmt"
	"strconv"
	"time"

	pkgmodels "whatsapp-hub/pkg/models"
)

// The only payload object this gateway subscribes to.
const objectBusinessAccount = "whatsapp_business_account"

// Normalize flattens a webhook payload into the events it carries, in
// delivery order: for each change, its messages, then its receipts, then
// its change-level errors. Changes for fields other than "messages" are
// skipped. The transform touches no storage.
func Normalize(payload *pkgmodels.WebhookPayload) ([]Event, error) {
	if payload.Object != objectBusinessAccount {
		return nil, fmt.Errorf("unexpected webhook object %q", payload.Object)
	}

	var events []Event
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			value := change.Value

			names := profileNames(value.Contacts)
			for i := range value.Messages {
				msg := &value.Messages[i]
				events = append(events, IncomingMessageEvent{
					Metadata:    value.Metadata,
					From:        msg.From,
					ProfileName: names[msg.From],
					Timestamp:   parseEpoch(msg.Timestamp),
					Message:     msg,
				})
			}

			for _, status := range value.Statuses {
				events = append(events, StatusEvent{
					Metadata:     value.Metadata,
					WaMessageID:  status.ID,
					Status:       status.Status,
					Timestamp:    parseEpoch(status.Timestamp),
					RecipientID:  status.RecipientID,
					Conversation: conversationInfo(status.Conversation),
					Errors:       status.Errors,
				})
			}

			for _, platformErr := range value.Errors {
				events = append(events, ErrorEvent{
					Metadata: value.Metadata,
					Err:      platformErr,
				})
			}
		}
	}
	return events, nil
}

func profileNames(contacts []pkgmodels.NotifiedContact) map[string]string {
	if len(contacts) == 0 {
		return nil
	}
	names := make(map[string]string, len(contacts))
	for _, c := range contacts {
		if c.Profile.Name != "" {
			names[c.WaID] = c.Profile.Name
		}
	}
	return names
}

// parseEpoch converts the epoch-second strings WhatsApp puts in webhook
// records. A value that does not parse falls back to the current time so
// event ordering stays total.
func parseEpoch(s string) time.Time {
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Now().UTC()
	}
	return time.Unix(secs, 0).UTC()
}

func conversationInfo(ci *pkgmodels.ConversationInfo) *ConversationInfo {
	if ci == nil {
		return nil
	}
	info := &ConversationInfo{
		ID:     ci.ID,
		Origin: ci.Origin.Type,
	}
	if ci.ExpirationTimestamp != "" {
		if secs, err := strconv.ParseInt(ci.ExpirationTimestamp, 10, 64); err == nil {
			expires := time.Unix(secs, 0).UTC()
			info.ExpiresAt = &expires
		}
	}
	return info
}
