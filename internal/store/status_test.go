package store

import (
	"testing"
	"time"

	"whatsapp-hub/internal/models"
)

func seedOutgoing(t *testing.T, s *Store, waMessageID, to string) *models.Message {
	t.Helper()
	msg, _, err := s.InsertOutgoingMessage(OutgoingMessage{
		WaMessageID: waMessageID,
		To:          to,
		Type:        "text",
		Body:        "ping",
		Timestamp:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("seed outgoing: %v", err)
	}
	return msg
}

func TestApplyStatus_UpdatesMessageAndAppendsHistory(t *testing.T) {
	s := newTestStore(t)
	seedOutgoing(t, s, "wamid.st.1", "15551230020")
	ts := time.Date(2026, 3, 1, 12, 1, 0, 0, time.UTC)

	matched, err := s.ApplyStatus(StatusChange{
		WaMessageID: "wamid.st.1",
		Status:      models.StatusDelivered,
		Timestamp:   ts,
		RecipientID: "15551230020",
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !matched {
		t.Fatal("expected the receipt to match")
	}

	msg, err := s.GetMessage("wamid.st.1")
	if err != nil {
		t.Fatalf("load message: %v", err)
	}
	if msg.Status != models.StatusDelivered {
		t.Fatalf("expected delivered, got %q", msg.Status)
	}
	if len(msg.StatusHistory) != 1 {
		t.Fatalf("expected one history row, got %d", len(msg.StatusHistory))
	}
	if !msg.StatusHistory[0].Timestamp.Equal(ts) {
		t.Fatalf("history keeps the reported time, got %v", msg.StatusHistory[0].Timestamp)
	}
}

func TestApplyStatus_UnknownMessageStillRecordsHistory(t *testing.T) {
	s := newTestStore(t)

	matched, err := s.ApplyStatus(StatusChange{
		WaMessageID: "wamid.ghost.1",
		Status:      models.StatusDelivered,
		Timestamp:   time.Now().UTC(),
		RecipientID: "15551230021",
	})
	if err != nil {
		t.Fatalf("a reconciliation miss is not an error: %v", err)
	}
	if matched {
		t.Fatal("expected no match")
	}

	var count int64
	if err := s.db.Model(&models.MessageStatusEvent{}).Where("wa_message_id = ?", "wamid.ghost.1").Count(&count).Error; err != nil {
		t.Fatalf("count history: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected the orphan receipt kept, got %d rows", count)
	}
}

func TestApplyStatus_RepeatedMissesAllKept(t *testing.T) {
	s := newTestStore(t)

	statuses := []string{models.StatusSent, models.StatusDelivered, models.StatusRead}
	for i, status := range statuses {
		_, err := s.ApplyStatus(StatusChange{
			WaMessageID: "wamid.ghost.2",
			Status:      status,
			Timestamp:   time.Date(2026, 3, 1, 12, i, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("apply %s: %v", status, err)
		}
	}

	var rows []models.MessageStatusEvent
	if err := s.db.Where("wa_message_id = ?", "wamid.ghost.2").Order("id").Find(&rows).Error; err != nil {
		t.Fatalf("load history: %v", err)
	}
	if len(rows) != len(statuses) {
		t.Fatalf("expected %d rows, got %d", len(statuses), len(rows))
	}
	for i, row := range rows {
		if row.Status != statuses[i] {
			t.Fatalf("row %d: expected %s, got %s", i, statuses[i], row.Status)
		}
	}
}

func TestApplyStatus_OutOfOrderLastWriteWins(t *testing.T) {
	s := newTestStore(t)
	seedOutgoing(t, s, "wamid.st.2", "15551230022")

	if _, err := s.ApplyStatus(StatusChange{
		WaMessageID: "wamid.st.2",
		Status:      models.StatusDelivered,
		Timestamp:   time.Date(2026, 3, 1, 12, 2, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("apply delivered: %v", err)
	}
	// The late-arriving sent receipt still overwrites; ordering lives in
	// the history table, not the message row.
	if _, err := s.ApplyStatus(StatusChange{
		WaMessageID: "wamid.st.2",
		Status:      models.StatusSent,
		Timestamp:   time.Date(2026, 3, 1, 12, 1, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("apply sent: %v", err)
	}

	msg, err := s.GetMessage("wamid.st.2")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if msg.Status != models.StatusSent {
		t.Fatalf("expected last write to win, got %q", msg.Status)
	}
	if len(msg.StatusHistory) != 2 {
		t.Fatalf("expected both receipts kept, got %d", len(msg.StatusHistory))
	}
}

func TestApplyStatus_ConversationRecordedOnce(t *testing.T) {
	s := newTestStore(t)
	seedOutgoing(t, s, "wamid.st.3", "15551230023")
	expires := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	window := &ConversationWindow{
		WaConversationID: "conv-abc",
		Origin:           "service",
		ExpiresAt:        &expires,
	}
	for i := 0; i < 2; i++ {
		_, err := s.ApplyStatus(StatusChange{
			WaMessageID:  "wamid.st.3",
			Status:       models.StatusDelivered,
			Timestamp:    time.Date(2026, 3, 1, 12, i, 0, 0, time.UTC),
			Conversation: window,
		})
		if err != nil {
			t.Fatalf("apply %d: %v", i, err)
		}
	}

	var conversations []models.Conversation
	if err := s.db.Find(&conversations).Error; err != nil {
		t.Fatalf("load conversations: %v", err)
	}
	if len(conversations) != 1 {
		t.Fatalf("expected one conversation row, got %d", len(conversations))
	}

	conv := conversations[0]
	contact, err := s.GetContact("15551230023")
	if err != nil {
		t.Fatalf("load contact: %v", err)
	}
	if conv.ContactID != contact.ID {
		t.Fatalf("conversation belongs to contact %d, got %d", contact.ID, conv.ContactID)
	}
	if conv.Origin != "service" {
		t.Fatalf("expected origin kept, got %q", conv.Origin)
	}
	if conv.ExpiresAt == nil || !conv.ExpiresAt.Equal(expires) {
		t.Fatalf("expected expiration kept, got %v", conv.ExpiresAt)
	}
}

func TestApplyStatus_ConversationSkippedForUnknownMessage(t *testing.T) {
	s := newTestStore(t)

	_, err := s.ApplyStatus(StatusChange{
		WaMessageID: "wamid.ghost.3",
		Status:      models.StatusDelivered,
		Timestamp:   time.Now().UTC(),
		Conversation: &ConversationWindow{
			WaConversationID: "conv-orphan",
			Origin:           "service",
		},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	var count int64
	if err := s.db.Model(&models.Conversation{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("no owning contact, so no window; got %d rows", count)
	}
}

func TestApplyStatus_FailureCarriesErrorDetail(t *testing.T) {
	s := newTestStore(t)
	seedOutgoing(t, s, "wamid.st.4", "15551230024")

	matched, err := s.ApplyStatus(StatusChange{
		WaMessageID: "wamid.st.4",
		Status:      models.StatusFailed,
		Timestamp:   time.Now().UTC(),
		ErrorCode:   131047,
		ErrorTitle:  "Re-engagement message",
		ErrorDetail: "More than 24 hours have passed since the customer last replied",
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !matched {
		t.Fatal("expected match")
	}

	msg, err := s.GetMessage("wamid.st.4")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if msg.Status != models.StatusFailed {
		t.Fatalf("expected failed, got %q", msg.Status)
	}
	hist := msg.StatusHistory[len(msg.StatusHistory)-1]
	if hist.ErrorCode != 131047 || hist.ErrorTitle == "" || hist.ErrorDetail == "" {
		t.Fatalf("expected error fields kept, got %+v", hist)
	}
}
