package store

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"whatsapp-hub/internal/models"

	"gorm.io/gorm"
)

// seedTraffic loads two contacts with a small mixed history:
// four incoming texts and one image spread across both, plus one
// outgoing reply. Returns the two contacts, most recent last.
func seedTraffic(t *testing.T, s *Store) (*models.Contact, *models.Contact) {
	t.Helper()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	alice, err := s.UpsertContact("15551230030", "Alice", base)
	if err != nil {
		t.Fatalf("seed alice: %v", err)
	}
	for i := 0; i < 3; i++ {
		raw := fmt.Sprintf(`{"from":"15551230030","id":"wamid.q.in.%d","timestamp":"1767270000","type":"text","text":{"body":"message %d"}}`, i, i)
		_, _, err := s.InsertIncomingMessage(alice.ID, decodeInbound(t, raw), base.Add(time.Duration(i)*time.Minute))
		if err != nil {
			t.Fatalf("seed incoming %d: %v", i, err)
		}
	}
	if _, _, err := s.InsertOutgoingMessage(OutgoingMessage{
		WaMessageID: "wamid.q.out.0",
		To:          "15551230030",
		Type:        "text",
		Body:        "reply",
		Timestamp:   base.Add(10 * time.Minute),
	}); err != nil {
		t.Fatalf("seed outgoing: %v", err)
	}

	bob, err := s.UpsertContact("15551230031", "Bob", base.Add(20*time.Minute))
	if err != nil {
		t.Fatalf("seed bob: %v", err)
	}
	img := `{"from":"15551230031","id":"wamid.q.in.img","timestamp":"1767270000","type":"image","image":{"id":"media-1","mime_type":"image/jpeg"}}`
	if _, _, err := s.InsertIncomingMessage(bob.ID, decodeInbound(t, img), base.Add(20*time.Minute)); err != nil {
		t.Fatalf("seed image: %v", err)
	}

	return alice, bob
}

func TestStats_CountsAndBreakdowns(t *testing.T) {
	s := newTestStore(t)
	seedTraffic(t, s)

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalMessages != 5 {
		t.Fatalf("expected 5 messages, got %d", stats.TotalMessages)
	}
	if stats.TotalContacts != 2 {
		t.Fatalf("expected 2 contacts, got %d", stats.TotalContacts)
	}
	if stats.ByDirection[models.DirectionIncoming] != 4 || stats.ByDirection[models.DirectionOutgoing] != 1 {
		t.Fatalf("unexpected direction breakdown: %v", stats.ByDirection)
	}
	if stats.ByType["text"] != 4 || stats.ByType["image"] != 1 {
		t.Fatalf("unexpected type breakdown: %v", stats.ByType)
	}
	if stats.ByStatus[models.StatusReceived] != 4 || stats.ByStatus[models.StatusSent] != 1 {
		t.Fatalf("unexpected status breakdown: %v", stats.ByStatus)
	}
}

func TestListMessages_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	seedTraffic(t, s)

	messages, total, err := s.ListMessages(MessageFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 5 || len(messages) != 5 {
		t.Fatalf("expected all 5, got %d of %d", len(messages), total)
	}
	if messages[0].WaMessageID != "wamid.q.in.img" {
		t.Fatalf("expected the most recent message first, got %s", messages[0].WaMessageID)
	}
	for i := 1; i < len(messages); i++ {
		if messages[i].Timestamp.After(messages[i-1].Timestamp) {
			t.Fatalf("messages out of order at %d", i)
		}
	}
}

func TestListMessages_Filters(t *testing.T) {
	s := newTestStore(t)
	alice, _ := seedTraffic(t, s)

	_, total, err := s.ListMessages(MessageFilter{Direction: models.DirectionIncoming})
	if err != nil {
		t.Fatalf("by direction: %v", err)
	}
	if total != 4 {
		t.Fatalf("expected 4 incoming, got %d", total)
	}

	messages, total, err := s.ListMessages(MessageFilter{Type: "image"})
	if err != nil {
		t.Fatalf("by type: %v", err)
	}
	if total != 1 || messages[0].WaMessageID != "wamid.q.in.img" {
		t.Fatalf("expected the lone image, got %d rows", total)
	}

	_, total, err = s.ListMessages(MessageFilter{ContactID: alice.ID})
	if err != nil {
		t.Fatalf("by contact: %v", err)
	}
	if total != 4 {
		t.Fatalf("expected 4 messages for alice, got %d", total)
	}

	since := time.Date(2026, 3, 1, 10, 10, 0, 0, time.UTC)
	_, total, err = s.ListMessages(MessageFilter{Since: &since})
	if err != nil {
		t.Fatalf("by since: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 messages at or after %v, got %d", since, total)
	}
}

func TestListMessages_PaginationKeepsTotal(t *testing.T) {
	s := newTestStore(t)
	seedTraffic(t, s)

	page, total, err := s.ListMessages(MessageFilter{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected a 2 row page, got %d", len(page))
	}
	if total != 5 {
		t.Fatalf("total reports all matches, got %d", total)
	}
}

func TestGetMessage_PreloadsRelations(t *testing.T) {
	s := newTestStore(t)
	seedTraffic(t, s)

	if _, err := s.ApplyStatus(StatusChange{
		WaMessageID: "wamid.q.out.0",
		Status:      models.StatusDelivered,
		Timestamp:   time.Date(2026, 3, 1, 10, 11, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("apply status: %v", err)
	}

	msg, err := s.GetMessage("wamid.q.out.0")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if msg.Contact == nil || msg.Contact.WaID != "15551230030" {
		t.Fatal("expected the owning contact preloaded")
	}
	if len(msg.StatusHistory) != 1 {
		t.Fatalf("expected the receipt preloaded, got %d", len(msg.StatusHistory))
	}
}

func TestGetMessage_Unknown(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetMessage("wamid.nope")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected gorm.ErrRecordNotFound, got %v", err)
	}
}

func TestContactHistory_NewestFirstPage(t *testing.T) {
	s := newTestStore(t)
	seedTraffic(t, s)

	contact, messages, err := s.ContactHistory("15551230030", 2, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if contact.Name != "Alice" {
		t.Fatalf("expected alice, got %q", contact.Name)
	}
	if len(messages) != 2 {
		t.Fatalf("expected a 2 row page, got %d", len(messages))
	}
	if messages[0].WaMessageID != "wamid.q.out.0" {
		t.Fatalf("expected the outgoing reply first, got %s", messages[0].WaMessageID)
	}
}

func TestContactHistory_UnknownContact(t *testing.T) {
	s := newTestStore(t)

	_, _, err := s.ContactHistory("19990000000", 0, 0)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected gorm.ErrRecordNotFound, got %v", err)
	}
}

func TestListContacts_MostRecentlyActiveFirst(t *testing.T) {
	s := newTestStore(t)
	seedTraffic(t, s)

	contacts, total, err := s.ListContacts(0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(contacts) != 2 {
		t.Fatalf("expected both contacts, got %d of %d", len(contacts), total)
	}
	if contacts[0].WaID != "15551230031" {
		t.Fatalf("expected the most recently active contact first, got %s", contacts[0].WaID)
	}
}
