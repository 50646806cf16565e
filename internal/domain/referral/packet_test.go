package referral

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/referral/internal/domain/comms"
	"github.com/carebridge/referral/internal/domain/intake"
	"github.com/carebridge/referral/internal/domain/screener"
)

func TestBuildPacket_OmitsAbsentSections(t *testing.T) {
	f := &fakeSources{}
	ref := newDraft()

	doc, err := BuildPacket(context.Background(), f.sources(), ref)
	if err != nil {
		t.Fatalf("BuildPacket failed: %v", err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["header"]; !ok {
		t.Error("header must always be present")
	}
	for _, key := range []string{"parent", "child", "screener", "intake", "insurance", "cost", "scheduling", "consents", "chats", "notes"} {
		if _, ok := raw[key]; ok {
			t.Errorf("absent sub-entity must omit key %q, not render it", key)
		}
	}
}

func TestBuildPacket_FullDocument(t *testing.T) {
	f := completeFakeSources()
	threadID := uuid.New()
	f.threads = []*comms.ChatThread{{ID: threadID, Subject: "Scheduling question"}}
	f.messages = map[uuid.UUID][]*comms.ChatMessage{
		threadID: {{ID: uuid.New(), ThreadID: threadID, Body: "When can we book?"}},
	}
	f.notes = []*comms.AdminNote{{ID: uuid.New(), Body: "Insurance verified."}}

	ref := newDraft()
	doc, err := BuildPacket(context.Background(), f.sources(), ref)
	if err != nil {
		t.Fatalf("BuildPacket failed: %v", err)
	}
	if doc.Parent == nil || doc.Child == nil || doc.Intake == nil ||
		doc.Insurance == nil || doc.Scheduling == nil {
		t.Fatal("expected all populated sections present")
	}
	if len(doc.Chats) != 1 || len(doc.Chats[0].Messages) != 1 {
		t.Errorf("expected chat thread with one message, got %+v", doc.Chats)
	}
	if len(doc.Notes) != 1 {
		t.Errorf("expected one note, got %d", len(doc.Notes))
	}
	if len(doc.Scheduling.SuggestedWindows) == 0 {
		t.Error("expected suggested windows derived from raw windows")
	}
}

func TestBuildPacket_RiskFlagMerged(t *testing.T) {
	f := completeFakeSources()
	f.session = &screener.Session{
		RiskFlag:   true,
		Transcript: []screener.Message{{Role: screener.RoleUser, Content: "I feel unsafe"}},
		Summary:    map[string]string{},
	}
	ref := newDraft()
	ref.RiskFlag = false

	doc, err := BuildPacket(context.Background(), f.sources(), ref)
	if err != nil {
		t.Fatal(err)
	}
	if !doc.Header.RiskFlag {
		t.Error("header risk flag must merge the session flag")
	}
	if doc.Screener == nil || !doc.Screener.RiskFlag {
		t.Error("screener section must carry its own flag")
	}
}

func TestBuildPacket_ConsentsOrderedByType(t *testing.T) {
	f := completeFakeSources()
	// Shuffle: reverse the acceptance order.
	reversed := make([]*intake.ConsentRecord, len(f.consents))
	for i, rec := range f.consents {
		reversed[len(f.consents)-1-i] = rec
	}
	f.consents = reversed

	doc, err := BuildPacket(context.Background(), f.sources(), newDraft())
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Consents) != len(intake.RequiredConsentTypes) {
		t.Fatalf("expected %d consents, got %d", len(intake.RequiredConsentTypes), len(doc.Consents))
	}
	for i, want := range intake.RequiredConsentTypes {
		if doc.Consents[i].ConsentType != want {
			t.Errorf("position %d: expected %s, got %s", i, want, doc.Consents[i].ConsentType)
		}
	}
}

func TestBuildPacket_HeaderFields(t *testing.T) {
	f := completeFakeSources()
	ref := newDraft()
	ref.Status = StatusSubmitted
	now := time.Now().UTC()
	ref.SubmittedAt = &now

	doc, err := BuildPacket(context.Background(), f.sources(), ref)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Header.ReferralID != ref.ID || doc.Header.Status != StatusSubmitted {
		t.Errorf("unexpected header: %+v", doc.Header)
	}
	if doc.Header.SubmittedAt == nil {
		t.Error("expected submitted_at in header")
	}
	if doc.Header.GeneratedAt.IsZero() {
		t.Error("expected generated_at stamp")
	}
}
