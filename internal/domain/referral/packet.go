package referral

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/referral/internal/domain/comms"
	"github.com/carebridge/referral/internal/domain/family"
	"github.com/carebridge/referral/internal/domain/insurance"
	"github.com/carebridge/referral/internal/domain/intake"
	"github.com/carebridge/referral/internal/domain/scheduling"
	"github.com/carebridge/referral/internal/domain/screener"
)

// PacketHeader is always present. Its risk flag is the OR of the
// referral flag and the screener session flag.
type PacketHeader struct {
	ReferralID  uuid.UUID  `json:"referral_id"`
	Status      Status     `json:"status"`
	RiskFlag    bool       `json:"risk_flag"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	GeneratedAt time.Time  `json:"generated_at"`
}

type ScreenerSection struct {
	RiskFlag   bool               `json:"risk_flag"`
	Transcript []screener.Message `json:"transcript"`
	Summary    map[string]string  `json:"summary"`
}

type InsuranceSection struct {
	Detail  *insurance.InsuranceDetail   `json:"detail"`
	Uploads []*insurance.InsuranceUpload `json:"uploads,omitempty"`
}

type CostSection struct {
	Estimate   *insurance.CostEstimate `json:"estimate"`
	Disclaimer string                  `json:"disclaimer"`
}

type SchedulingSection struct {
	Timezone           string              `json:"timezone"`
	LocationPreference string              `json:"location_preference"`
	Windows            []scheduling.Window `json:"windows"`
	SuggestedWindows   []scheduling.Window `json:"suggested_windows,omitempty"`
}

type ChatSection struct {
	Thread   *comms.ChatThread    `json:"thread"`
	Messages []*comms.ChatMessage `json:"messages,omitempty"`
}

// PacketDocument is the immutable snapshot handed to rendering and
// archival. Sections whose backing sub-entity is absent are omitted
// from the JSON entirely, never emitted as null.
type PacketDocument struct {
	Header     PacketHeader            `json:"header"`
	Parent     *family.ParentProfile   `json:"parent,omitempty"`
	Child      *family.ChildProfile    `json:"child,omitempty"`
	Screener   *ScreenerSection        `json:"screener,omitempty"`
	Intake     *intake.IntakeResponse  `json:"intake,omitempty"`
	Insurance  *InsuranceSection       `json:"insurance,omitempty"`
	Cost       *CostSection            `json:"cost,omitempty"`
	Scheduling *SchedulingSection      `json:"scheduling,omitempty"`
	Consents   []*intake.ConsentRecord `json:"consents,omitempty"`
	Chats      []ChatSection           `json:"chats,omitempty"`
	Notes      []*comms.AdminNote      `json:"notes,omitempty"`
}

// BuildPacket assembles the snapshot from whatever sub-entities exist
// right now. Pure read; nothing is mutated.
func BuildPacket(ctx context.Context, src *Sources, ref *Referral) (*PacketDocument, error) {
	doc := &PacketDocument{
		Header: PacketHeader{
			ReferralID:  ref.ID,
			Status:      ref.Status,
			RiskFlag:    ref.RiskFlag,
			SubmittedAt: ref.SubmittedAt,
			CreatedAt:   ref.CreatedAt,
			GeneratedAt: time.Now().UTC(),
		},
	}

	if child, err := src.Children.GetChild(ctx, ref.ChildID); err == nil {
		doc.Child = child
		if parent, err := src.Parents.GetParent(ctx, child.ParentID); err == nil {
			doc.Parent = parent
		}
	}

	if session, err := src.Screener.GetSession(ctx, ref.ID); err == nil {
		doc.Screener = &ScreenerSection{
			RiskFlag:   session.RiskFlag,
			Transcript: session.Transcript,
			Summary:    session.Summary,
		}
		doc.Header.RiskFlag = doc.Header.RiskFlag || session.RiskFlag
	}

	if resp, err := src.Intake.GetResponse(ctx, ref.ID); err == nil {
		doc.Intake = resp
	}

	if detail, err := src.Insurance.GetDetail(ctx, ref.ID); err == nil {
		section := &InsuranceSection{Detail: detail}
		if uploads, err := src.Insurance.ListUploads(ctx, ref.ID); err == nil {
			section.Uploads = uploads
		}
		doc.Insurance = section
	}

	if estimate, err := src.Insurance.GetEstimate(ctx, ref.ID); err == nil {
		doc.Cost = &CostSection{Estimate: estimate, Disclaimer: insurance.CostDisclaimer}
	}

	if pref, err := src.Scheduling.GetPreference(ctx, ref.ID); err == nil {
		doc.Scheduling = &SchedulingSection{
			Timezone:           pref.Timezone,
			LocationPreference: pref.LocationPreference,
			Windows:            pref.Windows,
			SuggestedWindows:   pref.SuggestedWindows(),
		}
	}

	if consents, err := src.Consents.ListConsents(ctx, ref.ID); err == nil && len(consents) > 0 {
		doc.Consents = orderConsents(consents)
	}

	if threads, err := src.Comms.ListThreads(ctx, ref.ID); err == nil {
		for _, thread := range threads {
			section := ChatSection{Thread: thread}
			if messages, err := src.Comms.ListMessages(ctx, thread.ID); err == nil {
				section.Messages = messages
			}
			doc.Chats = append(doc.Chats, section)
		}
	}

	if notes, err := src.Comms.ListNotes(ctx, ref.ID); err == nil && len(notes) > 0 {
		doc.Notes = notes
	}

	return doc, nil
}

// orderConsents returns the records in the canonical required-type
// order, with any extra types after.
func orderConsents(records []*intake.ConsentRecord) []*intake.ConsentRecord {
	byType := make(map[string]*intake.ConsentRecord, len(records))
	for _, rec := range records {
		byType[rec.ConsentType] = rec
	}
	ordered := make([]*intake.ConsentRecord, 0, len(records))
	for _, t := range intake.RequiredConsentTypes {
		if rec, ok := byType[t]; ok {
			ordered = append(ordered, rec)
			delete(byType, t)
		}
	}
	for _, rec := range records {
		if _, ok := byType[rec.ConsentType]; ok {
			ordered = append(ordered, rec)
			delete(byType, rec.ConsentType)
		}
	}
	return ordered
}
