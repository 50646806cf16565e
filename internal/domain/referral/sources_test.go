package referral

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/referral/internal/domain/comms"
	"github.com/carebridge/referral/internal/domain/family"
	"github.com/carebridge/referral/internal/domain/insurance"
	"github.com/carebridge/referral/internal/domain/intake"
	"github.com/carebridge/referral/internal/domain/scheduling"
	"github.com/carebridge/referral/internal/domain/screener"
)

var errNotFound = fmt.Errorf("not found")

// fakeSources satisfies every Sources interface from in-memory fields.
// A nil field behaves like a missing sub-entity.
type fakeSources struct {
	child    *family.ChildProfile
	parent   *family.ParentProfile
	response *intake.IntakeResponse
	consents []*intake.ConsentRecord
	detail   *insurance.InsuranceDetail
	uploads  []*insurance.InsuranceUpload
	estimate *insurance.CostEstimate
	pref     *scheduling.SchedulingPreference
	session  *screener.Session
	threads  []*comms.ChatThread
	messages map[uuid.UUID][]*comms.ChatMessage
	notes    []*comms.AdminNote
}

func (f *fakeSources) GetChild(_ context.Context, _ uuid.UUID) (*family.ChildProfile, error) {
	if f.child == nil {
		return nil, errNotFound
	}
	return f.child, nil
}

func (f *fakeSources) GetParent(_ context.Context, _ uuid.UUID) (*family.ParentProfile, error) {
	if f.parent == nil {
		return nil, errNotFound
	}
	return f.parent, nil
}

func (f *fakeSources) GetResponse(_ context.Context, _ uuid.UUID) (*intake.IntakeResponse, error) {
	if f.response == nil {
		return nil, errNotFound
	}
	return f.response, nil
}

func (f *fakeSources) ListConsents(_ context.Context, _ uuid.UUID) ([]*intake.ConsentRecord, error) {
	return f.consents, nil
}

func (f *fakeSources) GetDetail(_ context.Context, _ uuid.UUID) (*insurance.InsuranceDetail, error) {
	if f.detail == nil {
		return nil, errNotFound
	}
	return f.detail, nil
}

func (f *fakeSources) ListUploads(_ context.Context, _ uuid.UUID) ([]*insurance.InsuranceUpload, error) {
	return f.uploads, nil
}

func (f *fakeSources) GetEstimate(_ context.Context, _ uuid.UUID) (*insurance.CostEstimate, error) {
	if f.estimate == nil {
		return nil, errNotFound
	}
	return f.estimate, nil
}

func (f *fakeSources) GetPreference(_ context.Context, _ uuid.UUID) (*scheduling.SchedulingPreference, error) {
	if f.pref == nil {
		return nil, errNotFound
	}
	return f.pref, nil
}

func (f *fakeSources) GetSession(_ context.Context, _ uuid.UUID) (*screener.Session, error) {
	if f.session == nil {
		return nil, errNotFound
	}
	return f.session, nil
}

func (f *fakeSources) ListThreads(_ context.Context, _ uuid.UUID) ([]*comms.ChatThread, error) {
	return f.threads, nil
}

func (f *fakeSources) ListMessages(_ context.Context, threadID uuid.UUID) ([]*comms.ChatMessage, error) {
	return f.messages[threadID], nil
}

func (f *fakeSources) ListNotes(_ context.Context, _ uuid.UUID) ([]*comms.AdminNote, error) {
	return f.notes, nil
}

func (f *fakeSources) sources() *Sources {
	return &Sources{
		Children:   f,
		Parents:    f,
		Intake:     f,
		Consents:   f,
		Insurance:  f,
		Scheduling: f,
		Screener:   f,
		Comms:      f,
	}
}

// completeFakeSources returns a fixture that passes every readiness
// check.
func completeFakeSources() *fakeSources {
	parentID := uuid.New()
	band := "10_12"
	f := &fakeSources{
		parent: &family.ParentProfile{
			ID: parentID, Name: "Dana Whitfield", Email: "dana@example.com", Phone: "555-0101",
		},
		child: &family.ChildProfile{
			ID: uuid.New(), ParentID: parentID, Name: "Riley",
			AgeBand: &band, Grade: "6", School: "Lincoln MS", District: "Unified",
		},
		response: &intake.IntakeResponse{
			ID:      uuid.New(),
			Answers: map[string]interface{}{"primary_concern": "anxiety"},
		},
		detail: &insurance.InsuranceDetail{ID: uuid.New(), Status: "insured"},
		pref: &scheduling.SchedulingPreference{
			ID: uuid.New(), Timezone: "America/New_York", LocationPreference: "telehealth",
			Windows: []scheduling.Window{{Day: "tuesday", Start: "15:00", End: "17:00"}},
		},
	}
	now := time.Now().UTC()
	for _, t := range intake.RequiredConsentTypes {
		f.consents = append(f.consents, &intake.ConsentRecord{
			ID: uuid.New(), ConsentType: t, AcceptedAt: now,
		})
	}
	return f
}
