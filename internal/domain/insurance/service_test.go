package insurance

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carebridge/referral/internal/platform/jobs"
)

type mockDetailRepo struct {
	byReferral map[uuid.UUID]*InsuranceDetail
}

func newMockDetailRepo() *mockDetailRepo {
	return &mockDetailRepo{byReferral: make(map[uuid.UUID]*InsuranceDetail)}
}

func (m *mockDetailRepo) Upsert(_ context.Context, d *InsuranceDetail) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	m.byReferral[d.ReferralID] = d
	return nil
}

func (m *mockDetailRepo) GetByReferral(_ context.Context, referralID uuid.UUID) (*InsuranceDetail, error) {
	d, ok := m.byReferral[referralID]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return d, nil
}

type mockUploadRepo struct {
	uploads map[uuid.UUID]*InsuranceUpload
}

func newMockUploadRepo() *mockUploadRepo {
	return &mockUploadRepo{uploads: make(map[uuid.UUID]*InsuranceUpload)}
}

func (m *mockUploadRepo) Create(_ context.Context, u *InsuranceUpload) error {
	u.ID = uuid.New()
	if u.Status == "" {
		u.Status = UploadPending
	}
	m.uploads[u.ID] = u
	return nil
}

func (m *mockUploadRepo) GetByID(_ context.Context, id uuid.UUID) (*InsuranceUpload, error) {
	u, ok := m.uploads[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return u, nil
}

func (m *mockUploadRepo) UpdateScan(_ context.Context, id uuid.UUID, status string, confidence *float64) error {
	u, ok := m.uploads[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	u.Status = status
	u.Confidence = confidence
	return nil
}

func (m *mockUploadRepo) ListByReferral(_ context.Context, referralID uuid.UUID) ([]*InsuranceUpload, error) {
	var out []*InsuranceUpload
	for _, u := range m.uploads {
		if u.ReferralID == referralID {
			out = append(out, u)
		}
	}
	return out, nil
}

type mockEstimateRepo struct {
	byReferral map[uuid.UUID]*CostEstimate
	failUpsert bool
}

func newMockEstimateRepo() *mockEstimateRepo {
	return &mockEstimateRepo{byReferral: make(map[uuid.UUID]*CostEstimate)}
}

func (m *mockEstimateRepo) Upsert(_ context.Context, e *CostEstimate) error {
	if m.failUpsert {
		return fmt.Errorf("estimate store unavailable")
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	m.byReferral[e.ReferralID] = e
	return nil
}

func (m *mockEstimateRepo) GetByReferral(_ context.Context, referralID uuid.UUID) (*CostEstimate, error) {
	e, ok := m.byReferral[referralID]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return e, nil
}

func newTestService() (*Service, *mockDetailRepo, *mockUploadRepo, *mockEstimateRepo, *jobs.MemoryQueue) {
	details := newMockDetailRepo()
	uploads := newMockUploadRepo()
	estimates := newMockEstimateRepo()
	queue := jobs.NewMemoryQueue(16)
	svc := NewService(details, uploads, estimates, queue, zerolog.Nop())
	return svc, details, uploads, estimates, queue
}

func TestSaveDetail_RefreshesEstimate(t *testing.T) {
	svc, _, _, estimates, _ := newTestService()
	referralID := uuid.New()

	d := &InsuranceDetail{ReferralID: referralID, Status: "insured"}
	if err := svc.SaveDetail(context.Background(), d); err != nil {
		t.Fatalf("SaveDetail failed: %v", err)
	}
	e, ok := estimates.byReferral[referralID]
	if !ok {
		t.Fatal("expected estimate to be computed")
	}
	if e.EstimatedCents != 4000 {
		t.Errorf("expected 4000 cents for insured, got %d", e.EstimatedCents)
	}
}

func TestSaveDetail_SucceedsWhenRefreshFails(t *testing.T) {
	svc, details, _, estimates, _ := newTestService()
	estimates.failUpsert = true
	referralID := uuid.New()

	d := &InsuranceDetail{ReferralID: referralID, Status: "self_pay"}
	if err := svc.SaveDetail(context.Background(), d); err != nil {
		t.Fatalf("detail save must not fail on estimate refresh error: %v", err)
	}
	if _, ok := details.byReferral[referralID]; !ok {
		t.Error("detail should be saved despite refresh failure")
	}
}

func TestSaveDetail_InvalidStatus(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	d := &InsuranceDetail{ReferralID: uuid.New(), Status: "maybe"}
	if err := svc.SaveDetail(context.Background(), d); err == nil {
		t.Fatal("expected validation error for unknown status")
	}
}

func TestRefreshEstimate_NoDetail(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	if err := svc.RefreshEstimate(context.Background(), uuid.New()); err == nil {
		t.Fatal("expected error when no insurance detail exists")
	}
}

func TestRegisterUpload_EnqueuesScan(t *testing.T) {
	svc, _, _, _, queue := newTestService()
	referralID := uuid.New()

	u := &InsuranceUpload{ReferralID: referralID, FileName: "card-front.jpg"}
	if err := svc.RegisterUpload(context.Background(), u); err != nil {
		t.Fatalf("RegisterUpload failed: %v", err)
	}
	if u.Status != UploadPending {
		t.Errorf("expected pending status, got %q", u.Status)
	}
	if queue.Len() != 1 {
		t.Fatalf("expected 1 enqueued job, got %d", queue.Len())
	}
	job, err := queue.Dequeue(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if job.Type != jobs.TypeScanUpload {
		t.Errorf("expected %s job, got %s", jobs.TypeScanUpload, job.Type)
	}
	if job.Payload["upload_id"] != u.ID.String() {
		t.Errorf("expected upload_id %s, got %s", u.ID, job.Payload["upload_id"])
	}
}

func TestScanUpload(t *testing.T) {
	svc, _, uploads, _, _ := newTestService()
	u := &InsuranceUpload{ReferralID: uuid.New(), FileName: "card.jpg"}
	if err := uploads.Create(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	if err := svc.ScanUpload(context.Background(), u.ID, 0.93); err != nil {
		t.Fatalf("ScanUpload failed: %v", err)
	}
	if u.Status != UploadScanned {
		t.Errorf("expected scanned, got %q", u.Status)
	}
	if u.Confidence == nil || *u.Confidence != 0.93 {
		t.Errorf("expected confidence 0.93, got %v", u.Confidence)
	}
}

func TestScanUpload_ZeroConfidenceFails(t *testing.T) {
	svc, _, uploads, _, _ := newTestService()
	u := &InsuranceUpload{ReferralID: uuid.New(), FileName: "blurry.jpg"}
	if err := uploads.Create(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	if err := svc.ScanUpload(context.Background(), u.ID, 0); err != nil {
		t.Fatalf("ScanUpload failed: %v", err)
	}
	if u.Status != UploadFailed {
		t.Errorf("expected failed, got %q", u.Status)
	}
}
