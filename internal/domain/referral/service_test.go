package referral

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carebridge/referral/internal/platform/jobs"
	"github.com/carebridge/referral/internal/platform/notify"
)

type mockRepo struct {
	mu        sync.Mutex
	referrals map[uuid.UUID]*Referral
	packets   map[uuid.UUID][]byte
	purged    map[uuid.UUID]bool
	failSave  bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		referrals: make(map[uuid.UUID]*Referral),
		packets:   make(map[uuid.UUID][]byte),
		purged:    make(map[uuid.UUID]bool),
	}
}

func (m *mockRepo) Create(_ context.Context, r *Referral) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = uuid.New()
	r.CreatedAt = time.Now().UTC()
	cp := *r
	m.referrals[r.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Referral, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.referrals[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Referral, error) {
	// The tx runner in newTestEnv serializes whole units, which is the
	// lock the production query takes per row.
	return m.GetByID(ctx, id)
}

func (m *mockRepo) Update(_ context.Context, r *Referral) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.referrals[r.ID]; !ok {
		return errNotFound
	}
	cp := *r
	m.referrals[r.ID] = &cp
	return nil
}

func (m *mockRepo) ListByChild(_ context.Context, childID uuid.UUID) ([]*Referral, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Referral
	for _, r := range m.referrals {
		if r.ChildID == childID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRepo) ActiveForChild(_ context.Context, childID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uuid.UUID
	for _, r := range m.referrals {
		if r.ChildID == childID && r.Status.Active() {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}

func (m *mockRepo) SetRiskFlag(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.referrals[id]
	if !ok {
		return errNotFound
	}
	r.RiskFlag = true
	return nil
}

func (m *mockRepo) SavePacket(_ context.Context, referralID uuid.UUID, document []byte, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave {
		return errors.New("packet store unavailable")
	}
	m.packets[referralID] = document
	return nil
}

func (m *mockRepo) GetPacket(_ context.Context, referralID uuid.UUID) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.packets[referralID]
	if !ok {
		return nil, errNotFound
	}
	return doc, nil
}

func (m *mockRepo) Purge(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purged[id] = true
	return nil
}

type testEnv struct {
	svc    *Service
	repo   *mockRepo
	src    *fakeSources
	queue  *jobs.MemoryQueue
	events *notify.Recorder
}

// newTestEnv wires the service with a serializing tx runner so two
// concurrent atomic units cannot interleave, matching the database's
// row-lock behavior.
func newTestEnv() *testEnv {
	repo := newMockRepo()
	src := completeFakeSources()
	queue := jobs.NewMemoryQueue(16)
	events := &notify.Recorder{}

	var txMu sync.Mutex
	inTx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		txMu.Lock()
		defer txMu.Unlock()
		return fn(ctx)
	}

	svc := NewService(repo, src.sources(), queue, events, inTx, zerolog.Nop())
	return &testEnv{svc: svc, repo: repo, src: src, queue: queue, events: events}
}

func (e *testEnv) mustCreate(t *testing.T) *Referral {
	t.Helper()
	ref, err := e.svc.Create(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return ref
}

func (e *testEnv) setStatus(t *testing.T, id uuid.UUID, status Status) {
	t.Helper()
	ref, err := e.repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	ref.Status = status
	if err := e.repo.Update(context.Background(), ref); err != nil {
		t.Fatal(err)
	}
}

func TestCreate(t *testing.T) {
	env := newTestEnv()
	ref := env.mustCreate(t)
	if ref.Status != StatusDraft {
		t.Errorf("expected draft, got %s", ref.Status)
	}
	if ref.PacketStatus != PacketNotGenerated {
		t.Errorf("expected not_generated packet, got %s", ref.PacketStatus)
	}
	if got := env.events.Events(); len(got) != 1 || got[0] != notify.EventReferralCreated {
		t.Errorf("expected referral.created event, got %v", got)
	}
}

func TestCreate_DuplicateActive(t *testing.T) {
	env := newTestEnv()
	childID := uuid.New()
	if _, err := env.svc.Create(context.Background(), childID); err != nil {
		t.Fatal(err)
	}
	_, err := env.svc.Create(context.Background(), childID)
	var dup *DuplicateActiveReferralError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateActiveReferralError, got %v", err)
	}
}

func TestCreate_ConcurrentOneWinner(t *testing.T) {
	env := newTestEnv()
	childID := uuid.New()

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Create(context.Background(), childID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, duplicates int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		var dup *DuplicateActiveReferralError
		if errors.As(err, &dup) {
			duplicates++
		}
	}
	if successes != 1 || duplicates != 1 {
		t.Fatalf("expected exactly one success and one duplicate, got %d/%d", successes, duplicates)
	}
}

func TestCreate_AllowedAfterWithdraw(t *testing.T) {
	env := newTestEnv()
	childID := uuid.New()
	first, err := env.svc.Create(context.Background(), childID)
	if err != nil {
		t.Fatal(err)
	}
	env.setStatus(t, first.ID, StatusWithdrawn)
	if _, err := env.svc.Create(context.Background(), childID); err != nil {
		t.Fatalf("withdrawn referral must not block a new one: %v", err)
	}
}

func TestSubmit(t *testing.T) {
	env := newTestEnv()
	ref := env.mustCreate(t)

	submitted, err := env.svc.Submit(context.Background(), ref.ID)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if submitted.Status != StatusSubmitted {
		t.Errorf("expected submitted, got %s", submitted.Status)
	}
	if submitted.SubmittedAt == nil {
		t.Error("expected submitted_at stamp")
	}
	if submitted.PacketStatus != PacketGenerating {
		t.Errorf("expected generating packet status, got %s", submitted.PacketStatus)
	}
	if env.queue.Len() != 1 {
		t.Fatalf("expected 1 enqueued job, got %d", env.queue.Len())
	}
	job, _ := env.queue.Dequeue(context.Background())
	if job.Type != jobs.TypeGeneratePacket {
		t.Errorf("expected packet.generate job, got %s", job.Type)
	}
}

func TestSubmit_NotReadyLeavesDraft(t *testing.T) {
	env := newTestEnv()
	env.src.consents = nil
	ref := env.mustCreate(t)

	_, err := env.svc.Submit(context.Background(), ref.ID)
	var notReady *NotReadyError
	if !errors.As(err, &notReady) {
		t.Fatalf("expected NotReadyError, got %v", err)
	}
	if len(notReady.Missing) != 1 || notReady.Missing[0] != SectionConsents {
		t.Errorf("expected [Consents], got %v", notReady.Missing)
	}

	stored, err := env.repo.GetByID(context.Background(), ref.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != StatusDraft {
		t.Errorf("rejected submit must not mutate status, got %s", stored.Status)
	}
	if stored.SubmittedAt != nil || stored.PacketStatus != PacketNotGenerated {
		t.Error("rejected submit must not stamp fields")
	}
	if env.queue.Len() != 0 {
		t.Error("rejected submit must not enqueue packet generation")
	}
}

func TestSubmit_ConcurrentSecondRejected(t *testing.T) {
	env := newTestEnv()
	ref := env.mustCreate(t)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Submit(context.Background(), ref.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, rejections int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		var invalid *InvalidTransitionError
		if errors.As(err, &invalid) {
			rejections++
		}
	}
	if successes != 1 || rejections != 1 {
		t.Fatalf("expected one submit to win and one to see the new status, got %d/%d", successes, rejections)
	}
	if env.queue.Len() != 1 {
		t.Errorf("expected a single packet job, got %d", env.queue.Len())
	}
}

func TestTransition_SkippingStatesRejected(t *testing.T) {
	env := newTestEnv()
	ref := env.mustCreate(t)
	env.setStatus(t, ref.ID, StatusSubmitted)

	_, err := env.svc.Schedule(context.Background(), ref.ID, ScheduledSession{
		Date: time.Now().Add(48 * time.Hour), Time: "10:00", ClinicianName: "Dr. Okafor",
	})
	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTransitionError for submitted->scheduled, got %v", err)
	}
}

func TestTransition_TerminalStates(t *testing.T) {
	env := newTestEnv()
	ref := env.mustCreate(t)
	env.setStatus(t, ref.ID, StatusWithdrawn)

	_, err := env.svc.Transition(context.Background(), ref.ID, StatusInReview)
	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTransitionError from withdrawn, got %v", err)
	}
}

func TestTransition_FullLifecycle(t *testing.T) {
	env := newTestEnv()
	ref := env.mustCreate(t)

	if _, err := env.svc.Submit(context.Background(), ref.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.svc.Transition(context.Background(), ref.ID, StatusInReview); err != nil {
		t.Fatal(err)
	}
	if _, err := env.svc.Transition(context.Background(), ref.ID, StatusReadyToSchedule); err != nil {
		t.Fatal(err)
	}
	scheduled, err := env.svc.Schedule(context.Background(), ref.ID, ScheduledSession{
		Date: time.Now().Add(48 * time.Hour), Time: "10:00",
		ClinicianName: "Dr. Okafor", SessionType: "initial_evaluation",
	})
	if err != nil {
		t.Fatal(err)
	}
	if scheduled.ClinicianName == nil || *scheduled.ClinicianName != "Dr. Okafor" {
		t.Error("expected clinician captured on scheduled transition")
	}
	if scheduled.SessionDate == nil || scheduled.SessionTime == nil {
		t.Error("expected session date and time captured")
	}
	if _, err := env.svc.Transition(context.Background(), ref.ID, StatusClosed); err != nil {
		t.Fatal(err)
	}
}

func TestTransition_BackToActiveChecksDuplicate(t *testing.T) {
	env := newTestEnv()
	childID := uuid.New()
	first, err := env.svc.Create(context.Background(), childID)
	if err != nil {
		t.Fatal(err)
	}
	env.setStatus(t, first.ID, StatusInReview)

	// A sibling referral sneaks into draft while the first is in
	// review (possible only through legacy data, never through
	// Create), then in_review -> submitted must refuse.
	sibling := &Referral{ChildID: childID, Status: StatusDraft, PacketStatus: PacketNotGenerated}
	if err := env.repo.Create(context.Background(), sibling); err != nil {
		t.Fatal(err)
	}
	_, err = env.svc.Submit(context.Background(), first.ID)
	var dup *DuplicateActiveReferralError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateActiveReferralError, got %v", err)
	}
}

func TestWithdraw(t *testing.T) {
	env := newTestEnv()
	ref := env.mustCreate(t)
	env.setStatus(t, ref.ID, StatusSubmitted)

	withdrawn, err := env.svc.Withdraw(context.Background(), ref.ID)
	if err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	if withdrawn.Status != StatusWithdrawn || withdrawn.WithdrawnAt == nil {
		t.Errorf("expected withdrawn with stamp, got %+v", withdrawn)
	}
}

func TestWithdraw_FromDraftRejected(t *testing.T) {
	env := newTestEnv()
	ref := env.mustCreate(t)
	_, err := env.svc.Withdraw(context.Background(), ref.ID)
	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("draft has no withdrawn edge, got %v", err)
	}
}

func TestRecordStep(t *testing.T) {
	env := newTestEnv()
	ref := env.mustCreate(t)

	updated, err := env.svc.RecordStep(context.Background(), ref.ID, "insurance")
	if err != nil {
		t.Fatalf("RecordStep failed: %v", err)
	}
	if updated.LastCompletedStep == nil || *updated.LastCompletedStep != "insurance" {
		t.Error("expected last_completed_step recorded")
	}
	if updated.LastUpdatedStepAt == nil {
		t.Error("expected step timestamp")
	}

	if _, err := env.svc.RecordStep(context.Background(), ref.ID, "not_a_step"); err == nil {
		t.Error("expected error for unknown step")
	}
}

func TestDeletionFlow(t *testing.T) {
	env := newTestEnv()
	ref := env.mustCreate(t)

	// Approval without a request is refused.
	if _, err := env.svc.ApproveDeletion(context.Background(), ref.ID); err == nil {
		t.Fatal("expected error approving without a request")
	}

	requested, err := env.svc.RequestDeletion(context.Background(), ref.ID)
	if err != nil {
		t.Fatal(err)
	}
	if requested.DeletionRequestedAt == nil {
		t.Fatal("expected deletion_requested_at stamp")
	}

	deleted, err := env.svc.ApproveDeletion(context.Background(), ref.ID)
	if err != nil {
		t.Fatalf("ApproveDeletion failed: %v", err)
	}
	if deleted.Status != StatusDeleted {
		t.Errorf("expected deleted, got %s", deleted.Status)
	}
	if !env.repo.purged[ref.ID] {
		t.Error("purge must run before the status flips")
	}
}

func TestRejectDeletion(t *testing.T) {
	env := newTestEnv()
	ref := env.mustCreate(t)

	if _, err := env.svc.RequestDeletion(context.Background(), ref.ID); err != nil {
		t.Fatal(err)
	}
	rejected, err := env.svc.RejectDeletion(context.Background(), ref.ID)
	if err != nil {
		t.Fatalf("RejectDeletion failed: %v", err)
	}
	if rejected.DeletionRequestedAt != nil {
		t.Error("expected cleared request stamp")
	}
	if rejected.Status != StatusDraft {
		t.Errorf("rejection must not change status, got %s", rejected.Status)
	}
	found := false
	for _, e := range env.events.Events() {
		if e == notify.EventDeletionRejected {
			found = true
		}
	}
	if !found {
		t.Error("expected deletion.rejected event")
	}
}

func TestGeneratePacket(t *testing.T) {
	env := newTestEnv()
	ref := env.mustCreate(t)
	if _, err := env.svc.Submit(context.Background(), ref.ID); err != nil {
		t.Fatal(err)
	}

	if err := env.svc.GeneratePacket(context.Background(), ref.ID); err != nil {
		t.Fatalf("GeneratePacket failed: %v", err)
	}
	stored, err := env.repo.GetByID(context.Background(), ref.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.PacketStatus != PacketComplete {
		t.Errorf("expected complete packet status, got %s", stored.PacketStatus)
	}
	if _, err := env.svc.GetPacket(context.Background(), ref.ID); err != nil {
		t.Errorf("expected stored packet: %v", err)
	}
}

func TestGeneratePacket_FailureMarksFailed(t *testing.T) {
	env := newTestEnv()
	ref := env.mustCreate(t)
	if _, err := env.svc.Submit(context.Background(), ref.ID); err != nil {
		t.Fatal(err)
	}
	env.repo.failSave = true

	if err := env.svc.GeneratePacket(context.Background(), ref.ID); err == nil {
		t.Fatal("expected failure")
	}
	stored, err := env.repo.GetByID(context.Background(), ref.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.PacketStatus != PacketFailed {
		t.Errorf("expected failed packet status, got %s", stored.PacketStatus)
	}
	if stored.Status != StatusSubmitted {
		t.Errorf("packet failure must not touch referral status, got %s", stored.Status)
	}
}

func TestSetRiskFlag(t *testing.T) {
	env := newTestEnv()
	ref := env.mustCreate(t)
	if err := env.svc.SetRiskFlag(context.Background(), ref.ID); err != nil {
		t.Fatal(err)
	}
	stored, _ := env.repo.GetByID(context.Background(), ref.ID)
	if !stored.RiskFlag {
		t.Error("expected risk flag set")
	}
}
