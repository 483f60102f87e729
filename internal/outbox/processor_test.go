package outbox_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dhanasekaranr/screensync/internal/domain/entity"
	"github.com/dhanasekaranr/screensync/internal/outbox"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fakeOutboxRepo is an in-memory message store with the same state machine
// as the SQL repository.
type fakeOutboxRepo struct {
	mu        sync.Mutex
	messages  map[int64]*entity.OutboxMessage
	order     []int64
	denyClaim map[int64]bool
	nextID    int64
}

func newFakeOutboxRepo() *fakeOutboxRepo {
	return &fakeOutboxRepo{messages: make(map[int64]*entity.OutboxMessage)}
}

func (r *fakeOutboxRepo) add(msg entity.OutboxMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := msg
	if m.ID == 0 {
		r.nextID++
		m.ID = r.nextID
	}
	if m.Status == "" {
		m.Status = entity.OutboxStatusPending
	}
	r.messages[m.ID] = &m
	r.order = append(r.order, m.ID)
}

func (r *fakeOutboxRepo) get(id int64) entity.OutboxMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.messages[id]
}

func (r *fakeOutboxRepo) Append(ctx context.Context, msg *entity.OutboxMessage) error {
	r.add(*msg)
	return nil
}

func (r *fakeOutboxRepo) AppendBatch(ctx context.Context, msgs []*entity.OutboxMessage) error {
	for _, msg := range msgs {
		r.add(*msg)
	}
	return nil
}

func (r *fakeOutboxRepo) GetPendingMessages(ctx context.Context, batchSize int) ([]entity.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.OutboxMessage
	for _, id := range r.order {
		if len(out) >= batchSize {
			break
		}
		if r.messages[id].Status == entity.OutboxStatusPending {
			out = append(out, *r.messages[id])
		}
	}
	return out, nil
}

func (r *fakeOutboxRepo) GetRetryableMessages(ctx context.Context, batchSize, maxRetryCount int, retryDelay time.Duration) ([]entity.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	var out []entity.OutboxMessage
	for _, id := range r.order {
		if len(out) >= batchSize {
			break
		}
		if r.messages[id].RetryEligible(maxRetryCount, retryDelay, now) {
			out = append(out, *r.messages[id])
		}
	}
	return out, nil
}

func (r *fakeOutboxRepo) ClaimMessage(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok || r.denyClaim[id] {
		return false, nil
	}
	if msg.Status != entity.OutboxStatusPending && msg.Status != entity.OutboxStatusFailed {
		return false, nil
	}
	now := time.Now().UTC()
	msg.Status = entity.OutboxStatusProcessing
	msg.LastAttemptAt = &now
	return true, nil
}

func (r *fakeOutboxRepo) MarkProcessed(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	r.messages[id].Status = entity.OutboxStatusCompleted
	r.messages[id].ProcessedAt = &now
	return nil
}

func (r *fakeOutboxRepo) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	msg := r.messages[id]
	msg.Status = entity.OutboxStatusFailed
	msg.RetryCount++
	msg.ErrorMessage = errMsg
	msg.LastAttemptAt = &now
	return nil
}

func (r *fakeOutboxRepo) MarkFailedPermanent(ctx context.Context, id int64, errMsg string, maxRetryCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	msg := r.messages[id]
	msg.Status = entity.OutboxStatusFailed
	msg.RetryCount = maxRetryCount
	msg.ErrorMessage = errMsg
	msg.LastAttemptAt = &now
	return nil
}

func (r *fakeOutboxRepo) ReclaimStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().UTC().Add(-olderThan)
	var count int64
	for _, msg := range r.messages {
		if msg.Status != entity.OutboxStatusProcessing {
			continue
		}
		since := msg.CreatedAt
		if msg.LastAttemptAt != nil {
			since = *msg.LastAttemptAt
		}
		if since.Before(cutoff) {
			msg.Status = entity.OutboxStatusPending
			count++
		}
	}
	return count, nil
}

type fakeApplier struct {
	mu      sync.Mutex
	applied []entity.OutboxMessage
	fn      func(msg entity.OutboxMessage) error
}

func (a *fakeApplier) Replicate(ctx context.Context, msg entity.OutboxMessage) error {
	a.mu.Lock()
	a.applied = append(a.applied, msg)
	a.mu.Unlock()
	if a.fn != nil {
		return a.fn(msg)
	}
	return nil
}

func (a *fakeApplier) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.applied)
}

func pendingMessage(id, entityID int64) entity.OutboxMessage {
	return entity.OutboxMessage{
		ID:         id,
		EntityType: "ScreenDefinition",
		EntityID:   entityID,
		Operation:  entity.OperationInsert,
		Payload:    datatypes.JSON(`{"ID":` + fmt.Sprint(entityID) + `}`),
		Status:     entity.OutboxStatusPending,
		TargetDB:   "secondary",
		CreatedAt:  time.Now().UTC().Add(time.Duration(id) * time.Millisecond),
	}
}

func TestProcessorTickRespectsBatchSize(t *testing.T) {
	repo := newFakeOutboxRepo()
	for i := int64(1); i <= 100; i++ {
		repo.add(pendingMessage(i, i))
	}
	applier := &fakeApplier{}
	proc := outbox.NewProcessor(repo, applier, nil, newTestLogger(), outbox.ProcessorConfig{
		BatchSize: 10,
		Workers:   4,
	})

	if err := proc.Tick(context.Background()); err != nil {
		t.Fatalf("tick failed: %v", err)
	}

	if got := applier.count(); got != 10 {
		t.Fatalf("expected 10 applied, got %d", got)
	}
	var completed, pending int
	for i := int64(1); i <= 100; i++ {
		switch repo.get(i).Status {
		case entity.OutboxStatusCompleted:
			completed++
		case entity.OutboxStatusPending:
			pending++
		}
	}
	if completed != 10 || pending != 90 {
		t.Fatalf("expected 10 completed and 90 pending, got %d/%d", completed, pending)
	}
}

func TestProcessorSkipsLostClaims(t *testing.T) {
	repo := newFakeOutboxRepo()
	repo.add(pendingMessage(1, 42))
	repo.add(pendingMessage(2, 43))
	// Simulate another instance winning the claim on message 1.
	repo.denyClaim = map[int64]bool{1: true}

	applier := &fakeApplier{}
	proc := outbox.NewProcessor(repo, applier, nil, newTestLogger(), outbox.ProcessorConfig{BatchSize: 10})

	if err := proc.Tick(context.Background()); err != nil {
		t.Fatalf("tick failed: %v", err)
	}

	if got := applier.count(); got != 1 {
		t.Fatalf("expected only the claimable message applied, got %d", got)
	}
	if repo.get(1).Status != entity.OutboxStatusPending {
		t.Fatalf("expected unclaimed message untouched, got %s", repo.get(1).Status)
	}
	if repo.get(2).Status != entity.OutboxStatusCompleted {
		t.Fatalf("expected message 2 completed, got %s", repo.get(2).Status)
	}
}

func TestProcessorRetryExhaustionIsTerminal(t *testing.T) {
	repo := newFakeOutboxRepo()
	repo.add(pendingMessage(1, 7))

	applier := &fakeApplier{fn: func(entity.OutboxMessage) error {
		return errors.New("connection refused")
	}}
	proc := outbox.NewProcessor(repo, applier, nil, newTestLogger(), outbox.ProcessorConfig{
		BatchSize:     10,
		MaxRetryCount: 3,
		RetryDelay:    time.Nanosecond,
	})

	for i := 0; i < 6; i++ {
		if err := proc.Tick(context.Background()); err != nil {
			t.Fatalf("tick %d failed: %v", i, err)
		}
	}

	msg := repo.get(1)
	if msg.Status != entity.OutboxStatusFailed {
		t.Fatalf("expected failed, got %s", msg.Status)
	}
	if msg.RetryCount != 3 {
		t.Fatalf("expected retry_count 3, got %d", msg.RetryCount)
	}
	if got := applier.count(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
	if msg.ErrorMessage == "" {
		t.Fatal("expected error message recorded")
	}

	// Terminal messages must never come back from the fetch.
	retryable, _ := repo.GetRetryableMessages(context.Background(), 10, 3, 0)
	if len(retryable) != 0 {
		t.Fatalf("expected no retryable messages, got %d", len(retryable))
	}
}

func TestProcessorPermanentFailureTerminatesImmediately(t *testing.T) {
	repo := newFakeOutboxRepo()
	repo.add(pendingMessage(1, 7))

	applier := &fakeApplier{fn: func(entity.OutboxMessage) error {
		return fmt.Errorf("decode: %w", outbox.ErrPermanent)
	}}
	proc := outbox.NewProcessor(repo, applier, nil, newTestLogger(), outbox.ProcessorConfig{
		BatchSize:     10,
		MaxRetryCount: 5,
		RetryDelay:    time.Nanosecond,
	})

	for i := 0; i < 3; i++ {
		if err := proc.Tick(context.Background()); err != nil {
			t.Fatalf("tick failed: %v", err)
		}
	}

	msg := repo.get(1)
	if msg.Status != entity.OutboxStatusFailed || msg.RetryCount != 5 {
		t.Fatalf("expected terminal failure with retry_count 5, got %s/%d", msg.Status, msg.RetryCount)
	}
	if got := applier.count(); got != 1 {
		t.Fatalf("expected a single attempt, got %d", got)
	}
}

func TestProcessorPreservesPerEntityOrder(t *testing.T) {
	repo := newFakeOutboxRepo()
	// Interleave messages for two entities; parallel workers must still apply
	// each entity's messages in id order.
	for i := int64(1); i <= 20; i++ {
		repo.add(pendingMessage(i, i%2))
	}

	applier := &fakeApplier{}
	proc := outbox.NewProcessor(repo, applier, nil, newTestLogger(), outbox.ProcessorConfig{
		BatchSize: 20,
		Workers:   4,
	})

	if err := proc.Tick(context.Background()); err != nil {
		t.Fatalf("tick failed: %v", err)
	}

	perEntity := make(map[int64][]int64)
	applier.mu.Lock()
	for _, msg := range applier.applied {
		perEntity[msg.EntityID] = append(perEntity[msg.EntityID], msg.ID)
	}
	applier.mu.Unlock()

	for entityID, ids := range perEntity {
		if !sort.SliceIsSorted(ids, func(i, j int) bool { return ids[i] < ids[j] }) {
			t.Fatalf("entity %d applied out of order: %v", entityID, ids)
		}
	}
}

func TestProcessorReclaimsStaleClaims(t *testing.T) {
	repo := newFakeOutboxRepo()
	stale := pendingMessage(1, 9)
	stale.Status = entity.OutboxStatusProcessing
	attempt := time.Now().UTC().Add(-time.Hour)
	stale.LastAttemptAt = &attempt
	repo.add(stale)

	applier := &fakeApplier{}
	proc := outbox.NewProcessor(repo, applier, nil, newTestLogger(), outbox.ProcessorConfig{
		BatchSize:         10,
		StaleClaimTimeout: time.Minute,
	})

	if err := proc.Tick(context.Background()); err != nil {
		t.Fatalf("tick failed: %v", err)
	}

	if repo.get(1).Status != entity.OutboxStatusCompleted {
		t.Fatalf("expected reclaimed message completed, got %s", repo.get(1).Status)
	}
	if got := applier.count(); got != 1 {
		t.Fatalf("expected exactly one apply after reclaim, got %d", got)
	}
}

func TestProcessorRunStopsOnCancel(t *testing.T) {
	repo := newFakeOutboxRepo()
	proc := outbox.NewProcessor(repo, &fakeApplier{}, nil, newTestLogger(), outbox.ProcessorConfig{
		PollInterval: time.Hour, // sleep must still be interruptible
		BatchSize:    10,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- proc.Run(ctx)
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("processor did not stop promptly on cancel")
	}
}

type recordingNotifier struct {
	mu      sync.Mutex
	applied []int64
	failed  []int64
}

func (n *recordingNotifier) ReplicationApplied(ctx context.Context, msg entity.OutboxMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.applied = append(n.applied, msg.ID)
	return nil
}

func (n *recordingNotifier) ReplicationFailed(ctx context.Context, msg entity.OutboxMessage, errMsg string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, msg.ID)
	return nil
}

func TestProcessorNotifiesOutcomes(t *testing.T) {
	repo := newFakeOutboxRepo()
	repo.add(pendingMessage(1, 1))
	repo.add(pendingMessage(2, 2))

	applier := &fakeApplier{fn: func(msg entity.OutboxMessage) error {
		if msg.ID == 2 {
			return errors.New("timeout")
		}
		return nil
	}}
	notifier := &recordingNotifier{}
	proc := outbox.NewProcessor(repo, applier, notifier, newTestLogger(), outbox.ProcessorConfig{
		BatchSize:     10,
		MaxRetryCount: 3,
	})

	if err := proc.Tick(context.Background()); err != nil {
		t.Fatalf("tick failed: %v", err)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.applied) != 1 || notifier.applied[0] != 1 {
		t.Fatalf("expected applied notification for message 1, got %v", notifier.applied)
	}
	if len(notifier.failed) != 1 || notifier.failed[0] != 2 {
		t.Fatalf("expected failed notification for message 2, got %v", notifier.failed)
	}
}
