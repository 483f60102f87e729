package entity

import (
	"testing"
	"time"
)

func TestOutboxMessageTerminal(t *testing.T) {
	cases := []struct {
		name string
		msg  OutboxMessage
		want bool
	}{
		{"pending", OutboxMessage{Status: OutboxStatusPending}, false},
		{"processing", OutboxMessage{Status: OutboxStatusProcessing}, false},
		{"completed", OutboxMessage{Status: OutboxStatusCompleted}, true},
		{"failed with retries left", OutboxMessage{Status: OutboxStatusFailed, RetryCount: 2}, false},
		{"failed exhausted", OutboxMessage{Status: OutboxStatusFailed, RetryCount: 3}, true},
	}
	for _, tc := range cases {
		if got := tc.msg.Terminal(3); got != tc.want {
			t.Errorf("%s: Terminal = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestOutboxMessageRetryEligible(t *testing.T) {
	now := time.Now().UTC()
	attempt := now.Add(-10 * time.Minute)

	msg := OutboxMessage{
		Status:        OutboxStatusFailed,
		RetryCount:    1,
		CreatedAt:     now.Add(-time.Hour),
		LastAttemptAt: &attempt,
	}

	if !msg.RetryEligible(3, 5*time.Minute, now) {
		t.Fatal("expected eligible after delay elapsed")
	}
	if msg.RetryEligible(3, 30*time.Minute, now) {
		t.Fatal("expected ineligible while delay pending")
	}
	if msg.RetryEligible(1, 5*time.Minute, now) {
		t.Fatal("expected ineligible once retries exhausted")
	}

	msg.Status = OutboxStatusPending
	if msg.RetryEligible(3, 5*time.Minute, now) {
		t.Fatal("only failed messages are retry candidates")
	}

	// Never attempted: the delay counts from creation.
	fresh := OutboxMessage{Status: OutboxStatusFailed, CreatedAt: now.Add(-time.Minute)}
	if fresh.RetryEligible(3, 5*time.Minute, now) {
		t.Fatal("expected ineligible before delay from creation elapsed")
	}
	if !fresh.RetryEligible(3, time.Second, now) {
		t.Fatal("expected eligible once delay from creation elapsed")
	}
}
