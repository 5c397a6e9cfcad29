package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestMemorySeenLedgerMarkIfNew(t *testing.T) {
	ledger := NewMemorySeenLedger(10)
	ctx := context.Background()

	if !ledger.MarkIfNew(ctx, "msg-1") {
		t.Fatal("first sighting should be new")
	}
	if ledger.MarkIfNew(ctx, "msg-1") {
		t.Fatal("second sighting should be rejected")
	}
}

func TestMemorySeenLedgerFIFOEviction(t *testing.T) {
	ledger := NewMemorySeenLedger(3)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		ledger.MarkIfNew(ctx, fmt.Sprintf("msg-%d", i))
	}

	if ledger.Len() != 3 {
		t.Fatalf("expected ledger size 3, got %d", ledger.Len())
	}

	// msg-1 was evicted first, so it counts as new again
	if !ledger.MarkIfNew(ctx, "msg-1") {
		t.Error("oldest entry should have been evicted")
	}
	// msg-4 is still tracked
	if ledger.MarkIfNew(ctx, "msg-4") {
		t.Error("recent entry should still be tracked")
	}
}

func TestMemorySeenLedgerEvictionIgnoresAccessRecency(t *testing.T) {
	ledger := NewMemorySeenLedger(2)
	ctx := context.Background()

	ledger.MarkIfNew(ctx, "a")
	ledger.MarkIfNew(ctx, "b")
	ledger.MarkIfNew(ctx, "a") // duplicate access must not refresh position
	ledger.MarkIfNew(ctx, "c") // evicts "a", the oldest insertion

	if !ledger.MarkIfNew(ctx, "a") {
		t.Error("insertion-ordered eviction should have dropped the oldest entry")
	}
}

func TestMemorySeenLedgerConcurrentRace(t *testing.T) {
	ledger := NewMemorySeenLedger(100)
	ctx := context.Background()

	// Simulate the webhook and the poller racing on the same id: exactly
	// one caller may win, across many attempts.
	const attempts = 50
	for i := 0; i < attempts; i++ {
		id := fmt.Sprintf("race-%d", i)
		var wins int32
		var wg sync.WaitGroup
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if ledger.MarkIfNew(ctx, id) {
					atomic.AddInt32(&wins, 1)
				}
			}()
		}
		wg.Wait()
		if wins != 1 {
			t.Fatalf("id %s: expected exactly 1 winner, got %d", id, wins)
		}
	}
}
