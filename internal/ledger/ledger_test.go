package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "leads.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestAppendAndRecent(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"req-1", "req-2", "req-3"} {
		err := l.Append(ctx, Entry{
			ReceivedAt: base.Add(time.Duration(i) * time.Minute),
			RequestID:  id,
			Company:    "Empresa " + id,
			Niche:      "holding",
			Score:      50 + float64(i),
		})
		if err != nil {
			t.Fatalf("Append %s: %v", id, err)
		}
	}

	recent, err := l.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(recent))
	}
	if recent[0].RequestID != "req-3" || recent[1].RequestID != "req-2" {
		t.Errorf("order = %s, %s; want newest first", recent[0].RequestID, recent[1].RequestID)
	}
	if !recent[1].ReceivedAt.Equal(base.Add(time.Minute)) {
		t.Errorf("received_at round-trip failed: %v", recent[1].ReceivedAt)
	}
}

func TestMarkSyncedAndUnsynced(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	for _, id := range []string{"req-1", "req-2"} {
		if err := l.Append(ctx, Entry{RequestID: id, ReceivedAt: time.Now()}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := l.MarkSynced(ctx, "req-1"); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}

	unsynced, err := l.Unsynced(ctx)
	if err != nil {
		t.Fatalf("Unsynced: %v", err)
	}
	if len(unsynced) != 1 || unsynced[0].RequestID != "req-2" {
		t.Errorf("unsynced = %+v, want only req-2", unsynced)
	}
}

func TestAppendDuplicateRequestID(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	if err := l.Append(ctx, Entry{RequestID: "req-1", ReceivedAt: time.Now()}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := l.Append(ctx, Entry{RequestID: "req-1", ReceivedAt: time.Now()}); err == nil {
		t.Fatal("duplicate request_id must be rejected")
	}
}
