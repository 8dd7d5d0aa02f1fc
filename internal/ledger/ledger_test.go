package ledger

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("failed to open ledger: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestReserveThenCompleteRoundTrip(t *testing.T) {
	l := newTestLedger(t)

	err := l.Reserve(Run{RequestID: "r-1", Tool: "write_config", Mode: "apply"})
	if err != nil {
		t.Fatal(err)
	}
	err = l.Complete(Run{
		RequestID: "r-1",
		OK:        true,
		Summary:   "applied changes for /etc/app.yaml",
	})
	if err != nil {
		t.Fatal(err)
	}

	runs, err := l.Recent(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	r := runs[0]
	if r.RequestID != "r-1" || r.Tool != "write_config" || !r.OK {
		t.Fatalf("round trip lost fields: %+v", r)
	}
	if r.Summary != "applied changes for /etc/app.yaml" {
		t.Fatalf("unexpected summary: %q", r.Summary)
	}
}

func TestReserveDuplicateFails(t *testing.T) {
	l := newTestLedger(t)

	run := Run{RequestID: "r-dup", Tool: "write_config", Mode: "apply"}
	if err := l.Reserve(run); err != nil {
		t.Fatal(err)
	}
	err := l.Reserve(run)
	if err == nil {
		t.Fatal("duplicate request_id must be rejected")
	}
	if !errors.Is(err, ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest, got %v", err)
	}
}

func TestConcurrentReserveAdmitsExactlyOne(t *testing.T) {
	l := newTestLedger(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.Reserve(Run{RequestID: "r-race", Tool: "write_config", Mode: "apply"})
			if err == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			} else if !errors.Is(err, ErrDuplicateRequest) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if admitted != 1 {
		t.Fatalf("expected exactly one reservation to win, got %d", admitted)
	}
}

func TestCompleteUnreservedIsNoOp(t *testing.T) {
	l := newTestLedger(t)

	if err := l.Complete(Run{RequestID: "r-ghost", OK: true, Summary: "x"}); err != nil {
		t.Fatal(err)
	}
	runs, err := l.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Fatalf("completing an unreserved id must not create rows, got %d", len(runs))
	}
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	l := newTestLedger(t)

	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"r-a", "r-b", "r-c"} {
		if err := l.Reserve(Run{RequestID: id, Tool: "schedule_cron", Mode: "apply"}); err != nil {
			t.Fatal(err)
		}
		err := l.Complete(Run{
			RequestID: id,
			OK:        true,
			Summary:   "installed cron entry",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	runs, err := l.Recent(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].RequestID != "r-c" || runs[1].RequestID != "r-b" {
		t.Fatalf("expected newest first, got %s then %s", runs[0].RequestID, runs[1].RequestID)
	}
}
