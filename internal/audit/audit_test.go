package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func newTestLog(t *testing.T) (*Log, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "write_config.jsonl")
	l, err := OpenLog(path)
	if err != nil {
		t.Fatalf("failed to open audit log: %v", err)
	}
	return l, path
}

func testRecord(ok bool) Record {
	return Record{
		Tool:      "write_config",
		Mode:      "apply",
		RequestID: "r-test",
		OK:        ok,
		Summary:   "applied changes for /etc/app.yaml",
	}
}

func TestSequentialAppendsProduceValidChain(t *testing.T) {
	l, path := newTestLog(t)

	var prev Record
	for i := 0; i < 5; i++ {
		rec, err := l.Append(testRecord(true))
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if i == 0 {
			if rec.PrevHash != "" {
				t.Fatalf("first record prev_hash must be empty, got %q", rec.PrevHash)
			}
		} else if rec.PrevHash != prev.Hash {
			t.Fatalf("record %d: prev_hash %q != previous hash %q", i, rec.PrevHash, prev.Hash)
		}
		prev = rec
	}
	l.Close()

	result := Verify(path)
	if !result.Valid {
		t.Fatalf("expected valid chain, got error at line %d: %s", result.ErrorLine, result.Error)
	}
	if result.Lines != 5 {
		t.Fatalf("expected 5 lines, got %d", result.Lines)
	}
}

func TestVerifyDetectsTamperedRecord(t *testing.T) {
	l, path := newTestLog(t)
	for i := 0; i < 3; i++ {
		if _, err := l.Append(testRecord(true)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	l.Close()

	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	lines[1] = strings.Replace(lines[1], `"ok":true`, `"ok":false`, 1)
	os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0600)

	result := Verify(path)
	if result.Valid {
		t.Fatal("expected tampered chain to be invalid")
	}
	if result.ErrorLine != 2 {
		t.Fatalf("expected error at line 2, got line %d", result.ErrorLine)
	}
}

func TestVerifyDetectsDeletedRecord(t *testing.T) {
	l, path := newTestLog(t)
	for i := 0; i < 3; i++ {
		l.Append(testRecord(true))
	}
	l.Close()

	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	remaining := []string{lines[0], lines[2]}
	os.WriteFile(path, []byte(strings.Join(remaining, "\n")+"\n"), 0600)

	result := Verify(path)
	if result.Valid {
		t.Fatal("expected chain with deleted record to be invalid")
	}
	if result.ErrorLine != 2 {
		t.Fatalf("expected error at line 2, got line %d", result.ErrorLine)
	}
}

func TestVerifyDetectsInsertedRecord(t *testing.T) {
	l, path := newTestLog(t)
	for i := 0; i < 3; i++ {
		l.Append(testRecord(true))
	}
	l.Close()

	fake := testRecord(false)
	fake.Timestamp = "2026-01-01T00:00:00Z"
	fake.PrevHash = "sha256:fake"
	fake.Hash, _ = ComputeHash(fake)
	fakeJSON, _ := json.Marshal(fake)

	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	inserted := []string{lines[0], string(fakeJSON), lines[1], lines[2]}
	os.WriteFile(path, []byte(strings.Join(inserted, "\n")+"\n"), 0600)

	result := Verify(path)
	if result.Valid {
		t.Fatal("expected chain with inserted record to be invalid")
	}
}

func TestEmptyLogPassesVerification(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.jsonl")
	os.WriteFile(path, []byte{}, 0600)

	result := Verify(path)
	if !result.Valid {
		t.Fatalf("expected empty log to be valid, got: %s", result.Error)
	}
	if result.Lines != 0 {
		t.Fatalf("expected 0 lines, got %d", result.Lines)
	}
}

func TestConcurrentAppendsSerializeCorrectly(t *testing.T) {
	l, path := newTestLog(t)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Append(testRecord(true))
		}()
	}
	wg.Wait()
	l.Close()

	result := Verify(path)
	if !result.Valid {
		t.Fatalf("expected valid chain after concurrent appends, got error at line %d: %s", result.ErrorLine, result.Error)
	}
	if result.Lines != 100 {
		t.Fatalf("expected 100 lines, got %d", result.Lines)
	}
}

func TestReopenedLogContinuesChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.jsonl")

	l1, err := OpenLog(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		l1.Append(testRecord(true))
	}
	l1.Close()

	l2, err := OpenLog(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		l2.Append(testRecord(false))
	}
	l2.Close()

	result := Verify(path)
	if !result.Valid {
		t.Fatalf("expected valid chain after reopen, got error at line %d: %s", result.ErrorLine, result.Error)
	}
	if result.Lines != 5 {
		t.Fatalf("expected 5 lines, got %d", result.Lines)
	}
}

func TestComputeHashIsDeterministicAndExcludesHashField(t *testing.T) {
	rec := testRecord(true)
	rec.Timestamp = "2026-01-01T00:00:00Z"
	rec.PrevHash = "sha256:abc"

	h1, err := ComputeHash(rec)
	if err != nil {
		t.Fatal(err)
	}
	rec.Hash = h1
	h2, err := ComputeHash(rec)
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Fatalf("hash must not depend on the hash field: %s vs %s", h1, h2)
	}
	if !strings.HasPrefix(h1, "sha256:") || len(h1) != 7+64 {
		t.Fatalf("malformed hash %q", h1)
	}
}

func TestStoreKeepsIndependentChainsPerLogID(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	defer s.Close()

	first, err := s.Append("write_config", testRecord(true))
	if err != nil {
		t.Fatal(err)
	}
	cronRec := testRecord(true)
	cronRec.Tool = "schedule_cron"
	other, err := s.Append("schedule_cron", cronRec)
	if err != nil {
		t.Fatal(err)
	}

	if first.PrevHash != "" || other.PrevHash != "" {
		t.Fatal("each log identity must start its own chain")
	}

	second, err := s.Append("write_config", testRecord(false))
	if err != nil {
		t.Fatal(err)
	}
	if second.PrevHash != first.Hash {
		t.Fatalf("same-log append must link: %q vs %q", second.PrevHash, first.Hash)
	}
}

func TestSanitizeLogID(t *testing.T) {
	cases := map[string]string{
		"write_config":   "write_config",
		"../../etc/pwd":  "-..-etc-pwd",
		"":               "unknown",
		"tool name here": "tool-name-here",
		"...":            "unknown",
	}
	for in, want := range cases {
		if got := SanitizeLogID(in); got != want {
			t.Fatalf("SanitizeLogID(%q): expected %q, got %q", in, want, got)
		}
	}
}
