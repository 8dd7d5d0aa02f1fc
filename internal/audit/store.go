package audit

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// Store manages one hash-chained log per log identity (normally the tool
// name). Each identity maps to an append-only JSONL file under dir; each
// file carries its own chain starting from an empty prev_hash.
type Store struct {
	dir  string
	mu   sync.Mutex
	logs map[string]*Log
}

// NewStore creates a store rooted at dir. Log files are created lazily on
// first append.
func NewStore(dir string) *Store {
	return &Store{dir: dir, logs: make(map[string]*Log)}
}

// Append durably writes rec to the log for logID and returns the completed
// record with prev_hash and hash populated.
func (s *Store) Append(logID string, rec Record) (Record, error) {
	l, err := s.log(logID)
	if err != nil {
		return Record{}, err
	}
	return l.Append(rec)
}

// Path returns the file path that backs logID's chain.
func (s *Store) Path(logID string) string {
	return filepath.Join(s.dir, SanitizeLogID(logID)+".jsonl")
}

// Close closes all open log files.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for _, l := range s.logs {
		if err := l.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.logs = make(map[string]*Log)
	return firstErr
}

func (s *Store) log(logID string) (*Log, error) {
	id := SanitizeLogID(logID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.logs[id]; ok {
		return l, nil
	}
	l, err := OpenLog(filepath.Join(s.dir, id+".jsonl"))
	if err != nil {
		return nil, fmt.Errorf("audit: open log %q: %w", id, err)
	}
	s.logs[id] = l
	return l, nil
}

// SanitizeLogID maps an arbitrary log identity to a safe file name:
// alphanumerics, dash, underscore and dot are kept, everything else
// becomes a dash. An empty identity maps to "unknown".
func SanitizeLogID(id string) string {
	if id == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "unknown"
	}
	return out
}
