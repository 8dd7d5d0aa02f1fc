package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Log is an append-only JSONL audit log with SHA-256 hash chaining. Each
// record's prev_hash is the hash of the previous record; the first record
// in a file carries an empty prev_hash.
type Log struct {
	path     string
	file     *os.File
	prevHash string
	mu       sync.Mutex
}

// OpenLog opens (or creates) an audit log file for appending. If the file
// already exists, the last line is read to recover the chain tail.
func OpenLog(path string) (*Log, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("audit: create directory: %w", err)
	}

	prevHash := ""
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		last, err := lastLine(path)
		if err != nil {
			return nil, err
		}
		if len(last) > 0 {
			var rec Record
			if err := json.Unmarshal(last, &rec); err != nil {
				return nil, fmt.Errorf("audit: parse chain tail of %s: %w", path, err)
			}
			prevHash = rec.Hash
		}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("audit: open file: %w", err)
	}

	return &Log{
		path:     path,
		file:     file,
		prevHash: prevHash,
	}, nil
}

// Append writes a record to the log with hash chaining and returns the
// completed record. PrevHash and Hash are set here; Timestamp is filled if
// empty. The read-tail/hash/write sequence runs as one critical section so
// concurrent appenders can never derive a stale prev_hash.
func (l *Log) Append(rec Record) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rec.Timestamp == "" {
		rec.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}
	rec.PrevHash = l.prevHash

	hash, err := ComputeHash(rec)
	if err != nil {
		return Record{}, fmt.Errorf("audit: hash record: %w", err)
	}
	rec.Hash = hash

	line, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("audit: marshal record: %w", err)
	}
	if _, err := l.file.Write(append(line, '\n')); err != nil {
		return Record{}, fmt.Errorf("audit: write record: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return Record{}, fmt.Errorf("audit: sync: %w", err)
	}

	l.prevHash = rec.Hash
	return rec, nil
}

// Path returns the log's file path.
func (l *Log) Path() string { return l.path }

// Close flushes and closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

func lastLine(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audit: read existing log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var last []byte
	for scanner.Scan() {
		last = make([]byte, len(scanner.Bytes()))
		copy(last, scanner.Bytes())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("audit: scan existing log: %w", err)
	}
	return last, nil
}
