package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Record is one line in a hash-chained JSONL audit log. All fields are
// scalars in a fixed struct order so json.Marshal produces a deterministic
// canonical form for hashing.
type Record struct {
	Timestamp string `json:"ts"`
	Tool      string `json:"tool"`
	Mode      string `json:"mode"`
	RequestID string `json:"request_id"`
	OK        bool   `json:"ok"`
	Summary   string `json:"summary"`
	PrevHash  string `json:"prev_hash"`
	Hash      string `json:"hash,omitempty"`
}

// ComputeHash returns "sha256:<hex>" over the record's canonical JSON with
// the hash field cleared. PrevHash participates in the digest, which is
// what links consecutive records into a tamper-evident chain.
func ComputeHash(rec Record) (string, error) {
	rec.Hash = ""
	canonical, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}
