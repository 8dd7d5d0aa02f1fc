package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// VerifyResult holds the outcome of a hash chain verification.
type VerifyResult struct {
	Valid     bool   `json:"valid"`
	Lines     int    `json:"lines"`
	Error     string `json:"error,omitempty"`
	ErrorLine int    `json:"error_line,omitempty"`
}

// Verify reads a JSONL audit log and validates the hash chain: every
// record's hash must match its recomputed digest, the first record must
// carry an empty prev_hash, and each subsequent prev_hash must equal the
// previous record's hash. Returns details about the first broken link.
func Verify(path string) VerifyResult {
	f, err := os.Open(path)
	if err != nil {
		return VerifyResult{Error: fmt.Sprintf("open: %v", err)}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	prevHash := ""
	for scanner.Scan() {
		lineNum++

		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return VerifyResult{
				Error:     fmt.Sprintf("parse error: %v", err),
				ErrorLine: lineNum,
			}
		}

		want, err := ComputeHash(rec)
		if err != nil {
			return VerifyResult{
				Error:     fmt.Sprintf("hash error: %v", err),
				ErrorLine: lineNum,
			}
		}
		if rec.Hash != want {
			return VerifyResult{
				Error:     fmt.Sprintf("record hash mismatch: stored %s, computed %s", rec.Hash, want),
				ErrorLine: lineNum,
			}
		}

		if lineNum == 1 {
			if rec.PrevHash != "" {
				return VerifyResult{
					Error:     fmt.Sprintf("first record prev_hash is %q, expected empty", rec.PrevHash),
					ErrorLine: 1,
				}
			}
		} else if rec.PrevHash != prevHash {
			return VerifyResult{
				Error:     fmt.Sprintf("chain broken: prev_hash %s, expected %s", rec.PrevHash, prevHash),
				ErrorLine: lineNum,
			}
		}

		prevHash = rec.Hash
	}

	if err := scanner.Err(); err != nil {
		return VerifyResult{Error: fmt.Sprintf("scan: %v", err)}
	}

	return VerifyResult{Valid: true, Lines: lineNum}
}
