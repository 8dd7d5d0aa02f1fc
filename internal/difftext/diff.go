// Package difftext renders unified diffs for dry-run previews and audit
// summaries. Rendering is pure text work; it never touches the filesystem.
package difftext

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Unified returns a unified diff between two textual renderings of target.
// Headers are "--- <target> (before)" and "+++ <target> (after)". Output is
// deterministic for identical inputs and empty when the inputs are equal.
func Unified(target, before, after string) string {
	if before == after {
		return ""
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: target + " (before)",
		ToFile:   target + " (after)",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		// SplitLines never produces input GetUnifiedDiffString rejects.
		return ""
	}
	return text
}
