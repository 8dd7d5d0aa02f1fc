package policy

import (
	"fmt"
	"os"
	"os/user"
	"strconv"
	"strings"
	"time"
)

// Execution modes a policy decision applies to.
const (
	ModeDryRun = "dry_run"
	ModeApply  = "apply"
)

// DeniedMarker is the stable substring every policy denial reason carries
// for caller-facing diagnostics.
const DeniedMarker = "denied by policy"

// Decision is the outcome of a policy evaluation.
type Decision struct {
	Allow  bool   `json:"allow"`
	Reason string `json:"reason"`

	// NeedsConfirm marks a validation-class refusal: the tool requires
	// confirmation and the request lacked it. Distinct from a denial; the
	// caller may retry with confirm=true.
	NeedsConfirm bool `json:"-"`
}

// Env is the ambient context conditions are checked against. Threading it
// explicitly keeps Evaluate a pure function of its arguments.
type Env struct {
	User string
	Host string
	Now  time.Time
}

// SystemEnv captures the current user, hostname, and local time.
func SystemEnv() Env {
	e := Env{Now: time.Now()}
	if su := os.Getenv("SUDO_USER"); su != "" {
		e.User = su
	} else if u, err := user.Current(); err == nil {
		e.User = u.Username
	}
	if h, err := os.Hostname(); err == nil {
		e.Host = h
	}
	return e
}

// Evaluate decides whether a tool invocation in the given mode is
// permitted. Dry-run is always allowed (nothing to gate). For apply: an
// exact tool entry's allow overrides default_allow, an absent entry falls
// back to default_allow, and conditions narrow an otherwise-allowed tool.
// Evaluation has no side effects.
func Evaluate(doc *Document, tool, mode string, confirm bool, inputs map[string]any, env Env) Decision {
	if mode != ModeApply {
		return Decision{Allow: true, Reason: "dry-run is always permitted"}
	}

	tp, hasEntry := doc.Tools[tool]

	allowed := doc.DefaultAllow
	if hasEntry && tp.Allow != nil {
		allowed = *tp.Allow
	}
	if !allowed {
		return Decision{Reason: fmt.Sprintf("tool %s %s", tool, DeniedMarker)}
	}

	if hasEntry && tp.RequireConfirm && !confirm {
		return Decision{
			NeedsConfirm: true,
			Reason:       fmt.Sprintf("tool %s requires confirmation; re-run with confirm=true", tool),
		}
	}

	if hasEntry && tp.Conditions != nil {
		if reason := checkConditions(tp.Conditions, inputs, env); reason != "" {
			return Decision{Reason: fmt.Sprintf("%s: %s", DeniedMarker, reason)}
		}
	}

	return Decision{Allow: true, Reason: "allowed by policy"}
}

// checkConditions returns a denial detail, or "" when every condition
// holds.
func checkConditions(c *Conditions, inputs map[string]any, env Env) string {
	if len(c.Users) > 0 && !containsString(c.Users, env.User) {
		return fmt.Sprintf("user %s not allowed", env.User)
	}

	if len(c.Hosts) > 0 {
		matched := false
		for _, pat := range c.Hosts {
			if matchPattern(pat, env.Host) {
				matched = true
				break
			}
		}
		if !matched {
			return fmt.Sprintf("host %s not allowed", env.Host)
		}
	}

	if len(c.HoursAllow) > 0 && !inHours(env.Now, c.HoursAllow) {
		return "outside allowed hours"
	}

	if path, _ := inputs["path"].(string); path != "" {
		if len(c.PathsAllow) > 0 {
			matched := false
			for _, pat := range c.PathsAllow {
				if matchPattern(pat, path) {
					matched = true
					break
				}
			}
			if !matched {
				return fmt.Sprintf("path not allowed: %s", path)
			}
		}
		for _, pat := range c.PathsDeny {
			if matchPattern(pat, path) {
				return fmt.Sprintf("path denied: %s", path)
			}
		}
	}

	if name, _ := inputs["name"].(string); name != "" {
		if len(c.NamesAllow) > 0 && !containsString(c.NamesAllow, name) {
			return fmt.Sprintf("name not allowed: %s", name)
		}
	}

	return ""
}

// matchPattern checks a value against a simple glob: *x* contains,
// *x suffix, x* prefix, exact otherwise. Matching is case-insensitive.
func matchPattern(pattern, value string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}

	lowerValue := strings.ToLower(value)
	lowerPattern := strings.ToLower(pattern)

	if strings.HasPrefix(lowerPattern, "*") && strings.HasSuffix(lowerPattern, "*") {
		return strings.Contains(lowerValue, lowerPattern[1:len(lowerPattern)-1])
	}
	if strings.HasPrefix(lowerPattern, "*") {
		return strings.HasSuffix(lowerValue, lowerPattern[1:])
	}
	if strings.HasSuffix(lowerPattern, "*") {
		return strings.HasPrefix(lowerValue, lowerPattern[:len(lowerPattern)-1])
	}
	return lowerValue == lowerPattern
}

// inHours reports whether t's local clock time falls inside any of the
// "HH:MM-HH:MM" ranges. Ranges may wrap midnight; malformed ranges are
// skipped.
func inHours(t time.Time, ranges []string) bool {
	now := t.Hour()*60 + t.Minute()
	for _, r := range ranges {
		start, end, ok := parseHourRange(r)
		if !ok {
			continue
		}
		if start <= end {
			if now >= start && now <= end {
				return true
			}
		} else { // wraps midnight
			if now >= start || now <= end {
				return true
			}
		}
	}
	return false
}

func parseHourRange(r string) (start, end int, ok bool) {
	parts := strings.SplitN(r, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	start, ok = parseClock(parts[0])
	if !ok {
		return 0, 0, false
	}
	end, ok = parseClock(parts[1])
	if !ok {
		return 0, 0, false
	}
	return start, end, true
}

func parseClock(s string) (int, bool) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
